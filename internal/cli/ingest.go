package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/microsoft/AzureSearch-MRC/internal/di"
	"github.com/microsoft/AzureSearch-MRC/internal/ingest"
)

func newIngestCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Load JSON-lines or HTML documents into the bleve index",
		Long: `Load documents into the embedded bleve index.

JSON-lines files hold one document per line with document_id, title,
document_uri, metadata_storage_name and paragraphs. HTML files are split
into their <p> paragraphs. Directories are walked recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			indexPath := a.v.GetString("index")
			if indexPath == "" {
				return errors.New("an index path is required (--index, MRC_INDEX or BLEVE_INDEX_PATH)")
			}

			files, err := ingest.Expand(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				a.printer.Warning("no supported files under %v", args)
				return nil
			}

			loader := ingest.NewLoader(a.v.GetInt("concurrency"), a.logger)
			docs, err := loader.Load(cmd.Context(), files)
			if err != nil {
				return fmt.Errorf("loading documents: %w", err)
			}

			idx, err := di.OpenBleve(indexPath, a.logger)
			if err != nil {
				return err
			}
			defer idx.Close()

			if err := idx.IndexDocuments(cmd.Context(), docs); err != nil {
				return fmt.Errorf("indexing documents: %w", err)
			}
			total, err := idx.Count()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{d.ID, d.Title, strconv.Itoa(len(d.Paragraphs))})
			}
			if err := a.printer.Table([]string{"Document", "Title", "Paragraphs"}, rows); err != nil {
				return err
			}
			a.printer.Success("indexed %d documents from %d files into %s (%d total)", len(docs), len(files), indexPath, total)
			return nil
		},
	}

	cmd.Flags().String("index", "", "bleve index directory (created when missing)")
	cmd.Flags().Int("concurrency", ingest.DefaultConcurrency, "files parsed in parallel")
	_ = a.v.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = a.v.BindEnv("index", "MRC_INDEX", "BLEVE_INDEX_PATH")
	_ = a.v.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))
	return cmd
}
