package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/microsoft/AzureSearch-MRC/internal/adapter/mrc_http"
	"github.com/microsoft/AzureSearch-MRC/internal/di"
	"github.com/microsoft/AzureSearch-MRC/internal/domain"
	"github.com/microsoft/AzureSearch-MRC/internal/infra/config"
	"github.com/microsoft/AzureSearch-MRC/internal/usecase"
)

func newAskCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a question with the configured index and reader",
		Long: `Run one question through retrieval, reranking and extraction.

The search backend and reader are configured with the same environment
variables as the server (SEARCH_BACKEND, READER_URL, ...).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format := a.v.GetString("output")
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid output format %q: must be table or json", format)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			components, err := di.NewApplicationComponents(cfg, a.logger)
			if err != nil {
				return err
			}
			defer components.Close()

			input := usecase.AnswerQuestionInput{
				Question:     strings.Join(args, " "),
				Documents:    components.Defaults.Documents,
				Threshold:    components.Defaults.Threshold,
				Tokenize:     components.Defaults.Tokenize,
				RerankBudget: components.Defaults.RerankBudget,
			}
			flags := cmd.Flags()
			if flags.Changed("documents") {
				input.Documents, _ = flags.GetInt("documents")
			}
			if flags.Changed("threshold") {
				input.Threshold, _ = flags.GetFloat64("threshold")
			}
			if flags.Changed("tokenize") {
				input.Tokenize, _ = flags.GetBool("tokenize")
			}
			if flags.Changed("bm-ndoc") {
				input.RerankBudget, _ = flags.GetInt("bm-ndoc")
			}
			if input.Documents < 1 || input.RerankBudget < 1 {
				return fmt.Errorf("%w: documents and bm-ndoc must be at least 1", domain.ErrInvalidParameter)
			}

			out, err := components.AnswerUsecase.Execute(cmd.Context(), input)
			if errors.Is(err, domain.ErrNoQuestion) {
				return errors.New("the question is empty")
			}
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(mrc_http.AnswerResponse{Answers: out.Answers, Counts: out.Counts})
			}

			if len(out.Answers) == 0 {
				a.printer.Warning("no answer found in %d passages", out.Counts.Documents)
				return nil
			}
			rows := make([][]string, 0, len(out.Answers))
			for _, ans := range out.Answers {
				rows = append(rows, []string{ans.Answer, ans.Title, ans.DocumentID, ans.DocumentURI})
			}
			if err := a.printer.Table([]string{"Answer", "Title", "Document", "URI"}, rows); err != nil {
				return err
			}
			a.printer.Info("%d answers from %d passages", out.Counts.Answers, out.Counts.Documents)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Int("documents", 5, "number of index hits requested")
	flags.Float64("threshold", 0, "minimum index score (exclusive)")
	flags.Bool("tokenize", true, "reduce highlights to their first sentence")
	flags.Int("bm-ndoc", 3, "passages kept by BM25 reranking")
	flags.StringP("output", "o", "table", "output format: table or json")
	_ = a.v.BindPFlag("output", flags.Lookup("output"))
	return cmd
}
