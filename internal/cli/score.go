package cli

import (
	"errors"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/microsoft/AzureSearch-MRC/internal/usecase/ranking"
)

func newScoreCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score --query QUERY TEXT...",
		Short: "Print BM25 scores of texts against a query",
		Long: `Fit BM25 statistics over the given texts and score each against the
query, using the same preprocessing as passage reranking.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			if query == "" {
				return errors.New("--query is required")
			}

			model := ranking.NewModel()
			if cmd.Flags().Changed("k1") {
				model.K1, _ = cmd.Flags().GetFloat64("k1")
			}
			if cmd.Flags().Changed("b") {
				model.B, _ = cmd.Flags().GetFloat64("b")
			}

			stats, err := model.Fit(ranking.PreprocessCorpus(args))
			if err != nil {
				return err
			}
			scores := stats.Scores(ranking.PreprocessQuery(query))

			order := make([]int, len(args))
			for i := range order {
				order[i] = i
			}
			sort.SliceStable(order, func(x, y int) bool {
				return scores[order[x]] > scores[order[y]]
			})

			rows := make([][]string, 0, len(order))
			for rank, i := range order {
				rows = append(rows, []string{
					strconv.Itoa(rank + 1),
					strconv.FormatFloat(scores[i], 'f', 4, 64),
					args[i],
				})
			}
			return a.printer.Table([]string{"Rank", "Score", "Text"}, rows)
		},
	}

	cmd.Flags().String("query", "", "query to score against")
	cmd.Flags().Float64("k1", ranking.DefaultK1, "term frequency saturation")
	cmd.Flags().Float64("b", ranking.DefaultB, "length normalisation")
	return cmd
}
