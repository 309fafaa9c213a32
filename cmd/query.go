package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"kbsearch/internal/api"
)

var (
	flagQueryRerank bool
	flagQueryLLM    bool
	flagQueryN      int
	flagQueryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run a one-shot search against the backend",
	Long:  "Runs a search against the non-streaming endpoint and prints the ranked results. With --llm the generated answer is printed after the results.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		req := api.QueryRequest{
			Query:     strings.Join(args, " "),
			UseRerank: flagQueryRerank,
			UseLLM:    flagQueryLLM,
			NResults:  flagQueryN,
		}
		resp, err := e.api.Query(cmd.Context(), req)
		if err != nil {
			return err
		}

		if flagQueryJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if len(resp.Results) == 0 {
			fmt.Println("No results.")
			return nil
		}

		lines := lo.Map(resp.Results, func(r api.ResultItem, _ int) string {
			sim := "n/a"
			if r.Similarity != nil {
				sim = fmt.Sprintf("%.2f", *r.Similarity)
			}
			return fmt.Sprintf("%2d. %s (%s)\n    %s\n    %s", r.Rank, r.Title, sim, r.Source, r.Snippet)
		})
		fmt.Println(strings.Join(lines, "\n\n"))
		fmt.Printf("\n%d results\n", resp.TotalResults)

		if resp.LLMResponse != nil {
			fmt.Println("\n--- Answer ---")
			fmt.Println(*resp.LLMResponse)
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().BoolVar(&flagQueryRerank, "rerank", true, "rerank results with the cross-encoder")
	queryCmd.Flags().BoolVar(&flagQueryLLM, "llm", false, "generate an answer from the top results")
	queryCmd.Flags().IntVar(&flagQueryN, "n", 10, "number of results to retrieve")
	queryCmd.Flags().BoolVar(&flagQueryJSON, "json", false, "print the raw JSON response")
	rootCmd.AddCommand(queryCmd)
}
