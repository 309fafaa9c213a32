package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kbsearch/internal/history"
)

var flagHistoryN int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		store, err := history.Open(e.cfg.HistoryFile)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(flagHistoryN)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No queries recorded yet.")
			return nil
		}

		for _, entry := range entries {
			flags := ""
			if entry.UseRerank {
				flags += " rerank"
			}
			if entry.UseLLM {
				flags += " llm"
			}
			fmt.Printf("%s  %-50q %3d results%s\n",
				entry.CreatedAt.Format("2006-01-02 15:04"), entry.Query, entry.TotalResults, flags)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryN, "n", 20, "number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
