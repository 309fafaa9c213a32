package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagResetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all documents from the backend's vector collection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !flagResetYes {
			return fmt.Errorf("this deletes every indexed document; re-run with --yes to confirm")
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		resp, err := e.api.Reset(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&flagResetYes, "yes", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}
