package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kbsearch/internal/api"
)

var (
	flagCfgFolder    string
	flagCfgChunkSize int
	flagCfgOverlap   int
	flagCfgBatchSize int
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the server's ingestion configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		cfg, err := e.api.GetConfig(cmd.Context())
		if err != nil {
			return err
		}
		printConfig(cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update server configuration fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		var update api.ConfigUpdate
		if cmd.Flags().Changed("folder") {
			update.KBFolder = &flagCfgFolder
		}
		if cmd.Flags().Changed("chunk-size") {
			update.ChunkSize = &flagCfgChunkSize
		}
		if cmd.Flags().Changed("overlap") {
			update.Overlap = &flagCfgOverlap
		}
		if cmd.Flags().Changed("batch-size") {
			update.BatchSize = &flagCfgBatchSize
		}
		if update == (api.ConfigUpdate{}) {
			return fmt.Errorf("nothing to update; pass at least one of --folder, --chunk-size, --overlap, --batch-size")
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		cfg, err := e.api.UpdateConfig(cmd.Context(), update)
		if err != nil {
			return err
		}
		printConfig(cfg)
		return nil
	},
}

var configResetFolderCmd = &cobra.Command{
	Use:   "reset-folder",
	Short: "Reset the knowledge-base folder to its default",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		cfg, err := e.api.ResetKBFolder(cmd.Context())
		if err != nil {
			return err
		}
		printConfig(cfg)
		return nil
	},
}

func printConfig(cfg api.Config) {
	fmt.Printf("kb_folder:  %s\n", cfg.KBFolder)
	fmt.Printf("chunk_size: %d\n", cfg.ChunkSize)
	fmt.Printf("overlap:    %d\n", cfg.Overlap)
	fmt.Printf("batch_size: %d\n", cfg.BatchSize)
}

func init() {
	configSetCmd.Flags().StringVar(&flagCfgFolder, "folder", "", "knowledge-base folder path")
	configSetCmd.Flags().IntVar(&flagCfgChunkSize, "chunk-size", 0, "chunk size in characters")
	configSetCmd.Flags().IntVar(&flagCfgOverlap, "overlap", 0, "overlap in characters")
	configSetCmd.Flags().IntVar(&flagCfgBatchSize, "batch-size", 0, "upsert batch size")
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetFolderCmd)
	rootCmd.AddCommand(configCmd)
}
