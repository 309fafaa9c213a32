package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"kbsearch/internal/api"
)

var (
	flagIngestFolder    string
	flagIngestChunkSize int
	flagIngestOverlap   int
	flagIngestBatchSize int
	flagIngestDocx      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the knowledge-base folder into the backend",
	Long:  "Triggers backend ingestion using the server's stored configuration. Flags override individual settings for this run only.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.log.Sync()

		cfg, err := e.api.GetConfig(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetch server config: %w", err)
		}

		req := api.IngestRequest{
			KBFolder:   cfg.KBFolder,
			ChunkSize:  cfg.ChunkSize,
			Overlap:    cfg.Overlap,
			BatchSize:  cfg.BatchSize,
			IngestDocx: flagIngestDocx,
		}
		if cmd.Flags().Changed("folder") {
			req.KBFolder = flagIngestFolder
		}
		if cmd.Flags().Changed("chunk-size") {
			req.ChunkSize = flagIngestChunkSize
		}
		if cmd.Flags().Changed("overlap") {
			req.Overlap = flagIngestOverlap
		}
		if cmd.Flags().Changed("batch-size") {
			req.BatchSize = flagIngestBatchSize
		}

		fmt.Printf("Ingesting %s...\n", req.KBFolder)
		resp, err := e.api.Ingest(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Println(resp.Message)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&flagIngestFolder, "folder", "", "knowledge-base folder (default: server config)")
	ingestCmd.Flags().IntVar(&flagIngestChunkSize, "chunk-size", 0, "chunk size in characters (default: server config)")
	ingestCmd.Flags().IntVar(&flagIngestOverlap, "overlap", 0, "overlap in characters (default: server config)")
	ingestCmd.Flags().IntVar(&flagIngestBatchSize, "batch-size", 0, "upsert batch size (default: server config)")
	ingestCmd.Flags().BoolVar(&flagIngestDocx, "docx", false, "also ingest .docx files")
	rootCmd.AddCommand(ingestCmd)
}
