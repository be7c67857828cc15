package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show Catalog size and config in use",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	fmt.Printf("catalog path:   %s\n", cfg.DBPath)
	fmt.Printf("image count:    %d\n", eng.ImageCount())
	fmt.Printf("log level:      %s\n", cfg.LogLevel)
	if cfg.IngestRateLimit > 0 {
		fmt.Printf("ingest limit:   %.2f/s burst %d\n", cfg.IngestRateLimit, cfg.IngestBurst)
	} else {
		fmt.Printf("ingest limit:   unlimited\n")
	}
	return nil
}
