package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Replay the whole Catalog into a fresh in-memory bucket index",
	RunE:  runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	start := time.Now()
	if err := eng.Rebuild(ctx); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}
	fmt.Printf("rebuilt %d images in %s\n", eng.ImageCount(), time.Since(start).Round(time.Millisecond))
	return nil
}
