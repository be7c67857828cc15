package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryK int

var queryCmd = &cobra.Command{
	Use:   "query <path>",
	Short: "Find the most visually similar images already in the Catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top", "k", 10, "number of matches to return")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	matches, err := eng.QueryFromBlob(ctx, data, queryK)
	if err != nil {
		return fmt.Errorf("query %s: %w", args[0], err)
	}

	if len(matches) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, m := range matches {
		fmt.Printf("%2d. %-40s score=%.4f\n", i+1, m.PostID, m.Score)
	}
	return nil
}
