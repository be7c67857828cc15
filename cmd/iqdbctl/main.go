// Command iqdbctl is the operator CLI for an iqdb Catalog: ingest images,
// run similarity queries, inspect index stats, rebuild the in-memory
// index, and push/pull Catalog snapshots to object storage.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "iqdbctl",
	Short:        "iqdbctl — operate a content-based image similarity Catalog",
	SilenceUsage: true,
	Long: `iqdbctl manages an iqdb Catalog: a SQLite-backed store of Haar
wavelet signatures with an in-memory inverted bucket index for
similarity search, rebuilt from the Catalog on every open.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
