package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	iqdb "github.com/honooru/iqdb"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path> [post-id]",
	Short: "Add one image, or every image in a directory, to the Catalog",
	Long: `ingest reads a JPEG file (or every file in a directory) and extracts
its Haar wavelet signature into the Catalog.

Given a single file and no post-id, the file's base name (without
extension) is used as the post-id. Given a directory, every regular
file inside it is ingested the same way; post-id is never accepted in
directory mode.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}

	if info.IsDir() {
		if len(args) == 2 {
			return fmt.Errorf("post-id cannot be given when ingesting a directory")
		}
		return ingestDir(ctx, eng, path)
	}

	postID := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
	if len(args) == 2 {
		postID = args[1]
	}
	return ingestFile(ctx, eng, path, postID)
}

func ingestFile(ctx context.Context, eng *iqdb.Engine, path, postID string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if err := eng.AddImage(ctx, postID, "", data); err != nil {
		return fmt.Errorf("ingest %s (post-id %s): %w", path, postID, err)
	}
	fmt.Printf("ingested %s as %s\n", path, postID)
	return nil
}

func ingestDir(ctx context.Context, eng *iqdb.Engine, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("cannot read directory %s: %w", dir, err)
	}

	var ingested, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		postID := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		if err := ingestFile(ctx, eng, path, postID); err != nil {
			fmt.Fprintln(os.Stderr, err)
			failed++
			continue
		}
		ingested++
	}

	fmt.Printf("\n%d ingested, %d failed\n", ingested, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to ingest", failed)
	}
	return nil
}
