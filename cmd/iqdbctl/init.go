package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/honooru/iqdb/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to ~/.iqdb/config.yaml",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("config already exists: %s\n", path)
		return nil
	}

	cfg, err := config.DefaultConfig()
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("config written: %s\n", path)
	fmt.Printf("catalog will be created at: %s\n", cfg.DBPath)
	return nil
}
