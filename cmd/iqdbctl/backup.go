package main

import (
	"context"
	"fmt"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dustin/go-humanize"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"

	"github.com/honooru/iqdb/backup"
	"github.com/honooru/iqdb/internal/config"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Push or pull a compressed Catalog snapshot to object storage",
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Compress the Catalog and its postID registry and upload them",
	RunE:  runBackupPush,
}

var backupPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download and restore the latest Catalog snapshot",
	RunE:  runBackupPull,
}

func init() {
	backupCmd.AddCommand(backupPushCmd)
	backupCmd.AddCommand(backupPullCmd)
	rootCmd.AddCommand(backupCmd)
}

func newBackupStore(ctx context.Context, cfg config.BackupConfig) (backup.Store, error) {
	switch cfg.Provider {
	case "", "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return backup.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil

	case "minio":
		client, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewEnvMinio(),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("create minio client: %w", err)
		}
		return backup.NewMinioStore(client, cfg.Bucket, cfg.Prefix), nil

	default:
		return nil, fmt.Errorf("unknown backup provider %q", cfg.Provider)
	}
}

func newManifestStore(ctx context.Context, cfg config.BackupConfig) (*backup.ManifestStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	client := dynamodb.NewFromConfig(awsCfg)
	return backup.NewManifestStore(client, cfg.DynamoTable, cfg.ManifestKey), nil
}

func runBackupPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.Close()

	store, err := newBackupStore(ctx, cfg.Backup)
	if err != nil {
		return err
	}
	manifest, err := newManifestStore(ctx, cfg.Backup)
	if err != nil {
		return err
	}

	prefix := fmt.Sprintf("%s/", time.Now().UTC().Format("20060102T150405Z"))
	catalogEntry, registryEntry, err := backup.PushAll(ctx, store, manifest, prefix, cfg.DBPath, eng.Registry())
	if err != nil {
		return fmt.Errorf("backup push failed: %w", err)
	}

	fmt.Printf("pushed catalog:  %s (%s)\n", catalogEntry.Key, humanize.Bytes(uint64(catalogEntry.SizeBytes)))
	fmt.Printf("pushed registry: %s (%s)\n", registryEntry.Key, humanize.Bytes(uint64(registryEntry.SizeBytes)))
	return nil
}

func runBackupPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, cfg, err := openEngine(ctx)
	if err != nil {
		return err
	}
	// Close before overwriting the Catalog file underneath it.
	eng.Close()

	store, err := newBackupStore(ctx, cfg.Backup)
	if err != nil {
		return err
	}
	manifest, err := newManifestStore(ctx, cfg.Backup)
	if err != nil {
		return err
	}

	latest, ok, err := manifest.Latest(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if !ok {
		return fmt.Errorf("no snapshot has ever been pushed")
	}

	prefix := keyPrefixOf(latest.Key, backup.CatalogKeySuffix, backup.RegistryKeySuffix)
	if err := backup.RestoreCatalogFile(ctx, store, prefix, cfg.DBPath); err != nil {
		return fmt.Errorf("restore catalog: %w", err)
	}

	fmt.Printf("restored %s into %s\n", latest.Key, cfg.DBPath)
	return nil
}

// keyPrefixOf strips a known suffix from a manifest key to recover the
// snapshot prefix PushAll used for both the catalog and registry objects.
func keyPrefixOf(key string, suffixes ...string) string {
	for _, suffix := range suffixes {
		if len(key) > len(suffix) && key[len(key)-len(suffix):] == suffix {
			return key[:len(key)-len(suffix)]
		}
	}
	return key
}
