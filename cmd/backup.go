package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hr-ingest/internal/application"
	"hr-ingest/internal/backup"
	"hr-ingest/internal/schema"
)

func createBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <table|all>",
		Short: "Snapshot one table, or every table, into blob storage",
		Long: `Snapshot a table into an Avro blob in the configured storage provider.
With "all", every table is snapshotted in dependency order; one table's
failure does not stop the others.

Examples:
  hr-ingest backup Jobs
  hr-ingest backup all
  hr-ingest backup all --format=json`,
		Args: cobra.ExactArgs(1),
		RunE: runBackup,
	}
}

func runBackup(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	target := args[0]
	if target != "all" {
		if _, ok := schema.Lookup(target); !ok {
			return fmt.Errorf("unknown table %q, must be one of: %s, or all",
				target, strings.Join(schema.TableNames(), ", "))
		}
	}

	config, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	renderer, err := newRenderer()
	if err != nil {
		return err
	}

	ctx := context.Background()
	app, err := application.NewApplication(ctx, *config)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	var results []*backup.TableBackupResult
	if target == "all" {
		results = app.Backup.BackupAll(ctx)
	} else {
		result, _ := app.Backup.BackupTable(ctx, target)
		results = append(results, result)
	}

	if err := renderer.RenderBackupResults(results); err != nil {
		return err
	}

	for _, result := range results {
		if !result.Succeeded {
			return fmt.Errorf("backup finished with failures")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createBackupCommand())
}
