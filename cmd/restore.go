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

func createRestoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <table|all>",
		Short: "Replay one table snapshot, or every snapshot, from blob storage",
		Long: `Replay a table snapshot from the configured storage provider. Identity
values are preserved exactly as they were backed up. Each table restores in
one transaction: the first bad row rolls the whole table back.

With "all", tables restore in dependency order (Departments and Jobs before
HiredEmployees) so foreign keys resolve.

Examples:
  hr-ingest restore Jobs
  hr-ingest restore all`,
		Args: cobra.ExactArgs(1),
		RunE: runRestore,
	}
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	var results []*backup.TableRestoreResult
	if target == "all" {
		results = app.Restore.RestoreAll(ctx)
	} else {
		result, _ := app.Restore.RestoreTable(ctx, target)
		results = append(results, result)
	}

	if err := renderer.RenderRestoreResults(results); err != nil {
		return err
	}

	for _, result := range results {
		if !result.Succeeded {
			return fmt.Errorf("restore finished with failures")
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(createRestoreCommand())
}
