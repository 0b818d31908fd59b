package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hr-ingest/internal/application"
)

var ingestFile string

// ingestBatch mirrors the POST /InsertData body for file-based ingestion.
type ingestBatch struct {
	TransactionType string            `json:"transactionType"`
	Transactions    []json.RawMessage `json:"transactions"`
}

func createIngestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a batch of records from a JSON file",
		Long: `Ingest a batch of records from a JSON file with the same shape as the
POST /InsertData body:

  { "transactionType": "HiredEmployees", "transactions": [ {...}, ... ] }

Each record is validated and committed independently; failures are reported
per record and never abort the rest of the batch.

Examples:
  hr-ingest ingest --file=hires.json
  hr-ingest ingest --file=departments.json --format=json`,
		RunE: runIngest,
	}

	cmd.Flags().StringVar(&ingestFile, "file", "", "JSON batch file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	data, err := os.ReadFile(ingestFile)
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}

	var batch ingestBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("batch file is not valid JSON: %w", err)
	}
	if batch.TransactionType == "" {
		return fmt.Errorf("batch file is missing transactionType")
	}
	if batch.Transactions == nil {
		return fmt.Errorf("batch file is missing transactions")
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

	result, err := app.Processor.ProcessBatch(ctx, batch.TransactionType, batch.Transactions)
	if err != nil {
		return err
	}

	return renderer.RenderBatchResult(batch.TransactionType, result)
}

func init() {
	rootCmd.AddCommand(createIngestCommand())
}
