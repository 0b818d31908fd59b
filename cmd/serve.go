package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"hr-ingest/internal/application"
)

// runServe starts the HTTP front door. A .env file in the working directory
// is loaded first so container deployments can configure everything through
// the environment.
func runServe(cmd *cobra.Command, args []string) error {
	if err := validateFlags(); err != nil {
		return err
	}

	godotenv.Load()

	config, err := buildConfig(cmd)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx := context.Background()
	app, err := application.NewApplication(ctx, *config)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	return app.Serve(ctx)
}
