package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hr-ingest/internal/application"
	"hr-ingest/internal/display"
)

var cfgFile string

// CLI flag variables
var (
	// Database flags
	dbHost     string
	dbPort     int
	dbUsername string
	dbPassword string
	dbName     string

	// Operation flags
	verbose   bool
	quiet     bool
	logFile   string
	logFormat string

	// Server flags
	serverPort int

	// Display flags
	outputFormat string
	theme        string
)

// rootCmd represents the base command. Without a subcommand it runs the HTTP
// server, the primary mode of this service.
var rootCmd = &cobra.Command{
	Use:   "hr-ingest",
	Short: "HR batch ingestion and table backup/restore service",
	Long: `hr-ingest ingests batches of HR records (hired employees, departments, jobs)
into MySQL with per-record validation and partial-failure isolation, and
snapshots/restores whole tables through Avro blobs in local or cloud storage.

Run without a subcommand to start the HTTP server.

Examples:
  # Start the HTTP server on port 8080
  hr-ingest --config=.hr-ingest.yaml --port=8080

  # Ingest a batch from a file
  hr-ingest ingest --file=batch.json

  # Back up every table to the configured storage provider
  hr-ingest backup all

  # Restore one table from its snapshot
  hr-ingest restore Jobs`,
	RunE: runServe,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hr-ingest.yaml)")

	// Database flags
	rootCmd.PersistentFlags().StringVar(&dbHost, "db-host", "", "database host")
	rootCmd.PersistentFlags().IntVar(&dbPort, "db-port", 3306, "database port")
	rootCmd.PersistentFlags().StringVar(&dbUsername, "db-user", "", "database username")
	rootCmd.PersistentFlags().StringVar(&dbPassword, "db-password", "", "database password")
	rootCmd.PersistentFlags().StringVar(&dbName, "db-name", "", "database name")

	// Operation flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	// Display flags
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "dark", "color theme (dark, light, plain)")

	// Server flag lives on root because root serves
	rootCmd.Flags().IntVar(&serverPort, "port", 8080, "HTTP server port")

	// Bind flags to viper
	viper.BindPFlag("database.host", rootCmd.PersistentFlags().Lookup("db-host"))
	viper.BindPFlag("database.port", rootCmd.PersistentFlags().Lookup("db-port"))
	viper.BindPFlag("database.username", rootCmd.PersistentFlags().Lookup("db-user"))
	viper.BindPFlag("database.password", rootCmd.PersistentFlags().Lookup("db-password"))
	viper.BindPFlag("database.database", rootCmd.PersistentFlags().Lookup("db-name"))

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))

	viper.BindPFlag("port", rootCmd.Flags().Lookup("port"))
}

// validateFlags validates CLI flag combinations shared by all commands.
func validateFlags() error {
	if verbose && quiet {
		return fmt.Errorf("--verbose and --quiet flags are mutually exclusive")
	}
	return nil
}

// buildConfig builds the application configuration from the config file,
// environment, and CLI flags.
func buildConfig(cmd *cobra.Command) (*application.Config, error) {
	config := &application.Config{}

	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Explicit flag overrides win over config file values.
	if dbHost != "" {
		config.Database.Host = dbHost
	}
	if cmd.Flags().Changed("db-port") {
		config.Database.Port = dbPort
	}
	if dbUsername != "" {
		config.Database.Username = dbUsername
	}
	if dbPassword != "" {
		config.Database.Password = dbPassword
	}
	if dbName != "" {
		config.Database.Database = dbName
	}

	if cmd.Flags().Changed("verbose") {
		config.Verbose = verbose
	}
	if cmd.Flags().Changed("quiet") {
		config.Quiet = quiet
	}
	if logFile != "" {
		config.LogFile = logFile
	}
	if cmd.Flags().Changed("log-format") {
		config.LogFormat = logFormat
	}
	if cmd.Flags().Changed("port") {
		config.Port = serverPort
	}
	if config.Port == 0 {
		config.Port = 8080
	}

	return config, nil
}

// newRenderer builds the result renderer from the display flags.
func newRenderer() (*display.Renderer, error) {
	format, err := display.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return display.NewRenderer(format, display.GetThemeByName(theme), os.Stdout), nil
}

// initConfig reads the config file and matching HR_INGEST_* env variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".hr-ingest")
	}

	viper.SetEnvPrefix("HR_INGEST")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if verbose {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// Version information (set by main package)
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
	goVersion = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, bt, gc, gv string) {
	version = v
	buildTime = bt
	gitCommit = gc
	goVersion = gv
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hr-ingest version %s\n", version)
			fmt.Printf("Built: %s\n", buildTime)
			fmt.Printf("Commit: %s\n", gitCommit)
			fmt.Printf("Go version: %s\n", goVersion)
		},
	}
}

func createConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Generate a sample configuration file",
		Long: `Generate a sample configuration file for use with the --config flag.

Examples:
  hr-ingest config > .hr-ingest.yaml`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Print(sampleConfig)
		},
	}
}

const sampleConfig = `# hr-ingest configuration file

# MySQL connection
database:
  host: localhost
  port: 3306
  username: hr
  password: ""            # leave empty and use a secret source instead
  database: hr
  timeout: 30s

# Database password source, used when database.password is empty
secrets:
  provider: env           # static, env, file, prompt
  env_prefix: HR_INGEST_  # env provider reads HR_INGEST_DB_PASSWORD
  # value: ""             # literal secret for the static provider
  # path: /run/secrets/db # secret file for the file provider

# Table snapshot storage
backup:
  storage:
    provider: LOCAL       # LOCAL, S3, AZURE, GCS
    local:
      base_path: ./backups
    # s3:
    #   bucket: hr-backups
    #   region: us-east-1
    # azure:
    #   account_name: hrbackups
    #   container_name: snapshots
    # gcs:
    #   bucket: hr-backups
  compression:
    enabled: false
    algorithm: GZIP       # GZIP, LZ4, ZSTD
    level: 6
  encryption:
    enabled: false
    key_source: env       # env or file
    key_env_var: BACKUP_ENCRYPTION_KEY

# HTTP server
port: 8080

# Logging
verbose: false
quiet: false
log_file: ""
log_format: text          # text or json

# Environment variables with the HR_INGEST_ prefix override these values,
# and BACKUP_* variables override the backup section, e.g.:
#   HR_INGEST_DATABASE_HOST=prod-db.example.com
#   BACKUP_STORAGE_PROVIDER=S3
#   BACKUP_S3_BUCKET=hr-backups
`

func init() {
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
}
