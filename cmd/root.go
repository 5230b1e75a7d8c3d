package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations. Execute cancels it on interrupt.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:   "cecompare",
	Short: "Compare availability and reliability results of two compute engines.",
	Long: `cecompare fetches the availability and reliability results a production and a
development compute engine produced for the same tenant and dates, and reports
where they disagree.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Engine tokens are commonly kept in a .env file next to the config
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		contract.LogWarn("Could not load .env file", err)
	}

	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		// Set config file name and paths
		viper.SetConfigName(".cecompare") // Name of config file (without extension)
		viper.SetConfigType("yaml")       // We'll use YAML format
		viper.AddConfigPath(".")          // Look in the current directory
		viper.AddConfigPath("$HOME")      // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("CECOMPARE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("threshold", contract.DefaultThreshold)
	viper.SetDefault("output", schema.JSONOut)
	viper.SetDefault("result-select", schema.SelectFirst)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("timeout", contract.DefaultTimeout)
	viper.SetDefault("rate-limit", contract.DefaultRateLimit)
	viper.SetDefault("retries", contract.DefaultMaxRetries)
	viper.SetDefault("color", "yes")
}

// sharedSetup unmarshals config, runs validation and initializes logging.
func sharedSetup(_ context.Context, requireTarget bool) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	input.RequireTarget = requireTarget

	// 3. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	// 4. Logging follows the validated config from here on.
	if err := contract.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// compareSetupWrapper wraps sharedSetup for commands that need a tenant and a period.
func compareSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, true)
}

// optionalSetupWrapper wraps sharedSetup for commands that work without a tenant.
func optionalSetupWrapper(_ *cobra.Command, _ []string) error {
	return sharedSetup(rootCtx, false)
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	rootCtx = ctx
	return rootCmd.ExecuteContext(ctx)
}
