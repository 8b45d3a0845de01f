package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// globalOptions - persistent flags shared by all commands
type globalOptions struct {
	configPath string
	envFile    string
	verbose    bool
}

// newRootCmd creates and returns the root command
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "tdtpbulk",
		Short: "Bulk load files into database temp tables",
		Long: `tdtpbulk streams CSV, TSV and XLSX files into session temp tables using the
database's bulk copy protocol (TDS bulk copy, COPY, LOAD DATA), creates the
primary key and runs follow-up SQL against the loaded table.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := zerolog.InfoLevel
			if opts.verbose {
				level = zerolog.DebugLevel
			}
			zerolog.SetGlobalLevel(level)

			return loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file"))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "tdtpbulk.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "environment file loaded before the config")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(newLoadCmd(opts))
	rootCmd.AddCommand(newMinRowVersionCmd(opts))
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}

// loadEnvFile loads variables from an env file
// A missing default file is not an error, an explicitly requested one is
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	switch {
	case err == nil:
		log.Debug().Str("file", path).Msg("environment loaded")
		return nil
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return nil
	default:
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
}

// loadConfig reads the config file named by the persistent flags
func (o *globalOptions) loadConfig() (*Config, error) {
	return LoadConfigFile(o.configPath)
}
