package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"uav-log-analyzer/internal/config"
	"uav-log-analyzer/internal/logging"
)

var (
	cfgFile  string
	logLevel string

	appConfig *config.Config
	appLogger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "flightctl",
	Short:         "Inspect decoded UAV flight logs: risk score, anomalies and questions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if appConfig != nil {
			return nil
		}

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}

		appConfig = cfg
		appLogger = logging.New(cfg.Logging, cmd.ErrOrStderr())
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level defined in config")

	rootCmd.AddCommand(riskCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(versionCmd)
}
