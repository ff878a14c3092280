package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psantana5/timekeeper/internal/config"
	"github.com/psantana5/timekeeper/pkg/logging"
	"github.com/psantana5/timekeeper/pkg/report"
)

// version is set at build time with -ldflags "-X github.com/psantana5/timekeeper/cmd/timekeeper/cmd.version=..."
var version = "dev"

var (
	cfgFile      string
	serverURL    string
	apiKey       string
	outputFormat string

	cfg    *config.Config
	format report.Format
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "timekeeper",
	Short: "Named timers with lap statistics",
	Long: `timekeeper measures named timings: start, lap and stop them locally around a
command, or run a server and control its timings over HTTP.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.timekeeper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "timekeeper server URL (default from config or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key sent as bearer token (default from config)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json or yaml")
}

// initConfig loads the config file and environment, then applies flags
func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(cfgFile); err != nil {
		return err
	}

	if format, err = report.ParseFormat(outputFormat); err != nil {
		return err
	}

	if serverURL == "" {
		serverURL = cfg.Client.Server
	}
	if apiKey == "" {
		apiKey = cfg.Client.APIKey
	}
	return nil
}

// GetServerURL returns the configured server URL with trailing slashes removed
func GetServerURL() string {
	return strings.TrimRight(serverURL, "/")
}

// newLogger builds the logger described by the logging config section.
// Console output goes to console.
func newLogger(c config.LoggingConfig, console io.Writer) (*logging.Logger, error) {
	level := logging.ParseLevel(c.Level)
	if c.File == "" {
		logger := logging.NewLogger(level, c.JSON)
		logger.SetOutput(console)
		return logger, nil
	}

	logger, err := logging.NewFileLogger(c.File, level, c.JSON, logging.FileOptions{
		MaxAge:       c.MaxAge,
		RotationTime: c.RotationTime,
		Console:      console,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func writeSummaries(w io.Writer, summaries []report.Summary) error {
	if format == report.FormatTable && len(summaries) == 0 {
		fmt.Fprintln(w, "No running timings")
		return nil
	}
	return report.Write(w, format, summaries)
}
