package main

import (
	"fmt"
	"os"
	"time"

	"forecast-portal/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  *zap.Logger
	cfgPath string
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forecast-cli",
	Short: "Operate the forecast dashboards from the command line",
	Long: `forecast-cli runs the same pipeline as the API server without starting it:
relay a feature's upstream request, render a dashboard shell, probe every
upstream endpoint, read the exchange journal or smoke-test a live dashboard.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.OutputPaths = []string{"stderr"}
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("CONFIG_PATH"), "Path to YAML config (default: built-in features)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	fetchCmd.Flags().StringVar(&fetchMetric, "metric", "", "Forecast metric (forecast features only)")
	fetchCmd.Flags().IntVar(&fetchPeriods, "periods", 0, "Forecast periods, 6-24; defaults to 12 (forecast features only)")
	fetchCmd.Flags().StringVar(&fetchMethod, "method", "", "arima or exponential_smoothing (forecast features only)")
	fetchCmd.Flags().StringToStringVarP(&fetchQuery, "query", "q", nil, "Inbound query parameters, e.g. -q horizon=6")
	fetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "Write the payload to a file instead of stdout")

	renderCmd.Flags().StringVar(&renderBase, "base-url", "", "Base URL for asset and proxy links (default: server.public_base_url or http://localhost:<port>)")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "Write the HTML to a file instead of stdout")

	journalCmd.Flags().StringVar(&journalFeature, "feature", "", "Only show exchanges for this feature")
	journalCmd.Flags().IntVar(&journalLimit, "limit", 20, "Number of exchanges to show")
	journalCmd.Flags().StringVar(&journalCSV, "csv", "", "Export the exchanges to a CSV file")

	smokeCmd.Flags().StringVar(&smokeBin, "chrome", "", "Chrome binary (default: auto-detect)")
	smokeCmd.Flags().StringVar(&smokeDebugger, "debugger-url", "", "Attach to a running Chrome instead of launching one")

	transformCmd.Flags().StringVarP(&transformOut, "out", "o", "", "Write the transformed payload to a file instead of stdout")

	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(smokeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
