// cmd/tokscope/main.go

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"tokscope/internal/app"
	"tokscope/internal/config"
	"tokscope/pkg/logging"
)

var (
	verbose bool
	timeout time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tokscope",
	Short: "TikTok post retrieval and virality analysis",
	Long: `tokscope fetches TikTok post details, subtitles and search results from the
configured backend and scores a post's virality from its engagement counters and
narrative cues.

Run "tokscope stdio" to serve the same tools to an MCP client over stdin/stdout.`,
	SilenceUsage: true,
	Version:      app.Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(detailsCmd)
	rootCmd.AddCommand(subtitleCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(stdioCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger logs to stderr so stdout stays clean for results and the stdio transport
func newLogger() logging.Logger {
	logger := logging.NewLoggerWithService("tokscope-cli")
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// loadApp reads configuration and wires the backend services
func loadApp(ctx context.Context) (*app.App, error) {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := newLogger()
	if !verbose {
		logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}

	return app.New(ctx, cfg, logger)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
