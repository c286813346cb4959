package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tokscope/internal/mcp"
)

// stdioCmd serves the MCP tools over stdin/stdout
var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve the MCP tools over stdin/stdout",
	Long: `Serve tiktok_get_post_details, tiktok_get_subtitle, tiktok_search and
tiktok_analyze_virality to an MCP client over stdin/stdout. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: runStdio,
}

func runStdio(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.Logger.Info("serving MCP over stdio")
	return mcp.RunStdio(ctx, a.MCPConfig())
}
