package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"chatpilot/internal/mcp"
)

func init() {
	rootCmd.AddCommand(mcpCmd)
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio",
	Long: "Exposes the action engine as MCP tools (chatpilot_process,\n" +
		"chatpilot_detect, chatpilot_check_command) over stdio transport.",
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	srv, err := mcp.New(mcp.Config{
		Root:         root,
		PolicyPath:   flagPolicy,
		AuditLogPath: filepath.Join(configDir(), "audit.jsonl"),
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
