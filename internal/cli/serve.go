package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatpilot/internal/client"
	"chatpilot/internal/gateway"
	"chatpilot/internal/history"
	"chatpilot/internal/security"
)

var (
	servePort    int
	serveAPIURL  string
	serveModel   string
	serveHistory bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8765, "WebSocket listen port")
	serveCmd.Flags().StringVar(&serveAPIURL, "api-url", client.DefaultURL, "Chat completions endpoint")
	serveCmd.Flags().StringVar(&serveModel, "model", client.DefaultModel, "Model name")
	serveCmd.Flags().BoolVar(&serveHistory, "history", true, "Persist chat history")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the WebSocket chat gateway",
	Long: "Serves the chat protocol over WebSocket: messages in, streamed\n" +
		"responses and confirmation round-trips out. The security policy\n" +
		"file is hot-reloaded on change.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	gate, auditLog, err := buildGate()
	if err != nil {
		return err
	}
	if auditLog != nil {
		defer auditLog.Close()
	}

	var store *history.Store
	if serveHistory {
		store, err = history.Open(filepath.Join(configDir(), "history.db"))
		if err != nil {
			return fmt.Errorf("failed to open history: %w", err)
		}
		defer store.Close()
	}

	completer := client.New(serveAPIURL,
		client.WithModel(serveModel),
		client.WithAPIKey(os.Getenv("CHATPILOT_API_KEY")))

	gw := gateway.New(root, gate, completer, store, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policyPath := flagPolicy
	if policyPath == "" {
		policyPath = security.DefaultPath()
	}
	reloader, err := security.NewReloader(gate, policyPath, logger)
	if err != nil {
		logger.Warn("policy hot-reload disabled", zap.Error(err))
	} else {
		go func() {
			if err := reloader.Run(ctx); err != nil {
				logger.Warn("policy watcher stopped", zap.Error(err))
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", gw.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", servePort),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	logger.Info("gateway listening",
		zap.Int("port", servePort),
		zap.String("workspace", root))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("gateway failed: %w", err)
	}
	return nil
}
