package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chatpilot/internal/client"
	"chatpilot/internal/engine"
	"chatpilot/internal/history"
	"chatpilot/internal/model"
	"chatpilot/internal/workspace"
)

var (
	chatAPIURL  string
	chatModel   string
	chatSession string
)

var (
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatAPIURL, "api-url", client.DefaultURL, "Chat completions endpoint")
	chatCmd.Flags().StringVar(&chatModel, "model", client.DefaultModel, "Model name")
	chatCmd.Flags().StringVar(&chatSession, "session", "", "Session ID to resume (default: new session)")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with workspace actions",
	Long: "Starts an interactive chat. Actions detected in responses are\n" +
		"validated, gated by the security policy, and executed against the\n" +
		"workspace after confirmation.",
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
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

	store, err := history.Open(filepath.Join(configDir(), "history.db"))
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	sessionID := chatSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	completer := client.New(chatAPIURL,
		client.WithModel(chatModel),
		client.WithAPIKey(os.Getenv("CHATPILOT_API_KEY")))

	ws := workspace.NewLocal(root, os.Stdin, os.Stdout)
	eng := engine.New(ws, gate, nil, root, logger)

	ctx := cmd.Context()
	fmt.Println(noticeStyle.Render(fmt.Sprintf("workspace: %s  session: %s  (ctrl-d to quit)", root, sessionID)))

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("you> "))
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		userText := strings.TrimSpace(line)
		if userText == "" {
			continue
		}

		userText = eng.SanitizeInput(userText)
		messages := contextMessages(ctx, store, sessionID)
		messages = append(messages, client.Message{Role: "user", Content: userText})

		modelText, err := completer.Complete(ctx, messages)
		if err != nil {
			fmt.Println(noticeStyle.Render("model request failed: " + err.Error()))
			continue
		}

		result := eng.ProcessTurn(ctx, model.RawTurn{UserText: userText, ModelText: modelText})
		fmt.Println(assistantStyle.Render(result.DisplayText))
		if result.Suggestion {
			fmt.Println(noticeStyle.Render("(code block above can be saved with an explicit request)"))
		}

		turn := history.Turn{
			SessionID:   sessionID,
			UserText:    userText,
			DisplayText: result.DisplayText,
		}
		if result.Action != nil {
			turn.ActionKind = string(result.Action.Kind)
			turn.Outcome = string(result.Result.Outcome)
		}
		if err := store.Append(ctx, turn); err != nil {
			logger.Warn("history append failed", zap.Error(err))
		}
	}
}

func contextMessages(ctx context.Context, store *history.Store, sessionID string) []client.Message {
	messages := []client.Message{{
		Role: "system",
		Content: "You are a coding assistant working inside the user's workspace. " +
			"When asked to create or change a file, emit a fenced json block of the form " +
			`{"action":"create_file","params":{"path":...,"content":...}}.`,
	}}
	turns, err := store.Recent(ctx, sessionID, 20)
	if err != nil {
		return messages
	}
	for _, t := range turns {
		messages = append(messages,
			client.Message{Role: "user", Content: t.UserText},
			client.Message{Role: "assistant", Content: t.DisplayText})
	}
	return messages
}
