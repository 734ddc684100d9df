package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"chatpilot/internal/detect"
	"chatpilot/internal/validate"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [text]",
	Short: "Dry-run action detection on model text",
	Long: "Runs the detection and validation pipeline over the given text\n" +
		"(or stdin) without executing anything. Prints the detected intent\n" +
		"as JSON.",
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) == 1 {
		text = args[0]
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	root, err := workspaceRoot()
	if err != nil {
		return err
	}

	out := map[string]any{"detected": false}
	if intent := detect.New().Detect(text); intent != nil {
		out["detected"] = true
		out["kind"] = string(intent.Kind)
		out["confidence"] = string(intent.Confidence)

		action, err := validate.New(root).Validate(intent)
		if err != nil {
			out["valid"] = false
			out["reason"] = err.Error()
		} else {
			out["valid"] = true
			out["path"] = action.Path
			if action.Command != "" {
				out["command"] = action.Command
			}
		}
	}

	encoded, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(encoded))
	return nil
}
