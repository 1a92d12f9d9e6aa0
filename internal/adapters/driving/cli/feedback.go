package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var feedbackJSON bool

var feedbackCmd = &cobra.Command{
	Use:   "feedback [chapter-id]",
	Short: "Export critique and decision records for a chapter",
	Long: `Prints one record per version with its stage, iteration, critique and
the reviewer's decision. Superseded versions are included and marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

func init() {
	feedbackCmd.Flags().BoolVar(&feedbackJSON, "json", false, "output records as JSON")
	requires(feedbackCmd, NeedStore)
	rootCmd.AddCommand(feedbackCmd)
}

func runFeedback(cmd *cobra.Command, args []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	records, err := chapterService.Feedback(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to read feedback: %w", err)
	}

	if feedbackJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal feedback: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(records) == 0 {
		cmd.Println("No feedback recorded.")
		return nil
	}
	for i := range records {
		r := &records[i]
		decision := "-"
		if r.Decision != "" {
			decision = r.Decision.String()
		}
		flags := ""
		if r.Edited {
			flags += " edited"
		}
		if r.Superseded {
			flags += " superseded"
		}
		cmd.Printf("  %-12s it=%d %-7s%s  %s\n", r.Stage, r.Iteration, decision, flags, r.VersionID)
		if r.Critique != "" {
			cmd.Printf("        %s\n", preview(r.Critique, previewLength))
		}
	}
	return nil
}
