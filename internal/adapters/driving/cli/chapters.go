package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// previewLength bounds content previews in listings.
const previewLength = 72

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "Inspect chapters and their versions",
	Long:  `List chapters, show their status, and trace their lineage or full history.`,
}

var chaptersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all chapters",
	Args:  cobra.NoArgs,
	RunE:  runChaptersList,
}

var chaptersShowCmd = &cobra.Command{
	Use:   "show [chapter-id]",
	Short: "Show a chapter and its head version",
	Args:  cobra.ExactArgs(1),
	RunE:  runChaptersShow,
}

var chaptersLineageCmd = &cobra.Command{
	Use:   "lineage [chapter-id]",
	Short: "Trace a chapter from RAW to its head",
	Args:  cobra.ExactArgs(1),
	RunE:  runChaptersLineage,
}

var chaptersHistoryCmd = &cobra.Command{
	Use:   "history [chapter-id]",
	Short: "List every version of a chapter, superseded ones included",
	Args:  cobra.ExactArgs(1),
	RunE:  runChaptersHistory,
}

var versionShowCmd = &cobra.Command{
	Use:   "show [version-id]",
	Short: "Print a version with its critique and decision",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionShow,
}

func init() {
	for _, c := range []*cobra.Command{
		chaptersListCmd, chaptersShowCmd, chaptersLineageCmd, chaptersHistoryCmd, versionShowCmd,
	} {
		requires(c, NeedStore)
	}
	chaptersCmd.AddCommand(chaptersListCmd)
	chaptersCmd.AddCommand(chaptersShowCmd)
	chaptersCmd.AddCommand(chaptersLineageCmd)
	chaptersCmd.AddCommand(chaptersHistoryCmd)
	versionCmd.AddCommand(versionShowCmd)
	rootCmd.AddCommand(chaptersCmd)
}

func runChaptersList(cmd *cobra.Command, _ []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	chapters, err := chapterService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list chapters: %w", err)
	}

	if len(chapters) == 0 {
		cmd.Println("No chapters yet. Run 'folio run <url-or-file>' to start one.")
		return nil
	}

	cmd.Printf("Chapters (%d):\n\n", len(chapters))
	for i := range chapters {
		ch := &chapters[i]
		cmd.Printf("  %s  %-10s %s\n", ch.ID, ch.Status, ch.Title)
	}
	return nil
}

func runChaptersShow(cmd *cobra.Command, args []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	ch, err := chapterService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chapter: %w", err)
	}

	cmd.Printf("Chapter: %s\n", ch.Title)
	cmd.Printf("  ID:      %s\n", ch.ID)
	cmd.Printf("  Source:  %s\n", ch.SourceRef)
	if ch.SnapshotRef != "" {
		cmd.Printf("  Snapshot: %s\n", ch.SnapshotRef)
	}
	cmd.Printf("  Status:  %s\n", ch.Status)
	if ch.StatusReason != "" {
		cmd.Printf("  Reason:  %s\n", ch.StatusReason)
	}
	cmd.Printf("  Created: %s\n", ch.CreatedAt.Format("2006-01-02 15:04:05"))

	head, err := chapterService.Head(cmd.Context(), ch.ID)
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("  Head:    (none)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get head: %w", err)
	}
	cmd.Printf("  Head:    #%d %s %s\n\n", head.Sequence, head.Stage, head.ID)
	cmd.Println(head.Content)
	return nil
}

func runChaptersLineage(cmd *cobra.Command, args []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	versions, err := chapterService.Lineage(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get lineage: %w", err)
	}
	printVersions(cmd, versions)
	return nil
}

func runChaptersHistory(cmd *cobra.Command, args []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	versions, err := chapterService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}
	printVersions(cmd, versions)
	return nil
}

func runVersionShow(cmd *cobra.Command, args []string) error {
	if chapterService == nil {
		return errors.New("chapter service not configured")
	}

	v, err := chapterService.Version(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	cmd.Printf("Version #%d %s\n", v.Sequence, v.Stage)
	cmd.Printf("  ID:        %s\n", v.ID)
	cmd.Printf("  Chapter:   %s\n", v.ChapterID)
	if parent := v.Parent(); parent != "" {
		cmd.Printf("  Parent:    %s\n", parent)
	}
	cmd.Printf("  Iteration: %d\n", v.Iteration)
	if v.Decision != nil {
		cmd.Printf("  Decision:  %s\n", v.Decision.Kind)
	}
	cmd.Printf("  Created:   %s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	if critique := v.CritiqueText(); critique != "" {
		cmd.Println()
		cmd.Println("Critique:")
		cmd.Println(critique)
	}
	cmd.Println()
	cmd.Println(v.Content)
	return nil
}

func printVersions(cmd *cobra.Command, versions []domain.Version) {
	if len(versions) == 0 {
		cmd.Println("No versions.")
		return
	}
	for i := range versions {
		v := &versions[i]
		decision := ""
		if v.Decision != nil {
			decision = " " + v.Decision.Kind.String()
		}
		cmd.Printf("  #%-3d %-12s it=%d%s  %s\n", v.Sequence, v.Stage, v.Iteration, decision, v.ID)
		cmd.Printf("        %s\n", preview(v.Content, previewLength))
	}
}

// preview collapses whitespace and truncates to n runes.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
