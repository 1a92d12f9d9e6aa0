package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/folio/internal/adapters/driven/gate"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

var runTitle string

var runCmd = &cobra.Command{
	Use:   "run [source...]",
	Short: "Revise chapters from URLs or files",
	Long: `Acquires each source, stores it as the RAW version of a new chapter and
runs generate, critique and decide cycles until the chapter is accepted,
stalls, or reaches revision.max_iterations.

Several sources are revised concurrently, bounded by
revision.max_concurrent_chapters. Decisions are asked through the gate
selected with --gate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

var resumeCmd = &cobra.Command{
	Use:   "resume [chapter-id]",
	Short: "Continue an interrupted or stalled chapter",
	Long: `Resumes a chapter from its last committed version. Chapters that are
already finalized or exhausted are reported unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	runCmd.Flags().StringVarP(&runTitle, "title", "t", "", "chapter title (single source only)")
	requires(runCmd, NeedRevision)
	requires(resumeCmd, NeedRevision)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	if revisionService == nil {
		return errors.New("revision service not configured")
	}
	if runTitle != "" && len(args) > 1 {
		return errors.New("--title can only be used with a single source")
	}

	if len(args) == 1 {
		result, err := revisionService.Start(cmd.Context(), driving.StartRequest{
			SourceRef: args[0],
			Title:     runTitle,
		})
		printRunResult(cmd, result, err)
		reportUnusedScript(cmd)
		return err
	}

	reqs := make([]driving.StartRequest, len(args))
	for i, ref := range args {
		reqs[i] = driving.StartRequest{SourceRef: ref}
	}

	var errs []error
	for _, br := range revisionService.RunBatch(cmd.Context(), reqs) {
		cmd.Printf("%s\n", br.Request.SourceRef)
		printRunResult(cmd, br.Result, br.Err)
		if br.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", br.Request.SourceRef, br.Err))
		}
	}
	reportUnusedScript(cmd)
	return errors.Join(errs...)
}

func runResume(cmd *cobra.Command, args []string) error {
	if revisionService == nil {
		return errors.New("revision service not configured")
	}

	result, err := revisionService.Resume(cmd.Context(), args[0])
	printRunResult(cmd, result, err)
	reportUnusedScript(cmd)
	return err
}

// reportUnusedScript notes decisions a --gate script still holds.
func reportUnusedScript(cmd *cobra.Command) {
	s, ok := activeGate.(*gate.Script)
	if !ok {
		return
	}
	if n := s.Remaining(); n > 0 {
		cmd.Printf("Note: %d scripted decisions were not used.\n", n)
	}
}

func printRunResult(cmd *cobra.Command, result *driving.RunResult, err error) {
	if result == nil {
		if err != nil {
			cmd.Printf("  failed: %v\n", err)
		}
		return
	}

	ch := result.Chapter
	cmd.Printf("  Chapter: %s (%s)\n", ch.Title, ch.ID)
	cmd.Printf("  Status:  %s", ch.Status)
	if ch.StatusReason != "" {
		cmd.Printf(" (%s)", ch.StatusReason)
	}
	cmd.Println()
	cmd.Printf("  Cycles:  %d\n", result.Cycles)
	if result.Head != nil {
		cmd.Printf("  Head:    #%d %s %s\n", result.Head.Sequence, result.Head.Stage, result.Head.ID)
	}
	cmd.Println()
}
