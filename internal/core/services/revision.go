package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure RevisionController implements the interface.
var _ driving.RevisionService = (*RevisionController)(nil)

// step is the next action the controller takes for a chapter head.
type step int

const (
	stepGenerate step = iota
	stepCritique
	stepDecide
	stepCritiqueEdit
	stepApplyDecision
	stepFinalizeEdit
	stepExhausted
	stepDone
)

func (s step) String() string {
	switch s {
	case stepGenerate:
		return "generate"
	case stepCritique:
		return "critique"
	case stepDecide:
		return "decide"
	case stepCritiqueEdit:
		return "critique-edit"
	case stepApplyDecision:
		return "apply-decision"
	case stepFinalizeEdit:
		return "finalize-edit"
	case stepExhausted:
		return "exhausted"
	case stepDone:
		return "done"
	default:
		return "unknown"
	}
}

// RevisionController runs chapters through generate, critique and decide
// cycles until they are finalized, stalled or out of iterations.
//
// All state lives in the version store: the next step is always derived from
// the chapter head, so an interrupted chapter resumes where it stopped.
type RevisionController struct {
	store     driven.VersionStore
	acquirer  driven.ContentAcquirer
	generator driven.Generator
	critic    driven.Critic
	gate      driven.DecisionGate
	semantic  *SemanticIndex
	settings  domain.RevisionSettings
	sleep     sleepFunc
}

// NewRevisionController creates a controller.
// critic is optional; without it decisions arrive without a critique.
func NewRevisionController(
	store driven.VersionStore,
	acquirer driven.ContentAcquirer,
	generator driven.Generator,
	critic driven.Critic,
	gate driven.DecisionGate,
	settings domain.RevisionSettings,
) *RevisionController {
	return &RevisionController{
		store:     store,
		acquirer:  acquirer,
		generator: generator,
		critic:    critic,
		gate:      gate,
		settings:  settings,
		sleep:     sleepContext,
	}
}

// SetSemanticIndex enables indexing of every committed version.
func (c *RevisionController) SetSemanticIndex(idx *SemanticIndex) {
	c.semantic = idx
}

// Start creates a chapter for the source and runs it to a terminal outcome.
func (c *RevisionController) Start(ctx context.Context, req driving.StartRequest) (*driving.RunResult, error) {
	if err := c.checkSettings(); err != nil {
		return nil, err
	}
	ref := strings.TrimSpace(req.SourceRef)
	if ref == "" {
		return nil, fmt.Errorf("%w: source reference is required", domain.ErrInvalidInput)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = ref
	}
	chapter := &domain.Chapter{
		ID:        uuid.New().String(),
		Title:     title,
		SourceRef: ref,
		Status:    domain.ChapterActive,
	}
	if err := c.store.CreateChapter(ctx, chapter); err != nil {
		return nil, fmt.Errorf("create chapter: %w", err)
	}

	logger.Section("Chapter " + chapter.ID)
	logger.Info("Created chapter %s for %s", chapter.ID, ref)

	if err := c.acquire(ctx, chapter); err != nil {
		if ctx.Err() != nil {
			return c.result(ctx, chapter.ID, 0), ctx.Err()
		}
		return c.stall(ctx, chapter.ID, err, 0)
	}
	return c.run(ctx, chapter.ID)
}

// Resume continues a chapter from its persisted head.
func (c *RevisionController) Resume(ctx context.Context, chapterID string) (*driving.RunResult, error) {
	if err := c.checkSettings(); err != nil {
		return nil, err
	}
	chapter, err := c.store.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("get chapter %s: %w", chapterID, err)
	}

	logger.Section("Resume " + chapter.ID)

	if chapter.Status == domain.ChapterStalled || chapter.Status == domain.ChapterExhausted {
		if err := c.setStatus(ctx, chapter.ID, domain.ChapterActive, ""); err != nil {
			return nil, err
		}
	}

	if chapter.HeadVersionID == "" {
		logger.Info("Chapter %s has no versions, acquiring %s again", chapter.ID, chapter.SourceRef)
		if err := c.acquire(ctx, chapter); err != nil {
			if ctx.Err() != nil {
				return c.result(ctx, chapter.ID, 0), ctx.Err()
			}
			return c.stall(ctx, chapter.ID, err, 0)
		}
	}
	return c.run(ctx, chapter.ID)
}

// RunBatch starts several chapters concurrently, bounded by
// max_concurrent_chapters. A failing chapter does not cancel the others.
func (c *RevisionController) RunBatch(ctx context.Context, reqs []driving.StartRequest) []driving.BatchResult {
	results := make([]driving.BatchResult, len(reqs))

	var g errgroup.Group
	g.SetLimit(max(1, c.settings.MaxConcurrentChapters))
	for i, req := range reqs {
		results[i].Request = req
		g.Go(func() error {
			res, err := c.Start(ctx, req)
			results[i].Result = res
			results[i].Err = err
			if err != nil {
				logger.Warn("Chapter for %s ended with error: %v", req.SourceRef, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *RevisionController) checkSettings() error {
	if c.settings.MaxIterations <= 0 {
		return fmt.Errorf("%w: revision.max_iterations must be set and > 0", domain.ErrInvalidConfig)
	}
	return nil
}

// acquire fetches the source and commits the RAW version.
func (c *RevisionController) acquire(ctx context.Context, chapter *domain.Chapter) error {
	logger.Info("Acquiring %s", chapter.SourceRef)

	acq, err := c.acquirer.Acquire(ctx, chapter.SourceRef)
	if err == nil && (acq == nil || strings.TrimSpace(acq.RawText) == "") {
		err = fmt.Errorf("%w: %s produced no text", domain.ErrAcquisition, chapter.SourceRef)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, domain.ErrAcquisition) {
			err = fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
		}
		return err
	}

	title := ""
	if chapter.Title == chapter.SourceRef {
		title = strings.TrimSpace(acq.Title)
	}
	if title != "" || acq.SnapshotRef != "" {
		if err := c.store.SetChapterSource(ctx, chapter.ID, title, acq.SnapshotRef); err != nil {
			return fmt.Errorf("record source: %w", err)
		}
	}

	raw, err := c.commit(ctx, &domain.Version{
		ChapterID: chapter.ID,
		Stage:     domain.StageRaw,
		Content:   acq.RawText,
		Iteration: 0,
	})
	if err != nil {
		return err
	}
	logger.Info("Chapter %s: RAW version %s (%d chars)", chapter.ID, raw.ID, len(raw.Content))
	return nil
}

// run drives the chapter until a terminal outcome, cancellation or error.
func (c *RevisionController) run(ctx context.Context, chapterID string) (*driving.RunResult, error) {
	history, err := c.store.History(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	cycle := maxIteration(history)

	// Set when critiquing an edit failed so the edit goes straight to generation.
	var skipCritique string

	for {
		if err := ctx.Err(); err != nil {
			return c.result(ctx, chapterID, cycle), err
		}

		head, err := c.store.Head(ctx, chapterID)
		if err != nil {
			return nil, fmt.Errorf("head: %w", err)
		}
		next, err := c.nextStep(ctx, head, cycle, skipCritique)
		if err != nil {
			return nil, err
		}
		logger.Debug("Chapter %s: head %s (%s, iteration %d), next %s",
			chapterID, head.ID, head.Stage, head.Iteration, next)

		switch next {
		case stepDone:
			if err := c.setStatus(ctx, chapterID, domain.ChapterFinalized, ""); err != nil {
				return nil, err
			}
			logger.Info("Chapter %s finalized at version %s after %d cycles", chapterID, head.ID, cycle)
			return c.result(ctx, chapterID, cycle), nil

		case stepExhausted:
			reason := fmt.Sprintf("no accepted version after %d of %d cycles", cycle, c.settings.MaxIterations)
			if err := c.setStatus(ctx, chapterID, domain.ChapterExhausted, reason); err != nil {
				return nil, err
			}
			logger.Error("Chapter %s exhausted: %s", chapterID, reason)
			return c.result(ctx, chapterID, cycle), fmt.Errorf("chapter %s: %w: %s",
				chapterID, domain.ErrIterationsExhausted, reason)

		case stepGenerate:
			cycle++
			text, err := c.generate(ctx, chapterID, head, cycle)
			if err != nil {
				cycle--
				if ctx.Err() != nil {
					return c.result(ctx, chapterID, cycle), ctx.Err()
				}
				return c.stall(ctx, chapterID, err, cycle)
			}
			gen, err := c.commit(ctx, &domain.Version{
				ChapterID: chapterID,
				Stage:     domain.StageGenerated,
				Content:   text,
				ParentID:  ptr(head.ID),
				Iteration: cycle,
			})
			if err != nil {
				return nil, err
			}
			logger.Info("Chapter %s: cycle %d/%d GENERATED %s", chapterID, cycle, c.settings.MaxIterations, gen.ID)

		case stepCritique:
			target, critique := head, ""
			if text, ok := c.critique(ctx, head); ok {
				crit, err := c.commit(ctx, &domain.Version{
					ChapterID: chapterID,
					Stage:     domain.StageCritiqued,
					Content:   head.Content,
					ParentID:  ptr(head.ID),
					Iteration: head.Iteration,
					Critique:  ptr(text),
				})
				if err != nil {
					return nil, err
				}
				logger.Info("Chapter %s: CRITIQUED %s", chapterID, crit.ID)
				target, critique = crit, text
			} else if ctx.Err() != nil {
				return c.result(ctx, chapterID, cycle), ctx.Err()
			}
			if err := c.decide(ctx, target, critique, cycle); err != nil {
				return c.result(ctx, chapterID, cycle), err
			}

		case stepDecide:
			if err := c.decide(ctx, head, head.CritiqueText(), cycle); err != nil {
				return c.result(ctx, chapterID, cycle), err
			}

		case stepApplyDecision:
			if err := c.apply(ctx, head, *head.Decision, cycle); err != nil {
				return nil, err
			}

		case stepCritiqueEdit:
			text, ok := c.critique(ctx, head)
			if !ok {
				if ctx.Err() != nil {
					return c.result(ctx, chapterID, cycle), ctx.Err()
				}
				skipCritique = head.ID
				continue
			}
			crit, err := c.commit(ctx, &domain.Version{
				ChapterID: chapterID,
				Stage:     domain.StageCritiqued,
				Content:   head.Content,
				ParentID:  ptr(head.ID),
				Iteration: head.Iteration,
				Critique:  ptr(text),
			})
			if err != nil {
				return nil, err
			}
			logger.Info("Chapter %s: edit critiqued as %s", chapterID, crit.ID)

		case stepFinalizeEdit:
			logger.Info("Chapter %s: iteration limit reached, finalizing edited version %s", chapterID, head.ID)
			if _, err := c.commit(ctx, &domain.Version{
				ChapterID: chapterID,
				Stage:     domain.StageFinal,
				Content:   head.Content,
				ParentID:  ptr(head.ID),
				Iteration: max(cycle, head.Iteration),
			}); err != nil {
				return nil, err
			}
		}
	}
}

// nextStep derives the next action from the chapter head.
func (c *RevisionController) nextStep(
	ctx context.Context, head *domain.Version, cycle int, skipCritique string,
) (step, error) {
	generate := stepGenerate
	if cycle >= c.settings.MaxIterations {
		generate = stepExhausted
	}

	if head.Decision != nil {
		if head.Decision.Kind == domain.DecisionReject {
			return generate, nil
		}
		return stepApplyDecision, nil
	}

	switch head.Stage {
	case domain.StageFinal:
		return stepDone, nil
	case domain.StageGenerated:
		return stepCritique, nil
	case domain.StageCritiqued:
		parent, err := c.store.Get(ctx, head.Parent())
		if err != nil {
			return 0, fmt.Errorf("parent of %s: %w", head.ID, err)
		}
		if parent.Stage != domain.StageHumanEdited {
			return stepDecide, nil
		}
		if cycle >= c.settings.MaxIterations {
			return atLimitAfterEdit(parent, cycle), nil
		}
		return stepGenerate, nil
	case domain.StageHumanEdited:
		if cycle >= c.settings.MaxIterations {
			return atLimitAfterEdit(head, cycle), nil
		}
		if c.settings.EditPolicy == domain.EditPolicyCritique && c.critic != nil && skipCritique != head.ID {
			return stepCritiqueEdit, nil
		}
		return generate, nil
	default:
		return generate, nil
	}
}

// atLimitAfterEdit finalizes an edit made in the last cycle. An older edit
// that became head again through a REJECT does not count as accepted.
func atLimitAfterEdit(edited *domain.Version, cycle int) step {
	if edited.Iteration >= cycle {
		return stepFinalizeEdit
	}
	return stepExhausted
}

// generate calls the generator with bounded retries.
func (c *RevisionController) generate(
	ctx context.Context, chapterID string, head *domain.Version, cycle int,
) (string, error) {
	mode := driven.ModeRevise
	if cycle == 1 {
		mode = driven.ModeSpin
	}
	logger.Info("Chapter %s: cycle %d/%d generating (%s) from %s",
		chapterID, cycle, c.settings.MaxIterations, mode, head.ID)

	var out string
	err := retryWithBackoff(ctx, c.settings.GenerationRetryLimit, c.settings.RetryBackoff, c.sleep,
		func(attempt int, err error, wait time.Duration) {
			logger.Warn("Chapter %s: generation failed (%v), retry %d/%d in %s",
				chapterID, err, attempt, c.settings.GenerationRetryLimit, wait)
		},
		func(ctx context.Context) error {
			text, err := c.generator.Generate(driven.WithIteration(ctx, cycle), head.Content, mode)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return fmt.Errorf("%w: empty output", domain.ErrGeneration)
			}
			out = text
			return nil
		})
	if err != nil && ctx.Err() == nil && !errors.Is(err, domain.ErrGeneration) {
		err = fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	return out, err
}

// critique returns the critique of v's content. Failures are logged and
// reported as ok=false; they never stop the chapter.
func (c *RevisionController) critique(ctx context.Context, v *domain.Version) (string, bool) {
	if c.critic == nil {
		return "", false
	}
	text, err := c.critic.Critique(ctx, v.Content)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Chapter %s: critique of %s failed, continuing without: %v", v.ChapterID, v.ID, err)
		}
		return "", false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Chapter %s: critique of %s was empty, continuing without", v.ChapterID, v.ID)
		return "", false
	}
	return text, true
}

// decide asks the gate about target, records the decision and applies it.
func (c *RevisionController) decide(ctx context.Context, target *domain.Version, critique string, cycle int) error {
	req := driven.DecisionRequest{
		Version:       *target,
		Critique:      critique,
		Iteration:     cycle,
		MaxIterations: c.settings.MaxIterations,
	}
	if ch, err := c.store.GetChapter(ctx, target.ChapterID); err == nil {
		req.ChapterTitle = ch.Title
	}

	logger.Info("Chapter %s: awaiting decision on %s", target.ChapterID, target.ID)
	decision, err := c.gate.Decide(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("decision gate: %w", err)
	}
	if err := decision.Validate(); err != nil {
		return fmt.Errorf("decision gate returned %q: %w", decision.Kind, err)
	}
	if decision.DecidedAt.IsZero() {
		decision.DecidedAt = time.Now()
	}

	if err := c.store.RecordDecision(ctx, target.ID, decision); err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	logger.Info("Chapter %s: %s on %s", target.ChapterID, decision.Kind, target.ID)

	return c.apply(ctx, target, decision, cycle)
}

// apply commits the version a recorded decision calls for.
func (c *RevisionController) apply(ctx context.Context, decided *domain.Version, d domain.Decision, cycle int) error {
	iteration := max(cycle, decided.Iteration)
	switch d.Kind {
	case domain.DecisionAccept:
		_, err := c.commit(ctx, &domain.Version{
			ChapterID: decided.ChapterID,
			Stage:     domain.StageFinal,
			Content:   decided.Content,
			ParentID:  ptr(decided.ID),
			Iteration: iteration,
		})
		return err
	case domain.DecisionEdit:
		edited, err := c.commit(ctx, &domain.Version{
			ChapterID: decided.ChapterID,
			Stage:     domain.StageHumanEdited,
			Content:   d.Content,
			ParentID:  ptr(decided.ID),
			Iteration: iteration,
		})
		if err != nil {
			return err
		}
		logger.Info("Chapter %s: HUMAN_EDITED %s", decided.ChapterID, edited.ID)
		return nil
	default:
		// REJECT already rewound the head in the store.
		return nil
	}
}

// commit writes a version and then indexes it. Index failures are logged and
// left for Reconcile. Without a semantic index no embedding ref is assigned.
func (c *RevisionController) commit(ctx context.Context, v *domain.Version) (*domain.Version, error) {
	if c.semantic != nil {
		v.EmbeddingRef = uuid.New().String()
	}
	if _, err := c.store.Put(ctx, v); err != nil {
		return nil, fmt.Errorf("commit %s version: %w", v.Stage, err)
	}
	if c.semantic != nil {
		if _, err := c.semantic.Index(ctx, v); err != nil {
			logger.Warn("Version %s committed but not indexed (run 'folio index repair'): %v", v.ID, err)
		}
	}
	return v, nil
}

// stall marks the chapter stalled and returns the wrapped cause.
func (c *RevisionController) stall(
	ctx context.Context, chapterID string, cause error, cycle int,
) (*driving.RunResult, error) {
	logger.Error("Chapter %s stalled: %v", chapterID, cause)
	if err := c.setStatus(ctx, chapterID, domain.ChapterStalled, cause.Error()); err != nil {
		return nil, errors.Join(cause, err)
	}
	return c.result(ctx, chapterID, cycle), fmt.Errorf("chapter %s: %w: %w", chapterID, domain.ErrStalled, cause)
}

// setStatus records a status even if ctx was cancelled.
func (c *RevisionController) setStatus(
	ctx context.Context, chapterID string, status domain.ChapterStatus, reason string,
) error {
	if err := c.store.SetChapterStatus(context.WithoutCancel(ctx), chapterID, status, reason); err != nil {
		return fmt.Errorf("set chapter status: %w", err)
	}
	return nil
}

// result snapshots the chapter. Lookup failures leave fields empty.
func (c *RevisionController) result(ctx context.Context, chapterID string, cycle int) *driving.RunResult {
	ctx = context.WithoutCancel(ctx)
	res := &driving.RunResult{Cycles: cycle}
	if ch, err := c.store.GetChapter(ctx, chapterID); err == nil {
		res.Chapter = *ch
	}
	if head, err := c.store.Head(ctx, chapterID); err == nil {
		res.Head = head
	}
	return res
}

func maxIteration(versions []domain.Version) int {
	n := 0
	for _, v := range versions {
		n = max(n, v.Iteration)
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
