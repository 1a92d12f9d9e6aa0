package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driving"
)

func TestChapterService_ReadOperations(t *testing.T) {
	h := newHarness(t, revisionSettings(2), gateOf(domain.Reject(), domain.Accept()))
	ctx := context.Background()
	res, err := h.controller.Start(ctx, driving.StartRequest{SourceRef: "alice.txt", Title: "Down the Rabbit-Hole"})
	require.NoError(t, err)

	service := NewChapterService(h.store)

	chapters, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "Down the Rabbit-Hole", chapters[0].Title)

	ch, err := service.Get(ctx, res.Chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChapterFinalized, ch.Status)

	head, err := service.Head(ctx, res.Chapter.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageFinal, head.Stage)

	lineage, err := service.Lineage(ctx, res.Chapter.ID)
	require.NoError(t, err)
	assert.Len(t, lineage, 4)

	history, err := service.History(ctx, res.Chapter.ID)
	require.NoError(t, err)
	assert.Len(t, history, 6)

	v, err := service.Version(ctx, head.ID)
	require.NoError(t, err)
	assert.Equal(t, head.Content, v.Content)

	_, err = service.Get(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChapterService_Feedback(t *testing.T) {
	h := newHarness(t, revisionSettings(3), gateOf(domain.Reject(), domain.Edit("fixed"), domain.Accept()))
	ctx := context.Background()
	res, err := h.controller.Start(ctx, driving.StartRequest{SourceRef: "alice.txt"})
	require.NoError(t, err)

	records, err := NewChapterService(h.store).Feedback(ctx, res.Chapter.ID)
	require.NoError(t, err)

	// RAW, rejected GEN+CRIT, GEN+CRIT edited, HUMAN_EDITED, GEN+CRIT accepted, FINAL.
	require.Len(t, records, 9)

	var rejected, edited, accepted, superseded int
	for _, r := range records {
		assert.Equal(t, res.Chapter.ID, r.ChapterID)
		switch r.Decision {
		case domain.DecisionReject:
			rejected++
		case domain.DecisionEdit:
			edited++
			assert.True(t, r.Edited)
		case domain.DecisionAccept:
			accepted++
		}
		if r.Superseded {
			superseded++
		}
		if r.Stage == domain.StageCritiqued {
			assert.Equal(t, "Good pacing, check tense consistency", r.Critique)
		}
	}
	assert.Equal(t, 1, rejected)
	assert.Equal(t, 1, edited)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 2, superseded)
}

func TestChapterService_FeedbackUnknownChapter(t *testing.T) {
	h := newHarness(t, revisionSettings(1), gateOf(domain.Accept()))
	_, err := NewChapterService(h.store).Feedback(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
