package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

func TestWriter_Generate_Modes(t *testing.T) {
	tests := []struct {
		name   string
		mode   driven.GenerationMode
		cycle  int
		prompt string
	}{
		{name: "spin on first cycle", mode: driven.ModeSpin, cycle: 1, prompt: "SPIN #1: Alice"},
		{name: "revise later", mode: driven.ModeRevise, cycle: 3, prompt: "REVISE #3: Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{reply: "  Rewritten.\n"}
			w := NewWriter(llm, newMockPrompts(), nil)

			out, err := w.Generate(driven.WithIteration(context.Background(), tt.cycle), "Alice", tt.mode)

			require.NoError(t, err)
			assert.Equal(t, "Rewritten.", out)
			assert.Equal(t, tt.prompt, llm.lastPrompt())
		})
	}
}

func TestWriter_Generate_DefaultIteration(t *testing.T) {
	llm := &mockLLM{reply: "x"}
	w := NewWriter(llm, newMockPrompts(), nil)

	_, err := w.Generate(context.Background(), "text", driven.ModeSpin)

	require.NoError(t, err)
	assert.Equal(t, "SPIN #1: text", llm.lastPrompt())
}

func TestWriter_Generate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		llm     *mockLLM
		prompts *mockPrompts
		mode    driven.GenerationMode
	}{
		{name: "llm failure", llm: &mockLLM{err: errors.New("boom")}, prompts: newMockPrompts(), mode: driven.ModeSpin},
		{name: "blank output", llm: &mockLLM{reply: "   "}, prompts: newMockPrompts(), mode: driven.ModeSpin},
		{name: "unknown mode", llm: &mockLLM{reply: "x"}, prompts: newMockPrompts(), mode: "polish"},
		{name: "missing prompt", llm: &mockLLM{reply: "x"}, prompts: &mockPrompts{}, mode: driven.ModeRevise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWriter(tt.llm, tt.prompts, nil)

			_, err := w.Generate(context.Background(), "text", tt.mode)

			assert.ErrorIs(t, err, domain.ErrGeneration)
		})
	}
}

func TestWriter_Generate_RateLimitKeepsBothSentinels(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{})
	llm := &mockLLM{err: domain.ErrRateLimited}
	w := NewWriter(llm, newMockPrompts(), limiter)

	_, err := w.Generate(context.Background(), "text", driven.ModeSpin)

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.False(t, limiter.allow(), "rate limit pauses the shared limiter")
}

func TestWriter_Generate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewWriter(&mockLLM{err: context.Canceled}, newMockPrompts(), nil)

	_, err := w.Generate(ctx, "text", driven.ModeSpin)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrGeneration)
}

func TestReviewer_Critique(t *testing.T) {
	llm := &mockLLM{reply: "Tighten the opening."}
	r := NewReviewer(llm, newMockPrompts(), nil)

	out, err := r.Critique(context.Background(), "Chapter text")

	require.NoError(t, err)
	assert.Equal(t, "Tighten the opening.", out)
	assert.Equal(t, "CRITIQUE: Chapter text", llm.lastPrompt())
}

func TestReviewer_Critique_Errors(t *testing.T) {
	for name, llm := range map[string]*mockLLM{
		"failure": {err: errors.New("boom")},
		"empty":   {reply: ""},
	} {
		t.Run(name, func(t *testing.T) {
			r := NewReviewer(llm, newMockPrompts(), nil)

			_, err := r.Critique(context.Background(), "text")

			assert.ErrorIs(t, err, domain.ErrCritique)
		})
	}
}

func TestRateLimiter_Backoff(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	r.now = func() time.Time { return now }

	assert.True(t, r.allow())

	r.RecordRateLimitError(time.Minute)
	assert.False(t, r.allow())

	r.RecordRateLimitError(time.Second)
	now = now.Add(30 * time.Second)
	assert.False(t, r.allow(), "shorter backoff does not shorten an existing one")

	now = now.Add(31 * time.Second)
	assert.True(t, r.allow())
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{})
	r.RecordRateLimitError(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_Nil(t *testing.T) {
	var r *RateLimiter

	assert.NoError(t, r.Wait(context.Background()))
	assert.True(t, r.allow())
	r.RecordRateLimitError(time.Second)
}

func TestIterationFrom(t *testing.T) {
	assert.Equal(t, 1, driven.IterationFrom(context.Background()))
	assert.Equal(t, 4, driven.IterationFrom(driven.WithIteration(context.Background(), 4)))
	assert.Equal(t, 1, driven.IterationFrom(driven.WithIteration(context.Background(), 0)))
}
