package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// mockAcquirer returns canned acquisitions keyed by source ref.
type mockAcquirer struct {
	mu      sync.Mutex
	sources map[string]domain.Acquisition
	errs    map[string]error
	calls   int
}

func newMockAcquirer() *mockAcquirer {
	return &mockAcquirer{
		sources: make(map[string]domain.Acquisition),
		errs:    make(map[string]error),
	}
}

func (m *mockAcquirer) with(ref, text string) *mockAcquirer {
	m.sources[ref] = domain.Acquisition{RawText: text}
	return m
}

func (m *mockAcquirer) Acquire(_ context.Context, ref string) (*domain.Acquisition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err, ok := m.errs[ref]; ok {
		return nil, err
	}
	acq, ok := m.sources[ref]
	if !ok {
		return nil, fmt.Errorf("%w: unknown source %s", domain.ErrAcquisition, ref)
	}
	return &acq, nil
}

// mockGenerator returns scripted outputs in order, then repeats the last.
// An empty script entry with a non-nil error in failures fails that call.
type mockGenerator struct {
	mu       sync.Mutex
	outputs  []string
	failures []error
	calls    int
	inputs   []string
	modes    []driven.GenerationMode
}

func (m *mockGenerator) Generate(_ context.Context, text string, mode driven.GenerationMode) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.calls
	m.calls++
	m.inputs = append(m.inputs, text)
	m.modes = append(m.modes, mode)
	if i < len(m.failures) && m.failures[i] != nil {
		return "", m.failures[i]
	}
	if len(m.outputs) == 0 {
		return "generated: " + text, nil
	}
	if i >= len(m.outputs) {
		i = len(m.outputs) - 1
	}
	return m.outputs[i], nil
}

// mockCritic returns a fixed critique or error.
type mockCritic struct {
	mu       sync.Mutex
	critique string
	err      error
	calls    int
}

func (m *mockCritic) Critique(_ context.Context, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.critique, nil
}

// mockGate returns scripted decisions in order, then repeats the last.
type mockGate struct {
	mu        sync.Mutex
	decisions []domain.Decision
	err       error
	requests  []driven.DecisionRequest
}

func gateOf(decisions ...domain.Decision) *mockGate {
	return &mockGate{decisions: decisions}
}

func (m *mockGate) Decide(_ context.Context, req driven.DecisionRequest) (domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := len(m.requests)
	m.requests = append(m.requests, req)
	if m.err != nil {
		return domain.Decision{}, m.err
	}
	if i >= len(m.decisions) {
		i = len(m.decisions) - 1
	}
	return m.decisions[i], nil
}

// blockingGate waits for cancellation.
type blockingGate struct {
	entered chan struct{}
}

func (g *blockingGate) Decide(ctx context.Context, _ driven.DecisionRequest) (domain.Decision, error) {
	close(g.entered)
	<-ctx.Done()
	return domain.Decision{}, ctx.Err()
}

// conceptEmbedder maps words onto shared concept axes so that texts with the
// same meaning but different wording land close together.
type conceptEmbedder struct {
	err      error
	batchErr error
	batches  int
}

var conceptAxes = []map[string]bool{
	{"fell": true, "falling": true, "plunged": true, "dropped": true, "tumbling": true, "downward": true, "plummeted": true},
	{"darkness": true, "dark": true, "shadowy": true, "gloom": true, "black": true},
	{"unknown": true, "mystery": true, "strange": true},
	{"tea": true, "teapot": true, "hatter": true, "poured": true},
	{"garden": true, "roses": true, "flowers": true},
}

func (e *conceptEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vec := make([]float32, len(conceptAxes))
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'")
		for axis, words := range conceptAxes {
			if words[word] {
				vec[axis]++
			}
		}
	}
	return vec, nil
}

func (e *conceptEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batches++
	if e.batchErr != nil {
		return nil, e.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *conceptEmbedder) Dimensions() int              { return len(conceptAxes) }
func (e *conceptEmbedder) ModelName() string            { return "concepts" }
func (e *conceptEmbedder) Ping(_ context.Context) error { return nil }
func (e *conceptEmbedder) Close() error                 { return nil }

var errServiceDown = errors.New("service down")
