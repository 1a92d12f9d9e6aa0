package agents

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

type mockLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (m *mockLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func (m *mockLLM) ModelName() string            { return "mock-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}

type mockPrompts struct {
	templates map[string]string
}

func newMockPrompts() *mockPrompts {
	return &mockPrompts{templates: map[string]string{
		driven.PromptSpin:     "SPIN #%d: %s",
		driven.PromptRevise:   "REVISE #%d: %s",
		driven.PromptCritique: "CRITIQUE: %s",
	}}
}

func (m *mockPrompts) Load(name string) (string, error) {
	t, ok := m.templates[name]
	if !ok {
		return "", errors.New("unknown prompt: " + name)
	}
	return t, nil
}

func (m *mockPrompts) Reload() {}
