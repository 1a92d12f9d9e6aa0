package gate

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Script implements the interface.
var _ driven.DecisionGate = (*Script)(nil)

// ScriptFile is the YAML layout of a decision script.
//
//	default: reject
//	decisions:
//	  - decision: edit
//	    content: |
//	      Corrected text.
//	  - decision: accept
type ScriptFile struct {
	// Default is used once Decisions runs out. Empty means fail.
	Default string `yaml:"default"`

	// Decisions are consumed in order across all chapters.
	Decisions []ScriptStep `yaml:"decisions"`
}

// ScriptStep is one scripted decision.
type ScriptStep struct {
	Decision string `yaml:"decision"`
	Content  string `yaml:"content,omitempty"`
}

// Script replays decisions from a YAML file.
type Script struct {
	mu       sync.Mutex
	steps    []domain.Decision
	next     int
	fallback *domain.Decision
	path     string
}

// LoadScript reads and validates a decision script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decision script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.path = path
	return s, nil
}

// ParseScript parses a YAML decision script.
func ParseScript(data []byte) (*Script, error) {
	var file ScriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse decision script: %w", domain.ErrInvalidConfig, err)
	}

	s := &Script{}
	for i, step := range file.Decisions {
		d, err := toDecision(step)
		if err != nil {
			return nil, fmt.Errorf("%w: decision %d: %w", domain.ErrInvalidConfig, i+1, err)
		}
		s.steps = append(s.steps, d)
	}

	if file.Default != "" {
		d, err := toDecision(ScriptStep{Decision: file.Default})
		if err != nil {
			return nil, fmt.Errorf("%w: default: %w", domain.ErrInvalidConfig, err)
		}
		if d.Kind == domain.DecisionEdit {
			return nil, fmt.Errorf("%w: default cannot be edit", domain.ErrInvalidConfig)
		}
		s.fallback = &d
	}
	return s, nil
}

func toDecision(step ScriptStep) (domain.Decision, error) {
	kind, err := domain.ParseDecisionKind(step.Decision)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%q: %w", step.Decision, err)
	}
	d := domain.Decision{Kind: kind, Content: step.Content}
	if err := d.Validate(); err != nil {
		return domain.Decision{}, fmt.Errorf("%s needs content: %w", kind, err)
	}
	return d, nil
}

// Decide returns the next scripted decision.
func (s *Script) Decide(ctx context.Context, req driven.DecisionRequest) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next < len(s.steps) {
		d := s.steps[s.next]
		s.next++
		logger.Debug("Script decision %d for %s: %s", s.next, req.Version.ID, d.Kind)
		return d, nil
	}
	if s.fallback != nil {
		return *s.fallback, nil
	}
	return domain.Decision{}, fmt.Errorf("%w: decision script %s exhausted after %d decisions",
		domain.ErrInvalidDecision, s.path, len(s.steps))
}

// Remaining returns how many scripted decisions are left.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.next
}
