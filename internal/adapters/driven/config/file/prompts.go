package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// Files are only created on first access, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSpin: `You are an AI Writer. Rewrite the following chapter text, focusing on creating a more engaging narrative style. Keep the core information but rephrase and expand where appropriate.
This is iteration %d. Only provide the rewritten text.

Original Chapter:
%s`,

	driven.PromptRevise: `You are an AI Writer. The following chapter has already been rewritten once and a human asked for another pass. Improve pacing, clarity and voice without changing what happens.
This is iteration %d. Only provide the revised text.

Chapter:
%s`,

	driven.PromptCritique: `You are an AI Reviewer. Analyse the following chapter text for clarity, coherence, grammar and engagement. Start with a short summary of its strengths, then list specific areas for improvement. Focus on the content itself, not just grammar.

Chapter to Review:
%s`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.folio/prompts/.
//
// The constructor does not perform any I/O. Directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// requiredVerbs lists the fmt verbs each template must contain, in order.
var requiredVerbs = map[string][]string{
	driven.PromptSpin:     {"%d", "%s"},
	driven.PromptRevise:   {"%d", "%s"},
	driven.PromptCritique: {"%s"},
}

// Load returns the prompt template for the given name.
// The first call creates the prompt directory and the default files.
// A missing or malformed user file falls back to the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err == nil {
		err = checkPlaceholders(name, prompt)
		if err != nil {
			logger.Warn("prompt %s ignored: %v", name, err)
		}
	}
	if err != nil {
		defaultPrompt, ok := defaultPrompts[name]
		if !ok {
			return "", fmt.Errorf("load prompt %q: %w", name, err)
		}
		prompt = defaultPrompt
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// checkPlaceholders verifies a known template keeps its verbs in order.
func checkPlaceholders(name, prompt string) error {
	rest := prompt
	for _, verb := range requiredVerbs[name] {
		idx := strings.Index(rest, verb)
		if idx < 0 {
			return fmt.Errorf("%w: template %q is missing %s", domain.ErrInvalidConfig, name, verb)
		}
		rest = rest[idx+len(verb):]
	}
	return nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Folio Prompts

These templates drive the writer and reviewer used by ` + "`folio run`" + `.

- ` + "`spin.txt`" + `: first rewrite of the acquired chapter
- ` + "`revise.txt`" + `: later rewrites after a human rejected or edited a version
- ` + "`critique.txt`" + `: reviewer feedback shown next to each generated version

Edits are picked up by the next command.

Placeholders are Go fmt verbs and must stay in order:
` + "`%d`" + ` is the iteration number and ` + "`%s`" + ` the chapter text.
The critique template only takes ` + "`%s`" + `.
`
	return os.WriteFile(path, []byte(content), 0600)
}
