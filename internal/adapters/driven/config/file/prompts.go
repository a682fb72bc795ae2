package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/ragbox/internal/core/ports/driven"
	"github.com/custodia-labs/ragbox/internal/logger"
)

var _ driven.PromptStore = (*PromptStore)(nil)

// defaults holds the built-in templates and the README copied into the
// prompt directory.
//
//go:embed defaults
var defaults embed.FS

const defaultsDir = "defaults"

// builtin returns the embedded template for name.
func builtin(name string) (string, bool) {
	data, err := defaults.ReadFile(path.Join(defaultsDir, name+".txt"))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

// PromptStore serves prompt templates from <dir>/<name>.txt, falling back
// to the built-in text. The directory is populated on the first Load, not
// in the constructor.
type PromptStore struct {
	dir string

	setupOnce sync.Once
	setupErr  error

	mu    sync.RWMutex
	cache map[string]string
}

// NewPromptStore returns a store rooted at dir, or ~/.ragbox/prompts when
// dir is empty.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragbox", "prompts")
	}
	return &PromptStore{dir: dir, cache: map[string]string{}}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template for name. An unreadable file, or one whose %s
// count differs from the built-in template, yields the built-in text.
func (s *PromptStore) Load(name string) (string, error) {
	s.setupOnce.Do(s.setup)
	fallback, known := builtin(name)

	if s.setupErr != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("prompt directory: %w", s.setupErr)
	}

	s.mu.RLock()
	cached, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name+".txt"))
	if err != nil {
		if known {
			return fallback, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	prompt := strings.TrimSpace(string(data))
	if known {
		if got, want := placeholders(prompt), placeholders(fallback); got != want {
			logger.Warn("prompt %q has %d placeholders, want %d; using the built-in text", name, got, want)
			prompt = fallback
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache[name]; ok {
		return existing, nil
	}
	s.cache[name] = prompt
	return prompt, nil
}

// Reload drops cached templates so the next Load reads the files again.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = map[string]string{}
	s.mu.Unlock()
}

// setup creates the directory and copies in every embedded file that is
// not already there. Edited files are never overwritten.
func (s *PromptStore) setup() {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		s.setupErr = err
		return
	}

	entries, err := fs.ReadDir(defaults, defaultsDir)
	if err != nil {
		s.setupErr = err
		return
	}
	for _, entry := range entries {
		target := filepath.Join(s.dir, entry.Name())
		if _, err := os.Stat(target); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaults.ReadFile(path.Join(defaultsDir, entry.Name()))
		if err != nil {
			s.setupErr = err
			return
		}
		if err := os.WriteFile(target, data, filePerm); err != nil {
			s.setupErr = fmt.Errorf("write %s: %w", entry.Name(), err)
			return
		}
	}
}

// placeholders counts %s verbs, ignoring escaped percent signs.
func placeholders(template string) int {
	return strings.Count(strings.ReplaceAll(template, "%%", ""), "%s")
}
