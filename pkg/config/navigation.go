package config

import (
	"fmt"
	"sync"

	"github.com/entrhq/browsercmd/pkg/security/urlguard"
)

const (
	// SectionIDNavigation is the identifier for the navigation policy section
	SectionIDNavigation = "navigation"
)

// NavigationSection holds the URL patterns navigation commands are checked against.
type NavigationSection struct {
	allowed []string
	denied  []string
	mu      sync.RWMutex
}

// NewNavigationSection creates a navigation section that allows every URL.
func NewNavigationSection() *NavigationSection {
	return &NavigationSection{}
}

// ID returns the section identifier.
func (s *NavigationSection) ID() string {
	return SectionIDNavigation
}

// Title returns the section title.
func (s *NavigationSection) Title() string {
	return "Navigation Policy"
}

// Description returns the section description.
func (s *NavigationSection) Description() string {
	return "Glob patterns for URLs the browser may open. Denied patterns win; an empty allow list allows everything not denied."
}

// Data returns the current configuration data.
func (s *NavigationSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"allowed_urls": toAnySlice(s.allowed),
		"denied_urls":  toAnySlice(s.denied),
	}
}

// SetData updates the configuration from the provided data.
func (s *NavigationSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if raw, ok := data["allowed_urls"]; ok {
		allowed, err := stringSlice("allowed_urls", raw)
		if err != nil {
			return err
		}
		s.allowed = allowed
	}
	if raw, ok := data["denied_urls"]; ok {
		denied, err := stringSlice("denied_urls", raw)
		if err != nil {
			return err
		}
		s.denied = denied
	}
	return nil
}

// Validate checks that every pattern compiles.
func (s *NavigationSection) Validate() error {
	_, err := s.Guard()
	return err
}

// Reset clears both pattern lists.
func (s *NavigationSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed = nil
	s.denied = nil
}

// SetPatterns replaces both pattern lists.
func (s *NavigationSection) SetPatterns(allowed, denied []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowed = append([]string(nil), allowed...)
	s.denied = append([]string(nil), denied...)
}

// Guard compiles the patterns into a URL guard.
func (s *NavigationSection) Guard() (*urlguard.Guard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return urlguard.New(s.allowed, s.denied)
}

func toAnySlice(items []string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func stringSlice(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid %s entry at index %d: expected string, got %T", key, i, item)
			}
			out = append(out, str)
		}
		return out, nil
	}
	return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, value)
}
