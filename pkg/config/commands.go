package config

import (
	"fmt"
	"maps"
	"sort"
	"sync"
)

const (
	// SectionIDCommands is the identifier for the command availability section
	SectionIDCommands = "commands"
)

// CommandsSection records which browser commands are enabled.
// Commands missing from the map are enabled.
type CommandsSection struct {
	commands map[string]bool
	mu       sync.RWMutex
}

// NewCommandsSection creates a section with every command enabled.
func NewCommandsSection() *CommandsSection {
	return &CommandsSection{
		commands: make(map[string]bool),
	}
}

// ID returns the section identifier.
func (s *CommandsSection) ID() string {
	return SectionIDCommands
}

// Title returns the section title.
func (s *CommandsSection) Title() string {
	return "Commands"
}

// Description returns the section description.
func (s *CommandsSection) Description() string {
	return "Enable or disable individual browser commands. Disabled commands answer with a policy error."
}

// Data returns the current configuration data.
func (s *CommandsSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data := make(map[string]any, len(s.commands))
	for name, enabled := range s.commands {
		data[name] = enabled
	}
	return data
}

// SetData updates the configuration from the provided data.
func (s *CommandsSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, value := range data {
		enabled, ok := value.(bool)
		if !ok {
			return fmt.Errorf("invalid value type for command '%s': expected bool, got %T", name, value)
		}
		s.commands[name] = enabled
	}
	return nil
}

// Validate validates the current configuration.
func (s *CommandsSection) Validate() error {
	return nil
}

// Reset enables every command again.
func (s *CommandsSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.commands {
		s.commands[name] = true
	}
}

// IsEnabled reports whether the command may run.
func (s *CommandsSection) IsEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	enabled, exists := s.commands[name]
	return !exists || enabled
}

// SetEnabled enables or disables a command.
func (s *CommandsSection) SetEnabled(name string, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands[name] = enabled
}

// Disabled returns the names of disabled commands, sorted.
func (s *CommandsSection) Disabled() []string {
	s.mu.RLock()
	all := maps.Clone(s.commands)
	s.mu.RUnlock()

	var out []string
	for name, enabled := range all {
		if !enabled {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
