package config

import (
	"sync"
)

var (
	// globalManager is the singleton configuration manager instance
	globalManager *Manager
	globalMu      sync.Mutex
)

// Load creates a manager backed by the file at configPath (empty means
// DefaultPath), registers the browser, navigation and commands sections and
// loads them.
func Load(configPath string) (*Manager, error) {
	store, err := NewFileStore(configPath)
	if err != nil {
		return nil, err
	}

	manager := NewManager(store)
	for _, section := range []Section{
		NewBrowserSection(),
		NewNavigationSection(),
		NewCommandsSection(),
	} {
		if err := manager.RegisterSection(section); err != nil {
			return nil, err
		}
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Initialize loads the configuration and installs it as the global manager.
// This should be called once at application startup.
func Initialize(configPath string) error {
	manager, err := Load(configPath)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}
	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// Browser returns the browser section of m, or nil when it is not registered.
func (m *Manager) Browser() *BrowserSection {
	return sectionAs[*BrowserSection](m, SectionIDBrowser)
}

// Navigation returns the navigation section of m, or nil when it is not registered.
func (m *Manager) Navigation() *NavigationSection {
	return sectionAs[*NavigationSection](m, SectionIDNavigation)
}

// Commands returns the commands section of m, or nil when it is not registered.
func (m *Manager) Commands() *CommandsSection {
	return sectionAs[*CommandsSection](m, SectionIDCommands)
}

func sectionAs[T Section](m *Manager, id string) T {
	var zero T
	section, ok := m.GetSection(id)
	if !ok {
		return zero
	}
	typed, ok := section.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetBrowser returns the browser section from global config.
// Returns nil if config is not initialized.
func GetBrowser() *BrowserSection {
	if !IsInitialized() {
		return nil
	}
	return Global().Browser()
}

// GetNavigation returns the navigation section from global config.
// Returns nil if config is not initialized.
func GetNavigation() *NavigationSection {
	if !IsInitialized() {
		return nil
	}
	return Global().Navigation()
}

// IsCommandEnabled checks the commands section of the global config.
// Every command is enabled when config is not initialized.
func IsCommandEnabled(name string) bool {
	if !IsInitialized() {
		return true
	}
	commands := Global().Commands()
	return commands == nil || commands.IsEnabled(name)
}
