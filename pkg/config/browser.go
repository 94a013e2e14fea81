package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/browsercmd/pkg/browser"
)

const (
	// SectionIDBrowser is the identifier for the browser launch section
	SectionIDBrowser = "browser"
)

// BrowserSection holds the options used when a session is launched.
type BrowserSection struct {
	Headless        bool
	ViewportWidth   int
	ViewportHeight  int
	ExecutablePath  string
	DefaultTimeout  time.Duration
	InstallBrowsers bool
	mu              sync.RWMutex
}

// NewBrowserSection creates a browser section with headless Chromium at 1280x720.
func NewBrowserSection() *BrowserSection {
	s := &BrowserSection{}
	s.Reset()
	return s
}

// ID returns the section identifier.
func (s *BrowserSection) ID() string {
	return SectionIDBrowser
}

// Title returns the section title.
func (s *BrowserSection) Title() string {
	return "Browser"
}

// Description returns the section description.
func (s *BrowserSection) Description() string {
	return "Launch options for the browser session: headless mode, viewport, executable and default timeout."
}

// Data returns the current configuration data.
func (s *BrowserSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"headless":         s.Headless,
		"viewport_width":   s.ViewportWidth,
		"viewport_height":  s.ViewportHeight,
		"executable_path":  s.ExecutablePath,
		"default_timeout":  s.DefaultTimeout.String(),
		"install_browsers": s.InstallBrowsers,
	}
}

// SetData updates the configuration from the provided data.
func (s *BrowserSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range data {
		var err error
		switch key {
		case "headless":
			s.Headless, err = boolValue(key, value)
		case "install_browsers":
			s.InstallBrowsers, err = boolValue(key, value)
		case "viewport_width":
			s.ViewportWidth, err = intValue(key, value)
		case "viewport_height":
			s.ViewportHeight, err = intValue(key, value)
		case "executable_path":
			path, ok := value.(string)
			if !ok {
				err = fmt.Errorf("invalid value type for executable_path: expected string, got %T", value)
			}
			s.ExecutablePath = path
		case "default_timeout":
			s.DefaultTimeout, err = durationValue(key, value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the current configuration.
func (s *BrowserSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := (browser.Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight}).Validate(); err != nil {
		return err
	}
	if s.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout must be positive, got %v", s.DefaultTimeout)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *BrowserSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	def := browser.DefaultLaunchOptions()
	s.Headless = def.Headless
	s.ViewportWidth = def.Viewport.Width
	s.ViewportHeight = def.Viewport.Height
	s.ExecutablePath = ""
	s.DefaultTimeout = def.Timeout
	s.InstallBrowsers = false
}

// LaunchOptions converts the section into session launch options.
func (s *BrowserSection) LaunchOptions() browser.LaunchOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return browser.LaunchOptions{
		Headless:       s.Headless,
		Viewport:       browser.Viewport{Width: s.ViewportWidth, Height: s.ViewportHeight},
		ExecutablePath: s.ExecutablePath,
		Timeout:        s.DefaultTimeout,
	}
}

func boolValue(key string, value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
	}
	return b, nil
}

func intValue(key string, value any) (int, error) {
	switch v := value.(type) {
	case float64:
		// JSON numbers come as float64
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
}

// durationValue accepts a duration string ("30s") or a number of milliseconds.
func durationValue(key string, value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	}
	return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
}
