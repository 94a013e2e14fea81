package browser

import (
	"fmt"
	"time"
)

// Default values for various operations
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxLength      = 10000 // characters returned by content extraction
	BlankURL              = "about:blank"

	MinViewportSize = 100
	MaxViewportSize = 5000
)

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int `json:"width" xml:"width"`
	Height int `json:"height" xml:"height"`
}

// Validate checks the viewport against the supported size range.
func (v Viewport) Validate() error {
	if v.Width < MinViewportSize || v.Width > MaxViewportSize ||
		v.Height < MinViewportSize || v.Height > MaxViewportSize {
		return Errorf(KindValidation, "viewport %dx%d out of range [%d, %d]",
			v.Width, v.Height, MinViewportSize, MaxViewportSize)
	}
	return nil
}

func (v Viewport) String() string {
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// LaunchOptions configures a browser session.
type LaunchOptions struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size of every page
	Viewport Viewport

	// ExecutablePath points at a custom Chromium build; empty uses the bundled one
	ExecutablePath string

	// Timeout is the default timeout for page actions
	Timeout time.Duration
}

// DefaultLaunchOptions returns headless Chromium at 1280x720 with a 30s timeout.
func DefaultLaunchOptions() LaunchOptions {
	return LaunchOptions{
		Headless: true,
		Viewport: Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight},
		Timeout:  DefaultTimeout,
	}
}

// LaunchOverrides carries per-launch settings. Nil or empty fields keep the
// manager defaults.
type LaunchOverrides struct {
	Headless       *bool
	Viewport       *Viewport
	ExecutablePath string
}

// Apply returns a copy of o with the overrides applied.
func (o LaunchOptions) Apply(ov LaunchOverrides) LaunchOptions {
	if ov.Headless != nil {
		o.Headless = *ov.Headless
	}
	if ov.Viewport != nil {
		o.Viewport = *ov.Viewport
	}
	if ov.ExecutablePath != "" {
		o.ExecutablePath = ov.ExecutablePath
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Viewport.Width == 0 && o.Viewport.Height == 0 {
		o.Viewport = Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	return o
}

// TabInfo describes one tab of the registry.
type TabInfo struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// ms converts a duration to Playwright's millisecond float.
func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
