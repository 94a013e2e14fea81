package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Driver launches browser contexts. The Manager owns what it returns.
type Driver interface {
	// Launch starts a browser and returns a fresh context configured with opts.
	Launch(opts LaunchOptions) (playwright.BrowserContext, error)

	// Shutdown releases the driver process.
	Shutdown() error
}

// PlaywrightDriver launches Chromium through a Playwright driver process
// that is started on first use.
type PlaywrightDriver struct {
	mu              sync.Mutex
	pw              *playwright.Playwright
	installBrowsers bool
}

// NewPlaywrightDriver creates a driver. When installBrowsers is set the
// Playwright driver and Chromium are downloaded on first use if missing.
func NewPlaywrightDriver(installBrowsers bool) *PlaywrightDriver {
	return &PlaywrightDriver{installBrowsers: installBrowsers}
}

func (d *PlaywrightDriver) start() error {
	if d.pw != nil {
		return nil
	}

	// Discard driver output so it does not interleave with command results on stdout
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if d.installBrowsers {
		if err := playwright.Install(opts); err != nil {
			return fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}
	d.pw = pw
	return nil
}

// Launch starts Chromium and opens a context with the configured viewport and timeout.
func (d *PlaywrightDriver) Launch(opts LaunchOptions) (playwright.BrowserContext, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.start(); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.ExecutablePath != "" {
		launchOpts.ExecutablePath = playwright.String(opts.ExecutablePath)
	}

	browser, err := d.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	bctx.SetDefaultTimeout(ms(opts.Timeout))
	bctx.SetDefaultNavigationTimeout(ms(opts.Timeout))
	return bctx, nil
}

// Shutdown stops the Playwright driver process.
func (d *PlaywrightDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
