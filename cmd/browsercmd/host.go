package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/browsercmd/pkg/browser"
	"github.com/entrhq/browsercmd/pkg/config"
	"github.com/entrhq/browsercmd/pkg/logging"
	"github.com/entrhq/browsercmd/pkg/security/workspace"
	browsertool "github.com/entrhq/browsercmd/pkg/tools/browser"
)

// host wires configuration, policy and the browser session into a Registry.
type host struct {
	registry *browsertool.Registry
	logger   *logging.Logger
}

func newHost(cmd *cobra.Command, opts *rootOptions) (*host, error) {
	if opts.logLevel != "" {
		if err := logging.SetLevel(opts.logLevel); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
		}
	}
	// A fallback logger writes to stderr, which never mixes with results on stdout
	logger, _ := logging.NewLogger("browsercmd")

	if err := config.Initialize(opts.configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	section := config.GetBrowser()
	if err := applyBrowserFlags(cmd, opts, section); err != nil {
		return nil, err
	}
	if err := section.Validate(); err != nil {
		return nil, fmt.Errorf("invalid browser configuration: %w", err)
	}

	urls, err := config.GetNavigation().Guard()
	if err != nil {
		return nil, fmt.Errorf("invalid navigation policy: %w", err)
	}

	guard, err := workspace.NewGuard(opts.workspace)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace: %w", err)
	}
	for _, dir := range opts.allowDirs {
		if err := guard.AddWhitelist(dir); err != nil {
			return nil, fmt.Errorf("invalid --allow-dir: %w", err)
		}
	}

	driver := browser.NewPlaywrightDriver(section.InstallBrowsers)
	env := &browsertool.Env{
		Sessions:  browser.NewManager(driver, section.LaunchOptions(), logger.With("component", "session")),
		URLs:      urls,
		Workspace: guard,
		Logger:    logger,
	}

	registry := browsertool.NewRegistry(env, browsertool.WithEnabled(config.IsCommandEnabled))
	logger.Infof("browsercmd v%s ready (workspace=%s, extra dirs=%v, disabled=%v)",
		version, guard.WorkspaceDir(), guard.Whitelist(), config.Global().Commands().Disabled())
	return &host{registry: registry, logger: logger}, nil
}

// close shuts the browser down and flushes the log.
func (h *host) close() error {
	err := h.registry.Shutdown()
	if err != nil {
		h.logger.Errorf("shutdown failed: %v", err)
	}
	_ = h.logger.Sync()
	return err
}

// applyBrowserFlags lets explicitly set flags override the browser section.
func applyBrowserFlags(cmd *cobra.Command, opts *rootOptions, section *config.BrowserSection) error {
	data := map[string]any{}
	flags := cmd.Flags()

	if flags.Changed("headless") {
		data["headless"] = opts.headless
	}
	if flags.Changed("executable-path") {
		data["executable_path"] = opts.executablePath
	}
	if opts.viewport != "" {
		vp, err := parseViewport(opts.viewport)
		if err != nil {
			return err
		}
		data["viewport_width"] = vp.Width
		data["viewport_height"] = vp.Height
	}
	return section.SetData(data)
}

// parseViewport reads a WIDTHxHEIGHT size.
func parseViewport(s string) (browser.Viewport, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return browser.Viewport{}, fmt.Errorf("invalid viewport %q: expected WIDTHxHEIGHT", s)
	}

	width, errW := strconv.Atoi(w)
	height, errH := strconv.Atoi(h)
	if err := errors.Join(errW, errH); err != nil {
		return browser.Viewport{}, fmt.Errorf("invalid viewport %q: %w", s, err)
	}

	vp := browser.Viewport{Width: width, Height: height}
	if err := vp.Validate(); err != nil {
		return browser.Viewport{}, err
	}
	return vp, nil
}
