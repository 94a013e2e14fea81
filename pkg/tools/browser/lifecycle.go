package browser

import (
	"context"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

type launchArgs struct {
	Headless       *bool             `xml:"headless"`
	Viewport       *browser.Viewport `xml:"viewport"`
	ExecutablePath string            `xml:"executablePath"`
}

func (a *launchArgs) validate() error {
	if a.Viewport != nil {
		return a.Viewport.Validate()
	}
	return nil
}

func launchCommand(env *Env) tools.Tool {
	return define(env, "launch",
		`Start the browser session. Optional: most commands start one automatically with the default settings.
If a session is already running it is kept as is and the arguments are ignored.`,
		tools.BaseToolSchema(map[string]interface{}{
			"headless": prop("boolean", "Run without a visible window. Default: from configuration (true)"),
			"viewport": map[string]interface{}{
				"type":        "object",
				"description": "Viewport size in CSS pixels",
				"properties": map[string]interface{}{
					"width":  prop("integer", "Width, 100-5000"),
					"height": prop("integer", "Height, 100-5000"),
				},
			},
			"executablePath": prop("string", "Path to a Chromium executable to use instead of the bundled one"),
		}, nil),
		func(ctx context.Context, _ *browser.Session, args *launchArgs) (*tools.Result, error) {
			s, created, err := env.Sessions.Launch(ctx, browser.LaunchOverrides{
				Headless:       args.Headless,
				Viewport:       args.Viewport,
				ExecutablePath: args.ExecutablePath,
			})
			if err != nil {
				return nil, err
			}

			if !created {
				return tools.TextResult("Browser already running (session %s); launch settings ignored", s.ID).
					WithMetadata("session_id", s.ID).
					WithMetadata("already_running", true), nil
			}
			return tools.TextResult("Browser launched (session %s, headless=%t, viewport=%s)",
				s.ID, s.Options.Headless, s.Options.Viewport).
				WithMetadata("session_id", s.ID).
				WithMetadata("already_running", false), nil
		}).withoutSession()
}

func closeCommand(env *Env) tools.Tool {
	return define(env, "close",
		"Close the browser session and every tab. The next command that needs a browser starts a fresh session.",
		tools.BaseToolSchema(map[string]interface{}{}, nil),
		func(ctx context.Context, _ *browser.Session, _ *noArgs) (*tools.Result, error) {
			closed, err := env.Sessions.Close()
			if err != nil {
				return nil, err
			}
			if !closed {
				return tools.TextResult("No browser session was running"), nil
			}
			return tools.TextResult("Browser closed"), nil
		}).withoutSession()
}
