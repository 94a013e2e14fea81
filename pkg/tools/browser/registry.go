package browser

import (
	"context"
	"sync"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

// ServerName is the server_name tool calls address the browser commands with.
const ServerName = "browser"

// Option configures a Registry.
type Option func(*Registry)

// WithEnabled filters the command set. Disabled commands are hidden from
// Tools and rejected by Dispatch with a policy error.
func WithEnabled(enabled func(name string) bool) Option {
	return func(r *Registry) {
		r.enabled = enabled
	}
}

// Registry is the command surface of the browser. Dispatch runs one command
// at a time, so callers may share a Registry between goroutines.
type Registry struct {
	mu       sync.Mutex
	env      *Env
	commands []tools.Tool
	byName   map[string]tools.Tool
	enabled  func(name string) bool
}

// NewRegistry creates every browser command bound to env.
func NewRegistry(env *Env, opts ...Option) *Registry {
	r := &Registry{
		env:     env,
		enabled: func(string) bool { return true },
	}
	for _, opt := range opts {
		opt(r)
	}

	r.commands = []tools.Tool{
		// Session
		launchCommand(env),
		closeCommand(env),

		// Navigation
		navigateCommand(env),
		backCommand(env),
		forwardCommand(env),
		reloadCommand(env),
		getURLCommand(env),
		getTitleCommand(env),

		// Interaction
		clickCommand(env),
		hoverCommand(env),
		fillCommand(env),
		typeCommand(env),
		selectCommand(env),
		checkCommand(env),
		uncheckCommand(env),
		pressCommand(env),
		scrollCommand(env),

		// Inspection
		snapshotCommand(env),
		screenshotCommand(env),
		pdfCommand(env),
		extractContentCommand(env),
		getTextCommand(env),
		getAttributeCommand(env),
		evaluateCommand(env),

		// Waiting
		waitForSelectorCommand(env),
		waitForURLCommand(env),
		waitCommand(env),

		// Tabs
		newTabCommand(env),
		switchTabCommand(env),
		listTabsCommand(env),
		closeTabCommand(env),

		// Raw input
		injectMouseEventCommand(env),
		injectKeyboardEventCommand(env),
	}

	r.byName = make(map[string]tools.Tool, len(r.commands))
	for _, c := range r.commands {
		r.byName[c.Name()] = c
	}
	return r
}

// Tools returns the enabled commands in registration order.
func (r *Registry) Tools() []tools.Tool {
	out := make([]tools.Tool, 0, len(r.commands))
	for _, c := range r.commands {
		if r.enabled(c.Name()) {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the named command, enabled or not.
func (r *Registry) Lookup(name string) (tools.Tool, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Dispatch runs the named command with its XML arguments and returns its
// result envelope. Commands never run concurrently.
func (r *Registry) Dispatch(ctx context.Context, name string, argumentsXML []byte) *tools.Result {
	c, ok := r.byName[name]
	if !ok {
		return failure(name, browser.Errorf(browser.KindValidation, "unknown command %q", name))
	}
	if !r.enabled(name) {
		return failure(name, browser.Errorf(browser.KindPolicy, "command %q is disabled by configuration", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return c.Execute(ctx, argumentsXML)
}

// DispatchCall runs a parsed tool call.
func (r *Registry) DispatchCall(ctx context.Context, call *tools.ToolCall) *tools.Result {
	if err := tools.ValidateToolCall(call); err != nil {
		return failure("dispatch", browser.Errorf(browser.KindValidation, "%v", err))
	}
	if call.ServerName != ServerName {
		return failure(call.ToolName, browser.Errorf(browser.KindValidation, "unknown server %q (want %q)", call.ServerName, ServerName))
	}
	return r.Dispatch(ctx, call.ToolName, call.GetArgumentsXML())
}

// Sessions returns the session manager the commands share.
func (r *Registry) Sessions() *browser.Manager {
	return r.env.Sessions
}

// Shutdown closes the browser session and stops the driver. It waits for a
// running command to finish.
func (r *Registry) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.env.Sessions.Shutdown()
}
