package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
	"github.com/entrhq/browsercmd/pkg/logging"
	"github.com/entrhq/browsercmd/pkg/security/urlguard"
	"github.com/entrhq/browsercmd/pkg/security/workspace"
)

// Env is what commands need besides their arguments.
type Env struct {
	// Sessions owns the shared browser session
	Sessions *browser.Manager

	// URLs is the navigation policy; nil allows every URL
	URLs *urlguard.Guard

	// Workspace confines files written by screenshot and pdf; nil disables writing
	Workspace *workspace.Guard

	Logger *logging.Logger
}

func (e *Env) logger() *logging.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

// checkURL applies the navigation policy.
func (e *Env) checkURL(op, url string) error {
	if err := e.URLs.Check(url); err != nil {
		return &browser.Error{Kind: browser.KindPolicy, Op: op, Err: err}
	}
	return nil
}

// writeFile stores data inside the workspace and returns the absolute path.
func (e *Env) writeFile(op, path string, data []byte) (string, error) {
	if e.Workspace == nil {
		return "", &browser.Error{Kind: browser.KindPolicy, Op: op, Err: errors.New("writing files is disabled: no workspace configured")}
	}
	abs, err := e.Workspace.WriteFile(path, data)
	if err != nil {
		return "", &browser.Error{Kind: browser.KindPolicy, Op: op, Err: err}
	}
	return abs, nil
}

// validator is implemented by argument structs that check themselves
// before any driver call.
type validator interface {
	validate() error
}

// runFunc performs the command body. session is nil for commands that
// manage the session themselves.
type runFunc[T any] func(ctx context.Context, session *browser.Session, args *T) (*tools.Result, error)

// command adapts a typed command body to tools.Tool. It decodes and
// validates arguments, obtains the session, runs the body and converts
// every error or panic into an error Result.
type command[T any] struct {
	env         *Env
	name        string
	description string
	schema      map[string]interface{}
	sessionless bool
	run         runFunc[T]
}

func define[T any](env *Env, name, description string, schema map[string]interface{}, run runFunc[T]) *command[T] {
	return &command[T]{
		env:         env,
		name:        name,
		description: description,
		schema:      schema,
		run:         run,
	}
}

// withoutSession marks a command that must not trigger lazy session creation.
func (c *command[T]) withoutSession() *command[T] {
	c.sessionless = true
	return c
}

func (c *command[T]) Name() string {
	return c.name
}

func (c *command[T]) Description() string {
	return c.description
}

func (c *command[T]) Schema() map[string]interface{} {
	return c.schema
}

// Execute runs the command. It never returns nil and never panics.
func (c *command[T]) Execute(ctx context.Context, argumentsXML []byte) (result *tools.Result) {
	start := time.Now()
	log := c.env.logger()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("%s panicked: %v\n%s", c.name, r, debug.Stack())
			result = failure(c.name, browser.Errorf(browser.KindDriver, "internal error: %v", r))
		}
		if result.IsError {
			fields, _ := tools.XMLToMap(argumentsXML)
			log.Warnf("%s failed after %s: %s (args=%v)", c.name, time.Since(start), result.Text(), fields)
		} else {
			log.Debugf("%s done in %s", c.name, time.Since(start))
		}
	}()

	args := new(T)
	if err := decodeArgs(argumentsXML, args); err != nil {
		return failure(c.name, err)
	}
	if v, ok := any(args).(validator); ok {
		if err := v.validate(); err != nil {
			return failure(c.name, err)
		}
	}

	var session *browser.Session
	if !c.sessionless {
		var err error
		if session, err = c.env.Sessions.Ensure(ctx); err != nil {
			return failure(c.name, err)
		}
	}

	res, err := c.run(ctx, session, args)
	if err != nil {
		return failure(c.name, err)
	}
	if res == nil {
		res = tools.TextResult("%s done", c.name)
	}
	return res
}

func decodeArgs(argumentsXML []byte, v interface{}) error {
	if len(bytes.TrimSpace(argumentsXML)) == 0 {
		return nil
	}
	if err := tools.UnmarshalXMLWithFallback(argumentsXML, v); err != nil {
		return browser.Errorf(browser.KindValidation, "invalid arguments: %v", err)
	}
	return nil
}

// failure builds the error envelope: "<command> failed [<kind>]: <message>".
func failure(command string, err error) *tools.Result {
	kind := browser.KindOf(err)
	return tools.ErrorResult(string(kind), fmt.Sprintf("%s failed [%s]: %s", command, kind, reason(err)))
}

// reason is the error message without the operation prefix the envelope
// already carries.
func reason(err error) string {
	var be *browser.Error
	if errors.As(err, &be) && be.Err != nil {
		return browser.Message(be.Err)
	}
	return browser.Message(err)
}

func required(field, value string) error {
	if value == "" {
		return browser.Errorf(browser.KindValidation, "%s is required", field)
	}
	return nil
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return browser.Errorf(browser.KindValidation, "invalid %s %q (want one of %v)", field, value, allowed)
}

// prop builds one JSON schema property.
func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

// selectorProp documents the locator parameter shared by element commands.
func selectorProp(action string) map[string]interface{} {
	return prop("string", fmt.Sprintf(
		"Element to %s: a reference from the latest snapshot (e.g. 'e3', '@e3', or 'e3#2' pinned to snapshot 2) or a Playwright selector (e.g. '#submit', 'text=Sign in')",
		action))
}
