package browser

import (
	"context"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

type mouseEventArgs struct {
	Type       string   `xml:"type"`
	X          *float64 `xml:"x"`
	Y          *float64 `xml:"y"`
	Button     string   `xml:"button"`
	ClickCount int      `xml:"clickCount"`
	DeltaX     float64  `xml:"deltaX"`
	DeltaY     float64  `xml:"deltaY"`
}

// event must only be called after validate.
func (a *mouseEventArgs) event() browser.MouseEvent {
	return browser.MouseEvent{
		Type:       a.Type,
		X:          *a.X,
		Y:          *a.Y,
		Button:     a.Button,
		ClickCount: a.ClickCount,
		DeltaX:     a.DeltaX,
		DeltaY:     a.DeltaY,
	}
}

func (a *mouseEventArgs) validate() error {
	if a.X == nil {
		return browser.Errorf(browser.KindValidation, "x is required")
	}
	if a.Y == nil {
		return browser.Errorf(browser.KindValidation, "y is required")
	}
	return a.event().Validate()
}

func injectMouseEventCommand(env *Env) tools.Tool {
	return define(env, "injectMouseEvent",
		`Dispatch a raw mouse event at viewport coordinates, bypassing element targeting. Use it for canvas, maps
and custom widgets that ignore click. A click is a mousePressed followed by a mouseReleased.`,
		tools.BaseToolSchema(map[string]interface{}{
			"type":       prop("string", "'mousePressed', 'mouseReleased', 'mouseMoved' or 'mouseWheel'"),
			"x":          prop("number", "X coordinate in CSS pixels"),
			"y":          prop("number", "Y coordinate in CSS pixels"),
			"button":     prop("string", "'left', 'middle', 'right', 'back', 'forward' or 'none'. Default: left for press/release"),
			"clickCount": prop("integer", "Click count for press/release. Default: 1"),
			"deltaX":     prop("number", "Horizontal wheel delta (mouseWheel)"),
			"deltaY":     prop("number", "Vertical wheel delta (mouseWheel)"),
		}, []string{"type", "x", "y"}),
		func(ctx context.Context, s *browser.Session, args *mouseEventArgs) (*tools.Result, error) {
			if err := s.DispatchMouse(args.event()); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Dispatched %s at (%g, %g)", args.Type, *args.X, *args.Y), nil
		})
}

type keyEventArgs struct {
	Type string `xml:"type"`
	Key  string `xml:"key"`
	Code string `xml:"code"`
	Text string `xml:"text"`
}

func (a *keyEventArgs) event() browser.KeyEvent {
	return browser.KeyEvent{Type: a.Type, Key: a.Key, Code: a.Code, Text: a.Text}
}

func (a *keyEventArgs) validate() error {
	return a.event().Validate()
}

func injectKeyboardEventCommand(env *Env) tools.Tool {
	return define(env, "injectKeyboardEvent",
		"Dispatch a raw keyboard event to the focused element, bypassing element targeting. A key press is a keyDown followed by a keyUp.",
		tools.BaseToolSchema(map[string]interface{}{
			"type": prop("string", "'keyDown', 'keyUp', 'rawKeyDown' or 'char'"),
			"key":  prop("string", "DOM key value, e.g. 'a', 'Enter', 'ArrowLeft'"),
			"code": prop("string", "DOM code value, e.g. 'KeyA', 'Enter'"),
			"text": prop("string", "Text the event inserts. Default: the key itself for printable keys"),
		}, []string{"type"}),
		func(ctx context.Context, s *browser.Session, args *keyEventArgs) (*tools.Result, error) {
			if err := s.DispatchKey(args.event()); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			what := args.Key
			if what == "" {
				what = args.Code
			}
			if what == "" {
				what = args.Text
			}
			return pageResult(page, "Dispatched %s %s", args.Type, what), nil
		})
}
