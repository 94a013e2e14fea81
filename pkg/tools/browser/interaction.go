package browser

import (
	"context"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/browsercmd/pkg/agent/tools"
	"github.com/entrhq/browsercmd/pkg/browser"
)

var mouseButtons = map[string]*playwright.MouseButton{
	"left":   playwright.MouseButtonLeft,
	"right":  playwright.MouseButtonRight,
	"middle": playwright.MouseButtonMiddle,
}

// target resolves selector on the active tab to its first match.
func target(s *browser.Session, selector string) (playwright.Locator, error) {
	loc, err := s.Resolve(selector)
	if err != nil {
		return nil, err
	}
	return loc.First(), nil
}

// elementArgs is shared by commands that only take a locator.
type elementArgs struct {
	Selector string `xml:"selector"`
}

func (a *elementArgs) validate() error {
	return required("selector", a.Selector)
}

// elementCommand defines a command that performs one action on an element.
func elementCommand(env *Env, name, description, verb string, act func(playwright.Locator) error) tools.Tool {
	return define(env, name, description,
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp(name),
		}, []string{"selector"}),
		func(ctx context.Context, s *browser.Session, args *elementArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			if err := act(el); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "%s %s", verb, args.Selector), nil
		})
}

type clickArgs struct {
	Selector   string `xml:"selector"`
	Button     string `xml:"button"`
	ClickCount *int   `xml:"clickCount"`
}

func (a *clickArgs) validate() error {
	if err := required("selector", a.Selector); err != nil {
		return err
	}
	if a.Button == "" {
		a.Button = "left"
	}
	if err := oneOf("button", a.Button, "left", "right", "middle"); err != nil {
		return err
	}
	if a.ClickCount != nil && (*a.ClickCount < 1 || *a.ClickCount > 3) {
		return browser.Errorf(browser.KindValidation, "clickCount must be 1, 2 or 3, got %d", *a.ClickCount)
	}
	return nil
}

func clickCommand(env *Env) tools.Tool {
	return define(env, "click",
		"Click an element. Waits for it to be visible, stable and enabled first.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector":   selectorProp("click"),
			"button":     prop("string", "'left' (default), 'right' or 'middle'"),
			"clickCount": prop("integer", "1 (default), 2 for a double click, 3 for a triple click"),
		}, []string{"selector"}),
		func(ctx context.Context, s *browser.Session, args *clickArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			count := 1
			if args.ClickCount != nil {
				count = *args.ClickCount
			}
			if err := el.Click(playwright.LocatorClickOptions{
				Button:     mouseButtons[args.Button],
				ClickCount: &count,
			}); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Clicked %s", args.Selector), nil
		})
}

func hoverCommand(env *Env) tools.Tool {
	return elementCommand(env, "hover", "Move the mouse over an element.", "Hovered",
		func(el playwright.Locator) error { return el.Hover() })
}

func checkCommand(env *Env) tools.Tool {
	return elementCommand(env, "check", "Check a checkbox or radio button. No-op if it is already checked.", "Checked",
		func(el playwright.Locator) error { return el.Check() })
}

func uncheckCommand(env *Env) tools.Tool {
	return elementCommand(env, "uncheck", "Uncheck a checkbox. No-op if it is already unchecked.", "Unchecked",
		func(el playwright.Locator) error { return el.Uncheck() })
}

type fillArgs struct {
	Selector string `xml:"selector"`
	Text     string `xml:"text"`
}

func (a *fillArgs) validate() error {
	return required("selector", a.Selector)
}

func fillCommand(env *Env) tools.Tool {
	return define(env, "fill",
		"Replace the value of an input, textarea or contenteditable element. An empty text clears it.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("fill"),
			"text":     prop("string", "Value to set"),
		}, []string{"selector", "text"}),
		func(ctx context.Context, s *browser.Session, args *fillArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			if err := el.Fill(args.Text); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Filled %s with %d characters", args.Selector, len([]rune(args.Text))), nil
		})
}

type typeArgs struct {
	Selector string   `xml:"selector"`
	Text     string   `xml:"text"`
	Delay    *float64 `xml:"delay"`
}

func (a *typeArgs) validate() error {
	if err := required("selector", a.Selector); err != nil {
		return err
	}
	if err := required("text", a.Text); err != nil {
		return err
	}
	if a.Delay != nil && (*a.Delay < 0 || *a.Delay > 1000) {
		return browser.Errorf(browser.KindValidation, "delay must be in [0, 1000] ms, got %g", *a.Delay)
	}
	return nil
}

func typeCommand(env *Env) tools.Tool {
	return define(env, "type",
		"Type text into an element key by key, firing keyboard events for every character. Use fill to set a value at once.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("type into"),
			"text":     prop("string", "Text to type"),
			"delay":    prop("number", "Milliseconds between key presses. Default: 0"),
		}, []string{"selector", "text"}),
		func(ctx context.Context, s *browser.Session, args *typeArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			if err := el.PressSequentially(args.Text, playwright.LocatorPressSequentiallyOptions{Delay: args.Delay}); err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Typed %d characters into %s", len([]rune(args.Text)), args.Selector), nil
		})
}

type selectArgs struct {
	Selector string   `xml:"selector"`
	Values   []string `xml:"values>value"`
}

func (a *selectArgs) validate() error {
	if err := required("selector", a.Selector); err != nil {
		return err
	}
	if len(a.Values) == 0 {
		return browser.Errorf(browser.KindValidation, "values must contain at least one value")
	}
	return nil
}

func selectCommand(env *Env) tools.Tool {
	return define(env, "select",
		"Select options of a <select> element by value or label. Several values select several options of a multi-select.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("select options of"),
			"values": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Option values or labels, one <value> element each",
			},
		}, []string{"selector", "values"}),
		func(ctx context.Context, s *browser.Session, args *selectArgs) (*tools.Result, error) {
			el, err := target(s, args.Selector)
			if err != nil {
				return nil, err
			}
			selected, err := el.SelectOption(playwright.SelectOptionValues{Values: &args.Values})
			if err != nil {
				return nil, err
			}
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Selected %s in %s", strings.Join(selected, ", "), args.Selector).
				WithMetadata("selected", selected), nil
		})
}

type pressArgs struct {
	Key      string `xml:"key"`
	Selector string `xml:"selector"`
}

func (a *pressArgs) validate() error {
	return required("key", a.Key)
}

func pressCommand(env *Env) tools.Tool {
	return define(env, "press",
		"Press a key or key combination, e.g. 'Enter', 'Tab', 'Control+A'. Without a selector the key goes to the focused element.",
		tools.BaseToolSchema(map[string]interface{}{
			"key":      prop("string", "Key name as understood by Playwright, e.g. 'Enter', 'ArrowDown', 'Shift+Tab'"),
			"selector": selectorProp("focus before pressing"),
		}, []string{"key"}),
		func(ctx context.Context, s *browser.Session, args *pressArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			if args.Selector == "" {
				err = page.Keyboard().Press(args.Key)
			} else {
				var el playwright.Locator
				if el, err = target(s, args.Selector); err != nil {
					return nil, err
				}
				err = el.Press(args.Key)
			}
			if err != nil {
				return nil, err
			}
			return pageResult(page, "Pressed %s", args.Key), nil
		})
}

type scrollArgs struct {
	Selector string   `xml:"selector"`
	X        *float64 `xml:"x"`
	Y        *float64 `xml:"y"`
}

func (a *scrollArgs) validate() error {
	if a.Selector == "" && a.X == nil && a.Y == nil {
		return browser.Errorf(browser.KindValidation, "either selector or x/y is required")
	}
	return nil
}

func scrollCommand(env *Env) tools.Tool {
	return define(env, "scroll",
		"Scroll an element into view, or scroll the page by x/y pixels with the mouse wheel.",
		tools.BaseToolSchema(map[string]interface{}{
			"selector": selectorProp("scroll into view"),
			"x":        prop("number", "Horizontal scroll delta in pixels (used without selector)"),
			"y":        prop("number", "Vertical scroll delta in pixels, positive scrolls down (used without selector)"),
		}, nil),
		func(ctx context.Context, s *browser.Session, args *scrollArgs) (*tools.Result, error) {
			page, err := s.ActivePage()
			if err != nil {
				return nil, err
			}
			if args.Selector != "" {
				el, err := target(s, args.Selector)
				if err != nil {
					return nil, err
				}
				if err := el.ScrollIntoViewIfNeeded(); err != nil {
					return nil, err
				}
				return pageResult(page, "Scrolled %s into view", args.Selector), nil
			}

			var dx, dy float64
			if args.X != nil {
				dx = *args.X
			}
			if args.Y != nil {
				dy = *args.Y
			}
			if err := page.Mouse().Wheel(dx, dy); err != nil {
				return nil, err
			}
			return pageResult(page, "Scrolled by (%g, %g)", dx, dy), nil
		})
}
