package browser

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/chromedp/cdproto/input"
)

// MouseEvent is a raw pointer event delivered through Input.dispatchMouseEvent.
type MouseEvent struct {
	Type       string // mousePressed, mouseReleased, mouseMoved, mouseWheel
	X, Y       float64
	Button     string // none, left, middle, right, back, forward
	ClickCount int
	DeltaX     float64
	DeltaY     float64
}

// KeyEvent is a raw keyboard event delivered through Input.dispatchKeyEvent.
type KeyEvent struct {
	Type string // keyDown, keyUp, rawKeyDown, char
	Key  string
	Code string
	Text string
}

var mouseTypes = map[string]input.MouseType{
	"mousePressed":  input.MouseType("mousePressed"),
	"mouseReleased": input.MouseType("mouseReleased"),
	"mouseMoved":    input.MouseType("mouseMoved"),
	"mouseWheel":    input.MouseType("mouseWheel"),
	"down":          input.MouseType("mousePressed"),
	"up":            input.MouseType("mouseReleased"),
	"move":          input.MouseType("mouseMoved"),
	"wheel":         input.MouseType("mouseWheel"),
}

var mouseButtons = map[string]bool{
	"none": true, "left": true, "middle": true, "right": true, "back": true, "forward": true,
}

var keyTypes = map[string]input.KeyType{
	"keyDown":    input.KeyType("keyDown"),
	"keyUp":      input.KeyType("keyUp"),
	"rawKeyDown": input.KeyType("rawKeyDown"),
	"char":       input.KeyType("char"),
	"down":       input.KeyType("keyDown"),
	"up":         input.KeyType("keyUp"),
}

// virtualKeyCodes maps DOM key names to Windows virtual key codes, which
// Chromium needs to run default actions for non-printable keys.
var virtualKeyCodes = map[string]int64{
	"Backspace":  8,
	"Tab":        9,
	"Enter":      13,
	"Shift":      16,
	"Control":    17,
	"Alt":        18,
	"Escape":     27,
	" ":          32,
	"PageUp":     33,
	"PageDown":   34,
	"End":        35,
	"Home":       36,
	"ArrowLeft":  37,
	"ArrowUp":    38,
	"ArrowRight": 39,
	"ArrowDown":  40,
	"Delete":     46,
}

// Validate checks the event type, button and click count.
func (e MouseEvent) Validate() error {
	if _, ok := mouseTypes[e.Type]; !ok {
		return Errorf(KindValidation, "unsupported mouse event type %q (want mousePressed, mouseReleased, mouseMoved or mouseWheel)", e.Type)
	}
	if e.Button != "" && !mouseButtons[e.Button] {
		return Errorf(KindValidation, "unsupported mouse button %q", e.Button)
	}
	if e.ClickCount < 0 || e.ClickCount > 3 {
		return Errorf(KindValidation, "clickCount must be between 0 and 3, got %d", e.ClickCount)
	}
	if e.X < 0 || e.Y < 0 {
		return Errorf(KindValidation, "coordinates must be non-negative, got (%g, %g)", e.X, e.Y)
	}
	return nil
}

func (e MouseEvent) params() *input.DispatchMouseEventParams {
	typ := mouseTypes[e.Type]
	p := input.DispatchMouseEvent(typ, e.X, e.Y)

	button := e.Button
	clickCount := e.ClickCount
	switch typ {
	case "mousePressed", "mouseReleased":
		if button == "" {
			button = "left"
		}
		if clickCount == 0 {
			clickCount = 1
		}
	case "mouseWheel":
		p = p.WithDeltaX(e.DeltaX).WithDeltaY(e.DeltaY)
	}
	if button == "" {
		button = "none"
	}

	p = p.WithButton(input.MouseButton(button))
	if clickCount > 0 {
		p = p.WithClickCount(int64(clickCount))
	}
	return p
}

// Validate checks the event type and that some key identity is present.
func (e KeyEvent) Validate() error {
	if _, ok := keyTypes[e.Type]; !ok {
		return Errorf(KindValidation, "unsupported keyboard event type %q (want keyDown, keyUp, rawKeyDown or char)", e.Type)
	}
	if e.Key == "" && e.Code == "" && e.Text == "" {
		return Errorf(KindValidation, "one of key, code or text is required")
	}
	return nil
}

func (e KeyEvent) params() *input.DispatchKeyEventParams {
	typ := keyTypes[e.Type]
	p := input.DispatchKeyEvent(typ)

	if e.Key != "" {
		p = p.WithKey(e.Key)
	}
	if e.Code != "" {
		p = p.WithCode(e.Code)
	}

	text := e.Text
	// A keyDown for a printable key inserts its character.
	if text == "" && (typ == "keyDown" || typ == "char") && utf8.RuneCountInString(e.Key) == 1 {
		text = e.Key
	}
	if text != "" && typ != "keyUp" && typ != "rawKeyDown" {
		p = p.WithText(text).WithUnmodifiedText(text)
	}

	if code, ok := virtualKeyCode(e.Key); ok {
		p = p.WithWindowsVirtualKeyCode(code).WithNativeVirtualKeyCode(code)
	}
	return p
}

func virtualKeyCode(key string) (int64, bool) {
	if code, ok := virtualKeyCodes[key]; ok {
		return code, true
	}
	if len(key) == 1 {
		c := strings.ToUpper(key)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return int64(c), true
		}
	}
	return 0, false
}

// DispatchMouse injects e into the active tab, bypassing element targeting.
func (s *Session) DispatchMouse(e MouseEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.sendInput(input.CommandDispatchMouseEvent, e.params())
}

// DispatchKey injects e into the active tab, bypassing element targeting.
func (s *Session) DispatchKey(e KeyEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return s.sendInput(input.CommandDispatchKeyEvent, e.params())
}

func (s *Session) sendInput(method string, params interface{}) error {
	page, err := s.ActivePage()
	if err != nil {
		return err
	}

	args, err := cdpParams(params)
	if err != nil {
		return wrap(method, err)
	}

	cdp, err := s.Context.NewCDPSession(page)
	if err != nil {
		return wrap(method, fmt.Errorf("failed to open CDP session: %w", err))
	}
	defer func() { _ = cdp.Detach() }()

	if _, err := cdp.Send(method, args); err != nil {
		return wrap(method, err)
	}
	return nil
}

// cdpParams converts typed protocol parameters to the generic map the
// Playwright CDP session sends.
func cdpParams(params interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CDP params: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode CDP params: %w", err)
	}
	return out, nil
}
