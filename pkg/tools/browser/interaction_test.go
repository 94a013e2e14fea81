package browser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/browsercmd/pkg/browser"
	"github.com/entrhq/browsercmd/pkg/browser/browsertest"
)

const loginAria = `- heading "Sign in" [level=1]
- textbox "Email"
- checkbox "Remember me"
- button "Sign in"`

func loginPage(p *browsertest.Page) {
	p.Titles["https://example.com/login"] = "Login"
	p.Aria = loginAria
	p.Elements["#broken"] = &browsertest.Element{Err: errors.New("element is not enabled")}
	p.Elements["#slow"] = &browsertest.Element{Err: fmt.Errorf("%w: Timeout 30000ms exceeded.", playwright.ErrTimeout)}
	p.Elements["#never"] = &browsertest.Element{Missing: true}
}

func TestElementCommands(t *testing.T) {
	tests := []struct {
		command string
		args    map[string]interface{}
		action  string
	}{
		{"click", map[string]interface{}{"selector": "#a"}, "click #a button=left count=1"},
		{"click", map[string]interface{}{"selector": "#a", "button": "right", "clickCount": 2}, "click #a button=right count=2"},
		{"hover", map[string]interface{}{"selector": "#a"}, "hover #a"},
		{"fill", map[string]interface{}{"selector": "#a", "text": "hello"}, `fill #a "hello"`},
		{"fill", map[string]interface{}{"selector": "#a"}, `fill #a ""`},
		{"type", map[string]interface{}{"selector": "#a", "text": "hi", "delay": 10}, `type #a "hi" delay=10`},
		{"select", map[string]interface{}{"selector": "#a", "values": []string{"red", "blue"}}, "select #a red,blue"},
		{"check", map[string]interface{}{"selector": "#a"}, "check #a"},
		{"uncheck", map[string]interface{}{"selector": "#a"}, "uncheck #a"},
		{"press", map[string]interface{}{"key": "Enter", "selector": "#a"}, "press #a Enter"},
		{"press", map[string]interface{}{"key": "Tab"}, "keyboard.press Tab"},
		{"scroll", map[string]interface{}{"selector": "#a"}, "scrollIntoView #a"},
		{"scroll", map[string]interface{}{"y": 300}, "mouse.wheel 0 300"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			h := newHarness(t, loginPage)
			h.ok("navigate", map[string]interface{}{"url": "https://example.com/login"})

			res := h.ok(tt.command, tt.args)
			assert.Equal(t, tt.action, lastAction(t, h.page(0)))
			assert.Equal(t, "https://example.com/login", res.Metadata["url"], "page actions report the current URL")
			assert.Contains(t, res.Text(), "URL: https://example.com/login")
		})
	}
}

func TestSelectReportsSelection(t *testing.T) {
	h := newHarness(t, nil)

	res := h.ok("select", map[string]interface{}{"selector": "#color", "values": []string{"red"}})
	assert.Contains(t, res.Text(), "Selected red in #color")
	assert.Equal(t, []string{"red"}, res.Metadata["selected"])
}

func TestElementCommandErrors(t *testing.T) {
	h := newHarness(t, loginPage)

	res := h.fail("click", map[string]interface{}{"selector": "#broken"}, browser.KindDriver)
	assert.Equal(t, "click failed [driver]: element is not enabled", res.Text())

	res = h.fail("fill", map[string]interface{}{"selector": "#slow", "text": "x"}, browser.KindTimeout)
	assert.Contains(t, res.Text(), "Timeout 30000ms exceeded")

	res = h.fail("click", map[string]interface{}{"selector": "e1"}, browser.KindUnknownRef)
	assert.Contains(t, res.Text(), "no snapshot has been taken")
}

// The agent flow: snapshot, act on references, navigate, and find the old
// references expired until the next snapshot.
func TestSnapshotReferencesLifecycle(t *testing.T) {
	h := newHarness(t, loginPage)
	h.ok("navigate", map[string]interface{}{"url": "https://example.com/login"})

	res := h.ok("snapshot", map[string]interface{}{"interactive": true})
	assert.Contains(t, res.Text(), "Snapshot #1, 3 references")
	assert.Contains(t, res.Text(), `- textbox "Email" [ref=e1]`)
	assert.Contains(t, res.Text(), `- button "Sign in" [ref=e3]`)
	assert.Equal(t, 1, res.Metadata["generation"])

	h.ok("fill", map[string]interface{}{"selector": "@e1", "text": "ada@example.com"})
	assert.Equal(t, `fill role=textbox[name="Email"] >> nth=0 "ada@example.com"`, lastAction(t, h.page(0)))

	h.ok("check", map[string]interface{}{"selector": "ref=e2"})
	assert.Equal(t, `check role=checkbox[name="Remember me"] >> nth=0`, lastAction(t, h.page(0)))

	h.ok("click", map[string]interface{}{"selector": "e3#1"})
	assert.Equal(t, `click role=button[name="Sign in"] >> nth=0 button=left count=1`, lastAction(t, h.page(0)))

	h.fail("click", map[string]interface{}{"selector": "e9"}, browser.KindUnknownRef)

	h.page(0).Navigate("https://example.com/home")
	res = h.fail("click", map[string]interface{}{"selector": "e3"}, browser.KindUnknownRef)
	assert.Contains(t, res.Text(), "take a new snapshot")

	res = h.ok("snapshot", map[string]interface{}{"interactive": true})
	assert.Contains(t, res.Text(), "Snapshot #2")
	h.ok("click", map[string]interface{}{"selector": "e3"})

	res = h.fail("click", map[string]interface{}{"selector": "e3#1"}, browser.KindUnknownRef)
	assert.Contains(t, res.Text(), "stale")
}

func TestSnapshotIsDeterministic(t *testing.T) {
	h := newHarness(t, loginPage)

	first := h.ok("snapshot", nil).Text()
	second := h.ok("snapshot", nil)
	assert.Equal(t,
		snapshotBody(first),
		snapshotBody(second.Text()),
		"an unchanged page yields the same tokens in the same order")
	assert.Empty(t, second.Metadata["retargeted"])
	assert.NotContains(t, second.Text(), "different elements")
}

// snapshotBody drops the header of a snapshot result.
func snapshotBody(text string) string {
	if i := strings.Index(text, "\n\n"); i >= 0 {
		return text[i:]
	}
	return text
}

// A bare token follows the latest snapshot, so a re-snapshot after the DOM
// changed can move it to another element. The snapshot says which tokens
// moved and a pinned token refuses to follow.
func TestResnapshotAfterDOMChange(t *testing.T) {
	h := newHarness(t, loginPage)
	h.ok("navigate", map[string]interface{}{"url": "https://example.com/login"})

	res := h.ok("snapshot", map[string]interface{}{"interactive": true})
	assert.Contains(t, res.Text(), "Snapshot #1, 3 references (pin as e<N>#1, e.g. e1#1)")
	assert.Contains(t, res.Text(), `- button "Sign in" [ref=e3]`)

	// a script inserts a button ahead of the form without navigating
	h.page(0).Aria = `- button "Accept cookies"
- textbox "Email"
- checkbox "Remember me"
- button "Sign in"`

	res = h.ok("snapshot", map[string]interface{}{"interactive": true})
	assert.Contains(t, res.Text(), "Snapshot #2, 4 references")
	assert.Contains(t, res.Text(), "Now pointing at different elements than in snapshot #1: e1, e2, e3")
	assert.Equal(t, []string{"e1", "e2", "e3"}, res.Metadata["retargeted"])
	assert.Contains(t, res.Text(), `- checkbox "Remember me" [ref=e3]`)

	res = h.fail("click", map[string]interface{}{"selector": "e3#1"}, browser.KindUnknownRef)
	assert.Contains(t, res.Text(), "reference e3#1 is stale: current snapshot is #2")
	assert.NotContains(t, h.page(0).Actions(), `click role=button[name="Sign in"] >> nth=0 button=left count=1`)

	h.ok("click", map[string]interface{}{"selector": "e4#2"})
	assert.Equal(t, `click role=button[name="Sign in"] >> nth=0 button=left count=1`, lastAction(t, h.page(0)))

	h.ok("click", map[string]interface{}{"selector": "e3"})
	assert.Equal(t, `click role=checkbox[name="Remember me"] >> nth=0 button=left count=1`, lastAction(t, h.page(0)),
		"a bare token names the element of the latest snapshot")
}

func TestWaitForSelector(t *testing.T) {
	h := newHarness(t, loginPage)

	res := h.ok("waitForSelector", map[string]interface{}{"selector": "#ready"})
	assert.Equal(t, "#ready is visible", res.Text())

	res = h.ok("waitForSelector", map[string]interface{}{"selector": "#ready", "state": "attached"})
	assert.Equal(t, "#ready is attached", res.Text())

	start := time.Now()
	res = h.fail("waitForSelector", map[string]interface{}{"selector": "#never", "timeout": 50}, browser.KindTimeout)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second, "a timed out wait returns promptly")
	assert.Contains(t, res.Text(), "Timeout 50ms exceeded")

	assert.True(t, h.env.Sessions.IsLive(), "a timeout does not close the session")
	h.ok("getUrl", nil)
}

func TestWait(t *testing.T) {
	h := newHarness(t, nil)

	res := h.ok("wait", map[string]interface{}{"ms": 5})
	assert.Equal(t, "Waited 5 ms", res.Text())
	h.ok("wait", map[string]interface{}{"ms": 0})
}

func TestInjectEvents(t *testing.T) {
	h := newHarness(t, nil)

	res := h.ok("injectMouseEvent", map[string]interface{}{"type": "mousePressed", "x": 10, "y": 20})
	assert.Contains(t, res.Text(), "Dispatched mousePressed at (10, 20)")

	cdp := h.driver.last().CDP
	require.Len(t, cdp.Calls, 1)
	assert.Equal(t, "Input.dispatchMouseEvent", cdp.Calls[0].Method)
	assert.Equal(t, "left", cdp.Calls[0].Params["button"])
	assert.EqualValues(t, 10, cdp.Calls[0].Params["x"])

	h.ok("injectKeyboardEvent", map[string]interface{}{"type": "keyDown", "key": "Enter"})
	require.Len(t, cdp.Calls, 2)
	assert.Equal(t, "Input.dispatchKeyEvent", cdp.Calls[1].Method)
	assert.Equal(t, "Enter", cdp.Calls[1].Params["key"])

	// the origin is a valid position, only missing coordinates are rejected
	res = h.ok("injectMouseEvent", map[string]interface{}{"type": "mouseMoved", "x": 0, "y": 0})
	assert.Contains(t, res.Text(), "Dispatched mouseMoved at (0, 0)")
	require.Len(t, cdp.Calls, 3)
	assert.EqualValues(t, 0, cdp.Calls[2].Params["x"])

	cdp.SendErr = errors.New("Target closed")
	res = h.fail("injectKeyboardEvent", map[string]interface{}{"type": "keyUp", "key": "a"}, browser.KindDriver)
	assert.Contains(t, res.Text(), "Target closed")
}
