package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchMouse(t *testing.T) {
	m, d := newTestManager()
	s, err := m.Ensure(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.DispatchMouse(MouseEvent{Type: "mousePressed", X: 10, Y: 20}))
	require.NoError(t, s.DispatchMouse(MouseEvent{Type: "move", X: 30, Y: 40}))
	require.NoError(t, s.DispatchMouse(MouseEvent{Type: "mouseWheel", X: 1, Y: 1, DeltaY: 120}))

	cdp := d.last().CDP
	require.Len(t, cdp.Calls, 3)
	assert.Equal(t, 3, cdp.Opened)
	assert.Equal(t, 3, cdp.Detached)

	press := cdp.Calls[0]
	assert.Equal(t, "Input.dispatchMouseEvent", press.Method)
	assert.Equal(t, "mousePressed", press.Params["type"])
	assert.Equal(t, 10.0, press.Params["x"])
	assert.Equal(t, 20.0, press.Params["y"])
	assert.Equal(t, "left", press.Params["button"])
	assert.Equal(t, 1.0, press.Params["clickCount"])

	move := cdp.Calls[1]
	assert.Equal(t, "mouseMoved", move.Params["type"])
	assert.Equal(t, "none", move.Params["button"])
	assert.NotContains(t, move.Params, "clickCount")

	wheel := cdp.Calls[2]
	assert.Equal(t, "mouseWheel", wheel.Params["type"])
	assert.Equal(t, 120.0, wheel.Params["deltaY"])
}

func TestDispatchKey(t *testing.T) {
	m, d := newTestManager()
	s, err := m.Ensure(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.DispatchKey(KeyEvent{Type: "keyDown", Key: "Enter", Code: "Enter"}))
	require.NoError(t, s.DispatchKey(KeyEvent{Type: "keyDown", Key: "a"}))
	require.NoError(t, s.DispatchKey(KeyEvent{Type: "keyUp", Key: "a"}))

	calls := d.last().CDP.Calls
	require.Len(t, calls, 3)

	enter := calls[0]
	assert.Equal(t, "Input.dispatchKeyEvent", enter.Method)
	assert.Equal(t, "keyDown", enter.Params["type"])
	assert.Equal(t, "Enter", enter.Params["key"])
	assert.Equal(t, "Enter", enter.Params["code"])
	assert.Equal(t, 13.0, enter.Params["windowsVirtualKeyCode"])
	assert.NotContains(t, enter.Params, "text")

	a := calls[1]
	assert.Equal(t, "a", a.Params["text"])
	assert.Equal(t, 65.0, a.Params["windowsVirtualKeyCode"])

	up := calls[2]
	assert.Equal(t, "keyUp", up.Params["type"])
	assert.NotContains(t, up.Params, "text")
}

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"bad mouse type", MouseEvent{Type: "click"}.Validate()},
		{"bad button", MouseEvent{Type: "mousePressed", Button: "thumb"}.Validate()},
		{"click count", MouseEvent{Type: "mousePressed", ClickCount: 4}.Validate()},
		{"negative coordinates", MouseEvent{Type: "mouseMoved", X: -1}.Validate()},
		{"bad key type", KeyEvent{Type: "press", Key: "a"}.Validate()},
		{"no key identity", KeyEvent{Type: "keyDown"}.Validate()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, ErrValidation)
		})
	}
}

func TestDispatchFailures(t *testing.T) {
	m, d := newTestManager()
	s, err := m.Ensure(context.Background())
	require.NoError(t, err)

	d.last().CDP.SendErr = errors.New("Target closed")
	err = s.DispatchKey(KeyEvent{Type: "keyDown", Key: "a"})
	require.Error(t, err)
	assert.Equal(t, KindDriver, KindOf(err))

	err = s.DispatchMouse(MouseEvent{Type: "bogus"})
	assert.ErrorIs(t, err, ErrValidation)
}
