package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// GrabServer stops the server from processing other clients until
// UngrabServer. Requests redirected to the window manager wait until then.
func (c *Connection) GrabServer() error {
	if err := xproto.GrabServerChecked(c.XUtil.Conn()).Check(); err != nil {
		return fmt.Errorf("grab server: %w", err)
	}
	return nil
}

// UngrabServer releases a grab taken with GrabServer.
func (c *Connection) UngrabServer() error {
	if err := xproto.UngrabServerChecked(c.XUtil.Conn()).Check(); err != nil {
		return fmt.Errorf("ungrab server: %w", err)
	}
	return nil
}

// SupportsMoveresize reports whether the running window manager advertises
// _NET_MOVERESIZE_WINDOW. It is false when no EWMH window manager runs.
func (c *Connection) SupportsMoveresize() bool {
	supported, err := ewmh.SupportedGet(c.XUtil)
	if err != nil {
		return false
	}
	for _, atom := range supported {
		if atom == "_NET_MOVERESIZE_WINDOW" {
			return true
		}
	}
	return false
}

// RequestMove asks the window manager to place the window's top-left corner
// at (x, y). The move happens when the window manager handles the message.
func (c *Connection) RequestMove(windowID xproto.Window, x, y int) error {
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		return fmt.Errorf("request move of window %d: %w", windowID, err)
	}
	return nil
}

// RequestResize asks the window manager to resize the window.
func (c *Connection) RequestResize(windowID xproto.Window, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d for window %d", width, height, windowID)
	}
	if err := ewmh.ResizeWindow(c.XUtil, windowID, width, height); err != nil {
		return fmt.Errorf("request resize of window %d: %w", windowID, err)
	}
	return nil
}

// MoveWindow configures the window position directly on the server.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	err := xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.ConfigWindowX|xproto.ConfigWindowY,
		[]uint32{uint32(int32(x)), uint32(int32(y))},
	).Check()
	if err != nil {
		return fmt.Errorf("move window %d: %w", windowID, err)
	}
	return nil
}

// ResizeWindow configures the window size directly on the server.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid size %dx%d for window %d", width, height, windowID)
	}
	err := xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		windowID,
		xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(width), uint32(height)},
	).Check()
	if err != nil {
		return fmt.Errorf("resize window %d: %w", windowID, err)
	}
	return nil
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY, which compositing managers use as
// the window alpha. alpha is clamped to [0, 1].
func (c *Connection) SetOpacity(windowID xproto.Window, alpha float64) error {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	if err := ewmh.WmWindowOpacitySet(c.XUtil, windowID, alpha); err != nil {
		return fmt.Errorf("set opacity on window %d: %w", windowID, err)
	}
	return nil
}

// MapWindow makes the window visible.
func (c *Connection) MapWindow(windowID xproto.Window) error {
	if err := xproto.MapWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return fmt.Errorf("map window %d: %w", windowID, err)
	}
	return nil
}

// UnmapWindow hides the window.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	if err := xproto.UnmapWindowChecked(c.XUtil.Conn(), windowID).Check(); err != nil {
		return fmt.Errorf("unmap window %d: %w", windowID, err)
	}
	return nil
}

// WindowExists reports whether the server still knows the window.
func (c *Connection) WindowExists(windowID xproto.Window) (bool, error) {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err == nil {
		return true, nil
	}
	var badWindow xproto.WindowError
	if errors.As(err, &badWindow) {
		return false, nil
	}
	return false, fmt.Errorf("query window %d: %w", windowID, err)
}
