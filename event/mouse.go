package event

import "fmt"

// MouseType is the kind of mouse action reported.
type MouseType uint8

const (
	MousePress MouseType = iota
	MouseRelease
	MouseDrag
	MouseMotion
)

func (t MouseType) String() string {
	switch t {
	case MousePress:
		return "Press"
	case MouseRelease:
		return "Release"
	case MouseDrag:
		return "Drag"
	case MouseMotion:
		return "Motion"
	default:
		return fmt.Sprintf("MouseType(%d)", uint8(t))
	}
}

// MouseButton identifies the button involved in a mouse action.
type MouseButton uint8

const (
	ButtonLeft MouseButton = iota
	ButtonMiddle
	ButtonRight
	ButtonNone
	ButtonWheelUp
	ButtonWheelDown
	Button8
	Button9
	Button10
	Button11
)

func (b MouseButton) String() string {
	switch b {
	case ButtonLeft:
		return "Left"
	case ButtonMiddle:
		return "Middle"
	case ButtonRight:
		return "Right"
	case ButtonNone:
		return ""
	case ButtonWheelUp:
		return "WheelUp"
	case ButtonWheelDown:
		return "WheelDown"
	case Button8:
		return "Button8"
	case Button9:
		return "Button9"
	case Button10:
		return "Button10"
	case Button11:
		return "Button11"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// MouseEvent is a mouse report. X and Y are zero-based cell coordinates.
type MouseEvent struct {
	X      int
	Y      int
	Type   MouseType
	Button MouseButton
	Shift  bool
	Alt    bool
	Ctrl   bool
}

func (MouseEvent) event() {}

// String renders the action with its position, e.g. "C-MouseLeftDrag@4,10".
func (e MouseEvent) String() string {
	prefix := ""
	if e.Shift {
		prefix += "S-"
	}
	if e.Alt {
		prefix += "M-"
	}
	if e.Ctrl {
		prefix += "C-"
	}
	return fmt.Sprintf("%sMouse%s%s@%d,%d", prefix, e.Button, e.Type, e.X, e.Y)
}
