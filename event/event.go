// Package event defines the typed events decoded from a terminal's input stream.
// Every value produced by the input parser implements Event; the set of
// implementations is closed and each one is an immutable value.
package event

import (
	"encoding/hex"
	"fmt"
)

// Event is a decoded unit of terminal input.
type Event interface {
	fmt.Stringer
	event()
}

// UnknownEvent carries bytes which matched no recognized sequence, or which
// matched a sequence family but failed to validate. Bytes is owned by the event.
type UnknownEvent struct {
	Bytes []byte
}

func (UnknownEvent) event() {}

func (e UnknownEvent) String() string {
	return "Unknown(" + hex.EncodeToString(e.Bytes) + ")"
}

// DebugEvent follows another event when debug events are enabled and records
// the exact bytes which produced it.
type DebugEvent struct {
	Event Event
	Bytes []byte
}

func (DebugEvent) event() {}

func (e DebugEvent) String() string {
	return fmt.Sprintf("Debug(%v, %s)", e.Event, hex.EncodeToString(e.Bytes))
}

// Kind returns a short, stable label for the concrete type of ev. It is
// suitable for metric labels and log fields.
func Kind(ev Event) string {
	switch ev.(type) {
	case KeyboardEvent:
		return "keyboard"
	case MouseEvent:
		return "mouse"
	case FocusEvent:
		return "focus"
	case ResizeEvent:
		return "resize"
	case BracketedPasteEvent:
		return "bracketed_paste"
	case KittyKeyboardQueryEvent:
		return "kitty_keyboard_query"
	case DecModeReportEvent:
		return "dec_mode_report"
	case PrimaryDeviceAttributesEvent:
		return "primary_device_attributes"
	case TertiaryDeviceAttributesEvent:
		return "tertiary_device_attributes"
	case OperatingStatusResponseEvent:
		return "operating_status"
	case DeviceStatusReportEvent:
		return "device_status_report"
	case SystemThemeEvent:
		return "system_theme"
	case PaletteColorEvent:
		return "palette_color"
	case TerminalColorEvent:
		return "terminal_color"
	case TerminalVersionEvent:
		return "terminal_version"
	case CapabilityQueryEvent:
		return "capability_query"
	case KittyGraphicsEvent:
		return "kitty_graphics"
	case KittyPointerQuerySupportEvent, KittyPointerQueryNameEvent:
		return "kitty_pointer_query"
	case KittyNotificationEvent:
		return "kitty_notification"
	case DebugEvent:
		return "debug"
	case UnknownEvent:
		return "unknown"
	default:
		return "other"
	}
}
