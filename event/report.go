package event

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// FocusEvent reports the terminal window gaining or losing focus (mode 1004).
type FocusEvent struct {
	Focused bool
}

func (FocusEvent) event() {}

func (e FocusEvent) String() string {
	if e.Focused {
		return "FocusIn"
	}
	return "FocusOut"
}

// ResizeEvent reports the terminal size in cells and pixels. Pixel values are
// 0 when the reporter does not know them.
type ResizeEvent struct {
	Rows        int
	Cols        int
	PixelHeight int
	PixelWidth  int
}

func (ResizeEvent) event() {}

func (e ResizeEvent) String() string {
	return fmt.Sprintf("Resize(%dx%d, %dx%dpx)", e.Cols, e.Rows, e.PixelWidth, e.PixelHeight)
}

// BracketedPasteEvent marks the start or end of pasted text (mode 2004).
type BracketedPasteEvent struct {
	Start bool
}

func (BracketedPasteEvent) event() {}

func (e BracketedPasteEvent) String() string {
	if e.Start {
		return "PasteStart"
	}
	return "PasteEnd"
}

// KittyKeyboardQueryEvent is the response to a Kitty progressive enhancement
// flags query. Bits the accessors do not know about are kept but ignored.
type KittyKeyboardQueryEvent struct {
	Flags int
}

func (KittyKeyboardQueryEvent) event() {}

func (e KittyKeyboardQueryEvent) DisambiguateEscapeCodes() bool {
	return e.Flags&ansi.KittyDisambiguateEscapeCodes != 0
}

func (e KittyKeyboardQueryEvent) ReportEventTypes() bool {
	return e.Flags&ansi.KittyReportEventTypes != 0
}

func (e KittyKeyboardQueryEvent) ReportAlternateKeys() bool {
	return e.Flags&ansi.KittyReportAlternateKeys != 0
}

func (e KittyKeyboardQueryEvent) ReportAllKeysAsEscapeCodes() bool {
	return e.Flags&ansi.KittyReportAllKeysAsEscapeCodes != 0
}

func (e KittyKeyboardQueryEvent) ReportAssociatedText() bool {
	return e.Flags&ansi.KittyReportAssociatedKeys != 0
}

func (e KittyKeyboardQueryEvent) String() string {
	return fmt.Sprintf("KittyKeyboardQuery(flags=%d)", e.Flags)
}

// DecModeReportEvent is a DECRPM response to a DEC private mode query.
type DecModeReportEvent struct {
	Mode    int
	Setting ansi.ModeSetting
}

func (DecModeReportEvent) event() {}

func settingName(s ansi.ModeSetting) string {
	switch s {
	case ansi.ModeNotRecognized:
		return "not recognized"
	case ansi.ModeSet:
		return "set"
	case ansi.ModeReset:
		return "reset"
	case ansi.ModePermanentlySet:
		return "permanently set"
	case ansi.ModePermanentlyReset:
		return "permanently reset"
	default:
		return fmt.Sprintf("setting %d", s)
	}
}

func (e DecModeReportEvent) String() string {
	return fmt.Sprintf("DecModeReport(%d, %s)", e.Mode, settingName(e.Setting))
}

// PrimaryDeviceAttributesEvent is a DA1 response. Data holds the attribute
// list following the first parameter, unparsed.
type PrimaryDeviceAttributesEvent struct {
	ID   int
	Data string
}

func (PrimaryDeviceAttributesEvent) event() {}

func (e PrimaryDeviceAttributesEvent) String() string {
	return fmt.Sprintf("PrimaryDeviceAttributes(%d, %q)", e.ID, e.Data)
}

// TertiaryDeviceAttributesEvent is a DA3 response.
type TertiaryDeviceAttributesEvent struct {
	ManufacturingSite int
	TerminalID        int
}

func (TertiaryDeviceAttributesEvent) event() {}

func (e TertiaryDeviceAttributesEvent) String() string {
	return fmt.Sprintf("TertiaryDeviceAttributes(%02X, %06X)", e.ManufacturingSite, e.TerminalID)
}

// OperatingStatusResponseEvent answers a DSR 5 status request.
type OperatingStatusResponseEvent struct {
	OK bool
}

func (OperatingStatusResponseEvent) event() {}

func (e OperatingStatusResponseEvent) String() string {
	return fmt.Sprintf("OperatingStatus(ok=%t)", e.OK)
}

// DeviceStatusReportEvent is a DEC private device status report this package
// does not otherwise interpret. Data is the parameter text after the '?'.
type DeviceStatusReportEvent struct {
	Data string
}

func (DeviceStatusReportEvent) event() {}

func (e DeviceStatusReportEvent) String() string {
	return fmt.Sprintf("DeviceStatusReport(%q)", e.Data)
}

// SystemThemeEvent reports the color scheme preference (mode 2031).
type SystemThemeEvent struct {
	Dark bool
}

func (SystemThemeEvent) event() {}

func (e SystemThemeEvent) String() string {
	if e.Dark {
		return "SystemTheme(dark)"
	}
	return "SystemTheme(light)"
}

// TerminalVersionEvent is an XTVERSION response.
type TerminalVersionEvent struct {
	Version string
}

func (TerminalVersionEvent) event() {}

func (e TerminalVersionEvent) String() string {
	return fmt.Sprintf("TerminalVersion(%q)", e.Version)
}

// CapabilityQueryEvent is an XTGETTCAP response. Entries maps each decoded
// capability name to its decoded value, or to nil when none was sent.
type CapabilityQueryEvent struct {
	Success bool
	Entries map[string]*string
}

func (CapabilityQueryEvent) event() {}

func (e CapabilityQueryEvent) String() string {
	keys := make([]string, 0, len(e.Entries))
	for k := range e.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := e.Entries[k]; v != nil {
			parts = append(parts, fmt.Sprintf("%s=%q", k, *v))
		} else {
			parts = append(parts, k)
		}
	}
	return fmt.Sprintf("CapabilityQuery(success=%t, %s)", e.Success, strings.Join(parts, " "))
}

// KittyGraphicsEvent is a Kitty graphics protocol response.
type KittyGraphicsEvent struct {
	ID      int
	Message string
}

func (KittyGraphicsEvent) event() {}

func (e KittyGraphicsEvent) String() string {
	return fmt.Sprintf("KittyGraphics(%d, %q)", e.ID, e.Message)
}

// KittyPointerQuerySupportEvent answers a pointer shape support query with one
// entry per queried shape.
type KittyPointerQuerySupportEvent struct {
	Supported []bool
}

func (KittyPointerQuerySupportEvent) event() {}

func (e KittyPointerQuerySupportEvent) String() string {
	return fmt.Sprintf("KittyPointerQuerySupport(%v)", e.Supported)
}

// KittyPointerQueryNameEvent answers a current pointer shape query.
type KittyPointerQueryNameEvent struct {
	Name string
}

func (KittyPointerQueryNameEvent) event() {}

func (e KittyPointerQueryNameEvent) String() string {
	return fmt.Sprintf("KittyPointerQueryName(%q)", e.Name)
}

// KittyNotificationEvent is an OSC 99 desktop notification report. Raw
// includes the leading "99;".
type KittyNotificationEvent struct {
	Raw string
}

func (KittyNotificationEvent) event() {}

func (e KittyNotificationEvent) String() string {
	return fmt.Sprintf("KittyNotification(%q)", e.Raw)
}
