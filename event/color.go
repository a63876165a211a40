package event

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
)

// TerminalColor names one of the dynamic colors reported by OSC 10, 11 and 12.
type TerminalColor uint8

const (
	Foreground TerminalColor = iota
	Background
	Cursor
)

func (c TerminalColor) String() string {
	switch c {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	case Cursor:
		return "cursor"
	default:
		return fmt.Sprintf("TerminalColor(%d)", uint8(c))
	}
}

// PaletteColorEvent reports one entry of the 256 color palette (OSC 4).
// Value is the color spec exactly as sent, e.g. "rgb:ffff/0000/0000".
type PaletteColorEvent struct {
	Index int
	Value string
}

func (PaletteColorEvent) event() {}

// Color decodes Value, returning nil when it is not a valid X11 color spec.
func (e PaletteColorEvent) Color() color.Color {
	return ansi.XParseColor(e.Value)
}

func (e PaletteColorEvent) String() string {
	return fmt.Sprintf("PaletteColor(%d, %s)", e.Index, describeColor(e.Value))
}

// TerminalColorEvent reports the foreground, background or cursor color.
type TerminalColorEvent struct {
	Which TerminalColor
	Value string
}

func (TerminalColorEvent) event() {}

// Color decodes Value, returning nil when it is not a valid X11 color spec.
func (e TerminalColorEvent) Color() color.Color {
	return ansi.XParseColor(e.Value)
}

func (e TerminalColorEvent) String() string {
	return fmt.Sprintf("TerminalColor(%s, %s)", e.Which, describeColor(e.Value))
}

// Hex formats c as "#rrggbb". It returns "" for nil or fully transparent colors.
func Hex(c color.Color) string {
	if c == nil {
		return ""
	}
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return ""
	}
	return cf.Hex()
}

func describeColor(spec string) string {
	if h := Hex(ansi.XParseColor(spec)); h != "" {
		return h
	}
	return fmt.Sprintf("%q", spec)
}
