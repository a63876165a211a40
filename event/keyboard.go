package event

import (
	"strconv"
	"strings"
)

// Modifiers is a bitset of the modifier keys held during a key press.
// The bit values match the Kitty keyboard protocol, which also describes the
// legacy xterm "1;<mod>" encoding once the wire value has been decremented.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
	ModSuper
	ModHyper
	ModMeta
	ModCapsLock
	ModNumLock
)

// Has reports whether all bits of m2 are set in m.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// EventType distinguishes presses from repeats and releases.
type EventType uint8

const (
	Press   EventType = 1
	Repeat  EventType = 2
	Release EventType = 3
)

func (t EventType) String() string {
	switch t {
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	case Release:
		return "release"
	default:
		return "EventType(" + strconv.Itoa(int(t)) + ")"
	}
}

// Codepoints used for keys which have no Unicode representation. Functional
// keys use the Kitty protocol's private use area values so legacy and Kitty
// encodings of the same key compare equal.
const (
	KeyTab       rune = 0x09
	KeyEnter     rune = 0x0D
	KeyEscape    rune = 0x1B
	KeyBackspace rune = 0x7F

	KeyInsert   rune = 57348
	KeyDelete   rune = 57349
	KeyLeft     rune = 57350
	KeyRight    rune = 57351
	KeyUp       rune = 57352
	KeyDown     rune = 57353
	KeyPageUp   rune = 57354
	KeyPageDown rune = 57355
	KeyHome     rune = 57356
	KeyEnd      rune = 57357

	KeyF1  rune = 57364
	KeyF2  rune = 57365
	KeyF3  rune = 57366
	KeyF4  rune = 57367
	KeyF5  rune = 57368
	KeyF6  rune = 57369
	KeyF7  rune = 57370
	KeyF8  rune = 57371
	KeyF9  rune = 57372
	KeyF10 rune = 57373
	KeyF11 rune = 57374
	KeyF12 rune = 57375

	KeyKpBegin rune = 57427
)

// KeyboardEvent is a key press, repeat or release.
//
// ShiftedCodepoint and BaseLayoutCodepoint are only reported by the Kitty
// protocol's alternate-keys enhancement and are 0 when absent. Text is the
// associated text, also Kitty only, and is empty when absent.
type KeyboardEvent struct {
	Codepoint           rune
	ShiftedCodepoint    rune
	BaseLayoutCodepoint rune
	Modifiers           Modifiers
	EventType           EventType
	Text                string
}

func (KeyboardEvent) event() {}

// Key returns a press of codepoint with the given modifiers.
func Key(codepoint rune, mods Modifiers) KeyboardEvent {
	return KeyboardEvent{Codepoint: codepoint, Modifiers: mods, EventType: Press}
}

var keyNames = map[rune]string{
	KeyTab:       "Tab",
	KeyEnter:     "Enter",
	KeyEscape:    "Escape",
	KeyBackspace: "Backspace",
	' ':          "Space",
	KeyInsert:    "Insert",
	KeyDelete:    "Delete",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
	KeyKpBegin:   "KpBegin",
}

// modifierPrefix renders mods in Emacs-style notation, e.g. "C-M-".
// Lock states are not rendered.
func modifierPrefix(mods Modifiers) string {
	var b strings.Builder
	if mods.Has(ModShift) {
		b.WriteString("S-")
	}
	if mods.Has(ModAlt) {
		b.WriteString("M-")
	}
	if mods.Has(ModCtrl) {
		b.WriteString("C-")
	}
	if mods.Has(ModSuper) {
		b.WriteString("s-")
	}
	if mods.Has(ModHyper) {
		b.WriteString("H-")
	}
	if mods.Has(ModMeta) {
		b.WriteString("Meta-")
	}
	return b.String()
}

// KeyName returns the display name of a single codepoint.
func KeyName(codepoint rune) string {
	if name, ok := keyNames[codepoint]; ok {
		return name
	}
	if codepoint < 0x20 {
		return "^" + string(codepoint+0x40)
	}
	return string(codepoint)
}

// String renders the key the way a key binding would name it: "C-c", "M-x",
// "S-Up". Repeats and releases are suffixed.
func (e KeyboardEvent) String() string {
	s := modifierPrefix(e.Modifiers) + KeyName(e.Codepoint)
	if e.EventType == Repeat || e.EventType == Release {
		s += " (" + e.EventType.String() + ")"
	}
	return s
}
