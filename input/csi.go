package input

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/phroun/termevents/event"
)

var legacyKeys = map[byte]rune{
	'A': event.KeyUp,
	'B': event.KeyDown,
	'C': event.KeyRight,
	'D': event.KeyLeft,
	'E': event.KeyKpBegin,
	'F': event.KeyEnd,
	'H': event.KeyHome,
	'P': event.KeyF1,
	'Q': event.KeyF2,
	'R': event.KeyF3,
	'S': event.KeyF4,
}

var tildeKeys = map[int]rune{
	2:     event.KeyInsert,
	3:     event.KeyDelete,
	5:     event.KeyPageUp,
	6:     event.KeyPageDown,
	7:     event.KeyHome,
	8:     event.KeyEnd,
	11:    event.KeyF1,
	12:    event.KeyF2,
	13:    event.KeyF3,
	14:    event.KeyF4,
	15:    event.KeyF5,
	17:    event.KeyF6,
	18:    event.KeyF7,
	19:    event.KeyF8,
	20:    event.KeyF9,
	21:    event.KeyF10,
	23:    event.KeyF11,
	24:    event.KeyF12,
	57427: event.KeyKpBegin,
}

// parseCSI decodes "ESC [ <params> <final>", where the final byte is the
// first byte in 0x40 through 0xFF.
func (p *Parser) parseCSI(b []byte, start int) (event.Event, int) {
	final := -1
	for i := start + 2; i < len(b); i++ {
		if b[i] >= 0x40 {
			final = i
			break
		}
	}
	if final < 0 {
		return nil, 0
	}
	end := final + 1

	var (
		ev event.Event
		ok bool
	)
	switch c := b[final]; c {
	case 'A', 'B', 'C', 'D', 'E', 'F', 'H', 'P', 'Q', 'R', 'S':
		ev, ok = csiLegacyKey(b, start, final, legacyKeys[c])
	case '~':
		ev, ok = csiTildeKey(b, start, final)
	case 'I':
		ev, ok = event.FocusEvent{Focused: true}, true
	case 'O':
		ev, ok = event.FocusEvent{Focused: false}, true
	case 'M', 'm':
		return p.csiMouse(b, start, final)
	case 'c':
		ev, ok = csiPrimaryDeviceAttributes(b, start, final)
	case 'n':
		ev, ok = csiDeviceStatus(b, start, final)
	case 't':
		ev, ok = csiWindowReport(b, start, final)
	case 'u':
		ev, ok = csiKittyKey(b, start, final)
	case 'y':
		ev, ok = csiDecModeReport(b, start, final)
	}
	if !ok {
		return unknown(b, start, end), end
	}
	return ev, end
}

// modifiersFromWire converts the 1-based modifier parameter used by both the
// xterm and Kitty encodings into a bitset.
func modifiersFromWire(n int) event.Modifiers {
	if n <= 1 {
		return 0
	}
	return event.Modifiers(n - 1)
}

// parseModifierField parses "<mod>[:<eventType>]" from b[from:to]. A missing
// or unreadable event type means a press.
func parseModifierField(b []byte, from, to int) (event.Modifiers, event.EventType, bool) {
	modEnd := indexOfOr(b, ':', from, to, to)
	mods, ok := parseDigits(b, from, modEnd)
	if !ok {
		return 0, 0, false
	}
	eventType := event.Press
	if t, ok := parseDigits(b, modEnd+1, to); ok && t >= int(event.Press) && t <= int(event.Release) {
		eventType = event.EventType(t)
	}
	return modifiersFromWire(mods), eventType, true
}

// csiLegacyKey handles "CSI <final>" and "CSI 1 ; <mod>[:<eventType>] <final>".
func csiLegacyKey(b []byte, start, final int, key rune) (event.Event, bool) {
	b3 := start + 2
	if b3 == final {
		return event.Key(key, 0), true
	}
	if final+1-start < 6 || b[b3] != '1' || b[b3+1] != ';' {
		return nil, false
	}
	from := b3 + 2
	to := indexOfOr(b, ';', from, final, final)
	mods, eventType, ok := parseModifierField(b, from, to)
	if !ok {
		return nil, false
	}
	return event.KeyboardEvent{Codepoint: key, Modifiers: mods, EventType: eventType}, true
}

// csiTildeKey handles "CSI <number>[;<mod>[:<eventType>]] ~".
func csiTildeKey(b []byte, start, final int) (event.Event, bool) {
	b3 := start + 2
	delim := indexOfOr(b, ';', b3, final, final)
	n, ok := parseDigits(b, b3, delim)
	if !ok {
		return nil, false
	}
	switch n {
	case 200:
		return event.BracketedPasteEvent{Start: true}, true
	case 201:
		return event.BracketedPasteEvent{Start: false}, true
	}
	key, ok := tildeKeys[n]
	if !ok {
		return nil, false
	}
	if delim == final {
		return event.Key(key, 0), true
	}
	to := indexOfOr(b, ';', delim+1, final, final)
	mods, eventType, ok := parseModifierField(b, delim+1, to)
	if !ok {
		return nil, false
	}
	return event.KeyboardEvent{Codepoint: key, Modifiers: mods, EventType: eventType}, true
}

// csiMouse handles the X10 "CSI M Cb Cx Cy" and SGR "CSI < Pb ; Px ; Py M|m"
// encodings. X10 reports carry their fields after the final byte, so the
// returned index may lie beyond it. Coordinates are not clamped: a wire value
// of 0 (an X10 byte of 0x20) decodes to -1.
func (p *Parser) csiMouse(b []byte, start, final int) (event.Event, int) {
	end := final + 1
	release := b[final] == 'm'
	cbStart := start + 3

	var cb, cx, cy int
	next := end
	if final == start+2 && !release {
		if !p.utf8Mouse.Load() {
			if end+3 > len(b) {
				return nil, 0
			}
			cb = int(b[cbStart]) - 0x20
			cx = int(b[cbStart+1]) - 0x20
			cy = int(b[cbStart+2]) - 0x20
			next = cbStart + 3
		} else {
			r, cxStart, status := decodeUTF8(b, cbStart)
			switch status {
			case utf8Underflow:
				return nil, 0
			case utf8Invalid:
				return unknown(b, start, cbStart), cbStart
			}
			cb = int(r) - 0x20

			r, cyStart, status := decodeUTF8(b, cxStart)
			switch status {
			case utf8Underflow:
				return nil, 0
			case utf8Invalid:
				return unknown(b, start, cxStart+1), cxStart + 1
			}
			cx = int(r) - 0x20

			r, next, status = decodeUTF8(b, cyStart)
			switch status {
			case utf8Underflow:
				return nil, 0
			case utf8Invalid:
				return unknown(b, start, cyStart+1), cyStart + 1
			}
			cy = int(r) - 0x20
		}
	} else {
		var ok bool
		if cb, cx, cy, ok = parseSGRMouse(b, start, final); !ok {
			return unknown(b, start, end), end
		}
	}

	ev, ok := mouseEvent(cb, cx, cy, release)
	if !ok {
		return unknown(b, start, next), next
	}
	return ev, next
}

func parseSGRMouse(b []byte, start, final int) (cb, cx, cy int, ok bool) {
	if b[start+2] != '<' {
		return 0, 0, 0, false
	}
	cbStart := start + 3
	cbEnd := indexOf(b, ';', cbStart, final)
	if cbEnd < 0 {
		return 0, 0, 0, false
	}
	if cb, ok = parseDigits(b, cbStart, cbEnd); !ok {
		return 0, 0, 0, false
	}
	cxEnd := indexOf(b, ';', cbEnd+1, final)
	if cxEnd < 0 {
		return 0, 0, 0, false
	}
	if cx, ok = parseDigits(b, cbEnd+1, cxEnd); !ok {
		return 0, 0, 0, false
	}
	if cy, ok = parseDigits(b, cxEnd+1, final); !ok {
		return 0, 0, 0, false
	}
	return cb, cx, cy, true
}

const (
	mouseButtonBits = 0b11000011
	mouseMotionBit  = 0b00100000
	mouseShiftBit   = 0b00000100
	mouseAltBit     = 0b00001000
	mouseCtrlBit    = 0b00010000
)

func mouseEvent(cb, cx, cy int, release bool) (event.MouseEvent, bool) {
	var button event.MouseButton
	switch cb & mouseButtonBits {
	case 0:
		button = event.ButtonLeft
	case 1:
		button = event.ButtonMiddle
	case 2:
		button = event.ButtonRight
	case 3:
		button = event.ButtonNone
	case 64:
		button = event.ButtonWheelUp
	case 65:
		button = event.ButtonWheelDown
	case 128:
		button = event.Button8
	case 129:
		button = event.Button9
	case 130:
		button = event.Button10
	case 131:
		button = event.Button11
	default:
		return event.MouseEvent{}, false
	}

	var typ event.MouseType
	switch {
	case cb&mouseMotionBit != 0 && button != event.ButtonNone:
		typ = event.MouseDrag
	case cb&mouseMotionBit != 0:
		typ = event.MouseMotion
	case release:
		typ = event.MouseRelease
	default:
		typ = event.MousePress
	}

	// Reported coordinates are 1-based.
	return event.MouseEvent{
		X:      cx - 1,
		Y:      cy - 1,
		Type:   typ,
		Button: button,
		Shift:  cb&mouseShiftBit != 0,
		Alt:    cb&mouseAltBit != 0,
		Ctrl:   cb&mouseCtrlBit != 0,
	}, true
}

// csiPrimaryDeviceAttributes handles "CSI ? <id> [; <data>] c".
func csiPrimaryDeviceAttributes(b []byte, start, final int) (event.Event, bool) {
	if b[start+2] != '?' {
		return nil, false
	}
	b4 := start + 3
	delim := indexOfOr(b, ';', b4, final, final)
	id, ok := parseDigits(b, b4, delim)
	if !ok {
		return nil, false
	}
	data := ""
	if delim < final {
		data = string(b[delim+1 : final])
	}
	return event.PrimaryDeviceAttributesEvent{ID: id, Data: data}, true
}

// csiDeviceStatus handles "CSI <n> n" operating status reports and the DEC
// private "CSI ? <n> [; ...] n" reports.
func csiDeviceStatus(b []byte, start, final int) (event.Event, bool) {
	b3 := start + 2
	if b[b3] == '?' {
		b4 := b3 + 1
		delim := indexOfOr(b, ';', b4, final, final)
		p0, ok := parseDigits(b, b4, delim)
		if !ok {
			return nil, false
		}
		if p0 == 997 {
			if delim+2 == final {
				switch b[delim+1] {
				case '1':
					return event.SystemThemeEvent{Dark: true}, true
				case '2':
					return event.SystemThemeEvent{Dark: false}, true
				}
			}
			return nil, false
		}
		return event.DeviceStatusReportEvent{Data: string(b[b4:final])}, true
	}

	p0, ok := parseDigits(b, b3, final)
	if !ok {
		return nil, false
	}
	switch p0 {
	case 0:
		return event.OperatingStatusResponseEvent{OK: true}, true
	case 3:
		return event.OperatingStatusResponseEvent{OK: false}, true
	}
	return nil, false
}

// csiWindowReport handles the in-band resize report
// "CSI 48 ; rows ; cols ; pixelHeight ; pixelWidth t". Sub-parameters are
// ignored.
func csiWindowReport(b []byte, start, final int) (event.Event, bool) {
	b3 := start + 2
	modeDelim := indexOf(b, ';', b3, final)
	if modeDelim < 0 {
		return nil, false
	}
	if mode, ok := parseDigits(b, b3, modeDelim); !ok || mode != 48 {
		return nil, false
	}

	var fields [4]int
	from := modeDelim + 1
	for i := range fields {
		delim := final
		if i < len(fields)-1 {
			if delim = indexOf(b, ';', from, final); delim < 0 {
				return nil, false
			}
		}
		v, ok := parseDigits(b, from, indexOfOr(b, ':', from, delim, delim))
		if !ok {
			return nil, false
		}
		fields[i] = v
		from = delim + 1
	}
	return event.ResizeEvent{
		Rows:        fields[0],
		Cols:        fields[1],
		PixelHeight: fields[2],
		PixelWidth:  fields[3],
	}, true
}

// csiKittyKey handles the Kitty keyboard protocol's
// "CSI code[:shifted[:base]] ; mods[:eventType] ; text u" key events and its
// "CSI ? flags u" enhancement query response.
func csiKittyKey(b []byte, start, final int) (event.Event, bool) {
	b3 := start + 2
	if b[b3] == '?' {
		flags, ok := parseDigits(b, b3+1, final)
		if !ok {
			return nil, false
		}
		return event.KittyKeyboardQueryEvent{Flags: flags}, true
	}

	codeDelim := indexOfOr(b, ';', b3, final, final)
	codeEnd := indexOfOr(b, ':', b3, codeDelim, codeDelim)
	code, ok := parseDigits(b, b3, codeEnd)
	if !ok {
		return nil, false
	}
	ev := event.KeyboardEvent{Codepoint: rune(code), EventType: event.Press}

	if codeEnd != codeDelim {
		shiftedStart := codeEnd + 1
		shiftedEnd := indexOfOr(b, ':', shiftedStart, codeDelim, codeDelim)
		if shiftedEnd != shiftedStart {
			shifted, ok := parseDigits(b, shiftedStart, shiftedEnd)
			if !ok {
				return nil, false
			}
			ev.ShiftedCodepoint = rune(shifted)
		}
		if shiftedEnd != codeDelim {
			base, ok := parseDigits(b, shiftedEnd+1, codeDelim)
			if !ok {
				return nil, false
			}
			ev.BaseLayoutCodepoint = rune(base)
		}
	}

	if codeDelim == final {
		return ev, true
	}

	modStart := codeDelim + 1
	modDelim := indexOfOr(b, ';', modStart, final, final)
	modEnd := indexOfOr(b, ':', modStart, modDelim, modDelim)
	if modEnd != modStart {
		mods, ok := parseDigits(b, modStart, modEnd)
		if !ok {
			return nil, false
		}
		ev.Modifiers = modifiersFromWire(mods)

		if modEnd != modDelim {
			t, ok := parseDigits(b, modEnd+1, modDelim)
			if !ok || t < int(event.Press) || t > int(event.Release) {
				return nil, false
			}
			ev.EventType = event.EventType(t)
		}
	}

	if modDelim != final {
		var text strings.Builder
		for from := modDelim + 1; ; {
			to := indexOfOr(b, ':', from, final, final)
			c, ok := parseDigits(b, from, to)
			if !ok {
				return nil, false
			}
			text.WriteRune(rune(c))
			if to == final {
				break
			}
			from = to + 1
		}
		ev.Text = text.String()
	}
	return ev, true
}

// csiDecModeReport handles DECRPM, "CSI ? mode ; setting $ y".
func csiDecModeReport(b []byte, start, final int) (event.Event, bool) {
	dollar := final - 1
	if b[dollar] != '$' || b[start+2] != '?' || final+1-start < 8 {
		return nil, false
	}
	b4 := start + 3
	semi := indexOf(b, ';', b4, dollar)
	if semi < 0 {
		return nil, false
	}
	mode, ok := parseDigits(b, b4, semi)
	if !ok {
		return nil, false
	}
	setting, ok := parseDigits(b, semi+1, dollar)
	if !ok || setting > int(ansi.ModePermanentlyReset) {
		return nil, false
	}
	return event.DecModeReportEvent{Mode: mode, Setting: ansi.ModeSetting(setting)}, true
}
