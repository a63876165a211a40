package input

import (
	"github.com/phroun/termevents/event"
)

const (
	bel = 0x07
	esc = 0x1b
)

// parseUntilST finds the end of a string-terminated sequence starting at
// b[start] and passes the payload bounds to handle. The payload begins at
// b3, the third byte, and ends at st, the terminator. When allowBell is set
// a BEL also terminates the sequence, whichever terminator comes first.
// A nil event from handle yields an UnknownEvent spanning the sequence.
func parseUntilST(b []byte, start int, allowBell bool, handle func(b3, st int) event.Event) (event.Event, int) {
	b3 := start + 2
	limit := len(b)
	bell := -1
	if allowBell {
		if bell = indexOf(b, bel, b3, limit); bell >= 0 {
			limit = bell
		}
	}

	st, end := -1, 0
	for from := b3; ; {
		i := indexOf(b, esc, from, limit)
		if i < 0 {
			break
		}
		if i+1 == len(b) {
			return nil, 0
		}
		if b[i+1] == '\\' {
			st, end = i, i+2
			break
		}
		from = i + 1
	}
	if st < 0 {
		if bell < 0 {
			return nil, 0
		}
		st, end = bell, bell+1
	}

	if ev := handle(b3, st); ev != nil {
		return ev, end
	}
	return unknown(b, start, end), end
}

func parseSOS(b []byte, start int) (event.Event, int) {
	return parseUntilST(b, start, false, func(int, int) event.Event { return nil })
}

func parsePM(b []byte, start int) (event.Event, int) {
	return parseUntilST(b, start, false, func(int, int) event.Event { return nil })
}

// parseDCS handles XTVERSION ("DCS > | text ST"), DA3 ("DCS ! | site id ST")
// and XTGETTCAP ("DCS 1 + r key=value;... ST") responses.
func parseDCS(b []byte, start int) (event.Event, int) {
	return parseUntilST(b, start, false, func(b3, st int) event.Event {
		b4, b5 := b3+1, b3+2
		switch {
		case st > b4 && b[b3] == '>' && b[b4] == '|':
			return event.TerminalVersionEvent{Version: string(b[b5:st])}
		case st == b3+10 && b[b3] == '!' && b[b4] == '|':
			site, ok := parseHexDigits(b, b5, b5+2)
			if !ok {
				return nil
			}
			id, ok := parseHexDigits(b, b5+2, st)
			if !ok {
				return nil
			}
			return event.TertiaryDeviceAttributesEvent{ManufacturingSite: site, TerminalID: id}
		case st > b5 && b[b4] == '+' && b[b5] == 'r':
			if ev, ok := dcsCapabilityQuery(b, b3, st); ok {
				return ev
			}
		}
		return nil
	})
}

func dcsCapabilityQuery(b []byte, b3, st int) (event.Event, bool) {
	from := b3 + 3
	var success bool
	switch b[b3] {
	case '1':
		if from == st {
			return nil, false
		}
		success = true
	case '0':
	default:
		return nil, false
	}

	entries := make(map[string]*string)
	for from < st {
		entryEnd := indexOfOr(b, ';', from, st, st)
		keyEnd := indexOfOr(b, '=', from, entryEnd, entryEnd)
		key, ok := parseHexString(b, from, keyEnd)
		if !ok {
			return nil, false
		}
		var value *string
		if keyEnd < entryEnd {
			// Failure responses echo the requested names only.
			if !success {
				return nil, false
			}
			v, ok := parseHexString(b, keyEnd+1, entryEnd)
			if !ok {
				return nil, false
			}
			value = &v
		}
		entries[key] = value
		from = entryEnd + 1
	}
	return event.CapabilityQueryEvent{Success: success, Entries: entries}, true
}

// parseOSC handles "OSC Ps ; Pt ST" color, pointer shape and notification
// reports.
func parseOSC(b []byte, start int) (event.Event, int) {
	return parseUntilST(b, start, true, func(b3, st int) event.Event {
		if st-b3 <= 2 {
			return nil
		}
		delim := indexOf(b, ';', b3, st)
		if delim < 0 {
			return nil
		}
		ps, ok := parseDigits(b, b3, delim)
		if !ok {
			return nil
		}
		pt := delim + 1

		switch ps {
		case 4:
			indexEnd := indexOf(b, ';', pt, st)
			if indexEnd < 0 {
				return nil
			}
			index, ok := parseDigits(b, pt, indexEnd)
			if !ok {
				return nil
			}
			return event.PaletteColorEvent{Index: index, Value: string(b[indexEnd+1 : st])}
		case 10:
			return event.TerminalColorEvent{Which: event.Foreground, Value: string(b[pt:st])}
		case 11:
			return event.TerminalColorEvent{Which: event.Background, Value: string(b[pt:st])}
		case 12:
			return event.TerminalColorEvent{Which: event.Cursor, Value: string(b[pt:st])}
		case 22:
			return oscPointerQuery(b, pt, st)
		case 99:
			return event.KittyNotificationEvent{Raw: string(b[b3:st])}
		}
		return nil
	})
}

// oscPointerQuery decodes a Kitty pointer shape query response: either a
// comma separated list of 0 and 1 answering a support query, or the name of
// the current shape.
func oscPointerQuery(b []byte, from, to int) event.Event {
	if from >= to {
		return nil
	}
	if supported, ok := pointerSupport(b, from, to); ok {
		return event.KittyPointerQuerySupportEvent{Supported: supported}
	}
	for _, c := range b[from:to] {
		if !isPointerNameByte(c) {
			return nil
		}
	}
	return event.KittyPointerQueryNameEvent{Name: string(b[from:to])}
}

func pointerSupport(b []byte, from, to int) ([]bool, bool) {
	var supported []bool
	for i := from; i < to; {
		switch b[i] {
		case '0':
			supported = append(supported, false)
		case '1':
			supported = append(supported, true)
		default:
			return nil, false
		}
		i++
		if i == to {
			return supported, true
		}
		if b[i] != ',' {
			return nil, false
		}
		i++
	}
	// Trailing comma.
	return nil, false
}

func isPointerNameByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || c == '-' || c == '_'
}

// parseAPC handles Kitty graphics responses, "APC G i=<id>[,...] ; message ST".
func parseAPC(b []byte, start int) (event.Event, int) {
	return parseUntilST(b, start, false, func(b3, st int) event.Event {
		if st == b3 || b[b3] != 'G' {
			return nil
		}
		b4, b5 := b3+1, b3+2
		delim := indexOf(b, ';', b3, st)
		if delim <= b5 || b[b4] != 'i' || b[b5] != '=' {
			return nil
		}
		idEnd := indexOfOr(b, ',', b5+1, delim, delim)
		id, ok := parseDigits(b, b5+1, idEnd)
		if !ok {
			return nil
		}
		return event.KittyGraphicsEvent{ID: id, Message: string(b[delim+1 : st])}
	})
}
