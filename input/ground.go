package input

import "github.com/phroun/termevents/event"

// parseGround decodes a byte outside of any escape sequence: a C0 control
// byte or one UTF-8 encoded character.
func parseGround(b []byte, start int) (event.Event, int) {
	c := b[start]
	if c <= 0x1a {
		next := start + 1
		switch c {
		case 0x00:
			return event.Key('@', event.ModCtrl), next
		case 0x08:
			return event.Key(event.KeyBackspace, 0), next
		case 0x0a:
			return event.Key(event.KeyEnter, 0), next
		case 0x09, 0x0d, 0x1a:
			return event.Key(rune(c), 0), next
		default:
			// ^A through ^Y arrive as 0x01 through 0x19.
			return event.Key(rune(c)+0x60, event.ModCtrl), next
		}
	}

	r, next, status := decodeUTF8(b, start)
	switch status {
	case utf8Underflow:
		return nil, 0
	case utf8Invalid:
		return unknown(b, start, start+1), start + 1
	}
	return event.Key(r, 0), next
}

var ss3Keys = map[byte]rune{
	'A': event.KeyUp,
	'B': event.KeyDown,
	'C': event.KeyRight,
	'D': event.KeyLeft,
	'F': event.KeyEnd,
	'H': event.KeyHome,
	'P': event.KeyF1,
	'Q': event.KeyF2,
	'R': event.KeyF3,
	'S': event.KeyF4,
}

// parseSS3 decodes the fixed three byte "ESC O <final>" form.
func parseSS3(b []byte, start int) (event.Event, int) {
	end := start + 3
	if end > len(b) {
		return nil, 0
	}

	final := b[start+2]
	if key, ok := ss3Keys[final]; ok {
		return event.Key(key, 0), end
	}
	if final == 0x1b {
		// Leave the ESC in place so it starts the next sequence.
		return unknown(b, start, start+2), start + 2
	}
	return unknown(b, start, end), end
}
