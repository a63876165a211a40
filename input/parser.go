// Package input decodes a terminal's input byte stream into events.
//
// A Parser owns a fixed 8 KiB buffer which it refills from a ByteSource. It
// understands ground (plain UTF-8 and C0 control) bytes, SS3, CSI, OSC, DCS,
// SOS, PM and APC sequences, covering legacy VT and xterm key and mouse
// encodings, the Kitty keyboard, graphics and pointer protocols, and the
// common terminal query responses. Input which cannot be interpreted is
// reported as an event.UnknownEvent; malformed terminal data never produces
// an error.
//
// A Reader runs a Parser on its own goroutine and delivers events on a channel.
package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/phroun/termevents/event"
)

// BufferSize is the capacity of a Parser's buffer. A sequence longer than
// this can never be parsed.
const BufferSize = 8 * 1024

// escapeDisambiguationTimeout bounds the wait for bytes following a lone ESC.
const escapeDisambiguationTimeout = 100 * time.Millisecond

var (
	// ErrStreamEnded is returned once the ByteSource reports end of input.
	ErrStreamEnded = errors.New("input stream ended")

	// ErrBufferFull is returned when the buffer holds a single incomplete
	// sequence spanning all of its capacity, typically an OSC, DCS or APC
	// string whose terminator never arrived. The buffer is left untouched.
	ErrBufferFull = errors.New("input buffer full of an unterminated sequence")
)

// ByteSource supplies raw terminal input.
//
// Read blocks until at least one byte is available. ReadTimeout waits at most
// timeout, where 0 polls without blocking. Both return (0, nil) when the wait
// ended without data, either through a timeout or through Interrupt, and
// io.EOF once the input has ended. Interrupt wakes a blocked read.
type ByteSource interface {
	Read(p []byte) (int, error)
	ReadTimeout(p []byte, timeout time.Duration) (int, error)
	Interrupt() error
}

// Parser turns bytes from a ByteSource into events. It is not safe for
// concurrent use, except for the Set methods.
type Parser struct {
	src    ByteSource
	buf    [BufferSize]byte
	offset int
	limit  int

	kittyDisambiguate atomic.Bool
	utf8Mouse         atomic.Bool
}

// NewParser returns a Parser reading from src.
func NewParser(src ByteSource) *Parser {
	return &Parser{src: src}
}

// SetKittyDisambiguateEscapeCodes records whether the terminal has Kitty's
// "disambiguate escape codes" enhancement enabled. When it has, an Esc key
// press always arrives as a full sequence and a lone trailing ESC byte is
// treated as an incomplete sequence instead of being resolved with a short
// timed read.
func (p *Parser) SetKittyDisambiguateEscapeCodes(enabled bool) {
	p.kittyDisambiguate.Store(enabled)
}

// SetXtermExtendedUTF8Mouse records whether xterm's UTF-8 extended mouse
// mode (1005) is enabled, which changes how legacy X10 mouse reports encode
// their button and coordinate values.
func (p *Parser) SetXtermExtendedUTF8Mouse(enabled bool) {
	p.utf8Mouse.Store(enabled)
}

// Next blocks until an event has been decoded. It returns ctx.Err() if the
// source is interrupted after ctx is done, ErrStreamEnded at end of input and
// ErrBufferFull as described there.
func (p *Parser) Next(ctx context.Context) (event.Event, error) {
	ev, _, err := p.next(ctx)
	return ev, err
}

// Buffered returns a copy of the bytes read but not yet consumed.
func (p *Parser) Buffered() []byte {
	return bytes.Clone(p.buf[p.offset:p.limit])
}

// next is Next, also returning the consumed bytes. The returned slice aliases
// the buffer and is only valid until the following call.
func (p *Parser) next(ctx context.Context) (event.Event, []byte, error) {
	for {
		if p.offset < p.limit {
			start := p.offset
			if ev, end := p.parse(p.buf[:p.limit], start); ev != nil {
				p.offset = end
				return ev, p.buf[start:end], nil
			}
		}

		// Underflow. Move the unconsumed bytes to the front before reading more.
		p.compact()
		if p.limit == len(p.buf) {
			return nil, nil, ErrBufferFull
		}

		if p.limit == 1 && p.buf[0] == 0x1b && !p.kittyDisambiguate.Load() {
			// A lone ESC is either the Esc key or the start of a sequence whose
			// remainder has not arrived yet. Give the remainder a short window.
			n, err := p.src.ReadTimeout(p.buf[1:], escapeDisambiguationTimeout)
			if err != nil {
				return nil, nil, readError(err)
			}
			if n == 0 {
				if err := ctx.Err(); err != nil {
					return nil, nil, err
				}
				p.offset = 1
				return event.Key(event.KeyEscape, 0), p.buf[:1], nil
			}
			p.limit += n
			continue
		}

		n, err := p.src.Read(p.buf[p.limit:])
		if err != nil {
			return nil, nil, readError(err)
		}
		if n == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			continue
		}
		p.limit += n
	}
}

func (p *Parser) compact() {
	if p.offset == 0 {
		return
	}
	p.limit = copy(p.buf[:], p.buf[p.offset:p.limit])
	p.offset = 0
}

func readError(err error) error {
	if errors.Is(err, io.EOF) {
		return ErrStreamEnded
	}
	return fmt.Errorf("failed to read input: %w", err)
}

// parse decodes one event from b starting at start, returning it and the
// index just past the bytes it consumed. A nil event means b ends before the
// event could be decided and more input is needed.
func (p *Parser) parse(b []byte, start int) (event.Event, int) {
	if b[start] != 0x1b {
		return parseGround(b, start)
	}

	b2 := start + 1
	// A trailing ESC cannot be classified without the next byte. The caller
	// resolves a lone ESC with a timed read.
	if b2 == len(b) {
		return nil, 0
	}

	switch b[b2] {
	case 'O':
		return parseSS3(b, start)
	case 'P':
		return parseDCS(b, start)
	case 'X':
		return parseSOS(b, start)
	case '[':
		return p.parseCSI(b, start)
	case ']':
		return parseOSC(b, start)
	case '^':
		return parsePM(b, start)
	case '_':
		return parseAPC(b, start)
	}

	// ESC followed by anything else is that byte with Alt held. Bytes after
	// a non-ASCII second byte are decoded on their own.
	return event.Key(rune(b[b2]), event.ModAlt), start + 2
}

// unknown copies b[from:to] into an UnknownEvent.
func unknown(b []byte, from, to int) event.UnknownEvent {
	return event.UnknownEvent{Bytes: bytes.Clone(b[from:to])}
}
