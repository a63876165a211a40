// Package source provides input.ByteSource implementations: a polling
// terminal reader for Unix systems, an adapter for arbitrary io.Readers and
// an in-memory pipe for tests.
package source

import (
	"errors"
	"io"
	"sync"
	"time"
)

// ErrClosed is returned when writing to a closed Pipe or reading from a
// closed TTY.
var ErrClosed = errors.New("source closed")

// Pipe is an in-memory ByteSource. Bytes written to it are handed out by
// Read in order, and Close makes Read report io.EOF once they are drained.
type Pipe struct {
	mu     sync.Mutex
	buf    []byte
	closed bool

	ready chan struct{}
	intr  chan struct{}
}

// NewPipe returns an empty, open Pipe.
func NewPipe() *Pipe {
	return &Pipe{
		ready: make(chan struct{}, 1),
		intr:  make(chan struct{}, 1),
	}
}

// Write appends b to the pending input.
func (p *Pipe) Write(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	p.buf = append(p.buf, b...)
	p.mu.Unlock()

	notify(p.ready)
	return len(b), nil
}

// WriteString appends s to the pending input.
func (p *Pipe) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// Close marks the end of input.
func (p *Pipe) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	notify(p.ready)
	return nil
}

// Read blocks until input is pending, the Pipe is closed or Interrupt is
// called.
func (p *Pipe) Read(b []byte) (int, error) {
	return p.read(b, -1)
}

// ReadTimeout is Read bounded by timeout. A zero timeout never blocks.
func (p *Pipe) ReadTimeout(b []byte, timeout time.Duration) (int, error) {
	return p.read(b, timeout)
}

// Interrupt wakes a blocked read, or the next one if none is blocked.
func (p *Pipe) Interrupt() error {
	notify(p.intr)
	return nil
}

func (p *Pipe) read(b []byte, timeout time.Duration) (int, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	for {
		p.mu.Lock()
		if len(p.buf) > 0 {
			n := copy(b, p.buf)
			p.buf = p.buf[n:]
			p.mu.Unlock()
			return n, nil
		}
		closed := p.closed
		p.mu.Unlock()

		if closed {
			return 0, io.EOF
		}
		if timeout == 0 {
			return 0, nil
		}

		select {
		case <-p.ready:
		case <-p.intr:
			return 0, nil
		case <-expired:
			return 0, nil
		}
	}
}

// notify performs a non-blocking send on a channel with capacity 1, so that
// a pending wakeup is never lost and never doubled.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
