package source

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/muesli/cancelreader"
)

const streamChunkSize = 1024

// Stream adapts any io.Reader, such as os.Stdin when it is not a terminal,
// into a ByteSource. A background goroutine performs the blocking reads;
// Interrupt and timeouts only abandon the wait for its next chunk.
type Stream struct {
	r       cancelreader.CancelReader
	chunks  chan []byte
	intr    chan struct{}
	done    chan struct{}
	pending []byte
	err     error // written by pump before chunks is closed

	closeOnce sync.Once
}

// NewStream starts reading from r.
func NewStream(r io.Reader) (*Stream, error) {
	cr, err := cancelreader.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap input reader: %w", err)
	}
	s := &Stream{
		r:      cr,
		chunks: make(chan []byte),
		intr:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s, nil
}

func (s *Stream) pump() {
	defer close(s.chunks)
	for {
		buf := make([]byte, streamChunkSize)
		n, err := s.r.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.err = err
			return
		}
	}
}

// Read blocks until input is available, the reader ends or Interrupt is
// called.
func (s *Stream) Read(p []byte) (int, error) {
	return s.read(p, -1)
}

// ReadTimeout is Read bounded by timeout. A zero timeout never blocks.
func (s *Stream) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	return s.read(p, timeout)
}

// Interrupt wakes a blocked read, or the next one if none is blocked.
func (s *Stream) Interrupt() error {
	notify(s.intr)
	return nil
}

// Close cancels the underlying read where the platform supports it and
// releases the reader. Subsequent reads report io.EOF.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.r.Cancel()
		err = s.r.Close()
	})
	return err
}

func (s *Stream) read(p []byte, timeout time.Duration) (int, error) {
	select {
	case <-s.done:
		return 0, io.EOF
	default:
	}
	if len(s.pending) > 0 {
		return s.take(p, s.pending), nil
	}

	if timeout == 0 {
		select {
		case chunk, ok := <-s.chunks:
			return s.receive(p, chunk, ok)
		default:
			return 0, nil
		}
	}

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case chunk, ok := <-s.chunks:
		return s.receive(p, chunk, ok)
	case <-s.done:
		return 0, io.EOF
	case <-s.intr:
		return 0, nil
	case <-expired:
		return 0, nil
	}
}

func (s *Stream) receive(p, chunk []byte, ok bool) (int, error) {
	if !ok {
		select {
		case <-s.done:
			return 0, io.EOF
		default:
		}
		if s.err == nil || errors.Is(s.err, io.EOF) || errors.Is(s.err, cancelreader.ErrCanceled) {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("failed to read input: %w", s.err)
	}
	return s.take(p, chunk), nil
}

func (s *Stream) take(p, chunk []byte) int {
	n := copy(p, chunk)
	s.pending = chunk[n:]
	return n
}
