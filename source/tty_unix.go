//go:build unix

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/phroun/termevents/event"
)

// ErrNotTerminal is returned by NewTTY for files which are not terminals.
var ErrNotTerminal = errors.New("not a terminal")

// TTY reads from a terminal file descriptor with poll(2), so reads can time
// out and be interrupted without closing the terminal.
type TTY struct {
	f     *os.File
	fd    int
	owned bool

	// Interrupt writes to wakeW; reads poll wakeR alongside the terminal.
	wakeR int
	wakeW int

	mu       sync.Mutex
	rawState *term.State
	closed   atomic.Bool
}

// NewTTY wraps f, which must be a terminal. The caller keeps ownership of f.
func NewTTY(f *os.File) (*TTY, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}

	var wake [2]int
	if err := unix.Pipe(wake[:]); err != nil {
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}
	for _, w := range wake {
		if err := unix.SetNonblock(w, true); err != nil {
			unix.Close(wake[0])
			unix.Close(wake[1])
			return nil, fmt.Errorf("failed to configure wake pipe: %w", err)
		}
	}

	return &TTY{f: f, fd: fd, wakeR: wake[0], wakeW: wake[1]}, nil
}

// OpenTTY opens the controlling terminal, /dev/tty. Close closes it.
func OpenTTY() (*TTY, error) {
	f, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	t, err := NewTTY(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.owned = true
	return t, nil
}

// File returns the terminal file, for writing mode changes and queries.
func (t *TTY) File() *os.File {
	return t.f
}

// EnableRawMode puts the terminal into raw mode until Restore or Close.
func (t *TTY) EnableRawMode() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rawState != nil {
		return nil
	}
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	t.rawState = state
	return nil
}

// Restore undoes EnableRawMode.
func (t *TTY) Restore() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.rawState == nil {
		return nil
	}
	if err := term.Restore(t.fd, t.rawState); err != nil {
		return fmt.Errorf("failed to restore terminal: %w", err)
	}
	t.rawState = nil
	return nil
}

// Size returns the terminal's current size as reported by the kernel.
// Pixel dimensions are 0 when the terminal does not report them.
func (t *TTY) Size() (event.ResizeEvent, error) {
	ws, err := unix.IoctlGetWinsize(t.fd, unix.TIOCGWINSZ)
	if err != nil {
		return event.ResizeEvent{}, fmt.Errorf("failed to get terminal size: %w", err)
	}
	return event.ResizeEvent{
		Rows:        int(ws.Row),
		Cols:        int(ws.Col),
		PixelHeight: int(ws.Ypixel),
		PixelWidth:  int(ws.Xpixel),
	}, nil
}

// WatchResize calls fn with the new size on every SIGWINCH until ctx is done.
// It is the fallback for terminals without in-band resize reports.
func (t *TTY) WatchResize(ctx context.Context, fn func(event.ResizeEvent)) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGWINCH)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sigCh:
			size, err := t.Size()
			if err != nil {
				return err
			}
			if size.Rows > 0 && size.Cols > 0 {
				fn(size)
			}
		}
	}
}

// Read blocks until input is available or Interrupt is called.
func (t *TTY) Read(p []byte) (int, error) {
	return t.read(p, -1)
}

// ReadTimeout is Read bounded by timeout, at millisecond resolution. A zero
// timeout never blocks.
func (t *TTY) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	ms := int(timeout.Milliseconds())
	if ms == 0 && timeout > 0 {
		ms = 1
	}
	return t.read(p, ms)
}

// Interrupt wakes a blocked read, or the next one if none is blocked.
func (t *TTY) Interrupt() error {
	if t.closed.Load() {
		return ErrClosed
	}
	if _, err := unix.Write(t.wakeW, []byte{0}); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("failed to interrupt read: %w", err)
	}
	return nil
}

// Close restores the terminal mode and releases the TTY's resources.
func (t *TTY) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	err := t.Restore()
	unix.Close(t.wakeR)
	unix.Close(t.wakeW)
	if t.owned {
		if cerr := t.f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (t *TTY) read(p []byte, timeoutMs int) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}

	fds := []unix.PollFd{
		{Fd: int32(t.fd), Events: unix.POLLIN},
		{Fd: int32(t.wakeR), Events: unix.POLLIN},
	}
	for {
		n, err := unix.Poll(fds, timeoutMs)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return 0, fmt.Errorf("failed to poll terminal: %w", err)
		}
		if n == 0 {
			return 0, nil
		}

		if fds[1].Revents&unix.POLLIN != 0 {
			t.drainWake()
			return 0, nil
		}
		if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
			continue
		}

		rn, err := unix.Read(t.fd, p)
		if err != nil {
			switch err {
			case unix.EINTR, unix.EAGAIN:
				continue
			case unix.EIO:
				// The other side of the terminal hung up.
				return 0, io.EOF
			}
			return 0, fmt.Errorf("failed to read terminal: %w", err)
		}
		if rn == 0 {
			return 0, io.EOF
		}
		return rn, nil
	}
}

func (t *TTY) drainWake() {
	var buf [16]byte
	for {
		if n, err := unix.Read(t.wakeR, buf[:]); n <= 0 || err != nil {
			return
		}
	}
}
