//go:build unix

package source

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/termevents/event"
	"github.com/phroun/termevents/input"
)

var _ input.ByteSource = (*TTY)(nil)

// openPTY returns the controlling side of a pseudo-terminal and a TTY in raw
// mode reading from the terminal side.
func openPTY(t *testing.T) (*os.File, *TTY) {
	t.Helper()

	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pseudo-terminals unavailable: %v", err)
	}
	t.Cleanup(func() {
		ptmx.Close()
		tty.Close()
	})

	src, err := NewTTY(tty)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	require.NoError(t, src.EnableRawMode())
	return ptmx, src
}

func TestNewTTYRejectsNonTerminal(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	_, err = NewTTY(r)
	assert.ErrorIs(t, err, ErrNotTerminal)
}

func TestTTYRead(t *testing.T) {
	ptmx, src := openPTY(t)

	_, err := ptmx.Write([]byte("\x1b[A"))
	require.NoError(t, err)

	var got []byte
	buf := make([]byte, 16)
	for len(got) < 3 {
		n, err := src.ReadTimeout(buf, time.Second)
		require.NoError(t, err)
		require.NotZero(t, n, "timed out")
		got = append(got, buf[:n]...)
	}
	assert.Equal(t, []byte("\x1b[A"), got)
}

func TestTTYReadTimeout(t *testing.T) {
	_, src := openPTY(t)

	n, err := src.ReadTimeout(make([]byte, 8), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	start := time.Now()
	n, err = src.ReadTimeout(make([]byte, 8), 30*time.Millisecond)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestTTYInterrupt(t *testing.T) {
	_, src := openPTY(t)

	result := make(chan int, 1)
	go func() {
		n, _ := src.Read(make([]byte, 8))
		result <- n
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, src.Interrupt())

	select {
	case n := <-result:
		assert.Zero(t, n)
	case <-time.After(5 * time.Second):
		t.Fatal("read was not interrupted")
	}
}

func TestTTYSize(t *testing.T) {
	ptmx, src := openPTY(t)

	require.NoError(t, pty.Setsize(ptmx, &pty.Winsize{Rows: 24, Cols: 80, X: 640, Y: 480}))
	size, err := src.Size()
	require.NoError(t, err)
	assert.Equal(t, event.ResizeEvent{Rows: 24, Cols: 80, PixelHeight: 480, PixelWidth: 640}, size)
}

func TestTTYHangupIsEOF(t *testing.T) {
	ptmx, src := openPTY(t)
	require.NoError(t, ptmx.Close())

	_, err := src.ReadTimeout(make([]byte, 8), time.Second)
	assert.ErrorIs(t, err, io.EOF)
}

func TestTTYClose(t *testing.T) {
	_, src := openPTY(t)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())

	_, err := src.Read(make([]byte, 8))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, src.Interrupt(), ErrClosed)
}

func TestTTYWatchResizeStops(t *testing.T) {
	_, src := openPTY(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.WatchResize(ctx, func(event.ResizeEvent) {}) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("WatchResize did not return")
	}
}

func TestReaderOverTTY(t *testing.T) {
	ptmx, src := openPTY(t)

	r := input.NewReader(input.Options{Source: src})
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	_, err := ptmx.Write([]byte("\x1b[<0;3;4Mq"))
	require.NoError(t, err)

	assert.Equal(t, event.MouseEvent{X: 2, Y: 3, Type: event.MousePress, Button: event.ButtonLeft}, <-r.Events())
	assert.Equal(t, event.Key('q', 0), <-r.Events())
}
