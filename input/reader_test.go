package input

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/phroun/termevents/event"
	"github.com/phroun/termevents/source"
)

func collect(t *testing.T, r *Reader) []event.Event {
	t.Helper()

	var events []event.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-r.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for events channel to close")
			return nil
		}
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	kinds      []string
	consumed   int
	bufferFull int
}

func (o *recordingObserver) ObserveEvent(ev event.Event, consumed int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds = append(o.kinds, event.Kind(ev))
	o.consumed += consumed
}

func (o *recordingObserver) ObserveBufferFull() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bufferFull++
}

func TestReaderDeliversInOrder(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString("a\x1b[A\x1b[I\x1b[?1004;1$y")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	r := NewReader(Options{Source: src})
	require.NoError(t, r.Start(context.Background()))

	events := collect(t, r)
	require.Len(t, events, 4)
	assert.Equal(t, event.Key('a', 0), events[0])
	assert.Equal(t, event.Key(event.KeyUp, 0), events[1])
	assert.Equal(t, event.FocusEvent{Focused: true}, events[2])
	assert.Equal(t, "DecModeReport(1004, set)", events[3].String())

	<-r.Done()
	assert.ErrorIs(t, r.Err(), ErrStreamEnded)
	assert.False(t, r.IsRunning())
}

func TestReaderRunReturnsError(t *testing.T) {
	src := source.NewPipe()
	require.NoError(t, src.Close())

	r := NewReader(Options{Source: src})
	err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrStreamEnded)
	assert.Empty(t, collect(t, r))
}

func TestReaderFlushesPartialInputAtEnd(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString("x\x1b[12")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	r := NewReader(Options{Source: src})
	require.NoError(t, r.Start(context.Background()))

	assert.Equal(t, []event.Event{
		event.Key('x', 0),
		event.UnknownEvent{Bytes: []byte("\x1b[12")},
	}, collect(t, r))
}

func TestReaderDebugEvents(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString("a\x1b[1;5A\x1b[M H7")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	r := NewReader(Options{Source: src, EmitDebugEvents: true})
	require.NoError(t, r.Start(context.Background()))

	mouse := event.MouseEvent{X: 39, Y: 22, Type: event.MousePress, Button: event.ButtonLeft}
	assert.Equal(t, []event.Event{
		event.Key('a', 0),
		event.DebugEvent{Event: event.Key('a', 0), Bytes: []byte("a")},
		event.Key(event.KeyUp, event.ModCtrl),
		event.DebugEvent{Event: event.Key(event.KeyUp, event.ModCtrl), Bytes: []byte("\x1b[1;5A")},
		mouse,
		event.DebugEvent{Event: mouse, Bytes: []byte("\x1b[M H7")},
	}, collect(t, r))
}

func TestReaderStop(t *testing.T) {
	src := source.NewPipe()
	r := NewReader(Options{Source: src})
	require.NoError(t, r.Start(context.Background()))

	_, err := src.WriteString("q")
	require.NoError(t, err)
	assert.Equal(t, event.Key('q', 0), <-r.Events())
	assert.True(t, r.IsRunning())

	require.NoError(t, r.Stop())
	assert.ErrorIs(t, r.Err(), context.Canceled)
	assert.False(t, r.IsRunning())

	_, ok := <-r.Events()
	assert.False(t, ok)
}

func TestReaderContextCancel(t *testing.T) {
	src := source.NewPipe()
	r := NewReader(Options{Source: src})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReaderCancelWhileConsumerStalled(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString(strings.Repeat("z", 10))
	require.NoError(t, err)

	r := NewReader(Options{Source: src, EventBufferSize: 1})
	require.NoError(t, r.Start(context.Background()))

	// Nobody reads Events, so the reader blocks delivering the second event.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, r.Stop())
	assert.ErrorIs(t, r.Err(), context.Canceled)
}

func TestReaderStartsOnce(t *testing.T) {
	src := source.NewPipe()
	r := NewReader(Options{Source: src})
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	assert.ErrorIs(t, r.Start(context.Background()), ErrAlreadyStarted)
	assert.ErrorIs(t, r.Run(context.Background()), ErrAlreadyStarted)
}

func TestReaderStopBeforeStart(t *testing.T) {
	r := NewReader(Options{Source: source.NewPipe()})
	assert.NoError(t, r.Stop())
}

func TestReaderObserverAndCallback(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString("a\x1b[<0;1;1M\xff")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	obs := &recordingObserver{}
	var seen []string
	r := NewReader(Options{Source: src, Observer: obs})
	r.OnEvent = func(ev event.Event) { seen = append(seen, ev.String()) }
	require.NoError(t, r.Start(context.Background()))
	collect(t, r)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []string{"keyboard", "mouse", "unknown"}, obs.kinds)
	assert.Equal(t, len("a\x1b[<0;1;1M\xff"), obs.consumed)
	assert.Equal(t, []string{"a", "MouseLeftPress@0,0", "Unknown(ff)"}, seen)
}

func TestReaderLogsUnknownInput(t *testing.T) {
	core, logs := zapobserver.New(zapcore.DebugLevel)

	src := source.NewPipe()
	_, err := src.WriteString("\x1b[5Z")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	r := NewReader(Options{Source: src, Logger: zap.New(core)})
	require.NoError(t, r.Start(context.Background()))
	collect(t, r)

	entries := logs.FilterMessage("unrecognized input").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "1b5b355a", entries[0].ContextMap()["bytes"])
}

func TestReaderBufferFull(t *testing.T) {
	core, logs := zapobserver.New(zapcore.WarnLevel)

	src := source.NewPipe()
	_, err := src.WriteString("\x1bP" + strings.Repeat("a", BufferSize))
	require.NoError(t, err)

	obs := &recordingObserver{}
	r := NewReader(Options{Source: src, Observer: obs, Logger: zap.New(core)})
	err = r.Run(context.Background())
	assert.ErrorIs(t, err, ErrBufferFull)

	obs.mu.Lock()
	assert.Equal(t, 1, obs.bufferFull)
	obs.mu.Unlock()
	assert.Equal(t, 1, logs.FilterMessage("input buffer filled by a single unterminated sequence").Len())
}

func TestReaderToggleOptions(t *testing.T) {
	src := source.NewPipe()
	r := NewReader(Options{Source: src})
	require.NoError(t, r.Start(context.Background()))
	defer r.Stop()

	r.SetXtermExtendedUTF8Mouse(true)
	_, err := src.WriteString("\x1b[M \u0080" + "7")
	require.NoError(t, err)
	assert.Equal(t, event.MouseEvent{X: 95, Y: 22, Type: event.MousePress, Button: event.ButtonLeft}, <-r.Events())

	r.SetEmitDebugEvents(true)
	_, err = src.WriteString("k")
	require.NoError(t, err)
	assert.Equal(t, event.Key('k', 0), <-r.Events())
	assert.Equal(t, event.DebugEvent{Event: event.Key('k', 0), Bytes: []byte("k")}, <-r.Events())
}
