package input

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/phroun/termevents/event"
)

// ErrAlreadyStarted is returned when Start or Run is called on a Reader that
// has already been started. A Reader runs at most once.
var ErrAlreadyStarted = errors.New("reader already started")

// DefaultEventBufferSize is the capacity of the Events channel unless
// Options.EventBufferSize says otherwise.
const DefaultEventBufferSize = 64

// Observer is notified of every event a Reader decodes, before delivery.
// Implementations must be safe for use from the Reader's goroutine.
type Observer interface {
	// ObserveEvent is called with each event and the number of input bytes
	// it consumed.
	ObserveEvent(ev event.Event, consumed int)
	// ObserveBufferFull is called when the Reader stops because of
	// ErrBufferFull.
	ObserveBufferFull()
}

// Options configures a Reader.
type Options struct {
	// Source supplies raw terminal input (required).
	Source ByteSource

	// KittyDisambiguateEscapeCodes skips the timed read used to tell a lone
	// Esc key press from the start of a sequence. Enable it only after
	// turning on the Kitty keyboard protocol's disambiguation flag.
	KittyDisambiguateEscapeCodes bool

	// XtermExtendedUTF8Mouse decodes X10 mouse reports as UTF-8 (mode 1005).
	XtermExtendedUTF8Mouse bool

	// EmitDebugEvents follows every delivered event with an event.DebugEvent
	// carrying the exact bytes it was decoded from.
	EmitDebugEvents bool

	// EventBufferSize is the capacity of the Events channel (default: 64).
	EventBufferSize int

	// Logger receives diagnostics (default: no logging).
	Logger *zap.Logger

	// Observer is notified of decoded events (optional).
	Observer Observer
}

// Reader decodes terminal input on its own goroutine and delivers events,
// in input order, on a channel.
type Reader struct {
	mu sync.Mutex

	source ByteSource
	parser *Parser
	events chan event.Event
	done   chan struct{}
	cancel context.CancelFunc

	// OnEvent is called with each event before it is sent on Events
	// (optional). It runs on the Reader's goroutine and must not block.
	OnEvent func(ev event.Event)

	logger         *zap.Logger
	observer       Observer
	unknownLimiter *rate.Limiter
	debugEvents    atomic.Bool

	started bool
	running bool
	err     error
}

// NewReader creates a Reader. Call Start or Run to begin decoding.
func NewReader(opts Options) *Reader {
	bufSize := opts.EventBufferSize
	if bufSize <= 0 {
		bufSize = DefaultEventBufferSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Reader{
		source:   opts.Source,
		parser:   NewParser(opts.Source),
		events:   make(chan event.Event, bufSize),
		done:     make(chan struct{}),
		logger:   logger,
		observer: opts.Observer,
		// A misbehaving terminal can produce unknown input continuously.
		unknownLimiter: rate.NewLimiter(rate.Every(time.Second), 10),
	}
	r.parser.SetKittyDisambiguateEscapeCodes(opts.KittyDisambiguateEscapeCodes)
	r.parser.SetXtermExtendedUTF8Mouse(opts.XtermExtendedUTF8Mouse)
	r.debugEvents.Store(opts.EmitDebugEvents)
	return r
}

// Events returns the channel events are delivered on. It is closed when the
// Reader stops.
func (r *Reader) Events() <-chan event.Event {
	return r.events
}

// Done is closed once the Reader has stopped.
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// Err returns the reason the Reader stopped: ErrStreamEnded, ErrBufferFull,
// the context's error, or a read failure from the source. It is nil while
// running.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// IsRunning returns true if the Reader is currently decoding input.
func (r *Reader) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// SetKittyDisambiguateEscapeCodes changes the option of the same name while
// running, for use after the terminal acknowledges the Kitty protocol.
func (r *Reader) SetKittyDisambiguateEscapeCodes(enabled bool) {
	r.parser.SetKittyDisambiguateEscapeCodes(enabled)
}

// SetXtermExtendedUTF8Mouse changes the option of the same name while running.
func (r *Reader) SetXtermExtendedUTF8Mouse(enabled bool) {
	r.parser.SetXtermExtendedUTF8Mouse(enabled)
}

// SetEmitDebugEvents changes the option of the same name while running.
func (r *Reader) SetEmitDebugEvents(enabled bool) {
	r.debugEvents.Store(enabled)
}

// Start begins decoding on a new goroutine.
func (r *Reader) Start(ctx context.Context) error {
	ctx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	go r.run(ctx)
	return nil
}

// Run decodes until ctx is done or the source fails or ends, and returns the
// same error as Err.
func (r *Reader) Run(ctx context.Context) error {
	ctx, err := r.begin(ctx)
	if err != nil {
		return err
	}
	return r.run(ctx)
}

// Stop cancels a running Reader and waits for it to finish. It returns nil
// if the Reader was never started.
func (r *Reader) Stop() error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.cancel()
	r.mu.Unlock()

	<-r.done
	return nil
}

func (r *Reader) begin(ctx context.Context) (context.Context, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil, ErrAlreadyStarted
	}
	r.started = true
	r.running = true

	ctx, r.cancel = context.WithCancel(ctx)
	return ctx, nil
}

func (r *Reader) run(ctx context.Context) error {
	defer r.cancel()

	// Reads block indefinitely, so cancellation has to wake the source.
	stop := context.AfterFunc(ctx, func() {
		if err := r.source.Interrupt(); err != nil {
			r.logger.Warn("failed to interrupt input source", zap.Error(err))
		}
	})

	r.logger.Debug("reader started")
	err := r.loop(ctx)
	stop()

	r.mu.Lock()
	r.running = false
	r.err = err
	r.mu.Unlock()

	close(r.events)
	close(r.done)
	r.logger.Debug("reader stopped", zap.Error(err))
	return err
}

func (r *Reader) loop(ctx context.Context) error {
	for {
		ev, consumed, err := r.parser.next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, ErrStreamEnded):
				// Whatever was left can no longer complete.
				if rest := r.parser.Buffered(); len(rest) > 0 {
					r.deliver(ctx, event.UnknownEvent{Bytes: rest}, rest)
				}
			case errors.Is(err, ErrBufferFull):
				r.logger.Warn("input buffer filled by a single unterminated sequence",
					zap.Int("buffered", BufferSize),
					zap.String("prefix", hex.EncodeToString(r.parser.Buffered()[:16])))
				if r.observer != nil {
					r.observer.ObserveBufferFull()
				}
			}
			return err
		}
		if !r.deliver(ctx, ev, consumed) {
			return ctx.Err()
		}
	}
}

// deliver sends ev to the consumer, reporting false if ctx ended first.
func (r *Reader) deliver(ctx context.Context, ev event.Event, consumed []byte) bool {
	if r.observer != nil {
		r.observer.ObserveEvent(ev, len(consumed))
	}
	if u, ok := ev.(event.UnknownEvent); ok && r.unknownLimiter.Allow() {
		r.logger.Debug("unrecognized input", zap.String("bytes", hex.EncodeToString(u.Bytes)))
	}
	if r.OnEvent != nil {
		r.OnEvent(ev)
	}
	if !r.send(ctx, ev) {
		return false
	}
	if r.debugEvents.Load() {
		return r.send(ctx, event.DebugEvent{Event: ev, Bytes: bytes.Clone(consumed)})
	}
	return true
}

func (r *Reader) send(ctx context.Context, ev event.Event) bool {
	select {
	case r.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
