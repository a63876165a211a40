// Command termevents puts the terminal in raw mode and prints every decoded
// input event until Ctrl+C is pressed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phroun/termevents/event"
	"github.com/phroun/termevents/input"
	"github.com/phroun/termevents/internal/config"
	"github.com/phroun/termevents/internal/logging"
	"github.com/phroun/termevents/internal/metrics"
	"github.com/phroun/termevents/source"
)

// Terminal modes enabled for the session and reset on exit.
var sessionModes = []ansi.Mode{
	ansi.BracketedPasteMode,
	ansi.FocusEventMode,
	ansi.AnyEventMouseMode,
	ansi.SgrExtMouseMode,
	ansi.InBandResizeMode,
	ansi.LightDarkMode,
}

// Queries sent once at startup; their answers show up as report events.
var startupQueries = []string{
	ansi.RequestPrimaryDeviceAttributes,
	ansi.RequestNameVersion,
	ansi.RequestKittyKeyboard,
	ansi.RequestForegroundColor,
	ansi.RequestBackgroundColor,
	ansi.RequestLightDarkReport,
	ansi.XTGETTCAP("TN", "colors"),
}

func main() {
	cfg := config.LoadOrDefault()

	kittyMode := flag.Bool("kitty", cfg.KittyDisambiguate, "Enable Kitty keyboard protocol (disambiguate escape codes)")
	kittyFull := flag.Bool("kitty-full", false, "Enable Kitty keyboard protocol with all flags")
	mouseMode := flag.Bool("mouse", true, "Enable mouse reporting (SGR mode)")
	debugMode := flag.Bool("debug", cfg.DebugEvents, "Show the raw bytes behind every event")
	utf8Mouse := flag.Bool("utf8-mouse", cfg.UTF8Mouse, "Decode X10 mouse reports as UTF-8 (mode 1005)")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(logging.Config{
		Level:       *logLevel,
		Development: cfg.LogDevelopment,
		OutputPaths: []string{cfg.LogPath},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := options{
		kitty:       *kittyMode || *kittyFull,
		kittyFull:   *kittyFull,
		mouse:       *mouseMode,
		debug:       *debugMode,
		utf8Mouse:   *utf8Mouse,
		metricsAddr: *metricsAddr,
		eventBuffer: cfg.EventBuffer,
	}
	if err := run(context.Background(), opts, logger); err != nil {
		logger.Error("termevents failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "termevents: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	kitty       bool
	kittyFull   bool
	mouse       bool
	debug       bool
	utf8Mouse   bool
	metricsAddr string
	eventBuffer int
}

func run(ctx context.Context, opts options, logger *zap.Logger) error {
	tty, err := source.OpenTTY()
	if err != nil {
		logger.Warn("no controlling terminal, reading stdin", zap.Error(err))
		return runStream(ctx, opts, logger)
	}
	defer tty.Close()

	if err := tty.EnableRawMode(); err != nil {
		return err
	}
	defer tty.Restore()

	out := tty.File()
	setup(out, opts)
	defer teardown(out, opts)

	fmt.Fprint(out, "Press keys (Ctrl+C to exit):\r\n")
	if size, err := tty.Size(); err == nil {
		fmt.Fprintf(out, "%s\r\n", size)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	reader, m := newReader(tty, opts, logger)

	g.Go(func() error {
		return ignoreShutdown(reader.Run(ctx))
	})
	g.Go(func() error {
		return tty.WatchResize(ctx, func(size event.ResizeEvent) {
			logger.Debug("terminal resized", zap.Int("rows", size.Rows), zap.Int("cols", size.Cols))
		})
	})
	if opts.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(ctx, opts.metricsAddr, m, logger)
		})
	}
	g.Go(func() error {
		defer cancel()
		printEvents(out, reader.Events())
		return nil
	})

	return g.Wait()
}

// runStream is used when there is no terminal to put in raw mode, e.g. when
// input is piped in.
func runStream(ctx context.Context, opts options, logger *zap.Logger) error {
	stream, err := source.NewStream(os.Stdin)
	if err != nil {
		return err
	}
	defer stream.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	reader, _ := newReader(stream, opts, logger)

	g.Go(func() error {
		return ignoreShutdown(reader.Run(ctx))
	})
	g.Go(func() error {
		defer cancel()
		printEvents(os.Stdout, reader.Events())
		return nil
	})
	return g.Wait()
}

func newReader(src input.ByteSource, opts options, logger *zap.Logger) (*input.Reader, *metrics.Metrics) {
	m := metrics.New()
	reader := input.NewReader(input.Options{
		Source:                       src,
		KittyDisambiguateEscapeCodes: opts.kitty,
		XtermExtendedUTF8Mouse:       opts.utf8Mouse,
		EmitDebugEvents:              opts.debug,
		EventBufferSize:              opts.eventBuffer,
		Logger:                       logger,
		Observer:                     m,
	})
	return reader, m
}

// printEvents writes one event per line until Ctrl+C or the end of input.
func printEvents(w io.Writer, events <-chan event.Event) {
	for ev := range events {
		fmt.Fprintf(w, "%s: %s\r\n", event.Kind(ev), ev)
		if isInterrupt(ev) {
			return
		}
	}
}

func isInterrupt(ev event.Event) bool {
	key, ok := ev.(event.KeyboardEvent)
	return ok && key.Codepoint == 'c' && key.Modifiers&^(event.ModCapsLock|event.ModNumLock) == event.ModCtrl
}

func ignoreShutdown(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, input.ErrStreamEnded) {
		return nil
	}
	return err
}

func setup(w io.Writer, opts options) {
	if opts.kittyFull {
		fmt.Fprint(w, ansi.PushKittyKeyboard(ansi.KittyAllFlags))
	} else if opts.kitty {
		fmt.Fprint(w, ansi.PushKittyKeyboard(ansi.KittyDisambiguateEscapeCodes))
	}
	fmt.Fprint(w, ansi.SetMode(modes(opts)...))
	for _, q := range startupQueries {
		fmt.Fprint(w, q)
	}
}

func teardown(w io.Writer, opts options) {
	fmt.Fprint(w, ansi.ResetMode(modes(opts)...))
	if opts.kitty {
		fmt.Fprint(w, ansi.PopKittyKeyboard(1))
	}
}

func modes(opts options) []ansi.Mode {
	if opts.mouse {
		return sessionModes
	}
	var m []ansi.Mode
	for _, mode := range sessionModes {
		if mode != ansi.AnyEventMouseMode && mode != ansi.SgrExtMouseMode {
			m = append(m, mode)
		}
	}
	return m
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
