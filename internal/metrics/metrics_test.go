package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phroun/termevents/event"
	"github.com/phroun/termevents/input"
	"github.com/phroun/termevents/source"
)

var _ input.Observer = (*Metrics)(nil)

func TestObserveEvent(t *testing.T) {
	m := New()
	m.ObserveEvent(event.Key('a', 0), 1)
	m.ObserveEvent(event.Key(event.KeyUp, 0), 3)
	m.ObserveEvent(event.MouseEvent{}, 9)
	m.ObserveEvent(event.UnknownEvent{Bytes: []byte("\x1b[5Z")}, 4)
	m.ObserveBufferFull()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("keyboard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("mouse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("unknown")))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.BytesTotal))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.UnknownBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BufferFullTotal))
}

func TestObserveReader(t *testing.T) {
	src := source.NewPipe()
	_, err := src.WriteString("ab\x1b[I\x1b[5Z")
	require.NoError(t, err)
	require.NoError(t, src.Close())

	m := New()
	r := input.NewReader(input.Options{Source: src, Observer: m})
	assert.ErrorIs(t, r.Run(context.Background()), input.ErrStreamEnded)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("keyboard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("focus")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("unknown")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.BytesTotal))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveEvent(event.FocusEvent{Focused: true}, 3)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `termevents_events_total{kind="focus"} 1`)
	assert.Contains(t, string(body), "termevents_input_bytes_total 3")
}
