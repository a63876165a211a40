package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/phroun/termevents/event"
	"github.com/phroun/termevents/input"
)

func TestIsInterrupt(t *testing.T) {
	assert.True(t, isInterrupt(event.Key('c', event.ModCtrl)))
	assert.True(t, isInterrupt(event.Key('c', event.ModCtrl|event.ModNumLock)))
	assert.False(t, isInterrupt(event.DebugEvent{Event: event.Key('c', event.ModCtrl), Bytes: []byte{0x03}}))
	assert.False(t, isInterrupt(event.Key('c', 0)))
	assert.False(t, isInterrupt(event.Key('c', event.ModCtrl|event.ModShift)))
	assert.False(t, isInterrupt(event.FocusEvent{}))
}

func TestModes(t *testing.T) {
	assert.Equal(t, sessionModes, modes(options{mouse: true}))
	assert.Equal(t, []ansi.Mode{
		ansi.BracketedPasteMode,
		ansi.FocusEventMode,
		ansi.InBandResizeMode,
		ansi.LightDarkMode,
	}, modes(options{}))
}

func TestSetupAndTeardown(t *testing.T) {
	var out bytes.Buffer
	setup(&out, options{kitty: true, mouse: true})
	assert.Contains(t, out.String(), "\x1b[>1u")
	assert.Contains(t, out.String(), "\x1b[?2004;1004;1003;1006;2048;2031h")
	assert.Contains(t, out.String(), ansi.RequestPrimaryDeviceAttributes)

	out.Reset()
	teardown(&out, options{kitty: true})
	assert.Contains(t, out.String(), "\x1b[<1u")
	assert.Contains(t, out.String(), "\x1b[?2004;1004;2048;2031l")
	assert.NotContains(t, out.String(), "1003")
}

func TestPrintEventsStopsOnInterrupt(t *testing.T) {
	events := make(chan event.Event, 3)
	events <- event.Key('a', 0)
	events <- event.Key('c', event.ModCtrl)
	events <- event.Key('b', 0)

	var out bytes.Buffer
	printEvents(&out, events)
	assert.Equal(t, "keyboard: a\r\nkeyboard: C-c\r\n", out.String())
}

func TestIgnoreShutdown(t *testing.T) {
	assert.NoError(t, ignoreShutdown(context.Canceled))
	assert.NoError(t, ignoreShutdown(input.ErrStreamEnded))
	assert.ErrorIs(t, ignoreShutdown(input.ErrBufferFull), input.ErrBufferFull)
	assert.Error(t, ignoreShutdown(errors.New("boom")))
}
