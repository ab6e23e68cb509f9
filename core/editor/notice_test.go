package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualTimers collects scheduled callbacks so tests decide when they fire.
type manualTimers struct {
	pending []func()
	delays  []time.Duration
}

func (m *manualTimers) schedule(d time.Duration, fn func()) {
	m.delays = append(m.delays, d)
	m.pending = append(m.pending, fn)
}

func (m *manualTimers) fire(i int) {
	m.pending[i]()
}

func TestNotice_ExpiresAfterDuration(t *testing.T) {
	timers := &manualTimers{}
	n := NewNotice(timers.schedule)

	n.Notify("hello")
	assert.Equal(t, "hello", n.Text())
	require.Len(t, timers.pending, 1)
	assert.Equal(t, NoticeDuration, timers.delays[0])

	timers.fire(0)
	assert.Empty(t, n.Text())
}

func TestNotice_OlderTimerDoesNotClearNewerMessage(t *testing.T) {
	timers := &manualTimers{}
	n := NewNotice(timers.schedule)

	n.Notify("first")
	n.Notify("second")
	timers.fire(0)
	assert.Equal(t, "second", n.Text())

	timers.fire(1)
	assert.Empty(t, n.Text())
}

func TestNotice_ClearAndOnChange(t *testing.T) {
	timers := &manualTimers{}
	n := NewNotice(timers.schedule)
	var seen []string
	n.OnChange(func(s string) { seen = append(seen, s) })

	n.Notify("a")
	n.Clear()
	n.Clear()
	timers.fire(0)

	assert.Equal(t, []string{"a", ""}, seen)
}
