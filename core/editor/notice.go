package editor

import (
	"sync"
	"time"
)

// NoticeDuration is how long a message stays visible.
const NoticeDuration = 3 * time.Second

// Scheduler runs fn once after d.
type Scheduler func(d time.Duration, fn func())

func afterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Notice holds the single user-facing message. Each message clears itself
// after NoticeDuration unless a newer one replaced it first.
type Notice struct {
	mu       sync.Mutex
	text     string
	gen      uint64
	schedule Scheduler
	onChange func(string)
}

// NewNotice creates a Notice. A nil schedule uses time.AfterFunc.
func NewNotice(schedule Scheduler) *Notice {
	if schedule == nil {
		schedule = afterFunc
	}
	return &Notice{schedule: schedule}
}

// OnChange registers fn to receive the message whenever it changes.
func (n *Notice) OnChange(fn func(string)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChange = fn
}

// Notify shows message and schedules its removal.
func (n *Notice) Notify(message string) {
	n.mu.Lock()
	n.gen++
	gen := n.gen
	n.text = message
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn(message)
	}
	n.schedule(NoticeDuration, func() { n.expire(gen) })
}

// Clear removes the message immediately.
func (n *Notice) Clear() {
	n.mu.Lock()
	n.gen++
	changed := n.text != ""
	n.text = ""
	fn := n.onChange
	n.mu.Unlock()

	if changed && fn != nil {
		fn("")
	}
}

// Text returns the visible message.
func (n *Notice) Text() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.text
}

func (n *Notice) expire(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.text = ""
	fn := n.onChange
	n.mu.Unlock()

	if fn != nil {
		fn("")
	}
}
