package session

import "sync"

// Change is delivered to subscribers whenever the session reference changes.
// Version increases by one with every change, starting at 0 for the initial nil session.
type Change struct {
	Session *Session
	Version uint64
}

// Context holds the current session and notifies subscribers of transitions.
type Context struct {
	mu      sync.Mutex
	current *Session
	version uint64
	nextID  int
	subs    map[int]func(Change)
}

// NewContext returns a Context with no session.
func NewContext() *Context {
	return &Context{subs: make(map[int]func(Change))}
}

// Current returns the current session and its version.
func (c *Context) Current() Change {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Change{Session: c.current, Version: c.version}
}

// Set replaces the current session. Setting the same reference again is not a change.
func (c *Context) Set(s *Session) {
	c.mu.Lock()
	if s == c.current {
		c.mu.Unlock()
		return
	}
	c.current = s
	c.version++
	change := Change{Session: s, Version: c.version}
	subs := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

// Subscribe registers fn and immediately calls it with the current value.
// The returned function unsubscribes; calling it more than once is harmless.
func (c *Context) Subscribe(fn func(Change)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	current := Change{Session: c.current, Version: c.version}
	c.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}
