// Package notify holds the single user-visible notice. A new notice replaces
// the current one, and each notice dismisses itself after a timeout.
package notify

import (
	"sync"
	"time"

	"github.com/yildizm/NgramLens/internal/apperr"
)

// DefaultTimeout is how long a notice stays visible
const DefaultTimeout = 5 * time.Second

// Level is the severity of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notice is one message shown to the user
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Shown   time.Time `json:"shown"`
	ID      uint64    `json:"id"`
}

// Center keeps at most one visible notice
type Center struct {
	mu        sync.Mutex
	timeout   time.Duration
	current   *Notice
	seq       uint64
	timer     *time.Timer
	listeners []func(Notice, bool)
}

// NewCenter creates a notification center; timeout <= 0 uses DefaultTimeout
func NewCenter(timeout time.Duration) *Center {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Center{timeout: timeout}
}

// Show replaces the visible notice and schedules its dismissal
func (c *Center) Show(level Level, message string) Notice {
	c.mu.Lock()
	c.seq++
	notice := Notice{Level: level, Message: message, Shown: time.Now(), ID: c.seq}
	c.current = &notice

	if c.timer != nil {
		c.timer.Stop()
	}
	id := notice.ID
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(id) })
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(notice, true)
	}
	return notice
}

// Error shows the user-facing message of err as a danger notice
func (c *Center) Error(err error) Notice {
	return c.Show(LevelDanger, apperr.UserMessage(err))
}

// Success shows a success notice
func (c *Center) Success(message string) Notice {
	return c.Show(LevelSuccess, message)
}

// Current returns the visible notice, if any
func (c *Center) Current() (Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return Notice{}, false
	}
	return *c.current, true
}

// Dismiss hides the visible notice
func (c *Center) Dismiss() {
	c.mu.Lock()
	if c.current == nil {
		c.mu.Unlock()
		return
	}
	c.dismissLocked()
}

// Subscribe registers fn to run on every show (visible=true) and dismiss
func (c *Center) Subscribe(fn func(notice Notice, visible bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// expire dismisses notice id unless a newer notice already replaced it
func (c *Center) expire(id uint64) {
	c.mu.Lock()
	if c.current == nil || c.current.ID != id {
		c.mu.Unlock()
		return
	}
	c.dismissLocked()
}

// dismissLocked must be called with mu held; it releases mu
func (c *Center) dismissLocked() {
	notice := *c.current
	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	listeners := c.snapshotListeners()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(notice, false)
	}
}

func (c *Center) snapshotListeners() []func(Notice, bool) {
	return append([]func(Notice, bool){}, c.listeners...)
}
