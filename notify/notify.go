// Package notify carries the transient toast notifications views emit after an operation.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is a short-lived toast. Timer is how long it stays on screen.
type Notification struct {
	Title string        `json:"title"`
	Text  string        `json:"text,omitempty"`
	Level Level         `json:"level"`
	Timer time.Duration `json:"timer"`
}

// TimerMillis is the display time in milliseconds, as the browser expects it.
func (n Notification) TimerMillis() int64 {
	return n.Timer.Milliseconds()
}

type Notifier interface {
	Notify(n Notification)
}

func Success(title string, timer time.Duration) Notification {
	return Notification{Title: title, Level: LevelSuccess, Timer: timer}
}

func Error(title string, timer time.Duration) Notification {
	return Notification{Title: title, Level: LevelError, Timer: timer}
}

func Warning(title string, timer time.Duration) Notification {
	return Notification{Title: title, Level: LevelWarning, Timer: timer}
}

func Info(title string, timer time.Duration) Notification {
	return Notification{Title: title, Level: LevelInfo, Timer: timer}
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) {}

// Recorder keeps notifications in memory, in the order they were emitted.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

var _ Notifier = (*Recorder)(nil)

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns a copy of everything recorded so far.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}
