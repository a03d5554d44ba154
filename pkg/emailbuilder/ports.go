package emailbuilder

import (
	"sync"
	"time"
)

// Scheduler runs a callback at a fixed interval. The core never touches a
// concrete timer; callers inject a ticker-backed scheduler in production and
// a manual one in tests.
type Scheduler interface {
	// Every invokes fn every interval until the returned stop function is
	// called. fn runs on the scheduler's goroutine.
	Every(interval time.Duration, fn func()) (stop func())
}

type tickerScheduler struct{}

// NewTickerScheduler returns a Scheduler backed by time.Ticker.
func NewTickerScheduler() Scheduler {
	return tickerScheduler{}
}

func (tickerScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler is a Scheduler for tests: registered callbacks only run
// when Tick is called.
type ManualScheduler struct {
	mu  sync.Mutex
	fns map[int]func()
	seq int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{fns: make(map[int]func())}
}

func (s *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq
	s.seq++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.fns, id)
	}
}

// Tick runs every registered callback once.
func (s *ManualScheduler) Tick() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// CollaborationEvent describes a batch of changes one editor made to a
// template, for broadcast to other open editors.
type CollaborationEvent struct {
	TemplateID string    `json:"templateId"`
	Author     string    `json:"author,omitempty"`
	Changes    []Change  `json:"changes"`
	At         time.Time `json:"at"`
}

// CollaborationChannel is the transport port for multi-editor sessions.
// The core only defines the port; a real transport is out of scope and the
// no-op channel stands in for it.
type CollaborationChannel interface {
	Send(event CollaborationEvent) error
	Receive() <-chan CollaborationEvent
}

// NoopCollaborationChannel drops every event and never delivers one.
type NoopCollaborationChannel struct{}

func (NoopCollaborationChannel) Send(CollaborationEvent) error { return nil }

func (NoopCollaborationChannel) Receive() <-chan CollaborationEvent { return nil }
