package service

import (
	"context"
	"sync"
	"time"

	"github.com/mailforge/mailforge/pkg/emailbuilder"
)

// DefaultAutoSaveInterval is how often an open editor session persists its
// working copy.
const DefaultAutoSaveInterval = 30 * time.Second

// EditorSession holds the working copy of one open template. Staged edits
// are broadcast on the collaboration channel immediately and persisted by
// the periodic auto-save tick; the auto-save itself is a no-op while the
// working copy is unchanged.
type EditorSession struct {
	service   *TemplateService
	scheduler emailbuilder.Scheduler
	channel   emailbuilder.CollaborationChannel
	clock     emailbuilder.Clock

	mu      sync.Mutex
	current *emailbuilder.Template
	stop    func()
}

// NewEditorSession opens a session on the given template. A nil scheduler
// uses a ticker, a nil channel drops collaboration events.
func NewEditorSession(svc *TemplateService, template *emailbuilder.Template, scheduler emailbuilder.Scheduler, channel emailbuilder.CollaborationChannel) *EditorSession {
	if scheduler == nil {
		scheduler = emailbuilder.NewTickerScheduler()
	}
	if channel == nil {
		channel = emailbuilder.NoopCollaborationChannel{}
	}
	clock := svc.clock
	if clock == nil {
		clock = emailbuilder.NewClock()
	}
	return &EditorSession{
		service:   svc,
		scheduler: scheduler,
		channel:   channel,
		clock:     clock,
		current:   template.Clone(),
	}
}

// Stage replaces the working copy and broadcasts the resulting changes.
// It does not persist anything; persistence happens on the auto-save tick
// or an explicit save.
func (s *EditorSession) Stage(template *emailbuilder.Template) {
	s.mu.Lock()
	prev := s.current
	s.current = template.Clone()
	next := s.current
	s.mu.Unlock()

	changes := emailbuilder.DiffTemplates(prev, next, s.clock.Now(), template.ModifiedBy)
	if len(changes) == 0 {
		return
	}
	_ = s.channel.Send(emailbuilder.CollaborationEvent{
		TemplateID: template.ID,
		Author:     template.ModifiedBy,
		Changes:    changes,
		At:         s.clock.Now(),
	})
}

// Current returns a copy of the working document.
func (s *EditorSession) Current() *emailbuilder.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Start begins the periodic auto-save. Calling Start twice restarts the
// interval.
func (s *EditorSession) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultAutoSaveInterval
	}

	s.mu.Lock()
	if s.stop != nil {
		s.stop()
	}
	s.stop = s.scheduler.Every(interval, func() {
		_, _ = s.service.AutoSaveTemplate(ctx, s.Current())
	})
	s.mu.Unlock()
}

// Close stops the auto-save tick. The working copy is not persisted; callers
// save explicitly before closing if they want the last edits kept.
func (s *EditorSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}
