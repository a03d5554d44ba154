package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
	"github.com/mailforge/mailforge/pkg/logger"
	"github.com/mailforge/mailforge/pkg/mailer"
)

// TemplateService orchestrates template persistence, rendering and the
// per-template edit history used for undo and redo.
type TemplateService struct {
	repo   domain.TemplateRepository
	mailer mailer.Mailer
	logger logger.Logger
	clock  emailbuilder.Clock

	mu        sync.Mutex
	histories map[string]*emailbuilder.History
}

// NewTemplateService creates a new template service. A nil clock falls back
// to the wall clock.
func NewTemplateService(repo domain.TemplateRepository, m mailer.Mailer, logger logger.Logger, clock emailbuilder.Clock) *TemplateService {
	return &TemplateService{
		repo:      repo,
		mailer:    m,
		logger:    logger,
		clock:     clock,
		histories: make(map[string]*emailbuilder.History),
	}
}

// historyFor returns the edit history for a template, creating it on first
// use. Histories are session state and are not persisted.
func (s *TemplateService) historyFor(id string) *emailbuilder.History {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[id]
	if !ok {
		h = emailbuilder.NewHistory(s.clock)
		s.histories[id] = h
	}
	return h
}

// CreateTemplate creates a new template
func (s *TemplateService) CreateTemplate(ctx context.Context, template *emailbuilder.Template) error {
	if err := s.repo.CreateTemplate(ctx, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to create template: %v", err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	s.historyFor(template.ID).Record(template, template.CreatedBy, "Initial version", false)
	return nil
}

// GetTemplateByID retrieves a template by ID; version 0 means latest
func (s *TemplateService) GetTemplateByID(ctx context.Context, id string, version int64) (*emailbuilder.Template, error) {
	template, err := s.repo.GetTemplateByID(ctx, id, version)
	if err != nil {
		if _, ok := err.(*domain.ErrTemplateNotFound); ok {
			return nil, err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to get template: %v", err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// GetTemplates retrieves all templates, optionally filtered by a name search
func (s *TemplateService) GetTemplates(ctx context.Context, search string) ([]*emailbuilder.Template, error) {
	templates, err := s.repo.GetTemplates(ctx, search)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to list templates: %v", err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// UpdateTemplate persists the template as a new version row and records a
// manual save in its history.
func (s *TemplateService) UpdateTemplate(ctx context.Context, template *emailbuilder.Template) error {
	if _, err := s.repo.GetTemplateByID(ctx, template.ID, 0); err != nil {
		if _, ok := err.(*domain.ErrTemplateNotFound); ok {
			return err
		}
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to get template: %v", err))
		return fmt.Errorf("failed to get template: %w", err)
	}

	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to update template: %v", err))
		return fmt.Errorf("failed to update template: %w", err)
	}

	s.historyFor(template.ID).Record(template, template.ModifiedBy, "", false)
	return nil
}

// AutoSaveTemplate records an auto-save history entry and, when the template
// actually changed since the last entry, persists a new version row. Returns
// whether a save happened; an unchanged template is a no-op.
func (s *TemplateService) AutoSaveTemplate(ctx context.Context, template *emailbuilder.Template) (bool, error) {
	if !s.historyFor(template.ID).Record(template, template.ModifiedBy, "", true) {
		return false, nil
	}

	if err := s.repo.UpdateTemplate(ctx, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to auto-save template: %v", err))
		return false, fmt.Errorf("failed to auto-save template: %w", err)
	}
	return true, nil
}

// UndoTemplate steps the template's history cursor back one entry and
// returns the snapshot at that position.
func (s *TemplateService) UndoTemplate(id string) (*emailbuilder.Template, bool) {
	return s.historyFor(id).Undo()
}

// RedoTemplate steps the template's history cursor forward one entry.
func (s *TemplateService) RedoTemplate(id string) (*emailbuilder.Template, bool) {
	return s.historyFor(id).Redo()
}

// TemplateHistory returns the recorded history entries for a template,
// oldest first.
func (s *TemplateService) TemplateHistory(id string) []emailbuilder.HistoryEntry {
	return s.historyFor(id).Entries()
}

// DeleteTemplate deletes a template and all of its versions
func (s *TemplateService) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if _, ok := err.(*domain.ErrTemplateNotFound); ok {
			return err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to delete template: %v", err))
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.mu.Lock()
	delete(s.histories, id)
	s.mu.Unlock()
	return nil
}

// CompileTemplate renders a document to the requested output format. A render
// failure is reported in the response body rather than as an error so the
// editor can surface it inline.
func (s *TemplateService) CompileTemplate(ctx context.Context, payload domain.CompileTemplateRequest) (*domain.CompileTemplateResponse, error) {
	template, opts, err := payload.Validate()
	if err != nil {
		return nil, err
	}

	html, err := emailbuilder.Render(template, opts)
	if err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to compile template: %v", err))
		msg := err.Error()
		return &domain.CompileTemplateResponse{
			Success: false,
			Error:   &msg,
		}, nil
	}

	return &domain.CompileTemplateResponse{
		Success: true,
		HTML:    html,
	}, nil
}

// TestSendTemplate renders a stored template with the supplied sample data
// and emails the result to the recipient.
func (s *TemplateService) TestSendTemplate(ctx context.Context, payload domain.TestSendTemplateRequest) error {
	if err := payload.Validate(); err != nil {
		return err
	}

	template, err := s.GetTemplateByID(ctx, payload.ID, payload.Version)
	if err != nil {
		return err
	}

	html, err := emailbuilder.Render(template, emailbuilder.RenderOptions{
		Format:           emailbuilder.FormatHTML,
		IncludePreheader: true,
		Data:             payload.Data,
	})
	if err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to render template for test send: %v", err))
		return fmt.Errorf("failed to render template: %w", err)
	}

	data := emailbuilder.MergeTagDefaults(template.Settings.MergeTags)
	for k, v := range payload.Data {
		data[k] = v
	}
	subject := emailbuilder.ResolveMergeTags(template.Subject, data)

	if err := s.mailer.SendTestEmail(payload.Recipient, subject, html); err != nil {
		s.logger.WithFields(map[string]interface{}{
			"template_id": template.ID,
			"recipient":   payload.Recipient,
		}).Error(fmt.Sprintf("Failed to send test email: %v", err))
		return fmt.Errorf("failed to send test email: %w", err)
	}
	return nil
}
