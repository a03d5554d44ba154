package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/internal/repository"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
	"github.com/mailforge/mailforge/pkg/logger"
)

type fakeMailer struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) SendTestEmail(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func newTestService(t *testing.T) (*TemplateService, *fakeMailer) {
	t.Helper()
	m := &fakeMailer{}
	clock := emailbuilder.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := NewTemplateService(repository.NewMemoryTemplateRepository(), m, logger.NewTestLogger(t), clock)
	return svc, m
}

func newServiceTemplate(t *testing.T, name string) *emailbuilder.Template {
	t.Helper()
	tpl := emailbuilder.NewTemplate(name)
	tpl.Subject = "Welcome {{first_name}}"
	tpl.CreatedBy = "ana@example.com"
	tpl.ModifiedBy = "ana@example.com"
	tpl.Settings.MergeTags = []emailbuilder.Variable{
		{Key: "first_name", Type: emailbuilder.VariableText, DefaultValue: "there"},
	}

	next, _ := emailbuilder.AddComponent(tpl, emailbuilder.ComponentContainer, nil, nil)
	return next
}

func TestTemplateServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	got, err := svc.GetTemplateByID(ctx, tpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", got.Name)
	assert.Equal(t, tpl.Version, got.Version)

	// creating seeds the history with the initial snapshot
	entries := svc.TemplateHistory(tpl.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, "Initial version", entries[0].Description)
	assert.False(t, entries[0].IsAutoSave)
}

func TestTemplateServiceGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetTemplateByID(context.Background(), "missing", 0)
	require.Error(t, err)

	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestTemplateServiceUpdateCreatesVersion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	renamed := tpl.Clone()
	renamed.Name = "Onboarding v2"
	require.NoError(t, svc.UpdateTemplate(ctx, renamed))

	latest, err := svc.GetTemplateByID(ctx, tpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding v2", latest.Name)
	assert.Equal(t, tpl.Version+1, latest.Version)

	// the original version row is still retrievable
	first, err := svc.GetTemplateByID(ctx, tpl.ID, tpl.Version)
	require.NoError(t, err)
	assert.Equal(t, "Onboarding", first.Name)
}

func TestTemplateServiceUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	tpl := newServiceTemplate(t, "Ghost")
	err := svc.UpdateTemplate(context.Background(), tpl)
	require.Error(t, err)

	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestTemplateServiceAutoSave(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	// unchanged template: no version row, no history entry
	saved, err := svc.AutoSaveTemplate(ctx, tpl)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Len(t, svc.TemplateHistory(tpl.ID), 1)

	changed, _ := emailbuilder.AddComponent(tpl, emailbuilder.ComponentText, nil, nil)
	saved, err = svc.AutoSaveTemplate(ctx, changed)
	require.NoError(t, err)
	assert.True(t, saved)

	entries := svc.TemplateHistory(tpl.ID)
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsAutoSave)

	latest, err := svc.GetTemplateByID(ctx, tpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, tpl.Version+1, latest.Version)
}

func TestTemplateServiceUndoRedo(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	renamed := tpl.Clone()
	renamed.Name = "Onboarding v2"
	require.NoError(t, svc.UpdateTemplate(ctx, renamed))

	undone, ok := svc.UndoTemplate(tpl.ID)
	require.True(t, ok)
	assert.Equal(t, "Onboarding", undone.Name)

	redone, ok := svc.RedoTemplate(tpl.ID)
	require.True(t, ok)
	assert.Equal(t, "Onboarding v2", redone.Name)

	_, ok = svc.RedoTemplate(tpl.ID)
	assert.False(t, ok)
}

func TestTemplateServiceDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))
	require.NoError(t, svc.DeleteTemplate(ctx, tpl.ID))

	_, err := svc.GetTemplateByID(ctx, tpl.ID, 0)
	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)

	// deleting drops the edit history as well
	assert.Empty(t, svc.TemplateHistory(tpl.ID))
}

func TestTemplateServiceCompile(t *testing.T) {
	svc, _ := newTestService(t)

	tpl := newServiceTemplate(t, "Onboarding")
	text, _ := emailbuilder.AddComponent(tpl, emailbuilder.ComponentText, nil, nil)
	doc, err := text.MarshalDocument()
	require.NoError(t, err)

	resp, err := svc.CompileTemplate(context.Background(), domain.CompileTemplateRequest{
		Document: doc,
		Format:   "html",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.HTML, "<!DOCTYPE html")
	assert.Nil(t, resp.Error)
}

func TestTemplateServiceCompileInvalidRequest(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CompileTemplate(context.Background(), domain.CompileTemplateRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document is required")
}

func TestTemplateServiceTestSend(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	err := svc.TestSendTemplate(ctx, domain.TestSendTemplateRequest{
		ID:        tpl.ID,
		Recipient: "reviewer@example.com",
		Data:      map[string]string{"first_name": "Ana"},
	})
	require.NoError(t, err)

	require.Len(t, m.sent, 1)
	assert.Equal(t, "reviewer@example.com", m.sent[0].To)
	assert.Equal(t, "Welcome Ana", m.sent[0].Subject)
	assert.Contains(t, m.sent[0].Body, "<!DOCTYPE html")
}

func TestTemplateServiceTestSendValidation(t *testing.T) {
	svc, m := newTestService(t)

	err := svc.TestSendTemplate(context.Background(), domain.TestSendTemplateRequest{
		ID:        "tpl-1",
		Recipient: "not-an-email",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid email")
	assert.Empty(t, m.sent)
}

func TestTemplateServiceTestSendMailerFailure(t *testing.T) {
	svc, m := newTestService(t)
	ctx := context.Background()
	m.err = errors.New("connection refused")

	tpl := newServiceTemplate(t, "Onboarding")
	require.NoError(t, svc.CreateTemplate(ctx, tpl))

	err := svc.TestSendTemplate(ctx, domain.TestSendTemplateRequest{
		ID:        tpl.ID,
		Recipient: "reviewer@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send test email")
}
