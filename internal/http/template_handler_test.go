package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/internal/repository"
	"github.com/mailforge/mailforge/internal/service"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
	"github.com/mailforge/mailforge/pkg/logger"
)

type recordingMailer struct {
	sent int
}

func (m *recordingMailer) SendTestEmail(to, subject, htmlBody string) error {
	m.sent++
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *recordingMailer) {
	t.Helper()

	m := &recordingMailer{}
	clock := emailbuilder.NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	svc := service.NewTemplateService(repository.NewMemoryTemplateRepository(), m, logger.NewTestLogger(t), clock)

	mux := http.NewServeMux()
	NewTemplateHandler(svc, logger.NewTestLogger(t)).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, m
}

func createTestTemplate(t *testing.T, server *httptest.Server, name string) *emailbuilder.Template {
	t.Helper()

	body, err := json.Marshal(domain.CreateTemplateRequest{Name: name, Author: "ana@example.com"})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/templates.create", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Template *emailbuilder.Template `json:"template"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotNil(t, result.Template)
	return result.Template
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestTemplateHandlerCreateAndGet(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Onboarding", created.Name)

	resp, err := http.Get(fmt.Sprintf("%s/api/templates.get?id=%s", server.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Template *emailbuilder.Template `json:"template"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, created.ID, result.Template.ID)
}

func TestTemplateHandlerGetMissingID(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/templates.get")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplateHandlerGetNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/templates.get?id=missing")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Template not found", result["error"])
}

func TestTemplateHandlerList(t *testing.T) {
	server, _ := newTestServer(t)

	createTestTemplate(t, server, "Onboarding")
	createTestTemplate(t, server, "Weekly digest")

	resp, err := http.Get(server.URL + "/api/templates.list?search=weekly")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Templates []*emailbuilder.Template `json:"templates"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Templates, 1)
	assert.Equal(t, "Weekly digest", result.Templates[0].Name)
}

func TestTemplateHandlerUpdate(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")
	created.Name = "Onboarding v2"
	doc, err := created.MarshalDocument()
	require.NoError(t, err)

	resp := postJSON(t, server.URL+"/api/templates.update", domain.UpdateTemplateRequest{
		ID:       created.ID,
		Author:   "ana@example.com",
		Document: doc,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Template *emailbuilder.Template `json:"template"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Onboarding v2", result.Template.Name)
	assert.Greater(t, result.Template.Version, created.Version)
}

func TestTemplateHandlerUpdateIDMismatch(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")
	doc, err := created.MarshalDocument()
	require.NoError(t, err)

	resp := postJSON(t, server.URL+"/api/templates.update", domain.UpdateTemplateRequest{
		ID:       "other-id",
		Document: doc,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplateHandlerAutoSave(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	// unchanged document: reported as not saved
	doc, err := created.MarshalDocument()
	require.NoError(t, err)
	resp := postJSON(t, server.URL+"/api/templates.autoSave", domain.AutoSaveTemplateRequest{
		ID:       created.ID,
		Document: doc,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Saved bool `json:"saved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Saved)

	changed, _ := emailbuilder.AddComponent(created, emailbuilder.ComponentText, nil, nil)
	doc, err = changed.MarshalDocument()
	require.NoError(t, err)
	resp = postJSON(t, server.URL+"/api/templates.autoSave", domain.AutoSaveTemplateRequest{
		ID:       created.ID,
		Document: doc,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Saved)
}

func TestTemplateHandlerDelete(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	resp := postJSON(t, server.URL+"/api/templates.delete", domain.DeleteTemplateRequest{ID: created.ID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(fmt.Sprintf("%s/api/templates.get?id=%s", server.URL, created.ID))
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
}

func TestTemplateHandlerCompile(t *testing.T) {
	server, _ := newTestServer(t)

	tpl := emailbuilder.NewTemplate("Preview")
	tpl.Subject = "Preview"
	withText, _ := emailbuilder.AddComponent(tpl, emailbuilder.ComponentText, nil, nil)
	doc, err := withText.MarshalDocument()
	require.NoError(t, err)

	resp := postJSON(t, server.URL+"/api/templates.compile", domain.CompileTemplateRequest{
		Document: doc,
		Format:   "html",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.CompileTemplateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Contains(t, result.HTML, "<!DOCTYPE html")
}

func TestTemplateHandlerCompileBadFormat(t *testing.T) {
	server, _ := newTestServer(t)

	tpl := emailbuilder.NewTemplate("Preview")
	doc, err := tpl.MarshalDocument()
	require.NoError(t, err)

	resp := postJSON(t, server.URL+"/api/templates.compile", domain.CompileTemplateRequest{
		Document: doc,
		Format:   "docx",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTemplateHandlerUndoRedo(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	created.Name = "Onboarding v2"
	doc, err := created.MarshalDocument()
	require.NoError(t, err)
	resp := postJSON(t, server.URL+"/api/templates.update", domain.UpdateTemplateRequest{
		ID:       created.ID,
		Document: doc,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, server.URL+"/api/templates.undo", domain.UndoTemplateRequest{ID: created.ID})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Template *emailbuilder.Template `json:"template"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Onboarding", result.Template.Name)

	redoResp := postJSON(t, server.URL+"/api/templates.redo", domain.RedoTemplateRequest{ID: created.ID})
	defer redoResp.Body.Close()
	require.Equal(t, http.StatusOK, redoResp.StatusCode)
	require.NoError(t, json.NewDecoder(redoResp.Body).Decode(&result))
	assert.Equal(t, "Onboarding v2", result.Template.Name)

	// cursor is at the newest entry, nothing further to redo
	again := postJSON(t, server.URL+"/api/templates.redo", domain.RedoTemplateRequest{ID: created.ID})
	defer again.Body.Close()
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestTemplateHandlerHistory(t *testing.T) {
	server, _ := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	resp, err := http.Get(fmt.Sprintf("%s/api/templates.history?id=%s", server.URL, created.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Entries []emailbuilder.HistoryEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.Len(t, result.Entries, 1)
	assert.Equal(t, "Initial version", result.Entries[0].Description)
}

func TestTemplateHandlerTestSend(t *testing.T) {
	server, m := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	resp := postJSON(t, server.URL+"/api/templates.testSend", domain.TestSendTemplateRequest{
		ID:        created.ID,
		Recipient: "reviewer@example.com",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, m.sent)
}

func TestTemplateHandlerTestSendInvalidRecipient(t *testing.T) {
	server, m := newTestServer(t)

	created := createTestTemplate(t, server, "Onboarding")

	resp := postJSON(t, server.URL+"/api/templates.testSend", domain.TestSendTemplateRequest{
		ID:        created.ID,
		Recipient: "not-an-email",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, m.sent)
}

func TestTemplateHandlerMethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/templates.create")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	postResp := postJSON(t, server.URL+"/api/templates.list", map[string]string{})
	defer postResp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, postResp.StatusCode)
}
