package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/asaskevich/govalidator"

	"github.com/mailforge/mailforge/pkg/emailbuilder"
)

// TemplateDocument wraps a template for storage in a JSONB column.
type TemplateDocument struct {
	*emailbuilder.Template
}

// Scan implements the sql.Scanner interface.
func (d *TemplateDocument) Scan(val interface{}) error {
	var data []byte

	if b, ok := val.([]byte); ok {
		// The driver reuses the backing byte slice for later queries, so the
		// bytes must be cloned before they leave this call.
		data = bytes.Clone(b)
	} else if s, ok := val.(string); ok {
		data = []byte(s)
	} else if val == nil {
		return nil
	}

	var t emailbuilder.Template
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("failed to scan template document: %w", err)
	}
	d.Template = &t
	return nil
}

// Value implements the driver.Valuer interface.
func (d TemplateDocument) Value() (driver.Value, error) {
	if d.Template == nil {
		return nil, nil
	}
	return json.Marshal(d.Template)
}

// Request/Response types

type CreateTemplateRequest struct {
	Name     string          `json:"name"`
	Subject  string          `json:"subject,omitempty"`
	Author   string          `json:"author,omitempty"`
	Document json.RawMessage `json:"document,omitempty"`
}

func (r *CreateTemplateRequest) Validate() (*emailbuilder.Template, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("invalid create template request: name is required")
	}
	if len(r.Name) > 255 {
		return nil, fmt.Errorf("invalid create template request: name length must be between 1 and 255")
	}

	if len(r.Document) > 0 {
		template, err := emailbuilder.LoadTemplate(r.Document)
		if err != nil {
			return nil, fmt.Errorf("invalid create template request: %w", err)
		}
		template.Name = r.Name
		if r.Subject != "" {
			template.Subject = r.Subject
		}
		template.CreatedBy = r.Author
		template.ModifiedBy = r.Author
		return template, nil
	}

	template := emailbuilder.NewTemplate(r.Name)
	template.Subject = r.Subject
	template.CreatedBy = r.Author
	template.ModifiedBy = r.Author
	return template, nil
}

type GetTemplatesRequest struct {
	Search string `json:"search,omitempty"`
}

func (r *GetTemplatesRequest) FromURLParams(queryParams url.Values) error {
	r.Search = queryParams.Get("search")
	if len(r.Search) > 255 {
		return fmt.Errorf("invalid get templates request: search length must be between 0 and 255")
	}
	return nil
}

type GetTemplateRequest struct {
	ID      string `json:"id"`
	Version int64  `json:"version,omitempty"`
}

func (r *GetTemplateRequest) FromURLParams(queryParams url.Values) error {
	r.ID = queryParams.Get("id")
	versionStr := queryParams.Get("version")

	if r.ID == "" {
		return fmt.Errorf("invalid get template request: id is required")
	}

	if versionStr != "" {
		version, err := strconv.ParseInt(versionStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid get template request: version must be a valid integer")
		}
		if version < 0 {
			return fmt.Errorf("invalid get template request: version must be zero or positive")
		}
		r.Version = version
	}

	return nil
}

type UpdateTemplateRequest struct {
	ID       string          `json:"id"`
	Author   string          `json:"author,omitempty"`
	Document json.RawMessage `json:"document"`
}

func (r *UpdateTemplateRequest) Validate() (*emailbuilder.Template, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("invalid update template request: id is required")
	}
	if len(r.Document) == 0 {
		return nil, fmt.Errorf("invalid update template request: document is required")
	}

	template, err := emailbuilder.LoadTemplate(r.Document)
	if err != nil {
		return nil, fmt.Errorf("invalid update template request: %w", err)
	}
	if template.ID != r.ID {
		return nil, fmt.Errorf("invalid update template request: document id %q does not match request id %q", template.ID, r.ID)
	}
	template.ModifiedBy = r.Author
	return template, nil
}

type DeleteTemplateRequest struct {
	ID string `json:"id"`
}

func (r *DeleteTemplateRequest) Validate() (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("invalid delete template request: id is required")
	}
	return r.ID, nil
}

// AutoSaveTemplateRequest is the periodic background save the editor issues
// while a template is open. Unlike an update it is a no-op when nothing
// changed since the last history entry.
type AutoSaveTemplateRequest struct {
	ID       string          `json:"id"`
	Author   string          `json:"author,omitempty"`
	Document json.RawMessage `json:"document"`
}

func (r *AutoSaveTemplateRequest) Validate() (*emailbuilder.Template, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("invalid auto-save request: id is required")
	}
	if len(r.Document) == 0 {
		return nil, fmt.Errorf("invalid auto-save request: document is required")
	}

	template, err := emailbuilder.LoadTemplate(r.Document)
	if err != nil {
		return nil, fmt.Errorf("invalid auto-save request: %w", err)
	}
	if template.ID != r.ID {
		return nil, fmt.Errorf("invalid auto-save request: document id %q does not match request id %q", template.ID, r.ID)
	}
	template.ModifiedBy = r.Author
	return template, nil
}

// UndoTemplateRequest steps a template's session history back one entry.
type UndoTemplateRequest struct {
	ID string `json:"id"`
}

func (r *UndoTemplateRequest) Validate() (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("invalid undo request: id is required")
	}
	return r.ID, nil
}

// RedoTemplateRequest steps a template's session history forward one entry.
type RedoTemplateRequest struct {
	ID string `json:"id"`
}

func (r *RedoTemplateRequest) Validate() (string, error) {
	if r.ID == "" {
		return "", fmt.Errorf("invalid redo request: id is required")
	}
	return r.ID, nil
}

// GetTemplateHistoryRequest lists the recorded history entries of a template.
type GetTemplateHistoryRequest struct {
	ID string
}

func (r *GetTemplateHistoryRequest) FromURLParams(queryParams url.Values) error {
	r.ID = queryParams.Get("id")
	if r.ID == "" {
		return fmt.Errorf("invalid get template history request: id is required")
	}
	return nil
}

// CompileTemplateRequest renders a document without persisting it: the
// preview and export path of the visual editor.
type CompileTemplateRequest struct {
	Document         json.RawMessage   `json:"document"`
	Format           string            `json:"format,omitempty"` // html, amp, mjml
	Minify           bool              `json:"minify,omitempty"`
	InlineCSS        bool              `json:"inlineCss,omitempty"`
	RemoveComments   bool              `json:"removeComments,omitempty"`
	IncludePreheader bool              `json:"includePreheader,omitempty"`
	ESP              string            `json:"esp,omitempty"`
	Data             map[string]string `json:"data,omitempty"`
}

func (r *CompileTemplateRequest) Validate() (*emailbuilder.Template, emailbuilder.RenderOptions, error) {
	var opts emailbuilder.RenderOptions

	if len(r.Document) == 0 {
		return nil, opts, fmt.Errorf("invalid compile template request: document is required")
	}
	template, err := emailbuilder.LoadTemplate(r.Document)
	if err != nil {
		return nil, opts, fmt.Errorf("invalid compile template request: %w", err)
	}

	switch r.Format {
	case "", string(emailbuilder.FormatHTML):
		opts.Format = emailbuilder.FormatHTML
	case string(emailbuilder.FormatAMP):
		opts.Format = emailbuilder.FormatAMP
	case string(emailbuilder.FormatMJML):
		opts.Format = emailbuilder.FormatMJML
	default:
		return nil, opts, fmt.Errorf("invalid compile template request: unknown format %q", r.Format)
	}

	if r.ESP != "" && !emailbuilder.KnownESP(emailbuilder.ESPID(r.ESP)) {
		return nil, opts, fmt.Errorf("invalid compile template request: unknown esp %q", r.ESP)
	}

	opts.Minify = r.Minify
	opts.InlineCSS = r.InlineCSS
	opts.RemoveComments = r.RemoveComments
	opts.IncludePreheader = r.IncludePreheader
	opts.ESPID = emailbuilder.ESPID(r.ESP)
	opts.Data = r.Data
	return template, opts, nil
}

type CompileTemplateResponse struct {
	Success bool    `json:"success"`
	HTML    string  `json:"html,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// TestSendTemplateRequest delivers a rendered template to a real inbox for
// visual inspection.
type TestSendTemplateRequest struct {
	ID        string            `json:"id"`
	Version   int64             `json:"version,omitempty"`
	Recipient string            `json:"recipient"`
	Data      map[string]string `json:"data,omitempty"`
}

func (r *TestSendTemplateRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("invalid test send request: id is required")
	}
	if r.Recipient == "" {
		return fmt.Errorf("invalid test send request: recipient is required")
	}
	if !govalidator.IsEmail(r.Recipient) {
		return fmt.Errorf("invalid test send request: recipient is not a valid email")
	}
	if r.Version < 0 {
		return fmt.Errorf("invalid test send request: version must be zero or positive")
	}
	return nil
}

// TemplateService provides operations for managing templates
type TemplateService interface {
	// CreateTemplate creates a new template
	CreateTemplate(ctx context.Context, template *emailbuilder.Template) error

	// GetTemplateByID retrieves a template by ID and optional version
	GetTemplateByID(ctx context.Context, id string, version int64) (*emailbuilder.Template, error)

	// GetTemplates retrieves all templates, optionally filtered by a name search
	GetTemplates(ctx context.Context, search string) ([]*emailbuilder.Template, error)

	// UpdateTemplate updates an existing template, recording the change
	UpdateTemplate(ctx context.Context, template *emailbuilder.Template) error

	// AutoSaveTemplate persists the template only when it changed since the
	// last history entry; returns whether a save happened
	AutoSaveTemplate(ctx context.Context, template *emailbuilder.Template) (bool, error)

	// UndoTemplate steps the template's session history back one entry
	UndoTemplate(id string) (*emailbuilder.Template, bool)

	// RedoTemplate steps the template's session history forward one entry
	RedoTemplate(id string) (*emailbuilder.Template, bool)

	// TemplateHistory returns the recorded history entries, oldest first
	TemplateHistory(id string) []emailbuilder.HistoryEntry

	// DeleteTemplate deletes a template by ID
	DeleteTemplate(ctx context.Context, id string) error

	// CompileTemplate renders a document to the requested output format
	CompileTemplate(ctx context.Context, payload CompileTemplateRequest) (*CompileTemplateResponse, error)

	// TestSendTemplate renders a stored template and emails it to a recipient
	TestSendTemplate(ctx context.Context, payload TestSendTemplateRequest) error
}

// TemplateRepository provides database operations for templates
type TemplateRepository interface {
	// CreateTemplate creates a new template in the store
	CreateTemplate(ctx context.Context, template *emailbuilder.Template) error

	// GetTemplateByID retrieves a template by its ID and optional version;
	// version 0 means latest
	GetTemplateByID(ctx context.Context, id string, version int64) (*emailbuilder.Template, error)

	// GetTemplateLatestVersion retrieves the latest stored version of a template
	GetTemplateLatestVersion(ctx context.Context, id string) (int64, error)

	// GetTemplates retrieves all templates, optionally filtered by a name search
	GetTemplates(ctx context.Context, search string) ([]*emailbuilder.Template, error)

	// UpdateTemplate updates an existing template, creating a new version row
	UpdateTemplate(ctx context.Context, template *emailbuilder.Template) error

	// DeleteTemplate deletes a template and all of its versions
	DeleteTemplate(ctx context.Context, id string) error
}

// ErrTemplateNotFound is returned when a template is not found
type ErrTemplateNotFound struct {
	Message string
}

func (e *ErrTemplateNotFound) Error() string {
	return e.Message
}
