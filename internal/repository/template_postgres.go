package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
)

// Each save is an INSERT of a new version row; templates are never updated
// in place, so any stored version can be reopened in the editor.

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new PostgreSQL template repository
func NewTemplateRepository(db *sql.DB) domain.TemplateRepository {
	return &templateRepository{db: db}
}

const templateColumns = "id, name, version, document, created_at, updated_at"

func (r *templateRepository) CreateTemplate(ctx context.Context, template *emailbuilder.Template) error {
	now := time.Now().UTC()

	if template.Version == 0 {
		template.Version = 1
	}

	query := fmt.Sprintf(`
		INSERT INTO templates (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, templateColumns)

	_, err := r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Version,
		domain.TemplateDocument{Template: template},
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) GetTemplateByID(ctx context.Context, id string, version int64) (*emailbuilder.Template, error) {
	var query string
	var args []interface{}

	if version > 0 {
		query = fmt.Sprintf(`
			SELECT %s
			FROM templates
			WHERE id = $1 AND version = $2 AND deleted_at IS NULL
		`, templateColumns)
		args = []interface{}{id, version}
	} else {
		query = fmt.Sprintf(`
			SELECT %s
			FROM templates
			WHERE id = $1 AND deleted_at IS NULL
			ORDER BY version DESC
			LIMIT 1
		`, templateColumns)
		args = []interface{}{id}
	}

	row := r.db.QueryRowContext(ctx, query, args...)

	template, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

func (r *templateRepository) GetTemplateLatestVersion(ctx context.Context, id string) (int64, error) {
	query := `
		SELECT MAX(version)
		FROM templates
		WHERE id = $1 AND deleted_at IS NULL
	`

	var version sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&version)
	if err == sql.ErrNoRows {
		return 0, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get template latest version: %w", err)
	}
	if !version.Valid {
		return 0, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return version.Int64, nil
}

func (r *templateRepository) GetTemplates(ctx context.Context, search string) ([]*emailbuilder.Template, error) {
	// Only the latest version of each template appears in listings.
	latestVersionsCTE := `
		WITH latest_versions AS (
			SELECT id, MAX(version) as max_version
			FROM templates
			WHERE deleted_at IS NULL
			GROUP BY id
		)
	`

	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	selectBuilder := psql.Select(
		"t.id",
		"t.name",
		"t.version",
		"t.document",
		"t.created_at",
		"t.updated_at",
	).Prefix(latestVersionsCTE).
		From("templates t").
		Join("latest_versions lv ON t.id = lv.id AND t.version = lv.max_version").
		Where(sq.Eq{"t.deleted_at": nil}).
		OrderBy("t.updated_at DESC")

	if search != "" {
		selectBuilder = selectBuilder.Where(sq.ILike{"t.name": "%" + search + "%"})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}
	defer rows.Close()

	var templates []*emailbuilder.Template
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}
	return templates, nil
}

func (r *templateRepository) UpdateTemplate(ctx context.Context, template *emailbuilder.Template) error {
	latestVersion, err := r.GetTemplateLatestVersion(ctx, template.ID)
	if err != nil {
		return fmt.Errorf("failed to get template latest version: %w", err)
	}

	// A save is a new version row, never an overwrite.
	template.Version = latestVersion + 1
	now := time.Now().UTC()

	query := fmt.Sprintf(`
		INSERT INTO templates (%s)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, templateColumns)

	_, err = r.db.ExecContext(ctx, query,
		template.ID,
		template.Name,
		template.Version,
		domain.TemplateDocument{Template: template},
		template.Created,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, id string) error {
	// Soft delete every version.
	query := `UPDATE templates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return nil
}

// scanner abstracts over sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(s scanner) (*emailbuilder.Template, error) {
	var (
		id        string
		name      string
		version   int64
		document  domain.TemplateDocument
		createdAt time.Time
		updatedAt time.Time
	)

	if err := s.Scan(&id, &name, &version, &document, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if document.Template == nil {
		return nil, fmt.Errorf("template row %s has no document", id)
	}

	// Row columns are authoritative over the document copy.
	template := document.Template
	template.ID = id
	template.Name = name
	template.Version = version
	template.Created = createdAt
	template.LastModified = updatedAt
	return template, nil
}
