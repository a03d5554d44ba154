package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
)

// memoryTemplateRepository is a map-backed store with the same versioning
// semantics as the PostgreSQL repository. It backs dev mode and tests that
// want a real repository without a database.
type memoryTemplateRepository struct {
	mu       sync.RWMutex
	versions map[string][]*emailbuilder.Template // id -> versions ascending
}

// NewMemoryTemplateRepository creates an in-memory template repository.
func NewMemoryTemplateRepository() domain.TemplateRepository {
	return &memoryTemplateRepository{
		versions: make(map[string][]*emailbuilder.Template),
	}
}

func (r *memoryTemplateRepository) CreateTemplate(_ context.Context, template *emailbuilder.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if template.Version == 0 {
		template.Version = 1
	}
	r.versions[template.ID] = append(r.versions[template.ID], template.Clone())
	return nil
}

func (r *memoryTemplateRepository) GetTemplateByID(_ context.Context, id string, version int64) (*emailbuilder.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[id]
	if len(versions) == 0 {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}

	if version == 0 {
		return versions[len(versions)-1].Clone(), nil
	}
	for _, t := range versions {
		if t.Version == version {
			return t.Clone(), nil
		}
	}
	return nil, &domain.ErrTemplateNotFound{Message: "template version not found"}
}

func (r *memoryTemplateRepository) GetTemplateLatestVersion(_ context.Context, id string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.versions[id]
	if len(versions) == 0 {
		return 0, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return versions[len(versions)-1].Version, nil
}

func (r *memoryTemplateRepository) GetTemplates(_ context.Context, search string) ([]*emailbuilder.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*emailbuilder.Template
	for _, versions := range r.versions {
		if len(versions) == 0 {
			continue
		}
		latest := versions[len(versions)-1]
		if search != "" && !strings.Contains(strings.ToLower(latest.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, latest.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastModified.After(out[j].LastModified)
	})
	return out, nil
}

func (r *memoryTemplateRepository) UpdateTemplate(_ context.Context, template *emailbuilder.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	versions := r.versions[template.ID]
	if len(versions) == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}

	template.Version = versions[len(versions)-1].Version + 1
	r.versions[template.ID] = append(versions, template.Clone())
	return nil
}

func (r *memoryTemplateRepository) DeleteTemplate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.versions[id]) == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	delete(r.versions, id)
	return nil
}
