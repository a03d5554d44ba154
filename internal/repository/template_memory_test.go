package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailforge/internal/domain"
	"github.com/mailforge/mailforge/pkg/emailbuilder"
)

func TestMemoryRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()

	tmpl := emailbuilder.NewTemplate("Welcome")
	tmpl, _ = emailbuilder.AddComponent(tmpl, emailbuilder.ComponentText, nil, nil)

	require.NoError(t, repo.CreateTemplate(ctx, tmpl))

	got, err := repo.GetTemplateByID(ctx, tmpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, got.ID)
	assert.Equal(t, 1, got.Metadata.Components)

	// Updating stores a new version; both remain readable.
	updated, _ := emailbuilder.AddComponent(got, emailbuilder.ComponentButton, nil, nil)
	require.NoError(t, repo.UpdateTemplate(ctx, updated))

	latest, err := repo.GetTemplateByID(ctx, tmpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Metadata.Components)
	assert.Greater(t, latest.Version, got.Version)

	first, err := repo.GetTemplateByID(ctx, tmpl.ID, got.Version)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Metadata.Components)

	version, err := repo.GetTemplateLatestVersion(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.Version, version)

	require.NoError(t, repo.DeleteTemplate(ctx, tmpl.ID))
	_, err = repo.GetTemplateByID(ctx, tmpl.ID, 0)
	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()
	var notFound *domain.ErrTemplateNotFound

	_, err := repo.GetTemplateByID(ctx, "missing", 0)
	assert.ErrorAs(t, err, &notFound)

	_, err = repo.GetTemplateLatestVersion(ctx, "missing")
	assert.ErrorAs(t, err, &notFound)

	err = repo.UpdateTemplate(ctx, emailbuilder.NewTemplate("ghost"))
	assert.ErrorAs(t, err, &notFound)

	err = repo.DeleteTemplate(ctx, "missing")
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryRepositoryMissingVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()

	tmpl := emailbuilder.NewTemplate("versioned")
	require.NoError(t, repo.CreateTemplate(ctx, tmpl))

	_, err := repo.GetTemplateByID(ctx, tmpl.ID, 42)
	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestMemoryRepositorySearch(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()

	welcome := emailbuilder.NewTemplate("Welcome Series 1")
	receipt := emailbuilder.NewTemplate("Order Receipt")
	require.NoError(t, repo.CreateTemplate(ctx, welcome))
	require.NoError(t, repo.CreateTemplate(ctx, receipt))

	all, err := repo.GetTemplates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	matched, err := repo.GetTemplates(ctx, "welcome")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "Welcome Series 1", matched[0].Name)
}

func TestMemoryRepositoryIsolatesStoredCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTemplateRepository()

	tmpl := emailbuilder.NewTemplate("isolated")
	require.NoError(t, repo.CreateTemplate(ctx, tmpl))

	// Mutating the caller's value after storing must not change the store.
	tmpl.Name = "tampered"

	got, err := repo.GetTemplateByID(ctx, tmpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "isolated", got.Name)

	// Mutating a fetched copy must not change the store either.
	got.Name = "also tampered"
	again, err := repo.GetTemplateByID(ctx, tmpl.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "isolated", again.Name)
}
