package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"constellar/internal/projects/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// clock выдаёт монотонно растущее время с шагом в секунду.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "projects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := New(db)
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	repo.now = c.now

	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func strPtr(s string) *string { return &s }

func TestMigrate_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.Migrate(context.Background()))

	var n int
	require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestProjects_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	first, err := repo.CreateProject(ctx, "u1", "First", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(first.CanvasData))
	assert.Equal(t, "2025-01-01T00:00:01Z", first.CreatedAt)

	second, err := repo.CreateProject(ctx, "u1", "Second", strPtr("desc"), json.RawMessage(`{"elements":[]}`))
	require.NoError(t, err)
	_, err = repo.CreateProject(ctx, "u2", "Other", nil, nil)
	require.NoError(t, err)

	list, err := repo.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty, err := repo.ListProjects(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	got, err := repo.GetProject(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "desc", *got.Description)
	assert.JSONEq(t, `{"elements":[]}`, string(got.CanvasData))

	updated, err := repo.UpdateProject(ctx, first.ID, models.ProjectUpdate{
		Title:      strPtr("Renamed"),
		CanvasData: json.RawMessage(`{"elements":[{"id":"a"}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Nil(t, updated.Description)
	assert.NotEqual(t, first.UpdatedAt, updated.UpdatedAt)
	assert.Equal(t, 1, updated.ElementsCount())

	_, err = repo.UpdateProject(ctx, "missing", models.ProjectUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.DeleteProject(ctx, first.ID))
	_, err = repo.GetProject(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.DeleteProject(ctx, first.ID), ErrNotFound)
}

func TestMessages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreateProject(ctx, "u1", "Chat", nil, nil)
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four"}
	for i, content := range contents {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		_, err := repo.CreateMessage(ctx, p.ID, role, content, nil)
		require.NoError(t, err)
	}

	all, err := repo.ListMessages(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "one", all[0].Content)
	assert.Equal(t, models.RoleAssistant, all[1].Role)
	assert.JSONEq(t, `{}`, string(all[0].Metadata))

	latest, err := repo.ListMessages(ctx, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "three", latest[0].Content)
	assert.Equal(t, "four", latest[1].Content)

	n, err := repo.CountMessages(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = repo.CreateMessage(ctx, p.ID, models.Role("robot"), "x", nil)
	assert.Error(t, err)

	_, err = repo.CreateMessage(ctx, "missing", models.RoleUser, "x", nil)
	assert.Error(t, err)
}

func TestVersions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreateProject(ctx, "u1", "Versioned", nil, nil)
	require.NoError(t, err)

	_, err = repo.LatestVersion(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	for i := 1; i <= 3; i++ {
		v, err := repo.CreateVersion(ctx, p.ID, json.RawMessage(`{"elements":[]}`), strPtr("snapshot"))
		require.NoError(t, err)
		assert.Equal(t, i, v.VersionNumber)
	}

	other, err := repo.CreateProject(ctx, "u1", "Other", nil, nil)
	require.NoError(t, err)
	v, err := repo.CreateVersion(ctx, other.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v.VersionNumber)
	assert.Nil(t, v.Description)

	versions, err := repo.ListVersions(ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	assert.Equal(t, 3, versions[0].VersionNumber)
	assert.Equal(t, 1, versions[2].VersionNumber)

	limited, err := repo.ListVersions(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	latest, err := repo.LatestVersion(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.VersionNumber)

	n, err := repo.CountVersions(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestDeleteProject_Cascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p, err := repo.CreateProject(ctx, "u1", "Doomed", nil, nil)
	require.NoError(t, err)
	_, err = repo.CreateMessage(ctx, p.ID, models.RoleUser, "hi", nil)
	require.NoError(t, err)
	_, err = repo.CreateVersion(ctx, p.ID, nil, nil)
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject(ctx, p.ID))

	messages, err := repo.CountMessages(ctx, p.ID)
	require.NoError(t, err)
	versions, err := repo.CountVersions(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, messages)
	assert.Zero(t, versions)
}

func TestProject_Scene(t *testing.T) {
	p := &models.Project{CanvasData: json.RawMessage(`{}`)}
	scene, err := p.Scene()
	require.NoError(t, err)
	assert.Empty(t, scene.Elements)

	p.CanvasData = json.RawMessage(`{"type":"excalidraw","elements":[{"id":"a","type":"rectangle"}]}`)
	scene, err = p.Scene()
	require.NoError(t, err)
	require.Len(t, scene.Elements, 1)
	assert.Equal(t, "a", scene.Elements[0].ID)

	p.CanvasData = json.RawMessage(`not json`)
	_, err = p.Scene()
	assert.Error(t, err)
	assert.Zero(t, p.ElementsCount())
}
