package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"constellar/internal/projects/models"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

const emptyJSON = "{}"

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ============================================================
// Migrations
// ============================================================

// Migrate применяет встроенные миграции, которых ещё нет в schema_migrations.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            name       TEXT PRIMARY KEY,
            applied_at TEXT NOT NULL
        )
    `); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		var applied int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM schema_migrations WHERE name = ?`, name,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := r.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`, name, r.timestamp())
			return err
		}); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// ============================================================
// Projects
// ============================================================

const projectColumns = `id, owner_id, title, description, canvas_data, created_at, updated_at`

func (r *Repository) CreateProject(ctx context.Context, ownerID, title string, description *string, canvas json.RawMessage) (*models.Project, error) {
	now := r.timestamp()
	p := &models.Project{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		Description: description,
		CanvasData:  orEmpty(canvas),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO projects (`+projectColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, p.ID, p.OwnerID, p.Title, p.Description, string(p.CanvasData), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// ListProjects возвращает проекты владельца, новые первыми.
func (r *Repository) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+projectColumns+`
        FROM projects
        WHERE owner_id = ?
        ORDER BY created_at DESC, rowid DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *Repository) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+projectColumns+`
        FROM projects
        WHERE id = ?
    `, id)
	return scanProject(row)
}

func (r *Repository) UpdateProject(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error) {
	var project *models.Project
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		current, err := scanProject(tx.QueryRowContext(ctx, `
            SELECT `+projectColumns+`
            FROM projects
            WHERE id = ?
        `, id))
		if err != nil {
			return err
		}

		if upd.Title != nil {
			current.Title = *upd.Title
		}
		if upd.Description != nil {
			current.Description = upd.Description
		}
		if upd.CanvasData != nil {
			current.CanvasData = upd.CanvasData
		}
		current.UpdatedAt = r.timestamp()

		if _, err := tx.ExecContext(ctx, `
            UPDATE projects
            SET title = ?, description = ?, canvas_data = ?, updated_at = ?
            WHERE id = ?
        `, current.Title, current.Description, string(current.CanvasData), current.UpdatedAt, id); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		project = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject удаляет проект вместе с сообщениями и версиями.
func (r *Repository) DeleteProject(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM ai_messages WHERE project_id = ?`,
			`DELETE FROM project_versions WHERE project_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete project children: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ============================================================
// Messages
// ============================================================

const messageColumns = `id, project_id, role, content, metadata, created_at`

// ListMessages возвращает сообщения по возрастанию времени. limit > 0 оставляет последние limit.
func (r *Repository) ListMessages(ctx context.Context, projectID string, limit int) ([]models.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM ai_messages
        WHERE project_id = ?
        ORDER BY created_at ASC, rowid ASC
    `
	args := []any{projectID}
	if limit > 0 {
		query = `
            SELECT ` + messageColumns + ` FROM (
                SELECT ` + messageColumns + `, rowid AS seq
                FROM ai_messages
                WHERE project_id = ?
                ORDER BY created_at DESC, rowid DESC
                LIMIT ?
            )
            ORDER BY created_at ASC, seq ASC
        `
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		var metadata string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &metadata, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Metadata = json.RawMessage(metadata)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *Repository) CreateMessage(ctx context.Context, projectID string, role models.Role, content string, metadata json.RawMessage) (*models.Message, error) {
	m := &models.Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		Metadata:  orEmpty(metadata),
		CreatedAt: r.timestamp(),
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO ai_messages (`+messageColumns+`)
        VALUES (?, ?, ?, ?, ?, ?)
    `, m.ID, m.ProjectID, string(m.Role), m.Content, string(m.Metadata), m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return m, nil
}

func (r *Repository) CountMessages(ctx context.Context, projectID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM ai_messages WHERE project_id = ?`, projectID)
}

// ============================================================
// Versions
// ============================================================

const versionColumns = `id, project_id, version_number, canvas_data, description, created_at`

// ListVersions возвращает версии, новые первыми. При limit <= 0 отдаются все.
func (r *Repository) ListVersions(ctx context.Context, projectID string, limit int) ([]models.Version, error) {
	query := `
        SELECT ` + versionColumns + `
        FROM project_versions
        WHERE project_id = ?
        ORDER BY version_number DESC
    `
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []models.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// CreateVersion сохраняет снимок холста со следующим номером версии проекта.
func (r *Repository) CreateVersion(ctx context.Context, projectID string, canvas json.RawMessage, description *string) (*models.Version, error) {
	v := &models.Version{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		CanvasData:  orEmpty(canvas),
		Description: description,
		CreatedAt:   r.timestamp(),
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, `
            SELECT COALESCE(MAX(version_number), 0) + 1
            FROM project_versions
            WHERE project_id = ?
        `, projectID).Scan(&v.VersionNumber); err != nil {
			return fmt.Errorf("next version number: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
            INSERT INTO project_versions (`+versionColumns+`)
            VALUES (?, ?, ?, ?, ?, ?)
        `, v.ID, v.ProjectID, v.VersionNumber, string(v.CanvasData), v.Description, v.CreatedAt); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *Repository) LatestVersion(ctx context.Context, projectID string) (*models.Version, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+versionColumns+`
        FROM project_versions
        WHERE project_id = ?
        ORDER BY version_number DESC
        LIMIT 1
    `, projectID)
	return scanVersion(row)
}

func (r *Repository) CountVersions(ctx context.Context, projectID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM project_versions WHERE project_id = ?`, projectID)
}

// ============================================================
// Helpers
// ============================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	var p models.Project
	var canvas string
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &canvas, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.CanvasData = json.RawMessage(canvas)
	return &p, nil
}

func scanVersion(row scanner) (*models.Version, error) {
	var v models.Version
	var canvas string
	if err := row.Scan(&v.ID, &v.ProjectID, &v.VersionNumber, &canvas, &v.Description, &v.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan version: %w", err)
	}
	v.CanvasData = json.RawMessage(canvas)
	return &v, nil
}

func (r *Repository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

func (r *Repository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (r *Repository) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

func orEmpty(data json.RawMessage) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage(emptyJSON)
	}
	return data
}
