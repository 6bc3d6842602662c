package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"constellar/internal/generator/models"
)

// ============================================================
// Project Models
// ============================================================

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Project struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// Scene разбирает canvas_data; пустой холст даёт новую сцену.
func (p *Project) Scene() (*models.Scene, error) {
	scene := models.NewScene()
	if isEmptyCanvas(p.CanvasData) {
		return scene, nil
	}
	if err := json.Unmarshal(p.CanvasData, scene); err != nil {
		return nil, fmt.Errorf("decode canvas: %w", err)
	}
	if scene.Elements == nil {
		scene.Elements = []models.Element{}
	}
	return scene, nil
}

// ElementsCount считает элементы на холсте; для неразборчивого canvas_data вернёт 0.
func (p *Project) ElementsCount() int {
	var canvas struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.Unmarshal(p.CanvasData, &canvas); err != nil {
		return 0
	}
	return len(canvas.Elements)
}

type Message struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt string          `json:"created_at"`
}

type Version struct {
	ID            string          `json:"id"`
	ProjectID     string          `json:"project_id"`
	VersionNumber int             `json:"version_number"`
	CanvasData    json.RawMessage `json:"canvas_data"`
	Description   *string         `json:"description"`
	CreatedAt     string          `json:"created_at"`
}

// ProjectUpdate описывает частичное обновление; nil-поля не меняются.
type ProjectUpdate struct {
	Title       *string
	Description *string
	CanvasData  json.RawMessage
}

// ============================================================
// AI context
// ============================================================

type Stats struct {
	TotalMessages    int `json:"total_messages"`
	TotalVersions    int `json:"total_versions"`
	ElementsCount    int `json:"elements_count"`
	ReturnedMessages int `json:"returned_messages"`
}

type Context struct {
	Project       *Project  `json:"project"`
	Messages      []Message `json:"messages"`
	LatestVersion *Version  `json:"latest_version"`
	Stats         Stats     `json:"stats"`
}

func isEmptyCanvas(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("{}")) || bytes.Equal(trimmed, []byte("null"))
}
