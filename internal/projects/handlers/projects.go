package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"constellar/internal/assistant"
	"constellar/internal/common/httperr"
	"constellar/internal/common/middleware"
	"constellar/internal/generator/adapter"
	"constellar/internal/generator/excalidraw"
	"constellar/internal/projects/models"
	"constellar/internal/projects/repository"
)

// ============================================================
// Projects Handler
// ============================================================

const (
	defaultContextMessages = 10
	chatHistoryMessages    = 10
)

type ProjectsHandler struct {
	repo      *repository.Repository
	assistant assistant.Client
	adapter   *adapter.Adapter
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewProjectsHandler(
	repo *repository.Repository,
	client assistant.Client,
	factory *excalidraw.Factory,
	validate *validator.Validate,
	logger *zap.Logger,
) *ProjectsHandler {
	return &ProjectsHandler{
		repo:      repo,
		assistant: client,
		adapter:   adapter.New(factory, logger),
		validate:  validate,
		logger:    logger.Named("projects"),
	}
}

// Register вешает маршруты сервиса на router.
func (h *ProjectsHandler) Register(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Get("/", h.ListProjects)
	projects.Post("/", h.CreateProject)
	projects.Get("/:id", h.GetProject)
	projects.Put("/:id", h.UpdateProject)
	projects.Delete("/:id", h.DeleteProject)

	projects.Get("/:id/messages", h.ListMessages)
	projects.Post("/:id/messages", h.CreateMessage)
	projects.Get("/:id/versions", h.ListVersions)
	projects.Post("/:id/versions", h.CreateVersion)
	projects.Get("/:id/context", h.Context)
	projects.Post("/:id/chat", h.Chat)
}

type createProjectRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description *string         `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
}

type updateProjectRequest struct {
	Title       *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description"`
	CanvasData  json.RawMessage `json:"canvas_data"`
}

type createMessageRequest struct {
	Role     models.Role     `json:"role" validate:"required,oneof=user assistant system"`
	Content  string          `json:"content" validate:"required"`
	Metadata json.RawMessage `json:"metadata"`
}

type createVersionRequest struct {
	CanvasData  json.RawMessage `json:"canvas_data"`
	Description *string         `json:"description"`
}

type contextResponse struct {
	*models.Context
	Prompt string `json:"prompt,omitempty"`
}

// ============================================================
// Projects
// ============================================================

func (h *ProjectsHandler) ListProjects(c fiber.Ctx) error {
	owner, ok := ownerID(c)
	if !ok {
		return httperr.Unauthorized(c, "missing "+middleware.UserIDHeader+" header")
	}

	projects, err := h.repo.ListProjects(c.Context(), owner)
	if err != nil {
		return h.internal(c, "list projects", err)
	}
	return c.JSON(fiber.Map{"projects": projects})
}

func (h *ProjectsHandler) CreateProject(c fiber.Ctx) error {
	owner, ok := ownerID(c)
	if !ok {
		return httperr.Unauthorized(c, "missing "+middleware.UserIDHeader+" header")
	}

	var req createProjectRequest
	if err := h.bind(c, &req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}
	if !validCanvas(req.CanvasData) {
		return httperr.BadRequest(c, "canvas_data must be a JSON object")
	}

	project, err := h.repo.CreateProject(c.Context(), owner, req.Title, req.Description, req.CanvasData)
	if err != nil {
		return h.internal(c, "create project", err)
	}

	h.logger.Info("project created", zap.String("project_id", project.ID), zap.String("owner_id", owner))
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *ProjectsHandler) GetProject(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}
	return c.JSON(project)
}

func (h *ProjectsHandler) UpdateProject(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	var req updateProjectRequest
	if err := h.bind(c, &req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}
	if req.CanvasData != nil && !validCanvas(req.CanvasData) {
		return httperr.BadRequest(c, "canvas_data must be a JSON object")
	}

	updated, err := h.repo.UpdateProject(c.Context(), project.ID, models.ProjectUpdate{
		Title:       req.Title,
		Description: req.Description,
		CanvasData:  req.CanvasData,
	})
	if err != nil {
		return h.storeError(c, "update project", err)
	}
	return c.JSON(updated)
}

func (h *ProjectsHandler) DeleteProject(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	if err := h.repo.DeleteProject(c.Context(), project.ID); err != nil {
		return h.storeError(c, "delete project", err)
	}

	h.logger.Info("project deleted", zap.String("project_id", project.ID))
	return c.SendStatus(fiber.StatusNoContent)
}

// ============================================================
// Messages
// ============================================================

func (h *ProjectsHandler) ListMessages(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	messages, err := h.repo.ListMessages(c.Context(), project.ID, limit)
	if err != nil {
		return h.internal(c, "list messages", err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

func (h *ProjectsHandler) CreateMessage(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	var req createMessageRequest
	if err := h.bind(c, &req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	message, err := h.repo.CreateMessage(c.Context(), project.ID, req.Role, req.Content, req.Metadata)
	if err != nil {
		return h.internal(c, "create message", err)
	}
	return c.Status(fiber.StatusCreated).JSON(message)
}

// ============================================================
// Versions
// ============================================================

func (h *ProjectsHandler) ListVersions(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	versions, err := h.repo.ListVersions(c.Context(), project.ID, limit)
	if err != nil {
		return h.internal(c, "list versions", err)
	}
	return c.JSON(fiber.Map{"versions": versions})
}

// CreateVersion сохраняет снимок; без canvas_data снимается текущий холст проекта.
func (h *ProjectsHandler) CreateVersion(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	var req createVersionRequest
	if len(c.Body()) > 0 {
		if err := h.bind(c, &req); err != nil {
			return httperr.BadRequest(c, err.Error())
		}
	}

	canvas := req.CanvasData
	if canvas == nil {
		canvas = project.CanvasData
	} else if !validCanvas(canvas) {
		return httperr.BadRequest(c, "canvas_data must be a JSON object")
	}

	version, err := h.repo.CreateVersion(c.Context(), project.ID, canvas, req.Description)
	if err != nil {
		return h.internal(c, "create version", err)
	}
	return c.Status(fiber.StatusCreated).JSON(version)
}

// ============================================================
// AI context
// ============================================================

// Context отдаёт проект, последние сообщения, последнюю версию и статистику.
// С ?request= дополнительно возвращает собранный промпт.
func (h *ProjectsHandler) Context(c fiber.Ctx) error {
	project, err := h.project(c)
	if project == nil {
		return err
	}

	limit, err := queryInt(c, "messages", defaultContextMessages)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	ctx := c.Context()
	messages, err := h.repo.ListMessages(ctx, project.ID, limit)
	if err != nil {
		return h.internal(c, "list messages", err)
	}

	latest, err := h.repo.LatestVersion(ctx, project.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return h.internal(c, "latest version", err)
	}

	totalMessages, err := h.repo.CountMessages(ctx, project.ID)
	if err != nil {
		return h.internal(c, "count messages", err)
	}
	totalVersions, err := h.repo.CountVersions(ctx, project.ID)
	if err != nil {
		return h.internal(c, "count versions", err)
	}

	resp := contextResponse{Context: &models.Context{
		Project:       project,
		Messages:      messages,
		LatestVersion: latest,
		Stats: models.Stats{
			TotalMessages:    totalMessages,
			TotalVersions:    totalVersions,
			ElementsCount:    project.ElementsCount(),
			ReturnedMessages: len(messages),
		},
	}}

	if request := c.Query("request"); request != "" {
		scene, err := project.Scene()
		if err != nil {
			return httperr.BadRequest(c, err.Error())
		}
		description := ""
		if project.Description != nil {
			description = *project.Description
		}
		resp.Prompt = assistant.BuildContextPrompt(assistant.PromptContext{
			Title:         project.Title,
			Description:   description,
			Elements:      scene.Live(),
			History:       history(messages),
			TotalMessages: totalMessages,
			TotalVersions: totalVersions,
		}, request)
	}

	return c.JSON(resp)
}

// ============================================================
// Helpers
// ============================================================

func ownerID(c fiber.Ctx) (string, bool) {
	owner := c.Get(middleware.UserIDHeader)
	return owner, owner != ""
}

// project загружает проект из :id. Чужой проект неотличим от отсутствующего.
// nil-проект означает, что ответ с ошибкой уже записан, а err содержит результат записи.
func (h *ProjectsHandler) project(c fiber.Ctx) (*models.Project, error) {
	owner, ok := ownerID(c)
	if !ok {
		return nil, httperr.Unauthorized(c, "missing "+middleware.UserIDHeader+" header")
	}

	project, err := h.repo.GetProject(c.Context(), c.Params("id"))
	if errors.Is(err, repository.ErrNotFound) || (err == nil && project.OwnerID != owner) {
		return nil, httperr.NotFound(c, "project not found")
	}
	if err != nil {
		return nil, h.internal(c, "get project", err)
	}
	return project, nil
}

func (h *ProjectsHandler) bind(c fiber.Ctx, dst any) error {
	if err := c.Bind().JSON(dst); err != nil {
		return errors.New("invalid JSON payload")
	}
	return h.validate.Struct(dst)
}

func (h *ProjectsHandler) storeError(c fiber.Ctx, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return httperr.NotFound(c, "project not found")
	}
	return h.internal(c, op, err)
}

func (h *ProjectsHandler) internal(c fiber.Ctx, op string, err error) error {
	h.logger.Error(op+" failed", zap.Error(err))
	return httperr.Internal(c, err)
}

func queryInt(c fiber.Ctx, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func validCanvas(data json.RawMessage) bool {
	if data == nil {
		return true
	}
	var obj map[string]any
	return json.Unmarshal(data, &obj) == nil && obj != nil
}

func history(messages []models.Message) []assistant.Message {
	out := make([]assistant.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, assistant.Message{Role: assistant.Role(m.Role), Content: m.Content})
	}
	return out
}
