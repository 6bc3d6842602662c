package handlers

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"constellar/internal/common/httperr"
	"constellar/internal/generator/adapter"
	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
	"constellar/internal/generator/parser"
	"constellar/internal/generator/render"
	"constellar/internal/generator/tools"
)

// ============================================================
// Generator Handler
// ============================================================

type GeneratorHandler struct {
	factory  *excalidraw.Factory
	adapter  *adapter.Adapter
	registry *tools.Registry
	renderer *render.Renderer
	raster   render.Rasterizer
	validate *validator.Validate
	logger   *zap.Logger
}

func NewGeneratorHandler(
	factory *excalidraw.Factory,
	registry *tools.Registry,
	renderer *render.Renderer,
	raster render.Rasterizer,
	validate *validator.Validate,
	logger *zap.Logger,
) *GeneratorHandler {
	return &GeneratorHandler{
		factory:  factory,
		adapter:  adapter.New(factory, logger),
		registry: registry,
		renderer: renderer,
		raster:   raster,
		validate: validate,
		logger:   logger.Named("generator"),
	}
}

// Register вешает маршруты сервиса на router.
func (h *GeneratorHandler) Register(router fiber.Router) {
	router.Post("/actions", h.ApplyActions)
	router.Post("/actions/extract", h.ExtractActions)
	router.Get("/tools", h.ListTools)
	router.Post("/tools/:name", h.RunTool)
	router.Post("/flowchart", h.Flowchart)
	router.Post("/render/svg", h.RenderSVG)
	router.Post("/render/png", h.RenderPNG)
}

type actionsRequest struct {
	Actions []json.RawMessage `json:"actions" validate:"required"`
	Scene   *models.Scene     `json:"scene"`
}

type actionsResponse struct {
	Elements []models.Element `json:"elements"`
	Scene    *models.Scene    `json:"scene"`
}

type extractRequest struct {
	Text string `json:"text" validate:"required"`
}

type flowchartRequest struct {
	Title           string   `json:"title" validate:"required"`
	Steps           []string `json:"steps" validate:"required"`
	X               *float64 `json:"x"`
	Y               *float64 `json:"y"`
	BoxWidth        float64  `json:"boxWidth"`
	BoxHeight       float64  `json:"boxHeight"`
	VerticalSpacing float64  `json:"verticalSpacing"`
}

type elementsResponse struct {
	Elements []models.Element `json:"elements"`
}

type toolPayload struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ApplyActions исполняет действия ИИ поверх переданной сцены (или пустой).
func (h *GeneratorHandler) ApplyActions(c fiber.Ctx) error {
	var req actionsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return httperr.BadRequest(c, "invalid JSON payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	scene := req.Scene
	if scene == nil {
		scene = models.NewScene()
	}

	raw := make([]any, len(req.Actions))
	for i, action := range req.Actions {
		raw[i] = action
	}
	elements := h.adapter.Apply(raw, scene)

	h.logger.Debug("actions applied",
		zap.Int("actions", len(raw)),
		zap.Int("elements", len(elements)),
	)
	return c.JSON(actionsResponse{Elements: elements, Scene: scene})
}

// ExtractActions достаёт массив actions из текста ответа ИИ.
func (h *GeneratorHandler) ExtractActions(c fiber.Ctx) error {
	var req extractRequest
	if err := c.Bind().JSON(&req); err != nil {
		return httperr.BadRequest(c, "invalid JSON payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	actions, err := parser.ExtractActions(req.Text)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}
	if actions == nil {
		actions = []any{}
	}
	return c.JSON(fiber.Map{"actions": actions})
}

func (h *GeneratorHandler) ListTools(c fiber.Ctx) error {
	registered := h.registry.Tools()
	out := make([]toolPayload, 0, len(registered))
	for _, t := range registered {
		out = append(out, toolPayload{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
		})
	}
	return c.JSON(fiber.Map{"tools": out})
}

// RunTool исполняет инструмент по имени; телом запроса служит объект аргументов.
func (h *GeneratorHandler) RunTool(c fiber.Ctx) error {
	name := c.Params("name")

	args := tools.Args{}
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &args); err != nil {
			return httperr.BadRequest(c, "invalid JSON payload")
		}
	}

	elements, err := h.registry.Run(name, args)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return httperr.NotFound(c, err.Error())
	case errors.Is(err, tools.ErrMissingArgument), errors.Is(err, tools.ErrInvalidArgument):
		return httperr.BadRequest(c, err.Error())
	case err != nil:
		h.logger.Error("tool failed", zap.String("tool", name), zap.Error(err))
		return httperr.Internal(c, err)
	}

	return c.JSON(elementsResponse{Elements: elements})
}

func (h *GeneratorHandler) Flowchart(c fiber.Ctx) error {
	var req flowchartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return httperr.BadRequest(c, "invalid JSON payload")
	}
	if err := h.validate.Struct(req); err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	x, y := float64(excalidraw.DefaultOrigin), float64(excalidraw.DefaultOrigin)
	if req.X != nil {
		x = *req.X
	}
	if req.Y != nil {
		y = *req.Y
	}

	diagram := h.factory.Flowchart(req.Title, req.Steps, x, y, excalidraw.FlowchartOptions{
		BoxWidth:        req.BoxWidth,
		BoxHeight:       req.BoxHeight,
		VerticalSpacing: req.VerticalSpacing,
	})
	return c.JSON(elementsResponse{Elements: diagram.Elements()})
}

// ============================================================
// Render
// ============================================================

func (h *GeneratorHandler) RenderSVG(c fiber.Ctx) error {
	scene, err := h.scene(c)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	svg, err := h.renderer.SVG(scene)
	if err != nil {
		h.logger.Error("render svg failed", zap.Error(err))
		return httperr.Internal(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.SendString(svg)
}

// RenderPNG растеризует сцену; ?width= меняет ширину для нативного растеризатора.
func (h *GeneratorHandler) RenderPNG(c fiber.Ctx) error {
	scene, err := h.scene(c)
	if err != nil {
		return httperr.BadRequest(c, err.Error())
	}

	raster := h.raster
	if width := c.Query("width"); width != "" {
		w, err := strconv.Atoi(width)
		if err != nil || w <= 0 {
			return httperr.BadRequest(c, "width must be a positive integer")
		}
		if native, ok := raster.(*render.Raster); ok {
			raster = native.WithWidth(w)
		}
	}

	data, err := raster.PNG(c.Context(), scene)
	if err != nil {
		h.logger.Error("render png failed", zap.Error(err))
		return httperr.Internal(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

func (h *GeneratorHandler) scene(c fiber.Ctx) (*models.Scene, error) {
	if len(c.Body()) == 0 {
		return nil, errors.New("body required")
	}
	var scene models.Scene
	if err := json.Unmarshal(c.Body(), &scene); err != nil {
		return nil, errors.New("invalid JSON payload")
	}
	return &scene, nil
}
