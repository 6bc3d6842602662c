package adapter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
)

// ============================================================
// Adapter
// ============================================================

// Canvas принимает созданные элементы при слиянии.
type Canvas interface {
	SceneElements() []models.Element
	UpdateScene(elements []models.Element)
}

const (
	defaultShapeWidth  = 200
	defaultShapeHeight = 100
	bindingGap         = 1
)

// Adapter переводит действия ИИ в элементы Excalidraw. Состояния между вызовами не хранит.
type Adapter struct {
	factory *excalidraw.Factory
	logger  *zap.Logger
}

func New(factory *excalidraw.Factory, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		factory: factory,
		logger:  logger.Named("adapter"),
	}
}

// Apply фильтрует сырые действия и исполняет валидные.
func (a *Adapter) Apply(raw []any, canvas Canvas) []models.Element {
	actions := Filter(raw)
	if dropped := len(raw) - len(actions); dropped > 0 {
		a.logger.Warn("dropped malformed actions", zap.Int("dropped", dropped), zap.Int("total", len(raw)))
	}
	return a.Execute(actions, canvas)
}

// Execute исполняет пачку действий в два прохода и один раз сливает результат на холст.
// Первый проход материализует фигуры, текст и стрелки; основной элемент каждого действия
// занимает следующий индекс пачки. Второй проход разрешает connect по этим индексам.
func (a *Adapter) Execute(actions []Action, canvas Canvas) []models.Element {
	if canvas == nil {
		a.logger.Error("canvas not available")
		return []models.Element{}
	}

	created := make([]models.Element, 0, len(actions)*2)
	var primary []int
	handles := make(map[string]int)

	for i, action := range actions {
		if action.Type == ActionConnect {
			continue
		}

		elements := a.materialize(action)
		if len(elements) == 0 {
			a.logger.Warn("action produced no elements", zap.Int("action", i), zap.String("type", action.Type))
			continue
		}

		if action.ID != "" {
			handles[action.ID] = len(primary)
		}
		primary = append(primary, len(created))
		created = append(created, elements...)
	}

	for i, action := range actions {
		if action.Type != ActionConnect {
			continue
		}

		from, to, err := resolve(action, len(primary), handles)
		if err != nil {
			a.logger.Warn("connect skipped", zap.Int("action", i), zap.Error(err))
			continue
		}

		src, dst := primary[from], primary[to]
		arrow := a.connect(created[src], created[dst], action.Label)
		created[src].Bind(models.TypeArrow, arrow[0].ID)
		created[dst].Bind(models.TypeArrow, arrow[0].ID)
		created = append(created, arrow...)
	}

	existing := canvas.SceneElements()
	merged := make([]models.Element, 0, len(existing)+len(created))
	merged = append(merged, existing...)
	merged = append(merged, created...)
	canvas.UpdateScene(merged)

	a.logger.Debug("actions executed",
		zap.Int("actions", len(actions)),
		zap.Int("elements", len(created)),
	)
	return created
}

func (a *Adapter) materialize(action Action) []models.Element {
	if action.X == nil || action.Y == nil {
		return nil
	}

	switch action.Type {
	case ActionCreateShape:
		return a.factory.Shape(models.ElementType(action.Shape), *action.X, *action.Y,
			or(action.Width, defaultShapeWidth), or(action.Height, defaultShapeHeight),
			excalidraw.ShapeOptions{
				Style: excalidraw.Style{
					FillStyle:       action.FillStyle,
					StrokeColor:     action.StrokeColor,
					BackgroundColor: action.BackgroundColor,
				},
				Label: action.ShapeLabel(),
			})
	case ActionCreateText:
		return a.factory.TextElement(*action.X, *action.Y, action.Text, excalidraw.TextOptions{
			FontSize: action.FontSize,
		})
	case ActionCreateArrow:
		if action.EndX == nil || action.EndY == nil {
			return nil
		}
		return a.factory.Arrow(*action.X, *action.Y, *action.EndX, *action.EndY, excalidraw.LinearOptions{
			Style: excalidraw.Style{Roundness: &models.Roundness{Type: excalidraw.RoundnessProportional}},
			Label: action.Label,
		})
	default:
		return nil
	}
}

// connect строит стрелку от центра from к центру to с привязками к обоим элементам.
func (a *Adapter) connect(from, to models.Element, label string) []models.Element {
	start, end := from.Center(), to.Center()
	elements := a.factory.Arrow(start.X, start.Y, end.X, end.Y, excalidraw.LinearOptions{
		Style: excalidraw.Style{Roundness: &models.Roundness{Type: excalidraw.RoundnessProportional}},
		Label: label,
	})
	elements[0].StartBinding = &models.Binding{ElementID: from.ID, Gap: bindingGap}
	elements[0].EndBinding = &models.Binding{ElementID: to.ID, Gap: bindingGap}
	return elements
}

// resolve переводит from/to или fromId/toId в индексы пачки.
func resolve(action Action, size int, handles map[string]int) (int, int, error) {
	from, err := endpoint(action.From, action.FromID, size, handles)
	if err != nil {
		return 0, 0, fmt.Errorf("from: %w", err)
	}
	to, err := endpoint(action.To, action.ToID, size, handles)
	if err != nil {
		return 0, 0, fmt.Errorf("to: %w", err)
	}
	if from == to {
		return 0, 0, fmt.Errorf("self connection at index %d", from)
	}
	return from, to, nil
}

func endpoint(index *int, handle string, size int, handles map[string]int) (int, error) {
	if handle != "" {
		i, ok := handles[handle]
		if !ok {
			return 0, fmt.Errorf("unknown handle %q", handle)
		}
		return i, nil
	}
	if index == nil {
		return 0, errors.New("missing reference")
	}
	if *index < 0 || *index >= size {
		return 0, fmt.Errorf("index %d out of range [0, %d)", *index, size)
	}
	return *index, nil
}

func or(value, fallback float64) float64 {
	if value != 0 {
		return value
	}
	return fallback
}
