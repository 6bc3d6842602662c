package adapter

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// ============================================================
// Action vocabulary
// ============================================================

const (
	ActionCreateShape = "create_shape"
	ActionCreateText  = "create_text"
	ActionConnect     = "connect"
	ActionCreateArrow = "create_arrow"
)

// Action описывает одну команду ИИ. Необязательное поле ID задаёт логический handle,
// на который connect может ссылаться через fromId/toId.
type Action struct {
	Type string `json:"type" validate:"required,oneof=create_shape create_text connect create_arrow"`
	ID   string `json:"id,omitempty"`

	// create_shape
	Shape           string  `json:"shape,omitempty" validate:"omitempty,oneof=rectangle ellipse diamond"`
	Width           float64 `json:"width,omitempty"`
	Height          float64 `json:"height,omitempty"`
	Label           string  `json:"label,omitempty"`
	FillStyle       string  `json:"fillStyle,omitempty" validate:"omitempty,oneof=solid hachure cross-hatch"`
	StrokeColor     string  `json:"strokeColor,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`

	// create_text
	Text     string  `json:"text,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`

	// create_shape, create_text, create_arrow
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// create_arrow
	EndX *float64 `json:"endX,omitempty"`
	EndY *float64 `json:"endY,omitempty"`

	// connect
	From   *int   `json:"from,omitempty"`
	To     *int   `json:"to,omitempty"`
	FromID string `json:"fromId,omitempty"`
	ToID   string `json:"toId,omitempty"`
}

// ShapeLabel возвращает подпись фигуры; text принимается как синоним label.
func (a Action) ShapeLabel() string {
	if a.Label != "" {
		return a.Label
	}
	return a.Text
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ============================================================
// Validation
// ============================================================

// Valid проверяет сырой JSON-объект действия: тип, обязательные поля и их JSON-типы.
func Valid(raw any) bool {
	obj, ok := asObject(raw)
	if !ok {
		return false
	}

	kind, _ := obj["type"].(string)
	switch kind {
	case ActionCreateShape:
		shape, _ := obj["shape"].(string)
		return (shape == "rectangle" || shape == "ellipse" || shape == "diamond") &&
			isNumber(obj["x"]) && isNumber(obj["y"])
	case ActionCreateText:
		_, ok := obj["text"].(string)
		return ok && isNumber(obj["x"]) && isNumber(obj["y"])
	case ActionConnect:
		return (isNumber(obj["from"]) || isHandle(obj["fromId"])) &&
			(isNumber(obj["to"]) || isHandle(obj["toId"]))
	case ActionCreateArrow:
		return isNumber(obj["x"]) && isNumber(obj["y"]) &&
			isNumber(obj["endX"]) && isNumber(obj["endY"])
	default:
		return false
	}
}

// Filter декодирует валидные действия и молча отбрасывает остальные.
func Filter(raw []any) []Action {
	actions := make([]Action, 0, len(raw))
	for _, item := range raw {
		if !Valid(item) {
			continue
		}
		action, err := decode(item)
		if err != nil {
			continue
		}
		if err := validate.Struct(action); err != nil {
			continue
		}
		actions = append(actions, action)
	}
	return actions
}

func decode(item any) (Action, error) {
	var action Action
	data, err := json.Marshal(item)
	if err != nil {
		return action, err
	}
	err = json.Unmarshal(data, &action)
	return action, err
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case json.RawMessage:
		var obj map[string]any
		if err := json.Unmarshal(v, &obj); err != nil {
			return nil, false
		}
		return obj, obj != nil
	default:
		return nil, false
	}
}

// isNumber пропускает и дробные индексы: from: 0.5 отсеивается в Filter при декодировании в *int.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	default:
		return false
	}
}

func isHandle(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
