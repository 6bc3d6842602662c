package models

import "encoding/json"

// ============================================================
// Element kinds
// ============================================================

type ElementType string

const (
	TypeRectangle ElementType = "rectangle"
	TypeEllipse   ElementType = "ellipse"
	TypeDiamond   ElementType = "diamond"
	TypeArrow     ElementType = "arrow"
	TypeLine      ElementType = "line"
	TypeText      ElementType = "text"
)

// IsLinear сообщает, хранит ли элемент полилинию точек.
func (t ElementType) IsLinear() bool {
	return t == TypeArrow || t == TypeLine
}

// IsContainer сообщает, может ли элемент содержать привязанный текст.
func (t ElementType) IsContainer() bool {
	return t == TypeRectangle || t == TypeEllipse || t == TypeDiamond
}

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LinearPoint хранит точку полилинии в формате Excalidraw: [x, y].
type LinearPoint [2]float64

type Roundness struct {
	Type int `json:"type"`
}

// ============================================================
// Bindings
// ============================================================

type BoundElement struct {
	Type ElementType `json:"type"`
	ID   string      `json:"id"`
}

type Binding struct {
	ElementID  string       `json:"elementId"`
	Focus      float64      `json:"focus"`
	Gap        float64      `json:"gap"`
	FixedPoint *LinearPoint `json:"fixedPoint"`
}

// ============================================================
// Excalidraw element
// ============================================================

type Element struct {
	ID              string         `json:"id"`
	Type            ElementType    `json:"type"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Angle           float64        `json:"angle"`
	StrokeColor     string         `json:"strokeColor"`
	BackgroundColor string         `json:"backgroundColor"`
	FillStyle       string         `json:"fillStyle"`
	StrokeWidth     float64        `json:"strokeWidth"`
	StrokeStyle     string         `json:"strokeStyle"`
	Roughness       int            `json:"roughness"`
	Opacity         int            `json:"opacity"`
	GroupIDs        []string       `json:"groupIds"`
	FrameID         *string        `json:"frameId"`
	Roundness       *Roundness     `json:"roundness"`
	Seed            int64          `json:"seed"`
	Version         int            `json:"version"`
	VersionNonce    int64          `json:"versionNonce"`
	IsDeleted       bool           `json:"isDeleted"`
	BoundElements   []BoundElement `json:"boundElements"`
	Updated         int64          `json:"updated"`
	Link            *string        `json:"link"`
	Locked          bool           `json:"locked"`

	// text
	Text          string  `json:"text,omitempty"`
	FontSize      float64 `json:"fontSize,omitempty"`
	FontFamily    int     `json:"fontFamily,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`
	Baseline      float64 `json:"baseline,omitempty"`
	ContainerID   *string `json:"containerId,omitempty"`
	OriginalText  string  `json:"originalText,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`
	AutoResize    *bool   `json:"autoResize,omitempty"`

	// arrow, line
	Points             []LinearPoint `json:"points,omitempty"`
	LastCommittedPoint *LinearPoint  `json:"lastCommittedPoint,omitempty"`
	StartBinding       *Binding      `json:"startBinding,omitempty"`
	EndBinding         *Binding      `json:"endBinding,omitempty"`
	StartArrowhead     *string       `json:"startArrowhead,omitempty"`
	EndArrowhead       *string       `json:"endArrowhead,omitempty"`

	// исходный JSON-объект и его известные поля на момент чтения
	raw     map[string]json.RawMessage
	decoded map[string]json.RawMessage
}

// Center возвращает геометрический центр bounding box элемента.
func (e Element) Center() Point {
	return Point{X: e.X + e.Width/2, Y: e.Y + e.Height/2}
}

// AbsolutePoints переводит относительные точки полилинии в координаты холста.
func (e Element) AbsolutePoints() []Point {
	points := make([]Point, 0, len(e.Points))
	for _, p := range e.Points {
		points = append(points, Point{X: e.X + p[0], Y: e.Y + p[1]})
	}
	return points
}

// Bind добавляет обратную ссылку на элемент other.
func (e *Element) Bind(kind ElementType, id string) {
	e.BoundElements = append(e.BoundElements, BoundElement{Type: kind, ID: id})
}

// ============================================================
// Scene (canvas document)
// ============================================================

const (
	SceneType    = "excalidraw"
	SceneVersion = 2
	SceneSource  = "constellar"
)

type Scene struct {
	Type     string         `json:"type"`
	Version  int            `json:"version"`
	Source   string         `json:"source"`
	Elements []Element      `json:"elements"`
	AppState map[string]any `json:"appState"`
	Files    map[string]any `json:"files"`
}

// NewScene возвращает пустой документ холста.
func NewScene(elements ...Element) *Scene {
	if elements == nil {
		elements = []Element{}
	}
	return &Scene{
		Type:     SceneType,
		Version:  SceneVersion,
		Source:   SceneSource,
		Elements: elements,
		AppState: map[string]any{"viewBackgroundColor": "#ffffff"},
		Files:    map[string]any{},
	}
}

// SceneElements отдаёт текущий список элементов холста.
func (s *Scene) SceneElements() []Element {
	return s.Elements
}

// UpdateScene целиком заменяет список элементов холста.
func (s *Scene) UpdateScene(elements []Element) {
	s.Elements = elements
}

// Live возвращает элементы, не помеченные как удалённые.
func (s *Scene) Live() []Element {
	live := make([]Element, 0, len(s.Elements))
	for _, e := range s.Elements {
		if !e.IsDeleted {
			live = append(live, e)
		}
	}
	return live
}
