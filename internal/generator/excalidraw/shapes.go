package excalidraw

import (
	"math"

	"constellar/internal/generator/models"
)

// ============================================================
// Labeled shapes
// ============================================================

const (
	defaultRectWidth  = 200
	defaultRectHeight = 100
	defaultShapeSize  = 150
	defaultArrowhead  = "arrow"
)

// Типы скругления Excalidraw.
const (
	RoundnessProportional = 2
	RoundnessAdaptive     = 3
)

type ShapeOptions struct {
	Style
	Label string
}

// Rectangle возвращает [rectangle, text?]. Нулевые размеры заменяются на 200×100.
func (f *Factory) Rectangle(x, y, width, height float64, opts ShapeOptions) []models.Element {
	opts.Roundness = &models.Roundness{Type: RoundnessAdaptive}
	return f.labeled(models.TypeRectangle, x, y,
		orFloat(width, defaultRectWidth), orFloat(height, defaultRectHeight), opts)
}

// Ellipse возвращает [ellipse, text?]. Нулевые размеры заменяются на 150×150.
func (f *Factory) Ellipse(x, y, width, height float64, opts ShapeOptions) []models.Element {
	return f.labeled(models.TypeEllipse, x, y,
		orFloat(width, defaultShapeSize), orFloat(height, defaultShapeSize), opts)
}

// Diamond возвращает [diamond, text?]. Нулевые размеры заменяются на 150×150.
func (f *Factory) Diamond(x, y, width, height float64, opts ShapeOptions) []models.Element {
	return f.labeled(models.TypeDiamond, x, y,
		orFloat(width, defaultShapeSize), orFloat(height, defaultShapeSize), opts)
}

// Shape выбирает генератор по типу контейнера.
func (f *Factory) Shape(kind models.ElementType, x, y, width, height float64, opts ShapeOptions) []models.Element {
	switch kind {
	case models.TypeEllipse:
		return f.Ellipse(x, y, width, height, opts)
	case models.TypeDiamond:
		return f.Diamond(x, y, width, height, opts)
	default:
		return f.Rectangle(x, y, width, height, opts)
	}
}

func (f *Factory) labeled(kind models.ElementType, x, y, width, height float64, opts ShapeOptions) []models.Element {
	container := f.Element(kind, x, y, width, height, opts.Style)
	if opts.Label == "" {
		return []models.Element{container}
	}

	text := f.Text(x+width/2, y+height/2, opts.Label, TextOptions{
		FontSize:      f.theme.LabelFontSize,
		TextAlign:     AlignCenter,
		VerticalAlign: AlignMiddle,
		ContainerID:   container.ID,
	})
	container.Bind(models.TypeText, text.ID)

	return []models.Element{container, text}
}

// ============================================================
// Arrows & lines
// ============================================================

type LinearOptions struct {
	Style
	StartArrowhead string
	EndArrowhead   string
	Label          string
}

// Arrow возвращает [arrow, text?]. По умолчанию наконечник только на конце.
func (f *Factory) Arrow(startX, startY, endX, endY float64, opts LinearOptions) []models.Element {
	arrow := f.linear(models.TypeArrow, startX, startY, endX, endY, opts.Style)
	if opts.StartArrowhead != "" {
		arrow.StartArrowhead = strPtr(opts.StartArrowhead)
	}
	arrow.EndArrowhead = strPtr(or(opts.EndArrowhead, defaultArrowhead))

	if opts.Label == "" {
		return []models.Element{arrow}
	}

	text := f.Text((startX+endX)/2, (startY+endY)/2, opts.Label, TextOptions{
		FontSize:      f.theme.ArrowLabelFontSize,
		TextAlign:     AlignCenter,
		VerticalAlign: AlignMiddle,
		ContainerID:   arrow.ID,
	})
	arrow.Bind(models.TypeText, text.ID)

	return []models.Element{arrow, text}
}

// Line возвращает [line] без наконечников.
func (f *Factory) Line(startX, startY, endX, endY float64, style Style) []models.Element {
	return []models.Element{f.linear(models.TypeLine, startX, startY, endX, endY, style)}
}

// linear строит bounding box по двум точкам и хранит точки относительно его угла.
func (f *Factory) linear(kind models.ElementType, startX, startY, endX, endY float64, style Style) models.Element {
	minX := math.Min(startX, endX)
	minY := math.Min(startY, endY)

	e := f.Element(kind, minX, minY, math.Abs(endX-startX), math.Abs(endY-startY), style)
	e.Points = []models.LinearPoint{
		{startX - minX, startY - minY},
		{endX - minX, endY - minY},
	}
	return e
}

// ============================================================
// Standalone text
// ============================================================

// TextElement возвращает [text].
func (f *Factory) TextElement(x, y float64, text string, opts TextOptions) []models.Element {
	return []models.Element{f.Text(x, y, text, opts)}
}

func strPtr(s string) *string {
	return &s
}
