package excalidraw

import (
	"cmp"
	"slices"

	"constellar/internal/generator/models"
)

// ============================================================
// System architecture
// ============================================================

const (
	defaultComponentWidth  = 180
	defaultComponentHeight = 120
	defaultLayerHSpacing   = 200
	defaultLayerVSpacing   = 150
	componentDatabase      = "database"
	componentFallback      = "service"
)

type Component struct {
	ID    string `json:"id" validate:"required"`
	Type  string `json:"type"`
	Label string `json:"label"`
	Layer int    `json:"layer"`
}

// Connection связывает два компонента. From1 принимается как синоним from.
type Connection struct {
	From  string `json:"from"`
	From1 string `json:"from1,omitempty"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// Source возвращает id источника с учётом синонима.
func (c Connection) Source() string {
	return or(c.From, c.From1)
}

// ArchitectureOptions задаёт раскладку. X и Y берутся как есть, ноль тоже координата.
type ArchitectureOptions struct {
	X                 float64
	Y                 float64
	ComponentWidth    float64
	ComponentHeight   float64
	HorizontalSpacing float64
	VerticalSpacing   float64
}

// SystemArchitecture раскладывает компоненты по слоям сверху вниз и соединяет их стрелками.
func (f *Factory) SystemArchitecture(components []Component, connections []Connection, opts ArchitectureOptions) Diagram {
	x, y := opts.X, opts.Y
	width := orFloat(opts.ComponentWidth, defaultComponentWidth)
	height := orFloat(opts.ComponentHeight, defaultComponentHeight)
	hSpacing := orFloat(opts.HorizontalSpacing, defaultLayerHSpacing)
	vSpacing := orFloat(opts.VerticalSpacing, defaultLayerVSpacing)

	layers := make(map[int][]Component)
	for _, c := range components {
		layers[c.Layer] = append(layers[c.Layer], c)
	}
	order := make([]int, 0, len(layers))
	for layer := range layers {
		order = append(order, layer)
	}
	slices.SortFunc(order, cmp.Compare[int])

	var d Diagram
	anchors := make(map[string]anchor, len(components))

	for _, layer := range order {
		members := layers[layer]
		startX := x
		if len(members) > 1 {
			layerWidth := float64(len(members))*width + float64(len(members)-1)*hSpacing
			startX = x + (width-layerWidth)/2
		}

		for i, c := range members {
			compX := startX + float64(i)*(width+hSpacing)
			compY := y + float64(layer)*(height+vSpacing)

			kind := or(c.Type, componentFallback)
			style := f.theme.ComponentStyle(kind)
			shape := ShapeOptions{
				Style: Style{StrokeColor: style.Stroke, BackgroundColor: style.Background},
				Label: style.Icon + " " + c.Label,
			}

			shapeKind := models.TypeRectangle
			if kind == componentDatabase {
				shapeKind = models.TypeEllipse
			}
			d.add(f.Shape(shapeKind, compX, compY, width, height, shape))
			anchors[c.ID] = anchorOf(compX, compY, width, height)
		}
	}

	for _, conn := range connections {
		from, ok := anchors[conn.Source()]
		if !ok {
			continue
		}
		to, ok := anchors[conn.To]
		if !ok {
			continue
		}

		sx, sy, ex, ey := route(from, to)
		d.add(f.Arrow(sx, sy, ex, ey, LinearOptions{
			Style: Style{StrokeColor: f.theme.ConnectionColor},
			Label: conn.Label,
		}))
	}

	return d
}

// route выбирает точки крепления: снизу вверх, если источник выше цели, иначе по бокам.
func route(from, to anchor) (sx, sy, ex, ey float64) {
	switch {
	case from.bottom < to.top:
		return from.centerX, from.bottom, to.centerX, to.top
	case from.centerX < to.centerX:
		return from.right, from.centerY, to.left, to.centerY
	default:
		return from.left, from.centerY, to.right, to.centerY
	}
}
