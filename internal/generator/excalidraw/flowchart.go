package excalidraw

import "constellar/internal/generator/models"

// ============================================================
// Diagram
// ============================================================

// Node хранит один узел составной диаграммы и его привязанная подпись.
type Node struct {
	Element models.Element  `json:"element"`
	Label   *models.Element `json:"label,omitempty"`
}

// Diagram содержит упорядоченные узлы многоузловой диаграммы.
type Diagram struct {
	Nodes []Node `json:"nodes"`
}

// Elements разворачивает узлы и подписи в плоский список в порядке создания.
func (d Diagram) Elements() []models.Element {
	elements := make([]models.Element, 0, len(d.Nodes)*2)
	for _, n := range d.Nodes {
		elements = append(elements, n.Element)
		if n.Label != nil {
			elements = append(elements, *n.Label)
		}
	}
	return elements
}

func (d *Diagram) add(elements []models.Element) {
	if len(elements) == 0 {
		return
	}
	node := Node{Element: elements[0]}
	if len(elements) > 1 {
		label := elements[1]
		node.Label = &label
	}
	d.Nodes = append(d.Nodes, node)
}

// ============================================================
// Linear flowchart
// ============================================================

const (
	DefaultOrigin          = 100
	defaultBoxWidth        = 200
	defaultBoxHeight       = 80
	defaultVerticalSpacing = 60
)

type FlowchartOptions struct {
	BoxWidth        float64
	BoxHeight       float64
	VerticalSpacing float64
}

// Flowchart строит вертикальную цепочку: ромб-заголовок и прямоугольник на каждый шаг.
// Узлы идут в порядке title, arrow, step, arrow, step...
func (f *Factory) Flowchart(title string, steps []string, x, y float64, opts FlowchartOptions) Diagram {
	boxWidth := orFloat(opts.BoxWidth, defaultBoxWidth)
	boxHeight := orFloat(opts.BoxHeight, defaultBoxHeight)
	spacing := orFloat(opts.VerticalSpacing, defaultVerticalSpacing)
	palette := f.theme.Flowchart

	var d Diagram
	d.add(f.Diamond(x, y, boxWidth, boxHeight, ShapeOptions{
		Style: Style{BackgroundColor: palette.Title, StrokeColor: palette.Stroke},
		Label: title,
	}))

	centerX := x + boxWidth/2
	prevBottom := y + boxHeight
	currentY := y + boxHeight + spacing

	for i, step := range steps {
		background := palette.Step
		if i == len(steps)-1 {
			background = palette.FinalStep
		}

		d.add(f.Arrow(centerX, prevBottom, centerX, currentY, LinearOptions{
			Style: Style{StrokeColor: palette.Stroke, StrokeWidth: 2},
		}))
		d.add(f.Rectangle(x, currentY, boxWidth, boxHeight, ShapeOptions{
			Style: Style{BackgroundColor: background, StrokeColor: palette.Stroke},
			Label: step,
		}))

		prevBottom = currentY + boxHeight
		currentY += boxHeight + spacing
	}

	return d
}
