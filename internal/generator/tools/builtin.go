package tools

import (
	"fmt"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
)

// ============================================================
// Built-in tools
// ============================================================

var (
	strokeStyles = []string{"solid", "dashed", "dotted"}
	fillStyles   = []string{"solid", "hachure", "cross-hatch"}
	arrowheads   = []string{"arrow", "bar", "dot", "triangle"}
	textAligns   = []string{excalidraw.AlignLeft, excalidraw.AlignCenter, excalidraw.AlignRight}
)

func shapeParams(kind string, width, height float64) []Param {
	return []Param{
		{Name: "x", Type: TypeNumber, Description: "X coordinate of top-left corner", Required: true},
		{Name: "y", Type: TypeNumber, Description: "Y coordinate of top-left corner", Required: true},
		{Name: "width", Type: TypeNumber, Description: fmt.Sprintf("Width of %s (default %g)", kind, width)},
		{Name: "height", Type: TypeNumber, Description: fmt.Sprintf("Height of %s (default %g)", kind, height)},
		{Name: "strokeColor", Type: TypeString, Description: "Border color in hex"},
		{Name: "backgroundColor", Type: TypeString, Description: "Fill color in hex or 'transparent'"},
		{Name: "strokeWidth", Type: TypeNumber, Description: "Border width in pixels (default 2)"},
		{Name: "strokeStyle", Type: TypeString, Description: "Border style", Enum: strokeStyles},
		{Name: "fillStyle", Type: TypeString, Description: "Fill pattern", Enum: fillStyles},
		{Name: "label", Type: TypeString, Description: fmt.Sprintf("Optional text label inside the %s", kind)},
	}
}

func linearParams(kind string) []Param {
	return []Param{
		{Name: "startX", Type: TypeNumber, Description: fmt.Sprintf("X coordinate of %s start point", kind), Required: true},
		{Name: "startY", Type: TypeNumber, Description: fmt.Sprintf("Y coordinate of %s start point", kind), Required: true},
		{Name: "endX", Type: TypeNumber, Description: fmt.Sprintf("X coordinate of %s end point", kind), Required: true},
		{Name: "endY", Type: TypeNumber, Description: fmt.Sprintf("Y coordinate of %s end point", kind), Required: true},
		{Name: "strokeColor", Type: TypeString, Description: "Line color in hex"},
		{Name: "strokeWidth", Type: TypeNumber, Description: "Line width in pixels (default 2)"},
		{Name: "strokeStyle", Type: TypeString, Description: "Line style", Enum: strokeStyles},
	}
}

func (r *Registry) builtin() []Tool {
	return []Tool{
		{
			Name:        "create_rectangle",
			Description: "Create a rectangle shape on the Excalidraw canvas.",
			Params:      shapeParams("rectangle", 200, 100),
			run:         runShape(models.TypeRectangle),
		},
		{
			Name:        "create_ellipse",
			Description: "Create an ellipse or circle on the Excalidraw canvas.",
			Params:      shapeParams("ellipse", 150, 150),
			run:         runShape(models.TypeEllipse),
		},
		{
			Name:        "create_diamond",
			Description: "Create a diamond shape, typically a flowchart decision.",
			Params:      shapeParams("diamond", 150, 150),
			run:         runShape(models.TypeDiamond),
		},
		{
			Name:        "create_arrow",
			Description: "Create an arrow between two points on the Excalidraw canvas.",
			Params: append(linearParams("arrow"),
				Param{Name: "startArrowhead", Type: TypeString, Description: "Arrowhead at start (default none)", Enum: arrowheads},
				Param{Name: "endArrowhead", Type: TypeString, Description: "Arrowhead at end (default arrow)", Enum: arrowheads},
				Param{Name: "label", Type: TypeString, Description: "Optional text label on the arrow"},
			),
			run: runArrow,
		},
		{
			Name:        "create_line",
			Description: "Create a straight line without arrowheads.",
			Params:      linearParams("line"),
			run:         runLine,
		},
		{
			Name:        "create_text_standalone",
			Description: "Create standalone text on the Excalidraw canvas.",
			Params: []Param{
				{Name: "x", Type: TypeNumber, Description: "X coordinate of text position", Required: true},
				{Name: "y", Type: TypeNumber, Description: "Y coordinate of text position", Required: true},
				{Name: "text", Type: TypeString, Description: "The text content to display", Required: true},
				{Name: "fontSize", Type: TypeNumber, Description: "Font size in pixels (default 20)"},
				{Name: "fontFamily", Type: TypeInteger, Description: "Font family: 1 Virgil, 2 Helvetica, 3 Cascadia (default 1)"},
				{Name: "textAlign", Type: TypeString, Description: "Horizontal alignment (default left)", Enum: textAligns},
				{Name: "strokeColor", Type: TypeString, Description: "Text color in hex"},
			},
			run: runText,
		},
		{
			Name:        "create_flowchart",
			Description: "Create a vertical flowchart: a title diamond followed by connected step boxes.",
			Params: []Param{
				{Name: "title", Type: TypeString, Description: "Title shown in the diamond", Required: true},
				{Name: "steps", Type: TypeArray, Items: TypeString, Description: "Step descriptions, one box each", Required: true},
				{Name: "x", Type: TypeNumber, Description: "Starting X coordinate (default 100)"},
				{Name: "y", Type: TypeNumber, Description: "Starting Y coordinate (default 100)"},
				{Name: "boxWidth", Type: TypeNumber, Description: "Width of each box (default 200)"},
				{Name: "boxHeight", Type: TypeNumber, Description: "Height of each box (default 80)"},
				{Name: "verticalSpacing", Type: TypeNumber, Description: "Space between boxes (default 60)"},
			},
			run: runFlowchart,
		},
		{
			Name: "create_advanced_flowchart",
			Description: "Create a flowchart with decision branches. Nodes are objects " +
				`{"id", "type": start|process|decision|end, "label", "next"} where next is a node id ` +
				`or, for decisions, an object like {"yes": id, "no": id}.`,
			Params: []Param{
				{Name: "nodes", Type: TypeArray, Items: TypeObject, Description: "Flowchart nodes", Required: true},
				{Name: "x", Type: TypeNumber, Description: "Starting X coordinate (default 100)"},
				{Name: "y", Type: TypeNumber, Description: "Starting Y coordinate (default 100)"},
				{Name: "nodeWidth", Type: TypeNumber, Description: "Width of each node (default 200)"},
				{Name: "nodeHeight", Type: TypeNumber, Description: "Height of each node (default 80)"},
				{Name: "horizontalSpacing", Type: TypeNumber, Description: "Space between branches (default 120)"},
				{Name: "verticalSpacing", Type: TypeNumber, Description: "Space between levels (default 60)"},
			},
			run: r.runAdvancedFlowchart,
		},
		{
			Name: "create_system_architecture",
			Description: "Create a layered system architecture diagram. Components are objects " +
				`{"id", "type": client|server|database|api|cache|queue|storage|service, "label", "layer"}; ` +
				`connections are {"from", "to", "label"}.`,
			Params: []Param{
				{Name: "components", Type: TypeArray, Items: TypeObject, Description: "Architecture components", Required: true},
				{Name: "connections", Type: TypeArray, Items: TypeObject, Description: "Connections between components", Required: true},
				{Name: "x", Type: TypeNumber, Description: "Starting X coordinate (default 100)"},
				{Name: "y", Type: TypeNumber, Description: "Starting Y coordinate (default 100)"},
				{Name: "componentWidth", Type: TypeNumber, Description: "Width of each component (default 180)"},
				{Name: "componentHeight", Type: TypeNumber, Description: "Height of each component (default 120)"},
				{Name: "horizontalSpacing", Type: TypeNumber, Description: "Space between components (default 200)"},
				{Name: "verticalSpacing", Type: TypeNumber, Description: "Space between layers (default 150)"},
			},
			run: r.runSystemArchitecture,
		},
	}
}

// ============================================================
// Runners
// ============================================================

func runShape(kind models.ElementType) RunFunc {
	return func(f *excalidraw.Factory, args Args) ([]models.Element, error) {
		rd := reader{args: args}
		x, y := rd.number("x", 0), rd.number("y", 0)
		width, height := rd.number("width", 0), rd.number("height", 0)
		opts := excalidraw.ShapeOptions{
			Style: excalidraw.Style{
				StrokeColor:     rd.str("strokeColor", ""),
				BackgroundColor: rd.str("backgroundColor", ""),
				StrokeWidth:     rd.number("strokeWidth", 0),
				StrokeStyle:     rd.str("strokeStyle", ""),
				FillStyle:       rd.str("fillStyle", ""),
			},
			Label: rd.str("label", ""),
		}
		if rd.err != nil {
			return nil, rd.err
		}
		return f.Shape(kind, x, y, width, height, opts), nil
	}
}

func linearStyle(rd *reader) excalidraw.Style {
	return excalidraw.Style{
		StrokeColor: rd.str("strokeColor", ""),
		StrokeWidth: rd.number("strokeWidth", 0),
		StrokeStyle: rd.str("strokeStyle", ""),
	}
}

func runArrow(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	sx, sy := rd.number("startX", 0), rd.number("startY", 0)
	ex, ey := rd.number("endX", 0), rd.number("endY", 0)
	opts := excalidraw.LinearOptions{
		Style:          linearStyle(&rd),
		StartArrowhead: rd.str("startArrowhead", ""),
		EndArrowhead:   rd.str("endArrowhead", ""),
		Label:          rd.str("label", ""),
	}
	if rd.err != nil {
		return nil, rd.err
	}
	return f.Arrow(sx, sy, ex, ey, opts), nil
}

func runLine(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	sx, sy := rd.number("startX", 0), rd.number("startY", 0)
	ex, ey := rd.number("endX", 0), rd.number("endY", 0)
	style := linearStyle(&rd)
	if rd.err != nil {
		return nil, rd.err
	}
	return f.Line(sx, sy, ex, ey, style), nil
}

func runText(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	x, y := rd.number("x", 0), rd.number("y", 0)
	text := rd.str("text", "")
	opts := excalidraw.TextOptions{
		FontSize:    rd.number("fontSize", 0),
		FontFamily:  rd.integer("fontFamily", 0),
		TextAlign:   rd.str("textAlign", ""),
		StrokeColor: rd.str("strokeColor", ""),
	}
	if rd.err != nil {
		return nil, rd.err
	}
	return f.TextElement(x, y, text, opts), nil
}

func runFlowchart(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	title := rd.str("title", "")
	var steps []string
	rd.decode("steps", &steps)
	x := rd.number("x", excalidraw.DefaultOrigin)
	y := rd.number("y", excalidraw.DefaultOrigin)
	opts := excalidraw.FlowchartOptions{
		BoxWidth:        rd.number("boxWidth", 0),
		BoxHeight:       rd.number("boxHeight", 0),
		VerticalSpacing: rd.number("verticalSpacing", 0),
	}
	if rd.err != nil {
		return nil, rd.err
	}
	return f.Flowchart(title, steps, x, y, opts).Elements(), nil
}

func (r *Registry) runAdvancedFlowchart(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	var nodes []excalidraw.FlowNode
	rd.decode("nodes", &nodes)
	opts := excalidraw.AdvancedFlowchartOptions{
		X:                 rd.number("x", excalidraw.DefaultOrigin),
		Y:                 rd.number("y", excalidraw.DefaultOrigin),
		NodeWidth:         rd.number("nodeWidth", 0),
		NodeHeight:        rd.number("nodeHeight", 0),
		HorizontalSpacing: rd.number("horizontalSpacing", 0),
		VerticalSpacing:   rd.number("verticalSpacing", 0),
	}
	if rd.err != nil {
		return nil, rd.err
	}
	if err := r.validate.Var(nodes, "dive"); err != nil {
		return nil, fmt.Errorf("%w: nodes: %v", ErrInvalidArgument, err)
	}
	return f.AdvancedFlowchart(nodes, opts).Elements(), nil
}

func (r *Registry) runSystemArchitecture(f *excalidraw.Factory, args Args) ([]models.Element, error) {
	rd := reader{args: args}
	var components []excalidraw.Component
	var connections []excalidraw.Connection
	rd.decode("components", &components)
	rd.decode("connections", &connections)
	opts := excalidraw.ArchitectureOptions{
		X:                 rd.number("x", excalidraw.DefaultOrigin),
		Y:                 rd.number("y", excalidraw.DefaultOrigin),
		ComponentWidth:    rd.number("componentWidth", 0),
		ComponentHeight:   rd.number("componentHeight", 0),
		HorizontalSpacing: rd.number("horizontalSpacing", 0),
		VerticalSpacing:   rd.number("verticalSpacing", 0),
	}
	if rd.err != nil {
		return nil, rd.err
	}
	if err := r.validate.Var(components, "dive"); err != nil {
		return nil, fmt.Errorf("%w: components: %v", ErrInvalidArgument, err)
	}
	return f.SystemArchitecture(components, connections, opts).Elements(), nil
}
