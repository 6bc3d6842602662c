package excalidraw

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ============================================================
// Advanced flowchart model
// ============================================================

const (
	FlowStart    = "start"
	FlowProcess  = "process"
	FlowDecision = "decision"
	FlowEnd      = "end"
)

type FlowNode struct {
	ID    string   `json:"id" validate:"required"`
	Type  string   `json:"type" validate:"omitempty,oneof=start process decision end"`
	Label string   `json:"label"`
	Next  FlowNext `json:"next,omitempty"`
}

// Branch задаёт именованный выход узла решения.
type Branch struct {
	Name   string
	Target string
}

// FlowNext описывает переход узла: либо id следующего узла, либо ветки решения {"yes": id, "no": id}.
type FlowNext struct {
	Target   string
	Branches []Branch
}

// Targets возвращает id всех переходов в порядке объявления.
func (n FlowNext) Targets() []string {
	if len(n.Branches) > 0 {
		targets := make([]string, 0, len(n.Branches))
		for _, b := range n.Branches {
			targets = append(targets, b.Target)
		}
		return targets
	}
	if n.Target != "" {
		return []string{n.Target}
	}
	return nil
}

// UnmarshalJSON сохраняет порядок веток объекта.
func (n *FlowNext) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*n = FlowNext{}
		return nil
	case len(data) > 0 && data[0] == '"':
		return json.Unmarshal(data, &n.Target)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("next: expected string or object, got %v", tok)
	}

	n.Branches = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		var target string
		if err := dec.Decode(&target); err != nil {
			return fmt.Errorf("next.%v: %w", keyTok, err)
		}
		n.Branches = append(n.Branches, Branch{Name: keyTok.(string), Target: target})
	}
	_, err = dec.Token()
	return err
}

func (n FlowNext) MarshalJSON() ([]byte, error) {
	if len(n.Branches) == 0 {
		if n.Target == "" {
			return []byte("null"), nil
		}
		return json.Marshal(n.Target)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range n.Branches {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(b.Name)
		value, _ := json.Marshal(b.Target)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ============================================================
// Advanced flowchart layout
// ============================================================

const defaultHorizontalSpacing = 120

// AdvancedFlowchartOptions задаёт раскладку. X и Y берутся как есть, ноль тоже координата.
type AdvancedFlowchartOptions struct {
	X                 float64
	Y                 float64
	NodeWidth         float64
	NodeHeight        float64
	HorizontalSpacing float64
	VerticalSpacing   float64
}

type anchor struct {
	centerX, centerY float64
	top, bottom      float64
	left, right      float64
}

func anchorOf(x, y, width, height float64) anchor {
	return anchor{
		centerX: x + width/2,
		centerY: y + height/2,
		top:     y,
		bottom:  y + height,
		left:    x,
		right:   x + width,
	}
}

// AdvancedFlowchart раскладывает граф по уровням: уровень узла равен длине самого длинного
// пути от него без циклов, узлы с наибольшей длиной оказываются сверху.
func (f *Factory) AdvancedFlowchart(nodes []FlowNode, opts AdvancedFlowchartOptions) Diagram {
	x, y := opts.X, opts.Y
	width := orFloat(opts.NodeWidth, defaultBoxWidth)
	height := orFloat(opts.NodeHeight, defaultBoxHeight)
	hSpacing := orFloat(opts.HorizontalSpacing, defaultHorizontalSpacing)
	vSpacing := orFloat(opts.VerticalSpacing, defaultVerticalSpacing)
	palette := f.theme.Flowchart

	byID := make(map[string]FlowNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	lengths := newPathLengths(byID)
	depth := make([]int, len(nodes))
	maxDepth := 0
	for i, n := range nodes {
		depth[i] = lengths.of(n.ID)
		maxDepth = max(maxDepth, depth[i])
	}

	levels := make([][]int, maxDepth+1)
	for i := range nodes {
		level := maxDepth - depth[i]
		levels[level] = append(levels[level], i)
	}

	var d Diagram
	anchors := make(map[string]anchor, len(nodes))

	for level, members := range levels {
		startX := x
		if len(members) > 1 {
			levelWidth := float64(len(members))*width + float64(len(members)-1)*hSpacing
			startX = x + (width-levelWidth)/2
		}

		for i, idx := range members {
			n := nodes[idx]
			nodeX := startX + float64(i)*(width+hSpacing)
			nodeY := y + float64(level)*(height+vSpacing)

			shape := ShapeOptions{Label: n.Label}
			switch n.Type {
			case FlowStart:
				shape.BackgroundColor = palette.Start
				d.add(f.Ellipse(nodeX, nodeY, width, height, shape))
			case FlowEnd:
				shape.BackgroundColor = palette.End
				d.add(f.Ellipse(nodeX, nodeY, width, height, shape))
			case FlowDecision:
				shape.BackgroundColor = palette.Decision
				d.add(f.Diamond(nodeX, nodeY, width, height, shape))
			default:
				shape.BackgroundColor = palette.Process
				d.add(f.Rectangle(nodeX, nodeY, width, height, shape))
			}
			anchors[n.ID] = anchorOf(nodeX, nodeY, width, height)
		}
	}

	for _, n := range nodes {
		from, ok := anchors[n.ID]
		if !ok {
			continue
		}
		link := func(target, label string) {
			to, ok := anchors[target]
			if !ok {
				return
			}
			d.add(f.Arrow(from.centerX, from.bottom, to.centerX, to.top, LinearOptions{
				Style: Style{StrokeColor: palette.Stroke},
				Label: label,
			}))
		}

		if len(n.Next.Branches) > 0 {
			for _, b := range n.Next.Branches {
				link(b.Target, strings.ToUpper(b.Name))
			}
		} else if n.Next.Target != "" {
			link(n.Next.Target, "")
		}
	}

	return d
}

// Состояния обхода в pathLengths.
const (
	visitNone = iota
	visitActive
	visitDone
)

// pathLengths считает длину самого длинного пути переходов из каждого узла.
// Каждый узел обходится один раз; переход в узел на текущем пути обрывает цикл и даёт 0.
type pathLengths struct {
	byID   map[string]FlowNode
	state  map[string]int
	length map[string]int
}

func newPathLengths(byID map[string]FlowNode) *pathLengths {
	return &pathLengths{
		byID:   byID,
		state:  make(map[string]int, len(byID)),
		length: make(map[string]int, len(byID)),
	}
}

func (p *pathLengths) of(id string) int {
	switch p.state[id] {
	case visitActive:
		return 0
	case visitDone:
		return p.length[id]
	}
	node, ok := p.byID[id]
	if !ok {
		return 0
	}

	p.state[id] = visitActive
	longest := 0
	targets := node.Next.Targets()
	for _, t := range targets {
		longest = max(longest, p.of(t))
	}
	if len(targets) > 0 {
		longest++
	}
	p.state[id] = visitDone
	p.length[id] = longest
	return longest
}
