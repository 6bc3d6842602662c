package render

import (
	"context"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"constellar/internal/generator/models"
)

// ============================================================
// Renderer
// ============================================================

const (
	defaultPadding    = 20
	emptySceneSize    = 100
	defaultBackground = "#ffffff"
	arrowheadLength   = 14
	arrowheadAngle    = math.Pi / 7
)

// Rasterizer превращает сцену в PNG.
type Rasterizer interface {
	PNG(ctx context.Context, scene *models.Scene) ([]byte, error)
}

type Renderer struct {
	padding float64
}

func NewRenderer() *Renderer {
	return &Renderer{padding: defaultPadding}
}

// SVG собирает SVG-документ из сцены Excalidraw. Удалённые элементы пропускаются.
func (r *Renderer) SVG(scene *models.Scene) (string, error) {
	if scene == nil {
		return "", fmt.Errorf("scene is nil")
	}

	elements := scene.Live()
	box := r.frame(elements)

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(box.width()), formatFloat(box.height()),
		formatFloat(box.minX), formatFloat(box.minY), formatFloat(box.width()), formatFloat(box.height())))
	builder.WriteString("\n")

	builder.WriteString(fmt.Sprintf(`  <rect x="%s" y="%s" width="%s" height="%s" fill="%s" />`,
		formatFloat(box.minX), formatFloat(box.minY), formatFloat(box.width()), formatFloat(box.height()),
		esc(background(scene))))
	builder.WriteString("\n")

	for _, e := range elements {
		elem := r.element(e)
		if elem == "" {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(elem)
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

// ============================================================
// Bounds
// ============================================================

type bounds struct {
	minX, minY, maxX, maxY float64
}

func (b bounds) width() float64  { return b.maxX - b.minX }
func (b bounds) height() float64 { return b.maxY - b.minY }

// Bounds возвращает габариты элементов; ok=false для пустого списка.
func Bounds(elements []models.Element) (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.MaxFloat64, math.MaxFloat64
	maxX, maxY = -math.MaxFloat64, -math.MaxFloat64

	extend := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	for _, e := range elements {
		if e.Type.IsLinear() && len(e.Points) > 0 {
			for _, p := range e.AbsolutePoints() {
				extend(p.X, p.Y)
			}
			continue
		}
		extend(e.X, e.Y)
		extend(e.X+e.Width, e.Y+e.Height)
	}

	if minX == math.MaxFloat64 {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX, maxY, true
}

func (r *Renderer) frame(elements []models.Element) bounds {
	minX, minY, maxX, maxY, ok := Bounds(elements)
	if !ok {
		return bounds{maxX: emptySceneSize, maxY: emptySceneSize}
	}
	return bounds{
		minX: minX - r.padding,
		minY: minY - r.padding,
		maxX: maxX + r.padding,
		maxY: maxY + r.padding,
	}
}

func background(scene *models.Scene) string {
	if bg, ok := scene.AppState["viewBackgroundColor"].(string); ok && bg != "" {
		return bg
	}
	return defaultBackground
}

// ============================================================
// Element renderers
// ============================================================

func (r *Renderer) element(e models.Element) string {
	switch e.Type {
	case models.TypeRectangle:
		radius := 0.0
		if e.Roundness != nil {
			radius = math.Min(math.Abs(e.Width), math.Abs(e.Height)) * 0.1
		}
		return fmt.Sprintf(`<rect id="%s" x="%s" y="%s" width="%s" height="%s" rx="%s"%s />`,
			esc(e.ID), formatFloat(e.X), formatFloat(e.Y), formatFloat(math.Abs(e.Width)), formatFloat(math.Abs(e.Height)),
			formatFloat(radius), shapeAttrs(e))
	case models.TypeEllipse:
		c := e.Center()
		return fmt.Sprintf(`<ellipse id="%s" cx="%s" cy="%s" rx="%s" ry="%s"%s />`,
			esc(e.ID), formatFloat(c.X), formatFloat(c.Y), formatFloat(math.Abs(e.Width)/2), formatFloat(math.Abs(e.Height)/2),
			shapeAttrs(e))
	case models.TypeDiamond:
		return fmt.Sprintf(`<polygon id="%s" points="%s"%s />`, esc(e.ID), joinPoints(diamondPoints(e)), shapeAttrs(e))
	case models.TypeArrow, models.TypeLine:
		return r.linear(e)
	case models.TypeText:
		return r.text(e)
	default:
		return ""
	}
}

func (r *Renderer) linear(e models.Element) string {
	points := e.AbsolutePoints()
	if len(points) < 2 {
		return ""
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`<g id="%s"%s>`, esc(e.ID), transform(e)))
	builder.WriteString(fmt.Sprintf(`<polyline points="%s" fill="none"%s />`, joinPoints(points), strokeAttrs(e)))

	if e.StartArrowhead != nil {
		builder.WriteString(arrowheadPath(points[1], points[0], e))
	}
	if e.EndArrowhead != nil {
		builder.WriteString(arrowheadPath(points[len(points)-2], points[len(points)-1], e))
	}

	builder.WriteString(`</g>`)
	return builder.String()
}

func (r *Renderer) text(e models.Element) string {
	fontSize := e.FontSize
	if fontSize == 0 {
		fontSize = 20
	}
	lines := strings.Split(e.Text, "\n")
	step := e.Height / float64(len(lines))
	if step == 0 {
		step = fontSize * 1.25
	}

	anchor, x := "start", e.X
	switch e.TextAlign {
	case "center":
		anchor, x = "middle", e.X+e.Width/2
	case "right":
		anchor, x = "end", e.X+e.Width
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(`<text id="%s" x="%s" y="%s" font-family="%s" font-size="%s" fill="%s" text-anchor="%s" dominant-baseline="middle"%s%s>`,
		esc(e.ID), formatFloat(x), formatFloat(e.Y), fontFamily(e.FontFamily), formatFloat(fontSize),
		esc(e.StrokeColor), anchor, opacityAttr(e), transform(e)))
	for i, line := range lines {
		builder.WriteString(fmt.Sprintf(`<tspan x="%s" y="%s">`, formatFloat(x), formatFloat(e.Y+step*(float64(i)+0.5))))
		xml.EscapeText(&builder, []byte(line))
		builder.WriteString(`</tspan>`)
	}
	builder.WriteString(`</text>`)
	return builder.String()
}

// ============================================================
// Attribute helpers
// ============================================================

func shapeAttrs(e models.Element) string {
	fill := e.BackgroundColor
	if fill == "" || fill == "transparent" {
		fill = "none"
	}
	return fmt.Sprintf(` fill="%s"%s%s`, esc(fill), strokeAttrs(e), transform(e))
}

func strokeAttrs(e models.Element) string {
	attrs := fmt.Sprintf(` stroke="%s" stroke-width="%s"`, esc(e.StrokeColor), formatFloat(e.StrokeWidth))
	if dash := dashArray(e.StrokeStyle, e.StrokeWidth); dash != nil {
		parts := make([]string, len(dash))
		for i, d := range dash {
			parts[i] = formatFloat(d)
		}
		attrs += fmt.Sprintf(` stroke-dasharray="%s"`, strings.Join(parts, " "))
	}
	return attrs + opacityAttr(e)
}

func opacityAttr(e models.Element) string {
	if e.Opacity <= 0 || e.Opacity >= 100 {
		return ""
	}
	return fmt.Sprintf(` opacity="%s"`, formatFloat(float64(e.Opacity)/100))
}

func transform(e models.Element) string {
	if e.Angle == 0 {
		return ""
	}
	c := e.Center()
	return fmt.Sprintf(` transform="rotate(%s %s %s)"`,
		formatFloat(e.Angle*180/math.Pi), formatFloat(c.X), formatFloat(c.Y))
}

func arrowheadPath(from, tip models.Point, e models.Element) string {
	left, right := arrowheadWings(from, tip)
	return fmt.Sprintf(`<path d="M %s L %s L %s" fill="none"%s />`,
		formatPoint(left), formatPoint(tip), formatPoint(right), strokeAttrs(e))
}

// ============================================================
// Geometry helpers
// ============================================================

func diamondPoints(e models.Element) []models.Point {
	c := e.Center()
	return []models.Point{
		{X: c.X, Y: e.Y},
		{X: e.X + e.Width, Y: c.Y},
		{X: c.X, Y: e.Y + e.Height},
		{X: e.X, Y: c.Y},
	}
}

// arrowheadWings возвращает концы «крыльев» наконечника у точки tip.
func arrowheadWings(from, tip models.Point) (models.Point, models.Point) {
	angle := math.Atan2(tip.Y-from.Y, tip.X-from.X)
	left := models.Point{
		X: tip.X - arrowheadLength*math.Cos(angle-arrowheadAngle),
		Y: tip.Y - arrowheadLength*math.Sin(angle-arrowheadAngle),
	}
	right := models.Point{
		X: tip.X - arrowheadLength*math.Cos(angle+arrowheadAngle),
		Y: tip.Y - arrowheadLength*math.Sin(angle+arrowheadAngle),
	}
	return left, right
}

func dashArray(style string, width float64) []float64 {
	if width == 0 {
		width = 1
	}
	switch style {
	case "dashed":
		return []float64{8 * width / 2, 6 * width / 2}
	case "dotted":
		return []float64{width, 4 * width}
	default:
		return nil
	}
}

func fontFamily(family int) string {
	switch family {
	case 2:
		return "Helvetica, Arial, sans-serif"
	case 3:
		return "Cascadia, monospace"
	default:
		return "Virgil, Segoe UI Emoji, sans-serif"
	}
}

// ============================================================
// Formatting helpers
// ============================================================

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

func esc(s string) string {
	return attrEscaper.Replace(s)
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

func formatPoint(p models.Point) string {
	return formatFloat(p.X) + " " + formatFloat(p.Y)
}

func joinPoints(points []models.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = formatFloat(p.X) + "," + formatFloat(p.Y)
	}
	return strings.Join(parts, " ")
}
