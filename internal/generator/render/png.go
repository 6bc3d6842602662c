package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"constellar/internal/generator/models"
)

// ============================================================
// Native rasterizer
// ============================================================

const (
	defaultImageWidth = 1200
	maxImageSide      = 8192
)

// Raster рисует сцену средствами gg без внешнего браузера.
type Raster struct {
	renderer *Renderer
	font     *truetype.Font
	width    int
}

func NewRaster(renderer *Renderer, width int) (*Raster, error) {
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if width <= 0 {
		width = defaultImageWidth
	}
	return &Raster{renderer: renderer, font: ttf, width: width}, nil
}

// WithWidth возвращает копию с другой шириной изображения.
func (r *Raster) WithWidth(width int) *Raster {
	if width <= 0 {
		return r
	}
	clone := *r
	clone.width = min(width, maxImageSide)
	return &clone
}

// PNG масштабирует сцену под ширину изображения, сохраняя пропорции.
func (r *Raster) PNG(ctx context.Context, scene *models.Scene) ([]byte, error) {
	if scene == nil {
		return nil, fmt.Errorf("scene is nil")
	}

	elements := scene.Live()
	box := r.renderer.frame(elements)
	scale := float64(r.width) / box.width()
	height := int(math.Ceil(box.height() * scale))
	if height > maxImageSide {
		return nil, fmt.Errorf("image height %d exceeds limit %d", height, maxImageSide)
	}

	dc := gg.NewContext(r.width, max(height, 1))
	if bg, ok := parseColor(background(scene), 100); ok {
		dc.SetColor(bg)
	} else {
		dc.SetColor(color.White)
	}
	dc.Clear()

	dc.Scale(scale, scale)
	dc.Translate(-box.minX, -box.minY)

	faces := make(map[float64]font.Face)
	defer func() {
		for _, face := range faces {
			face.Close()
		}
	}()

	for _, e := range elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.draw(dc, e, faces)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Raster) draw(dc *gg.Context, e models.Element, faces map[float64]font.Face) {
	dc.Push()
	defer dc.Pop()

	if e.Angle != 0 {
		c := e.Center()
		dc.RotateAbout(e.Angle, c.X, c.Y)
	}

	switch e.Type {
	case models.TypeRectangle:
		if e.Roundness != nil {
			dc.DrawRoundedRectangle(e.X, e.Y, e.Width, e.Height, math.Min(math.Abs(e.Width), math.Abs(e.Height))*0.1)
		} else {
			dc.DrawRectangle(e.X, e.Y, e.Width, e.Height)
		}
		fillAndStroke(dc, e)
	case models.TypeEllipse:
		c := e.Center()
		dc.DrawEllipse(c.X, c.Y, math.Abs(e.Width)/2, math.Abs(e.Height)/2)
		fillAndStroke(dc, e)
	case models.TypeDiamond:
		points := diamondPoints(e)
		dc.MoveTo(points[0].X, points[0].Y)
		for _, p := range points[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.ClosePath()
		fillAndStroke(dc, e)
	case models.TypeArrow, models.TypeLine:
		r.drawLinear(dc, e)
	case models.TypeText:
		r.drawText(dc, e, faces)
	}
}

func (r *Raster) drawLinear(dc *gg.Context, e models.Element) {
	points := e.AbsolutePoints()
	if len(points) < 2 {
		return
	}

	dc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		dc.LineTo(p.X, p.Y)
	}
	stroke(dc, e)

	wings := func(from, tip models.Point) {
		left, right := arrowheadWings(from, tip)
		dc.MoveTo(left.X, left.Y)
		dc.LineTo(tip.X, tip.Y)
		dc.LineTo(right.X, right.Y)
		stroke(dc, e)
	}
	if e.StartArrowhead != nil {
		wings(points[1], points[0])
	}
	if e.EndArrowhead != nil {
		wings(points[len(points)-2], points[len(points)-1])
	}
}

func (r *Raster) drawText(dc *gg.Context, e models.Element, faces map[float64]font.Face) {
	size := e.FontSize
	if size == 0 {
		size = 20
	}
	face, ok := faces[size]
	if !ok {
		face = truetype.NewFace(r.font, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		faces[size] = face
	}
	dc.SetFontFace(face)

	c, ok := parseColor(e.StrokeColor, e.Opacity)
	if !ok {
		c = color.NRGBA{A: 255}
	}
	dc.SetColor(c)

	lines := strings.Split(e.Text, "\n")
	step := e.Height / float64(len(lines))
	if step == 0 {
		step = size * 1.25
	}

	x, ax := e.X, 0.0
	switch e.TextAlign {
	case "center":
		x, ax = e.X+e.Width/2, 0.5
	case "right":
		x, ax = e.X+e.Width, 1
	}
	for i, line := range lines {
		dc.DrawStringAnchored(line, x, e.Y+step*(float64(i)+0.5), ax, 0.35)
	}
}

// ============================================================
// Paint helpers
// ============================================================

func fillAndStroke(dc *gg.Context, e models.Element) {
	if fill, ok := parseColor(e.BackgroundColor, e.Opacity); ok {
		dc.SetColor(fill)
		dc.FillPreserve()
	}
	stroke(dc, e)
}

func stroke(dc *gg.Context, e models.Element) {
	c, ok := parseColor(e.StrokeColor, e.Opacity)
	if !ok {
		dc.ClearPath()
		return
	}
	dc.SetColor(c)
	dc.SetLineWidth(math.Max(e.StrokeWidth, 1))
	dc.SetDash(dashArray(e.StrokeStyle, e.StrokeWidth)...)
	dc.Stroke()
}

// parseColor разбирает #rgb, #rrggbb и #rrggbbaa; "transparent" и пустая строка дают ok=false.
func parseColor(s string, opacity int) (color.NRGBA, bool) {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "#") {
		return color.NRGBA{}, false
	}
	hex := trimmed[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, false
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	if opacity > 0 && opacity < 100 {
		c.A = uint8(int(c.A) * opacity / 100)
	}
	return c, true
}
