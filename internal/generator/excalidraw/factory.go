package excalidraw

import (
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"constellar/internal/generator/models"
)

// ============================================================
// Factory
// ============================================================

const (
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 12
	maxSeed    = 2147483647

	charWidthRatio  = 0.6
	lineHeightRatio = 1.4
	textLineHeight  = 1.25
)

const (
	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
	AlignTop    = "top"
	AlignMiddle = "middle"
)

// Factory собирает элементы Excalidraw со стилями из темы.
// Без опций безопасна для конкурентного использования.
type Factory struct {
	theme  Theme
	intN   func(int) int
	int64N func(int64) int64
	now    func() time.Time
}

type Option func(*Factory)

// WithRand подменяет источник случайности (тесты). *rand.Rand не потокобезопасен.
func WithRand(r *rand.Rand) Option {
	return func(f *Factory) {
		f.intN = r.IntN
		f.int64N = r.Int64N
	}
}

// WithClock подменяет часы для поля updated.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		f.now = now
	}
}

func NewFactory(theme Theme, opts ...Option) *Factory {
	f := &Factory{
		theme:  theme,
		intN:   rand.IntN,
		int64N: rand.Int64N,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Theme() Theme {
	return f.theme
}

// NewID генерирует идентификатор из 12 символов [A-Za-z0-9].
func (f *Factory) NewID() string {
	var b strings.Builder
	b.Grow(idLength)
	for i := 0; i < idLength; i++ {
		b.WriteByte(idAlphabet[f.intN(len(idAlphabet))])
	}
	return b.String()
}

func (f *Factory) seed() int64 {
	return f.int64N(maxSeed)
}

// ============================================================
// Base element
// ============================================================

// Style переопределяет стиль элемента. Нулевые поля берутся из темы.
type Style struct {
	StrokeColor     string
	BackgroundColor string
	FillStyle       string
	StrokeWidth     float64
	StrokeStyle     string
	Roughness       int
	Opacity         int
	Angle           float64
	Roundness       *models.Roundness
}

// Element создаёт один элемент заданного типа и геометрии.
func (f *Factory) Element(kind models.ElementType, x, y, width, height float64, style Style) models.Element {
	t := f.theme
	return models.Element{
		ID:              f.NewID(),
		Type:            kind,
		X:               x,
		Y:               y,
		Width:           width,
		Height:          height,
		Angle:           style.Angle,
		StrokeColor:     or(style.StrokeColor, t.StrokeColor),
		BackgroundColor: or(style.BackgroundColor, t.BackgroundColor),
		FillStyle:       or(style.FillStyle, t.FillStyle),
		StrokeWidth:     orFloat(style.StrokeWidth, t.StrokeWidth),
		StrokeStyle:     or(style.StrokeStyle, t.StrokeStyle),
		Roughness:       orInt(style.Roughness, t.Roughness),
		Opacity:         orInt(style.Opacity, t.Opacity),
		GroupIDs:        []string{},
		Roundness:       style.Roundness,
		Seed:            f.seed(),
		Version:         1,
		VersionNonce:    f.seed(),
		Updated:         f.now().UnixMilli(),
	}
}

// ============================================================
// Text
// ============================================================

type TextOptions struct {
	FontSize      float64
	FontFamily    int
	TextAlign     string
	VerticalAlign string
	StrokeColor   string
	ContainerID   string
}

// Text создаёт текстовый элемент с приблизительным bounding box.
// При выравнивании по центру (x, y) становится центром блока, а не углом.
func (f *Factory) Text(x, y float64, text string, opts TextOptions) models.Element {
	fontSize := orFloat(opts.FontSize, f.theme.FontSize)
	width, height := MeasureText(text, fontSize)

	textAlign := or(opts.TextAlign, AlignLeft)
	verticalAlign := or(opts.VerticalAlign, AlignTop)
	if textAlign == AlignCenter {
		x -= width / 2
	}
	if verticalAlign == AlignMiddle {
		y -= height / 2
	}

	e := f.Element(models.TypeText, x, y, width, height, Style{
		StrokeColor: or(opts.StrokeColor, f.theme.TextColor),
	})
	e.Text = text
	e.OriginalText = text
	e.FontSize = fontSize
	e.FontFamily = orInt(opts.FontFamily, f.theme.FontFamily)
	e.TextAlign = textAlign
	e.VerticalAlign = verticalAlign
	e.Baseline = fontSize
	e.LineHeight = textLineHeight
	if opts.ContainerID != "" {
		containerID := opts.ContainerID
		e.ContainerID = &containerID
	}
	return e
}

// MeasureText оценивает размер текста: ширина по самой длинной строке, высота по числу строк.
func MeasureText(text string, fontSize float64) (float64, float64) {
	lines := strings.Split(text, "\n")
	longest := 0
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > longest {
			longest = n
		}
	}
	width := float64(longest) * fontSize * charWidthRatio
	height := float64(len(lines)) * fontSize * lineHeightRatio
	return width, height
}
