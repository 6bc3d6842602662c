package excalidraw

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Theme
// ============================================================

// Theme задаёт стили по умолчанию для фабрики элементов.
type Theme struct {
	StrokeColor     string  `yaml:"stroke_color"`
	BackgroundColor string  `yaml:"background_color"`
	FillStyle       string  `yaml:"fill_style"`
	StrokeWidth     float64 `yaml:"stroke_width"`
	StrokeStyle     string  `yaml:"stroke_style"`
	Roughness       int     `yaml:"roughness"`
	Opacity         int     `yaml:"opacity"`

	TextColor          string  `yaml:"text_color"`
	FontSize           float64 `yaml:"font_size"`
	FontFamily         int     `yaml:"font_family"`
	LabelFontSize      float64 `yaml:"label_font_size"`
	ArrowLabelFontSize float64 `yaml:"arrow_label_font_size"`

	Flowchart       FlowchartPalette          `yaml:"flowchart"`
	ConnectionColor string                    `yaml:"connection_color"`
	Components      map[string]ComponentStyle `yaml:"components"`
}

type FlowchartPalette struct {
	Stroke    string `yaml:"stroke"`
	Title     string `yaml:"title"`
	Step      string `yaml:"step"`
	FinalStep string `yaml:"final_step"`
	Start     string `yaml:"start"`
	End       string `yaml:"end"`
	Decision  string `yaml:"decision"`
	Process   string `yaml:"process"`
}

type ComponentStyle struct {
	Stroke     string `yaml:"stroke"`
	Background string `yaml:"background"`
	Icon       string `yaml:"icon"`
}

// DefaultTheme возвращает фиолетовую тему Constellar.
func DefaultTheme() Theme {
	return Theme{
		StrokeColor:     "#8b5cf6",
		BackgroundColor: "transparent",
		FillStyle:       "solid",
		StrokeWidth:     2,
		StrokeStyle:     "solid",
		Roughness:       1,
		Opacity:         100,

		TextColor:          "#e9ecef",
		FontSize:           20,
		FontFamily:         1,
		LabelFontSize:      20,
		ArrowLabelFontSize: 16,

		Flowchart: FlowchartPalette{
			Stroke:    "#8b5cf6",
			Title:     "#a78bfa",
			Step:      "#c4b5fd",
			FinalStep: "#8b5cf6",
			Start:     "#a78bfa",
			End:       "#8b5cf6",
			Decision:  "#c4b5fd",
			Process:   "#ddd6fe",
		},
		ConnectionColor: "#64748b",
		Components: map[string]ComponentStyle{
			"client":   {Stroke: "#60a5fa", Background: "#dbeafe", Icon: "👤"},
			"server":   {Stroke: "#8b5cf6", Background: "#ede9fe", Icon: "🖥️"},
			"database": {Stroke: "#10b981", Background: "#d1fae5", Icon: "💾"},
			"api":      {Stroke: "#f59e0b", Background: "#fef3c7", Icon: "🔌"},
			"cache":    {Stroke: "#ef4444", Background: "#fee2e2", Icon: "⚡"},
			"queue":    {Stroke: "#ec4899", Background: "#fce7f3", Icon: "📬"},
			"storage":  {Stroke: "#14b8a6", Background: "#ccfbf1", Icon: "📦"},
			"service":  {Stroke: "#6366f1", Background: "#e0e7ff", Icon: "⚙️"},
		},
	}
}

// LoadTheme читает YAML-файл темы поверх DefaultTheme.
// Пустой путь возвращает тему по умолчанию.
func LoadTheme(path string) (Theme, error) {
	theme := DefaultTheme()
	if path == "" {
		return theme, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return theme, fmt.Errorf("read theme: %w", err)
	}

	var override Theme
	if err := yaml.Unmarshal(data, &override); err != nil {
		return theme, fmt.Errorf("parse theme: %w", err)
	}

	theme.merge(override)
	return theme, nil
}

// ComponentStyle возвращает стиль компонента архитектуры, "service" для неизвестных типов.
func (t Theme) ComponentStyle(kind string) ComponentStyle {
	if style, ok := t.Components[kind]; ok {
		return style
	}
	return t.Components["service"]
}

func (t *Theme) merge(o Theme) {
	t.StrokeColor = or(o.StrokeColor, t.StrokeColor)
	t.BackgroundColor = or(o.BackgroundColor, t.BackgroundColor)
	t.FillStyle = or(o.FillStyle, t.FillStyle)
	t.StrokeWidth = orFloat(o.StrokeWidth, t.StrokeWidth)
	t.StrokeStyle = or(o.StrokeStyle, t.StrokeStyle)
	t.Roughness = orInt(o.Roughness, t.Roughness)
	t.Opacity = orInt(o.Opacity, t.Opacity)

	t.TextColor = or(o.TextColor, t.TextColor)
	t.FontSize = orFloat(o.FontSize, t.FontSize)
	t.FontFamily = orInt(o.FontFamily, t.FontFamily)
	t.LabelFontSize = orFloat(o.LabelFontSize, t.LabelFontSize)
	t.ArrowLabelFontSize = orFloat(o.ArrowLabelFontSize, t.ArrowLabelFontSize)

	p := &t.Flowchart
	p.Stroke = or(o.Flowchart.Stroke, p.Stroke)
	p.Title = or(o.Flowchart.Title, p.Title)
	p.Step = or(o.Flowchart.Step, p.Step)
	p.FinalStep = or(o.Flowchart.FinalStep, p.FinalStep)
	p.Start = or(o.Flowchart.Start, p.Start)
	p.End = or(o.Flowchart.End, p.End)
	p.Decision = or(o.Flowchart.Decision, p.Decision)
	p.Process = or(o.Flowchart.Process, p.Process)

	t.ConnectionColor = or(o.ConnectionColor, t.ConnectionColor)
	for kind, style := range o.Components {
		base := t.Components[kind]
		t.Components[kind] = ComponentStyle{
			Stroke:     or(style.Stroke, base.Stroke),
			Background: or(style.Background, base.Background),
			Icon:       or(style.Icon, base.Icon),
		}
	}
}

// ============================================================
// Fallback helpers
// ============================================================

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orFloat(value, fallback float64) float64 {
	if value != 0 {
		return value
	}
	return fallback
}

func orInt(value, fallback int) int {
	if value != 0 {
		return value
	}
	return fallback
}
