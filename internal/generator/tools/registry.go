package tools

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"constellar/internal/generator/excalidraw"
	"constellar/internal/generator/models"
)

// ============================================================
// Schema
// ============================================================

var (
	ErrUnknownTool     = errors.New("unknown tool")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

type ParamType string

const (
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
	TypeString  ParamType = "string"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
)

// Param описывает один параметр инструмента.
type Param struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Description string    `json:"description"`
	Required    bool      `json:"required,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       ParamType `json:"items,omitempty"`
}

func (p Param) check(args Args) error {
	if !args.Has(p.Name) {
		if p.Required {
			return fmt.Errorf("%w: %s", ErrMissingArgument, p.Name)
		}
		return nil
	}
	if len(p.Enum) == 0 {
		return nil
	}
	value, err := args.String(p.Name, "")
	if err != nil {
		return err
	}
	if !slices.Contains(p.Enum, value) {
		return fmt.Errorf("%w: %s must be one of %v", ErrInvalidArgument, p.Name, p.Enum)
	}
	return nil
}

type RunFunc func(f *excalidraw.Factory, args Args) ([]models.Element, error)

// Tool описывает именованный генератор, вызываемый ИИ или через MCP.
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	run         RunFunc
}

// ============================================================
// Registry
// ============================================================

type Registry struct {
	factory  *excalidraw.Factory
	tools    []Tool
	byName   map[string]int
	validate *validator.Validate
}

func NewRegistry(factory *excalidraw.Factory) *Registry {
	r := &Registry{
		factory:  factory,
		byName:   make(map[string]int),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, t := range r.builtin() {
		r.Register(t)
	}
	return r
}

// Register добавляет инструмент или заменяет одноимённый.
func (r *Registry) Register(t Tool) {
	if i, ok := r.byName[t.Name]; ok {
		r.tools[i] = t
		return
	}
	r.byName[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
}

// Tools возвращает инструменты в порядке регистрации.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Run проверяет обязательные аргументы и исполняет инструмент.
func (r *Registry) Run(name string, args Args) ([]models.Element, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if args == nil {
		args = Args{}
	}
	for _, p := range t.Params {
		if err := p.check(args); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	elements, err := t.run(r.factory, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return elements, nil
}
