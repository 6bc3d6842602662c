package tools

import (
	"encoding/json"
	"fmt"
)

// Args хранит аргументы вызова инструмента в виде декодированного JSON-объекта.
type Args map[string]any

func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}

// Number возвращает числовой аргумент или fallback, если он не задан.
func (a Args) Number(name string, fallback float64) (float64, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidArgument, name)
	}
}

// Int работает как Number, но для целочисленных параметров.
func (a Args) Int(name string, fallback int) (int, error) {
	n, err := a.Number(name, float64(fallback))
	return int(n), err
}

// String возвращает строковый аргумент или fallback.
func (a Args) String(name, fallback string) (string, error) {
	v, ok := a[name]
	if !ok || v == nil {
		return fallback, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidArgument, name)
	}
	return s, nil
}

// Decode перекладывает аргумент в dst через JSON.
func (a Args) Decode(name string, dst any) error {
	data, err := json.Marshal(a[name])
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgument, name, err)
	}
	return nil
}

// reader накапливает первую ошибку разбора, чтобы не проверять err после каждого аргумента.
type reader struct {
	args Args
	err  error
}

func (r *reader) number(name string, fallback float64) float64 {
	if r.err != nil {
		return 0
	}
	n, err := r.args.Number(name, fallback)
	r.err = err
	return n
}

func (r *reader) integer(name string, fallback int) int {
	if r.err != nil {
		return 0
	}
	n, err := r.args.Int(name, fallback)
	r.err = err
	return n
}

func (r *reader) str(name, fallback string) string {
	if r.err != nil {
		return ""
	}
	s, err := r.args.String(name, fallback)
	r.err = err
	return s
}

func (r *reader) decode(name string, dst any) {
	if r.err != nil || !r.args.Has(name) {
		return
	}
	r.err = r.args.Decode(name, dst)
}
