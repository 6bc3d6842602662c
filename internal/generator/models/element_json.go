package models

import (
	"bytes"
	"encoding/json"
)

// ============================================================
// Element JSON round-trip
// ============================================================

// elementFields совпадает с Element, но без собственных методов JSON.
type elementFields Element

// UnmarshalJSON запоминает исходный объект, чтобы при записи вернуть поля,
// которых нет в Element (fileId, pressures, customData и т.п.).
func (e *Element) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var fields elementFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := fieldMap(fields)
	if err != nil {
		return err
	}

	*e = Element(fields)
	e.raw, e.decoded = raw, decoded
	return nil
}

// MarshalJSON пишет исходный объект, поверх которого лежат только изменённые поля.
// Элемент, собранный в коде, пишется как есть.
func (e Element) MarshalJSON() ([]byte, error) {
	if e.raw == nil {
		return json.Marshal(elementFields(e))
	}

	current, err := fieldMap(elementFields(e))
	if err != nil {
		return nil, err
	}

	out := make(map[string]json.RawMessage, len(e.raw)+len(current))
	for key, value := range e.raw {
		out[key] = value
	}
	for key, value := range current {
		if before, ok := e.decoded[key]; !ok || !bytes.Equal(before, value) {
			out[key] = value
		}
	}
	for key := range e.decoded {
		if _, ok := current[key]; !ok {
			delete(out, key)
		}
	}
	return json.Marshal(out)
}

func fieldMap(fields elementFields) (map[string]json.RawMessage, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
