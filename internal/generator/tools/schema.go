package tools

// ============================================================
// JSON Schema view
// ============================================================

// InputSchema описывает параметры инструмента как JSON Schema объекта.
// Эту форму принимают function declarations Gemini и GET /tools.
func (t Tool) InputSchema() map[string]any {
	properties := make(map[string]any, len(t.Params))
	required := []string{}
	for _, p := range t.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Type == TypeArray {
			items := p.Items
			if items == "" {
				items = TypeObject
			}
			prop["items"] = map[string]any{"type": string(items)}
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
