package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"constellar/internal/generator/models"
)

// ============================================================
// Patterns
// ============================================================

var (
	fencedJSON    = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	actionsObject = regexp.MustCompile(`(?s)\{.*"actions".*\}`)
	elementsBlock = regexp.MustCompile(`(?s)\{.*"elements".*\}`)
	bareArray     = regexp.MustCompile(`(?s)\[.*\]`)
)

var ErrMalformed = errors.New("malformed json payload")

type actionsPayload struct {
	Actions []any `json:"actions"`
}

type elementsPayload struct {
	Elements []models.Element `json:"elements"`
}

// ============================================================
// Extraction
// ============================================================

// ExtractActions достаёт массив actions из ответа ИИ: сначала блок ```json, затем
// самый внешний объект с ключом "actions". Если блока нет, вернёт (nil, nil).
func ExtractActions(text string) ([]any, error) {
	var payload string
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		payload = m[1]
	} else if m := actionsObject.FindString(text); m != "" {
		payload = m
	} else {
		return nil, nil
	}

	var parsed actionsPayload
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return parsed.Actions, nil
}

// ExtractElements достаёт готовые элементы: объект {"elements": [...]} или голый массив.
func ExtractElements(text string) ([]models.Element, error) {
	if m := elementsBlock.FindString(text); m != "" {
		var parsed elementsPayload
		if err := json.Unmarshal([]byte(m), &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return parsed.Elements, nil
	}

	if m := bareArray.FindString(text); m != "" {
		var elements []models.Element
		if err := json.Unmarshal([]byte(m), &elements); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return elements, nil
	}

	return nil, nil
}
