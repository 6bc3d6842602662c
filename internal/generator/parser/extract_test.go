package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"constellar/internal/generator/models"
)

func TestExtractActions(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		count   int
		wantErr bool
	}{
		{
			name:  "fenced block",
			text:  "Here is the diagram:\n```json\n{\"actions\": [{\"type\": \"create_shape\"}, {\"type\": \"connect\"}]}\n```\nEnjoy!",
			count: 2,
		},
		{
			name:  "bare object",
			text:  `Sure. {"actions": [{"type": "create_text", "text": "hi", "x": 0, "y": 0}]} done`,
			count: 1,
		},
		{
			name:  "no payload",
			text:  "Just chatting, nothing to draw.",
			count: 0,
		},
		{
			name:    "broken json",
			text:    "```json\n{\"actions\": [\n```",
			wantErr: true,
		},
		{
			name:  "fenced without actions key",
			text:  "```json\n{\"note\": 1}\n```",
			count: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actions, err := ExtractActions(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Len(t, actions, tt.count)
		})
	}
}

func TestExtractActions_PreservesRawObjects(t *testing.T) {
	actions, err := ExtractActions("```json\n{\"actions\": [{\"type\": \"connect\", \"from\": 0, \"to\": 1}]}\n```")
	require.NoError(t, err)
	require.Len(t, actions, 1)

	obj, ok := actions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connect", obj["type"])
	assert.Equal(t, 1.0, obj["to"])
}

func TestExtractElements(t *testing.T) {
	elements, err := ExtractElements(`Plan: {"elements": [{"id": "a", "type": "rectangle", "x": 10, "y": 20, "width": 30, "height": 40}]}`)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, models.TypeRectangle, elements[0].Type)
	assert.Equal(t, 30.0, elements[0].Width)

	elements, err = ExtractElements(`[{"id": "t", "type": "text", "text": "hello"}]`)
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "hello", elements[0].Text)

	elements, err = ExtractElements("no json here")
	require.NoError(t, err)
	assert.Nil(t, elements)

	_, err = ExtractElements(`{"elements": [oops]}`)
	assert.ErrorIs(t, err, ErrMalformed)
}
