package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Input
	}{
		{"String", `"AAA8"`, Base64("AAA8")},
		{"StringWithEscapes", `"AA\nA8"`, Base64("AA\nA8")},
		{"Array", `[1, 2.5, -3e-2]`, Values{1, 2.5, -0.03}},
		{"EmptyArray", `[]`, Values{}},
		{"Object", `{"embedding": [0.5, 1]}`, Wrapped{Embedding: []float64{0.5, 1}}},
		{"ObjectWithExtraFields", `{"id": "x", "embedding": [1]}`, Wrapped{Embedding: []float64{1}}},
		{"LeadingWhitespace", "\n  [1]", Values{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInput_Unsupported(t *testing.T) {
	for _, data := range []string{
		``,
		`   `,
		`42`,
		`null`,
		`true`,
		`[1, null]`,
		`[1, "2"]`,
		`[[1]]`,
		`{}`,
		`{"embedding": null}`,
		`{"embedding": "AAA8"}`,
		`{"vector": [1, 2]}`,
		`{"embedding": [1, {}]}`,
		`"unterminated`,
	} {
		t.Run(data, func(t *testing.T) {
			_, err := ParseInput([]byte(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedShape)
		})
	}
}

func TestShape_String(t *testing.T) {
	assert.Equal(t, "base64", ShapeBase64.String())
	assert.Equal(t, "values", ShapeValues.String())
	assert.Equal(t, "wrapped", ShapeWrapped.String())
	assert.Equal(t, "unknown", ShapeUnknown.String())
}
