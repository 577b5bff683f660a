package embedding

import (
	"bytes"
	"encoding/json"

	"github.com/hupe1980/palmvec/codec"
)

// Shape identifies which input form produced a vector.
type Shape uint8

const (
	ShapeUnknown Shape = iota
	ShapeBase64
	ShapeValues
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeBase64:
		return "base64"
	case ShapeValues:
		return "values"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "unknown"
	}
}

// Input is one of Base64, Values or Wrapped.
type Input interface {
	Shape() Shape
	isInput()
}

// Base64 is Base64 text of little-endian binary16 words.
type Base64 string

// Values is a plain numeric sequence.
type Values []float64

// Wrapped is an object carrying a numeric sequence in its embedding field.
// A nil Embedding is not a sequence and is rejected as an unsupported shape.
type Wrapped struct {
	Embedding []float64 `json:"embedding"`
}

func (Base64) Shape() Shape  { return ShapeBase64 }
func (Values) Shape() Shape  { return ShapeValues }
func (Wrapped) Shape() Shape { return ShapeWrapped }

func (Base64) isInput()  {}
func (Values) isInput()  {}
func (Wrapped) isInput() {}

// ParseInput resolves a JSON value into one of the three input shapes.
//
// Strings become Base64, arrays of numbers become Values, and objects with an
// "embedding" array of numbers become Wrapped. Anything else, including arrays
// containing null or non-numeric elements, is KindUnsupportedShape.
func ParseInput(data []byte) (Input, error) {
	return parseInput(codec.Default, data)
}

func parseInput(c codec.Codec, data []byte) (Input, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, newError(KindUnsupportedShape, "parse", "empty input")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := c.Unmarshal(trimmed, &s); err != nil {
			return nil, &Error{Kind: KindUnsupportedShape, Op: "parse", Err: err}
		}
		return Base64(s), nil
	case '[':
		values, err := parseNumbers(c, trimmed)
		if err != nil {
			return nil, err
		}
		return Values(values), nil
	case '{':
		var obj struct {
			Embedding json.RawMessage `json:"embedding"`
		}
		if err := c.Unmarshal(trimmed, &obj); err != nil {
			return nil, &Error{Kind: KindUnsupportedShape, Op: "parse", Err: err}
		}
		field := bytes.TrimSpace(obj.Embedding)
		if len(field) == 0 || field[0] != '[' {
			return nil, newError(KindUnsupportedShape, "parse", "object has no embedding array")
		}
		values, err := parseNumbers(c, field)
		if err != nil {
			return nil, err
		}
		return Wrapped{Embedding: values}, nil
	default:
		return nil, newError(KindUnsupportedShape, "parse", "unexpected JSON value starting with %q", trimmed[0])
	}
}

func parseNumbers(c codec.Codec, data []byte) ([]float64, error) {
	var ptrs []*float64
	if err := c.Unmarshal(data, &ptrs); err != nil {
		return nil, &Error{Kind: KindUnsupportedShape, Op: "parse", Err: err}
	}
	values := make([]float64, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			return nil, newError(KindUnsupportedShape, "parse", "element %d is not a number", i)
		}
		values[i] = *p
	}
	return values, nil
}
