package codec

import "encoding/json"

// Default is the codec used when none is configured.
var Default Codec = JSON{}

// JSON uses encoding/json. Floats are written in their shortest form that
// parses back to the same float64, so half-precision values survive exactly.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSON) Name() string                       { return "json" }
