package codec

import gojson "github.com/goccy/go-json"

// GoJSON uses github.com/goccy/go-json, which is faster on large snapshot
// payloads and produces the same bytes as JSON for numeric arrays.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error)      { return gojson.Marshal(v) }
func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }
func (GoJSON) Name() string                       { return "go-json" }
