package conv

import (
	"fmt"
	"math"
)

// IntToUint32 converts v for storage in a uint32 header field named field.
func IntToUint32(field string, v int) (uint32, error) {
	if v < 0 || uint64(v) > math.MaxUint32 {
		return 0, fmt.Errorf("conv: %s %d does not fit in uint32", field, v)
	}
	return uint32(v), nil
}

// HeaderFields converts several lengths at once, in order. The first value
// that does not fit aborts the conversion.
func HeaderFields(fields []string, values ...int) ([]uint32, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("conv: %d field names for %d values", len(fields), len(values))
	}
	out := make([]uint32, len(values))
	for i, v := range values {
		u, err := IntToUint32(fields[i], v)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}
