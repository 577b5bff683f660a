package match

import (
	"math"
	"strconv"
	"strings"
)

// SampledHash fingerprints v using the default stride, scale and delimiter:
// every 10th element, scaled by 100 and rounded half up, joined with "_".
func SampledHash(v []float64) string {
	return sampledHash(v, DefaultHashStride, DefaultHashScale, DefaultHashDelimiter)
}

func sampledHash(v []float64, stride int, scale float64, delim string) string {
	var sb strings.Builder
	for i := 0; i < len(v); i += stride {
		if i > 0 {
			sb.WriteString(delim)
		}
		// The conversion keeps the product from being fused into the add.
		sb.WriteString(formatSample(math.Floor(float64(v[i]*scale) + 0.5)))
	}
	return sb.String()
}

func formatSample(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	case x == 0:
		return "0"
	default:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
}
