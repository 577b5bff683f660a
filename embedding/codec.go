package embedding

import (
	"encoding/base64"

	"github.com/hupe1980/palmvec/internal/f16"
)

// ErrOddLength is returned by BufferToVector for buffers with a trailing half word.
var ErrOddLength = f16.ErrOddLength

// WordToFloat decodes one binary16 bit-pattern. Signed zero is preserved.
func WordToFloat(word uint16) float64 {
	return f16.ToFloat64(f16.Bits(word))
}

// BufferToVector decodes consecutive little-endian binary16 words.
// The buffer length must be even; the result has len(buf)/2 elements.
func BufferToVector(buf []byte) ([]float64, error) {
	return f16.Decode(buf)
}

// EncodeBase64 encodes values as Base64 text of little-endian binary16 words,
// the inverse of Decoder.Decode for values representable in half precision.
func EncodeBase64(values []float64) string {
	return base64.StdEncoding.EncodeToString(f16.Encode(values))
}
