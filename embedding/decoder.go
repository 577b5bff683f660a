package embedding

import (
	"encoding/base64"
	"strings"

	"github.com/hupe1980/palmvec/internal/f16"
)

// Report describes what the decoder or normalizer had to do to produce a vector.
type Report struct {
	Shape Shape
	// RawBytes is the decoded byte count before odd-byte trimming.
	RawBytes int
	// Words is the number of half-float words converted.
	Words int
	// OddByteTrimmed is set when a trailing byte was dropped.
	OddByteTrimmed bool
	// Truncated is set when values beyond the canonical length were dropped.
	Truncated bool
	// Padded is set when zeros were appended to reach the canonical length.
	Padded bool
	// NonFinite is the NaN/Inf count in the validation sample.
	NonFinite int
	// Sanitized is the number of non-finite values replaced with zero (lenient policy).
	Sanitized int
}

// Repaired reports whether any lossy repair was applied.
func (r Report) Repaired() bool {
	return r.OddByteTrimmed || r.Truncated || r.Padded || r.Sanitized > 0
}

// Repairs lists the applied repairs by name.
func (r Report) Repairs() []string {
	var out []string
	if r.OddByteTrimmed {
		out = append(out, "odd_byte_trimmed")
	}
	if r.Truncated {
		out = append(out, "truncated")
	}
	if r.Padded {
		out = append(out, "padded")
	}
	if r.Sanitized > 0 {
		out = append(out, "sanitized")
	}
	return out
}

// Decoder converts Base64 half-float payloads into canonical vectors.
type Decoder struct {
	cfg Config
}

// NewDecoder creates a decoder with the given limits.
func NewDecoder(cfg Config) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{cfg: cfg}, nil
}

// DecodeBase64 decodes text with DefaultConfig.
func DecodeBase64(text string) (Vector, error) {
	d := Decoder{cfg: DefaultConfig()}
	return d.Decode(text)
}

// Decode runs the decode pipeline and discards the report.
func (d *Decoder) Decode(text string) (Vector, error) {
	v, _, err := d.DecodeWithReport(text)
	return v, err
}

// DecodeWithReport runs the decode pipeline:
//
//  1. drop whitespace and non-alphabet characters, pad with '='
//  2. Base64-decode (BadEncoding)
//  3. drop a trailing odd byte
//  4. enforce the minimum byte count (InsufficientData)
//  5. convert little-endian half-float words
//  6. truncate or zero-pad to the canonical length
//  7. bound the non-finite count in the sample (TooManyInvalidValues)
//
// The returned vector may still contain tolerated non-finite values.
func (d *Decoder) DecodeWithReport(text string) (Vector, Report, error) {
	rep := Report{Shape: ShapeBase64}

	raw, err := decodeBytes(cleanBase64(text))
	if err != nil {
		return nil, rep, err
	}
	rep.RawBytes = len(raw)

	raw, rep.OddByteTrimmed = trimOddByte(raw)

	if len(raw) < d.cfg.MinBytes {
		return nil, rep, newError(KindInsufficientData, "decode",
			"%d bytes, need at least %d", len(raw), d.cfg.MinBytes)
	}

	values, err := f16.Decode(raw)
	if err != nil {
		// Unreachable after trimOddByte.
		return nil, rep, &Error{Kind: KindBadEncoding, Op: "decode", Err: err}
	}
	rep.Words = len(values)

	v, truncated, padded := reconcileLength(values, d.cfg.CanonicalLength)
	rep.Truncated, rep.Padded = truncated, padded

	rep.NonFinite, err = d.checkSample(v, "decode")
	if err != nil {
		return nil, rep, err
	}

	return v, rep, nil
}

// checkSample bounds the number of non-finite values in the validation prefix.
func (d *Decoder) checkSample(v Vector, op string) (int, error) {
	bad := v.CountNonFinite(d.cfg.ValidationSample)
	if bad > d.cfg.MaxInvalid {
		return bad, newError(KindTooManyInvalidValues, op,
			"%d non-finite values in the first %d, limit %d",
			bad, min(d.cfg.ValidationSample, len(v)), d.cfg.MaxInvalid)
	}
	return bad, nil
}

// cleanBase64 keeps only Base64 alphabet characters and pads to a multiple of 4.
func cleanBase64(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + 3)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if isBase64Char(c) {
			sb.WriteByte(c)
		}
	}
	for sb.Len()%4 != 0 {
		sb.WriteByte('=')
	}
	return sb.String()
}

func isBase64Char(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '+', c == '/', c == '=':
		return true
	default:
		return false
	}
}

func decodeBytes(clean string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, &Error{Kind: KindBadEncoding, Op: "decode", Err: err}
	}
	return raw, nil
}

// trimOddByte drops the last byte of an odd-length buffer.
// This is lossy: every word after a dropped byte in the middle of the stream
// would be misaligned, but only a trailing extra byte can be detected.
func trimOddByte(raw []byte) ([]byte, bool) {
	if len(raw)%2 == 0 {
		return raw, false
	}
	return raw[:len(raw)-1], true
}

// reconcileLength truncates or zero-pads values to n elements.
// The result never aliases values.
func reconcileLength(values []float64, n int) (Vector, bool, bool) {
	out := make(Vector, n)
	copy(out, values)
	return out, len(values) > n, len(values) < n
}
