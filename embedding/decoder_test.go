package embedding

import (
	"encoding/base64"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hupe1980/palmvec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return strings.TrimSpace(string(b))
}

func b64(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecodeBase64_ReferenceScans(t *testing.T) {
	for _, name := range []string{"palm_a.b64", "palm_b.b64"} {
		t.Run(name, func(t *testing.T) {
			v, err := DecodeBase64(loadFixture(t, name))
			require.NoError(t, err)
			assert.Len(t, v, 512)
			assert.True(t, v.Finite())
		})
	}
}

func TestDecodeBase64_ReferenceValues(t *testing.T) {
	v, err := DecodeBase64(loadFixture(t, "palm_a.b64"))
	require.NoError(t, err)

	assert.Equal(t, []float64{0.0, 1.1591796875, 0.22119140625, 0.9697265625}, []float64(v[:4]))
	assert.Equal(t, []float64{0.498046875, 0.0028171539306640625}, []float64(v[510:]))
}

func TestDecodeBase64_Deterministic(t *testing.T) {
	text := loadFixture(t, "palm_b.b64")

	a, err := DecodeBase64(text)
	require.NoError(t, err)
	b, err := DecodeBase64(text)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	a[0] = 42
	assert.NotEqual(t, a[0], b[0], "results must not share storage")
}

func TestDecoder_Repairs(t *testing.T) {
	rng := testutil.NewRNG(1)
	values := rng.PalmVector(512)

	tests := []struct {
		name     string
		raw      []byte
		words    int
		repairs  []string
		wantHead []float64
	}{
		{
			name:     "Canonical",
			raw:      testutil.Encode(values),
			words:    512,
			wantHead: values[:3],
		},
		{
			name:     "OddByteTrimmed",
			raw:      append(testutil.Encode(values), 0xFF),
			words:    512,
			repairs:  []string{"odd_byte_trimmed"},
			wantHead: values[:3],
		},
		{
			name:     "Truncated",
			raw:      append(testutil.Encode(values), testutil.RepeatWord(0x3C00, 88)...),
			words:    600,
			repairs:  []string{"truncated"},
			wantHead: values[:3],
		},
		{
			name:     "PaddedFromMinimum",
			raw:      testutil.RepeatWord(0x3C00, 50),
			words:    50,
			repairs:  []string{"padded"},
			wantHead: []float64{1, 1, 1},
		},
		{
			name:     "TrimmedToMinimum",
			raw:      append(testutil.RepeatWord(0x3C00, 50), 0x00),
			words:    50,
			repairs:  []string{"odd_byte_trimmed", "padded"},
			wantHead: []float64{1, 1, 1},
		},
	}

	dec, err := NewDecoder(DefaultConfig())
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, rep, err := dec.DecodeWithReport(b64(tt.raw))
			require.NoError(t, err)

			assert.Len(t, v, 512)
			assert.Equal(t, tt.words, rep.Words)
			assert.Equal(t, len(tt.raw), rep.RawBytes)
			assert.Equal(t, tt.repairs, rep.Repairs())
			assert.Equal(t, len(tt.repairs) > 0, rep.Repaired())
			assert.Equal(t, tt.wantHead, []float64(v[:3]))
		})
	}
}

func TestDecoder_PaddingIsZero(t *testing.T) {
	v, err := DecodeBase64(b64(testutil.RepeatWord(0x3C00, 60)))
	require.NoError(t, err)

	for i := 60; i < 512; i++ {
		require.Equal(t, 0.0, v[i], "index %d", i)
	}
}

func TestDecoder_CleansInput(t *testing.T) {
	want, err := DecodeBase64(loadFixture(t, "palm_a.b64"))
	require.NoError(t, err)

	text := loadFixture(t, "palm_a.b64")

	t.Run("WhitespaceAndLineBreaks", func(t *testing.T) {
		var sb strings.Builder
		for i := 0; i < len(text); i += 76 {
			sb.WriteString(text[i:min(i+76, len(text))])
			sb.WriteString("\r\n ")
		}
		got, err := DecodeBase64(sb.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("ForeignCharacters", func(t *testing.T) {
		got, err := DecodeBase64("\"" + text[:100] + "-_*" + text[100:] + "\"")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("MissingPadding", func(t *testing.T) {
		raw := testutil.RepeatWord(0x3C00, 258)
		raw = append(raw, 0x00) // 517 bytes encode with "==" padding
		text := b64(raw)
		require.True(t, strings.HasSuffix(text, "=="))

		v, rep, err := mustDecoder(t).DecodeWithReport(strings.TrimRight(text, "="))
		require.NoError(t, err)
		assert.True(t, rep.OddByteTrimmed)
		assert.Equal(t, 1.0, v[257])
		assert.Equal(t, 0.0, v[258])
	})
}

func mustDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder(DefaultConfig())
	require.NoError(t, err)
	return d
}

func TestDecoder_Errors(t *testing.T) {
	nanWords := func(n int) []byte {
		raw := testutil.RepeatWord(0x3C00, 512)
		for i := range n {
			copy(raw[i*9*2:], testutil.Words(0x7E00))
		}
		return raw
	}

	tests := []struct {
		name string
		text string
		want error
	}{
		{"Empty", "", ErrInsufficientData},
		{"NinetyEightBytes", b64(make([]byte, 98)), ErrInsufficientData},
		{"NinetyNineBytesTrimmed", b64(make([]byte, 99)), ErrInsufficientData},
		{"OnlyGarbage", "!!!@@@###", ErrInsufficientData},
		{"DanglingCharacter", "QUJDR", ErrBadEncoding},
		{"PaddingInTheMiddle", "QQ==QUJD", ErrBadEncoding},
		{"ElevenNaNInSample", b64(nanWords(11)), ErrTooManyInvalidValues},
		{"AllInfinity", b64(testutil.RepeatWord(0x7C00, 512)), ErrTooManyInvalidValues},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeBase64(tt.text)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDecoder_ToleratesBoundedNonFinite(t *testing.T) {
	raw := testutil.RepeatWord(0x3C00, 512)
	for i := range 10 {
		copy(raw[i*2:], testutil.Words(0x7C00))
	}
	// Non-finite values past the sample are not counted.
	copy(raw[200*2:], testutil.RepeatWord(0xFE00, 50))

	v, rep, err := mustDecoder(t).DecodeWithReport(b64(raw))
	require.NoError(t, err)

	assert.Equal(t, 10, rep.NonFinite)
	assert.True(t, math.IsInf(v[0], 1))
	assert.True(t, math.IsNaN(v[200]))
	assert.False(t, v.Finite())
}

func TestDecoder_SampleShorterThanPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinBytes = 4
	cfg.CanonicalLength = 4
	cfg.MaxInvalid = 1

	dec, err := NewDecoder(cfg)
	require.NoError(t, err)

	_, err = dec.Decode(b64(testutil.Words(0x7C00, 0x7C00, 0x3C00, 0x3C00)))
	assert.ErrorIs(t, err, ErrTooManyInvalidValues)
}

func TestDecoder_SpecialWords(t *testing.T) {
	raw := testutil.RepeatWord(0x0000, 512)
	copy(raw, testutil.Words(0x8000, 0x0001, 0x03FF, 0x7BFF, 0xFBFF, 0x3555))

	v, err := DecodeBase64(b64(raw))
	require.NoError(t, err)

	assert.True(t, math.Signbit(v[0]), "negative zero must be preserved")
	assert.Equal(t, math.Ldexp(1, -24), v[1])
	assert.Equal(t, 1023*math.Ldexp(1, -24), v[2])
	assert.Equal(t, 65504.0, v[3])
	assert.Equal(t, -65504.0, v[4])
	assert.InDelta(t, 1.0/3, v[5], 1e-3)
}

func TestNewDecoder_InvalidConfig(t *testing.T) {
	_, err := NewDecoder(Config{})
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.MaxInvalid = -1
	cfg.Policy = Policy(9)
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max invalid")
	assert.Contains(t, err.Error(), "unknown policy")
}

func TestWordToFloat(t *testing.T) {
	assert.Equal(t, 1.0, WordToFloat(0x3C00))
	assert.Equal(t, -2.0, WordToFloat(0xC000))
	assert.True(t, math.Signbit(WordToFloat(0x8000)))
	assert.True(t, math.IsInf(WordToFloat(0xFC00), -1))
	assert.True(t, math.IsNaN(WordToFloat(0x7E00)))
}

func TestBufferToVector(t *testing.T) {
	v, err := BufferToVector(testutil.Words(0x3C00, 0x3800))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0.5}, v)

	_, err = BufferToVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrOddLength)
}

func TestEncodeBase64_RoundTrip(t *testing.T) {
	values := testutil.NewRNG(3).PalmVector(512)

	v, err := DecodeBase64(EncodeBase64(values))
	require.NoError(t, err)
	assert.Equal(t, values, []float64(v))
}
