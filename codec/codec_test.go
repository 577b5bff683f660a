package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, tt := range []struct{ in, want string }{
		{"json", "json"},
		{"", "json"},
		{"go-json", "go-json"},
	} {
		c, ok := ByName(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.want, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestEmbedding_RoundTrip(t *testing.T) {
	in := []float64{0.1, -1.0 / 3, 65504, math.Ldexp(1, -24), 0}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			data, err := EncodeEmbedding(c, in)
			require.NoError(t, err)

			out, err := DecodeEmbedding(c, data, len(in))
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestEmbedding_CodecsInterchangeable(t *testing.T) {
	in := []float64{0.5, -2, 1e-7, 1234.5}

	fromStd, err := EncodeEmbedding(JSON{}, in)
	require.NoError(t, err)
	fromGo, err := EncodeEmbedding(GoJSON{}, in)
	require.NoError(t, err)
	assert.JSONEq(t, string(fromStd), string(fromGo))

	out, err := DecodeEmbedding(GoJSON{}, fromStd, 0)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	out, err = DecodeEmbedding(JSON{}, fromGo, 0)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeEmbedding_RejectsNonFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := EncodeEmbedding(JSON{}, []float64{1, x})
		require.ErrorIs(t, err, ErrNonFinite)
		assert.Contains(t, err.Error(), "index 1")
	}
}

func TestDecodeEmbedding_Errors(t *testing.T) {
	_, err := DecodeEmbedding(JSON{}, []byte("[1,2,3]"), 512)
	assert.ErrorIs(t, err, ErrDimension)

	_, err = DecodeEmbedding(GoJSON{}, []byte(`{"embedding":[1]}`), 0)
	assert.ErrorContains(t, err, "codec go-json")

	_, err = DecodeEmbedding(JSON{}, []byte(`[1, "x"]`), 0)
	assert.ErrorContains(t, err, "codec json")
}
