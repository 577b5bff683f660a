package gallery

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			g, _ := seeded(t, 6)
			require.NoError(t, g.SetVerified("c", false))
			g.Delete("e")

			data, err := Encode(g, func(o *SnapshotOptions) { o.Compression = c })
			require.NoError(t, err)

			h, err := ReadHeader(data)
			require.NoError(t, err)
			assert.Equal(t, uint32(5), h.Count)

			got, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, g.Records(), got.Records())

			want, _ := g.FetchVerifiedCandidates(context.Background())
			have, _ := got.FetchVerifiedCandidates(context.Background())
			assert.Equal(t, candidateIDs(want), candidateIDs(have))
		})
	}
}

func TestSnapshot_CompressionShrinksPayload(t *testing.T) {
	g := New()
	zero := make([]float64, DefaultDimension)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, g.Upsert(Record{ID: id, Vector: zero, Verified: true}))
	}

	plain, err := Encode(g, func(o *SnapshotOptions) { o.Compression = CompressionNone })
	require.NoError(t, err)
	packed, err := Encode(g, func(o *SnapshotOptions) { o.Compression = CompressionZSTD })
	require.NoError(t, err)

	h, err := ReadHeader(packed)
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, h.Compression)
	assert.Less(t, len(packed), len(plain))
}

func TestSnapshot_IncompressibleFallsBackToNone(t *testing.T) {
	data, used, err := compress([]byte("ab"), CompressionLZ4)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, used)
	assert.Equal(t, []byte("ab"), data)
}

func TestSnapshot_Empty(t *testing.T) {
	data, err := Encode(New())
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Zero(t, got.Len())
}

func TestSnapshot_Corruption(t *testing.T) {
	g, _ := seeded(t, 2)
	good, err := Encode(g)
	require.NoError(t, err)

	clone := func() []byte { return append([]byte(nil), good...) }

	t.Run("Short", func(t *testing.T) {
		_, err := Decode(good[:10])
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("BadMagic", func(t *testing.T) {
		data := clone()
		data[0] = 'X'
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("BadVersion", func(t *testing.T) {
		data := clone()
		binary.LittleEndian.PutUint16(data[8:], 9)
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := Decode(good[:len(good)-1])
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("FlippedPayloadBit", func(t *testing.T) {
		data := clone()
		data[len(data)-1] ^= 0x01
		_, err := Decode(data)
		require.ErrorIs(t, err, ErrChecksumMismatch)

		var ce *ChecksumError
		require.ErrorAs(t, err, &ce)
		assert.NotEqual(t, ce.Expected, ce.Actual)
	})

	t.Run("WrongCount", func(t *testing.T) {
		data := clone()
		binary.LittleEndian.PutUint32(data[12:], 3)
		_, err := Decode(data)
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := Decode(good, func(o *SnapshotOptions) {
			o.Gallery = append(o.Gallery, func(o *Options) { o.Dimension = 8 })
		})
		assert.ErrorIs(t, err, ErrCorruptSnapshot)
	})
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{"": CompressionNone, "none": CompressionNone, "LZ4": CompressionLZ4, " zstd ": CompressionZSTD} {
		got, err := ParseCompression(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "compression(9)", Compression(9).String())
}
