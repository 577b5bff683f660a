package conv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToUint32(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		want    uint32
		wantErr bool
	}{
		{"zero", 0, 0, false},
		{"small", 512, 512, false},
		{"max", math.MaxUint32, math.MaxUint32, false},
		{"negative", -1, 0, true},
		{"too large", math.MaxUint32 + 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntToUint32("count", tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "count")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderFields(t *testing.T) {
	got, err := HeaderFields([]string{"count", "raw length"}, 3, 1024)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3, 1024}, got)

	_, err = HeaderFields([]string{"count", "raw length"}, 3, -5)
	assert.ErrorContains(t, err, "raw length")

	_, err = HeaderFields([]string{"count"}, 1, 2)
	assert.Error(t, err)
}
