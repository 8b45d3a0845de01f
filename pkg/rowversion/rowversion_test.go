package rowversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesRoundTrip(t *testing.T) {
	v := RowVersion(0x00000000000007D1)

	b := v.Bytes()
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x07, 0xD1}, b)

	back, err := FromBytes(b)
	require.NoError(t, err)
	assert.Equal(t, v, back)
	assert.Equal(t, "0x00000000000007D1", v.String())
}

func TestFromBytesShortAndLong(t *testing.T) {
	v, err := FromBytes([]byte{0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, RowVersion(256), v)

	_, err = FromBytes(make([]byte, 9))
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	tests := []struct {
		name    string
		src     any
		want    RowVersion
		wantErr bool
	}{
		{"nil", nil, 0, false},
		{"bytes", []byte{0, 0, 0, 0, 0, 0, 0, 5}, 5, false},
		{"int64", int64(42), 42, false},
		{"negative", int64(-1), 0, true},
		{"hex", "0x00000000000000FF", 255, false},
		{"decimal string", "1000", 1000, false},
		{"garbage", "zz", 0, true},
		{"float", 1.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v RowVersion
			err := v.Scan(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestValueOrdering(t *testing.T) {
	a, b := RowVersion(10), RowVersion(11)
	assert.Less(t, a, b)

	val, err := b.Value()
	require.NoError(t, err)
	assert.Equal(t, b.Bytes(), val)
}
