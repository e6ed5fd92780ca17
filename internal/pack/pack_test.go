package pack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/screenrelay/internal/errs"
)

func TestRoundTrip_AllBitWidths(t *testing.T) {
	for n := 1; n <= 8; n++ {
		p, err := New(n)
		require.NoError(t, err)

		max := uint8(1<<n - 1)
		values := make([]uint8, 37)
		for i := range values {
			values[i] = uint8(i % (int(max) + 1))
		}

		packed, err := p.Pack(values, []int{len(values)})
		require.NoError(t, err)

		unpacked, shape, err := p.Unpack(packed)
		require.NoError(t, err)
		assert.Equal(t, []int{len(values)}, shape)
		assert.Equal(t, values, unpacked)
	}
}

func TestRoundTrip_ExactByteCount(t *testing.T) {
	p, err := New(3)
	require.NoError(t, err)

	values := []uint8{5, 2, 7, 0, 1, 6, 3}
	packed, err := p.Pack(values, []int{7})
	require.NoError(t, err)

	// header: nd=1, dim=7 (3 bytes) + ceil(7*3/8)=3 bytes payload
	assert.Len(t, packed, 3+3)

	unpacked, shape, err := p.Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, shape)
	assert.Equal(t, values, unpacked)
}

func TestPack_MultiDimensionalShape(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	values := make([]uint8, 648*1152)
	packed, err := p.Pack(values, []int{648, 1152})
	require.NoError(t, err)

	unpacked, shape, err := p.Unpack(packed)
	require.NoError(t, err)
	assert.Equal(t, []int{648, 1152}, shape)
	assert.Len(t, unpacked, 648*1152)
}

func TestPack_RejectsValueExceedingBitWidth(t *testing.T) {
	p, err := New(2)
	require.NoError(t, err)

	_, err = p.Pack([]uint8{0, 1, 2, 4}, []int{4})
	require.Error(t, err)
}

func TestPack_RejectsShapeMismatch(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)

	_, err = p.Pack([]uint8{1, 2, 3}, []int{4})
	require.Error(t, err)
}

func TestUnpack_RejectsMalformedTruncatedPayload(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)

	header := packHeader([]int{1000, 1000})
	buf := append(header, make([]byte, 100)...)

	_, _, err = p.Unpack(buf)
	require.Error(t, err)
	kind, ok := errs.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindCodec, kind)
}

func TestUnpack_RejectsTruncatedHeader(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)

	_, _, err = p.Unpack([]byte{2, 0, 10})
	require.Error(t, err)
}

func TestUnpack_RejectsZeroDimensions(t *testing.T) {
	p, err := New(4)
	require.NoError(t, err)

	_, _, err = p.Unpack([]byte{0})
	require.Error(t, err)
}

func TestNew_RejectsOutOfRangeBits(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	_, err = New(9)
	require.Error(t, err)
}
