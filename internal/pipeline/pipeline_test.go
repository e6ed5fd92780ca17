package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/delta"
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
	"github.com/kulaginds/screenrelay/internal/pack"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/resize"
)

func newTestCoordinator(t *testing.T, k int) (*Coordinator, *delta.Engine) {
	t.Helper()

	r, err := resize.New(100) // identity: keep the test's shape arithmetic simple
	require.NoError(t, err)

	q, err := quantize.NewGreyscale(k)
	require.NoError(t, err)

	bits := frame.BitsPerValue(k)
	p, err := pack.New(bits)
	require.NoError(t, err)

	c, err := compress.New(compress.Zlib)
	require.NoError(t, err)

	e := delta.New(4, 4, k)
	return New(r, q, p, c, &e), &e
}

func TestEncodeThenDecode_RecoversQuantisedFrame(t *testing.T) {
	co, _ := newTestCoordinator(t, 4)

	f := frame.New(4, 4, 1)
	copy(f.Pix, []uint8{
		0, 50, 100, 150,
		200, 250, 10, 20,
		30, 40, 60, 70,
		80, 90, 110, 120,
	})

	payload, candidate, encStats, err := co.Encode(f)
	require.NoError(t, err)
	assert.NotEmpty(t, payload)
	assert.Equal(t, 4, candidate.K)

	decoded, decStats, err := co.Decode(payload, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Height)
	assert.Equal(t, 4, decoded.Width)
	assert.Equal(t, 3, decoded.Channels)

	assert.GreaterOrEqual(t, encStats.Total, encStats.Resize)
	assert.GreaterOrEqual(t, decStats.Total, decStats.Pack)
}

func TestEncode_DoesNotAdvanceReference(t *testing.T) {
	co, engine := newTestCoordinator(t, 4)
	before := engine.Reference()

	f := frame.New(4, 4, 1)
	copy(f.Pix, []uint8{255, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	_, _, _, err := co.Encode(f)
	require.NoError(t, err)

	assert.Equal(t, before.Pix, engine.Reference().Pix)
}

func TestDecode_AdvancesReference(t *testing.T) {
	co, engine := newTestCoordinator(t, 4)

	f := frame.New(4, 4, 1)
	copy(f.Pix, []uint8{255, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	payload, candidate, _, err := co.Encode(f)
	require.NoError(t, err)

	_, _, err = co.Decode(payload, 4, 4)
	require.NoError(t, err)

	assert.Equal(t, candidate.Pix, engine.Reference().Pix)
}

func TestDecode_RejectsMalformedShape(t *testing.T) {
	co, _ := newTestCoordinator(t, 4)

	p, err := pack.New(frame.BitsPerValue(4))
	require.NoError(t, err)
	packed, err := p.Pack([]uint8{0, 1, 2, 3}, []int{4}) // 1 dim, not 2
	require.NoError(t, err)

	c, err := compress.New(compress.Zlib)
	require.NoError(t, err)
	payload, err := c.Compress(packed)
	require.NoError(t, err)

	_, _, err = co.Decode(payload, 4, 4)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindCodec), "want KindCodec, got %v", err)
}

func TestEncode_UniformFrameCompressesSmall(t *testing.T) {
	co, _ := newTestCoordinator(t, 4)

	f := frame.New(4, 4, 1) // all zero: matches the zero reference, so delta is all zero
	payload, _, _, err := co.Encode(f)
	require.NoError(t, err)
	// 9 packed bytes (5-byte shape header + 4 zero payload bytes) plus
	// zlib's fixed framing, which dominates at this size.
	assert.Less(t, len(payload), 24)
}
