package delta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/screenrelay/internal/frame"
)

func TestComputeThenApply_RoundTrips(t *testing.T) {
	e := New(2, 3, 4)

	c := frame.NewQuantised(2, 3, 4)
	copy(c.Pix, []uint8{1, 2, 3, 0, 3, 1})

	d, err := e.ComputeDifference(c)
	require.NoError(t, err)

	result, err := e.ApplyDifference(d)
	require.NoError(t, err)
	assert.Equal(t, c.Pix, result.Pix)
}

func TestComputeDifference_DoesNotMutateReference(t *testing.T) {
	e := New(1, 4, 4)
	before := e.Reference()

	c := frame.NewQuantised(1, 4, 4)
	copy(c.Pix, []uint8{3, 1, 2, 0})

	_, err := e.ComputeDifference(c)
	require.NoError(t, err)
	assert.Equal(t, before.Pix, e.Reference().Pix)
}

func TestComputeDifference_WrapsModularly(t *testing.T) {
	e := New(1, 1, 4)
	// reference starts at 0; current = 3 -> D = (0-3) mod 4 = 1
	c := frame.NewQuantised(1, 1, 4)
	c.Pix[0] = 3

	d, err := e.ComputeDifference(c)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), d.Pix[0])
}

func TestComputeDifference_RejectsShapeMismatch(t *testing.T) {
	e := New(2, 2, 4)
	c := frame.NewQuantised(3, 3, 4)

	_, err := e.ComputeDifference(c)
	require.Error(t, err)
}

func TestApplyDifference_RejectsShapeMismatch(t *testing.T) {
	e := New(2, 2, 4)
	d := frame.NewQuantised(2, 2, 8)

	_, err := e.ApplyDifference(d)
	require.Error(t, err)
}

func TestAdvance_ReplacesReference(t *testing.T) {
	e := New(1, 2, 4)

	next := frame.NewQuantised(1, 2, 4)
	copy(next.Pix, []uint8{2, 3})

	require.NoError(t, e.Advance(next))
	assert.Equal(t, next.Pix, e.Reference().Pix)
}

func TestAdvance_RejectsShapeMismatch(t *testing.T) {
	e := New(1, 2, 4)
	wrong := frame.NewQuantised(2, 2, 4)

	require.Error(t, e.Advance(wrong))
}
