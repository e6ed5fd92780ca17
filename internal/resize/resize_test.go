package resize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kulaginds/screenrelay/internal/frame"
)

func TestNew_RejectsOutOfRangeScale(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = New(101)
	require.Error(t, err)
}

func TestResize_IdentityAboveThreshold(t *testing.T) {
	r, err := New(99)
	require.NoError(t, err)

	f := frame.New(10, 20, 3)
	out, err := r.Resize(f)
	require.NoError(t, err)
	assert.Equal(t, f.Height, out.Height)
	assert.Equal(t, f.Width, out.Width)
}

func TestResize_DownscalesByScalePercent(t *testing.T) {
	r, err := New(60)
	require.NoError(t, err)

	f := frame.New(1080, 1920, 3)
	out, err := r.Resize(f)
	require.NoError(t, err)
	assert.Equal(t, 648, out.Height)
	assert.Equal(t, 1152, out.Width)
}

func TestDesize_RoundTripsShape(t *testing.T) {
	r, err := New(60)
	require.NoError(t, err)

	f := frame.New(1080, 1920, 3)
	small, err := r.Resize(f)
	require.NoError(t, err)

	back, err := r.Desize(small, f.Height, f.Width)
	require.NoError(t, err)
	assert.Equal(t, f.Height, back.Height)
	assert.Equal(t, f.Width, back.Width)
	assert.Equal(t, f.Channels, back.Channels)
}

func TestDesize_IdentityRejectsShapeMismatch(t *testing.T) {
	r, err := New(100)
	require.NoError(t, err)

	f := frame.New(10, 10, 1)
	_, err = r.Desize(f, 20, 20)
	require.Error(t, err)
}
