package compress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip_AllAlgorithms(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 17)
	}

	for _, algo := range []Algorithm{Zlib, Bzip2, LZMA} {
		c, err := New(algo)
		require.NoError(t, err, algo)

		compressed, err := c.Compress(payload)
		require.NoError(t, err, algo)

		decompressed, err := c.Decompress(compressed)
		require.NoError(t, err, algo)
		assert.Equal(t, payload, decompressed, algo)
	}
}

func TestRoundTrip_EmptyBuffer(t *testing.T) {
	for _, algo := range []Algorithm{Zlib, Bzip2, LZMA} {
		c, err := New(algo)
		require.NoError(t, err)

		compressed, err := c.Compress(nil)
		require.NoError(t, err)

		decompressed, err := c.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, decompressed)
	}
}

func TestZlib_StaticFrameCompressesTiny(t *testing.T) {
	c, err := New(Zlib)
	require.NoError(t, err)

	zeros := make([]byte, 186624) // 648x1152 frame at 2 bits/value, all-zero
	compressed, err := c.Compress(zeros)
	require.NoError(t, err)
	assert.Less(t, len(compressed), 1000)
}

func TestNew_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := New("rle-of-nowhere")
	require.Error(t, err)
}

func TestBzip2_RejectsOddLengthStream(t *testing.T) {
	c, err := New(Bzip2)
	require.NoError(t, err)

	_, err = c.Decompress([]byte{1, 2, 3})
	require.Error(t, err)
}
