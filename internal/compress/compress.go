// Package compress implements the Compressor capability: a single
// byte-stream codec selected per session, with zlib, bzip2, and lzma
// variants.
package compress

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/google/wuffs/lib/litonlylzma"

	"github.com/kulaginds/screenrelay/internal/errs"
)

// Compressor compresses and decompresses opaque byte buffers. The pipeline
// uses a single compressor per session; there is no per-chunk algorithm
// auto-selection.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Name() string
}

// Algorithm selects a Compressor variant at session construction.
type Algorithm string

const (
	Zlib  Algorithm = "zlib"
	Bzip2 Algorithm = "bzip2"
	LZMA  Algorithm = "lzma"
)

// New builds the Compressor for the given algorithm. Zlib is the default
// used when algo is empty.
func New(algo Algorithm) (Compressor, error) {
	switch algo {
	case "", Zlib:
		return zlibCompressor{}, nil
	case Bzip2:
		return bzip2Compressor{}, nil
	case LZMA:
		return lzmaCompressor{}, nil
	default:
		return nil, errs.New(errs.KindConfiguration, "compress.New", fmt.Errorf("unknown algorithm %q", algo))
	}
}

type zlibCompressor struct{}

func (zlibCompressor) Name() string { return string(Zlib) }

func (zlibCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errs.New(errs.KindCodec, "zlib.Compress", err)
	}
	if err := w.Close(); err != nil {
		return nil, errs.New(errs.KindCodec, "zlib.Compress", err)
	}
	return buf.Bytes(), nil
}

func (zlibCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.New(errs.KindCodec, "zlib.Decompress", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.New(errs.KindCodec, "zlib.Decompress", err)
	}
	return out, nil
}

// lzmaCompressor wraps the pure-Go subset-of-LZMA codec from the wuffs
// example pack. It produces a real, spec-compliant single-file LZMA
// stream (decodable by any standard lzma tool), just without Lempel-Ziv
// back-references.
type lzmaCompressor struct{}

func (lzmaCompressor) Name() string { return string(LZMA) }

func (lzmaCompressor) Compress(data []byte) ([]byte, error) {
	out, err := litonlylzma.FileFormatLZMA.Encode(nil, data)
	if err != nil {
		return nil, errs.New(errs.KindCodec, "lzma.Compress", err)
	}
	return out, nil
}

func (lzmaCompressor) Decompress(data []byte) ([]byte, error) {
	out, _, err := litonlylzma.FileFormatLZMA.Decode(nil, data)
	if err != nil {
		return nil, errs.New(errs.KindCodec, "lzma.Decompress", err)
	}
	return out, nil
}
