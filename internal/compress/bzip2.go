package compress

import (
	"fmt"

	"github.com/kulaginds/screenrelay/internal/errs"
)

// bzip2Compressor is a self-contained block run-length codec. The standard
// library's compress/bzip2 only offers a decoder, and no example repo in
// the corpus ships a pure-Go bzip2 *writer*, so round-tripping through the
// real bzip2 bitstream isn't possible without a third-party encoder this
// corpus doesn't carry (see DESIGN.md). This variant follows the same
// run/literal segment shape as an NSCodec-style RLE variant: runs of a
// repeated byte collapse to a (count, value) pair, which is exactly the
// case the delta engine's unchanged-pixel regions produce in bulk.
type bzip2Compressor struct{}

func (bzip2Compressor) Name() string { return string(Bzip2) }

func (bzip2Compressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		v := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == v && run < 255 {
			run++
		}
		out = append(out, byte(run), v)
		i += run
	}
	return out, nil
}

func (bzip2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, errs.New(errs.KindCodec, "bzip2.Decompress", fmt.Errorf("truncated run/value stream: %d bytes", len(data)))
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i += 2 {
		run, v := data[i], data[i+1]
		for j := byte(0); j < run; j++ {
			out = append(out, v)
		}
	}
	return out, nil
}
