// Package pipeline composes the resize, quantise, delta, pack, and
// compress stages into the two operations a StreamSession actually calls:
// Encode on the sender, Decode on the receiver. Each of the two walks a
// fixed sequence of named stages and threads timing through a result
// struct instead of a map.
package pipeline

import (
	"time"

	"fmt"

	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/delta"
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
	"github.com/kulaginds/screenrelay/internal/pack"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/resize"
)

// Stats records how long each stage of one Encode or Decode call took.
// A named-field struct, not a map, so the zero value is meaningful and
// callers get compile-time field access.
type Stats struct {
	Resize   time.Duration
	Quantise time.Duration
	Delta    time.Duration
	Pack     time.Duration
	Compress time.Duration
	Total    time.Duration
}

// Coordinator composes the five codec stages for one session. Constructed
// once at session setup; Encode and Decode are safe to call only from the
// single goroutine that owns the session's DeltaEngine.
type Coordinator struct {
	resizer    resize.Resizer
	quantiser  quantize.Quantiser
	packer     pack.Packer
	compressor compress.Compressor
	engine     *delta.Engine
}

// New builds a Coordinator from its five collaborators. The DeltaEngine is
// shared with (owned by) the caller so the session can read its reference
// outside of Encode/Decode when needed.
func New(r resize.Resizer, q quantize.Quantiser, p pack.Packer, c compress.Compressor, e *delta.Engine) *Coordinator {
	return &Coordinator{resizer: r, quantiser: q, packer: p, compressor: c, engine: e}
}

// Encode runs resize -> quantise -> delta.compute -> pack -> compress. It
// returns the compressed payload and the candidate reference frame (equal
// to the quantised, resized input) without advancing the engine's
// reference; the caller decides whether to commit it.
func (co *Coordinator) Encode(f frame.Frame) (payload []byte, candidate frame.QuantisedFrame, stats Stats, err error) {
	start := time.Now()

	t0 := time.Now()
	resized, err := co.resizer.Resize(f)
	stats.Resize = time.Since(t0)
	if err != nil {
		return nil, frame.QuantisedFrame{}, stats, err
	}

	t0 = time.Now()
	q, err := co.quantiser.Quantise(resized)
	stats.Quantise = time.Since(t0)
	if err != nil {
		return nil, frame.QuantisedFrame{}, stats, err
	}

	t0 = time.Now()
	d, err := co.engine.ComputeDifference(q)
	stats.Delta = time.Since(t0)
	if err != nil {
		return nil, frame.QuantisedFrame{}, stats, err
	}

	t0 = time.Now()
	packed, err := co.packer.Pack(d.Pix, []int{d.Height, d.Width})
	stats.Pack = time.Since(t0)
	if err != nil {
		return nil, frame.QuantisedFrame{}, stats, err
	}

	t0 = time.Now()
	compressed, err := co.compressor.Compress(packed)
	stats.Compress = time.Since(t0)
	if err != nil {
		return nil, frame.QuantisedFrame{}, stats, err
	}

	stats.Total = time.Since(start)
	return compressed, q, stats, nil
}

// Decode runs decompress -> unpack -> delta.apply (which advances the
// engine's reference) -> dequantise -> desize.
func (co *Coordinator) Decode(payload []byte, targetHeight, targetWidth int) (out frame.Frame, stats Stats, err error) {
	start := time.Now()

	t0 := time.Now()
	packed, err := co.compressor.Decompress(payload)
	stats.Compress = time.Since(t0)
	if err != nil {
		return frame.Frame{}, stats, err
	}

	t0 = time.Now()
	values, shape, err := co.packer.Unpack(packed)
	stats.Pack = time.Since(t0)
	if err != nil {
		return frame.Frame{}, stats, err
	}

	if len(shape) != 2 {
		return frame.Frame{}, stats, errs.New(errs.KindCodec, "pipeline.Decode", fmt.Errorf("unpacked shape has %d dims, want 2", len(shape)))
	}

	d := frame.QuantisedFrame{Height: shape[0], Width: shape[1], K: co.quantiser.K(), Pix: values}

	t0 = time.Now()
	newRef, err := co.engine.ApplyDifference(d)
	stats.Delta = time.Since(t0)
	if err != nil {
		return frame.Frame{}, stats, err
	}

	t0 = time.Now()
	dequantised, err := co.quantiser.Dequantise(newRef)
	stats.Quantise = time.Since(t0)
	if err != nil {
		return frame.Frame{}, stats, err
	}

	t0 = time.Now()
	out, err = co.resizer.Desize(dequantised, targetHeight, targetWidth)
	stats.Resize = time.Since(t0)
	if err != nil {
		return frame.Frame{}, stats, err
	}

	stats.Total = time.Since(start)
	return out, stats, nil
}
