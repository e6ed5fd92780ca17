// Package quantize implements the Quantiser capability: reducing 8-bit
// pixel depth to a K-level palette, with Greyscale and RGBPalette variants
// behind one interface.
package quantize

import (
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
)

// Quantiser maps a Frame down to a QuantisedFrame of palette size K, and
// back. bits_per_value = ceil(log2(K)) for every concrete variant.
type Quantiser interface {
	Quantise(f frame.Frame) (frame.QuantisedFrame, error)
	Dequantise(q frame.QuantisedFrame) (frame.Frame, error)
	K() int
	BitsPerValue() int
}

// Kind selects a Quantiser variant at session construction.
type Kind string

const (
	GreyscaleKind Kind = "greyscale"
	RGB           Kind = "rgb"
)

// New builds the Quantiser for the given kind. GreyscaleKind is the
// default used when kind is empty. cache is only consulted by RGB; nil is
// fine when kind is GreyscaleKind.
func New(kind Kind, k int, cache *Cache) (Quantiser, error) {
	switch kind {
	case "", GreyscaleKind:
		return NewGreyscale(k)
	case RGB:
		return NewRGBPalette(k, cache)
	default:
		return nil, errs.New(errs.KindConfiguration, "quantize.New", nil)
	}
}

// validateK accepts [1, 256]: K=1 is the degenerate single-colour case;
// the session layer is free to further restrict to [2, 256] if it never
// wants a degenerate stream.
func validateK(k int) error {
	if k < 1 || k > 256 {
		return errs.New(errs.KindConfiguration, "quantize", nil)
	}
	return nil
}
