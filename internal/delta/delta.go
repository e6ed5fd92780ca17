// Package delta implements the DeltaEngine: a reference frame held by
// value and the modular difference scheme that makes the stream's
// bandwidth proportional to change rather than to absolute content.
//
// The formula is (R-C) mod K to compute a difference and (R-D) mod K to
// apply one.
package delta

import (
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
)

// Engine owns a ReferenceFrame exclusively; it is a plain value type with
// no internal synchronisation, meant to be held by a single session task.
type Engine struct {
	ref frame.QuantisedFrame
}

// New builds an Engine whose reference frame starts as the all-zero frame
// of the given shape and palette size.
func New(height, width, k int) Engine {
	return Engine{ref: frame.NewQuantised(height, width, k)}
}

// Reference returns a copy of the current reference frame.
func (e *Engine) Reference() frame.QuantisedFrame {
	return e.ref.Clone()
}

// ComputeDifference returns D = (R-C) mod K. It does not mutate the
// reference.
func (e *Engine) ComputeDifference(c frame.QuantisedFrame) (frame.QuantisedFrame, error) {
	if !e.ref.SameShape(c) {
		return frame.QuantisedFrame{}, errs.New(errs.KindShapeMismatch, "delta.ComputeDifference", nil)
	}

	d := frame.NewQuantised(c.Height, c.Width, c.K)
	for i := range d.Pix {
		d.Pix[i] = modSub(int(e.ref.Pix[i]), int(c.Pix[i]), c.K)
	}
	return d, nil
}

// ApplyDifference sets R := (R-D) mod K and returns the new reference.
func (e *Engine) ApplyDifference(d frame.QuantisedFrame) (frame.QuantisedFrame, error) {
	if !e.ref.SameShape(d) {
		return frame.QuantisedFrame{}, errs.New(errs.KindShapeMismatch, "delta.ApplyDifference", nil)
	}

	for i := range e.ref.Pix {
		e.ref.Pix[i] = modSub(int(e.ref.Pix[i]), int(d.Pix[i]), d.K)
	}
	return e.ref.Clone(), nil
}

// Advance replaces R wholesale. Used by the encoder to commit a candidate
// reference only once its frame has actually been sent.
func (e *Engine) Advance(newRef frame.QuantisedFrame) error {
	if newRef.Height != e.ref.Height || newRef.Width != e.ref.Width || newRef.K != e.ref.K {
		return errs.New(errs.KindShapeMismatch, "delta.Advance", nil)
	}
	e.ref = newRef.Clone()
	return nil
}

// modSub computes (a-b) mod k, always returning a value in [0, k-1].
func modSub(a, b, k int) uint8 {
	if k <= 1 {
		return 0
	}
	v := (a - b) % k
	if v < 0 {
		v += k
	}
	return uint8(v)
}
