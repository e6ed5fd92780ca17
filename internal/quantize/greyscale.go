package quantize

import (
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
)

// Greyscale quantises via ITU-R BT.601 luminance (0.299, 0.587, 0.114)
// through a 256-entry LUT into [0, K-1].
type Greyscale struct {
	k   int
	lut [256]uint8
}

// NewGreyscale builds a Greyscale quantiser for palette size k in [1,256].
func NewGreyscale(k int) (*Greyscale, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}
	g := &Greyscale{k: k}
	for lum := 0; lum < 256; lum++ {
		g.lut[lum] = uint8(lum * (k - 1) / 255)
	}
	return g, nil
}

func (g *Greyscale) K() int            { return g.k }
func (g *Greyscale) BitsPerValue() int { return frame.BitsPerValue(g.k) }

func luminance(r, g2, b uint8) uint8 {
	y := 0.299*float64(r) + 0.587*float64(g2) + 0.114*float64(b)
	if y < 0 {
		y = 0
	}
	if y > 255 {
		y = 255
	}
	return uint8(y + 0.5)
}

// Quantise converts f (1 or 3 channel) to luminance and maps through the LUT.
func (g *Greyscale) Quantise(f frame.Frame) (frame.QuantisedFrame, error) {
	if f.Channels != 1 && f.Channels != 3 {
		return frame.QuantisedFrame{}, errs.New(errs.KindShapeMismatch, "greyscale.Quantise", nil)
	}

	out := frame.NewQuantised(f.Height, f.Width, g.k)
	for i := 0; i < f.Height*f.Width; i++ {
		var lum uint8
		if f.Channels == 1 {
			lum = f.Pix[i]
		} else {
			px := f.Pix[i*3 : i*3+3]
			lum = luminance(px[0], px[1], px[2])
		}
		out.Pix[i] = g.lut[lum]
	}
	return out, nil
}

// Dequantise maps each quant value q back to round(q*255/(K-1)),
// replicated across three channels.
func (g *Greyscale) Dequantise(q frame.QuantisedFrame) (frame.Frame, error) {
	if q.K != g.k {
		return frame.Frame{}, errs.New(errs.KindShapeMismatch, "greyscale.Dequantise", nil)
	}

	out := frame.New(q.Height, q.Width, 3)
	denom := g.k - 1
	for i, v := range q.Pix {
		var val uint8
		if denom <= 0 {
			val = 0
		} else {
			val = uint8((int(v)*255 + denom/2) / denom)
		}
		px := out.Pix[i*3 : i*3+3]
		px[0], px[1], px[2] = val, val, val
	}
	return out, nil
}
