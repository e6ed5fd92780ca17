package quantize

import (
	"fmt"
	"math"

	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
)

// cubeBits is the per-channel bit depth of the nearest-colour lookup
// table. 8 bits per channel gives a 2^24-entry table.
const cubeBits = 8

// goldenAngle spaces generated palette hues evenly without favouring any
// particular region of the colour wheel, regardless of K.
const goldenAngle = 137.50776405003785

// RGBPalette quantises by nearest palette colour (squared Euclidean
// distance). The palette is generated deterministically from K; the
// nearest-colour lookup table is built once per K and cached on disk.
type RGBPalette struct {
	k       int
	palette frame.Palette
	lut     []uint8 // 2^(3*cubeBits) entries, index = (r<<2b)|(g<<b)|b
}

// NewRGBPalette builds an RGBPalette quantiser for palette size k,
// materialising (or loading) its nearest-colour LUT from cache.
func NewRGBPalette(k int, cache *Cache) (*RGBPalette, error) {
	if err := validateK(k); err != nil {
		return nil, err
	}

	palette := generatePalette(k)
	key := fmt.Sprintf("rgb-k%d-b%d", k, cubeBits)

	lut, err := cache.LUT(key, func() []byte {
		return buildNearestLUT(palette)
	})
	if err != nil {
		return nil, err
	}

	return &RGBPalette{k: k, palette: palette, lut: lut}, nil
}

func (p *RGBPalette) K() int            { return p.k }
func (p *RGBPalette) BitsPerValue() int { return frame.BitsPerValue(p.k) }

// Quantise maps each (r,g,b) triple to its nearest palette index via the
// cached lookup table.
func (p *RGBPalette) Quantise(f frame.Frame) (frame.QuantisedFrame, error) {
	if f.Channels != 3 {
		return frame.QuantisedFrame{}, errs.New(errs.KindShapeMismatch, "rgbpalette.Quantise", nil)
	}

	out := frame.NewQuantised(f.Height, f.Width, p.k)
	shift := 8 - cubeBits
	for i := 0; i < f.Height*f.Width; i++ {
		px := f.Pix[i*3 : i*3+3]
		idx := lutIndex(px[0]>>shift, px[1]>>shift, px[2]>>shift)
		out.Pix[i] = p.lut[idx]
	}
	return out, nil
}

// Dequantise is a single indexed read per pixel.
func (p *RGBPalette) Dequantise(q frame.QuantisedFrame) (frame.Frame, error) {
	if q.K != p.k {
		return frame.Frame{}, errs.New(errs.KindShapeMismatch, "rgbpalette.Dequantise", nil)
	}

	out := frame.New(q.Height, q.Width, 3)
	for i, v := range q.Pix {
		c := p.palette[v]
		px := out.Pix[i*3 : i*3+3]
		px[0], px[1], px[2] = c.R, c.G, c.B
	}
	return out, nil
}

func lutIndex(r, g, b uint8) int {
	return (int(r) << (2 * cubeBits)) | (int(g) << cubeBits) | int(b)
}

// generatePalette deterministically derives k "soft" colours from k alone,
// spacing hues by the golden angle at fixed, muted saturation/value.
func generatePalette(k int) frame.Palette {
	pal := make(frame.Palette, k)
	for i := 0; i < k; i++ {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		r, g, b := hsvToRGB(hue, 0.55, 0.85)
		pal[i] = frame.RGB{R: r, G: g, B: b}
	}
	return pal
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r1, g1, b1 float64
	switch {
	case hp < 1:
		r1, g1, b1 = c, x, 0
	case hp < 2:
		r1, g1, b1 = x, c, 0
	case hp < 3:
		r1, g1, b1 = 0, c, x
	case hp < 4:
		r1, g1, b1 = 0, x, c
	case hp < 5:
		r1, g1, b1 = x, 0, c
	default:
		r1, g1, b1 = c, 0, x
	}
	m := v - c
	return to8(r1 + m), to8(g1 + m), to8(b1 + m)
}

func to8(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

// buildNearestLUT builds the full 2^(3*cubeBits)-entry nearest-palette
// table by brute-force squared-distance search.
func buildNearestLUT(palette frame.Palette) []byte {
	side := 1 << cubeBits
	lut := make([]byte, side*side*side)
	shift := 8 - cubeBits

	idx := 0
	for r := 0; r < side; r++ {
		rv := int(uint8(r << shift))
		for g := 0; g < side; g++ {
			gv := int(uint8(g << shift))
			for b := 0; b < side; b++ {
				bv := int(uint8(b << shift))
				lut[idx] = byte(nearest(palette, rv, gv, bv))
				idx++
			}
		}
	}
	return lut
}

func nearest(palette frame.Palette, r, g, b int) int {
	best := 0
	bestDist := math.MaxInt64
	for i, c := range palette {
		dr := r - int(c.R)
		dg := g - int(c.G)
		db := b - int(c.B)
		dist := dr*dr + dg*dg + db*db
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
