// Package resize implements the Resizer capability: a symmetric
// downscale/upscale pair driven by an integer scale percent, backed by the
// bicubic (Catmull-Rom) kernel from golang.org/x/image/draw.
package resize

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/frame"
)

// Resizer downscales a Frame on encode and upscales it back to the
// original geometry on decode. Both operations are pure; desize(resize(x))
// approximates x but is not exact, and that loss is accepted by design.
type Resizer struct {
	scalePercent int
	identity     bool
}

// New builds a Resizer for the given integer scale percent in [1, 100].
func New(scalePercent int) (Resizer, error) {
	if scalePercent < 1 || scalePercent > 100 {
		return Resizer{}, errs.New(errs.KindConfiguration, "resize.New", nil)
	}
	return Resizer{
		scalePercent: scalePercent,
		identity:     scalePercent >= 99,
	}, nil
}

// TargetSize returns the (height, width) a frame of the given shape
// resizes to, per round(dim * s/100).
func (r Resizer) TargetSize(height, width int) (int, int) {
	if r.identity {
		return height, width
	}
	return roundScale(height, r.scalePercent), roundScale(width, r.scalePercent)
}

// Resize downscales f to round(h*s), round(w*s). Returns f unchanged
// (by value) when s >= 99.
func (r Resizer) Resize(f frame.Frame) (frame.Frame, error) {
	if r.identity {
		return f, nil
	}
	th, tw := r.TargetSize(f.Height, f.Width)
	return scaleTo(f, th, tw)
}

// Desize upscales f back to (targetHeight, targetWidth), the original
// geometry before Resize was applied.
func (r Resizer) Desize(f frame.Frame, targetHeight, targetWidth int) (frame.Frame, error) {
	if r.identity {
		if f.Height != targetHeight || f.Width != targetWidth {
			return frame.Frame{}, errs.New(errs.KindShapeMismatch, "resize.Desize", nil)
		}
		return f, nil
	}
	return scaleTo(f, targetHeight, targetWidth)
}

func roundScale(dim, scalePercent int) int {
	v := (dim*scalePercent*2 + 100) / 200 // round-half-up on dim*s/100
	if v < 1 {
		v = 1
	}
	return v
}

func scaleTo(f frame.Frame, targetHeight, targetWidth int) (frame.Frame, error) {
	if f.Height <= 0 || f.Width <= 0 || targetHeight <= 0 || targetWidth <= 0 {
		return frame.Frame{}, errs.New(errs.KindShapeMismatch, "resize.scaleTo", nil)
	}

	src := toImage(f)
	dstRect := image.Rect(0, 0, targetWidth, targetHeight)

	switch f.Channels {
	case 1:
		dst := image.NewGray(dstRect)
		draw.CatmullRom.Scale(dst, dstRect, src, src.Bounds(), draw.Over, nil)
		return fromGray(dst, targetHeight, targetWidth), nil
	case 3:
		dst := image.NewNRGBA(dstRect)
		draw.CatmullRom.Scale(dst, dstRect, src, src.Bounds(), draw.Over, nil)
		return fromNRGBA(dst, targetHeight, targetWidth), nil
	default:
		return frame.Frame{}, errs.New(errs.KindConfiguration, "resize.scaleTo", nil)
	}
}

func toImage(f frame.Frame) image.Image {
	switch f.Channels {
	case 1:
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		copy(img.Pix, f.Pix)
		return img
	default:
		img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				px := f.At(y, x)
				img.SetNRGBA(x, y, color.NRGBA{R: px[0], G: px[1], B: px[2], A: 0xFF})
			}
		}
		return img
	}
}

func fromGray(img *image.Gray, height, width int) frame.Frame {
	out := frame.New(height, width, 1)
	copy(out.Pix, img.Pix)
	return out
}

func fromNRGBA(img *image.NRGBA, height, width int) frame.Frame {
	out := frame.New(height, width, 3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := img.NRGBAAt(x, y)
			px := out.At(y, x)
			px[0], px[1], px[2] = c.R, c.G, c.B
		}
	}
	return out
}
