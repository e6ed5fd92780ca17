// Package pack implements the Packer capability: bit-packing n-bit values
// (n in [1,8]) into a byte stream with a self-describing shape header.
package pack

import (
	"encoding/binary"
	"fmt"

	"github.com/kulaginds/screenrelay/internal/errs"
)

const (
	maxDimensions    = 255
	maxDimensionSize = 65535
)

// Packer packs/unpacks arrays of n-bit values for a fixed bit width.
type Packer struct {
	bits int
}

// New builds a Packer for the given bit width n in [1,8].
func New(bits int) (Packer, error) {
	if bits < 1 || bits > 8 {
		return Packer{}, errs.New(errs.KindConfiguration, "pack.New", nil)
	}
	return Packer{bits: bits}, nil
}

// Bits returns the packer's configured bit width.
func (p Packer) Bits() int { return p.bits }

// Pack writes the header (nd, nd*u16BE dims) followed by the bit-packed
// values, using big-endian bit order within each group.
func (p Packer) Pack(values []uint8, shape []int) ([]byte, error) {
	if err := validateShape(shape); err != nil {
		return nil, err
	}

	total := productOf(shape)
	if len(values) != total {
		return nil, errs.New(errs.KindShapeMismatch, "pack.Pack", fmt.Errorf("got %d values, shape wants %d", len(values), total))
	}

	mask := uint32(1)<<p.bits - 1
	for _, v := range values {
		if uint32(v) > mask {
			return nil, errs.New(errs.KindConfiguration, "pack.Pack", fmt.Errorf("value %d exceeds %d bits", v, p.bits))
		}
	}

	header := packHeader(shape)
	payload := packBits(values, p.bits)

	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	out = append(out, payload...)
	return out, nil
}

// Unpack parses the header and reverses the bit packing, rejecting any
// buffer whose declared shape is inconsistent with its payload length.
func (p Packer) Unpack(data []byte) ([]uint8, []int, error) {
	shape, rest, err := unpackHeader(data)
	if err != nil {
		return nil, nil, err
	}

	total := productOf(shape)
	wantBytes := expectedPayloadLen(total, p.bits)
	if len(rest) != wantBytes {
		return nil, nil, errs.New(errs.KindCodec, "pack.Unpack", fmt.Errorf("payload length mismatch: want %d bytes, got %d", wantBytes, len(rest)))
	}

	values := unpackBits(rest[:wantBytes], p.bits, total)
	return values, shape, nil
}

func validateShape(shape []int) error {
	if len(shape) == 0 {
		return errs.New(errs.KindConfiguration, "pack.validateShape", fmt.Errorf("shape is empty"))
	}
	if len(shape) > maxDimensions {
		return errs.New(errs.KindConfiguration, "pack.validateShape", fmt.Errorf("too many dimensions: %d", len(shape)))
	}
	for _, d := range shape {
		if d <= 0 || d > maxDimensionSize {
			return errs.New(errs.KindConfiguration, "pack.validateShape", fmt.Errorf("dimension out of range: %d", d))
		}
	}
	return nil
}

func packHeader(shape []int) []byte {
	header := make([]byte, 1+2*len(shape))
	header[0] = byte(len(shape))
	for i, d := range shape {
		binary.BigEndian.PutUint16(header[1+2*i:], uint16(d))
	}
	return header
}

func unpackHeader(data []byte) ([]int, []byte, error) {
	if len(data) < 1 {
		return nil, nil, errs.New(errs.KindCodec, "pack.unpackHeader", fmt.Errorf("truncated header"))
	}
	nd := int(data[0])
	if nd == 0 {
		return nil, nil, errs.New(errs.KindCodec, "pack.unpackHeader", fmt.Errorf("zero dimensions"))
	}
	need := 1 + 2*nd
	if len(data) < need {
		return nil, nil, errs.New(errs.KindCodec, "pack.unpackHeader", fmt.Errorf("truncated dims: need %d bytes, got %d", need, len(data)))
	}

	shape := make([]int, nd)
	for i := 0; i < nd; i++ {
		d := int(binary.BigEndian.Uint16(data[1+2*i:]))
		if d == 0 {
			return nil, nil, errs.New(errs.KindCodec, "pack.unpackHeader", fmt.Errorf("zero-length dimension"))
		}
		shape[i] = d
	}
	return shape, data[need:], nil
}

func productOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
