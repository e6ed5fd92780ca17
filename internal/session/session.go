// Package session implements StreamSession: the encoder (host) and decoder
// (viewer) sides of the handshake, main loop, and state machine that drive
// the codec pipeline over a FrameTransport.
package session

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/delta"
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/pack"
	"github.com/kulaginds/screenrelay/internal/pipeline"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/resize"
)

// State is a StreamSession's position in the IDLE -> HANDSHAKE -> STREAM
// -> CLOSED state machine. CLOSED is terminal; there is no implicit
// reconnect.
type State int

const (
	StateIdle State = iota
	StateHandshake
	StateStream
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateHandshake:
		return "HANDSHAKE"
	case StateStream:
		return "STREAM"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// requestByte is the single-byte frame-request message sent R->S.
const requestByte = 0x01

// headerLen is the fixed-width metadata prefix of an encoded frame payload:
// frame_index(u32) + captured_ms(u64) + encoded_ms(u64) + cursor_x(u16) +
// cursor_y(u16).
const headerLen = 4 + 8 + 8 + 2 + 2

// frameHeader is the parsed form of that metadata prefix.
type frameHeader struct {
	FrameIndex uint32
	CapturedMs uint64
	EncodedMs  uint64
	CursorX    uint16
	CursorY    uint16
}

func encodeFrameHeader(h frameHeader) []byte {
	b := make([]byte, headerLen)
	binary.BigEndian.PutUint32(b[0:4], h.FrameIndex)
	binary.BigEndian.PutUint64(b[4:12], h.CapturedMs)
	binary.BigEndian.PutUint64(b[12:20], h.EncodedMs)
	binary.BigEndian.PutUint16(b[20:22], h.CursorX)
	binary.BigEndian.PutUint16(b[22:24], h.CursorY)
	return b
}

func decodeFrameHeader(b []byte) (frameHeader, []byte, error) {
	if len(b) < headerLen {
		return frameHeader{}, nil, errs.New(errs.KindCodec, "session.decodeFrameHeader", fmt.Errorf("truncated header: %d bytes", len(b)))
	}
	h := frameHeader{
		FrameIndex: binary.BigEndian.Uint32(b[0:4]),
		CapturedMs: binary.BigEndian.Uint64(b[4:12]),
		EncodedMs:  binary.BigEndian.Uint64(b[12:20]),
		CursorX:    binary.BigEndian.Uint16(b[20:22]),
		CursorY:    binary.BigEndian.Uint16(b[22:24]),
	}
	return h, b[headerLen:], nil
}

// Config is the negotiated session configuration: an immutable tuple both
// sides build identical collaborators from.
//
// Only ScreenWidth/ScreenHeight/K/ScalePercent travel over the handshake
// wire. Algorithm and QuantiserKind are agreed out of band: both sides
// must be started with matching values (env SESSION_ALGORITHM and
// SESSION_QUANTISER_KIND), the same way both ends already had to agree on
// the transport's header size before the handshake runs.
type Config struct {
	ScreenWidth     int
	ScreenHeight    int
	K               int
	ScalePercent    int
	Algorithm       compress.Algorithm
	QuantiserKind   quantize.Kind
	PaletteCacheDir string

	// RequestGateTimeout is the encoder's short poll for an incoming
	// request (default 10ms). Unused on the decoder side.
	RequestGateTimeout time.Duration
}

func (c Config) requestGateTimeout() time.Duration {
	if c.RequestGateTimeout > 0 {
		return c.RequestGateTimeout
	}
	return 10 * time.Millisecond
}

// buildCoordinator constructs the shared Resizer/Quantiser/Packer/
// Compressor/DeltaEngine stack both session sides need, from a negotiated
// Config.
func buildCoordinator(cfg Config) (*pipeline.Coordinator, *delta.Engine, error) {
	r, err := resize.New(cfg.ScalePercent)
	if err != nil {
		return nil, nil, err
	}

	var cache *quantize.Cache
	if cfg.QuantiserKind == quantize.RGB {
		cache = quantize.NewCache(cfg.PaletteCacheDir)
	}

	q, err := quantize.New(cfg.QuantiserKind, cfg.K, cache)
	if err != nil {
		return nil, nil, err
	}

	p, err := pack.New(q.BitsPerValue())
	if err != nil {
		return nil, nil, err
	}

	c, err := compress.New(cfg.Algorithm)
	if err != nil {
		return nil, nil, err
	}

	th, tw := r.TargetSize(cfg.ScreenHeight, cfg.ScreenWidth)
	e := delta.New(th, tw, cfg.K)

	return pipeline.New(r, q, p, c, &e), &e, nil
}
