package session

import (
	"encoding/binary"
	"time"

	"github.com/kulaginds/screenrelay/internal/capture"
	"github.com/kulaginds/screenrelay/internal/compress"
	"github.com/kulaginds/screenrelay/internal/delta"
	"github.com/kulaginds/screenrelay/internal/errs"
	"github.com/kulaginds/screenrelay/internal/pipeline"
	"github.com/kulaginds/screenrelay/internal/quantize"
	"github.com/kulaginds/screenrelay/internal/transport"
)

// EncoderSession is the host side of a stream: it captures the screen,
// encodes each frame, and ships only the frame that wins the race against
// an incoming viewer request. One EncoderSession owns its DeltaEngine
// exclusively; there is no locking because capture, encode, and send all
// happen on the single goroutine that calls Run.
type EncoderSession struct {
	t        *transport.Transport
	cfg      Config
	capturer capture.ScreenCapturer

	coord      *pipeline.Coordinator
	engine     *delta.Engine
	state      State
	frameIndex uint32
	shutdown   chan struct{}
}

// EncoderParams carries the session parameters that are agreed out of
// band rather than over the handshake wire: both the encoder and decoder
// must be configured with matching Algorithm and QuantiserKind.
type EncoderParams struct {
	Algorithm       compress.Algorithm
	QuantiserKind   quantize.Kind
	PaletteCacheDir string
}

// NewEncoder performs the connect handshake (send width/height, receive
// K/s) over t and builds the encoder's codec stack. params.Algorithm and
// params.QuantiserKind are not negotiated over the wire; the caller is
// responsible for starting the decoder with matching values.
func NewEncoder(t *transport.Transport, screenWidth, screenHeight int, capturer capture.ScreenCapturer, params EncoderParams) (*EncoderSession, error) {
	e := &EncoderSession{
		t:        t,
		capturer: capturer,
		state:    StateIdle,
		shutdown: make(chan struct{}),
	}

	e.state = StateHandshake

	dims := make([]byte, 4)
	binary.BigEndian.PutUint16(dims[0:2], uint16(screenWidth))
	binary.BigEndian.PutUint16(dims[2:4], uint16(screenHeight))
	if err := t.SendRaw(dims); err != nil {
		e.state = StateClosed
		return nil, err
	}

	ks, err := t.RecvRaw(2)
	if err != nil {
		e.state = StateClosed
		return nil, err
	}

	cfg := Config{
		ScreenWidth:     screenWidth,
		ScreenHeight:    screenHeight,
		K:               int(ks[0]),
		ScalePercent:    int(ks[1]),
		Algorithm:       params.Algorithm,
		QuantiserKind:   params.QuantiserKind,
		PaletteCacheDir: params.PaletteCacheDir,
	}

	coord, engine, err := buildCoordinator(cfg)
	if err != nil {
		e.state = StateClosed
		return nil, err
	}

	e.cfg = cfg
	e.coord = coord
	e.engine = engine
	e.state = StateStream
	return e, nil
}

// State returns the session's current state.
func (e *EncoderSession) State() State { return e.state }

// Shutdown signals Run to stop at its next suspension point.
func (e *EncoderSession) Shutdown() {
	select {
	case <-e.shutdown:
	default:
		close(e.shutdown)
	}
}

// Run executes the encoder main loop until Shutdown is called or a
// transport error forces a transition to CLOSED.
func (e *EncoderSession) Run() error {
	for {
		select {
		case <-e.shutdown:
			e.state = StateClosed
			return nil
		default:
		}

		if err := e.runOnce(); err != nil {
			e.state = StateClosed
			return err
		}
	}
}

// runOnce captures, encodes, and conditionally ships exactly one frame. A
// request-gate miss is not an error: it discards the just-encoded frame
// and returns nil so Run loops back to capture again.
func (e *EncoderSession) runOnce() error {
	f, cursor, err := e.capturer.Capture()
	if err != nil {
		return err
	}
	capturedMs := nowMillis()

	payload, candidate, _, err := e.coord.Encode(f)
	if err != nil {
		return err
	}
	encodedMs := nowMillis()

	e.t.SetTimeout(e.cfg.requestGateTimeout())
	_, err = e.t.RecvRaw(1)
	if err != nil {
		if errs.Is(err, errs.KindTransportTimeout) {
			return nil // request gate missed: discard this frame, try again
		}
		return err
	}

	if err := e.engine.Advance(candidate); err != nil {
		return err
	}

	e.frameIndex++
	header := encodeFrameHeader(frameHeader{
		FrameIndex: e.frameIndex,
		CapturedMs: capturedMs,
		EncodedMs:  encodedMs,
		CursorX:    uint16(clampUint16(cursor.X)),
		CursorY:    uint16(clampUint16(cursor.Y)),
	})

	e.t.SetTimeout(0)
	msg := make([]byte, 0, len(header)+len(payload))
	msg = append(msg, header...)
	msg = append(msg, payload...)
	return e.t.SendFramed(msg)
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

func clampUint16(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}
