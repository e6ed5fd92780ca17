package session

import (
	"encoding/binary"
	"time"

	"github.com/kulaginds/screenrelay/internal/capture"
	"github.com/kulaginds/screenrelay/internal/delta"
	"github.com/kulaginds/screenrelay/internal/pipeline"
	"github.com/kulaginds/screenrelay/internal/transport"
)

// DecoderParams carries the session parameters agreed out of band rather
// than over the handshake wire; see EncoderParams.
type DecoderParams = EncoderParams

// DecoderSession is the viewer side of a stream: it issues one request per
// refresh tick, receives the resulting frame, decodes it (advancing its
// own reference in lockstep with the encoder), and delivers it to a
// Renderer.
type DecoderSession struct {
	t        *transport.Transport
	cfg      Config
	renderer capture.Renderer

	coord  *pipeline.Coordinator
	engine *delta.Engine
	state  State

	shutdown chan struct{}
}

// NewDecoder performs the connect handshake (receive width/height, send
// K/s) over t and builds the decoder's codec stack. params.Algorithm and
// params.QuantiserKind must match the values the peer encoder was started
// with; they are not negotiated over the wire.
func NewDecoder(t *transport.Transport, k, scalePercent int, renderer capture.Renderer, params DecoderParams) (*DecoderSession, error) {
	d := &DecoderSession{
		t:        t,
		renderer: renderer,
		state:    StateIdle,
		shutdown: make(chan struct{}),
	}

	d.state = StateHandshake

	dims, err := t.RecvRaw(4)
	if err != nil {
		d.state = StateClosed
		return nil, err
	}
	screenWidth := int(binary.BigEndian.Uint16(dims[0:2]))
	screenHeight := int(binary.BigEndian.Uint16(dims[2:4]))

	if err := t.SendRaw([]byte{byte(k), byte(scalePercent)}); err != nil {
		d.state = StateClosed
		return nil, err
	}

	cfg := Config{
		ScreenWidth:     screenWidth,
		ScreenHeight:    screenHeight,
		K:               k,
		ScalePercent:    scalePercent,
		Algorithm:       params.Algorithm,
		QuantiserKind:   params.QuantiserKind,
		PaletteCacheDir: params.PaletteCacheDir,
	}

	coord, engine, err := buildCoordinator(cfg)
	if err != nil {
		d.state = StateClosed
		return nil, err
	}

	d.cfg = cfg
	d.coord = coord
	d.engine = engine
	d.state = StateStream
	return d, nil
}

// State returns the session's current state.
func (d *DecoderSession) State() State { return d.state }

// Shutdown signals Run to stop at its next suspension point.
func (d *DecoderSession) Shutdown() {
	select {
	case <-d.shutdown:
	default:
		close(d.shutdown)
	}
}

// Run issues a request and receives/decodes/delivers one frame per tick,
// until Shutdown is called or a transport error forces CLOSED.
func (d *DecoderSession) Run(tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-d.shutdown:
			d.state = StateClosed
			return nil
		case <-ticker.C:
			if err := d.runOnce(); err != nil {
				d.state = StateClosed
				return err
			}
		}
	}
}

func (d *DecoderSession) runOnce() error {
	if err := d.t.SendRaw([]byte{requestByte}); err != nil {
		return err
	}

	msg, err := d.t.RecvFramed()
	if err != nil {
		return err
	}

	hdr, payload, err := decodeFrameHeader(msg)
	if err != nil {
		return err
	}

	targetHeight, targetWidth := d.cfg.ScreenHeight, d.cfg.ScreenWidth
	f, _, err := d.coord.Decode(payload, targetHeight, targetWidth)
	if err != nil {
		return err
	}

	return d.renderer.Deliver(f, capture.Cursor{X: int(hdr.CursorX), Y: int(hdr.CursorY)})
}
