// Package transport implements FrameTransport: a length-prefixed message
// layer over an ordered reliable byte stream (net.Conn), with an explicit
// closed predicate and a settable read/write deadline.
package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kulaginds/screenrelay/internal/errs"
)

// DefaultHeaderSize is H, the number of bytes carrying the payload length
// prefix.
const DefaultHeaderSize = 4

// Transport frames messages over conn with an H-byte big-endian length
// prefix. Safe for concurrent Send*/Recv* from one goroutine each; Close
// and SetTimeout may be called from any goroutine.
type Transport struct {
	conn       net.Conn
	headerSize int
	maxPayload uint64

	mu      sync.Mutex
	timeout time.Duration

	closed atomic.Bool
}

// New builds a Transport with the given header size (1-8 bytes); 0 selects
// DefaultHeaderSize.
func New(conn net.Conn, headerSize int) (*Transport, error) {
	if headerSize == 0 {
		headerSize = DefaultHeaderSize
	}
	if headerSize < 1 || headerSize > 8 {
		return nil, errs.New(errs.KindConfiguration, "transport.New", nil)
	}

	return &Transport{
		conn:       conn,
		headerSize: headerSize,
		maxPayload: 1<<(8*uint(headerSize)) - 1,
	}, nil
}

// SetTimeout sets the deadline duration applied to every subsequent
// Send*/Recv* call. A zero duration disables deadlines.
func (t *Transport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	t.timeout = d
	t.mu.Unlock()
}

// Closed reports whether the transport has been closed.
func (t *Transport) Closed() bool {
	return t.closed.Load()
}

// Close closes the underlying connection.
func (t *Transport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *Transport) deadline() time.Time {
	t.mu.Lock()
	d := t.timeout
	t.mu.Unlock()
	if d == 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

// SendRaw writes all of b, accumulating partial writes until exactly
// len(b) bytes have been sent.
func (t *Transport) SendRaw(b []byte) error {
	if t.Closed() {
		return errs.New(errs.KindTransportTerminated, "transport.SendRaw", nil)
	}

	if err := t.conn.SetWriteDeadline(t.deadline()); err != nil {
		return errs.New(errs.KindTransportTerminated, "transport.SendRaw", err)
	}

	written := 0
	for written < len(b) {
		n, err := t.conn.Write(b[written:])
		if err != nil {
			return classifyError(err, "transport.SendRaw")
		}
		written += n
	}
	return nil
}

// RecvRaw reads exactly n bytes, accumulating short reads.
func (t *Transport) RecvRaw(n int) ([]byte, error) {
	if t.Closed() {
		return nil, errs.New(errs.KindTransportTerminated, "transport.RecvRaw", nil)
	}

	if err := t.conn.SetReadDeadline(t.deadline()); err != nil {
		return nil, errs.New(errs.KindTransportTerminated, "transport.RecvRaw", err)
	}

	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := t.conn.Read(buf[read:])
		if m == 0 && err == nil {
			return nil, errs.New(errs.KindTransportTerminated, "transport.RecvRaw", io.ErrUnexpectedEOF)
		}
		if err != nil {
			if m > 0 {
				read += m
				continue
			}
			return nil, classifyError(err, "transport.RecvRaw")
		}
		read += m
	}
	return buf, nil
}

// SendFramed writes an H-byte big-endian length prefix followed by
// payload. Rejects payloads whose length exceeds 2^(8H)-1 before sending
// anything.
func (t *Transport) SendFramed(payload []byte) error {
	if uint64(len(payload)) > t.maxPayload {
		return errs.New(errs.KindConfiguration, "transport.SendFramed", nil)
	}

	header := make([]byte, t.headerSize)
	putUintBE(header, uint64(len(payload)))

	if err := t.SendRaw(header); err != nil {
		return err
	}
	return t.SendRaw(payload)
}

// RecvFramed reads an H-byte length prefix then that many payload bytes.
func (t *Transport) RecvFramed() ([]byte, error) {
	header, err := t.RecvRaw(t.headerSize)
	if err != nil {
		return nil, err
	}

	n := getUintBE(header)
	if n == 0 {
		return []byte{}, nil
	}
	return t.RecvRaw(int(n))
}

func classifyError(err error, op string) error {
	if err == io.EOF {
		return errs.New(errs.KindTransportTerminated, op, err)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return errs.New(errs.KindTransportTimeout, op, err)
	}
	return errs.New(errs.KindTransportTerminated, op, err)
}

func putUintBE(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.BigEndian.PutUint16(b, uint16(v))
	case 4:
		binary.BigEndian.PutUint32(b, uint32(v))
	case 8:
		binary.BigEndian.PutUint64(b, v)
	default:
		for i := len(b) - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
	}
}

func getUintBE(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
