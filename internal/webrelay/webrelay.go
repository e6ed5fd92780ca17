// Package webrelay bridges a DecoderSession to a browser viewer over
// gorilla/websocket: upgrade the incoming request, dial the streaming
// host, and pump frames from one connection to the other so a
// DecoderSession can be driven from a browser alongside the raw-TCP
// viewer.
package webrelay

import (
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kulaginds/screenrelay/internal/capture"
	"github.com/kulaginds/screenrelay/internal/frame"
	"github.com/kulaginds/screenrelay/internal/session"
	"github.com/kulaginds/screenrelay/internal/transport"
)

// Params mirrors session.DecoderParams: the compressor algorithm and
// quantiser kind are agreed out of band with the host, not negotiated
// over the websocket or the downstream TCP handshake.
type Params = session.DecoderParams

const (
	readBufferSize  = 8192
	writeBufferSize = 8192 * 2
)

// wireFrameHeader is prepended to every binary websocket message so the
// browser can reconstruct geometry without a side channel: height(u16),
// width(u16), channels(u8), cursor_x(u16), cursor_y(u16).
const wireFrameHeaderLen = 2 + 2 + 1 + 2 + 2

// wsRenderer adapts capture.Renderer to a websocket connection, encoding
// each delivered frame as one binary message.
type wsRenderer struct {
	conn *websocket.Conn
}

func (r wsRenderer) Deliver(f frame.Frame, c capture.Cursor) error {
	msg := make([]byte, wireFrameHeaderLen+len(f.Pix))
	binary.BigEndian.PutUint16(msg[0:2], uint16(f.Height))
	binary.BigEndian.PutUint16(msg[2:4], uint16(f.Width))
	msg[4] = byte(f.Channels)
	binary.BigEndian.PutUint16(msg[5:7], uint16(c.X))
	binary.BigEndian.PutUint16(msg[7:9], uint16(c.Y))
	copy(msg[wireFrameHeaderLen:], f.Pix)
	return r.conn.WriteMessage(websocket.BinaryMessage, msg)
}

// Handler upgrades incoming HTTP requests to a websocket and bridges them
// to a freshly dialed host transport, one DecoderSession per connection.
// hostAddr is the TCP address of the screen-streaming host. The viewer's
// requested K and scale percent are read from each request's "k" and
// "scale" query parameters. params carries the algorithm and quantiser
// kind the host was started with.
func Handler(hostAddr string, headerSize int, params Params) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  readBufferSize,
		WriteBufferSize: writeBufferSize,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		k, err := strconv.Atoi(r.URL.Query().Get("k"))
		if err != nil || k < 1 || k > 256 {
			http.Error(w, "invalid or missing k", http.StatusBadRequest)
			return
		}

		scalePercent, err := strconv.Atoi(r.URL.Query().Get("scale"))
		if err != nil || scalePercent < 1 || scalePercent > 100 {
			http.Error(w, "invalid or missing scale", http.StatusBadRequest)
			return
		}

		wsConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println(fmt.Errorf("webrelay: upgrade: %w", err))
			return
		}
		defer wsConn.Close()

		conn, err := net.DialTimeout("tcp", hostAddr, 5*time.Second)
		if err != nil {
			log.Println(fmt.Errorf("webrelay: dial host: %w", err))
			return
		}
		defer conn.Close()

		t, err := transport.New(conn, headerSize)
		if err != nil {
			log.Println(fmt.Errorf("webrelay: build transport: %w", err))
			return
		}

		dec, err := session.NewDecoder(t, k, scalePercent, wsRenderer{conn: wsConn}, params)
		if err != nil {
			log.Println(fmt.Errorf("webrelay: handshake: %w", err))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go watchClientClose(ctx, wsConn, dec)

		if err := dec.Run(33 * time.Millisecond); err != nil {
			log.Println(fmt.Errorf("webrelay: session ended: %w", err))
		}
	}
}

// watchClientClose shuts the DecoderSession down as soon as the browser
// disconnects.
func watchClientClose(ctx context.Context, wsConn *websocket.Conn, dec *session.DecoderSession) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if _, _, err := wsConn.ReadMessage(); err != nil {
			dec.Shutdown()
			return
		}
	}
}
