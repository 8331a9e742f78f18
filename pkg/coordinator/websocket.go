package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
)

var errObserverGone = errors.New("observer gone")

// WebSocketObserver adapts a websocket connection to an Observer. Text and
// binary frames from the peer become control messages; envelopes are written
// as text frames (JSON) or binary frames (msgpack). The peer is pinged
// periodically and dropped when it stops answering.
type WebSocketObserver struct {
	conn     *websocket.Conn
	encoding Encoding
	logger   *log.Logger
	ping     time.Duration
	pongWait time.Duration

	writeMu  sync.Mutex
	messages chan string
	done     chan struct{}
	once     sync.Once
}

// NewWebSocketObserver starts reading control messages from conn. The
// observer is done when the peer disconnects or Close is called.
func NewWebSocketObserver(conn *websocket.Conn, enc Encoding, logger *log.Logger) *WebSocketObserver {
	return newWebSocketObserver(conn, enc, logger, pingPeriod, pongWait)
}

func newWebSocketObserver(conn *websocket.Conn, enc Encoding, logger *log.Logger, ping, wait time.Duration) *WebSocketObserver {
	if logger == nil {
		logger = discardLogger()
	}
	o := &WebSocketObserver{
		conn:     conn,
		encoding: enc,
		logger:   logger,
		ping:     ping,
		pongWait: wait,
		messages: make(chan string),
		done:     make(chan struct{}),
	}
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(o.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(o.pongWait))
	})
	go o.readLoop()
	go o.pingLoop()
	return o
}

// pingLoop pings the peer until the observer is done. A failed ping ends the
// observer.
func (o *WebSocketObserver) pingLoop() {
	ticker := time.NewTicker(o.ping)
	defer ticker.Stop()
	for {
		select {
		case <-o.done:
			return
		case <-ticker.C:
			o.writeMu.Lock()
			err := o.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			o.writeMu.Unlock()
			if err != nil {
				o.logger.Debug("websocket ping failed", "error", err)
				o.shutdown()
				return
			}
		}
	}
}

func (o *WebSocketObserver) readLoop() {
	defer o.shutdown()
	for {
		kind, data, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				o.logger.Warn("websocket read failed", "error", err)
			}
			return
		}
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		select {
		case o.messages <- string(data):
		case <-o.done:
			return
		}
	}
}

// Send implements Observer.
func (o *WebSocketObserver) Send(ctx context.Context, env Envelope) error {
	select {
	case <-o.done:
		return errObserverGone
	default:
	}

	data, err := env.Encode(o.encoding)
	if err != nil {
		return err
	}
	kind := websocket.TextMessage
	if o.encoding == Msgpack {
		kind = websocket.BinaryMessage
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	o.writeMu.Lock()
	defer o.writeMu.Unlock()
	if err := o.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return o.conn.WriteMessage(kind, data)
}

// Messages implements Observer.
func (o *WebSocketObserver) Messages() <-chan string { return o.messages }

// Done implements Observer.
func (o *WebSocketObserver) Done() <-chan struct{} { return o.done }

// Close sends a close frame and releases the connection.
func (o *WebSocketObserver) Close() error {
	o.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = o.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	o.writeMu.Unlock()
	o.shutdown()
	return o.conn.Close()
}

func (o *WebSocketObserver) shutdown() {
	o.once.Do(func() { close(o.done) })
}

var _ Observer = (*WebSocketObserver)(nil)
