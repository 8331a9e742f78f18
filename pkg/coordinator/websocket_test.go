package coordinator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialObserver serves one websocket connection wrapped in an observer with
// the given ping period and pong wait and returns the client side.
func dialObserver(t *testing.T, ping, wait time.Duration) (*websocket.Conn, <-chan *WebSocketObserver) {
	t.Helper()
	observers := make(chan *WebSocketObserver, 1)
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		observers <- newWebSocketObserver(conn, JSON, nil, ping, wait)
	}))
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, observers
}

func TestWebSocketObserverPingsPeer(t *testing.T) {
	conn, observers := dialObserver(t, 20*time.Millisecond, time.Second)
	obs := <-observers
	defer obs.Close()

	pings := make(chan struct{}, 8)
	conn.SetPingHandler(func(data string) error {
		select {
		case pings <- struct{}{}:
		default:
		}
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for range 3 {
		select {
		case <-pings:
		case <-time.After(time.Second):
			t.Fatal("no ping from observer")
		}
	}
	select {
	case <-obs.Done():
		t.Fatal("observer dropped a peer that answers pings")
	default:
	}
}

func TestWebSocketObserverDropsSilentPeer(t *testing.T) {
	_, observers := dialObserver(t, 20*time.Millisecond, 100*time.Millisecond)
	obs := <-observers
	defer obs.Close()

	select {
	case <-obs.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("observer kept a peer that never answers pings")
	}
}

func TestWebSocketObserverForwardsMessages(t *testing.T) {
	conn, observers := dialObserver(t, time.Minute, time.Minute)
	obs := <-observers
	defer obs.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("pause")))
	select {
	case msg := <-obs.Messages():
		assert.Equal(t, "pause", msg)
	case <-time.After(time.Second):
		t.Fatal("message not forwarded")
	}
}
