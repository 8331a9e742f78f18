package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/plushie/pkg/coordinator"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
	"github.com/matzehuels/plushie/pkg/plushie"
	"github.com/matzehuels/plushie/pkg/session"
	"github.com/matzehuels/plushie/pkg/storage"
)

func newTestServer(t *testing.T, cfg Config) (*httptest.Server, session.Store) {
	t.Helper()
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	ts := httptest.NewServer(New(cfg))
	t.Cleanup(ts.Close)
	return ts, cfg.Sessions
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads envelopes until one has the given key.
func readUntil(t *testing.T, conn *websocket.Conn, enc coordinator.Encoding, key string) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		doc, err := coordinator.DecodeEnvelope(data, enc)
		require.NoError(t, err)
		if doc["key"] == key {
			return doc
		}
	}
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestWebSocketSession(t *testing.T) {
	ts, sessions := newTestServer(t, Config{})
	conn := dial(t, wsURL(ts, "?pattern=mr(6)%206*sc"))

	ini := readUntil(t, conn, coordinator.JSON, coordinator.KeyInit)
	dat := ini["dat"].(map[string]any)
	nodes := dat["nodes"].(map[string]any)
	assert.Len(t, nodes["points"], 13)

	readUntil(t, conn, coordinator.JSON, coordinator.KeyUpdate)

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	var infos []session.Info
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	resp.Body.Close()
	require.Len(t, infos, 1)
	assert.Equal(t, "json", infos[0].Encoding)
	assert.NoError(t, errors.ValidateSessionID(infos[0].ID))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("getparams")))
	params := readUntil(t, conn, coordinator.JSON, coordinator.KeyParams)
	assert.Equal(t, "no-mercy", params["dat"].(map[string]any)["hook_leniency"])

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("jump")))
	status := readUntil(t, conn, coordinator.JSON, coordinator.KeyStatus)
	assert.Contains(t, status["dat"], "unknown command")

	conn.Close()
	assert.Eventually(t, func() bool {
		list, err := sessions.List(context.Background())
		return err == nil && len(list) == 0
	}, 5*time.Second, 20*time.Millisecond, "closed sessions are unregistered")
}

func TestWebSocketPatternCommand(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	conn := dial(t, wsURL(ts, ""))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("pattern mr(3) 3*sc")))
	status := readUntil(t, conn, coordinator.JSON, coordinator.KeyStatus)
	assert.Contains(t, status["dat"], "pattern accepted")

	ini := readUntil(t, conn, coordinator.JSON, coordinator.KeyInit)
	assert.Len(t, ini["dat"].(map[string]any)["edges"], 7)
}

func TestWebSocketMsgpack(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	conn := dial(t, wsURL(ts, "?encoding=msgpack&pattern=mr(4)"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	doc, err := coordinator.DecodeEnvelope(data, coordinator.Msgpack)
	require.NoError(t, err)
	assert.Equal(t, coordinator.KeyInit, doc["key"])
}

func TestWebSocketRejectsBadRequests(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	tests := []struct {
		name  string
		query string
		code  errors.Code
	}{
		{"encoding", "?encoding=xml", errors.ErrCodeInvalidFormat},
		{"pattern", "?pattern=sc", errors.ErrCodeInvalidPattern},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, tt.query), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}
}

func TestCompile(t *testing.T) {
	ts, _ := newTestServer(t, Config{})

	post := func(body string) *http.Response {
		t.Helper()
		resp, err := http.Post(ts.URL+"/compile", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post(`{"pattern": "mr(6) 6*sc"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sg graph.StitchGraph
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sg))
	assert.Equal(t, 13, sg.NodeCount())

	resp = post(`{"pattern": "mr(3) reverse 3*sc", "leniency": "skip-incorrect"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sg))
	assert.Equal(t, 7, sg.NodeCount())

	tests := []struct {
		name string
		body string
		code errors.Code
		msg  string
	}{
		{"hook error", `{"pattern": "mr(3) goto(4)"}`, errors.ErrCodeInvalidPattern, "label was never marked"},
		{"syntax error", `{"pattern": "mr("}`, errors.ErrCodeInvalidPattern, "cannot parse pattern"},
		{"empty", `{"pattern": ""}`, errors.ErrCodeInvalidPattern, "empty"},
		{"unknown field", `{"pattern": "mr(3)", "steps": 4}`, errors.ErrCodeInvalidInput, "invalid request body"},
		{"leniency", `{"pattern": "mr(3)", "leniency": "lenient"}`, errors.ErrCodeInvalidParams, "unknown leniency"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.Contains(t, body.Error, tt.msg)
		})
	}
}

func TestResults(t *testing.T) {
	store := storage.NewMemoryStore()
	g, err := hook.Compile(pattern.MustParse("mr(6) 6*sc"), hook.DefaultParams())
	require.NoError(t, err)
	res := graph.NewResult(graph.FromInitialGraph(g), plushie.FromGraph(g, plushie.DefaultParams()))
	id, err := store.Save(context.Background(), res)
	require.NoError(t, err)

	ts, _ := newTestServer(t, Config{Store: store})

	resp, err := http.Get(ts.URL + "/results/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got graph.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, id, got.ID)
	assert.Len(t, got.Points, 13)

	resp, err = http.Get(ts.URL + "/results?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []graph.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, 13, list[0].Nodes)

	tests := []struct {
		path   string
		status int
	}{
		{"/results/" + uuid.NewString(), http.StatusNotFound},
		{"/results/not-an-id", http.StatusBadRequest},
		{"/results?limit=zero", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := http.Get(ts.URL + tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.status, resp.StatusCode, tt.path)
		resp.Body.Close()
	}
}

func TestResultsWithoutStore(t *testing.T) {
	ts, _ := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/results/" + uuid.NewString())
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Equal(t, errors.ErrCodeUnsupported, decodeError(t, resp).Code)
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := New(Config{Addr: "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
