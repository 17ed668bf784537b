package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Meet/internal/app"
	"github.com/dkeye/Meet/internal/app/orch"
	"github.com/dkeye/Meet/internal/config"
	"github.com/dkeye/Meet/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Members []string        `json:"members"`
	Data    json.RawMessage `json:"data"`
	Sender  string          `json:"sender"`
	Origin  string          `json:"origin"`
	From    string          `json:"from"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
	Room    string          `json:"room"`
	State   string          `json:"state"`
}

func newTestServer(t *testing.T) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	return newTestServerWithBuffer(t, 64)
}

func newTestServerWithBuffer(t *testing.T, sendBuffer int) (*httptest.Server, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:           "test",
		StaticPath:     t.TempDir(),
		ReadLimit:      64 * 1024,
		PingPeriod:     time.Minute,
		Secret:         "test-secret",
		AllowedOrigins: []string{"*"},
		SendBuffer:     sendBuffer,
	}
	o := orch.New(app.NewRegistry(), core.NewRoomManager(0), app.DropPolicy{})
	o.ReplayLimit = cfg.ReplayBudget()
	ctx, cancel := context.WithCancel(context.Background())
	go o.Run(ctx)

	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		srv.Close()
		o.Registry.CancelAll()
		cancel()
		<-o.Done()
	})
	return srv, o
}

type client struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, srv *httptest.Server) *client {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, resp, err := dialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := &client{t: t, conn: conn}
	welcome := c.read()
	require.Equal(t, "welcome", welcome.Type)
	require.NotEmpty(t, welcome.ID)
	c.id = welcome.ID
	return c
}

func (c *client) send(v any) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

func (c *client) read() event {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var ev event
	require.NoError(c.t, c.conn.ReadJSON(&ev))
	return ev
}

func TestSignalFlow(t *testing.T) {
	srv, o := newTestServer(t)
	a := dial(t, srv)
	b := dial(t, srv)
	require.NotEqual(t, a.id, b.id)

	a.send(map[string]any{"type": "join-call", "room": "https://meet.example/abc123"})
	ev := a.read()
	assert.Equal(t, "member-joined", ev.Type)
	assert.Equal(t, a.id, ev.ID)
	assert.Equal(t, []string{a.id}, ev.Members)

	b.send(map[string]any{"type": "join-call", "room": "https://meet.example/abc123"})
	for _, c := range []*client{a, b} {
		ev := c.read()
		assert.Equal(t, "member-joined", ev.Type)
		assert.Equal(t, b.id, ev.ID)
		assert.Equal(t, []string{a.id, b.id}, ev.Members)
	}

	b.send(map[string]any{"type": "chat-message", "data": "hi", "sender": "Bob"})
	for _, c := range []*client{a, b} {
		ev := c.read()
		assert.Equal(t, "chat-message", ev.Type)
		assert.JSONEq(t, `"hi"`, string(ev.Data))
		assert.Equal(t, "Bob", ev.Sender)
		assert.Equal(t, b.id, ev.Origin)
	}

	a.send(map[string]any{"type": "signal", "to": b.id, "payload": map[string]any{"sdp": "v=0", "type": "offer"}})
	ev = b.read()
	assert.Equal(t, "signal", ev.Type)
	assert.Equal(t, a.id, ev.From)
	assert.JSONEq(t, `{"sdp":"v=0","type":"offer"}`, string(ev.Payload))

	require.NoError(t, a.conn.Close())
	ev = b.read()
	assert.Equal(t, "member-left", ev.Type)
	assert.Equal(t, a.id, ev.ID)

	view, found, err := o.Room("https://meet.example/abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []core.SessionID{core.SessionID(b.id)}, view.Members)

	require.NoError(t, b.conn.Close())
	require.Eventually(t, func() bool {
		rooms, err := o.ListRooms()
		return err == nil && len(rooms) == 0
	}, 3*time.Second, 20*time.Millisecond)
}

func TestHistoryReplayOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	a := dial(t, srv)
	a.send(map[string]any{"type": "join-call", "room": "r"})
	a.read()
	a.send(map[string]any{"type": "chat-message", "data": "first", "sender": "Alice"})
	a.read()
	a.send(map[string]any{"type": "chat-message", "data": "second", "sender": "Alice"})
	a.read()

	b := dial(t, srv)
	b.send(map[string]any{"type": "join-call", "room": "r"})
	assert.Equal(t, "member-joined", b.read().Type)
	for _, want := range []string{`"first"`, `"second"`} {
		ev := b.read()
		assert.Equal(t, "chat-message", ev.Type)
		assert.JSONEq(t, want, string(ev.Data))
		assert.Equal(t, a.id, ev.Origin)
	}
}

func TestUnboundedHistoryReplayFitsBuffer(t *testing.T) {
	srv, _ := newTestServerWithBuffer(t, 8)
	a := dial(t, srv)
	a.send(map[string]any{"type": "join-call", "room": "r"})
	a.read()
	for i := 0; i < 50; i++ {
		a.send(map[string]any{"type": "chat-message", "data": i, "sender": "Alice"})
		a.read()
	}

	b := dial(t, srv)
	b.send(map[string]any{"type": "join-call", "room": "r"})

	assert.Equal(t, "member-joined", b.read().Type)
	for i := 44; i < 50; i++ {
		ev := b.read()
		assert.Equal(t, "chat-message", ev.Type)
		assert.JSONEq(t, strconv.Itoa(i), string(ev.Data))
	}

	// The replay left the session usable.
	b.send(map[string]any{"type": "ping"})
	assert.Equal(t, "pong", b.read().Type)
}

func TestControlMessages(t *testing.T) {
	srv, _ := newTestServer(t)
	a := dial(t, srv)

	a.send(map[string]any{"type": "ping"})
	assert.Equal(t, "pong", a.read().Type)

	a.send(map[string]any{"type": "whoami"})
	ev := a.read()
	assert.Equal(t, "whoami", ev.Type)
	assert.Equal(t, a.id, ev.ID)
	assert.Equal(t, "connected", ev.State)

	a.send(map[string]any{"type": "dance"})
	ev = a.read()
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "unknown_type", ev.Error)

	require.NoError(t, a.conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	ev = a.read()
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "bad_payload", ev.Error)

	a.send(map[string]any{"type": "signal", "payload": "x"})
	ev = a.read()
	assert.Equal(t, "bad_payload", ev.Error)

	a.send(map[string]any{"type": "join-call", "room": "r"})
	assert.Equal(t, "member-joined", a.read().Type)
	a.send(map[string]any{"type": "join-call", "room": "other"})
	ev = a.read()
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "already_in_room", ev.Error)
}

func TestRoomsAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/rooms/nowhere")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	a := dial(t, srv)
	a.send(map[string]any{"type": "join-call", "room": "team/standup"})
	a.read()

	resp, err = http.Get(srv.URL + "/api/rooms")
	require.NoError(t, err)
	var list struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	_ = resp.Body.Close()
	assert.Equal(t, []core.RoomInfo{{Name: "team/standup", MemberCount: 1}}, list.Rooms)

	resp, err = http.Get(srv.URL + "/api/rooms/team%2Fstandup")
	require.NoError(t, err)
	var view orch.RoomView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []core.SessionID{core.SessionID(a.id)}, view.Members)
}

func TestClientTokenCookie(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "MeetSessions" {
			found = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, found, "session cookie set")
}
