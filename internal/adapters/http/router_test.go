package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/lomeet/relay/internal/app"
	"github.com/lomeet/relay/internal/config"
	"github.com/lomeet/relay/internal/core"
)

func startTestServer(t *testing.T) (baseURL, wsURL string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mode:             "test",
		StaticPath:       t.TempDir(),
		ReadLimit:        1 << 20,
		PingPeriod:       time.Minute,
		Secret:           "test-secret",
		MaxTransferBytes: 1 << 20,
		TransferTTL:      time.Minute,
	}
	relay := &app.Relay{
		Conns:     app.NewRegistry(),
		Rooms:     core.NewRoomRegistry(),
		Transfers: core.NewChunkReassembler(nil),
		Calls:     core.NewCallSessionTracker(),
		Policy:    app.TransferPolicy{MaxTransferBytes: cfg.MaxTransferBytes},
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := SetupRouter(ctx, cfg, relay)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: r}
	go func() { _ = srv.Serve(ln) }()

	t.Cleanup(func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	})

	addr := ln.Addr().String()
	return "http://" + addr, "ws://" + addr + "/api/ws"
}

type wsClient struct {
	t    *testing.T
	conn *websocket.Conn
	id   string
}

func dial(t *testing.T, wsURL string) *wsClient {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	c := &wsClient{t: t, conn: conn}
	t.Cleanup(func() { _ = conn.Close() })

	welcome := c.read()
	if welcome["type"] != "welcome" {
		t.Fatalf("first event=%v, want welcome", welcome)
	}
	c.id, _ = welcome["id"].(string)
	if c.id == "" {
		t.Fatalf("welcome without id: %v", welcome)
	}
	return c
}

func (c *wsClient) send(v any) {
	c.t.Helper()
	if err := c.conn.WriteJSON(v); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *wsClient) read() map[string]any {
	c.t.Helper()
	if err := c.conn.SetReadDeadline(time.Now().Add(3 * time.Second)); err != nil {
		c.t.Fatalf("set deadline: %v", err)
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.t.Fatalf("read: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		c.t.Fatalf("decode %q: %v", data, err)
	}
	return m
}

func (c *wsClient) readType(typ string) map[string]any {
	c.t.Helper()
	e := c.read()
	if e["type"] != typ {
		c.t.Fatalf("event=%v, want type=%s", e, typ)
	}
	return e
}

func TestHealthz(t *testing.T) {
	baseURL, _ := startTestServer(t)

	resp, err := http.Get(baseURL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d, want %d", resp.StatusCode, http.StatusOK)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("body=%v, want ok=true", body)
	}
}

func roomCount(t *testing.T, baseURL string) int {
	t.Helper()
	resp, err := http.Get(baseURL + "/api/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	defer resp.Body.Close()
	var rooms []core.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	return len(rooms)
}

// TestEndToEndScenario drives the full happy path over a real WebSocket:
// create, join, chat, a two-fragment file transfer, call signaling, and
// disconnect cleanup.
func TestEndToEndScenario(t *testing.T) {
	baseURL, wsURL := startTestServer(t)

	a := dial(t, wsURL)
	a.send(map[string]any{"type": "create-room", "roomId": "abc-def-123"})
	created := a.readType("room-created")
	if created["roomId"] != "abc-def-123" {
		t.Fatalf("room-created=%v", created)
	}

	b := dial(t, wsURL)
	b.send(map[string]any{"type": "join-room", "roomId": "abc-def-123"})
	joined := a.readType("user-joined")
	if joined["id"] != b.id {
		t.Fatalf("user-joined=%v, want id=%s", joined, b.id)
	}

	a.send(map[string]any{"type": "send-message", "roomId": "abc-def-123", "message": "hi"})
	msg := b.readType("receive-message")
	if msg["message"] != "hi" || msg["from"] != a.id {
		t.Fatalf("receive-message=%v", msg)
	}

	// Two-fragment file: the sender waits for each ack before the next chunk.
	a.send(map[string]any{
		"type": "send-file-chunk", "roomId": "abc-def-123", "fileId": "f1",
		"name": "greeting.txt", "contentType": "text/plain",
		"chunk": []byte("hello "), "isLastChunk": false,
	})
	a.readType("chunk-ack")
	a.send(map[string]any{
		"type": "send-file-chunk", "roomId": "abc-def-123", "fileId": "f1",
		"chunk": []byte("world"), "isLastChunk": true,
	})
	a.readType("chunk-ack")

	file := b.readType("receive-file")
	if file["name"] != "greeting.txt" || file["contentType"] != "text/plain" {
		t.Fatalf("receive-file=%v", file)
	}
	var data []byte
	raw, _ := json.Marshal(file["data"])
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("data field: %v", err)
	}
	if !bytes.Equal(data, []byte("hello world")) {
		t.Fatalf("data=%q, want %q", data, "hello world")
	}

	// Call signaling round-trip, then an offer passthrough.
	a.send(map[string]any{"type": "initiate-call", "roomId": "abc-def-123", "to": b.id})
	ring := b.readType("receive-call")
	if ring["from"] != a.id {
		t.Fatalf("receive-call=%v", ring)
	}
	b.send(map[string]any{"type": "accept-call", "roomId": "abc-def-123"})
	accepted := a.readType("call-accepted")
	if accepted["from"] != b.id {
		t.Fatalf("call-accepted=%v", accepted)
	}
	a.send(map[string]any{"type": "offer", "roomId": "abc-def-123", "sdp": "v=0 fake"})
	offer := b.readType("offer")
	if offer["sdp"] != "v=0 fake" || offer["from"] != a.id {
		t.Fatalf("offer=%v", offer)
	}

	// A disconnects: B learns about it and the call is forced idle.
	_ = a.conn.Close()
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		e := b.read()
		typ, _ := e["type"].(string)
		seen[typ] = true
	}
	if !seen["user-left"] || !seen["end-call"] {
		t.Fatalf("after disconnect got %v, want user-left and end-call", seen)
	}

	if n := roomCount(t, baseURL); n != 1 {
		t.Fatalf("rooms=%d, want 1 while b remains", n)
	}

	// B leaving empties and deletes the room.
	_ = b.conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if roomCount(t, baseURL) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("room not deleted after last member left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func dialPair(t *testing.T, wsURL, roomID string) (a, b *wsClient) {
	t.Helper()
	a = dial(t, wsURL)
	a.send(map[string]any{"type": "create-room", "roomId": roomID})
	a.readType("room-created")
	b = dial(t, wsURL)
	b.send(map[string]any{"type": "join-room", "roomId": roomID})
	a.readType("user-joined")
	return a, b
}

// A candidate with index 0 and no sdpMid must arrive with the index still
// present, and extra handshake fields must survive the relay untouched.
func TestCandidateForwardedWithIndexZero(t *testing.T) {
	_, wsURL := startTestServer(t)
	a, b := dialPair(t, wsURL, "room")

	a.send(map[string]any{
		"type":             "ice-candidate",
		"roomId":           "room",
		"candidate":        "candidate:1 1 udp 2130706431 192.0.2.1 54321 typ host",
		"sdpMLineIndex":    0,
		"usernameFragment": "ufrag01",
	})

	cand := b.readType("ice-candidate")
	if cand["from"] != a.id {
		t.Fatalf("candidate=%v, want from=%s", cand, a.id)
	}
	idx, ok := cand["sdpMLineIndex"].(float64)
	if !ok || idx != 0 {
		t.Fatalf("candidate=%v, want sdpMLineIndex 0 present", cand)
	}
	if cand["usernameFragment"] != "ufrag01" {
		t.Fatalf("candidate=%v, want usernameFragment preserved", cand)
	}
	if v, present := cand["sdpMid"]; present && v != nil {
		t.Fatalf("candidate=%v, sdpMid invented for a mid-less candidate", cand)
	}
}

func TestEmptyMessageRelayedOverWire(t *testing.T) {
	_, wsURL := startTestServer(t)
	a, b := dialPair(t, wsURL, "room")

	a.send(map[string]any{"type": "send-message", "roomId": "room", "message": ""})
	msg := b.readType("receive-message")
	if msg["message"] != "" || msg["from"] != a.id {
		t.Fatalf("receive-message=%v, want empty text from %s", msg, a.id)
	}
}

func TestJoinMissingRoomOverWire(t *testing.T) {
	_, wsURL := startTestServer(t)

	c := dial(t, wsURL)
	c.send(map[string]any{"type": "join-room", "roomId": "nope"})
	e := c.readType("error")
	if e["error"] != "Room not found" {
		t.Fatalf("error=%v", e)
	}
}
