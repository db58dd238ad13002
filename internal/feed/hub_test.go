package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"reviewme/pkg/models"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func sampleEvent(typ string) ReviewEvent {
	r := &models.Review{ID: "r-1", UserID: "u-1", Title: "Dune", Author: "Herbert", Rating: 5}
	return NewReviewEvent(typ, r, time.Now())
}

func TestHubTCPSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(8)
	go hub.Run(ctx)

	srv := NewServer("127.0.0.1:0", hub)
	if err := srv.Listen(); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go func() { _ = srv.Serve() }()
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.ListenAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	rd := bufio.NewReader(conn)

	welcome, err := rd.ReadString('\n')
	if err != nil || !strings.Contains(welcome, `"welcome"`) {
		t.Fatalf("welcome = %q, %v", welcome, err)
	}
	waitFor(t, "tcp registration", func() bool { return hub.Stats().TCPClients == 1 })

	hub.Publish(sampleEvent(TypeReviewCreated))

	line, err := rd.ReadString('\n')
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev ReviewEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if ev.Type != TypeReviewCreated || ev.ReviewID != "r-1" || ev.Title != "Dune" {
		t.Fatalf("unexpected event %+v", ev)
	}

	_ = conn.Close()
	waitFor(t, "tcp removal", func() bool { return hub.Stats().TCPClients == 0 })
}

func TestHubWebSocketSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(8)
	go hub.Run(ctx)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/feed", WSHandler(hub, NewUpgrader(nil)))
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))

	if _, msg, err := ws.ReadMessage(); err != nil || !strings.Contains(string(msg), "welcome") {
		t.Fatalf("welcome = %q, %v", msg, err)
	}
	waitFor(t, "ws registration", func() bool { return hub.Stats().WSClients == 1 })

	hub.Publish(sampleEvent(TypeReviewDeleted))

	_, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev ReviewEvent
	if err := json.Unmarshal(msg, &ev); err != nil || ev.Type != TypeReviewDeleted {
		t.Fatalf("event = %s, %v", msg, err)
	}
}

func TestUpgraderRejectsForeignOrigin(t *testing.T) {
	hub := NewHub(1)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/feed", WSHandler(hub, NewUpgrader([]string{"http://localhost:5173"})))
	srv := httptest.NewServer(r)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/feed"
	hdr := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, hdr)
	if err == nil {
		t.Fatal("foreign origin was upgraded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %+v, want 403", resp)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub(1)
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			hub.Publish(sampleEvent(TypeReviewUpdated))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no consumer")
	}
}

type recorder struct {
	events chan ReviewEvent
}

func (r *recorder) Publish(ev ReviewEvent) { r.events <- ev }

func TestMultiPublishesToAll(t *testing.T) {
	a := &recorder{events: make(chan ReviewEvent, 1)}
	b := &recorder{events: make(chan ReviewEvent, 1)}
	Multi{a, nil, b, Discard{}}.Publish(sampleEvent(TypeReviewCreated))

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("fan-out missed a sink: a=%d b=%d", len(a.events), len(b.events))
	}
}
