package http

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skylt/internal/application/player"
)

type fakeSupervisor struct {
	status player.Status
	queue  *player.Queue
}

func (f *fakeSupervisor) Status() player.Status { return f.status }
func (f *fakeSupervisor) Queue() *player.Queue  { return f.queue }

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestHandler(user, pass string) (*Handler, *fakeSupervisor) {
	sup := &fakeSupervisor{
		status: player.Status{State: "running", Kind: "images", Files: []string{"a.jpg"}, Generation: 3},
		queue:  player.NewQueue(),
	}
	logs := NewLogBuffer(100)
	hub := NewHub(testLogger())
	return NewHandler(sup, hub, logs, user, pass), sup
}

func TestStatusEndpoint(t *testing.T) {
	handler, _ := newTestHandler("", "")
	router := NewRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var status player.Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.State != "running" || status.Kind != "images" || status.Generation != 3 {
		t.Fatalf("status = %+v", status)
	}
}

func TestRescanRequiresCredentialsWhenConfigured(t *testing.T) {
	handler, sup := newTestHandler("admin", "secret")
	router := NewRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", rec.Code)
	}
	if sup.queue.Len() != 0 {
		t.Fatalf("unauthenticated request queued a command")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/rescan", nil)
	req.SetBasicAuth("admin", "secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("authenticated status = %d, want 202", rec.Code)
	}
	if got := sup.queue.Pop(); got != player.CmdRescan {
		t.Fatalf("queued command = %s, want rescan", got)
	}
}

func TestControlEndpointsOpenWithoutConfiguredCredentials(t *testing.T) {
	handler, sup := newTestHandler("", "")
	router := NewRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/quit", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if got := sup.queue.Pop(); got != player.CmdQuit {
		t.Fatalf("queued command = %s, want quit", got)
	}
}

func TestLogEndpointServesBufferedLines(t *testing.T) {
	sup := &fakeSupervisor{queue: player.NewQueue()}
	logs := NewLogBuffer(100)
	logger := log.New(logs, "", 0)
	logger.Printf("player 123 started")
	logger.Printf("player 123 exited with return code 0")

	handler := NewHandler(sup, NewHub(testLogger()), logs, "", "")
	router := NewRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/log", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string][]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	lines := body["lines"]
	if len(lines) != 2 || lines[0] != "player 123 started" {
		t.Fatalf("lines = %v", lines)
	}
}

func TestHubBroadcastsReload(t *testing.T) {
	hub := NewHub(testLogger())
	events, cancel := hub.Subscribe()
	defer cancel()

	hub.TriggerReload()

	select {
	case event := <-events:
		if event.Event != "reload" {
			t.Fatalf("event = %+v, want reload", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}
}

func TestHubSkipsSlowSubscribers(t *testing.T) {
	hub := NewHub(testLogger())
	_, cancel := hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.TriggerReload()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast blocked on a slow subscriber")
	}
}

func TestLogBufferKeepsMostRecentLines(t *testing.T) {
	buf := NewLogBuffer(3)
	logger := log.New(buf, "", 0)
	for _, line := range []string{"one", "two", "three", "four", "five"} {
		logger.Printf("%s", line)
	}

	lines := buf.Lines()
	want := []string{"three", "four", "five"}
	if len(lines) != 3 {
		t.Fatalf("lines = %v", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines = %v, want %v", lines, want)
		}
	}
}
