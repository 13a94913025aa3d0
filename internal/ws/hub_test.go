package ws_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cpsfl/scorecard/internal/snapshot"
	"github.com/cpsfl/scorecard/internal/view"
	wsHub "github.com/cpsfl/scorecard/internal/ws"
)

const testInterval = 20 * time.Millisecond

// fakeBuilder returns snapshots with increasing ids.
type fakeBuilder struct {
	builds atomic.Int32
}

func (f *fakeBuilder) Build(context.Context, snapshot.Options) *snapshot.Snapshot {
	n := f.builds.Add(1)
	return &snapshot.Snapshot{
		ID:      "snap-" + strconv.Itoa(int(n)),
		BuiltAt: time.Date(2024, 1, 23, 0, 0, 0, 0, time.UTC),
	}
}

// startHub starts a test HTTP server with the hub as its handler and runs the
// hub loop until the test ends.
func startHub(t *testing.T, b wsHub.Builder, interval time.Duration) (string, *wsHub.Hub) {
	t.Helper()

	hub := wsHub.New(b, interval)
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readMessage reads one envelope from conn with a short deadline.
func readMessage(t *testing.T, conn *websocket.Conn) wsHub.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var m wsHub.Message
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

// waitForClients polls until the hub reports n clients.
func waitForClients(t *testing.T, hub *wsHub.Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.Count(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_ConnectReceivesView(t *testing.T) {
	wsURL, _ := startHub(t, &fakeBuilder{}, 0)

	m := readMessage(t, dial(t, wsURL))
	if m.Event != "view" {
		t.Errorf("event = %q, want view", m.Event)
	}
	if m.Data.SnapshotID != "snap-1" {
		t.Errorf("snapshot id = %q, want snap-1", m.Data.SnapshotID)
	}
}

func TestHub_PublishBroadcasts(t *testing.T) {
	b := &fakeBuilder{}
	wsURL, hub := startHub(t, b, 0)

	c1 := dial(t, wsURL)
	c2 := dial(t, wsURL)
	readMessage(t, c1)
	readMessage(t, c2)
	waitForClients(t, hub, 2)

	hub.Publish(view.Model{SnapshotID: "refreshed"})
	for i, c := range []*websocket.Conn{c1, c2} {
		if got := readMessage(t, c).Data.SnapshotID; got != "refreshed" {
			t.Errorf("client %d: snapshot id = %q, want refreshed", i, got)
		}
	}

	// Late joiners get the published view without another build.
	before := b.builds.Load()
	if got := readMessage(t, dial(t, wsURL)).Data.SnapshotID; got != "refreshed" {
		t.Errorf("late client: snapshot id = %q, want refreshed", got)
	}
	if b.builds.Load() != before {
		t.Error("late client triggered a build")
	}
}

func TestHub_PeriodicPush(t *testing.T) {
	b := &fakeBuilder{}
	wsURL, _ := startHub(t, b, testInterval)

	conn := dial(t, wsURL)
	first := readMessage(t, conn).Data.SnapshotID
	second := readMessage(t, conn).Data.SnapshotID
	if first == second {
		t.Errorf("periodic push repeated snapshot %q", first)
	}
}

func TestHub_UnregistersOnClose(t *testing.T) {
	wsURL, hub := startHub(t, &fakeBuilder{}, 0)

	conn := dial(t, wsURL)
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownWhileConnecting(t *testing.T) {
	hub := wsHub.New(&fakeBuilder{}, 0)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	const clients = 20
	errs := make(chan error, clients)
	for i := range clients {
		go func() {
			conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()
			conn.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
			_, raw, err := conn.ReadMessage()
			if err == nil && !strings.Contains(string(raw), `"view"`) {
				err = errors.New("client " + strconv.Itoa(i) + ": unexpected first message " + string(raw))
			}
			errs <- err
		}()
		if i == clients/2 {
			cancel()
		}
	}

	// Every client still gets its first view, whether it registered before
	// or after the hub closed its clients.
	for range clients {
		if err := <-errs; err != nil {
			t.Error(err)
		}
	}
	<-done
}
