package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
)

func testLink(id string) *domain.Link {
	return &domain.Link{ID: id, Title: id, URL: "https://" + id + ".example.com", Category: "dev"}
}

func newTestHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(index.NewMirror(), 16, logger.New("error", false))
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return &msg
}

func writeMessage(t *testing.T, conn *websocket.Conn, msg *Message) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestConnectAck(t *testing.T) {
	_, url := newTestHub(t)
	conn := dial(t, url)

	ack := readMessage(t, conn)
	if ack.Type != TypeConnect {
		t.Fatalf("first message type = %q, want connect", ack.Type)
	}
	if ack.Payload == nil || ack.Payload.ClientID == "" {
		t.Error("connect ack should carry a client id")
	}
	if ack.Timestamp == 0 {
		t.Error("connect ack should carry a timestamp")
	}
}

func TestSyncUpToDate(t *testing.T) {
	hub, url := newTestHub(t)
	version := hub.BroadcastUpdate(context.Background(), []*domain.Link{testLink("a")}, false)

	conn := dial(t, url)
	readMessage(t, conn) // connect ack

	req := newMessage(TypeSync)
	req.Version = version
	writeMessage(t, conn, req)

	resp := readMessage(t, conn)
	if resp.Type != TypeSync {
		t.Fatalf("response type = %q, want sync", resp.Type)
	}
	if resp.Payload == nil || resp.Payload.NeedsUpdate {
		t.Errorf("sync at current version should report needsUpdate=false, got %+v", resp.Payload)
	}
	if resp.Version != version {
		t.Errorf("sync version = %q, want %q", resp.Version, version)
	}
}

func TestSyncFullResyncForUnknownVersion(t *testing.T) {
	hub, url := newTestHub(t)
	version := hub.BroadcastUpdate(context.Background(), []*domain.Link{testLink("a"), testLink("b")}, false)

	conn := dial(t, url)
	readMessage(t, conn)

	req := newMessage(TypeSync)
	req.Version = "long-gone-version"
	writeMessage(t, conn, req)

	resp := readMessage(t, conn)
	if resp.Payload == nil || !resp.Payload.NeedsUpdate {
		t.Fatalf("stale sync should need an update, got %+v", resp.Payload)
	}
	if resp.Payload.IsIncremental {
		t.Error("unknown version should trigger a full resync, not incremental")
	}
	if len(resp.Payload.FullData) != 2 {
		t.Errorf("full resync carried %d items, want 2", len(resp.Payload.FullData))
	}
	if resp.Version != version {
		t.Errorf("sync version = %q, want current %q", resp.Version, version)
	}
}

func TestSyncIncrementalForKnownVersion(t *testing.T) {
	hub, url := newTestHub(t)
	ctx := context.Background()

	v1 := hub.BroadcastUpdate(ctx, []*domain.Link{testLink("a")}, false)
	changed := testLink("b")
	v2 := hub.BroadcastUpdate(ctx, []*domain.Link{changed}, true)

	conn := dial(t, url)
	readMessage(t, conn)

	req := newMessage(TypeSync)
	req.Version = v1
	writeMessage(t, conn, req)

	resp := readMessage(t, conn)
	if resp.Payload == nil || !resp.Payload.NeedsUpdate {
		t.Fatalf("stale sync should need an update, got %+v", resp.Payload)
	}
	if !resp.Payload.IsIncremental {
		t.Fatal("known version should get an incremental changeset")
	}
	if len(resp.Payload.Items) != 1 || resp.Payload.Items[0].ID != changed.ID {
		t.Errorf("incremental items = %+v, want just %q", resp.Payload.Items, changed.ID)
	}
	if resp.Version != v2 {
		t.Errorf("sync version = %q, want current %q", resp.Version, v2)
	}
}

func TestUnknownMessageTypeAnswersError(t *testing.T) {
	hub, url := newTestHub(t)
	version := hub.BroadcastUpdate(context.Background(), []*domain.Link{testLink("a")}, false)

	conn := dial(t, url)
	readMessage(t, conn)

	writeMessage(t, conn, &Message{Type: "bogus", Timestamp: time.Now().UnixMilli()})

	resp := readMessage(t, conn)
	if resp.Type != TypeError {
		t.Fatalf("response type = %q, want error", resp.Type)
	}
	if resp.Payload == nil || resp.Payload.Message == "" {
		t.Error("error message should explain the rejection")
	}

	// The connection must survive: a sync afterwards still works.
	req := newMessage(TypeSync)
	req.Version = version
	writeMessage(t, conn, req)
	if resp := readMessage(t, conn); resp.Type != TypeSync {
		t.Errorf("post-error sync type = %q, want sync", resp.Type)
	}
}

func TestMalformedMessageAnswersError(t *testing.T) {
	_, url := newTestHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, []byte("{broken")); err != nil {
		t.Fatal(err)
	}

	resp := readMessage(t, conn)
	if resp.Type != TypeError {
		t.Errorf("response type = %q, want error", resp.Type)
	}
}

func TestBroadcastReachesConnectedClients(t *testing.T) {
	hub, url := newTestHub(t)

	conn := dial(t, url)
	readMessage(t, conn)

	changed := testLink("a")
	version := hub.BroadcastUpdate(context.Background(), []*domain.Link{changed}, true)

	msg := readMessage(t, conn)
	if msg.Type != TypeUpdate {
		t.Fatalf("broadcast type = %q, want update", msg.Type)
	}
	if msg.Version != version {
		t.Errorf("broadcast version = %q, want %q", msg.Version, version)
	}
	if msg.Payload == nil || len(msg.Payload.Items) != 1 || msg.Payload.Items[0].ID != changed.ID {
		t.Errorf("broadcast payload = %+v, want item %q", msg.Payload, changed.ID)
	}
	if !msg.Payload.IsIncremental {
		t.Error("broadcast should be flagged incremental")
	}
}

func TestBroadcastRemoveSendsFullCollection(t *testing.T) {
	hub, url := newTestHub(t)
	ctx := context.Background()

	hub.BroadcastUpdate(ctx, []*domain.Link{testLink("a"), testLink("b")}, false)

	conn := dial(t, url)
	readMessage(t, conn)

	hub.BroadcastRemove(ctx, "a")

	msg := readMessage(t, conn)
	if msg.Type != TypeUpdate {
		t.Fatalf("broadcast type = %q, want update", msg.Type)
	}
	if msg.Payload == nil || msg.Payload.IsIncremental {
		t.Fatal("delete broadcast must be non-incremental")
	}
	if len(msg.Payload.FullData) != 1 || msg.Payload.FullData[0].ID != "b" {
		t.Errorf("full data after remove = %+v, want only item b", msg.Payload.FullData)
	}
}

func TestHistoryGapForcesFullResync(t *testing.T) {
	hub, url := newTestHub(t)
	ctx := context.Background()

	v1 := hub.BroadcastUpdate(ctx, []*domain.Link{testLink("a")}, false)
	hub.BroadcastUpdate(ctx, []*domain.Link{testLink("b")}, true)
	// A delete in the gap cannot be expressed as a merge.
	hub.BroadcastRemove(ctx, "a")

	conn := dial(t, url)
	readMessage(t, conn)

	req := newMessage(TypeSync)
	req.Version = v1
	writeMessage(t, conn, req)

	resp := readMessage(t, conn)
	if resp.Payload == nil || !resp.Payload.NeedsUpdate {
		t.Fatalf("stale sync should need an update, got %+v", resp.Payload)
	}
	if resp.Payload.IsIncremental {
		t.Error("a delete in the history gap must force a full resync")
	}
}
