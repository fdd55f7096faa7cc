package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/index"
	"github.com/linklab/linkdex/internal/logger"
)

const sendTimeout = 5 * time.Second

// broadcast records one BroadcastUpdate: the version token it produced and
// the items that changed in it. The hub keeps a bounded history of these so a
// slightly-behind client can catch up incrementally instead of re-downloading
// the whole collection.
type broadcast struct {
	version string
	items   []*domain.Link
}

// Hub is the connection-keyed broadcaster of the live-update channel. It owns
// no collection state of its own beyond the injected mirror; the mirror is
// single-writer through the hub's broadcast path and the scheduler's refresh.
type Hub struct {
	mirror       *index.Mirror
	logger       logger.Logger
	historyLimit int

	mu      sync.Mutex
	conns   map[string]*websocket.Conn
	history []broadcast // oldest first, len <= historyLimit
}

// NewHub creates a broadcaster over the given collection mirror.
func NewHub(mirror *index.Mirror, historyLimit int, log logger.Logger) *Hub {
	if historyLimit < 1 {
		historyLimit = 16
	}
	return &Hub{
		mirror:       mirror,
		logger:       log,
		historyLimit: historyLimit,
		conns:        make(map[string]*websocket.Conn),
	}
}

// ConnCount returns the number of connected clients.
func (h *Hub) ConnCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Handler upgrades the request to a WebSocket connection and serves it until
// the client goes away. Each connection gets an id and a connect ack carrying
// that id; afterwards incoming messages are dispatched by type.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			h.logger.Warn("websocket accept failed", logger.Error(err))
			return
		}

		id := uuid.NewString()
		h.register(id, conn)
		defer h.unregister(id)

		ctx := r.Context()

		ack := newMessage(TypeConnect)
		ack.Version = h.mirror.Version()
		ack.Payload = &Payload{ClientID: id}
		if err := h.send(ctx, conn, ack); err != nil {
			h.logger.Warn("failed to send connect ack",
				logger.String("conn_id", id),
				logger.Error(err))
			return
		}

		h.logger.Info("client connected",
			logger.String("conn_id", id),
			logger.Int("clients", h.ConnCount()))

		h.readLoop(ctx, id, conn)
	}
}

// readLoop dispatches incoming messages until the connection closes.
// Malformed messages are answered with an error message, never by tearing
// down the connection.
func (h *Hub) readLoop(ctx context.Context, id string, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Debug("client disconnected",
				logger.String("conn_id", id),
				logger.Error(err))
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn("malformed message from client",
				logger.String("conn_id", id),
				logger.Error(err))
			h.sendError(ctx, conn, "malformed message")
			continue
		}

		switch msg.Type {
		case TypeSync:
			h.handleSync(ctx, id, conn, &msg)
		default:
			h.logger.Warn("unknown message type from client",
				logger.String("conn_id", id),
				logger.String("type", string(msg.Type)))
			h.sendError(ctx, conn, "unknown message type: "+string(msg.Type))
		}
	}
}

// handleSync answers a version-aware catch-up request. Equal versions mean
// the client is current; a stale version gets either the incremental
// changesets recorded since it, or the full collection when the history no
// longer reaches back that far.
func (h *Hub) handleSync(ctx context.Context, id string, conn *websocket.Conn, req *Message) {
	current := h.mirror.Version()

	resp := newMessage(TypeSync)
	resp.Version = current

	if req.Version == current {
		resp.Payload = &Payload{NeedsUpdate: false}
		if err := h.send(ctx, conn, resp); err != nil {
			h.logger.Debug("failed to send sync response",
				logger.String("conn_id", id), logger.Error(err))
		}
		return
	}

	if delta, ok := h.changesSince(req.Version); ok {
		resp.Payload = &Payload{
			NeedsUpdate:   true,
			IsIncremental: true,
			Items:         delta,
		}
	} else {
		// History does not cover the client's version: full resync is the
		// always-correct fallback.
		resp.Payload = &Payload{
			NeedsUpdate: true,
			FullData:    h.mirror.GetAll(),
		}
	}

	if err := h.send(ctx, conn, resp); err != nil {
		h.logger.Debug("failed to send sync response",
			logger.String("conn_id", id), logger.Error(err))
	}
}

// BroadcastUpdate applies a change to the mirror, advances the version token
// and pushes an update message to every connected client. Incremental
// broadcasts merge by id; full broadcasts replace the mirror wholesale and
// include the entire collection in the message.
func (h *Hub) BroadcastUpdate(ctx context.Context, items []*domain.Link, incremental bool) string {
	version := NewVersionToken()

	if incremental {
		h.mirror.MergeByID(items, version)
	} else {
		h.mirror.ReplaceAll(items, version)
	}
	h.record(version, items, incremental)

	msg := newMessage(TypeUpdate)
	msg.Version = version
	msg.Payload = &Payload{
		NeedsUpdate:   true,
		IsIncremental: incremental,
		Items:         items,
	}
	if !incremental {
		msg.Payload.FullData = h.mirror.GetAll()
	}

	h.fanOut(ctx, msg)
	return version
}

// BroadcastRemove drops an item from the mirror and pushes a full-collection
// update. Deletions cannot be expressed as a merge-by-id delta, so the safe
// full form is used.
func (h *Hub) BroadcastRemove(ctx context.Context, id string) string {
	version := NewVersionToken()
	h.mirror.Remove(id, version)
	h.record(version, nil, false)

	msg := newMessage(TypeUpdate)
	msg.Version = version
	msg.Payload = &Payload{
		NeedsUpdate: true,
		FullData:    h.mirror.GetAll(),
	}

	h.fanOut(ctx, msg)
	return version
}

// fanOut delivers one message to every connection. A failed send to one
// client is logged and that connection dropped; it never prevents delivery to
// the others.
func (h *Hub) fanOut(ctx context.Context, msg *Message) {
	h.mu.Lock()
	conns := make(map[string]*websocket.Conn, len(h.conns))
	for id, c := range h.conns {
		conns[id] = c
	}
	h.mu.Unlock()

	for id, conn := range conns {
		if err := h.send(ctx, conn, msg); err != nil {
			h.logger.Warn("failed to push update, dropping connection",
				logger.String("conn_id", id),
				logger.Error(err))
			h.unregister(id)
		}
	}

	h.logger.Debug("update broadcast",
		logger.String("version", msg.Version),
		logger.Int("clients", len(conns)))
}

// changesSince returns the union of all changesets recorded after the given
// version, oldest first so later changes win the merge. ok is false when the
// version is unknown, too old, or a full replace happened since.
func (h *Hub) changesSince(version string) ([]*domain.Link, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := -1
	for i, b := range h.history {
		if b.version == version {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	merged := make(map[string]int) // id -> index in out, last write wins
	var out []*domain.Link
	for _, b := range h.history[start:] {
		if b.items == nil {
			// A full replace or delete is in the gap; incremental catch-up
			// cannot represent it.
			return nil, false
		}
		for _, item := range b.items {
			if i, ok := merged[item.ID]; ok {
				out[i] = item
				continue
			}
			merged[item.ID] = len(out)
			out = append(out, item)
		}
	}
	return out, true
}

func (h *Hub) record(version string, items []*domain.Link, incremental bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b := broadcast{version: version}
	if incremental {
		b.items = items
	}
	h.history = append(h.history, b)
	if len(h.history) > h.historyLimit {
		h.history = h.history[len(h.history)-h.historyLimit:]
	}
}

func (h *Hub) register(id string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
}

func (h *Hub) unregister(id string) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()

	if ok {
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (h *Hub) send(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return conn.Write(sctx, websocket.MessageText, data)
}

func (h *Hub) sendError(ctx context.Context, conn *websocket.Conn, reason string) {
	msg := newMessage(TypeError)
	msg.Payload = &Payload{Message: reason}
	// Best effort: a failed error report is not itself an error.
	_ = h.send(ctx, conn, msg)
}
