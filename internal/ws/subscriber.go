package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/linklab/linkdex/internal/domain"
	"github.com/linklab/linkdex/internal/logger"
)

// State is the observable connection state of a Subscriber.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
)

// SubscriberOptions configures a reconnecting live-update subscriber.
type SubscriberOptions struct {
	// URL of the live-update endpoint (ws:// or wss://).
	URL string

	// VersionFile persists the last known version token across restarts.
	// Empty disables persistence; the first sync then always falls back to a
	// full resync.
	VersionFile string

	// RetryDelay is the fixed wait between reconnect attempts.
	RetryDelay time.Duration

	// MaxRetries bounds consecutive failed reconnect attempts. Once
	// exceeded the subscriber stays disconnected until Run is called again.
	MaxRetries int

	// OnState is invoked on every state transition (optional).
	OnState func(State)

	// OnUpdate is invoked after a delta or full resync has been merged into
	// the local collection (optional).
	OnUpdate func(changed []*domain.Link, version string)

	Logger logger.Logger
}

// Subscriber maintains a live mirror of the directory on the client side:
// it connects, issues a version-aware sync, merges update pushes, and
// reconnects with a fixed delay and a bounded retry count.
type Subscriber struct {
	opts SubscriberOptions

	mu      sync.RWMutex
	state   State
	version string
	items   map[string]*domain.Link
	retries int
}

// NewSubscriber creates a subscriber; call Run to start it.
func NewSubscriber(opts SubscriberOptions) *Subscriber {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 3 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 10
	}
	s := &Subscriber{
		opts:  opts,
		state: StateDisconnected,
		items: make(map[string]*domain.Link),
	}
	s.version = s.loadVersion()
	return s
}

// State returns the current connection state.
func (s *Subscriber) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the last known version token.
func (s *Subscriber) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Items returns a snapshot of the locally mirrored collection.
func (s *Subscriber) Items() []*domain.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Link, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	return out
}

// Run connects and serves until ctx is cancelled or the retry budget is
// exhausted. Each successful connection resets the retry counter.
func (s *Subscriber) Run(ctx context.Context) error {
	s.setRetries(0)

	for {
		if err := ctx.Err(); err != nil {
			s.setState(StateDisconnected)
			return err
		}

		s.setState(StateConnecting)
		err := s.connectAndServe(ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			s.setState(StateDisconnected)
			return ctx.Err()
		}

		s.setState(StateError)
		s.opts.Logger.Warn("live-update connection lost",
			logger.Error(err))

		retries := s.bumpRetries()
		if retries > s.opts.MaxRetries {
			s.setState(StateDisconnected)
			s.opts.Logger.Error("giving up on live updates after max retries",
				logger.Int("retries", retries-1))
			return errors.New("live-update retry budget exhausted")
		}

		select {
		case <-time.After(s.opts.RetryDelay):
		case <-ctx.Done():
			s.setState(StateDisconnected)
			return ctx.Err()
		}
	}
}

func (s *Subscriber) connectAndServe(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, s.opts.URL, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.setState(StateConnected)
	s.setRetries(0)

	// Catch up immediately with whatever version we remember.
	syncReq := newMessage(TypeSync)
	syncReq.Version = s.Version()
	if err := s.write(ctx, conn, syncReq); err != nil {
		return err
	}

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			// Log and keep the connection; one bad frame is not fatal.
			s.opts.Logger.Warn("malformed message from server",
				logger.Error(err))
			continue
		}
		s.handle(&msg)
	}
}

func (s *Subscriber) handle(msg *Message) {
	switch msg.Type {
	case TypeConnect:
		if msg.Payload != nil {
			s.opts.Logger.Debug("connected to live-update channel",
				logger.String("client_id", msg.Payload.ClientID))
		}

	case TypeSync, TypeUpdate:
		if msg.Payload == nil {
			return
		}
		if msg.Type == TypeSync && !msg.Payload.NeedsUpdate {
			s.advanceVersion(msg.Version)
			return
		}
		s.apply(msg.Payload, msg.Version)

	case TypeError:
		reason := ""
		if msg.Payload != nil {
			reason = msg.Payload.Message
		}
		s.opts.Logger.Warn("server reported channel error",
			logger.String("reason", reason))

	default:
		s.opts.Logger.Debug("ignoring unknown message type",
			logger.String("type", string(msg.Type)))
	}
}

// apply merges a payload into the local mirror: incremental payloads merge by
// id, everything else replaces wholesale. The branch is on IsIncremental, not
// on FullData nilness - a full update of an empty collection carries no
// fullData at all and must still clear the mirror.
func (s *Subscriber) apply(p *Payload, version string) {
	s.mu.Lock()
	var changed []*domain.Link
	if p.IsIncremental {
		for _, item := range p.Items {
			s.items[item.ID] = item
		}
		changed = p.Items
	} else {
		s.items = make(map[string]*domain.Link, len(p.FullData))
		for _, item := range p.FullData {
			s.items[item.ID] = item
		}
		changed = p.FullData
	}
	s.version = version
	s.mu.Unlock()

	s.saveVersion(version)
	if s.opts.OnUpdate != nil {
		s.opts.OnUpdate(changed, version)
	}
}

func (s *Subscriber) advanceVersion(version string) {
	if version == "" {
		return
	}
	s.mu.Lock()
	s.version = version
	s.mu.Unlock()
	s.saveVersion(version)
}

func (s *Subscriber) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()

	if prev != st && s.opts.OnState != nil {
		s.opts.OnState(st)
	}
}

func (s *Subscriber) setRetries(n int) {
	s.mu.Lock()
	s.retries = n
	s.mu.Unlock()
}

func (s *Subscriber) bumpRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retries++
	return s.retries
}

func (s *Subscriber) loadVersion() string {
	if s.opts.VersionFile == "" {
		return ""
	}
	data, err := os.ReadFile(s.opts.VersionFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.opts.Logger != nil {
			s.opts.Logger.Warn("failed to read version file", logger.Error(err))
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (s *Subscriber) saveVersion(version string) {
	if s.opts.VersionFile == "" {
		return
	}
	if err := os.WriteFile(s.opts.VersionFile, []byte(version+"\n"), 0o644); err != nil {
		s.opts.Logger.Warn("failed to persist version token", logger.Error(err))
	}
}

func (s *Subscriber) write(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, data)
}
