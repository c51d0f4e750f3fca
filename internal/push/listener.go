// Package push maintains the one realtime connection a client holds to
// the forum service and applies inbound events to the local snapshot.
//
// The listener owns its connection with an explicit lifecycle: Run dials,
// reads and reconnects with backoff until the context is cancelled. Events
// are delivered at most once per connection and are not queued server-side
// across disconnects, so every reconnect triggers one pull refresh to
// repair the gap before new events are trusted.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/openfloor/openfloor/internal/snapshot"
	"github.com/openfloor/openfloor/pkg/forum"
)

// State is the listener's connection state.
type State string

const (
	// StateDisconnected means no connection exists (initial state, and
	// the state re-entered on any error or close)
	StateDisconnected State = "disconnected"

	// StateConnecting means a dial is in flight
	StateConnecting State = "connecting"

	// StateConnected means events are flowing
	StateConnected State = "connected"
)

// Refresher triggers a pull synchronization. Satisfied by *sync.Puller;
// narrowed to an interface so tests can count repair refreshes.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Notification is a transient user-facing signal that something new
// arrived over the push channel. Notifications are best-effort: if nobody
// is draining the channel they are dropped, never queued unboundedly.
type Notification struct {
	Type     forum.EventType
	Question *forum.Question
	Answer   *forum.Answer
}

// Listener maintains the websocket connection and applies events.
type Listener struct {
	url       string
	snap      *snapshot.Snapshot
	refresher Refresher

	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	notifications chan Notification
}

// NewListener creates a listener for the push endpoint at wsURL
// (e.g. "ws://localhost:8090/ws"). The refresher is invoked once per
// established connection to close any event gap.
func NewListener(wsURL string, snap *snapshot.Snapshot, refresher Refresher) (*Listener, error) {
	if wsURL == "" {
		return nil, fmt.Errorf("websocket URL cannot be empty")
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}

	return &Listener{
		url:           wsURL,
		snap:          snap,
		refresher:     refresher,
		state:         StateDisconnected,
		notifications: make(chan Notification, 16),
	}, nil
}

// State returns the current connection state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Notifications returns the channel of transient notifications.
func (l *Listener) Notifications() <-chan Notification {
	return l.notifications
}

// Run connects and processes events until the context is cancelled.
// Connection loss is never fatal: the listener reconnects with
// exponential backoff and repairs the gap with a refresh. Run returns
// nil on context cancellation.
func (l *Listener) Run(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // retry forever, the session decides when to stop

	for {
		if err := l.connectAndListen(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[PushListener] Connection lost: %v", err)
		}

		l.setState(StateDisconnected)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(policy.NextBackOff()):
		}
	}
}

// connectAndListen performs one dial / repair / read-loop cycle.
// Returns when the connection drops or the context is cancelled.
func (l *Listener) connectAndListen(ctx context.Context) error {
	l.setState(StateConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", l.url, err)
	}

	l.mu.Lock()
	l.conn = conn
	l.state = StateConnected
	l.mu.Unlock()

	l.logEvent("connected", map[string]any{"url": l.url})

	// Unblock the read loop on cancellation and close gracefully.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	// Repair the gap: events missed while disconnected are real data
	// loss, only a pull can recover them. Events read after this point
	// are trusted.
	if l.refresher != nil {
		if err := l.refresher.Refresh(ctx); err != nil {
			log.Printf("[PushListener] Reconnect refresh failed (snapshot may be stale until next refresh): %v", err)
		}
	}

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		l.handleFrame(frame)
	}
}

// handleFrame decodes and applies a single inbound frame.
// Malformed frames and unknown event types are dropped, never fatal.
func (l *Listener) handleFrame(frame []byte) {
	event, err := forum.DecodeEvent(frame)
	if err != nil {
		var unknown *forum.ErrUnknownEventType
		if errors.As(err, &unknown) {
			// Forward compatibility: the service is ahead of this client.
			return
		}
		log.Printf("[PushListener] Dropping malformed frame: %v", err)
		return
	}

	switch event.Type {
	case forum.EventNewQuestion, forum.EventQuestionUpdated:
		l.snap.UpsertQuestion(*event.Question)
	case forum.EventNewAnswer:
		// AppendAnswer deduplicates by ID: the broadcast echo of this
		// client's own submission must not double-apply.
		l.snap.AppendAnswer(*event.Answer)
	case forum.EventAnswerDeleted:
		l.snap.RemoveAnswer(event.Answer.ID, event.Answer.QuestionID)
	}

	l.notify(Notification{Type: event.Type, Question: event.Question, Answer: event.Answer})
}

// notify surfaces a transient notification without ever blocking the
// read loop.
func (l *Listener) notify(n Notification) {
	select {
	case l.notifications <- n:
	default:
	}
}

func (l *Listener) setState(state State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = state
	if state != StateConnected {
		l.conn = nil
	}
}

// logEvent logs a structured event in JSON format.
func (l *Listener) logEvent(eventType string, data map[string]any) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "push-listener"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[PushListener] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
