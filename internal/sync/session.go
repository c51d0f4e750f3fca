package sync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/openfloor/openfloor/internal/push"
	"github.com/openfloor/openfloor/internal/restapi"
	"github.com/openfloor/openfloor/internal/snapshot"
	"github.com/openfloor/openfloor/pkg/forum"
)

// Session wires the whole sync core together for one client lifetime:
// an empty snapshot, an initial pull, the push listener with its
// reconnect-repair refreshes, and the mutation dispatcher. Tearing the
// context down closes the push connection and abandons in-flight pulls.
type Session struct {
	client     *restapi.Client
	snap       *snapshot.Snapshot
	puller     *Puller
	listener   *push.Listener
	dispatcher *Dispatcher
	cancel     context.CancelFunc
}

// SessionOption configures a Session.
type SessionOption func(*sessionSettings)

type sessionSettings struct {
	clientOpts     []restapi.Option
	dispatcherOpts []DispatcherOption
}

// WithClientOptions forwards options to the underlying REST client.
func WithClientOptions(opts ...restapi.Option) SessionOption {
	return func(s *sessionSettings) {
		s.clientOpts = append(s.clientOpts, opts...)
	}
}

// WithDispatcherOptions forwards options to the mutation dispatcher.
func WithDispatcherOptions(opts ...DispatcherOption) SessionOption {
	return func(s *sessionSettings) {
		s.dispatcherOpts = append(s.dispatcherOpts, opts...)
	}
}

// NewSession builds a session against the service at baseURL. The push
// endpoint is derived from baseURL (http→ws, path /ws) unless wsURL is
// set explicitly.
func NewSession(baseURL, wsURL string, opts ...SessionOption) (*Session, error) {
	var settings sessionSettings
	for _, opt := range opts {
		opt(&settings)
	}

	client, err := restapi.NewClient(baseURL, settings.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	if wsURL == "" {
		wsURL = DerivePushURL(baseURL)
	}

	snap := snapshot.New()

	puller, err := NewPuller(client, snap)
	if err != nil {
		return nil, err
	}

	listener, err := push.NewListener(wsURL, snap, puller)
	if err != nil {
		return nil, fmt.Errorf("failed to create push listener: %w", err)
	}

	lifecycle, cancel := context.WithCancel(context.Background())

	dispatcherOpts := append([]DispatcherOption{WithLifecycle(lifecycle)}, settings.dispatcherOpts...)
	dispatcher, err := NewDispatcher(client, snap, puller, dispatcherOpts...)
	if err != nil {
		cancel()
		return nil, err
	}

	return &Session{
		client:     client,
		snap:       snap,
		puller:     puller,
		listener:   listener,
		dispatcher: dispatcher,
		cancel:     cancel,
	}, nil
}

// DerivePushURL maps a REST base URL onto the conventional push endpoint.
func DerivePushURL(baseURL string) string {
	wsURL := baseURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	return strings.TrimRight(wsURL, "/") + "/ws"
}

// Run performs the initial pull and then processes push events until the
// context is cancelled. A failed initial pull is recoverable - the
// listener's first connect triggers a repair refresh anyway - so Run only
// logs it. Run returns nil on context cancellation.
func (s *Session) Run(ctx context.Context) error {
	defer s.cancel()

	if err := s.puller.Refresh(ctx); err != nil {
		log.Printf("[Session] Initial refresh failed (will repair on push connect): %v", err)
	}

	return s.listener.Run(ctx)
}

// Snapshot returns the session's snapshot cache.
func (s *Session) Snapshot() *snapshot.Snapshot {
	return s.snap
}

// Client returns the underlying REST client (for login and admin calls).
func (s *Session) Client() *restapi.Client {
	return s.client
}

// Notifications surfaces the push listener's transient notifications.
func (s *Session) Notifications() <-chan push.Notification {
	return s.listener.Notifications()
}

// ConnectionState reports the push listener's state.
func (s *Session) ConnectionState() push.State {
	return s.listener.State()
}

// Refresh triggers an on-demand pull.
func (s *Session) Refresh(ctx context.Context) error {
	return s.puller.Refresh(ctx)
}

// SubmitQuestion posts a new question through the dispatcher.
func (s *Session) SubmitQuestion(ctx context.Context, message string) (*forum.Question, error) {
	return s.dispatcher.SubmitQuestion(ctx, message)
}

// SubmitAnswer posts a new answer through the dispatcher.
func (s *Session) SubmitAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error) {
	return s.dispatcher.SubmitAnswer(ctx, questionID, message)
}
