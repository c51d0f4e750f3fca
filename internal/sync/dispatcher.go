package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/openfloor/openfloor/internal/snapshot"
	"github.com/openfloor/openfloor/pkg/forum"
)

// DefaultConfirmWindow bounds how long the dispatcher waits for the push
// echo of its own submission before falling back to a pull.
const DefaultConfirmWindow = 3 * time.Second

// echoPollInterval is how often the dispatcher checks the snapshot for
// the echo while the confirmation window is open.
const echoPollInterval = 100 * time.Millisecond

// Mutator is the write side of the forum REST service.
// Satisfied by *restapi.Client.
type Mutator interface {
	CreateQuestion(ctx context.Context, message string) (*forum.Question, error)
	CreateAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error)
}

// Refresher triggers a pull synchronization, the dispatcher's fallback
// when an echo never arrives. Satisfied by *Puller.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Dispatcher submits mutations to the forum service. It never writes the
// snapshot itself: the push listener's echo of each mutation updates the
// snapshot for every client including this one, which keeps a single
// application path and rules out double-applied entries. If no echo lands
// within the confirmation window, one fallback refresh repairs the gap.
//
// Failed submissions change nothing and are not retried automatically:
// the service does not guarantee a retried create is idempotent.
type Dispatcher struct {
	mutator   Mutator
	snap      *snapshot.Snapshot
	refresher Refresher
	window    time.Duration

	// lifecycle bounds the confirmation goroutines; they must die with
	// the owning session, not with the per-submission request context.
	lifecycle context.Context
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithConfirmWindow overrides the echo confirmation window.
func WithConfirmWindow(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.window = d
	}
}

// WithLifecycle bounds confirmation waits to the given context.
func WithLifecycle(ctx context.Context) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.lifecycle = ctx
	}
}

// NewDispatcher creates a dispatcher writing through mutator, confirming
// against snap and falling back to refresher.
func NewDispatcher(mutator Mutator, snap *snapshot.Snapshot, refresher Refresher, opts ...DispatcherOption) (*Dispatcher, error) {
	if mutator == nil {
		return nil, fmt.Errorf("mutator cannot be nil")
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot cannot be nil")
	}
	if refresher == nil {
		return nil, fmt.Errorf("refresher cannot be nil")
	}

	d := &Dispatcher{
		mutator:   mutator,
		snap:      snap,
		refresher: refresher,
		window:    DefaultConfirmWindow,
		lifecycle: context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// SubmitQuestion posts a new question. On transport success the created
// question is returned and a confirmation watch begins; the snapshot is
// updated by the push echo, or by the fallback refresh.
func (d *Dispatcher) SubmitQuestion(ctx context.Context, message string) (*forum.Question, error) {
	question, err := d.mutator.CreateQuestion(ctx, message)
	if err != nil {
		return nil, err
	}

	go d.confirm(func() bool {
		return d.snap.HasQuestion(question.ID)
	})

	return question, nil
}

// SubmitAnswer posts a new answer to a question. Confirmation follows the
// same echo-or-refresh path as SubmitQuestion.
func (d *Dispatcher) SubmitAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error) {
	answer, err := d.mutator.CreateAnswer(ctx, questionID, message)
	if err != nil {
		return nil, err
	}

	go d.confirm(func() bool {
		return d.snap.HasAnswer(answer.ID, answer.QuestionID)
	})

	return answer, nil
}

// confirm polls for the push echo until the window closes, then triggers
// exactly one fallback refresh if the echo never landed.
func (d *Dispatcher) confirm(arrived func() bool) {
	ticker := time.NewTicker(echoPollInterval)
	defer ticker.Stop()

	deadline := time.After(d.window)

	for {
		select {
		case <-d.lifecycle.Done():
			return

		case <-deadline:
			if !arrived() {
				// Ignore the result: a failed fallback just leaves the
				// snapshot stale until the next refresh, never worse.
				_ = d.refresher.Refresh(d.lifecycle)
			}
			return

		case <-ticker.C:
			if arrived() {
				return
			}
		}
	}
}
