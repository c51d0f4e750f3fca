package sync

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/openfloor/internal/snapshot"
	"github.com/openfloor/openfloor/pkg/forum"
)

// fakeMutator returns canned created entities or a forced error.
type fakeMutator struct {
	fail bool
}

func (f *fakeMutator) CreateQuestion(ctx context.Context, message string) (*forum.Question, error) {
	if f.fail {
		return nil, fmt.Errorf("service returned HTTP 400")
	}
	return &forum.Question{
		ID:        uuid.New().String(),
		Message:   message,
		Status:    forum.StatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (f *fakeMutator) CreateAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error) {
	if f.fail {
		return nil, fmt.Errorf("service returned HTTP 400")
	}
	return &forum.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

type countingRefresher struct {
	count atomic.Int32
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.count.Add(1)
	return nil
}

func waitFor(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNewDispatcher(t *testing.T) {
	snap := snapshot.New()
	refresher := &countingRefresher{}

	_, err := NewDispatcher(nil, snap, refresher)
	assert.Error(t, err)

	_, err = NewDispatcher(&fakeMutator{}, nil, refresher)
	assert.Error(t, err)

	_, err = NewDispatcher(&fakeMutator{}, snap, nil)
	assert.Error(t, err)
}

func TestSubmitAnswerFallback(t *testing.T) {
	t.Run("no echo triggers exactly one refresh", func(t *testing.T) {
		snap := snapshot.New()
		refresher := &countingRefresher{}
		d, err := NewDispatcher(&fakeMutator{}, snap, refresher, WithConfirmWindow(150*time.Millisecond))
		require.NoError(t, err)

		questionID := uuid.New().String()
		answer, err := d.SubmitAnswer(context.Background(), questionID, "try this")
		require.NoError(t, err)
		assert.Equal(t, questionID, answer.QuestionID)

		// The dispatcher must not touch the snapshot itself.
		assert.Empty(t, snap.Answers(questionID))

		waitFor(t, func() bool { return refresher.count.Load() == 1 }, "fallback refresh never triggered")

		// And never more than once for a single submission.
		time.Sleep(300 * time.Millisecond)
		assert.Equal(t, int32(1), refresher.count.Load())
	})

	t.Run("echo within window suppresses the fallback", func(t *testing.T) {
		snap := snapshot.New()
		refresher := &countingRefresher{}
		d, err := NewDispatcher(&fakeMutator{}, snap, refresher, WithConfirmWindow(400*time.Millisecond))
		require.NoError(t, err)

		answer, err := d.SubmitAnswer(context.Background(), uuid.New().String(), "it me")
		require.NoError(t, err)

		// Simulate the push listener applying the broadcast echo.
		snap.AppendAnswer(*answer)

		time.Sleep(600 * time.Millisecond)
		assert.Equal(t, int32(0), refresher.count.Load())
	})
}

func TestSubmitQuestionFallback(t *testing.T) {
	snap := snapshot.New()
	refresher := &countingRefresher{}
	d, err := NewDispatcher(&fakeMutator{}, snap, refresher, WithConfirmWindow(400*time.Millisecond))
	require.NoError(t, err)

	question, err := d.SubmitQuestion(context.Background(), "what is this?")
	require.NoError(t, err)

	snap.UpsertQuestion(*question) // echo

	time.Sleep(600 * time.Millisecond)
	assert.Equal(t, int32(0), refresher.count.Load())
}

func TestSubmitFailure(t *testing.T) {
	snap := snapshot.New()
	refresher := &countingRefresher{}
	d, err := NewDispatcher(&fakeMutator{fail: true}, snap, refresher, WithConfirmWindow(100*time.Millisecond))
	require.NoError(t, err)

	_, err = d.SubmitQuestion(context.Background(), "doomed")
	assert.Error(t, err)

	_, err = d.SubmitAnswer(context.Background(), uuid.New().String(), "doomed")
	assert.Error(t, err)

	// No state change and no fallback on failure.
	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, snap.Read().Questions)
	assert.Equal(t, int32(0), refresher.count.Load())
}

func TestLifecycleCancelStopsConfirmation(t *testing.T) {
	snap := snapshot.New()
	refresher := &countingRefresher{}
	lifecycle, cancel := context.WithCancel(context.Background())

	d, err := NewDispatcher(&fakeMutator{}, snap, refresher,
		WithConfirmWindow(200*time.Millisecond), WithLifecycle(lifecycle))
	require.NoError(t, err)

	_, err = d.SubmitAnswer(context.Background(), uuid.New().String(), "never mind")
	require.NoError(t, err)

	cancel() // session torn down before the window closes

	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(0), refresher.count.Load())
}
