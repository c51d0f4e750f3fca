package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/openfloor/pkg/forum"
)

// setupTestStore creates a test store connected to a miniredis instance.
func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := NewStore(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, mr
}

func TestNewStore(t *testing.T) {
	t.Run("creates store successfully", func(t *testing.T) {
		s, _ := setupTestStore(t)
		assert.NotNil(t, s)
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewStore(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
	})
}

func TestQuestionLifecycle(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		created, err := s.CreateQuestion(ctx, "how does this work?")
		require.NoError(t, err)
		assert.Equal(t, forum.StatusPending, created.Status)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := s.GetQuestion(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "how does this work?", got.Message)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get missing question is not found", func(t *testing.T) {
		_, err := s.GetQuestion(ctx, "nope")
		assert.True(t, IsNotFound(err))
	})

	t.Run("list returns all questions", func(t *testing.T) {
		_, err := s.CreateQuestion(ctx, "second question")
		require.NoError(t, err)

		questions, err := s.ListQuestions(ctx)
		require.NoError(t, err)
		assert.Len(t, questions, 2)
	})

	t.Run("change status", func(t *testing.T) {
		created, err := s.CreateQuestion(ctx, "escalate me")
		require.NoError(t, err)

		updated, err := s.ChangeStatus(ctx, created.ID, forum.StatusEscalated)
		require.NoError(t, err)
		assert.Equal(t, forum.StatusEscalated, updated.Status)

		got, err := s.GetQuestion(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, forum.StatusEscalated, got.Status)
	})

	t.Run("change status rejects invalid status", func(t *testing.T) {
		created, err := s.CreateQuestion(ctx, "hold my status")
		require.NoError(t, err)

		_, err = s.ChangeStatus(ctx, created.ID, "Closed")
		assert.Error(t, err)
	})

	t.Run("change status on missing question is not found", func(t *testing.T) {
		_, err := s.ChangeStatus(ctx, "nope", forum.StatusAnswered)
		assert.True(t, IsNotFound(err))
	})
}

func TestAnswerLifecycle(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	question, err := s.CreateQuestion(ctx, "what about answers?")
	require.NoError(t, err)

	t.Run("create preserves order", func(t *testing.T) {
		first, err := s.CreateAnswer(ctx, question.ID, "first")
		require.NoError(t, err)
		second, err := s.CreateAnswer(ctx, question.ID, "second")
		require.NoError(t, err)

		answers, err := s.ListAnswers(ctx, question.ID)
		require.NoError(t, err)
		require.Len(t, answers, 2)
		assert.Equal(t, first.ID, answers[0].ID)
		assert.Equal(t, second.ID, answers[1].ID)
	})

	t.Run("create for missing question is not found", func(t *testing.T) {
		_, err := s.CreateAnswer(ctx, "nope", "into the void")
		assert.True(t, IsNotFound(err))
	})

	t.Run("list for question with no answers is empty", func(t *testing.T) {
		other, err := s.CreateQuestion(ctx, "lonely question")
		require.NoError(t, err)

		answers, err := s.ListAnswers(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, answers)
	})

	t.Run("delete removes from hash and index", func(t *testing.T) {
		doomed, err := s.CreateAnswer(ctx, question.ID, "delete me")
		require.NoError(t, err)

		require.NoError(t, s.DeleteAnswer(ctx, doomed.ID))

		answers, err := s.ListAnswers(ctx, question.ID)
		require.NoError(t, err)
		for _, a := range answers {
			assert.NotEqual(t, doomed.ID, a.ID)
		}

		assert.True(t, IsNotFound(s.DeleteAnswer(ctx, doomed.ID)))
	})
}

func TestUserStorage(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		user := &User{
			Username:     "admin",
			Email:        "admin@example.com",
			PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
			Role:         "admin",
		}
		require.NoError(t, s.SaveUser(ctx, user))

		got, err := s.GetUser(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.PasswordHash, got.PasswordHash)
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := s.GetUser(ctx, "ghost")
		assert.True(t, IsNotFound(err))
	})

	t.Run("rejects empty username", func(t *testing.T) {
		assert.Error(t, s.SaveUser(ctx, &User{}))
	})
}

func TestSubscribeEvents(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := s.SubscribeEvents(ctx)
	require.NoError(t, err)
	defer sub.Close()

	// Give the subscription a moment to register before publishing.
	time.Sleep(50 * time.Millisecond)

	question, err := s.CreateQuestion(ctx, "does pub/sub work?")
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		assert.Equal(t, forum.EventNewQuestion, event.Type)
		require.NotNil(t, event.Question)
		assert.Equal(t, question.ID, event.Question.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	answer, err := s.CreateAnswer(ctx, question.ID, "it does")
	require.NoError(t, err)

	select {
	case event := <-sub.Events():
		assert.Equal(t, forum.EventNewAnswer, event.Type)
		require.NotNil(t, event.Answer)
		assert.Equal(t, answer.ID, event.Answer.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}
}

func TestSerializationRoundTrip(t *testing.T) {
	q := &forum.Question{
		ID:        "0199b4b4-0000-4000-8000-000000000001",
		Message:   "round trip?",
		Status:    forum.StatusAnswered,
		CreatedAt: time.Date(2026, 3, 1, 8, 15, 30, 123456789, time.UTC),
	}

	hash := QuestionToHash(q)
	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		stringHash[k] = v.(string)
	}

	back, err := HashToQuestion(stringHash)
	require.NoError(t, err)
	assert.Equal(t, q.ID, back.ID)
	assert.Equal(t, q.Status, back.Status)
	assert.True(t, q.CreatedAt.Equal(back.CreatedAt))
}
