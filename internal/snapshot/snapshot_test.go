package snapshot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/openfloor/pkg/forum"
)

func makeQuestion(status forum.Status, createdAt time.Time) forum.Question {
	return forum.Question{
		ID:        uuid.New().String(),
		Message:   "test question",
		Status:    status,
		CreatedAt: createdAt,
	}
}

func makeAnswer(questionID string) forum.Answer {
	return forum.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Message:    "test answer",
		CreatedAt:  time.Now(),
	}
}

func TestUpsertQuestion(t *testing.T) {
	s := New()
	q := makeQuestion(forum.StatusPending, time.Now())

	t.Run("inserts new question", func(t *testing.T) {
		s.UpsertQuestion(q)
		assert.True(t, s.HasQuestion(q.ID))
		assert.Len(t, s.Read().Questions, 1)
	})

	t.Run("duplicate upsert is a no-op in effect", func(t *testing.T) {
		s.UpsertQuestion(q)
		assert.Len(t, s.Read().Questions, 1)
	})

	t.Run("replaces by ID on status change", func(t *testing.T) {
		q.Status = forum.StatusEscalated
		s.UpsertQuestion(q)

		view := s.Read()
		require.Len(t, view.Questions, 1)
		assert.Equal(t, forum.StatusEscalated, view.Questions[0].Status)
	})
}

func TestAppendAnswer(t *testing.T) {
	t.Run("appends and deduplicates by ID", func(t *testing.T) {
		s := New()
		q := makeQuestion(forum.StatusPending, time.Now())
		s.UpsertQuestion(q)

		a := makeAnswer(q.ID)
		s.AppendAnswer(a)
		s.AppendAnswer(a) // echo of the same answer must be ignored

		assert.Len(t, s.Answers(q.ID), 1)
	})

	t.Run("self-heals for unknown question", func(t *testing.T) {
		s := New()
		a := makeAnswer("q9")

		s.AppendAnswer(a)

		seq := s.Answers("q9")
		require.Len(t, seq, 1)
		assert.Equal(t, a.ID, seq[0].ID)
		assert.False(t, s.HasQuestion("q9"))
	})

	t.Run("preserves arrival order", func(t *testing.T) {
		s := New()
		a1 := makeAnswer("q1")
		a2 := makeAnswer("q1")

		s.AppendAnswer(a1)
		s.AppendAnswer(a2)

		seq := s.Answers("q1")
		require.Len(t, seq, 2)
		assert.Equal(t, a1.ID, seq[0].ID)
		assert.Equal(t, a2.ID, seq[1].ID)
	})
}

func TestRemoveAnswer(t *testing.T) {
	s := New()
	q := makeQuestion(forum.StatusAnswered, time.Now())
	s.UpsertQuestion(q)

	a1 := makeAnswer(q.ID)
	a2 := makeAnswer(q.ID)
	s.AppendAnswer(a1)
	s.AppendAnswer(a2)

	s.RemoveAnswer(a1.ID, q.ID)

	seq := s.Answers(q.ID)
	require.Len(t, seq, 1)
	assert.Equal(t, a2.ID, seq[0].ID)

	// removing again is a no-op
	s.RemoveAnswer(a1.ID, q.ID)
	assert.Len(t, s.Answers(q.ID), 1)
}

func TestRemoveQuestion(t *testing.T) {
	s := New()
	q := makeQuestion(forum.StatusPending, time.Now())
	s.UpsertQuestion(q)
	s.AppendAnswer(makeAnswer(q.ID))

	s.RemoveQuestion(q.ID)

	assert.False(t, s.HasQuestion(q.ID))
	assert.Empty(t, s.Answers(q.ID))
}

func TestMergeAnswers(t *testing.T) {
	t.Run("fetched sequence is authoritative for its contents", func(t *testing.T) {
		s := New()
		a1 := makeAnswer("q1")
		a2 := makeAnswer("q1")
		s.AppendAnswer(a1)

		s.MergeAnswers("q1", []forum.Answer{a1, a2})

		seq := s.Answers("q1")
		require.Len(t, seq, 2)
		assert.Equal(t, a1.ID, seq[0].ID)
		assert.Equal(t, a2.ID, seq[1].ID)
	})

	t.Run("preserves pushed answers absent from the fetch", func(t *testing.T) {
		s := New()
		fetched := makeAnswer("q1")
		pushed := makeAnswer("q1") // arrived via push after the pull was issued
		s.AppendAnswer(pushed)

		s.MergeAnswers("q1", []forum.Answer{fetched})

		seq := s.Answers("q1")
		require.Len(t, seq, 2)
		assert.Equal(t, fetched.ID, seq[0].ID)
		assert.Equal(t, pushed.ID, seq[1].ID)
	})

	t.Run("empty fetch keeps pushed answers", func(t *testing.T) {
		s := New()
		pushed := makeAnswer("q1")
		s.AppendAnswer(pushed)

		s.MergeAnswers("q1", nil)

		assert.Len(t, s.Answers("q1"), 1)
	})
}

// Applying a pull and a push in either order must converge to the same
// state, for both overlapping and disjoint data.
func TestPullPushConvergence(t *testing.T) {
	q1 := makeQuestion(forum.StatusPending, time.Now())
	q2 := makeQuestion(forum.StatusPending, time.Now())
	shared := makeAnswer(q1.ID)
	pushedOnly := makeAnswer(q1.ID)

	pulledQuestions := []forum.Question{q1, q2}
	pulledAnswers := []forum.Answer{shared}

	applyPull := func(s *Snapshot) {
		s.MergeQuestions(pulledQuestions)
		s.MergeAnswers(q1.ID, pulledAnswers)
		s.MergeAnswers(q2.ID, nil)
	}
	applyPush := func(s *Snapshot) {
		s.AppendAnswer(shared)     // overlapping: also in the pull
		s.AppendAnswer(pushedOnly) // disjoint: not in the pull
	}

	pullFirst := New()
	applyPull(pullFirst)
	applyPush(pullFirst)

	pushFirst := New()
	applyPush(pushFirst)
	applyPull(pushFirst)

	assert.ElementsMatch(t, pullFirst.Read().Questions, pushFirst.Read().Questions)
	assert.Equal(t, pullFirst.Answers(q1.ID), pushFirst.Answers(q1.ID))
	assert.Equal(t, pullFirst.Answers(q2.ID), pushFirst.Answers(q2.ID))
}

func TestReadIsImmutableView(t *testing.T) {
	s := New()
	q := makeQuestion(forum.StatusPending, time.Now())
	s.UpsertQuestion(q)
	s.AppendAnswer(makeAnswer(q.ID))

	view := s.Read()
	view.Questions[0].Message = "mutated"
	view.AnswersByQuestion[q.ID][0].Message = "mutated"
	delete(view.AnswersByQuestion, q.ID)

	fresh := s.Read()
	assert.Equal(t, "test question", fresh.Questions[0].Message)
	require.Len(t, fresh.AnswersByQuestion[q.ID], 1)
	assert.Equal(t, "test answer", fresh.AnswersByQuestion[q.ID][0].Message)
}

func TestOrderedQuestions(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := New()

	pending := makeQuestion(forum.StatusPending, base.Add(time.Hour))
	older := makeQuestion(forum.StatusEscalated, base)
	newer := makeQuestion(forum.StatusEscalated, base.Add(2*time.Hour))
	s.UpsertQuestion(pending)
	s.UpsertQuestion(older)
	s.UpsertQuestion(newer)

	ordered := s.OrderedQuestions()
	require.Len(t, ordered, 3)
	assert.Equal(t, newer.ID, ordered[0].ID)
	assert.Equal(t, older.ID, ordered[1].ID)
	assert.Equal(t, pending.ID, ordered[2].ID)

	// order reflects status changes on the next read, nothing is cached
	pending.Status = forum.StatusEscalated
	s.UpsertQuestion(pending)
	assert.Equal(t, pending.ID, s.OrderedQuestions()[0].ID)
}
