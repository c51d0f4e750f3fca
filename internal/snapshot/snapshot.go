// Package snapshot holds the client-local reconstruction of forum state.
//
// A Snapshot is fed from two independent sources: the pull synchronizer
// (authoritative, slow) and the push listener (incremental, fast). There is
// no ordering guarantee between the two, so every operation here is
// idempotent and the pull-merge operations are written to commute with
// push-applied updates: applying pull-then-push or push-then-pull must
// converge to the same state.
package snapshot

import (
	"sync"

	"github.com/openfloor/openfloor/pkg/forum"
)

// Snapshot is the in-memory source of truth a client renders from.
// It is safe for concurrent use; all reads return copies.
type Snapshot struct {
	mu        sync.RWMutex
	questions map[string]forum.Question
	answers   map[string][]forum.Answer
}

// View is an immutable read of the Snapshot. The slices and map belong to
// the caller; mutating them does not affect the Snapshot.
type View struct {
	Questions         []forum.Question
	AnswersByQuestion map[string][]forum.Answer
}

// New creates an empty Snapshot.
func New() *Snapshot {
	return &Snapshot{
		questions: make(map[string]forum.Question),
		answers:   make(map[string][]forum.Answer),
	}
}

// UpsertQuestion inserts or replaces a question by ID.
// Duplicate application with an identical payload is a no-op in effect.
func (s *Snapshot) UpsertQuestion(q forum.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions[q.ID] = q
}

// AppendAnswer appends an answer to its question's sequence, creating the
// sequence if absent. An answer whose ID is already present is ignored:
// the submitter's own echo and the broadcast copy of the same answer must
// not produce duplicates.
//
// The question itself may not be known yet (a pushed answer can race the
// pull that will deliver its question); the sequence is created anyway and
// the question arrives later.
func (s *Snapshot) AppendAnswer(a forum.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.answers[a.QuestionID] {
		if existing.ID == a.ID {
			return
		}
	}

	s.answers[a.QuestionID] = append(s.answers[a.QuestionID], a)
}

// RemoveAnswer removes an answer by ID from a question's sequence.
// Removing an answer that is not present is a no-op.
func (s *Snapshot) RemoveAnswer(answerID, questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.answers[questionID]
	for i, a := range seq {
		if a.ID == answerID {
			s.answers[questionID] = append(seq[:i:i], seq[i+1:]...)
			return
		}
	}
}

// RemoveQuestion deletes a question and its answer sequence.
func (s *Snapshot) RemoveQuestion(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.questions, questionID)
	delete(s.answers, questionID)
}

// MergeQuestions applies a freshly pulled question list. Every fetched
// question is upserted; cached questions absent from the fetch are kept,
// because a pushed new_question may have raced the pull and the push is
// the newer fact. The service never deletes questions, so keeping them is
// never wrong.
func (s *Snapshot) MergeQuestions(fetched []forum.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, q := range fetched {
		s.questions[q.ID] = q
	}
}

// MergeAnswers applies a freshly pulled answer sequence for one question.
// The fetched sequence is authoritative for everything it contains; cached
// answers absent from it are preserved in their prior relative order after
// the fetched ones, since a pushed answer may have raced this pull.
func (s *Snapshot) MergeAnswers(questionID string, fetched []forum.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fetchedIDs := make(map[string]bool, len(fetched))
	merged := make([]forum.Answer, 0, len(fetched))
	for _, a := range fetched {
		if fetchedIDs[a.ID] {
			continue
		}
		fetchedIDs[a.ID] = true
		merged = append(merged, a)
	}

	for _, a := range s.answers[questionID] {
		if !fetchedIDs[a.ID] {
			merged = append(merged, a)
		}
	}

	s.answers[questionID] = merged
}

// Read returns an immutable view of the current state.
func (s *Snapshot) Read() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := View{
		Questions:         make([]forum.Question, 0, len(s.questions)),
		AnswersByQuestion: make(map[string][]forum.Answer, len(s.answers)),
	}

	for _, q := range s.questions {
		view.Questions = append(view.Questions, q)
	}
	for id, seq := range s.answers {
		view.AnswersByQuestion[id] = append([]forum.Answer(nil), seq...)
	}

	return view
}

// OrderedQuestions returns the current questions in display order
// (escalated first, then recency). The order is recomputed on every call.
func (s *Snapshot) OrderedQuestions() []forum.Question {
	return forum.OrderQuestions(s.Read().Questions)
}

// Answers returns a copy of one question's answer sequence.
func (s *Snapshot) Answers(questionID string) []forum.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]forum.Answer(nil), s.answers[questionID]...)
}

// HasAnswer reports whether an answer ID is present for a question.
// Used by the mutation dispatcher to detect that its echo already landed.
func (s *Snapshot) HasAnswer(answerID, questionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.answers[questionID] {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// HasQuestion reports whether a question ID is present.
func (s *Snapshot) HasQuestion(questionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.questions[questionID]
	return ok
}
