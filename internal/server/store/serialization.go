package store

import (
	"fmt"
	"time"

	"github.com/openfloor/openfloor/pkg/forum"
)

// Serialization helpers for converting between Go structs and Redis hashes.
// Timestamps are stored as RFC 3339 strings so the hashes stay readable
// when inspected with redis-cli.

// QuestionToHash converts a Question to Redis hash format.
func QuestionToHash(q *forum.Question) map[string]interface{} {
	return map[string]interface{}{
		"id":         q.ID,
		"message":    q.Message,
		"status":     string(q.Status),
		"created_at": q.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// HashToQuestion converts a Redis hash back to a Question.
func HashToQuestion(hash map[string]string) (*forum.Question, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, hash["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at field: %w", err)
	}

	return &forum.Question{
		ID:        hash["id"],
		Message:   hash["message"],
		Status:    forum.Status(hash["status"]),
		CreatedAt: createdAt,
	}, nil
}

// AnswerToHash converts an Answer to Redis hash format.
func AnswerToHash(a *forum.Answer) map[string]interface{} {
	return map[string]interface{}{
		"id":          a.ID,
		"question_id": a.QuestionID,
		"message":     a.Message,
		"created_at":  a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// HashToAnswer converts a Redis hash back to an Answer.
func HashToAnswer(hash map[string]string) (*forum.Answer, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, hash["created_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid created_at field: %w", err)
	}

	return &forum.Answer{
		ID:         hash["id"],
		QuestionID: hash["question_id"],
		Message:    hash["message"],
		CreatedAt:  createdAt,
	}, nil
}
