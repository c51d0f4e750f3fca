package forum

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Question represents a visitor-posted question. Identity is the ID; the
// message is immutable after creation, while Status changes as an admin
// triages the question.
type Question struct {
	ID        string    `json:"questionid"` // UUID - unique identifier for this question
	Message   string    `json:"message"`    // Question text, immutable post-creation
	Status    Status    `json:"Status"`     // Triage state (capitalised on the wire, a service legacy)
	CreatedAt time.Time `json:"created_at"` // Creation timestamp, set by the service
}

// Status defines the triage state of a question.
// Escalated questions sort ahead of everything else in display order.
type Status string

const (
	// StatusPending indicates a question nobody has dealt with yet
	StatusPending Status = "Pending"

	// StatusAnswered indicates the question has been resolved
	StatusAnswered Status = "Answered"

	// StatusEscalated indicates the question needs priority attention
	StatusEscalated Status = "Escalated"
)

// Answer represents a reply to a question. An answer belongs to exactly
// one question and is immutable once created.
type Answer struct {
	ID         string    `json:"answerid"`   // UUID - unique identifier for this answer
	QuestionID string    `json:"questionid"` // UUID of the question this answers
	Message    string    `json:"message"`    // Answer text
	CreatedAt  time.Time `json:"created_at"` // Creation timestamp, set by the service
}

// Validate checks if the Question has valid field values.
// Returns an error if any validation fails.
func (q *Question) Validate() error {
	if !isValidUUID(q.ID) {
		return fmt.Errorf("invalid question ID: not a valid UUID")
	}

	if q.Message == "" {
		return fmt.Errorf("question message cannot be empty")
	}

	if err := q.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	return nil
}

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusPending, StatusAnswered, StatusEscalated:
		return nil
	default:
		return fmt.Errorf("unknown status: %q", s)
	}
}

// Validate checks if the Answer has valid field values.
func (a *Answer) Validate() error {
	if !isValidUUID(a.ID) {
		return fmt.Errorf("invalid answer ID: not a valid UUID")
	}

	if !isValidUUID(a.QuestionID) {
		return fmt.Errorf("invalid question ID: not a valid UUID")
	}

	if a.Message == "" {
		return fmt.Errorf("answer message cannot be empty")
	}

	return nil
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
