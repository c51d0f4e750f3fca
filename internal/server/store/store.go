// Package store is the forum service's Redis-backed state layer.
//
// Questions and answers are stored as Redis hashes with set/list indexes
// for membership and ordering. Every successful write publishes the
// corresponding forum event to a Pub/Sub channel; the websocket hub
// subscribes there and fans the event out to connected clients. Redis
// Pub/Sub is at-most-once per subscriber, which is exactly the delivery
// contract clients are written against.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/openfloor/openfloor/pkg/forum"
)

// Store provides namespaced Redis operations for forum state.
// The store is safe for concurrent use.
type Store struct {
	rdb       *redis.Client
	namespace string
}

// User is an admin account. Only the service's auth layer reads these.
type User struct {
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// NewStore creates a store for the given namespace.
// Returns an error if namespace is empty.
func NewStore(redisOpts *redis.Options, namespace string) (*Store, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Store{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// CreateQuestion stores a new pending question and publishes a
// new_question event.
func (s *Store) CreateQuestion(ctx context.Context, message string) (*forum.Question, error) {
	question := &forum.Question{
		ID:        uuid.New().String(),
		Message:   message,
		Status:    forum.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := question.Validate(); err != nil {
		return nil, fmt.Errorf("invalid question: %w", err)
	}

	key := QuestionKey(s.namespace, question.ID)
	if err := s.rdb.HSet(ctx, key, QuestionToHash(question)).Err(); err != nil {
		return nil, fmt.Errorf("failed to write question to Redis: %w", err)
	}
	if err := s.rdb.SAdd(ctx, QuestionSetKey(s.namespace), question.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index question: %w", err)
	}

	if err := s.publish(ctx, &forum.Event{Type: forum.EventNewQuestion, Question: question}); err != nil {
		return nil, err
	}

	return question, nil
}

// GetQuestion retrieves a question by ID.
// Returns (nil, redis.Nil) if the question doesn't exist; check with
// IsNotFound.
func (s *Store) GetQuestion(ctx context.Context, questionID string) (*forum.Question, error) {
	hash, err := s.rdb.HGetAll(ctx, QuestionKey(s.namespace, questionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read question from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys.
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	return HashToQuestion(hash)
}

// ListQuestions retrieves all questions. Order is unspecified; display
// ordering is a client concern.
func (s *Store) ListQuestions(ctx context.Context) ([]forum.Question, error) {
	ids, err := s.rdb.SMembers(ctx, QuestionSetKey(s.namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list question IDs: %w", err)
	}

	questions := make([]forum.Question, 0, len(ids))
	for _, id := range ids {
		question, err := s.GetQuestion(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// Index ahead of a deleted hash; skip.
				continue
			}
			return nil, err
		}
		questions = append(questions, *question)
	}

	return questions, nil
}

// ChangeStatus moves a question to a new status and publishes a
// question_updated event. Returns the updated question.
func (s *Store) ChangeStatus(ctx context.Context, questionID string, status forum.Status) (*forum.Question, error) {
	if err := status.Validate(); err != nil {
		return nil, err
	}

	question, err := s.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	question.Status = status
	key := QuestionKey(s.namespace, questionID)
	if err := s.rdb.HSet(ctx, key, "status", string(status)).Err(); err != nil {
		return nil, fmt.Errorf("failed to update question status: %w", err)
	}

	if err := s.publish(ctx, &forum.Event{Type: forum.EventQuestionUpdated, Question: question}); err != nil {
		return nil, err
	}

	return question, nil
}

// CreateAnswer stores a new answer for an existing question and publishes
// a new_answer event. Returns redis.Nil if the question doesn't exist.
func (s *Store) CreateAnswer(ctx context.Context, questionID, message string) (*forum.Answer, error) {
	if _, err := s.GetQuestion(ctx, questionID); err != nil {
		return nil, err
	}

	answer := &forum.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		Message:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := answer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid answer: %w", err)
	}

	if err := s.rdb.HSet(ctx, AnswerKey(s.namespace, answer.ID), AnswerToHash(answer)).Err(); err != nil {
		return nil, fmt.Errorf("failed to write answer to Redis: %w", err)
	}
	if err := s.rdb.RPush(ctx, AnswerListKey(s.namespace, questionID), answer.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to index answer: %w", err)
	}

	if err := s.publish(ctx, &forum.Event{Type: forum.EventNewAnswer, Answer: answer}); err != nil {
		return nil, err
	}

	return answer, nil
}

// ListAnswers retrieves a question's answers in creation order.
func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]forum.Answer, error) {
	ids, err := s.rdb.LRange(ctx, AnswerListKey(s.namespace, questionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list answer IDs: %w", err)
	}

	answers := make([]forum.Answer, 0, len(ids))
	for _, id := range ids {
		hash, err := s.rdb.HGetAll(ctx, AnswerKey(s.namespace, id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read answer from Redis: %w", err)
		}
		if len(hash) == 0 {
			continue
		}

		answer, err := HashToAnswer(hash)
		if err != nil {
			return nil, err
		}
		answers = append(answers, *answer)
	}

	return answers, nil
}

// DeleteAnswer removes an answer and publishes an answer_deleted event.
// Returns redis.Nil if the answer doesn't exist.
func (s *Store) DeleteAnswer(ctx context.Context, answerID string) error {
	hash, err := s.rdb.HGetAll(ctx, AnswerKey(s.namespace, answerID)).Result()
	if err != nil {
		return fmt.Errorf("failed to read answer from Redis: %w", err)
	}
	if len(hash) == 0 {
		return redis.Nil
	}

	answer, err := HashToAnswer(hash)
	if err != nil {
		return err
	}

	if err := s.rdb.Del(ctx, AnswerKey(s.namespace, answerID)).Err(); err != nil {
		return fmt.Errorf("failed to delete answer: %w", err)
	}
	if err := s.rdb.LRem(ctx, AnswerListKey(s.namespace, answer.QuestionID), 0, answerID).Err(); err != nil {
		return fmt.Errorf("failed to unindex answer: %w", err)
	}

	return s.publish(ctx, &forum.Event{Type: forum.EventAnswerDeleted, Answer: answer})
}

// SaveUser stores an admin user account.
func (s *Store) SaveUser(ctx context.Context, user *User) error {
	if user.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	hash := map[string]interface{}{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          user.Role,
	}
	if err := s.rdb.HSet(ctx, UserKey(s.namespace, user.Username), hash).Err(); err != nil {
		return fmt.Errorf("failed to write user to Redis: %w", err)
	}

	return nil
}

// GetUser retrieves an admin user by username.
// Returns (nil, redis.Nil) if the user doesn't exist.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	hash, err := s.rdb.HGetAll(ctx, UserKey(s.namespace, username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read user from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, redis.Nil
	}

	return &User{
		Username:     hash["username"],
		Email:        hash["email"],
		PasswordHash: hash["password_hash"],
		Role:         hash["role"],
	}, nil
}

// publish broadcasts an event frame on the events channel.
func (s *Store) publish(ctx context.Context, event *forum.Event) error {
	frame, err := forum.EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := s.rdb.Publish(ctx, EventsChannel(s.namespace), frame).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Subscription represents an active Pub/Sub subscription to forum events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *forum.Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of forum events.
// The channel is closed when the subscription closes or the context is
// cancelled.
func (s *Subscription) Events() <-chan *forum.Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors are non-fatal; the affected message is skipped and the
// subscription continues.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements
// io.Closer. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to forum events for this namespace.
// Events are delivered on a buffered channel; a subscriber that falls far
// enough behind loses messages (at-most-once delivery), which is why
// clients repair with a pull on reconnect.
func (s *Store) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := s.rdb.Subscribe(ctx, EventsChannel(s.namespace))

	eventsChan := make(chan *forum.Event, 16)
	errorsChan := make(chan error, 16)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				event, err := forum.DecodeEvent([]byte(msg.Payload))
				if err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to decode event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
