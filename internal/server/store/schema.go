package store

import "fmt"

// Redis key pattern helpers
//
// All keys and the event channel are namespaced so multiple forum
// deployments can share a Redis server.
//
// Key pattern: openfloor:{namespace}:{entity}:{id}

// QuestionKey returns the Redis key for a question hash.
// Pattern: openfloor:{namespace}:question:{question_id}
func QuestionKey(namespace, questionID string) string {
	return fmt.Sprintf("openfloor:%s:question:%s", namespace, questionID)
}

// QuestionSetKey returns the Redis key for the set of question IDs.
// Pattern: openfloor:{namespace}:questions
func QuestionSetKey(namespace string) string {
	return fmt.Sprintf("openfloor:%s:questions", namespace)
}

// AnswerKey returns the Redis key for an answer hash.
// Pattern: openfloor:{namespace}:answer:{answer_id}
func AnswerKey(namespace, answerID string) string {
	return fmt.Sprintf("openfloor:%s:answer:%s", namespace, answerID)
}

// AnswerListKey returns the Redis key for a question's ordered answer IDs.
// Pattern: openfloor:{namespace}:question:{question_id}:answers
func AnswerListKey(namespace, questionID string) string {
	return fmt.Sprintf("openfloor:%s:question:%s:answers", namespace, questionID)
}

// UserKey returns the Redis key for an admin user hash.
// Pattern: openfloor:{namespace}:user:{username}
func UserKey(namespace, username string) string {
	return fmt.Sprintf("openfloor:%s:user:%s", namespace, username)
}

// EventsChannel returns the Pub/Sub channel carrying forum events.
// Every successful write publishes here; the push hub subscribes and
// broadcasts to websocket clients.
// Pattern: openfloor:{namespace}:events
func EventsChannel(namespace string) string {
	return fmt.Sprintf("openfloor:%s:events", namespace)
}
