package restapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openfloor/openfloor/pkg/forum"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("rejects empty base URL", func(t *testing.T) {
		_, err := NewClient("")
		assert.Error(t, err)
	})

	t.Run("trims trailing slash", func(t *testing.T) {
		client, err := NewClient("http://localhost:8090/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8090", client.baseURL)
	})
}

func TestListQuestions(t *testing.T) {
	q := forum.Question{
		ID:        uuid.New().String(),
		Message:   "anyone else seeing this?",
		Status:    forum.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/questions", r.URL.Path)
		json.NewEncoder(w).Encode([]forum.Question{q})
	}))

	questions, err := client.ListQuestions(context.Background())
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, q.ID, questions[0].ID)
}

func TestListAnswers(t *testing.T) {
	questionID := uuid.New().String()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/answers/"+questionID, r.URL.Path)
		json.NewEncoder(w).Encode([]forum.Answer{{ID: uuid.New().String(), QuestionID: questionID, Message: "yes"}})
	}))

	answers, err := client.ListAnswers(context.Background(), questionID)
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, questionID, answers[0].QuestionID)
}

func TestCreateQuestion(t *testing.T) {
	t.Run("posts message as query parameter", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/question", r.URL.Path)
			message := r.URL.Query().Get("message")
			json.NewEncoder(w).Encode(forum.Question{
				ID:      uuid.New().String(),
				Message: message,
				Status:  forum.StatusPending,
			})
		}))

		question, err := client.CreateQuestion(context.Background(), "does spacing matter?")
		require.NoError(t, err)
		assert.Equal(t, "does spacing matter?", question.Message)
		assert.Equal(t, forum.StatusPending, question.Status)
	})

	t.Run("rejects blank message locally", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("request should not reach the service")
		}))

		_, err := client.CreateQuestion(context.Background(), "   ")
		assert.Error(t, err)
	})
}

func TestCreateAnswer(t *testing.T) {
	questionID := uuid.New().String()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/answer", r.URL.Path)
		assert.Equal(t, questionID, r.URL.Query().Get("questionid"))
		assert.Equal(t, "try restarting", r.URL.Query().Get("answer"))
		json.NewEncoder(w).Encode(forum.Answer{
			ID:         uuid.New().String(),
			QuestionID: questionID,
			Message:    "try restarting",
		})
	}))

	answer, err := client.CreateAnswer(context.Background(), questionID, "try restarting")
	require.NoError(t, err)
	assert.Equal(t, questionID, answer.QuestionID)
}

func TestAdminOperations(t *testing.T) {
	t.Run("change status carries bearer token", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/auth/change-status", r.URL.Path)
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			assert.Equal(t, "Escalated", r.URL.Query().Get("new_status"))
			w.WriteHeader(http.StatusOK)
		}))
		client.SetToken("tok-123")

		err := client.ChangeStatus(context.Background(), uuid.New().String(), forum.StatusEscalated)
		assert.NoError(t, err)
	})

	t.Run("change status rejects invalid status locally", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("request should not reach the service")
		}))

		err := client.ChangeStatus(context.Background(), uuid.New().String(), "Closed")
		assert.Error(t, err)
	})

	t.Run("delete answer", func(t *testing.T) {
		answerID := uuid.New().String()
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/auth/answer", r.URL.Path)
			assert.Equal(t, answerID, r.URL.Query().Get("answerid"))
			w.WriteHeader(http.StatusOK)
		}))
		client.SetToken("tok-123")

		assert.NoError(t, client.DeleteAnswer(context.Background(), answerID))
	})
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "admin", r.PostFormValue("username"))
		assert.Equal(t, "hunter2", r.PostFormValue("password"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-456", "token_type": "bearer"})
	}))

	token, err := client.Login(context.Background(), "admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "tok-456", token)
	assert.Equal(t, "tok-456", client.token)
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("4xx is a non-recoverable StatusError", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}))

		err := client.ChangeStatus(context.Background(), uuid.New().String(), forum.StatusAnswered)
		require.Error(t, err)
		assert.False(t, IsRecoverable(err))
		assert.Contains(t, err.Error(), "401")
	})

	t.Run("5xx is recoverable", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		_, err := client.ListQuestions(context.Background())
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("connection refused is a recoverable TransportError", func(t *testing.T) {
		client, err := NewClient("http://127.0.0.1:1") // nothing listens here
		require.NoError(t, err)

		_, err = client.ListQuestions(context.Background())
		require.Error(t, err)
		assert.True(t, IsRecoverable(err))
	})

	t.Run("malformed response body is an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{not json`))
		}))

		_, err := client.ListQuestions(context.Background())
		assert.Error(t, err)
	})
}
