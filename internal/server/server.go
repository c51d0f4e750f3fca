// Package server is the reference forum service: the REST surface and
// websocket push endpoint the sync core talks to. State lives in the
// Redis-backed store; every successful mutation publishes an event that
// the hub broadcasts to all connected clients, including the one that
// made the mutation (the "push echo").
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openfloor/openfloor/internal/server/auth"
	"github.com/openfloor/openfloor/internal/server/hub"
	"github.com/openfloor/openfloor/internal/server/store"
	"github.com/openfloor/openfloor/pkg/forum"
)

// Server wires the store, auth service and push hub behind one router.
type Server struct {
	store *store.Store
	auth  *auth.Service
	hub   *hub.Hub
	addr  string
}

// New creates a server listening on addr once Run is called.
func New(s *store.Store, authSvc *auth.Service, h *hub.Hub, addr string) (*Server, error) {
	if s == nil || authSvc == nil || h == nil {
		return nil, fmt.Errorf("store, auth service and hub are all required")
	}
	if addr == "" {
		return nil, fmt.Errorf("listen address cannot be empty")
	}

	return &Server{store: s, auth: authSvc, hub: h, addr: addr}, nil
}

// Router builds the HTTP routing table. Exposed separately from Run so
// tests can drive it through httptest.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.handleHealth)
	r.Get("/healthz", s.handleHealth)

	r.Get("/questions", s.handleListQuestions)
	r.Get("/answers/{questionID}", s.handleListAnswers)
	r.Post("/question", s.handleCreateQuestion)
	r.Post("/answer", s.handleCreateAnswer)

	r.Get("/ws", s.hub.ServeWS)

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/token", s.handleToken)

	// Admin mutations require a valid bearer token.
	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Post("/auth/change-status", s.handleChangeStatus)
		r.Delete("/auth/answer", s.handleDeleteAnswer)
	})

	return r
}

// Run starts the hub and serves HTTP until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	hubCtx, cancelHub := context.WithCancel(ctx)
	defer cancelHub()

	hubDone := make(chan error, 1)
	go func() {
		hubDone <- s.hub.Run(hubCtx, s.store)
	}()

	httpSrv := &http.Server{
		Addr:        s.addr,
		Handler:     s.Router(),
		ReadTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", s.addr)
		serveErr <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		cancelHub()
		<-hubDone
		return nil

	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve failed: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.store.ListQuestions(r.Context())
	if err != nil {
		http.Error(w, "failed to list questions", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleListAnswers(w http.ResponseWriter, r *http.Request) {
	questionID := chi.URLParam(r, "questionID")

	answers, err := s.store.ListAnswers(r.Context(), questionID)
	if err != nil {
		http.Error(w, "failed to list answers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, answers)
}

func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	if message == "" {
		http.Error(w, "message parameter is required", http.StatusBadRequest)
		return
	}

	question, err := s.store.CreateQuestion(r.Context(), message)
	if err != nil {
		http.Error(w, "failed to create question", http.StatusInternalServerError)
		return
	}

	s.logEvent("question_created", map[string]any{"question_id": question.ID})
	writeJSON(w, http.StatusOK, question)
}

func (s *Server) handleCreateAnswer(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("questionid")
	message := r.URL.Query().Get("answer")
	if questionID == "" || message == "" {
		http.Error(w, "questionid and answer parameters are required", http.StatusBadRequest)
		return
	}

	answer, err := s.store.CreateAnswer(r.Context(), questionID, message)
	if err != nil {
		if store.IsNotFound(err) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to create answer", http.StatusInternalServerError)
		return
	}

	s.logEvent("answer_created", map[string]any{"answer_id": answer.ID, "question_id": questionID})
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("questionid")
	newStatus := forum.Status(r.URL.Query().Get("new_status"))
	if questionID == "" {
		http.Error(w, "questionid parameter is required", http.StatusBadRequest)
		return
	}
	if err := newStatus.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	question, err := s.store.ChangeStatus(r.Context(), questionID, newStatus)
	if err != nil {
		if store.IsNotFound(err) {
			http.Error(w, "question not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to change status", http.StatusInternalServerError)
		return
	}

	s.logEvent("status_changed", map[string]any{"question_id": questionID, "status": string(newStatus)})
	writeJSON(w, http.StatusOK, question)
}

func (s *Server) handleDeleteAnswer(w http.ResponseWriter, r *http.Request) {
	answerID := r.URL.Query().Get("answerid")
	if answerID == "" {
		http.Error(w, "answerid parameter is required", http.StatusBadRequest)
		return
	}

	if err := s.store.DeleteAnswer(r.Context(), answerID); err != nil {
		if store.IsNotFound(err) {
			http.Error(w, "answer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete answer", http.StatusInternalServerError)
		return
	}

	s.logEvent("answer_deleted", map[string]any{"answer_id": answerID})
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// registerRequest mirrors the register endpoint's JSON body.
type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"msg": "User created successfully"})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	token, err := s.auth.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "incorrect username or password", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[Server] Failed to encode response: %v", err)
	}
}

// logEvent logs a structured event in JSON format.
func (s *Server) logEvent(eventType string, data map[string]any) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "server"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Server] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
