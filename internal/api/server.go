// Package api exposes test generation, evaluation, and student profiles
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"examly/internal/assessment"
	"examly/internal/evaluation"
	"examly/internal/llm"
	"examly/internal/mastery"
	"examly/internal/store"
	"examly/internal/testgen"
)

// Server wires the domain services into HTTP handlers.
type Server struct {
	generator *testgen.Service
	evaluator *evaluation.Service
	tracker   *mastery.Tracker
	timeout   time.Duration
}

// NewServer creates a Server over the given services. A positive timeout
// bounds each request's backend work; the deadline propagates through the
// request context so in-flight provider calls are cancelled with it.
func NewServer(generator *testgen.Service, evaluator *evaluation.Service, tracker *mastery.Tracker, timeout time.Duration) *Server {
	return &Server{generator: generator, evaluator: evaluator, tracker: tracker, timeout: timeout}
}

// requestContext applies the per-request timeout, if any.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), s.timeout)
}

// Routes returns the request mux with all endpoints registered.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /test/generate", s.generateTest)
	mux.HandleFunc("POST /test/evaluate", s.evaluateTest)
	mux.HandleFunc("GET /students/{studentID}/profile", s.getProfile)
	mux.HandleFunc("GET /students/{studentID}/weak-concepts", s.getWeakConcepts)
	mux.HandleFunc("GET /health", s.health)

	return mux
}

// POST /test/generate
type generateRequest struct {
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty,omitempty"`
	NumQuestions  int      `json:"num_questions,omitempty"`
	QuestionTypes []string `json:"question_types,omitempty"`
}

func (s *Server) generateTest(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	types := make([]assessment.QuestionType, len(req.QuestionTypes))
	for i, t := range req.QuestionTypes {
		types[i] = assessment.QuestionType(t)
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.generator.Generate(ctx, testgen.Request{
		Topic:         req.Topic,
		Difficulty:    assessment.Difficulty(req.Difficulty),
		NumQuestions:  req.NumQuestions,
		QuestionTypes: types,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// POST /test/evaluate
type evaluateRequest struct {
	TestID         string                     `json:"test_id"`
	StudentID      string                     `json:"student_id,omitempty"`
	StudentAnswers []assessment.StudentAnswer `json:"student_answers"`
}

func (s *Server) evaluateTest(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	result, err := s.evaluator.Evaluate(ctx, evaluation.Request{
		TestID:    req.TestID,
		StudentID: req.StudentID,
		Answers:   req.StudentAnswers,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /students/{studentID}/profile
func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	profile, err := s.tracker.GetProfile(r.Context(), studentID)
	if err != nil {
		http.Error(w, "failed to load profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "student not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// GET /students/{studentID}/weak-concepts
type weakConceptsResponse struct {
	StudentID    string   `json:"student_id"`
	WeakConcepts []string `json:"weak_concepts"`
}

func (s *Server) getWeakConcepts(w http.ResponseWriter, r *http.Request) {
	studentID := r.PathValue("studentID")

	concepts, err := s.tracker.GetWeakConcepts(r.Context(), studentID)
	if err != nil {
		http.Error(w, "failed to load weak concepts", http.StatusInternalServerError)
		return
	}
	if concepts == nil {
		concepts = []string{}
	}

	writeJSON(w, http.StatusOK, weakConceptsResponse{
		StudentID:    studentID,
		WeakConcepts: concepts,
	})
}

// GET /health
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to HTTP status codes. Bad input is the
// caller's fault, backend and validation failures are upstream faults,
// everything else is a server error.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *assessment.ValidationError
	var backendErr *llm.ErrBackend
	var rateLimitErr *llm.ErrRateLimit
	var malformedErr *llm.ErrMalformedResponse

	switch {
	case errors.Is(err, testgen.ErrInvalidRequest), errors.Is(err, evaluation.ErrInvalidRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &validationErr),
		errors.As(err, &backendErr),
		errors.As(err, &rateLimitErr),
		errors.As(err, &malformedErr):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
