// Package testgen turns a topic request into a stored, validated test.
package testgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"examly/internal/assessment"
	"examly/internal/llm"
	"examly/internal/schema"
	"examly/internal/store"
)

// ErrInvalidRequest marks client-side input problems, as opposed to
// backend or validation failures.
var ErrInvalidRequest = errors.New("invalid request")

const (
	// DefaultNumQuestions is used when the request leaves the count unset.
	DefaultNumQuestions = 5

	// MaxNumQuestions bounds a single generation request.
	MaxNumQuestions = 20

	generationTemperature = 0.3

	defaultPoints      = 10
	defaultExplanation = "No explanation provided"
	defaultConceptTag  = "general"
)

// Request describes the test to generate. Zero values get defaults:
// medium difficulty, five questions, all three question types.
type Request struct {
	Topic         string
	Difficulty    assessment.Difficulty
	NumQuestions  int
	QuestionTypes []assessment.QuestionType
}

// Result is the answer-redacted view of a freshly generated test.
type Result struct {
	TestID       string                      `json:"test_id"`
	Topic        string                      `json:"topic"`
	Difficulty   assessment.Difficulty       `json:"difficulty"`
	NumQuestions int                         `json:"num_questions"`
	TotalPoints  int                         `json:"total_points"`
	Questions    []assessment.PublicQuestion `json:"questions"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// Service generates tests through a JSON-calling client and persists
// them before returning the public projection.
type Service struct {
	client *llm.Client
	tests  store.TestRepo
}

// NewService creates a test generation service.
func NewService(client *llm.Client, tests store.TestRepo) *Service {
	return &Service{client: client, tests: tests}
}

// Generate produces a new test for the request. The stored test keeps
// correct answers and explanations; the returned Result never does.
// Nothing is persisted unless every question passed validation.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	req, err := normalize(req)
	if err != nil {
		return nil, err
	}

	prompt := GenerationPrompt(req.Topic, req.Difficulty, req.NumQuestions, req.QuestionTypes)
	ctx = llm.WithPurpose(ctx, "test-gen")

	raw, err := s.client.CallJSON(ctx, prompt, llm.CallOptions{
		Temperature: generationTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generate test: %w", err)
	}

	if err := schema.Validate(generationSchema, raw); err != nil {
		return nil, &assessment.ValidationError{
			Stage:   "generation",
			Message: err.Error(),
		}
	}

	var payload struct {
		Questions []assessment.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &assessment.ValidationError{
			Stage:   "generation",
			Message: fmt.Sprintf("decode questions: %v", err),
		}
	}

	questions, err := sanitizeQuestions(payload.Questions, req.NumQuestions)
	if err != nil {
		return nil, err
	}

	test := &assessment.Test{
		TestID:     newTestID(),
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Questions:  questions,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.tests.Put(ctx, test); err != nil {
		return nil, fmt.Errorf("store test: %w", err)
	}

	return &Result{
		TestID:       test.TestID,
		Topic:        test.Topic,
		Difficulty:   test.Difficulty,
		NumQuestions: len(test.Questions),
		TotalPoints:  test.TotalPoints(),
		Questions:    test.Public(),
		CreatedAt:    test.CreatedAt,
	}, nil
}

// normalize applies defaults and rejects invalid input before any
// backend call is made.
func normalize(req Request) (Request, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		return req, fmt.Errorf("%w: topic must not be empty", ErrInvalidRequest)
	}

	if req.Difficulty == "" {
		req.Difficulty = assessment.DifficultyMedium
	}
	if !req.Difficulty.Valid() {
		return req, fmt.Errorf("%w: unknown difficulty %q", ErrInvalidRequest, req.Difficulty)
	}

	if req.NumQuestions == 0 {
		req.NumQuestions = DefaultNumQuestions
	}
	if req.NumQuestions < 1 || req.NumQuestions > MaxNumQuestions {
		return req, fmt.Errorf("%w: num_questions must be between 1 and %d, got %d",
			ErrInvalidRequest, MaxNumQuestions, req.NumQuestions)
	}

	if len(req.QuestionTypes) == 0 {
		req.QuestionTypes = []assessment.QuestionType{
			assessment.TypeMCQ, assessment.TypeShort, assessment.TypeNumerical,
		}
	}
	for _, t := range req.QuestionTypes {
		if !t.Valid() {
			return req, fmt.Errorf("%w: unknown question type %q", ErrInvalidRequest, t)
		}
	}

	return req, nil
}

// sanitizeQuestions fills defaults and enforces the structural rules the
// JSON Schema cannot express: exact count, unique ids, and MCQ shape.
// Any violation fails the whole batch.
func sanitizeQuestions(questions []assessment.Question, want int) ([]assessment.Question, error) {
	if len(questions) != want {
		return nil, &assessment.ValidationError{
			Stage:   "generation",
			Message: fmt.Sprintf("expected %d questions, got %d", want, len(questions)),
		}
	}

	seen := make(map[string]bool, len(questions))
	for i := range questions {
		q := &questions[i]

		if seen[q.QuestionID] {
			return nil, &assessment.ValidationError{
				Stage:   "generation",
				Message: fmt.Sprintf("duplicate question_id %q", q.QuestionID),
			}
		}
		seen[q.QuestionID] = true

		if q.Points <= 0 {
			q.Points = defaultPoints
		}
		if strings.TrimSpace(q.Explanation) == "" {
			q.Explanation = defaultExplanation
		}
		if strings.TrimSpace(q.ConceptTag) == "" {
			q.ConceptTag = defaultConceptTag
		}

		switch q.QuestionType {
		case assessment.TypeMCQ:
			if len(q.MCQOptions) != 4 {
				return nil, &assessment.ValidationError{
					Stage:   "generation",
					Message: fmt.Sprintf("question %s: mcq needs 4 options, got %d", q.QuestionID, len(q.MCQOptions)),
				}
			}
			for i, opt := range q.MCQOptions {
				if want := string(rune('A' + i)); opt.Label != want {
					return nil, &assessment.ValidationError{
						Stage:   "generation",
						Message: fmt.Sprintf("question %s: option %d labeled %q, want %q", q.QuestionID, i, opt.Label, want),
					}
				}
			}
		default:
			// Options on non-MCQ questions are noise from the model.
			q.MCQOptions = nil
		}
	}

	return questions, nil
}

// newTestID returns a fresh short test identifier like "test_3fa4c1d09b2e".
func newTestID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "test_" + hex[:12]
}
