package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"examly/internal/assessment"
	"examly/internal/llm"
	"examly/internal/mastery"
	"examly/internal/store"
)

type memTestRepo struct {
	tests map[string]*assessment.Test
}

func (r *memTestRepo) Put(_ context.Context, t *assessment.Test) error {
	r.tests[t.TestID] = t
	return nil
}

func (r *memTestRepo) Get(_ context.Context, testID string) (*assessment.Test, error) {
	t, ok := r.tests[testID]
	if !ok {
		return nil, fmt.Errorf("test %s: %w", testID, store.ErrNotFound)
	}
	return t, nil
}

type memProfileStore struct {
	profiles map[string]*mastery.StudentProfile
}

func newMemProfileStore() *memProfileStore {
	return &memProfileStore{profiles: make(map[string]*mastery.StudentProfile)}
}

func (s *memProfileStore) Get(_ context.Context, studentID string) (*mastery.StudentProfile, error) {
	return s.profiles[studentID], nil
}

func (s *memProfileStore) Save(_ context.Context, p *mastery.StudentProfile) error {
	s.profiles[p.StudentID] = p
	return nil
}

func fixtureTest() *assessment.Test {
	return &assessment.Test{
		TestID:     "test_abc123def456",
		Topic:      "photosynthesis",
		Difficulty: assessment.DifficultyMedium,
		Questions: []assessment.Question{
			{
				QuestionID:   "q1",
				QuestionText: "Where does photosynthesis occur?",
				QuestionType: assessment.TypeMCQ,
				MCQOptions: []assessment.MCQOption{
					{Option: "Mitochondria", Label: "A"},
					{Option: "Chloroplast", Label: "B"},
					{Option: "Nucleus", Label: "C"},
					{Option: "Vacuole", Label: "D"},
				},
				CorrectAnswer: "B",
				Explanation:   "Chloroplasts contain chlorophyll.",
				ConceptTag:    "organelles",
				Points:        10,
			},
			{
				QuestionID:    "q2",
				QuestionText:  "Explain the light reactions.",
				QuestionType:  assessment.TypeShort,
				CorrectAnswer: "Light energy splits water and produces ATP and NADPH.",
				Explanation:   "Should mention water splitting and energy carriers.",
				ConceptTag:    "light_reactions",
				Points:        10,
			},
			{
				QuestionID:    "q3",
				QuestionText:  "How many ATP per glucose?",
				QuestionType:  assessment.TypeNumerical,
				CorrectAnswer: "38",
				Explanation:   "Theoretical maximum yield.",
				ConceptTag:    "energy_yield",
				Points:        10,
			},
		},
	}
}

func newEvalService(responses ...llm.MockResponse) (*Service, *memProfileStore, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	tests := &memTestRepo{tests: map[string]*assessment.Test{
		"test_abc123def456": fixtureTest(),
	}}
	profiles := newMemProfileStore()
	tracker := mastery.NewTracker(profiles)
	return NewService(llm.NewClient(mock), tests, tracker), profiles, mock
}

const mcqFeedbackJSON = `{"is_correct": true, "feedback": "Right, chloroplasts are the site."}`
const overallJSON = `{"improvement_suggestions": ["Review energy yield", "Practice diagrams", "Redo the quiz"], "overall_feedback": "Solid grasp of the basics."}`

func rubricJSON(a, c, e int) string {
	return fmt.Sprintf(`{"accuracy_score": %d, "clarity_score": %d, "explanation_score": %d, "feedback": "Decent answer.", "is_conceptually_correct": true}`, a, c, e)
}

func TestEvaluate_FullFlow(t *testing.T) {
	svc, profiles, _ := newEvalService(
		llm.MockResponse{Content: mcqFeedbackJSON},     // q1 feedback
		llm.MockResponse{Content: rubricJSON(4, 5, 5)}, // q2 rubric
		llm.MockResponse{Content: overallJSON},         // overall, q3 unanswered
	)

	result, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q1", Answer: " b "},
			{QuestionID: "q2", Answer: "Light splits water, making ATP and NADPH."},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// q1: 10 (case-insensitive match), q2: 10*14/15 = 9, q3: 0.
	if result.TotalScore != 19 {
		t.Errorf("expected total 19, got %d", result.TotalScore)
	}
	if result.MaxScore != 30 {
		t.Errorf("expected max 30, got %d", result.MaxScore)
	}
	if result.Percentage != 63.33 {
		t.Errorf("expected 63.33%%, got %v", result.Percentage)
	}
	if result.StudentID != DefaultStudentID {
		t.Errorf("expected default student, got %q", result.StudentID)
	}

	if len(result.QuestionFeedback) != 3 {
		t.Fatalf("expected feedback for all 3 questions, got %d", len(result.QuestionFeedback))
	}
	q1 := result.QuestionFeedback[0]
	if q1.IsCorrect == nil || !*q1.IsCorrect {
		t.Errorf("q1 should be correct")
	}
	q3 := result.QuestionFeedback[2]
	if q3.PointsEarned != 0 || q3.Feedback != "No answer provided." {
		t.Errorf("unexpected unanswered feedback: %+v", q3)
	}

	// Only the skipped question is weak: q1 correct, q2 rubric sum 14.
	if len(result.WeakConcepts) != 1 || result.WeakConcepts[0] != "energy_yield" {
		t.Errorf("unexpected weak concepts: %v", result.WeakConcepts)
	}

	if result.OverallFeedback != "Solid grasp of the basics." {
		t.Errorf("unexpected overall feedback: %q", result.OverallFeedback)
	}

	profile := profiles.profiles[DefaultStudentID]
	if profile == nil {
		t.Fatalf("profile not created")
	}
	if profile.TotalTests != 1 {
		t.Errorf("expected 1 test in history, got %d", profile.TotalTests)
	}
	if profile.AverageScore != 63.33 {
		t.Errorf("expected average 63.33, got %v", profile.AverageScore)
	}
}

func TestEvaluate_MCQCaseInsensitive(t *testing.T) {
	cases := []struct {
		answer  string
		correct bool
	}{
		{"B", true},
		{"b", true},
		{"  b  ", true},
		{"A", false},
		{"bb", false},
	}
	for _, tc := range cases {
		t.Run(tc.answer, func(t *testing.T) {
			svc, _, _ := newEvalService(
				llm.MockResponse{Content: mcqFeedbackJSON},
				llm.MockResponse{Content: rubricJSON(0, 0, 0)},
				llm.MockResponse{Content: rubricJSON(0, 0, 0)},
				llm.MockResponse{Content: overallJSON},
			)

			result, err := svc.Evaluate(context.Background(), Request{
				TestID: "test_abc123def456",
				Answers: []assessment.StudentAnswer{
					{QuestionID: "q1", Answer: tc.answer},
					{QuestionID: "q2", Answer: "something"},
					{QuestionID: "q3", Answer: "something"},
				},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			q1 := result.QuestionFeedback[0]
			if *q1.IsCorrect != tc.correct {
				t.Errorf("answer %q: correct = %v, want %v", tc.answer, *q1.IsCorrect, tc.correct)
			}
			wantPoints := 0
			if tc.correct {
				wantPoints = 10
			}
			if q1.PointsEarned != wantPoints {
				t.Errorf("answer %q: points = %d, want %d", tc.answer, q1.PointsEarned, wantPoints)
			}
		})
	}
}

func TestEvaluate_PerfectTestEmptyWeakConcepts(t *testing.T) {
	svc, _, _ := newEvalService(
		llm.MockResponse{Content: mcqFeedbackJSON},
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Content: overallJSON},
	)

	result, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q1", Answer: "B"},
			{QuestionID: "q2", Answer: "Light splits water, making ATP and NADPH."},
			{QuestionID: "q3", Answer: "38"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.WeakConcepts == nil {
		t.Fatalf("weak concepts must be empty, not nil")
	}
	if len(result.WeakConcepts) != 0 {
		t.Fatalf("expected no weak concepts, got %v", result.WeakConcepts)
	}

	// API clients see an empty list, never null.
	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(body), `"weak_concepts":[]`) {
		t.Errorf("expected empty weak_concepts array, got %s", body)
	}
}

func TestEvaluate_MCQFeedbackDegrades(t *testing.T) {
	// Feedback call fails, rubric and overall still succeed.
	svc, _, _ := newEvalService(
		llm.MockResponse{Err: &llm.ErrBackend{Err: errors.New("down")}},
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Content: overallJSON},
	)

	result, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q1", Answer: "B"},
			{QuestionID: "q2", Answer: "x"},
			{QuestionID: "q3", Answer: "38"},
		},
	})
	if err != nil {
		t.Fatalf("feedback failure must not abort evaluation: %v", err)
	}

	q1 := result.QuestionFeedback[0]
	if q1.PointsEarned != 10 {
		t.Errorf("scoring must stay local, got %d points", q1.PointsEarned)
	}
	if !strings.Contains(q1.Feedback, "correct") {
		t.Errorf("expected fallback feedback, got %q", q1.Feedback)
	}
}

func TestEvaluate_RubricFailureFatal(t *testing.T) {
	svc, _, _ := newEvalService(
		llm.MockResponse{Err: &llm.ErrBackend{Err: errors.New("down")}},
	)

	_, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q2", Answer: "an attempt"},
		},
	})
	var be *llm.ErrBackend
	if !errors.As(err, &be) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestEvaluate_RubricOutOfRange(t *testing.T) {
	svc, _, _ := newEvalService(
		llm.MockResponse{Content: rubricJSON(6, 2, 2)},
	)

	_, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q2", Answer: "an attempt"},
		},
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Stage != "rubric" {
		t.Errorf("expected rubric stage, got %q", vErr.Stage)
	}
}

func TestEvaluate_WeakRubricThreshold(t *testing.T) {
	// q2 sums to 8 (weak), q3 sums to 9 (not weak).
	svc, _, _ := newEvalService(
		llm.MockResponse{Content: rubricJSON(3, 3, 2)},
		llm.MockResponse{Content: rubricJSON(3, 3, 3)},
		llm.MockResponse{Content: overallJSON},
	)

	result, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q2", Answer: "weak answer"},
			{QuestionID: "q3", Answer: "borderline answer"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"organelles", "light_reactions"}
	if len(result.WeakConcepts) != len(want) {
		t.Fatalf("unexpected weak concepts: %v", result.WeakConcepts)
	}
	for i, c := range want {
		if result.WeakConcepts[i] != c {
			t.Errorf("weak concept %d = %q, want %q", i, result.WeakConcepts[i], c)
		}
	}
}

func TestEvaluate_OverallFeedbackFallback(t *testing.T) {
	svc, _, _ := newEvalService(
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Content: rubricJSON(5, 5, 5)},
		llm.MockResponse{Err: &llm.ErrBackend{Err: errors.New("down")}},
	)

	result, err := svc.Evaluate(context.Background(), Request{
		TestID: "test_abc123def456",
		Answers: []assessment.StudentAnswer{
			{QuestionID: "q2", Answer: "x"},
			{QuestionID: "q3", Answer: "38"},
		},
	})
	if err != nil {
		t.Fatalf("overall feedback failure must not abort: %v", err)
	}
	if len(result.ImprovementSuggestions) != 3 {
		t.Errorf("expected 3 fallback suggestions, got %d", len(result.ImprovementSuggestions))
	}
	if !strings.Contains(result.OverallFeedback, "Keep practicing") {
		t.Errorf("unexpected fallback feedback: %q", result.OverallFeedback)
	}
}

func TestEvaluate_TestNotFound(t *testing.T) {
	svc, _, _ := newEvalService()

	_, err := svc.Evaluate(context.Background(), Request{TestID: "test_missing00000"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEvaluate_EmptyTestID(t *testing.T) {
	svc, _, _ := newEvalService()

	_, err := svc.Evaluate(context.Background(), Request{TestID: "  "})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestRubricPoints(t *testing.T) {
	cases := []struct {
		a, c, e, max, want int
	}{
		{5, 5, 5, 10, 10},
		{3, 2, 4, 10, 6},
		{0, 0, 0, 10, 0},
		{4, 5, 5, 10, 9},
		{1, 1, 1, 10, 2},
		{5, 5, 5, 15, 15},
	}
	for _, tc := range cases {
		if got := RubricPoints(tc.a, tc.c, tc.e, tc.max); got != tc.want {
			t.Errorf("RubricPoints(%d,%d,%d,%d) = %d, want %d", tc.a, tc.c, tc.e, tc.max, got, tc.want)
		}
	}
}
