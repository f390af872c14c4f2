package testgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"examly/internal/assessment"
	"examly/internal/llm"
)

// memTestRepo is an in-memory TestRepo for tests.
type memTestRepo struct {
	tests map[string]*assessment.Test
}

func newMemTestRepo() *memTestRepo {
	return &memTestRepo{tests: make(map[string]*assessment.Test)}
}

func (r *memTestRepo) Put(_ context.Context, t *assessment.Test) error {
	r.tests[t.TestID] = t
	return nil
}

func (r *memTestRepo) Get(_ context.Context, testID string) (*assessment.Test, error) {
	t, ok := r.tests[testID]
	if !ok {
		return nil, errors.New("not found")
	}
	return t, nil
}

const twoQuestionJSON = `{
	"questions": [
		{
			"question_id": "q1",
			"question_text": "What is the powerhouse of the cell?",
			"question_type": "mcq",
			"mcq_options": [
				{"option": "Nucleus", "label": "A"},
				{"option": "Mitochondria", "label": "B"},
				{"option": "Ribosome", "label": "C"},
				{"option": "Golgi body", "label": "D"}
			],
			"correct_answer": "B",
			"explanation": "Mitochondria produce ATP.",
			"concept_tag": "cell_organelles",
			"points": 10
		},
		{
			"question_id": "q2",
			"question_text": "Explain osmosis.",
			"question_type": "short",
			"mcq_options": null,
			"correct_answer": "Movement of water across a semipermeable membrane."
		}
	]
}`

func newTestService(responses ...llm.MockResponse) (*Service, *memTestRepo, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	repo := newMemTestRepo()
	return NewService(llm.NewClient(mock), repo), repo, mock
}

func TestGenerate_Success(t *testing.T) {
	svc, repo, mock := newTestService(llm.MockResponse{Content: twoQuestionJSON})

	result, err := svc.Generate(context.Background(), Request{
		Topic:        "cell biology",
		NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(result.TestID, "test_") {
		t.Errorf("unexpected test id: %q", result.TestID)
	}
	if len(result.TestID) != len("test_")+12 {
		t.Errorf("unexpected test id length: %q", result.TestID)
	}
	if result.NumQuestions != 2 {
		t.Errorf("expected 2 questions, got %d", result.NumQuestions)
	}
	if result.TotalPoints != 20 {
		t.Errorf("expected 20 total points, got %d", result.TotalPoints)
	}
	if result.Difficulty != assessment.DifficultyMedium {
		t.Errorf("expected default medium difficulty, got %q", result.Difficulty)
	}

	stored, err := repo.Get(context.Background(), result.TestID)
	if err != nil {
		t.Fatalf("test not persisted: %v", err)
	}
	if stored.Questions[0].CorrectAnswer != "B" {
		t.Errorf("stored test must keep correct answers")
	}

	prompt := mock.LastPrompt()
	if !strings.Contains(prompt, "exactly 2 test questions") {
		t.Errorf("prompt missing count: %q", prompt)
	}
	if !strings.Contains(prompt, `"cell biology"`) {
		t.Errorf("prompt missing topic: %q", prompt)
	}
}

func TestGenerate_RedactsAnswers(t *testing.T) {
	svc, _, _ := newTestService(llm.MockResponse{Content: twoQuestionJSON})

	result, err := svc.Generate(context.Background(), Request{
		Topic:        "cell biology",
		NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, q := range result.Questions {
		if q.QuestionText == "" || q.QuestionID == "" {
			t.Errorf("public question missing display fields: %+v", q)
		}
	}
	// The public projection type has no answer fields at all, so checking
	// one rendered question is enough to catch accidental leaks.
	if strings.Contains(result.Questions[0].QuestionText, "Mitochondria produce") {
		t.Errorf("explanation leaked into public question")
	}
}

func TestGenerate_AppliesDefaults(t *testing.T) {
	svc, repo, _ := newTestService(llm.MockResponse{Content: twoQuestionJSON})

	result, err := svc.Generate(context.Background(), Request{
		Topic:        "cell biology",
		NumQuestions: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := repo.Get(context.Background(), result.TestID)
	q2 := stored.Questions[1]
	if q2.Points != 10 {
		t.Errorf("expected default 10 points, got %d", q2.Points)
	}
	if q2.Explanation != "No explanation provided" {
		t.Errorf("expected default explanation, got %q", q2.Explanation)
	}
	if q2.ConceptTag != "general" {
		t.Errorf("expected default concept tag, got %q", q2.ConceptTag)
	}
}

func TestGenerate_CountMismatch(t *testing.T) {
	svc, repo, _ := newTestService(llm.MockResponse{Content: twoQuestionJSON})

	_, err := svc.Generate(context.Background(), Request{
		Topic:        "cell biology",
		NumQuestions: 5,
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Stage != "generation" {
		t.Errorf("expected generation stage, got %q", vErr.Stage)
	}
	if len(repo.tests) != 0 {
		t.Errorf("failed generation must not persist anything")
	}
}

func TestGenerate_DuplicateQuestionIDs(t *testing.T) {
	dup := `{
		"questions": [
			{"question_id": "q1", "question_text": "A?", "question_type": "short", "correct_answer": "a"},
			{"question_id": "q1", "question_text": "B?", "question_type": "short", "correct_answer": "b"}
		]
	}`
	svc, _, _ := newTestService(llm.MockResponse{Content: dup})

	_, err := svc.Generate(context.Background(), Request{
		Topic:        "anything",
		NumQuestions: 2,
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Message, "duplicate question_id") {
		t.Errorf("unexpected message: %q", vErr.Message)
	}
}

func TestGenerate_MCQNeedsFourOptions(t *testing.T) {
	bad := `{
		"questions": [
			{
				"question_id": "q1",
				"question_text": "Pick one.",
				"question_type": "mcq",
				"mcq_options": [
					{"option": "Yes", "label": "A"},
					{"option": "No", "label": "B"}
				],
				"correct_answer": "A"
			}
		]
	}`
	svc, _, _ := newTestService(llm.MockResponse{Content: bad})

	_, err := svc.Generate(context.Background(), Request{
		Topic:        "anything",
		NumQuestions: 1,
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerate_MCQLabelsMustBeOrdered(t *testing.T) {
	bad := `{
		"questions": [
			{
				"question_id": "q1",
				"question_text": "Pick one.",
				"question_type": "mcq",
				"mcq_options": [
					{"option": "W", "label": "A"},
					{"option": "X", "label": "C"},
					{"option": "Y", "label": "B"},
					{"option": "Z", "label": "D"}
				],
				"correct_answer": "A"
			}
		]
	}`
	svc, _, _ := newTestService(llm.MockResponse{Content: bad})

	_, err := svc.Generate(context.Background(), Request{
		Topic:        "anything",
		NumQuestions: 1,
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Message, "labeled") {
		t.Errorf("unexpected message: %q", vErr.Message)
	}
}

func TestGenerate_SchemaRejectsMissingFields(t *testing.T) {
	bad := `{"questions": [{"question_id": "q1", "question_type": "short"}]}`
	svc, _, _ := newTestService(llm.MockResponse{Content: bad})

	_, err := svc.Generate(context.Background(), Request{
		Topic:        "anything",
		NumQuestions: 1,
	})
	var vErr *assessment.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestGenerate_InvalidInput(t *testing.T) {
	cases := []struct {
		name string
		req  Request
	}{
		{"empty topic", Request{Topic: "   "}},
		{"bad difficulty", Request{Topic: "x", Difficulty: "impossible"}},
		{"too many questions", Request{Topic: "x", NumQuestions: 21}},
		{"negative questions", Request{Topic: "x", NumQuestions: -1}},
		{"bad type", Request{Topic: "x", QuestionTypes: []assessment.QuestionType{"essay"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, mock := newTestService()
			_, err := svc.Generate(context.Background(), tc.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
			if mock.CallCount() != 0 {
				t.Errorf("invalid input must not reach the backend")
			}
		})
	}
}

func TestGenerationPrompt_Deterministic(t *testing.T) {
	types := []assessment.QuestionType{assessment.TypeMCQ, assessment.TypeShort}
	a := GenerationPrompt("algebra", assessment.DifficultyHard, 3, types)
	b := GenerationPrompt("algebra", assessment.DifficultyHard, 3, types)
	if a != b {
		t.Errorf("prompt must be deterministic for equal inputs")
	}
	if !strings.Contains(a, "mcq, short") {
		t.Errorf("prompt missing question types: %q", a)
	}
	if !strings.Contains(a, "Difficulty level: hard") {
		t.Errorf("prompt missing difficulty: %q", a)
	}
}
