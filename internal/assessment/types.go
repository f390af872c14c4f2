// Package assessment holds the domain model shared by generation and
// evaluation: tests, questions, and their public projections.
package assessment

import "time"

// QuestionType classifies how a question is answered and scored.
type QuestionType string

const (
	TypeMCQ       QuestionType = "mcq"       // four options, all-or-nothing
	TypeShort     QuestionType = "short"     // free text, rubric scored
	TypeNumerical QuestionType = "numerical" // numeric answer, rubric scored
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeShort, TypeNumerical:
		return true
	}
	return false
}

// Difficulty is the requested difficulty level of a test.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MCQOption is one labeled choice of a multiple-choice question.
type MCQOption struct {
	Option string `json:"option"`
	Label  string `json:"label"` // A, B, C, D
}

// Question is the internal, answer-bearing form of a question.
// Only its public projection ever leaves the service.
type Question struct {
	QuestionID    string       `json:"question_id"`
	QuestionText  string       `json:"question_text"`
	QuestionType  QuestionType `json:"question_type"`
	MCQOptions    []MCQOption  `json:"mcq_options,omitempty"` // present iff mcq
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
	ConceptTag    string       `json:"concept_tag"`
	Points        int          `json:"points"`
}

// Public returns the answer-redacted view of the question.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		QuestionID:   q.QuestionID,
		QuestionText: q.QuestionText,
		QuestionType: q.QuestionType,
		MCQOptions:   q.MCQOptions,
		Points:       q.Points,
	}
}

// PublicQuestion is the question view returned to test-takers.
// It never carries correct_answer, explanation, or concept_tag.
type PublicQuestion struct {
	QuestionID   string       `json:"question_id"`
	QuestionText string       `json:"question_text"`
	QuestionType QuestionType `json:"question_type"`
	MCQOptions   []MCQOption  `json:"mcq_options,omitempty"`
	Points       int          `json:"points"`
}

// Test is a generated assessment. Immutable after creation.
type Test struct {
	TestID     string     `json:"test_id"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"created_at"`
}

// TotalPoints returns the sum of all question points.
func (t *Test) TotalPoints() int {
	total := 0
	for _, q := range t.Questions {
		total += q.Points
	}
	return total
}

// Public returns the answer-redacted projections of all questions,
// preserving stored order.
func (t *Test) Public() []PublicQuestion {
	out := make([]PublicQuestion, len(t.Questions))
	for i, q := range t.Questions {
		out[i] = q.Public()
	}
	return out
}

// StudentAnswer pairs a question id with the submitted answer text.
// A missing entry is treated as unanswered.
type StudentAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}
