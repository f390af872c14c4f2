// Package evaluation grades submitted answers against a stored test and
// folds the outcome into the student's mastery profile.
package evaluation

import "examly/internal/assessment"

// QuestionFeedback is the graded outcome of one question. MCQ results
// carry IsCorrect; rubric results carry the three dimension scores.
// Pointer fields are nil when the dimension does not apply.
type QuestionFeedback struct {
	QuestionID            string                  `json:"question_id"`
	QuestionType          assessment.QuestionType `json:"question_type"`
	StudentAnswer         string                  `json:"student_answer"`
	CorrectAnswer         string                  `json:"correct_answer"`
	IsCorrect             *bool                   `json:"is_correct,omitempty"`
	AccuracyScore         *int                    `json:"accuracy_score,omitempty"`
	ClarityScore          *int                    `json:"clarity_score,omitempty"`
	ExplanationScore      *int                    `json:"explanation_score,omitempty"`
	IsConceptuallyCorrect *bool                   `json:"is_conceptually_correct,omitempty"`
	PointsEarned          int                     `json:"points_earned"`
	PointsPossible        int                     `json:"points_possible"`
	Feedback              string                  `json:"feedback"`
	ConceptTag            string                  `json:"concept_tag"`
}

// Result is the full evaluation of one submission.
type Result struct {
	TestID                 string             `json:"test_id"`
	StudentID              string             `json:"student_id"`
	TotalScore             int                `json:"total_score"`
	MaxScore               int                `json:"max_score"`
	Percentage             float64            `json:"percentage"`
	QuestionFeedback       []QuestionFeedback `json:"question_feedback"`
	WeakConcepts           []string           `json:"weak_concepts"`
	ImprovementSuggestions []string           `json:"improvement_suggestions"`
	OverallFeedback        string             `json:"overall_feedback"`
}

// rubricResult is the model's response shape for rubric grading.
type rubricResult struct {
	AccuracyScore         int    `json:"accuracy_score"`
	ClarityScore          int    `json:"clarity_score"`
	ExplanationScore      int    `json:"explanation_score"`
	Feedback              string `json:"feedback"`
	IsConceptuallyCorrect bool   `json:"is_conceptually_correct"`
}

// mcqFeedbackResult is the model's response shape for MCQ feedback.
type mcqFeedbackResult struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// overallResult is the model's response shape for whole-test feedback.
type overallResult struct {
	ImprovementSuggestions []string `json:"improvement_suggestions"`
	OverallFeedback        string   `json:"overall_feedback"`
}
