package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"examly/internal/assessment"
	"examly/internal/llm"
	"examly/internal/mastery"
	"examly/internal/schema"
	"examly/internal/store"
)

// ErrInvalidRequest marks client-side input problems.
var ErrInvalidRequest = errors.New("invalid request")

// DefaultStudentID is used when a submission carries no student id.
const DefaultStudentID = "default_student"

const (
	evaluationTemperature = 0.2
	overallTemperature    = 0.3

	// maxRubricTotal is the ceiling of the three rubric dimensions combined.
	maxRubricTotal = 15

	// weakRubricThreshold marks a rubric answer weak when the combined
	// score falls below it (average dimension score under 3).
	weakRubricThreshold = 9
)

// Request is one student's submission for a stored test.
type Request struct {
	TestID    string
	StudentID string
	Answers   []assessment.StudentAnswer
}

// Service grades submissions. MCQ answers are scored locally; free-form
// answers go through rubric grading by the model.
type Service struct {
	client  *llm.Client
	tests   store.TestRepo
	tracker *mastery.Tracker
}

// NewService creates an evaluation service.
func NewService(client *llm.Client, tests store.TestRepo, tracker *mastery.Tracker) *Service {
	return &Service{client: client, tests: tests, tracker: tracker}
}

// Evaluate grades every question of the referenced test in stored order.
// Rubric grading failures abort the whole evaluation; MCQ feedback and
// overall feedback degrade to local fallbacks instead. The mastery
// profile update is best-effort and never fails the evaluation.
func (s *Service) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.TestID) == "" {
		return nil, fmt.Errorf("%w: test_id must not be empty", ErrInvalidRequest)
	}
	studentID := strings.TrimSpace(req.StudentID)
	if studentID == "" {
		studentID = DefaultStudentID
	}

	test, err := s.tests.Get(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	answers := make(map[string]string, len(req.Answers))
	for _, a := range req.Answers {
		answers[a.QuestionID] = a.Answer
	}

	var (
		feedback     []QuestionFeedback
		totalScore   int
		maxScore     int
		weakConcepts []string
	)

	for _, q := range test.Questions {
		answer := strings.TrimSpace(answers[q.QuestionID])

		var fb QuestionFeedback
		switch {
		case answer == "":
			fb = unansweredFeedback(q)
			weakConcepts = append(weakConcepts, q.ConceptTag)
		case q.QuestionType == assessment.TypeMCQ:
			fb = s.evaluateMCQ(ctx, q, answer)
			if fb.IsCorrect != nil && !*fb.IsCorrect {
				weakConcepts = append(weakConcepts, q.ConceptTag)
			}
		default:
			fb, err = s.evaluateRubric(ctx, q, answer)
			if err != nil {
				return nil, fmt.Errorf("evaluate question %s: %w", q.QuestionID, err)
			}
			if rubricTotal(fb) < weakRubricThreshold {
				weakConcepts = append(weakConcepts, q.ConceptTag)
			}
		}

		feedback = append(feedback, fb)
		totalScore += fb.PointsEarned
		maxScore += fb.PointsPossible
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = round2(float64(totalScore) / float64(maxScore) * 100)
	}

	weakConcepts = dedup(weakConcepts)
	suggestions, overall := s.overallFeedback(ctx, weakConcepts, percentage)

	if err := s.tracker.Update(ctx, mastery.UpdateInput{
		StudentID:    studentID,
		TestID:       test.TestID,
		Topic:        test.Topic,
		TotalScore:   totalScore,
		MaxScore:     maxScore,
		WeakConcepts: weakConcepts,
	}); err != nil {
		// Profile tracking must never fail an otherwise complete grading.
		fmt.Fprintf(os.Stderr, "warning: failed to update mastery profile: %v\n", err)
	}

	return &Result{
		TestID:                 test.TestID,
		StudentID:              studentID,
		TotalScore:             totalScore,
		MaxScore:               maxScore,
		Percentage:             percentage,
		QuestionFeedback:       feedback,
		WeakConcepts:           weakConcepts,
		ImprovementSuggestions: suggestions,
		OverallFeedback:        overall,
	}, nil
}

// evaluateMCQ scores locally and asks the model only for feedback text.
// A failed feedback call falls back to the stored explanation.
func (s *Service) evaluateMCQ(ctx context.Context, q assessment.Question, answer string) QuestionFeedback {
	isCorrect := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
	points := 0
	if isCorrect {
		points = q.Points
	}

	feedbackText := ""
	raw, err := s.client.CallJSON(llm.WithPurpose(ctx, "mcq-feedback"),
		MCQFeedbackPrompt(q, answer), llm.CallOptions{Temperature: evaluationTemperature})
	if err == nil {
		var mcq mcqFeedbackResult
		if jsonErr := json.Unmarshal(raw, &mcq); jsonErr == nil {
			feedbackText = mcq.Feedback
		}
	}
	if feedbackText == "" {
		verdict := "incorrect"
		if isCorrect {
			verdict = "correct"
		}
		feedbackText = fmt.Sprintf("Your answer is %s. %s", verdict, q.Explanation)
	}

	return QuestionFeedback{
		QuestionID:     q.QuestionID,
		QuestionType:   q.QuestionType,
		StudentAnswer:  answer,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      &isCorrect,
		PointsEarned:   points,
		PointsPossible: q.Points,
		Feedback:       feedbackText,
		ConceptTag:     q.ConceptTag,
	}
}

// evaluateRubric grades a free-form answer through the model. Backend
// failures and malformed or out-of-range scores are fatal.
func (s *Service) evaluateRubric(ctx context.Context, q assessment.Question, answer string) (QuestionFeedback, error) {
	raw, err := s.client.CallJSON(llm.WithPurpose(ctx, "rubric-eval"),
		RubricPrompt(q, answer), llm.CallOptions{Temperature: evaluationTemperature})
	if err != nil {
		return QuestionFeedback{}, err
	}

	if err := schema.Validate(rubricSchema, raw); err != nil {
		return QuestionFeedback{}, &assessment.ValidationError{
			Stage:   "rubric",
			Message: err.Error(),
		}
	}

	var rubric rubricResult
	if err := json.Unmarshal(raw, &rubric); err != nil {
		return QuestionFeedback{}, &assessment.ValidationError{
			Stage:   "rubric",
			Message: fmt.Sprintf("decode rubric result: %v", err),
		}
	}

	points := RubricPoints(rubric.AccuracyScore, rubric.ClarityScore, rubric.ExplanationScore, q.Points)

	return QuestionFeedback{
		QuestionID:            q.QuestionID,
		QuestionType:          q.QuestionType,
		StudentAnswer:         answer,
		CorrectAnswer:         q.CorrectAnswer,
		AccuracyScore:         &rubric.AccuracyScore,
		ClarityScore:          &rubric.ClarityScore,
		ExplanationScore:      &rubric.ExplanationScore,
		IsConceptuallyCorrect: &rubric.IsConceptuallyCorrect,
		PointsEarned:          points,
		PointsPossible:        q.Points,
		Feedback:              rubric.Feedback,
		ConceptTag:            q.ConceptTag,
	}, nil
}

// overallFeedback asks the model for whole-test commentary. Every
// failure path yields deterministic local fallbacks.
func (s *Service) overallFeedback(ctx context.Context, weakConcepts []string, percentage float64) ([]string, string) {
	raw, err := s.client.CallJSON(llm.WithPurpose(ctx, "overall-feedback"),
		OverallFeedbackPrompt(weakConcepts, percentage), llm.CallOptions{Temperature: overallTemperature})
	if err != nil {
		return []string{
			"Review the concepts you missed",
			"Practice more questions on weak topics",
			"Seek help from instructor on difficult areas",
		}, fmt.Sprintf("You scored %.1f%%. Keep practicing to improve!", percentage)
	}

	var overall overallResult
	if err := json.Unmarshal(raw, &overall); err != nil || len(overall.ImprovementSuggestions) == 0 || overall.OverallFeedback == "" {
		focus := "Continue practicing"
		if len(weakConcepts) > 0 {
			n := len(weakConcepts)
			if n > 3 {
				n = 3
			}
			focus = "Focus on improving: " + strings.Join(weakConcepts[:n], ", ")
		}
		return []string{
			focus,
			"Review explanations for incorrect answers",
			"Try more practice tests to strengthen understanding",
		}, fmt.Sprintf("Test completed with %.1f%% score. Review the feedback for each question.", percentage)
	}

	return overall.ImprovementSuggestions, overall.OverallFeedback
}

// RubricPoints converts three 0-5 rubric scores into question points.
// Integer division floors, so partial credit never rounds up.
func RubricPoints(accuracy, clarity, explanation, maxPoints int) int {
	return maxPoints * (accuracy + clarity + explanation) / maxRubricTotal
}

// unansweredFeedback is the fixed grading for a skipped question.
func unansweredFeedback(q assessment.Question) QuestionFeedback {
	return QuestionFeedback{
		QuestionID:     q.QuestionID,
		QuestionType:   q.QuestionType,
		StudentAnswer:  "",
		CorrectAnswer:  q.CorrectAnswer,
		PointsEarned:   0,
		PointsPossible: q.Points,
		Feedback:       "No answer provided.",
		ConceptTag:     q.ConceptTag,
	}
}

// rubricTotal sums the rubric dimensions of one feedback entry.
func rubricTotal(fb QuestionFeedback) int {
	total := 0
	if fb.AccuracyScore != nil {
		total += *fb.AccuracyScore
	}
	if fb.ClarityScore != nil {
		total += *fb.ClarityScore
	}
	if fb.ExplanationScore != nil {
		total += *fb.ExplanationScore
	}
	return total
}

// dedup removes duplicates preserving first-appearance order.
func dedup(concepts []string) []string {
	seen := make(map[string]bool, len(concepts))
	// Non-nil so a perfect test serializes as an empty list, not null.
	out := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
