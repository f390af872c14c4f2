package evaluation

import (
	"fmt"
	"strings"

	"examly/internal/assessment"
)

// MCQFeedbackPrompt asks the model for feedback on an already-graded
// multiple-choice answer. Correctness is decided locally, never by the
// model.
func MCQFeedbackPrompt(q assessment.Question, studentAnswer string) string {
	return fmt.Sprintf(`Evaluate this multiple-choice question answer.

Question: %s
Correct Answer: %s
Student Answer: %s
Explanation: %s
Concept: %s

Since this is MCQ, evaluate if the student's answer matches the correct answer exactly.

OUTPUT FORMAT (JSON only):
{
    "is_correct": true or false,
    "feedback": "Brief feedback explaining why the answer is correct/incorrect and what concept it tests"
}

Return ONLY the JSON. No markdown, no explanations.`,
		q.QuestionText, q.CorrectAnswer, studentAnswer, q.Explanation, q.ConceptTag)
}

// RubricPrompt asks the model to grade a free-form answer on three
// rubric dimensions, each 0 to 5.
func RubricPrompt(q assessment.Question, studentAnswer string) string {
	kind := "short answer"
	if q.QuestionType == assessment.TypeNumerical {
		kind = "numerical"
	}

	return fmt.Sprintf(`Evaluate this %s question response using a strict rubric.

Question: %s
Correct/Expected Answer: %s
Student Answer: %s
Explanation: %s
Concept: %s

EVALUATION RUBRIC (0-5 scale for each):

1. ACCURACY (0-5):
   - 5: Perfectly accurate, all key points correct
   - 4: Mostly accurate, minor errors
   - 3: Partially accurate, some key points missing
   - 2: Significant inaccuracies
   - 1: Mostly incorrect
   - 0: Completely wrong or no answer

2. CONCEPTUAL CLARITY (0-5):
   - 5: Demonstrates deep understanding of concept
   - 4: Good understanding, well explained
   - 3: Basic understanding shown
   - 2: Vague or confused understanding
   - 1: Minimal understanding
   - 0: No understanding demonstrated

3. EXPLANATION QUALITY (0-5):
   - 5: Clear, logical, well-structured explanation
   - 4: Good explanation with minor gaps
   - 3: Adequate explanation
   - 2: Poorly structured or incomplete
   - 1: Minimal explanation
   - 0: No explanation or incomprehensible

OUTPUT FORMAT (JSON only):
{
    "accuracy_score": 0-5,
    "clarity_score": 0-5,
    "explanation_score": 0-5,
    "feedback": "Detailed feedback explaining the scores and what the student did well or needs to improve. Be specific and constructive.",
    "is_conceptually_correct": true or false (overall assessment)
}

Return ONLY the JSON. No markdown, no explanations, no code blocks.`,
		kind, q.QuestionText, q.CorrectAnswer, studentAnswer, q.Explanation, q.ConceptTag)
}

// OverallFeedbackPrompt asks for whole-test feedback given the final
// percentage and the identified weak concepts.
func OverallFeedbackPrompt(weakConcepts []string, percentage float64) string {
	weak := "none identified"
	if len(weakConcepts) > 0 {
		weak = strings.Join(weakConcepts, ", ")
	}

	return fmt.Sprintf(`Generate personalized overall feedback for a student's test performance.

Total Score: %.1f%%
Weak Concepts: %s

Provide:
1. Overall assessment of performance
2. Specific areas needing improvement
3. 2-3 actionable study suggestions

Keep feedback encouraging but honest. Focus on growth mindset.

OUTPUT FORMAT (JSON only):
{
    "improvement_suggestions": [
        "Specific suggestion 1",
        "Specific suggestion 2",
        "Specific suggestion 3"
    ],
    "overall_feedback": "Brief overall assessment and encouragement (2-3 sentences)"
}

Return ONLY the JSON. No markdown, no code blocks.`, percentage, weak)
}
