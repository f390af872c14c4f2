package testgen

import (
	"fmt"
	"strings"

	"examly/internal/assessment"
)

// GenerationPrompt renders the deterministic instruction text for test
// generation. Same inputs always produce the same prompt.
func GenerationPrompt(topic string, difficulty assessment.Difficulty, numQuestions int, types []assessment.QuestionType) string {
	typeNames := make([]string, len(types))
	for i, t := range types {
		typeNames[i] = string(t)
	}
	typesStr := strings.Join(typeNames, ", ")

	return fmt.Sprintf(`Generate exactly %d test questions on the topic: %q.

Difficulty level: %s
Question types to include: %s

STRICT REQUIREMENTS:
1. Generate diverse questions covering different aspects of the topic
2. Each question must be clear, unambiguous, and educational
3. For MCQ questions: provide 4 options labeled A, B, C, D
4. For short answer: expect 2-4 sentence responses
5. For numerical: expect numeric answers with units if applicable
6. Difficulty must match: %s
   - easy: basic recall and understanding
   - medium: application and analysis
   - hard: synthesis and evaluation
7. Each question worth 10 points
8. MANDATORY: Every question MUST include "explanation" and "concept_tag" fields

OUTPUT FORMAT (JSON only):
{
    "questions": [
        {
            "question_id": "q1",
            "question_text": "What is...",
            "question_type": "mcq",
            "mcq_options": [
                {"option": "Choice A", "label": "A"},
                {"option": "Choice B", "label": "B"},
                {"option": "Choice C", "label": "C"},
                {"option": "Choice D", "label": "D"}
            ],
            "correct_answer": "A",
            "explanation": "Detailed explanation of why this is correct and what concept it tests",
            "concept_tag": "main_concept_being_tested",
            "points": 10
        },
        {
            "question_id": "q2",
            "question_text": "Explain...",
            "question_type": "short",
            "mcq_options": null,
            "correct_answer": "Expected answer content...",
            "explanation": "What a good answer should include and why",
            "concept_tag": "specific_concept_name",
            "points": 10
        },
        {
            "question_id": "q3",
            "question_text": "Calculate...",
            "question_type": "numerical",
            "mcq_options": null,
            "correct_answer": "42.5 meters",
            "explanation": "Step-by-step calculation and reasoning behind the answer",
            "concept_tag": "specific_concept_name",
            "points": 10
        }
    ]
}

Return ONLY the JSON. No markdown, no explanations, no code blocks.`,
		numQuestions, topic, difficulty, typesStr, difficulty)
}
