package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"examly/internal/assessment"
	"examly/internal/evaluation"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <test-id>",
	Short: "Grade a submission against a stored test",
	Long: `Grade answers for a previously generated test.

Answers come from repeated --answer flags (question_id=answer) or from a
JSON file of {"question_id": "...", "answer": "..."} objects. Skipped
questions score zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		testID := args[0]
		student, _ := cmd.Flags().GetString("student")
		pairs, _ := cmd.Flags().GetStringArray("answer")
		answersFile, _ := cmd.Flags().GetString("answers-file")

		answers, err := collectAnswers(pairs, answersFile)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := a.requestContext(cmd.Context())
		defer cancel()

		result, err := a.evaluator.Evaluate(ctx, evaluation.Request{
			TestID:    testID,
			StudentID: student,
			Answers:   answers,
		})
		if err != nil {
			return err
		}

		printReport(result)
		return nil
	},
}

// collectAnswers merges file answers with --answer pairs; flags win on
// duplicate question ids.
func collectAnswers(pairs []string, file string) ([]assessment.StudentAnswer, error) {
	var answers []assessment.StudentAnswer

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read answers file: %w", err)
		}
		if err := json.Unmarshal(data, &answers); err != nil {
			return nil, fmt.Errorf("parse answers file: %w", err)
		}
	}

	index := make(map[string]int, len(answers))
	for i, a := range answers {
		index[a.QuestionID] = i
	}

	for _, pair := range pairs {
		id, answer, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --answer %q, expected question_id=answer", pair)
		}
		if i, seen := index[id]; seen {
			answers[i].Answer = answer
			continue
		}
		index[id] = len(answers)
		answers = append(answers, assessment.StudentAnswer{QuestionID: id, Answer: answer})
	}

	return answers, nil
}

func printReport(result *evaluation.Result) {
	scoreStyle := correctStyle
	if result.Percentage < 60 {
		scoreStyle = incorrectStyle
	}

	header := fmt.Sprintf("%s\n%s",
		titleStyle.Render(fmt.Sprintf("Test %s · %s", result.TestID, result.StudentID)),
		scoreStyle.Render(fmt.Sprintf("Score: %d/%d (%.2f%%)", result.TotalScore, result.MaxScore, result.Percentage)))
	fmt.Println(cardStyle.Render(header))
	fmt.Println()

	for i, fb := range result.QuestionFeedback {
		fmt.Println(headingStyle.Render(fmt.Sprintf("%d. %s [%s] %d/%d pts",
			i+1, fb.QuestionID, fb.QuestionType, fb.PointsEarned, fb.PointsPossible)))

		switch {
		case fb.StudentAnswer == "":
			fmt.Println(incorrectStyle.Render("   unanswered"))
		case fb.IsCorrect != nil && *fb.IsCorrect:
			fmt.Println(correctStyle.Render("   correct"))
		case fb.IsCorrect != nil:
			fmt.Println(incorrectStyle.Render(fmt.Sprintf("   incorrect (answer: %s)", fb.CorrectAnswer)))
		default:
			fmt.Printf("   accuracy %d/5 · clarity %d/5 · explanation %d/5\n",
				deref(fb.AccuracyScore), deref(fb.ClarityScore), deref(fb.ExplanationScore))
		}

		fmt.Println(dimStyle.Render("   " + fb.Feedback))
		fmt.Println()
	}

	if len(result.WeakConcepts) > 0 {
		fmt.Println(headingStyle.Render("Weak concepts"))
		for _, c := range result.WeakConcepts {
			fmt.Printf("  - %s\n", c)
		}
		fmt.Println()
	}

	fmt.Println(headingStyle.Render("Suggestions"))
	for _, s := range result.ImprovementSuggestions {
		fmt.Printf("  - %s\n", s)
	}
	fmt.Println()
	fmt.Println(result.OverallFeedback)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func init() {
	evaluateCmd.Flags().StringP("student", "s", "", "Student id (default \"default_student\")")
	evaluateCmd.Flags().StringArrayP("answer", "a", nil, "Answer as question_id=answer (repeatable)")
	evaluateCmd.Flags().StringP("answers-file", "f", "", "JSON file with student answers")
}
