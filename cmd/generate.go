package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"examly/internal/assessment"
	"examly/internal/testgen"
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate a new test on a topic",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := strings.Join(args, " ")
		difficulty, _ := cmd.Flags().GetString("difficulty")
		num, _ := cmd.Flags().GetInt("questions")
		typeNames, _ := cmd.Flags().GetStringSlice("types")

		types := make([]assessment.QuestionType, len(typeNames))
		for i, t := range typeNames {
			types[i] = assessment.QuestionType(t)
		}

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := a.requestContext(cmd.Context())
		defer cancel()

		result, err := a.generator.Generate(ctx, testgen.Request{
			Topic:         topic,
			Difficulty:    assessment.Difficulty(difficulty),
			NumQuestions:  num,
			QuestionTypes: types,
		})
		if err != nil {
			return err
		}

		printTest(result)
		return nil
	},
}

func printTest(result *testgen.Result) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Test %s", result.TestID)))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%s · %s · %d questions · %d points",
		result.Topic, result.Difficulty, result.NumQuestions, result.TotalPoints)))
	fmt.Println()

	for i, q := range result.Questions {
		fmt.Println(headingStyle.Render(fmt.Sprintf("%d. [%s, %d pts] %s",
			i+1, q.QuestionType, q.Points, q.QuestionID)))
		fmt.Println(q.QuestionText)
		for _, opt := range q.MCQOptions {
			fmt.Printf("   %s) %s\n", opt.Label, opt.Option)
		}
		fmt.Println()
	}

	fmt.Println(dimStyle.Render(fmt.Sprintf("Answer with: examly evaluate %s --answer <question_id>=<answer>", result.TestID)))
}

func init() {
	generateCmd.Flags().StringP("difficulty", "d", "", "Difficulty: easy, medium, hard (default medium)")
	generateCmd.Flags().IntP("questions", "n", 0, "Number of questions (default 5, max 20)")
	generateCmd.Flags().StringSlice("types", nil, "Question types: mcq, short, numerical (default all)")
}
