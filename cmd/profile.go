package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"examly/internal/evaluation"
	"examly/internal/mastery"
)

var profileCmd = &cobra.Command{
	Use:   "profile [student-id]",
	Short: "Show a student's mastery profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID := evaluation.DefaultStudentID
		if len(args) > 0 {
			studentID = args[0]
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		tracker := mastery.NewTracker(s.ProfileRepo())
		profile, err := tracker.GetProfile(cmd.Context(), studentID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if profile == nil {
			fmt.Printf("No profile for student %q yet.\n", studentID)
			return nil
		}

		printProfile(profile)
		return nil
	},
}

func printProfile(p *mastery.StudentProfile) {
	fmt.Println(titleStyle.Render("Student " + p.StudentID))
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d tests · average %.2f%%", p.TotalTests, p.AverageScore)))
	fmt.Println()

	if len(p.TestHistory) > 0 {
		fmt.Println(headingStyle.Render("History"))
		for _, rec := range p.TestHistory {
			fmt.Printf("  %s  %-24s  %3d/%-3d  %6.2f%%  %s\n",
				rec.Timestamp.Local().Format("2006-01-02 15:04"),
				truncate(rec.Topic, 24),
				rec.Score, rec.MaxScore, rec.Percentage, rec.TestID)
		}
		fmt.Println()
	}

	if len(p.WeakConcepts) > 0 {
		fmt.Println(headingStyle.Render("Weak concepts"))
		for _, c := range p.WeakConcepts {
			fmt.Printf("  - %s\n", c)
		}
	}
}
