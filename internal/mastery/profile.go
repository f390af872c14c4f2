// Package mastery tracks per-student learning state across evaluations:
// test history, a monotone weak-concept set, and a running average score.
package mastery

import "time"

// TestRecord is one evaluated test in a student's history.
type TestRecord struct {
	TestID       string    `json:"test_id"`
	Topic        string    `json:"topic"`
	Score        int       `json:"score"`
	MaxScore     int       `json:"max_score"`
	Percentage   float64   `json:"percentage"`
	Timestamp    time.Time `json:"timestamp"`
	WeakConcepts []string  `json:"weak_concepts"`
}

// StudentProfile is the durable per-learner aggregate. Created lazily on
// first evaluation, mutated on every subsequent one, never deleted.
type StudentProfile struct {
	StudentID    string       `json:"student_id"`
	TestHistory  []TestRecord `json:"test_history"`
	WeakConcepts []string     `json:"weak_concepts"`
	TotalTests   int          `json:"total_tests"`
	AverageScore float64      `json:"average_score"`
}
