package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"examly/internal/mastery"
)

// ProfileRepo persists student profiles. It satisfies mastery.ProfileStore:
// Get returns (nil, nil) for unknown students, Save upserts.
type ProfileRepo struct {
	db *sql.DB
}

var _ mastery.ProfileStore = (*ProfileRepo)(nil)

func (r *ProfileRepo) Get(ctx context.Context, studentID string) (*mastery.StudentProfile, error) {
	var p mastery.StudentProfile
	var history, weak string

	err := r.db.QueryRowContext(ctx,
		"SELECT student_id, test_history, weak_concepts, total_tests, average_score FROM student_profiles WHERE student_id = ?",
		studentID).Scan(&p.StudentID, &history, &weak, &p.TotalTests, &p.AverageScore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile %s: %w", studentID, err)
	}

	if err := json.Unmarshal([]byte(history), &p.TestHistory); err != nil {
		return nil, fmt.Errorf("unmarshal history for %s: %w", studentID, err)
	}
	if err := json.Unmarshal([]byte(weak), &p.WeakConcepts); err != nil {
		return nil, fmt.Errorf("unmarshal weak concepts for %s: %w", studentID, err)
	}
	return &p, nil
}

func (r *ProfileRepo) Save(ctx context.Context, p *mastery.StudentProfile) error {
	history, err := json.Marshal(p.TestHistory)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	weak, err := json.Marshal(p.WeakConcepts)
	if err != nil {
		return fmt.Errorf("marshal weak concepts: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO student_profiles (student_id, test_history, weak_concepts, total_tests, average_score, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(student_id) DO UPDATE SET
			test_history = excluded.test_history,
			weak_concepts = excluded.weak_concepts,
			total_tests = excluded.total_tests,
			average_score = excluded.average_score,
			updated_at = excluded.updated_at`,
		p.StudentID, string(history), string(weak), p.TotalTests, p.AverageScore, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.StudentID, err)
	}
	return nil
}
