package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"examly/internal/assessment"
)

// TestRepo persists generated tests in their full, answer-bearing form.
// Tests are insert-only: there is no update or delete.
type TestRepo interface {
	// Put stores a generated test. The test id is expected to be fresh.
	Put(ctx context.Context, t *assessment.Test) error

	// Get retrieves a test by id. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, testID string) (*assessment.Test, error)
}

type testRepo struct {
	db *sql.DB
}

func (r *testRepo) Put(ctx context.Context, t *assessment.Test) error {
	questions, err := json.Marshal(t.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO tests (test_id, topic, difficulty, questions, created_at) VALUES (?, ?, ?, ?, ?)",
		t.TestID, t.Topic, string(t.Difficulty), string(questions), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert test %s: %w", t.TestID, err)
	}
	return nil
}

func (r *testRepo) Get(ctx context.Context, testID string) (*assessment.Test, error) {
	var t assessment.Test
	var difficulty, questions string

	err := r.db.QueryRowContext(ctx,
		"SELECT test_id, topic, difficulty, questions, created_at FROM tests WHERE test_id = ?",
		testID).Scan(&t.TestID, &t.Topic, &difficulty, &questions, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("test %s: %w", testID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query test %s: %w", testID, err)
	}

	t.Difficulty = assessment.Difficulty(difficulty)
	if err := json.Unmarshal([]byte(questions), &t.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions for %s: %w", testID, err)
	}
	return &t, nil
}
