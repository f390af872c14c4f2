package mastery

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// ProfileStore is the persistence contract the tracker needs.
// Get returns (nil, nil) when no profile exists yet.
type ProfileStore interface {
	Get(ctx context.Context, studentID string) (*StudentProfile, error)
	Save(ctx context.Context, profile *StudentProfile) error
}

// UpdateInput carries one evaluation's outcome into the tracker.
type UpdateInput struct {
	StudentID    string
	TestID       string
	Topic        string
	TotalScore   int
	MaxScore     int
	WeakConcepts []string
}

// Tracker maintains student profiles. The read-modify-write cycle for one
// student is serialized with a per-student lock so concurrent submissions
// for the same learner cannot lose updates.
type Tracker struct {
	profiles ProfileStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a Tracker over the given profile store.
func NewTracker(profiles ProfileStore) *Tracker {
	return &Tracker{
		profiles: profiles,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Update appends a timestamped test record to the student's history, unions
// the weak concepts into the profile's running set, and recomputes the
// average score as the unweighted mean of all historical percentages.
// The profile is created lazily on first update.
func (t *Tracker) Update(ctx context.Context, in UpdateInput) error {
	if in.StudentID == "" {
		return fmt.Errorf("student id must not be empty")
	}

	lock := t.lockFor(in.StudentID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := t.profiles.Get(ctx, in.StudentID)
	if err != nil {
		return fmt.Errorf("load profile %s: %w", in.StudentID, err)
	}
	if profile == nil {
		profile = &StudentProfile{StudentID: in.StudentID}
	}

	percentage := 0.0
	if in.MaxScore > 0 {
		percentage = round2(float64(in.TotalScore) / float64(in.MaxScore) * 100)
	}

	profile.TestHistory = append(profile.TestHistory, TestRecord{
		TestID:       in.TestID,
		Topic:        in.Topic,
		Score:        in.TotalScore,
		MaxScore:     in.MaxScore,
		Percentage:   percentage,
		Timestamp:    time.Now().UTC(),
		WeakConcepts: in.WeakConcepts,
	})

	profile.WeakConcepts = union(profile.WeakConcepts, in.WeakConcepts)
	profile.TotalTests = len(profile.TestHistory)

	sum := 0.0
	for _, rec := range profile.TestHistory {
		sum += rec.Percentage
	}
	profile.AverageScore = round2(sum / float64(profile.TotalTests))

	if err := t.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile %s: %w", in.StudentID, err)
	}
	return nil
}

// GetProfile returns the student's profile, or (nil, nil) if the student
// has never been evaluated.
func (t *Tracker) GetProfile(ctx context.Context, studentID string) (*StudentProfile, error) {
	return t.profiles.Get(ctx, studentID)
}

// GetWeakConcepts returns the student's accumulated weak concepts.
// Empty for unknown students.
func (t *Tracker) GetWeakConcepts(ctx context.Context, studentID string) ([]string, error) {
	profile, err := t.profiles.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}
	return profile.WeakConcepts, nil
}

// lockFor returns the mutex guarding one student's profile.
func (t *Tracker) lockFor(studentID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.locks[studentID]; ok {
		return l
	}
	l := &sync.Mutex{}
	t.locks[studentID] = l
	return l
}

// union appends items from add that are not already in dst, preserving
// first-appearance order. The set only grows.
func union(dst, add []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, c := range dst {
		seen[c] = true
	}
	for _, c := range add {
		if !seen[c] {
			seen[c] = true
			dst = append(dst, c)
		}
	}
	return dst
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
