package assessment

import "fmt"

// ValidationError describes model output that parsed as JSON but failed
// the expected structural contract. Always fatal for the call it occurs in.
type ValidationError struct {
	Stage   string // "generation", "rubric"
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation: %s", e.Stage, e.Message)
}
