package interfaces

import "context"

// Operator is the human in the loop
type Operator interface {
	// Pause shows message and blocks until the operator confirms
	Pause(ctx context.Context, message string) error
}
