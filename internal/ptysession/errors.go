package ptysession

import "fmt"

// SpawnError reports that the process could not be started: the executable
// is missing, the working directory does not exist, or the PTY could not be
// allocated.
type SpawnError struct {
	Command string
	Cause   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Cause)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}
