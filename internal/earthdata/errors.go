package earthdata

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData signals that a source completed normally but holds no
	// observations for the request. Fallback chains treat it as
	// "try the next tier"; it is never surfaced to callers.
	ErrNoData = errors.New("no data available from source")

	// ErrTerminalRequest marks failures that retrying cannot fix:
	// malformed requests, unknown resources, rejected date ranges.
	ErrTerminalRequest = errors.New("terminal request error")
)

// TransientProviderError reports a retryable upstream failure that
// survived every attempt the retry policy allowed.
type TransientProviderError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *TransientProviderError) Error() string {
	return fmt.Sprintf("provider %s failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransientProviderError) Unwrap() error { return e.Err }

// TaskFailedError is the area workflow's explicit upstream failure: the
// provider itself marked the extraction task as errored.
type TaskFailedError struct {
	TaskID  string
	Message string
}

func (e *TaskFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("extraction task %s reported failure", e.TaskID)
	}
	return fmt.Sprintf("extraction task %s reported failure: %s", e.TaskID, e.Message)
}

// TaskTimeoutError means the polling budget ran out before the task
// reached a terminal state. The upstream task may still complete later;
// it is not retracted.
type TaskTimeoutError struct {
	TaskID string
	Polls  int
}

func (e *TaskTimeoutError) Error() string {
	return fmt.Sprintf("extraction task %s still unresolved after %d polls", e.TaskID, e.Polls)
}

// AuthenticationError wraps an invalid or expired session credential.
// The area adapter re-authenticates once before letting it escalate.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }
