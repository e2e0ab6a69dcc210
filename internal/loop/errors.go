package loop

import (
	"errors"
	"fmt"
)

// ErrTurnLimit reports that the configured turn budget ran out before the
// service finished.
var ErrTurnLimit = errors.New("turn limit reached before finish")

// UnknownToolError reports an action naming a tool that is not registered.
// Local and non-retryable.
type UnknownToolError struct {
	Tool string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

// ToolExecutionError wraps a failure raised by a tool body. The session
// halts at the failing turn; nothing is retried.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// RemoteServiceError wraps an opaque failure from the decision service. The
// cause is carried unchanged and exposed via Unwrap.
type RemoteServiceError struct {
	Err error
}

func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("decision service: %v", e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// UnrecognizedDecisionError reports a service response that is neither a
// non-empty action list nor a finish signal.
type UnrecognizedDecisionError struct {
	Kind DecisionKind
}

func (e *UnrecognizedDecisionError) Error() string {
	return fmt.Sprintf("unrecognized decision (kind %s)", e.Kind)
}
