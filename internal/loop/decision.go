package loop

import "context"

// DecisionKind tags the variant carried by a Decision.
type DecisionKind int

const (
	// DecisionUnknown is the zero value; adapters return it when the
	// service response matches neither actions nor a finish.
	DecisionUnknown DecisionKind = iota
	// DecisionActions carries one or more tool invocation requests.
	DecisionActions
	// DecisionFinish carries the final answer text.
	DecisionFinish
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionActions:
		return "actions"
	case DecisionFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ActionRequest is a single tool invocation requested by the remote service.
type ActionRequest struct {
	// InvocationID is the correlation ID assigned by the service; adapters
	// use it to route results back. May be empty for services without one.
	InvocationID string
	ToolName     string
	Arguments    map[string]string
}

// Decision is the remote service's per-turn output, modelled as one explicit
// tagged variant.
type Decision struct {
	Kind    DecisionKind
	Actions []ActionRequest // set when Kind == DecisionActions
	Output  string          // set when Kind == DecisionFinish
}

// StepRecord pairs an executed ActionRequest with its textual result.
type StepRecord struct {
	Action ActionRequest
	Result string
}

// Session holds one end-to-end exchange: the original input, the ordered
// step records accumulated so far, and the most recent decision. It is
// owned exclusively by the loop instance running it.
type Session struct {
	ID           string
	Input        string
	Steps        []StepRecord
	LastDecision Decision
}

// DecisionService produces the next Decision for a session. Adapters over
// concrete transports (Bedrock agent runtime, Anthropic Messages) live in
// internal/provider.
type DecisionService interface {
	Decide(ctx context.Context, sess *Session) (Decision, error)
}
