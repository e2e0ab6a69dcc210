package loop

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finreach/rocagent/internal/telemetry"
	"github.com/finreach/rocagent/tools"
)

// DefaultMaxTurns bounds a session when the caller does not choose a limit.
// The loop itself imposes no bound; without one a misbehaving service could
// spin forever.
const DefaultMaxTurns = 8

// state is the loop's position in a session.
type state int

const (
	awaitingDecision state = iota
	dispatching
	done
)

// Loop drives one session at a time: it submits the session to the decision
// service, dispatches whichever tools the service asks for, and feeds the
// results back until the service finishes.
type Loop struct {
	svc      DecisionService
	tools    map[string]tools.Definition
	maxTurns int
	parallel bool
	log      zerolog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxTurns overrides the turn budget. n <= 0 removes the bound entirely;
// callers doing that must guarantee termination some other way.
func WithMaxTurns(n int) Option {
	return func(l *Loop) { l.maxTurns = n }
}

// WithParallelDispatch executes a turn's requests concurrently. Requests
// within a turn are independent by construction, so this only changes
// latency; results are still recorded in request order.
func WithParallelDispatch() Option {
	return func(l *Loop) { l.parallel = true }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// New builds a Loop over svc and the given tool definitions. The definitions
// are copied into an internal map and never mutated afterwards.
func New(svc DecisionService, defs []tools.Definition, opts ...Option) *Loop {
	m := make(map[string]tools.Definition, len(defs))
	for _, d := range defs {
		m[d.Name] = d
	}
	l := &Loop{
		svc:      svc,
		tools:    m,
		maxTurns: DefaultMaxTurns,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is what a finished session yields.
type Result struct {
	SessionID string
	Output    string
	Steps     []StepRecord
	Turns     int
}

// Run processes one session from input to finish. On success it returns the
// final output and the full ordered step record sequence. Any tool or
// service failure aborts the session at that turn.
func (l *Loop) Run(ctx context.Context, input string) (*Result, error) {
	sess := &Session{ID: uuid.NewString(), Input: input}
	ctx = telemetry.WithSessionID(ctx, sess.ID)

	st := awaitingDecision
	turns := 0
	for {
		switch st {
		case awaitingDecision:
			if l.maxTurns > 0 && turns >= l.maxTurns {
				return nil, ErrTurnLimit
			}
			turns++

			d, err := l.svc.Decide(ctx, sess)
			if err != nil {
				return nil, &RemoteServiceError{Err: err}
			}
			sess.LastDecision = d

			l.log.Debug().
				Str("session_id", sess.ID).
				Int("turn", turns).
				Stringer("kind", d.Kind).
				Int("actions", len(d.Actions)).
				Msg("decision received")
			telemetry.Emit("decision_received", map[string]any{
				"session_id": sess.ID,
				"turn":       turns,
				"kind":       d.Kind.String(),
				"actions":    len(d.Actions),
			})

			switch d.Kind {
			case DecisionFinish:
				st = done
			case DecisionActions:
				// An empty action list is neither dispatchable nor a
				// finish; surface it instead of terminating silently.
				if len(d.Actions) == 0 {
					return nil, &UnrecognizedDecisionError{Kind: d.Kind}
				}
				st = dispatching
			default:
				return nil, &UnrecognizedDecisionError{Kind: d.Kind}
			}

		case dispatching:
			if err := l.dispatch(ctx, sess, sess.LastDecision.Actions); err != nil {
				return nil, err
			}
			st = awaitingDecision

		case done:
			telemetry.Emit("session_done", map[string]any{
				"session_id": sess.ID,
				"turns":      turns,
				"steps":      len(sess.Steps),
			})
			return &Result{SessionID: sess.ID, Output: sess.LastDecision.Output, Steps: sess.Steps, Turns: turns}, nil
		}
	}
}

// dispatch executes every action of one turn and appends a step record per
// action, in request order.
func (l *Loop) dispatch(ctx context.Context, sess *Session, actions []ActionRequest) error {
	if l.parallel && len(actions) > 1 {
		results := make([]string, len(actions))
		g, gctx := errgroup.WithContext(ctx)
		for i, a := range actions {
			g.Go(func() error {
				out, err := l.execute(gctx, a)
				if err != nil {
					return err
				}
				results[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for i, a := range actions {
			sess.Steps = append(sess.Steps, StepRecord{Action: a, Result: results[i]})
		}
		return nil
	}

	for _, a := range actions {
		out, err := l.execute(ctx, a)
		if err != nil {
			return err
		}
		sess.Steps = append(sess.Steps, StepRecord{Action: a, Result: out})
	}
	return nil
}

// execute runs a single tool and emits a tool_exec event either way.
func (l *Loop) execute(ctx context.Context, a ActionRequest) (string, error) {
	sessionID, _ := telemetry.SessionIDFromContext(ctx)

	emit := func(durationMs int64, outputSize int, errStr string) {
		fields := map[string]any{
			"session_id":  sessionID,
			"tool_name":   a.ToolName,
			"duration_ms": durationMs,
			"output_size": outputSize,
		}
		if errStr != "" {
			fields["error"] = errStr
		} else {
			fields["error"] = nil
		}
		telemetry.Emit("tool_exec", fields)
	}

	start := time.Now()
	def, ok := l.tools[a.ToolName]
	if !ok {
		emit(time.Since(start).Milliseconds(), 0, "unknown tool")
		return "", &UnknownToolError{Tool: a.ToolName}
	}

	out, err := def.Function(a.Arguments)
	if err != nil {
		// Keep telemetry generic; the detailed cause travels with the error.
		emit(time.Since(start).Milliseconds(), 0, "tool error")
		return "", &ToolExecutionError{Tool: a.ToolName, Err: err}
	}
	emit(time.Since(start).Milliseconds(), len(out), "")
	return out, nil
}
