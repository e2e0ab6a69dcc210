package provider

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/finreach/rocagent/internal/loop"
)

func returnControlEvent(invID string, fns ...types.FunctionInvocationInput) types.ResponseStream {
	inputs := make([]types.InvocationInputMember, 0, len(fns))
	for _, fn := range fns {
		inputs = append(inputs, &types.InvocationInputMemberMemberFunctionInvocationInput{Value: fn})
	}
	return &types.ResponseStreamMemberReturnControl{Value: types.ReturnControlPayload{
		InvocationId:     aws.String(invID),
		InvocationInputs: inputs,
	}}
}

func chunkEvent(text string) types.ResponseStream {
	return &types.ResponseStreamMemberChunk{Value: types.PayloadPart{Bytes: []byte(text)}}
}

func TestDecisionFromEvents_ReturnControl(t *testing.T) {
	events := []types.ResponseStream{
		returnControlEvent("inv-1", types.FunctionInvocationInput{
			ActionGroup: aws.String("mortgage-evaluation"),
			Function:    aws.String("get_asset_value"),
			Parameters: []types.FunctionParameter{
				{Name: aws.String("asset_holder_id"), Value: aws.String("AVC-1234")},
			},
		}),
	}

	d := decisionFromEvents(events)
	if d.Kind != loop.DecisionActions {
		t.Fatalf("kind: got %s want actions", d.Kind)
	}
	if len(d.Actions) != 1 {
		t.Fatalf("actions: got %d want 1", len(d.Actions))
	}
	a := d.Actions[0]
	if a.InvocationID != "inv-1" || a.ToolName != "get_asset_value" {
		t.Errorf("unexpected action: %+v", a)
	}
	if a.Arguments["asset_holder_id"] != "AVC-1234" {
		t.Errorf("arguments: %v", a.Arguments)
	}
}

func TestDecisionFromEvents_ParallelActionsShareInvocationID(t *testing.T) {
	events := []types.ResponseStream{
		returnControlEvent("inv-7",
			types.FunctionInvocationInput{Function: aws.String("get_asset_value")},
			types.FunctionInvocationInput{Function: aws.String("get_mortgage_rate")},
		),
	}

	d := decisionFromEvents(events)
	if d.Kind != loop.DecisionActions || len(d.Actions) != 2 {
		t.Fatalf("unexpected decision: %+v", d)
	}
	for _, a := range d.Actions {
		if a.InvocationID != "inv-7" {
			t.Errorf("invocation ID: got %q want inv-7", a.InvocationID)
		}
	}
}

func TestDecisionFromEvents_ChunksBecomeFinish(t *testing.T) {
	events := []types.ResponseStream{
		chunkEvent("The mortgage rate is "),
		chunkEvent("8.87%."),
	}

	d := decisionFromEvents(events)
	if d.Kind != loop.DecisionFinish {
		t.Fatalf("kind: got %s want finish", d.Kind)
	}
	if d.Output != "The mortgage rate is 8.87%." {
		t.Errorf("output: %q", d.Output)
	}
}

func TestDecisionFromEvents_EmptyStreamIsUnknown(t *testing.T) {
	if d := decisionFromEvents(nil); d.Kind != loop.DecisionUnknown {
		t.Fatalf("kind: got %s want unknown", d.Kind)
	}
	// A return-control payload with no function inputs is unknown too.
	d := decisionFromEvents([]types.ResponseStream{returnControlEvent("inv-9")})
	if d.Kind != loop.DecisionUnknown {
		t.Fatalf("kind: got %s want unknown", d.Kind)
	}
}

func TestSessionState_FirstTurnIsNil(t *testing.T) {
	b := NewBedrockAgent(nil, "agent", "alias", "mortgage-evaluation")
	sess := &loop.Session{ID: "s1", Input: "what is my rate"}
	if state := b.sessionState(sess); state != nil {
		t.Fatalf("expected nil state on first turn, got %+v", state)
	}
}

func TestSessionState_ReturnsOnlyPendingInvocationResults(t *testing.T) {
	b := NewBedrockAgent(nil, "agent", "alias", "mortgage-evaluation")

	older := loop.StepRecord{
		Action: loop.ActionRequest{InvocationID: "inv-1", ToolName: "get_asset_value"},
		Result: "The total asset value for AVC-1234 is 100K",
	}
	pending := loop.StepRecord{
		Action: loop.ActionRequest{InvocationID: "inv-2", ToolName: "get_mortgage_rate"},
		Result: "The mortgage rate for AVC-1234 with asset value of 100K is 8.87%",
	}
	sess := &loop.Session{
		ID:    "s1",
		Steps: []loop.StepRecord{older, pending},
		LastDecision: loop.Decision{
			Kind:    loop.DecisionActions,
			Actions: []loop.ActionRequest{pending.Action},
		},
	}

	state := b.sessionState(sess)
	if state == nil {
		t.Fatal("expected session state")
	}
	if aws.ToString(state.InvocationId) != "inv-2" {
		t.Errorf("invocation ID: got %q", aws.ToString(state.InvocationId))
	}
	if len(state.ReturnControlInvocationResults) != 1 {
		t.Fatalf("results: got %d want 1", len(state.ReturnControlInvocationResults))
	}

	fr, ok := state.ReturnControlInvocationResults[0].(*types.InvocationResultMemberMemberFunctionResult)
	if !ok {
		t.Fatalf("unexpected result member %T", state.ReturnControlInvocationResults[0])
	}
	if aws.ToString(fr.Value.Function) != "get_mortgage_rate" {
		t.Errorf("function: got %q", aws.ToString(fr.Value.Function))
	}
	if aws.ToString(fr.Value.ActionGroup) != "mortgage-evaluation" {
		t.Errorf("action group: got %q", aws.ToString(fr.Value.ActionGroup))
	}
	body := fr.Value.ResponseBody["TEXT"]
	if aws.ToString(body.Body) != pending.Result {
		t.Errorf("body: got %q", aws.ToString(body.Body))
	}
}
