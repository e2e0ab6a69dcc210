package provider

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/finreach/rocagent/internal/loop"
)

// InvokeAgentAPI is the slice of the Bedrock agent runtime client used here.
type InvokeAgentAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// BedrockAgent drives a return-of-control Bedrock agent. The agent holds the
// conversation server-side keyed by session ID; each turn either opens with
// the user input or hands back the previous turn's tool results.
type BedrockAgent struct {
	client      InvokeAgentAPI
	agentID     string
	aliasID     string
	actionGroup string
}

// NewBedrockAgent wraps client for the given agent, alias and action group.
func NewBedrockAgent(client InvokeAgentAPI, agentID, aliasID, actionGroup string) *BedrockAgent {
	return &BedrockAgent{client: client, agentID: agentID, aliasID: aliasID, actionGroup: actionGroup}
}

// NewBedrockRuntimeClient builds a Bedrock agent runtime client from the
// default AWS credential chain.
func NewBedrockRuntimeClient(ctx context.Context, region string) (*bedrockagentruntime.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return bedrockagentruntime.NewFromConfig(cfg), nil
}

// Decide submits the session and folds the response event stream into a
// Decision. Transport and stream errors propagate unchanged.
func (b *BedrockAgent) Decide(ctx context.Context, sess *loop.Session) (loop.Decision, error) {
	in := &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(b.agentID),
		AgentAliasId: aws.String(b.aliasID),
		SessionId:    aws.String(sess.ID),
	}
	if state := b.sessionState(sess); state != nil {
		in.SessionState = state
	} else {
		in.InputText = aws.String(sess.Input)
	}

	out, err := b.client.InvokeAgent(ctx, in)
	if err != nil {
		return loop.Decision{}, err
	}

	stream := out.GetStream()
	defer stream.Close()

	var events []types.ResponseStream
	for ev := range stream.Events() {
		events = append(events, ev)
	}
	if err := stream.Err(); err != nil {
		return loop.Decision{}, err
	}
	return decisionFromEvents(events), nil
}

// sessionState builds the return-control results for the most recent turn,
// or nil when the session has not dispatched anything yet. Only the steps
// belonging to the pending invocation ID are handed back; earlier turns
// already live in the agent's server-side session.
func (b *BedrockAgent) sessionState(sess *loop.Session) *types.SessionState {
	last := sess.LastDecision
	if last.Kind != loop.DecisionActions || len(last.Actions) == 0 {
		return nil
	}
	invID := last.Actions[0].InvocationID

	var results []types.InvocationResultMember
	for _, st := range sess.Steps {
		if st.Action.InvocationID != invID {
			continue
		}
		results = append(results, &types.InvocationResultMemberMemberFunctionResult{
			Value: types.FunctionResult{
				ActionGroup: aws.String(b.actionGroup),
				Function:    aws.String(st.Action.ToolName),
				ResponseBody: map[string]types.ContentBody{
					"TEXT": {Body: aws.String(st.Result)},
				},
			},
		})
	}
	if len(results) == 0 {
		return nil
	}
	return &types.SessionState{
		InvocationId:                   aws.String(invID),
		ReturnControlInvocationResults: results,
	}
}

// decisionFromEvents reduces the response stream to a Decision. A
// return-control payload wins over any streamed text; accumulated chunk
// bytes become the finish output. A stream with neither yields an
// unknown decision for the loop to reject.
func decisionFromEvents(events []types.ResponseStream) loop.Decision {
	var final strings.Builder
	sawChunk := false
	for _, ev := range events {
		switch v := ev.(type) {
		case *types.ResponseStreamMemberReturnControl:
			return decisionFromReturnControl(v.Value)
		case *types.ResponseStreamMemberChunk:
			final.Write(v.Value.Bytes)
			sawChunk = true
		}
	}
	if !sawChunk {
		return loop.Decision{Kind: loop.DecisionUnknown}
	}
	return loop.Decision{Kind: loop.DecisionFinish, Output: final.String()}
}

// decisionFromReturnControl maps the payload's function invocation inputs to
// action requests, all tagged with the payload's invocation ID.
func decisionFromReturnControl(p types.ReturnControlPayload) loop.Decision {
	invID := aws.ToString(p.InvocationId)

	var actions []loop.ActionRequest
	for _, in := range p.InvocationInputs {
		fn, ok := in.(*types.InvocationInputMemberMemberFunctionInvocationInput)
		if !ok {
			continue
		}
		args := make(map[string]string, len(fn.Value.Parameters))
		for _, prm := range fn.Value.Parameters {
			args[aws.ToString(prm.Name)] = aws.ToString(prm.Value)
		}
		actions = append(actions, loop.ActionRequest{
			InvocationID: invID,
			ToolName:     aws.ToString(fn.Value.Function),
			Arguments:    args,
		})
	}
	if len(actions) == 0 {
		return loop.Decision{Kind: loop.DecisionUnknown}
	}
	return loop.Decision{Kind: loop.DecisionActions, Actions: actions}
}
