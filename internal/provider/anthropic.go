package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/finreach/rocagent/internal/loop"
	"github.com/finreach/rocagent/tools"
)

// DefaultAnthropicModel is used when the config does not name one.
const DefaultAnthropicModel = string(anthropic.ModelClaude3_7SonnetLatest)

// NewAnthropicClient returns a client using the API key from the env.
func NewAnthropicClient() *anthropic.Client {
	c := anthropic.NewClient()
	return &c
}

// AnthropicAgent implements the decision contract over the Anthropic
// Messages API. The API is stateless, so each turn rebuilds the message
// history from the session's step records.
type AnthropicAgent struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int64
	tools     []tools.Definition
}

// NewAnthropicAgent wraps client with the given model and tool definitions.
func NewAnthropicAgent(client *anthropic.Client, model string, defs []tools.Definition) *AnthropicAgent {
	return &AnthropicAgent{client: client, model: anthropic.Model(model), maxTokens: 1024, tools: defs}
}

func (a *AnthropicAgent) anthropicTools() []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(a.tools))
	for _, t := range a.tools {
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{Properties: t.InputSchema.Properties},
		}})
	}
	return out
}

// Decide sends the rebuilt conversation and translates the response blocks
// into a Decision.
func (a *AnthropicAgent) Decide(ctx context.Context, sess *loop.Session) (loop.Decision, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  messagesFromSession(sess),
		Tools:     a.anthropicTools(),
	})
	if err != nil {
		return loop.Decision{}, err
	}
	return decisionFromMessage(msg), nil
}

// messagesFromSession replays the session as alternating tool_use /
// tool_result pairs after the opening user input. The invocation ID doubles
// as the tool_use block ID so results stay correlated.
func messagesFromSession(sess *loop.Session) []anthropic.MessageParam {
	msgs := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(sess.Input)),
	}
	for _, st := range sess.Steps {
		toolUse := anthropic.ToolUseBlockParam{
			ID:    st.Action.InvocationID,
			Name:  st.Action.ToolName,
			Input: st.Action.Arguments,
		}
		msgs = append(msgs,
			anthropic.NewAssistantMessage(anthropic.ContentBlockParamUnion{OfToolUse: &toolUse}),
			anthropic.NewUserMessage(anthropic.NewToolResultBlock(st.Action.InvocationID, st.Result, false)),
		)
	}
	return msgs
}

// decisionFromMessage maps tool_use blocks to actions; when none are present
// the concatenated text blocks become the finish output.
func decisionFromMessage(msg *anthropic.Message) loop.Decision {
	var text strings.Builder
	var actions []loop.ActionRequest
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			actions = append(actions, loop.ActionRequest{
				InvocationID: v.ID,
				ToolName:     v.Name,
				Arguments:    stringArguments(json.RawMessage(v.JSON.Input.Raw())),
			})
		}
	}
	if len(actions) > 0 {
		return loop.Decision{Kind: loop.DecisionActions, Actions: actions}
	}
	if text.Len() > 0 {
		return loop.Decision{Kind: loop.DecisionFinish, Output: text.String()}
	}
	return loop.Decision{Kind: loop.DecisionUnknown}
}

// stringArguments flattens a JSON object into named string values, which is
// the argument shape tools consume. Non-string scalars are formatted.
func stringArguments(raw json.RawMessage) map[string]string {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		switch s := v.(type) {
		case string:
			out[k] = s
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}
