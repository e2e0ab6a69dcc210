// Package provision manages the scoped cloud resources an agent run needs:
// an execution role the decision service can assume, the agent itself, a
// return-of-control action group built from the local tool registry, and an
// alias to invoke it through.
//
// Provision and Release form an acquire/release pair. Release tears down in
// reverse order and keeps going past individual failures so every resource
// gets a teardown attempt.
package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	agenttypes "github.com/aws/aws-sdk-go-v2/service/bedrockagent/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/finreach/rocagent/tools"
)

// prepareTimeout bounds the wait for the agent to reach PREPARED.
const prepareTimeout = 2 * time.Minute

// preparePollInterval is the GetAgent polling cadence while preparing.
const preparePollInterval = 3 * time.Second

// IAMAPI is the slice of the IAM client used here.
type IAMAPI interface {
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
	DeleteRolePolicy(ctx context.Context, params *iam.DeleteRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteRolePolicyOutput, error)
	DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
}

// AgentAPI is the slice of the Bedrock agent build-time client used here.
type AgentAPI interface {
	CreateAgent(ctx context.Context, params *bedrockagent.CreateAgentInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.CreateAgentOutput, error)
	CreateAgentActionGroup(ctx context.Context, params *bedrockagent.CreateAgentActionGroupInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.CreateAgentActionGroupOutput, error)
	PrepareAgent(ctx context.Context, params *bedrockagent.PrepareAgentInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.PrepareAgentOutput, error)
	GetAgent(ctx context.Context, params *bedrockagent.GetAgentInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.GetAgentOutput, error)
	CreateAgentAlias(ctx context.Context, params *bedrockagent.CreateAgentAliasInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.CreateAgentAliasOutput, error)
	DeleteAgentAlias(ctx context.Context, params *bedrockagent.DeleteAgentAliasInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.DeleteAgentAliasOutput, error)
	DeleteAgent(ctx context.Context, params *bedrockagent.DeleteAgentInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.DeleteAgentOutput, error)
}

// Spec names everything the stack is built from.
type Spec struct {
	AgentName   string
	Model       string
	Instruction string
	Region      string
	RoleName    string
	PolicyName  string
	ActionGroup string
	AliasName   string
	Tools       []tools.Definition
}

// Stack records what was created, in creation order, for later release and
// for wiring the runtime client. It serializes so a separate cleanup
// invocation can pick it up.
type Stack struct {
	RoleName      string `json:"role_name"`
	RoleArn       string `json:"role_arn"`
	PolicyName    string `json:"policy_name"`
	AgentID       string `json:"agent_id"`
	ActionGroupID string `json:"action_group_id"`
	ActionGroup   string `json:"action_group"`
	AliasID       string `json:"alias_id"`
	AliasName     string `json:"alias_name"`
}

// Provisioner creates and releases agent stacks.
type Provisioner struct {
	iam    IAMAPI
	agents AgentAPI
	log    zerolog.Logger
}

// New builds a Provisioner over the two service clients.
func New(iamClient IAMAPI, agentClient AgentAPI, log zerolog.Logger) *Provisioner {
	return &Provisioner{iam: iamClient, agents: agentClient, log: log}
}

// NewClients builds the IAM and Bedrock agent clients from the default AWS
// credential chain.
func NewClients(ctx context.Context, region string) (*iam.Client, *bedrockagent.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, nil, errors.Wrap(err, "load aws config")
	}
	return iam.NewFromConfig(cfg), bedrockagent.NewFromConfig(cfg), nil
}

// trustPolicy lets the decision service assume the execution role.
const trustPolicy = `{
  "Version": "2012-10-17",
  "Statement": [
    {
      "Effect": "Allow",
      "Principal": {"Service": "bedrock.amazonaws.com"},
      "Action": "sts:AssumeRole"
    }
  ]
}`

// invokeModelPolicy scopes the role to invoking the named foundation model.
func invokeModelPolicy(region, model string) (string, error) {
	doc := map[string]any{
		"Version": "2012-10-17",
		"Statement": []map[string]any{{
			"Effect":   "Allow",
			"Action":   "bedrock:InvokeModel",
			"Resource": fmt.Sprintf("arn:aws:bedrock:%s::foundation-model/%s", region, model),
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "marshal policy document")
	}
	return string(b), nil
}

// functionSchema converts the tool registry into the agent's function schema.
func functionSchema(defs []tools.Definition) agenttypes.FunctionSchema {
	fns := make([]agenttypes.Function, 0, len(defs))
	for _, d := range defs {
		params := make(map[string]agenttypes.ParameterDetail, len(d.Parameters))
		for _, p := range d.Parameters {
			params[p.Name] = agenttypes.ParameterDetail{
				Type:        agenttypes.Type(p.Type),
				Description: aws.String(p.Description),
				Required:    aws.Bool(p.Required),
			}
		}
		fns = append(fns, agenttypes.Function{
			Name:        aws.String(d.Name),
			Description: aws.String(d.Description),
			Parameters:  params,
		})
	}
	return &agenttypes.FunctionSchemaMemberFunctions{Value: fns}
}

// Provision creates the role, agent, action group and alias, in that order.
// On any failure the partial stack is returned alongside the error so the
// caller can release what exists.
func (p *Provisioner) Provision(ctx context.Context, spec Spec) (*Stack, error) {
	stack := &Stack{
		RoleName:    spec.RoleName,
		PolicyName:  spec.PolicyName,
		ActionGroup: spec.ActionGroup,
		AliasName:   spec.AliasName,
	}

	role, err := p.iam.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(spec.RoleName),
		AssumeRolePolicyDocument: aws.String(trustPolicy),
		Description:              aws.String("Execution role for agent " + spec.AgentName),
	})
	if err != nil {
		return stack, errors.Wrapf(err, "create role %s", spec.RoleName)
	}
	stack.RoleArn = aws.ToString(role.Role.Arn)
	p.log.Info().Str("role_arn", stack.RoleArn).Msg("execution role created")

	policyDoc, err := invokeModelPolicy(spec.Region, spec.Model)
	if err != nil {
		return stack, err
	}
	if _, err := p.iam.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       aws.String(spec.RoleName),
		PolicyName:     aws.String(spec.PolicyName),
		PolicyDocument: aws.String(policyDoc),
	}); err != nil {
		return stack, errors.Wrapf(err, "attach policy %s", spec.PolicyName)
	}

	agent, err := p.agents.CreateAgent(ctx, &bedrockagent.CreateAgentInput{
		AgentName:            aws.String(spec.AgentName),
		FoundationModel:      aws.String(spec.Model),
		Instruction:          aws.String(spec.Instruction),
		AgentResourceRoleArn: aws.String(stack.RoleArn),
	})
	if err != nil {
		return stack, errors.Wrapf(err, "create agent %s", spec.AgentName)
	}
	stack.AgentID = aws.ToString(agent.Agent.AgentId)
	p.log.Info().Str("agent_id", stack.AgentID).Msg("agent created")

	group, err := p.agents.CreateAgentActionGroup(ctx, &bedrockagent.CreateAgentActionGroupInput{
		AgentId:         aws.String(stack.AgentID),
		AgentVersion:    aws.String("DRAFT"),
		ActionGroupName: aws.String(spec.ActionGroup),
		FunctionSchema:  functionSchema(spec.Tools),
		ActionGroupExecutor: &agenttypes.ActionGroupExecutorMemberCustomControl{
			Value: agenttypes.CustomControlMethodReturnControl,
		},
	})
	if err != nil {
		return stack, errors.Wrapf(err, "create action group %s", spec.ActionGroup)
	}
	stack.ActionGroupID = aws.ToString(group.AgentActionGroup.ActionGroupId)

	if _, err := p.agents.PrepareAgent(ctx, &bedrockagent.PrepareAgentInput{
		AgentId: aws.String(stack.AgentID),
	}); err != nil {
		return stack, errors.Wrapf(err, "prepare agent %s", stack.AgentID)
	}
	if err := p.waitPrepared(ctx, stack.AgentID); err != nil {
		return stack, err
	}

	alias, err := p.agents.CreateAgentAlias(ctx, &bedrockagent.CreateAgentAliasInput{
		AgentId:        aws.String(stack.AgentID),
		AgentAliasName: aws.String(spec.AliasName),
	})
	if err != nil {
		return stack, errors.Wrapf(err, "create alias %s", spec.AliasName)
	}
	stack.AliasID = aws.ToString(alias.AgentAlias.AgentAliasId)
	p.log.Info().Str("alias_id", stack.AliasID).Msg("agent alias created")

	return stack, nil
}

// waitPrepared polls until the agent leaves PREPARING. Preparation is
// asynchronous; invoking before PREPARED fails.
func (p *Provisioner) waitPrepared(ctx context.Context, agentID string) error {
	ctx, cancel := context.WithTimeout(ctx, prepareTimeout)
	defer cancel()

	ticker := time.NewTicker(preparePollInterval)
	defer ticker.Stop()
	for {
		out, err := p.agents.GetAgent(ctx, &bedrockagent.GetAgentInput{AgentId: aws.String(agentID)})
		if err != nil {
			return errors.Wrapf(err, "get agent %s", agentID)
		}
		switch out.Agent.AgentStatus {
		case agenttypes.AgentStatusPrepared:
			return nil
		case agenttypes.AgentStatusFailed:
			return errors.Errorf("agent %s failed to prepare", agentID)
		}
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for agent %s to prepare", agentID)
		case <-ticker.C:
		}
	}
}

// Release tears the stack down in reverse creation order. Failures are
// collected rather than aborting, so every remaining resource still gets a
// teardown attempt. Fields left empty by a partial Provision are skipped.
func (p *Provisioner) Release(ctx context.Context, stack *Stack) error {
	var errs []error

	if stack.AliasID != "" {
		if _, err := p.agents.DeleteAgentAlias(ctx, &bedrockagent.DeleteAgentAliasInput{
			AgentId:      aws.String(stack.AgentID),
			AgentAliasId: aws.String(stack.AliasID),
		}); err != nil {
			errs = append(errs, errors.Wrapf(err, "delete alias %s", stack.AliasID))
		}
	}
	if stack.AgentID != "" {
		if _, err := p.agents.DeleteAgent(ctx, &bedrockagent.DeleteAgentInput{
			AgentId:                aws.String(stack.AgentID),
			SkipResourceInUseCheck: true,
		}); err != nil {
			errs = append(errs, errors.Wrapf(err, "delete agent %s", stack.AgentID))
		}
	}
	if stack.RoleName != "" && stack.PolicyName != "" {
		if _, err := p.iam.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
			RoleName:   aws.String(stack.RoleName),
			PolicyName: aws.String(stack.PolicyName),
		}); err != nil {
			errs = append(errs, errors.Wrapf(err, "delete policy %s", stack.PolicyName))
		}
	}
	if stack.RoleArn != "" {
		if _, err := p.iam.DeleteRole(ctx, &iam.DeleteRoleInput{
			RoleName: aws.String(stack.RoleName),
		}); err != nil {
			errs = append(errs, errors.Wrapf(err, "delete role %s", stack.RoleName))
		}
	}

	if len(errs) > 0 {
		for _, e := range errs {
			p.log.Warn().Err(e).Msg("release: teardown failure")
		}
		return errors.Errorf("release finished with %d failure(s): %v", len(errs), errs[0])
	}
	return nil
}
