// Package provider adapts concrete remote services to the loop.DecisionService
// contract.
//
// Two adapters are included: the Bedrock agent runtime in return-of-control
// mode, and the Anthropic Messages API with client-side tool definitions.
// Both translate the service's polymorphic response into the explicit
// Decision variant; neither retries on transport errors.
package provider
