package tools

// Registry returns all tool definitions wired for the agent.
func Registry() []Definition {
	return []Definition{AssetValueDefinition, MortgageRateDefinition}
}
