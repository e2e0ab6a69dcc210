package tools

import (
	"github.com/invopop/jsonschema"
)

// Definition describes one callback tool the remote agent may request.
type Definition struct {
	Name        string
	Description string
	// InputSchema is the JSON Schema for the tool input, consumed by the
	// Anthropic adapter.
	InputSchema *jsonschema.Schema
	// Parameters is the flat parameter view consumed by the Bedrock
	// function schema when the action group is provisioned.
	Parameters []Parameter
	// Function executes the tool with the named string arguments supplied
	// by the service and returns a textual result.
	Function func(args map[string]string) (string, error)
}

// Parameter describes one named tool parameter for the function schema.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// GenerateSchema derives a JSON Schema from a Go struct type using
// jsonschema_description tags.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
