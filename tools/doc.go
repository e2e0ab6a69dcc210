// Package tools defines tool contracts and the callback implementations
// exposed to the remote agent.
//
// Includes:
//   - Definition: name, description, JSON input schema, flat parameter view, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - Mortgage tools: get_asset_value, get_mortgage_rate.
//   - Invariant: the registry is read-only for the lifetime of a running loop.
package tools
