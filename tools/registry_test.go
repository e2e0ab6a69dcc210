package tools_test

import (
	"testing"

	"github.com/finreach/rocagent/tools"
)

func TestRegistry_ToolNames(t *testing.T) {
	defs := tools.Registry()
	want := map[string]struct{}{
		"get_asset_value":   {},
		"get_mortgage_rate": {},
	}

	if len(defs) != len(want) {
		t.Fatalf("unexpected number of tools: got %d want %d", len(defs), len(want))
	}
	for _, d := range defs {
		if _, ok := want[d.Name]; !ok {
			t.Fatalf("unexpected tool in registry: %q", d.Name)
		}
		if d.Function == nil {
			t.Errorf("tool %q has no handler", d.Name)
		}
		if d.InputSchema == nil {
			t.Errorf("tool %q has no input schema", d.Name)
		}
		if len(d.Parameters) == 0 {
			t.Errorf("tool %q has no parameters", d.Name)
		}
	}
}

func TestRegistry_RequiredParameters(t *testing.T) {
	for _, d := range tools.Registry() {
		for _, p := range d.Parameters {
			if !p.Required {
				t.Errorf("tool %q parameter %q should be required", d.Name, p.Name)
			}
			if p.Type != "string" {
				t.Errorf("tool %q parameter %q type: got %q want string", d.Name, p.Name, p.Type)
			}
		}
	}
}
