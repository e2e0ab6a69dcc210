package session_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/finreach/rocagent/internal/loop"
	"github.com/finreach/rocagent/session"
)

func TestTranscript_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sessions.json")

	in := []session.Transcript{
		{ID: "s1", Input: "what is my rate", Output: "8.87%", Turns: 3,
			Steps: []session.Step{{Tool: "get_asset_value", Result: "100K"}}},
		{ID: "s2", Input: "hello", Output: "hi", Turns: 1},
	}
	if err := session.Save(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := session.Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Output != in[i].Output || len(out[i].Steps) != len(in[i].Steps) {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestTranscript_LoadMissing_ReturnsNil(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist.json")

	ts, err := session.Load(p)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ts != nil {
		t.Fatalf("expected nil slice for missing file, got %#v", ts)
	}
}

func TestTranscript_LoadInvalidJSON_ReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o664); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := session.Load(p); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestFromResult_MapsSteps(t *testing.T) {
	res := &loop.Result{
		SessionID: "s1",
		Output:    "final",
		Turns:     2,
		Steps: []loop.StepRecord{{
			Action: loop.ActionRequest{
				ToolName:  "get_asset_value",
				Arguments: map[string]string{"asset_holder_id": "AVC-1234"},
			},
			Result: "The total asset value for AVC-1234 is 100K",
		}},
	}

	tr := session.FromResult("what is my rate", res)
	if tr.ID != "s1" || tr.Input != "what is my rate" || tr.Output != "final" || tr.Turns != 2 {
		t.Fatalf("unexpected transcript: %+v", tr)
	}
	if len(tr.Steps) != 1 {
		t.Fatalf("steps: got %d want 1", len(tr.Steps))
	}
	st := tr.Steps[0]
	if st.Tool != "get_asset_value" || st.Arguments["asset_holder_id"] != "AVC-1234" {
		t.Errorf("unexpected step: %+v", st)
	}
	if tr.Finished.IsZero() {
		t.Error("finished timestamp not set")
	}
}
