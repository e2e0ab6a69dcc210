package session

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/finreach/rocagent/internal/loop"
)

// Step is the persisted view of one executed tool call.
type Step struct {
	Tool      string            `json:"tool"`
	Arguments map[string]string `json:"arguments,omitempty"`
	Result    string            `json:"result"`
}

// Transcript is the persisted view of one finished session.
type Transcript struct {
	ID       string    `json:"id"`
	Input    string    `json:"input"`
	Steps    []Step    `json:"steps,omitempty"`
	Output   string    `json:"output"`
	Turns    int       `json:"turns"`
	Finished time.Time `json:"finished"`
}

// FromResult converts a loop result into a transcript.
func FromResult(input string, res *loop.Result) Transcript {
	steps := make([]Step, 0, len(res.Steps))
	for _, st := range res.Steps {
		steps = append(steps, Step{
			Tool:      st.Action.ToolName,
			Arguments: st.Action.Arguments,
			Result:    st.Result,
		})
	}
	return Transcript{
		ID:       res.SessionID,
		Input:    input,
		Steps:    steps,
		Output:   res.Output,
		Turns:    res.Turns,
		Finished: time.Now().UTC(),
	}
}

// Load reads previously saved transcripts. A missing file yields nil, nil.
func Load(path string) ([]Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var ts []Transcript
	if err := json.Unmarshal(b, &ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// Save writes the full transcript list.
func Save(path string, ts []Transcript) error {
	b, err := json.MarshalIndent(ts, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
