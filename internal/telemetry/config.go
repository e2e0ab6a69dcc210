package telemetry

import (
	"os"
)

var observeEnabled bool

func init() {
	// Read once at process start. Mid-run environment changes have no
	// effect beyond the explicit override below.
	observeEnabled = os.Getenv("ROC_OBSERVE_JSON") == "1"
}

// ObserveEnabled reports whether JSONL emission is enabled. The startup
// value is preserved, but tests may enable it mid-run via the env override.
func ObserveEnabled() bool {
	if os.Getenv("ROC_OBSERVE_JSON") == "1" {
		return true
	}
	return observeEnabled
}
