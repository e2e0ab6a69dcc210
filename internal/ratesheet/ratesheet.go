// Package ratesheet resolves the lookup data behind the mortgage tools.
//
// A JSON sheet may be supplied via ROC_RATE_SHEET; when the variable is unset
// the built-in defaults apply, keeping tool output deterministic.
package ratesheet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// EnvRateSheet names the environment variable holding the sheet path.
const EnvRateSheet = "ROC_RATE_SHEET"

const (
	fallbackAssetValue   = "100K"
	fallbackMortgageRate = "8.87%"
)

// Sheet maps asset holder IDs to asset values and mortgage rates. Unknown
// IDs fall through to the sheet-level defaults, then to the built-ins.
type Sheet struct {
	AssetValues   map[string]string `json:"asset_values"`
	MortgageRates map[string]string `json:"mortgage_rates"`
	DefaultValue  string            `json:"default_asset_value,omitempty"`
	DefaultRate   string            `json:"default_mortgage_rate,omitempty"`
}

// Load reads the sheet addressed by ROC_RATE_SHEET. An unset variable yields
// the built-in defaults; a set but unreadable or invalid sheet is an error
// rather than a silent fallback.
func Load() (*Sheet, error) {
	path := os.Getenv(EnvRateSheet)
	if path == "" {
		return &Sheet{}, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("ratesheet: resolve %q: %w", path, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("ratesheet: stat %q: %w", abs, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("ratesheet: %q is a directory", abs)
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("ratesheet: read %q: %w", abs, err)
	}
	var s Sheet
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("ratesheet: parse %q: %w", abs, err)
	}
	return &s, nil
}

// AssetValue returns the asset value for id, falling back to the sheet
// default and then the built-in figure.
func (s *Sheet) AssetValue(id string) string {
	if v, ok := s.AssetValues[id]; ok {
		return v
	}
	if s.DefaultValue != "" {
		return s.DefaultValue
	}
	return fallbackAssetValue
}

// MortgageRate returns the mortgage rate for id, falling back to the sheet
// default and then the built-in figure.
func (s *Sheet) MortgageRate(id string) string {
	if v, ok := s.MortgageRates[id]; ok {
		return v
	}
	if s.DefaultRate != "" {
		return s.DefaultRate
	}
	return fallbackMortgageRate
}
