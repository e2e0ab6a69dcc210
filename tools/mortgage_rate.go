package tools

import (
	"fmt"
	"strings"

	"github.com/finreach/rocagent/internal/ratesheet"
)

type MortgageRateInput struct {
	AssetHolderID string `json:"asset_holder_id" jsonschema_description:"Asset holder ID to quote for."`
	AssetValue    string `json:"asset_value" jsonschema_description:"Total asset value previously obtained for the holder."`
}

var MortgageRateDefinition = Definition{
	Name:        "get_mortgage_rate",
	Description: "Quote the mortgage rate for an asset holder ID given their total asset value.",
	InputSchema: MortgageRateInputSchema,
	Parameters: []Parameter{
		{Name: "asset_holder_id", Type: "string", Description: "Asset holder ID to quote for.", Required: true},
		{Name: "asset_value", Type: "string", Description: "Total asset value previously obtained for the holder.", Required: true},
	},
	Function: GetMortgageRate,
}

var MortgageRateInputSchema = GenerateSchema[MortgageRateInput]()

// GetMortgageRate quotes the mortgage rate for an asset holder. The asset
// value is echoed back as supplied by the caller so the quote stays tied to
// the figure the agent saw.
func GetMortgageRate(args map[string]string) (string, error) {
	id := strings.TrimSpace(args["asset_holder_id"])
	value := strings.TrimSpace(args["asset_value"])
	if id == "" {
		return "", fmt.Errorf("asset_holder_id is required")
	}
	if value == "" {
		return "", fmt.Errorf("asset_value is required")
	}

	sheet, err := ratesheet.Load()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The mortgage rate for %s with asset value of %s is %s", id, value, sheet.MortgageRate(id)), nil
}
