package tools

import (
	"fmt"
	"strings"

	"github.com/finreach/rocagent/internal/ratesheet"
)

type AssetValueInput struct {
	AssetHolderID string `json:"asset_holder_id" jsonschema_description:"Asset holder ID to look up."`
}

var AssetValueDefinition = Definition{
	Name:        "get_asset_value",
	Description: "Look up the total asset value for a given asset holder ID.",
	InputSchema: AssetValueInputSchema,
	Parameters: []Parameter{
		{Name: "asset_holder_id", Type: "string", Description: "Asset holder ID to look up.", Required: true},
	},
	Function: GetAssetValue,
}

var AssetValueInputSchema = GenerateSchema[AssetValueInput]()

// GetAssetValue resolves the total asset value for an asset holder. Figures
// come from the rate sheet when one is configured; otherwise the built-in
// defaults apply.
func GetAssetValue(args map[string]string) (string, error) {
	id := strings.TrimSpace(args["asset_holder_id"])
	if id == "" {
		return "", fmt.Errorf("asset_holder_id is required")
	}

	sheet, err := ratesheet.Load()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("The total asset value for %s is %s", id, sheet.AssetValue(id)), nil
}
