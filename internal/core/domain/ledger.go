package domain

import (
	"encoding/json"
	"sort"
)

// DefaultLedgerKey names the aggregate document holding every balance.
const DefaultLedgerKey = "BEDROCK_CREDIT_BALANCES"

// Balances maps checksummed addresses to USD-denominated credit.
// The whole mapping is one remote document.
type Balances map[string]float64

// BalancesFromContent extracts numeric entries from a raw aggregate document.
// Non-numeric values are reported in skipped and left out of the result.
func BalancesFromContent(content map[string]interface{}) (balances Balances, skipped []string) {
	balances = make(Balances, len(content))
	for k, v := range content {
		switch n := v.(type) {
		case float64:
			balances[k] = n
		case float32:
			balances[k] = float64(n)
		case int:
			balances[k] = float64(n)
		case int64:
			balances[k] = float64(n)
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				skipped = append(skipped, k)
				continue
			}
			balances[k] = f
		default:
			skipped = append(skipped, k)
		}
	}
	sort.Strings(skipped)
	return balances, skipped
}

// CreditBalance is the read model for GET /credits/:address.
type CreditBalance struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// CreditAdjustment is the result of an administrative balance change.
type CreditAdjustment struct {
	Address     string  `json:"address"`
	AmountAdded float64 `json:"amount_added"`
	NewBalance  float64 `json:"new_balance"`
}
