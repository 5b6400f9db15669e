package retrieval

import (
	"strings"

	"github.com/poiesic/aetheris/core"
)

// classifierRules are evaluated in order; the first rule whose keyword set
// matches wins. The order is part of the contract: remediation phrasing
// beats summary phrasing, and inventory counting beats the impact rule's
// broader asset/user keywords.
var classifierRules = []struct {
	intent   core.Intent
	keywords []string
}{
	{core.IntentAction, []string{"remediation", "response", "contain", "fix"}},
	{core.IntentInventory, []string{"how many", "inventory", "do we have", "count of"}},
	{core.IntentSummary, []string{"summary", "overview", "what is", "explain"}},
	{core.IntentImpact, []string{"who is affected", "assets", "users", "employees"}},
}

// Classify maps a query to an intent. Pure function: case-insensitive,
// no side effects, no I/O.
func Classify(query string) core.Intent {
	query = strings.ToLower(query)
	for _, rule := range classifierRules {
		for _, kw := range rule.keywords {
			if strings.Contains(query, kw) {
				return rule.intent
			}
		}
	}
	return core.IntentGeneral
}
