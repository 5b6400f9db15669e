package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/aetheris/core"
)

func turns(texts ...string) []core.ConversationTurn {
	result := make([]core.ConversationTurn, 0, len(texts))
	role := core.RoleUser
	for _, text := range texts {
		result = append(result, core.ConversationTurn{Role: role, Text: text})
		if role == core.RoleUser {
			role = core.RoleAssistant
		} else {
			role = core.RoleUser
		}
	}
	return result
}

func TestEnhanceNoTriggers(t *testing.T) {
	enh := Enhance("any news today", turns("hello", "hi, how can I help"))

	assert.Equal(t, "any news today", enh.EnhancedQuery)
	assert.Empty(t, enh.Terms)
	assert.Empty(t, enh.LexicalTerms)
}

func TestEnhanceFromHistory(t *testing.T) {
	history := turns(
		"any threats in the last 24 hours?",
		"Yes, a WebDAV zero-day is being exploited.",
	)
	enh := Enhance("tell me more", history)

	assert.Equal(t, "tell me more webdav zero-day microsoft", enh.EnhancedQuery)
	assert.Equal(t, []string{"webdav", "zero-day", "microsoft"}, enh.Terms)
	assert.Equal(t, []string{"webdav", "zero-day"}, enh.LexicalTerms)
}

func TestEnhanceFromRawQuery(t *testing.T) {
	enh := Enhance("is the ransomware wave still active", nil)

	assert.Equal(t, []string{"ransomware", "encryption", "backup"}, enh.Terms)
	assert.Contains(t, enh.EnhancedQuery, "ransomware encryption backup")
}

func TestEnhanceWindowLimit(t *testing.T) {
	// The webdav mention is 5 turns back, outside the 4-turn window
	history := turns(
		"what about the WebDAV exploit?",
		"Here is what we know about it.",
		"thanks",
		"You're welcome.",
		"unrelated question about policy",
	)
	enh := Enhance("tell me more", history)

	assert.Empty(t, enh.Terms)
	assert.Equal(t, "tell me more", enh.EnhancedQuery)
}

func TestEnhanceDedupAcrossRules(t *testing.T) {
	// Both the webdav rule and the exchange rule contribute "microsoft";
	// it appears once, at its first position.
	history := turns("the zero-day hits Exchange servers via WebDAV")
	enh := Enhance("what now", history)

	assert.Equal(t, []string{"webdav", "zero-day", "microsoft", "exchange", "outlook"}, enh.Terms)
}

func TestEnhanceDeterministic(t *testing.T) {
	history := turns("webdav issue", "also a phishing campaign")
	a := Enhance("status?", history)
	b := Enhance("status?", history)

	assert.Equal(t, a, b)
}
