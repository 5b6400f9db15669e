// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrieval

import (
	"strings"

	"github.com/poiesic/aetheris/core"
)

// historyWindow is the number of trailing conversation turns scanned for
// trigger terms (two full exchanges).
const historyWindow = 4

// expansionRule maps trigger substrings to the expansion terms they pull
// into the query. Lexical terms are the subset used by the fallback
// substring search when vector retrieval misses the topic.
type expansionRule struct {
	triggers []string
	terms    []string
	lexical  []string
}

// expansionRules is the declarative trigger table. A trigger matching
// anywhere in a scanned turn (or the raw query) contributes the rule's
// whole term set.
var expansionRules = []expansionRule{
	{
		triggers: []string{"webdav", "zero-day", "zero day"},
		terms:    []string{"webdav", "zero-day", "microsoft"},
		lexical:  []string{"webdav", "zero-day"},
	},
	{
		triggers: []string{"ransomware", "encrypt"},
		terms:    []string{"ransomware", "encryption", "backup"},
		lexical:  []string{"ransomware"},
	},
	{
		triggers: []string{"phishing", "credential"},
		terms:    []string{"phishing", "credential", "email"},
		lexical:  []string{"phishing"},
	},
	{
		triggers: []string{"fortinet", "fortigate"},
		terms:    []string{"fortinet", "fortigate", "vpn"},
		lexical:  []string{"fortinet"},
	},
	{
		triggers: []string{"exchange", "outlook"},
		terms:    []string{"exchange", "outlook", "microsoft"},
		lexical:  []string{"exchange"},
	},
}

// Enhancement is the result of scanning conversation context for trigger
// terms.
type Enhancement struct {
	// EnhancedQuery is the raw query plus any expansion terms. Equal to
	// the raw query when nothing triggered.
	EnhancedQuery string

	// Terms is the deduplicated union of expansion terms from every
	// matched rule, in trigger-table insertion order.
	Terms []string

	// LexicalTerms is the subset of terms used for the fallback substring
	// search, same ordering rules.
	LexicalTerms []string
}

// Enhance scans the last historyWindow turns plus the raw query against
// the trigger table and builds the expanded query. Deterministic given
// identical history and query.
func Enhance(rawQuery string, history []core.ConversationTurn) Enhancement {
	texts := make([]string, 0, historyWindow+1)
	start := len(history) - historyWindow
	if start < 0 {
		start = 0
	}
	for _, turn := range history[start:] {
		texts = append(texts, strings.ToLower(turn.Text))
	}
	texts = append(texts, strings.ToLower(rawQuery))

	var terms, lexical []string
	seenTerm := make(map[string]bool)
	seenLexical := make(map[string]bool)

	for _, rule := range expansionRules {
		if !anyTriggerIn(texts, rule.triggers) {
			continue
		}
		for _, term := range rule.terms {
			if !seenTerm[term] {
				seenTerm[term] = true
				terms = append(terms, term)
			}
		}
		for _, term := range rule.lexical {
			if !seenLexical[term] {
				seenLexical[term] = true
				lexical = append(lexical, term)
			}
		}
	}

	enhanced := rawQuery
	if len(terms) > 0 {
		enhanced = rawQuery + " " + strings.Join(terms, " ")
	}
	return Enhancement{
		EnhancedQuery: enhanced,
		Terms:         terms,
		LexicalTerms:  lexical,
	}
}

func anyTriggerIn(texts []string, triggers []string) bool {
	for _, text := range texts {
		for _, trigger := range triggers {
			if strings.Contains(text, trigger) {
				return true
			}
		}
	}
	return false
}
