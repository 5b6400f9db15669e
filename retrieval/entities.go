package retrieval

import (
	"strings"

	"github.com/poiesic/aetheris/core"
)

// knownCities is the location vocabulary of the asset inventory.
var knownCities = []string{
	"New York", "Los Angeles", "Chicago",
	"London", "Manchester", "Edinburgh",
	"Berlin", "Munich", "Frankfurt",
	"Tokyo", "Osaka", "Kyoto",
}

// knownDepartments is the department vocabulary of the asset inventory.
var knownDepartments = []string{
	"Finance", "HR", "Engineering", "Sales", "Marketing", "IT", "Operations",
}

// ExtractFilters pulls location and department entities out of the raw
// query by substring match against the fixed vocabularies. First match
// per field wins.
func ExtractFilters(rawQuery string) core.QueryFilters {
	query := strings.ToLower(rawQuery)
	var filters core.QueryFilters
	for _, city := range knownCities {
		if strings.Contains(query, strings.ToLower(city)) {
			filters.Location = city
			break
		}
	}
	for _, dept := range knownDepartments {
		if containsWord(query, strings.ToLower(dept)) {
			filters.Department = dept
			break
		}
	}
	return filters
}

// containsWord reports whether term appears in text on word boundaries.
// Plain substring matching would let "it" match inside "security".
func containsWord(text, term string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
