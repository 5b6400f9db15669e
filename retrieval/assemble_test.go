package retrieval

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aetheris/core"
)

func TestBuildDocumentContextsExcerptBound(t *testing.T) {
	long := strings.Repeat("x", 2000)
	docs := []*core.Document{
		{Id: 1, Title: "Long report", Source: "feed", Text: long},
		{Id: 2, Title: "Short note", Source: "feed", Text: "brief"},
	}
	matchSet := map[core.ID]bool{1: true}

	contexts := buildDocumentContexts(docs, matchSet)
	require.Len(t, contexts, 2)
	assert.Len(t, contexts[0].Excerpt, 800)
	assert.Equal(t, "brief", contexts[1].Excerpt)
	assert.True(t, contexts[0].ContextMatch)
	assert.False(t, contexts[1].ContextMatch)
}

func TestBuildDocumentContextsExcerptRuneBoundary(t *testing.T) {
	// "é" is two bytes and straddles the 800-byte cut, so the excerpt must
	// back up instead of carrying half a rune.
	text := strings.Repeat("a", 799) + "é" + strings.Repeat("b", 50)
	docs := []*core.Document{{Id: 1, Title: "Accented report", Source: "feed", Text: text}}

	contexts := buildDocumentContexts(docs, nil)
	require.Len(t, contexts, 1)
	assert.True(t, utf8.ValidString(contexts[0].Excerpt))
	assert.Equal(t, strings.Repeat("a", 799), contexts[0].Excerpt)

	// A cut landing on a rune boundary keeps the full budget
	ascii := []*core.Document{{Id: 2, Title: "Plain report", Source: "feed", Text: strings.Repeat("é", 500)}}
	contexts = buildDocumentContexts(ascii, nil)
	assert.Len(t, contexts[0].Excerpt, 800)
	assert.True(t, utf8.ValidString(contexts[0].Excerpt))
}

func TestRecordRef(t *testing.T) {
	assert.Equal(t, "Article:42", RecordRef(42))
}

func TestBuildLabelHistogram(t *testing.T) {
	labels := []*core.TaxonomyLabel{
		{RecordRef: "Article:1", Severity: []string{"critical", "high"}, Platform: []string{"windows"}, OS: "Windows"},
		{RecordRef: "Article:2", Severity: []string{"critical"}, Platform: []string{"linux"}, OS: "Windows"},
		{RecordRef: "Article:3", Severity: []string{"low"}},
	}

	hist := buildLabelHistogram(labels)

	require.Contains(t, hist, "severity")
	sev := hist["severity"]
	assert.Equal(t, core.LabelCount{Value: "critical", Count: 2}, sev[0])
	// Equal counts order alphabetically
	assert.Equal(t, core.LabelCount{Value: "high", Count: 1}, sev[1])
	assert.Equal(t, core.LabelCount{Value: "low", Count: 1}, sev[2])

	assert.Equal(t, []core.LabelCount{{Value: "Windows", Count: 2}}, hist["os"])
	assert.NotContains(t, hist, "actor")
}

func TestBuildLabelHistogramTopCap(t *testing.T) {
	var labels []*core.TaxonomyLabel
	values := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, v := range values {
		labels = append(labels, &core.TaxonomyLabel{RecordRef: "Article:1", Actor: []string{v}})
	}

	hist := buildLabelHistogram(labels)
	assert.Len(t, hist["actor"], 10)
}

func TestCountAssetTypes(t *testing.T) {
	assets := []*core.Asset{
		{Hostname: "a", Type: "server"},
		{Hostname: "b", Type: "server"},
		{Hostname: "c", Type: "laptop"},
		{Hostname: "d", Type: "firewall"},
	}
	counts := countAssetTypes(assets)

	require.Len(t, counts, 3)
	assert.Equal(t, core.LabelCount{Value: "server", Count: 2}, counts[0])
	assert.Equal(t, core.LabelCount{Value: "firewall", Count: 1}, counts[1])
	assert.Equal(t, core.LabelCount{Value: "laptop", Count: 1}, counts[2])
}

func TestBuildHistoryExcerpt(t *testing.T) {
	history := turns("one", "two", "three", "four", "five", "six", "seven", "eight")

	lines := buildHistoryExcerpt(history)
	require.Len(t, lines, 6)
	assert.Equal(t, "three", lines[0].Text)
	assert.Equal(t, "user", lines[0].Role)
	assert.Equal(t, "eight", lines[5].Text)
	assert.Equal(t, "assistant", lines[5].Role)
}

func TestBuildAssetTableBounded(t *testing.T) {
	var assets []*core.Asset
	for i := 0; i < 30; i++ {
		assets = append(assets, &core.Asset{Hostname: "host", Type: "server"})
	}
	assert.Len(t, buildAssetTable(assets), 20)
}
