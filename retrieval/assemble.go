package retrieval

import (
	"fmt"
	"sort"

	"github.com/poiesic/aetheris/core"
)

const (
	// excerptLimit bounds per-document excerpts in the bundle.
	excerptLimit = 800
	// histogramTop caps each label histogram to the top values by count.
	histogramTop = 10
	// historyExcerpt is the number of trailing turns quoted in the bundle.
	historyExcerpt = 6
	// maxAssetRows bounds the asset correlation table.
	maxAssetRows = 20
)

// buildDocumentContexts prepares final documents for the bundle: source
// attribution plus a bounded excerpt.
func buildDocumentContexts(docs []*core.Document, matchSet map[core.ID]bool) []core.DocumentContext {
	contexts := make([]core.DocumentContext, 0, len(docs))
	for _, doc := range docs {
		contexts = append(contexts, core.DocumentContext{
			DocumentId:   doc.Id,
			Title:        doc.Title,
			Source:       doc.Source,
			PublishedAt:  doc.PublishedAt,
			Excerpt:      truncate(doc.Text, excerptLimit),
			ContextMatch: matchSet[doc.Id],
		})
	}
	return contexts
}

// RecordRef returns the taxonomy record reference for a document.
func RecordRef(id core.ID) string {
	return fmt.Sprintf("Article:%d", id)
}

// buildLabelHistogram aggregates taxonomy labels into per-field value
// histograms, each count-sorted and capped at histogramTop. Ties break
// alphabetically so the histogram is deterministic.
func buildLabelHistogram(labels []*core.TaxonomyLabel) core.LabelHistogram {
	counts := map[string]map[string]int{}
	bump := func(field, value string) {
		if value == "" {
			return
		}
		if counts[field] == nil {
			counts[field] = map[string]int{}
		}
		counts[field][value]++
	}

	for _, label := range labels {
		for _, v := range label.Severity {
			bump("severity", v)
		}
		for _, v := range label.Impact {
			bump("impact", v)
		}
		for _, v := range label.Actor {
			bump("actor", v)
		}
		for _, v := range label.Platform {
			bump("platform", v)
		}
		for _, v := range label.MitreTactics {
			bump("mitre_tactics", v)
		}
		bump("os", label.OS)
		bump("department", label.Department)
		bump("city", label.City)
	}

	histogram := make(core.LabelHistogram, len(counts))
	for field, values := range counts {
		entries := make([]core.LabelCount, 0, len(values))
		for value, count := range values {
			entries = append(entries, core.LabelCount{Value: value, Count: count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Count != entries[j].Count {
				return entries[i].Count > entries[j].Count
			}
			return entries[i].Value < entries[j].Value
		})
		if len(entries) > histogramTop {
			entries = entries[:histogramTop]
		}
		histogram[field] = entries
	}
	return histogram
}

// buildAssetTable converts correlated assets into bounded bundle rows.
func buildAssetTable(assets []*core.Asset) []core.AssetSummary {
	if len(assets) > maxAssetRows {
		assets = assets[:maxAssetRows]
	}
	rows := make([]core.AssetSummary, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, core.AssetSummary{
			Type:       asset.Type,
			Hostname:   asset.Hostname,
			OS:         asset.OS,
			Location:   asset.Location,
			Department: asset.Department,
			Owner:      asset.Owner,
		})
	}
	return rows
}

// countAssetTypes tallies assets per type, count-sorted with alphabetical
// tie-break.
func countAssetTypes(assets []*core.Asset) []core.LabelCount {
	counts := map[string]int{}
	for _, asset := range assets {
		counts[asset.Type]++
	}
	entries := make([]core.LabelCount, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, core.LabelCount{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	return entries
}

// buildHistoryExcerpt formats the trailing conversation turns as
// role-labeled lines.
func buildHistoryExcerpt(history []core.ConversationTurn) []core.HistoryLine {
	start := len(history) - historyExcerpt
	if start < 0 {
		start = 0
	}
	lines := make([]core.HistoryLine, 0, len(history)-start)
	for _, turn := range history[start:] {
		lines = append(lines, core.HistoryLine{
			Role: turn.Role.String(),
			Text: turn.Text,
		})
	}
	return lines
}
