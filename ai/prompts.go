package ai

import (
	"fmt"
	"strings"

	"github.com/poiesic/aetheris/core"
)

// RenderPrompt turns a context bundle into the prompt text for the
// generation collaborator. Each intent selects its own template; the
// bundle stays structured until this point so callers can inspect or
// re-render it without recomputing retrieval.
func RenderPrompt(bundle *core.ContextBundle) string {
	articles := renderDocuments(bundle.Documents)
	labels := renderLabels(bundle.LabelSummary)
	assets := renderAssets(bundle)

	switch bundle.Intent {
	case core.IntentSummary:
		return fmt.Sprintf(`Summarize the following threat reports:

%s

Include impacted systems and actors if available.
`, articles)

	case core.IntentImpact:
		return fmt.Sprintf(`Identify affected assets and users based on this context:

%s

Known affected assets:
%s
`, labels, assets)

	case core.IntentAction:
		return fmt.Sprintf(`Given this threat context:

%s

And related assets:
%s

Suggest appropriate remediation and containment steps.
`, articles, assets)

	case core.IntentInventory:
		return fmt.Sprintf(`You are a cybersecurity assistant with access to the asset inventory.

Inventory counts by type:
%s

Sample assets:
%s

User Query: %s
Answer the inventory question from the data above.
`, renderCounts(bundle.AssetCounts), assets, bundle.RawQuery)

	default:
		return fmt.Sprintf(`You are a cybersecurity assistant. Here is current context:

%s

Taxonomy:
%s

Assets:
%s

Recent conversation:
%s

User Query: %s
Please provide the best response based on available intelligence.
`, articles, labels, assets, renderHistory(bundle.History), bundle.RawQuery)
	}
}

func renderDocuments(docs []core.DocumentContext) string {
	if len(docs) == 0 {
		return "(no matching threat reports)"
	}
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("Title: %s\nSource: %s (%s)\nContent: %s...",
			d.Title, d.Source, d.PublishedAt.Format("2006-01-02"), d.Excerpt))
	}
	return strings.Join(parts, "\n\n")
}

func renderLabels(summary core.LabelHistogram) string {
	if len(summary) == 0 {
		return "(no taxonomy labels)"
	}
	// Fixed field order keeps rendering deterministic
	fields := []string{"severity", "impact", "actor", "platform", "mitre_tactics", "os", "department", "city"}
	var b strings.Builder
	for _, field := range fields {
		counts, ok := summary[field]
		if !ok || len(counts) == 0 {
			continue
		}
		values := make([]string, 0, len(counts))
		for _, c := range counts {
			values = append(values, fmt.Sprintf("%s (%d)", c.Value, c.Count))
		}
		fmt.Fprintf(&b, "%s: %s\n", field, strings.Join(values, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAssets(bundle *core.ContextBundle) string {
	if len(bundle.Assets) == 0 {
		return "(no asset data)"
	}
	lines := make([]string, 0, len(bundle.Assets)+1)
	if bundle.AssetFallback {
		lines = append(lines, "(inventory sample; no direct correlation found)")
	}
	for _, a := range bundle.Assets {
		lines = append(lines, fmt.Sprintf("%s - %s - %s - %s, %s - %s",
			a.Type, a.Hostname, a.OS, a.Location, a.Department, a.Owner))
	}
	return strings.Join(lines, "\n")
}

func renderCounts(counts []core.LabelCount) string {
	if len(counts) == 0 {
		return "(empty inventory)"
	}
	lines := make([]string, 0, len(counts))
	for _, c := range counts {
		lines = append(lines, fmt.Sprintf("%s: %d", c.Value, c.Count))
	}
	return strings.Join(lines, "\n")
}

func renderHistory(history []core.HistoryLine) string {
	if len(history) == 0 {
		return "(no prior turns)"
	}
	lines := make([]string, 0, len(history))
	for _, h := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", h.Role, h.Text))
	}
	return strings.Join(lines, "\n")
}
