package badger

import (
	"context"
	"testing"

	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
)

func seedLabels(t *testing.T, ctx context.Context, repo storage.LabelRepository) {
	t.Helper()
	labels := []*core.TaxonomyLabel{
		{RecordRef: "Article:1", Severity: []string{"critical"}, Platform: []string{"windows"}, OS: "Windows", Department: "IT", City: "London"},
		{RecordRef: "Article:2", Severity: []string{"high", "critical"}, Platform: []string{"linux"}, Actor: []string{"FIN7"}},
		{RecordRef: "Article:3", Severity: []string{"low"}, City: "Berlin"},
	}
	if err := repo.AddLabels(ctx, labels...); err != nil {
		t.Fatalf("Failed to add labels: %v", err)
	}
}

func TestFilterLabelsByFields(t *testing.T) {
	docRepo, assetRepo, labelRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { labelRepo.Close(); assetRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()
	seedLabels(t, ctx, labelRepo)

	all, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{})
	if err != nil {
		t.Fatalf("Failed to filter labels: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 labels for empty filter, got %d", len(all))
	}

	// Multivalue fields match any element, case-insensitively
	critical, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{Severity: "CRITICAL"})
	if err != nil {
		t.Fatalf("Failed to filter by severity: %v", err)
	}
	if len(critical) != 2 {
		t.Fatalf("Expected 2 critical labels, got %d", len(critical))
	}

	windows, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{OS: "windows"})
	if err != nil {
		t.Fatalf("Failed to filter by OS: %v", err)
	}
	if len(windows) != 1 || windows[0].RecordRef != "Article:1" {
		t.Fatalf("Expected only Article:1 for OS windows, got %d", len(windows))
	}

	berlin, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{City: "berlin"})
	if err != nil {
		t.Fatalf("Failed to filter by city: %v", err)
	}
	if len(berlin) != 1 || berlin[0].RecordRef != "Article:3" {
		t.Fatalf("Expected only Article:3 for city berlin, got %d", len(berlin))
	}

	// Predicates combine conjunctively
	combined, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{Severity: "critical", Platform: "windows"})
	if err != nil {
		t.Fatalf("Failed to filter with combined predicates: %v", err)
	}
	if len(combined) != 1 || combined[0].RecordRef != "Article:1" {
		t.Fatalf("Expected only Article:1 for combined filter, got %d", len(combined))
	}

	none, err := labelRepo.FilterLabels(ctx, storage.LabelFilter{Department: "Finance"})
	if err != nil {
		t.Fatalf("Failed to filter: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no Finance labels, got %d", len(none))
	}
}
