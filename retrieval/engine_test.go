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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/aetheris/ai/mock"
	"github.com/poiesic/aetheris/core"
	"github.com/poiesic/aetheris/storage"
	storagebadger "github.com/poiesic/aetheris/storage/badger"
	"github.com/poiesic/aetheris/vectorindex"
	"github.com/poiesic/aetheris/vectorizer"
)

// modelEmbedder embeds queries with the snapshot's own TF-IDF model, so
// tests exercise the real search path without a network embedder.
type modelEmbedder struct {
	model *vectorizer.Model
}

func (m modelEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	return m.model.Transform(text), nil
}

func (m modelEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = m.model.Transform(text)
	}
	return out, nil
}

// captureMonitor records pipeline intermediates for assertions.
type captureMonitor struct {
	noopMonitor
	primary   []core.ID
	secondary []core.ID
	merged    []core.ID
	fallback  []*core.Document
}

func (c *captureMonitor) AfterPrimarySearch(ids []core.ID)           { c.primary = ids }
func (c *captureMonitor) AfterSecondarySearch(ids []core.ID)         { c.secondary = ids }
func (c *captureMonitor) AfterMerge(ids []core.ID)                   { c.merged = ids }
func (c *captureMonitor) AfterLexicalFallback(docs []*core.Document) { c.fallback = docs }

type engineFixture struct {
	engine    *Engine
	documents storage.DocumentRepository
	assets    storage.AssetRepository
	labels    storage.LabelRepository
	handle    *vectorindex.SnapshotHandle
	model     *vectorizer.Model
	ids       map[string]core.ID
}

// newEngineFixture seeds a small threat corpus plus inventory into memory
// repositories and builds a vector index over it. When indexWebdav is
// false the webdav article is stored but left out of the index, so vector
// search cannot find it and only the lexical fallback can.
func newEngineFixture(t *testing.T, indexWebdav bool) *engineFixture {
	t.Helper()
	docRepo, assetRepo, labelRepo, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		labelRepo.Close()
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	ctx := context.Background()
	now := time.Now().UTC()

	seed := []struct {
		key string
		doc *core.Document
	}{
		{"fortinet-recent", &core.Document{
			Title:     "Fortinet FortiGate VPN flaw actively exploited",
			Text:      "Administrators should patch FortiOS immediately.",
			Source:    "vendor-advisories",
			URL:       "https://intel.example/fortinet-recent",
			ScrapedAt: now.Add(-1 * time.Hour),
		}},
		{"fortinet-old", &core.Document{
			Title:     "Fortinet advisory from earlier this year",
			Text:      "A FortiGate issue long since patched.",
			Source:    "vendor-advisories",
			URL:       "https://intel.example/fortinet-old",
			ScrapedAt: now.Add(-10 * 24 * time.Hour),
		}},
		{"ransomware", &core.Document{
			Title:     "Ransomware crew hits logistics firms",
			Text:      "Encryption of backups observed during the intrusions.",
			Source:    "news-feed",
			URL:       "https://intel.example/ransomware",
			ScrapedAt: now.Add(-2 * time.Hour),
		}},
		{"phishing", &core.Document{
			Title:     "Phishing campaign steals credentials",
			Text:      "Email lures target finance staff with fake invoices.",
			Source:    "news-feed",
			URL:       "https://intel.example/phishing",
			ScrapedAt: now.Add(-3 * time.Hour),
		}},
		{"roundup", &core.Document{
			Title:     "Weekly threat roundup",
			Text:      "Mixed activity across sectors this week.",
			Source:    "news-feed",
			URL:       "https://intel.example/roundup",
			ScrapedAt: now.Add(-4 * time.Hour),
		}},
		{"webdav", &core.Document{
			Title:     "WebDAV zero-day exploited in the wild",
			Text:      "Microsoft IIS servers are being targeted.",
			Source:    "vendor-advisories",
			URL:       "https://intel.example/webdav",
			ScrapedAt: now.Add(-5 * time.Hour),
		}},
	}

	ids := make(map[string]core.ID, len(seed))
	var idMap []core.ID
	var texts []string
	for _, s := range seed {
		stored, err := docRepo.AddDocuments(ctx, s.doc)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		ids[s.key] = stored[0].Id
		if s.key == "webdav" && !indexWebdav {
			continue
		}
		idMap = append(idMap, stored[0].Id)
		texts = append(texts, s.doc.Title+" "+s.doc.Text)
	}

	model := vectorizer.Fit(texts, 0)
	index := vectorindex.NewIndex(model.Dim())
	for _, text := range texts {
		require.NoError(t, index.Add(model.Transform(text)))
	}
	snap := &vectorindex.Snapshot{Index: index, IDMap: idMap, Texts: texts, Model: model}
	require.NoError(t, snap.Validate())
	handle := vectorindex.NewSnapshotHandle(snap)

	_, err = assetRepo.AddAssets(ctx,
		&core.Asset{Hostname: "web-01", Type: "server", OS: "Windows Server 2019", Software: []string{"IIS", "WebDAV"}, Location: "London", Department: "IT"},
		&core.Asset{Hostname: "fw-01", Type: "firewall", OS: "FortiOS", Software: []string{"FortiGate"}, Location: "London", Department: "IT"},
		&core.Asset{Hostname: "hr-01", Type: "workstation", OS: "ChromeOS", Location: "Berlin", Department: "HR"},
	)
	require.NoError(t, err)

	require.NoError(t, labelRepo.AddLabels(ctx,
		&core.TaxonomyLabel{RecordRef: RecordRef(ids["fortinet-recent"]), Severity: []string{"critical"}, Platform: []string{"network"}},
		&core.TaxonomyLabel{RecordRef: RecordRef(ids["webdav"]), Severity: []string{"critical"}, Platform: []string{"windows"}},
	))

	engine, err := NewEngine(docRepo, assetRepo, labelRepo, handle, modelEmbedder{model})
	require.NoError(t, err)

	return &engineFixture{
		engine:    engine,
		documents: docRepo,
		assets:    assetRepo,
		labels:    labelRepo,
		handle:    handle,
		model:     model,
		ids:       ids,
	}
}

func TestNewEngineValidation(t *testing.T) {
	fx := newEngineFixture(t, true)

	_, err := NewEngine(nil, fx.assets, fx.labels, fx.handle, modelEmbedder{fx.model})
	assert.ErrorIs(t, err, ErrDocumentRepositoryRequired)

	_, err = NewEngine(fx.documents, nil, fx.labels, fx.handle, modelEmbedder{fx.model})
	assert.ErrorIs(t, err, ErrAssetRepositoryRequired)

	_, err = NewEngine(fx.documents, fx.assets, nil, fx.handle, modelEmbedder{fx.model})
	assert.ErrorIs(t, err, ErrLabelRepositoryRequired)

	_, err = NewEngine(fx.documents, fx.assets, fx.labels, nil, modelEmbedder{fx.model})
	assert.ErrorIs(t, err, ErrSnapshotHandleRequired)

	_, err = NewEngine(fx.documents, fx.assets, fx.labels, fx.handle, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestRetrieveContextTemporalFilter(t *testing.T) {
	fx := newEngineFixture(t, true)

	bundle, err := fx.engine.RetrieveContext(context.Background(),
		"any fortinet threats in the last 24 hours?", nil)
	require.NoError(t, err)

	assert.Equal(t, core.IntentGeneral, bundle.Intent)
	assert.Equal(t, []string{"fortinet", "fortigate", "vpn"}, bundle.ExpansionTerms)

	// The stale advisory falls outside the 24-hour window; everything
	// else survives, with the term-matching document boosted to the top.
	require.NotEmpty(t, bundle.Documents)
	assert.Equal(t, fx.ids["fortinet-recent"], bundle.Documents[0].DocumentId)
	assert.True(t, bundle.Documents[0].ContextMatch)
	for _, doc := range bundle.Documents {
		assert.NotEqual(t, fx.ids["fortinet-old"], doc.DocumentId)
	}
	assert.Len(t, bundle.Documents, 5)

	// Correlation: the FortiGate firewall matches the vpn indicators
	assert.False(t, bundle.AssetFallback)
	hostnames := make([]string, 0, len(bundle.Assets))
	for _, row := range bundle.Assets {
		hostnames = append(hostnames, row.Hostname)
	}
	assert.Contains(t, hostnames, "fw-01")

	// The labeled fortinet document contributes to the histogram
	require.Contains(t, bundle.LabelSummary, "severity")
	assert.Equal(t, "critical", bundle.LabelSummary["severity"][0].Value)
}

func TestRetrieveContextHistoryEnhancement(t *testing.T) {
	fx := newEngineFixture(t, true)

	history := turns(
		"any threats in the last 24 hours?",
		"Yes, a WebDAV zero-day is being exploited against IIS.",
	)
	bundle, err := fx.engine.RetrieveContext(context.Background(), "tell me more", history)
	require.NoError(t, err)

	assert.Equal(t, "tell me more webdav zero-day microsoft", bundle.EnhancedQuery)
	assert.Equal(t, []string{"webdav", "zero-day", "microsoft"}, bundle.ExpansionTerms)

	require.NotEmpty(t, bundle.Documents)
	assert.Equal(t, fx.ids["webdav"], bundle.Documents[0].DocumentId)
	assert.True(t, bundle.Documents[0].ContextMatch)

	// Both turns land in the history excerpt
	require.Len(t, bundle.History, 2)
	assert.Equal(t, "user", bundle.History[0].Role)
	assert.Equal(t, "assistant", bundle.History[1].Role)
}

func TestRetrieveContextLexicalFallback(t *testing.T) {
	// The webdav article is stored but not indexed, so vector search
	// cannot surface it; the substring fallback must recover it.
	fx := newEngineFixture(t, false)

	monitor := &captureMonitor{}
	bundle, err := fx.engine.RetrieveContextWithMonitor(context.Background(),
		"what about the webdav zero-day?", nil, monitor)
	require.NoError(t, err)

	require.NotEmpty(t, bundle.Documents)
	assert.Equal(t, fx.ids["webdav"], bundle.Documents[0].DocumentId)
	assert.True(t, bundle.Documents[0].ContextMatch)

	assert.NotContains(t, monitor.merged, fx.ids["webdav"],
		"fallback document must come from text search, not the index")
	require.NotEmpty(t, monitor.fallback)
	assert.Equal(t, fx.ids["webdav"], monitor.fallback[0].Id)
}

func TestRetrieveContextVectorMatchOutranksFallback(t *testing.T) {
	// Two webdav articles: the initial advisory is indexed, the newer
	// follow-up is stored only. Vector-ranked matches keep their place
	// ahead of fallback recoveries even when the fallback doc is fresher.
	docRepo, assetRepo, labelRepo, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		labelRepo.Close()
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	ctx := context.Background()
	now := time.Now().UTC()

	initial := &core.Document{
		Title:     "WebDAV zero-day exploited in the wild",
		Text:      "Microsoft IIS servers are being targeted.",
		Source:    "vendor-advisories",
		URL:       "https://intel.example/webdav-initial",
		ScrapedAt: now.Add(-4 * time.Hour),
	}
	followup := &core.Document{
		Title:     "Follow-up on the WebDAV zero-day",
		Text:      "Mitigation guidance for the IIS flaw is now available.",
		Source:    "vendor-advisories",
		URL:       "https://intel.example/webdav-followup",
		ScrapedAt: now.Add(-1 * time.Hour),
	}
	roundup := &core.Document{
		Title:     "Weekly threat roundup",
		Text:      "Mixed activity across sectors this week.",
		Source:    "news-feed",
		URL:       "https://intel.example/roundup-latest",
		ScrapedAt: now.Add(-2 * time.Hour),
	}
	stored, err := docRepo.AddDocuments(ctx, initial, followup, roundup)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// Index the initial advisory and the roundup; the follow-up is
	// reachable through text search alone.
	texts := []string{
		initial.Title + " " + initial.Text,
		roundup.Title + " " + roundup.Text,
	}
	idMap := []core.ID{stored[0].Id, stored[2].Id}
	model := vectorizer.Fit(texts, 0)
	index := vectorindex.NewIndex(model.Dim())
	for _, text := range texts {
		require.NoError(t, index.Add(model.Transform(text)))
	}
	snap := &vectorindex.Snapshot{Index: index, IDMap: idMap, Texts: texts, Model: model}
	require.NoError(t, snap.Validate())

	engine, err := NewEngine(docRepo, assetRepo, labelRepo,
		vectorindex.NewSnapshotHandle(snap), modelEmbedder{model})
	require.NoError(t, err)

	monitor := &captureMonitor{}
	bundle, err := engine.RetrieveContextWithMonitor(ctx,
		"what about the webdav zero-day?", nil, monitor)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(bundle.Documents), 2)
	assert.Equal(t, stored[0].Id, bundle.Documents[0].DocumentId,
		"vector-ranked match stays first")
	assert.Equal(t, stored[1].Id, bundle.Documents[1].DocumentId,
		"fallback recovery follows despite being more recent")
	assert.True(t, bundle.Documents[0].ContextMatch)
	assert.True(t, bundle.Documents[1].ContextMatch)

	assert.NotContains(t, monitor.merged, stored[1].Id)
	require.NotEmpty(t, monitor.fallback)
}

func TestRetrieveContextNoDuplicateCandidates(t *testing.T) {
	fx := newEngineFixture(t, true)

	monitor := &captureMonitor{}
	bundle, err := fx.engine.RetrieveContextWithMonitor(context.Background(),
		"ransomware and phishing activity update", nil, monitor)
	require.NoError(t, err)

	assert.NotEmpty(t, monitor.primary)
	assert.NotEmpty(t, monitor.secondary, "expansion terms must trigger the secondary search")
	assert.LessOrEqual(t, len(monitor.merged), mergeCap)

	seen := make(map[core.ID]bool)
	for _, id := range monitor.merged {
		assert.False(t, seen[id], "duplicate candidate %d", id)
		seen[id] = true
	}

	seen = make(map[core.ID]bool)
	for _, doc := range bundle.Documents {
		assert.False(t, seen[doc.DocumentId], "duplicate document %d", doc.DocumentId)
		seen[doc.DocumentId] = true
	}
	assert.LessOrEqual(t, len(bundle.Documents), finalDocumentCount)
}

func TestRetrieveContextIdempotent(t *testing.T) {
	fx := newEngineFixture(t, true)
	history := turns("what is going on with ransomware?", "Several campaigns are active.")

	a, err := fx.engine.RetrieveContext(context.Background(), "summarize the situation", history)
	require.NoError(t, err)
	b, err := fx.engine.RetrieveContext(context.Background(), "summarize the situation", history)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRetrieveContextEmptyIndex(t *testing.T) {
	docRepo, assetRepo, labelRepo, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		labelRepo.Close()
		assetRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	engine, err := NewEngine(docRepo, assetRepo, labelRepo,
		vectorindex.NewSnapshotHandle(nil), mock.NewMockEmbedder())
	require.NoError(t, err)

	bundle, err := engine.RetrieveContext(context.Background(), "anything new?", nil)
	require.NoError(t, err)
	assert.Empty(t, bundle.Documents)
	assert.True(t, bundle.AssetFallback)
}

func TestRetrieveContextEmbedderDimensionMismatch(t *testing.T) {
	fx := newEngineFixture(t, true)

	wrongDim := mock.NewMockEmbedder() // 384 dims, far wider than the model
	engine, err := NewEngine(fx.documents, fx.assets, fx.labels, fx.handle, wrongDim)
	require.NoError(t, err)

	_, err = engine.RetrieveContext(context.Background(), "latest threats", nil)
	assert.ErrorIs(t, err, vectorindex.ErrVectorizerMismatch)
}

func TestRetrieveContextInventoryBypass(t *testing.T) {
	fx := newEngineFixture(t, true)

	embedder := mock.NewMockEmbedder()
	engine, err := NewEngine(fx.documents, fx.assets, fx.labels, fx.handle, embedder)
	require.NoError(t, err)

	bundle, err := engine.RetrieveContext(context.Background(), "how many servers do we have?", nil)
	require.NoError(t, err)

	assert.Equal(t, core.IntentInventory, bundle.Intent)
	assert.Empty(t, bundle.Documents)
	assert.NotEmpty(t, bundle.AssetCounts)
	assert.NotEmpty(t, bundle.Assets)
	assert.Equal(t, 0, embedder.CallCount(), "inventory queries must not hit the embedder")
}

func TestRetrieveContextInventoryDepartmentFilter(t *testing.T) {
	fx := newEngineFixture(t, true)

	bundle, err := fx.engine.RetrieveContext(context.Background(),
		"how many machines does HR have?", nil)
	require.NoError(t, err)

	assert.Equal(t, core.IntentInventory, bundle.Intent)
	require.Len(t, bundle.Assets, 1)
	assert.Equal(t, "hr-01", bundle.Assets[0].Hostname)
	assert.Equal(t, []core.LabelCount{{Value: "workstation", Count: 1}}, bundle.AssetCounts)
}

func TestAnswerWithoutGenerator(t *testing.T) {
	fx := newEngineFixture(t, true)

	_, _, err := fx.engine.Answer(context.Background(), "latest threats", nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestAnswer(t *testing.T) {
	fx := newEngineFixture(t, true)

	generator := mock.NewMockGenerator()
	engine, err := NewEngine(fx.documents, fx.assets, fx.labels, fx.handle,
		modelEmbedder{fx.model}, WithGenerator(generator))
	require.NoError(t, err)

	answer, bundle, err := engine.Answer(context.Background(), "summarize recent ransomware activity", nil)
	require.NoError(t, err)
	assert.Equal(t, "mock generated answer", answer)
	require.NotNil(t, bundle)
	assert.Contains(t, generator.LastPrompt(), "summarize recent ransomware activity")
}

func TestAnswerGenerationFailureKeepsBundle(t *testing.T) {
	fx := newEngineFixture(t, true)

	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(context.Context, string) (string, error) {
		return "", errors.New("model endpoint unreachable")
	}
	engine, err := NewEngine(fx.documents, fx.assets, fx.labels, fx.handle,
		modelEmbedder{fx.model}, WithGenerator(generator))
	require.NoError(t, err)

	answer, bundle, err := engine.Answer(context.Background(), "latest fortinet news", nil)
	require.Error(t, err)
	assert.Empty(t, answer)
	require.NotNil(t, bundle, "retrieval result survives generation failure")
	assert.NotEmpty(t, bundle.Documents)
}
