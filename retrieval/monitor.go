package retrieval

import "github.com/poiesic/aetheris/core"

// RetrievalMonitor provides hooks to observe the retrieval pipeline.
// Implement this interface to track intermediate steps during a query.
type RetrievalMonitor interface {
	Start(query string)
	AfterClassification(intent core.Intent)
	AfterEnhancement(enhancedQuery string, terms []string)
	AfterPrimarySearch(ids []core.ID)
	AfterSecondarySearch(ids []core.ID)
	AfterMerge(ids []core.ID)
	AfterTemporalFilter(docs []*core.Document)
	AfterLexicalFallback(docs []*core.Document)
	AfterCorrelation(assets []*core.Asset, sampleFallback bool)
	Finish(bundle *core.ContextBundle)
}

// noopMonitor is a no-op implementation of RetrievalMonitor
type noopMonitor struct{}

var _ RetrievalMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) AfterClassification(_ core.Intent)        {}
func (n *noopMonitor) AfterEnhancement(_ string, _ []string)    {}
func (n *noopMonitor) AfterPrimarySearch(_ []core.ID)           {}
func (n *noopMonitor) AfterSecondarySearch(_ []core.ID)         {}
func (n *noopMonitor) AfterMerge(_ []core.ID)                   {}
func (n *noopMonitor) AfterTemporalFilter(_ []*core.Document)   {}
func (n *noopMonitor) AfterLexicalFallback(_ []*core.Document)  {}
func (n *noopMonitor) AfterCorrelation(_ []*core.Asset, _ bool) {}
func (n *noopMonitor) Finish(_ *core.ContextBundle)             {}
