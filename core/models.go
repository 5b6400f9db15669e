package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document and asset IDs are generated with content-based hashing so that
// re-ingesting the same record produces the same ID.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a threat-intelligence article collected by the upstream
// crawlers. Embeddings are not stored on the document; they are computed at
// index-build time and live in the vector index snapshot.
type Document struct {
	Id          ID
	Title       string
	Text        string
	Source      string
	URL         string
	PublishedAt time.Time // Publication date claimed by the source
	ScrapedAt   time.Time // When the crawler collected the article
}

// Role identifies the author of a conversation turn.
type Role int

const (
	// RoleUser represents the human analyst.
	RoleUser Role = iota + 1
	// RoleAssistant represents the generation collaborator.
	RoleAssistant
)

// String returns the lowercase name of the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// ConversationTurn is a single message in a conversation. Turns are ordered,
// append-only, and owned by the caller's session; the engine only reads a
// trailing window.
type ConversationTurn struct {
	Role      Role
	Text      string
	Timestamp time.Time
}

// Intent is the classified purpose of a query. It drives which sub-pipeline
// runs and which prompt template the generation collaborator receives.
type Intent int

const (
	// IntentGeneral is the default when no keyword rule matches.
	IntentGeneral Intent = iota
	// IntentAction asks for remediation or containment steps.
	IntentAction
	// IntentSummary asks for an overview of threat reports.
	IntentSummary
	// IntentImpact asks who or what is affected.
	IntentImpact
	// IntentInventory asks about the asset or user inventory itself and
	// bypasses document retrieval entirely.
	IntentInventory
)

// String returns the lowercase name of the intent.
func (i Intent) String() string {
	switch i {
	case IntentAction:
		return "action"
	case IntentSummary:
		return "summary"
	case IntentImpact:
		return "impact"
	case IntentInventory:
		return "inventory"
	default:
		return "general"
	}
}

// QueryFilters holds entities extracted from the raw query text.
type QueryFilters struct {
	Location   string
	Department string
	TimeCutoff time.Time // Zero when the query has no time-scoped phrase
}

// Query is a classified and enhanced user query.
type Query struct {
	RawText      string
	EnhancedText string
	Intent       Intent
	Filters      QueryFilters
}

// RetrievalResult is a ranked document reference produced by the vector
// index. Rank is stable under repeated identical queries against an
// unchanged index.
type RetrievalResult struct {
	DocumentId ID
	Rank       int
	Score      float32
}

// Asset is a configuration item from the CMDB inventory.
type Asset struct {
	Id            ID
	Type          string
	Hostname      string
	OS            string
	OSVersion     string
	Software      []string
	SecurityTools string
	Location      string
	Department    string
	Owner         string
	Posture       string
}

// TaxonomyLabel is a read-only classification aggregate produced by the
// upstream labeling jobs. Multivalue fields mirror the classifier output.
type TaxonomyLabel struct {
	RecordRef    string // e.g. "Article:123"
	Severity     []string
	Impact       []string
	Actor        []string
	Platform     []string
	MitreTactics []string
	OS           string
	Department   string
	City         string
}

// LabelCount is a single value/count pair in a label histogram.
type LabelCount struct {
	Value string
	Count int
}

// LabelHistogram aggregates taxonomy label values per field, each capped to
// the top values by count.
type LabelHistogram map[string][]LabelCount

// DocumentContext is a document prepared for the generation collaborator:
// source attribution plus a bounded excerpt.
type DocumentContext struct {
	DocumentId   ID
	Title        string
	Source       string
	PublishedAt  time.Time
	Excerpt      string
	ContextMatch bool // True when the document matched an expansion term
}

// AssetSummary is a bounded row in the asset correlation table.
type AssetSummary struct {
	Type       string
	Hostname   string
	OS         string
	Location   string
	Department string
	Owner      string
}

// HistoryLine is a role-labeled excerpt line from the conversation history.
type HistoryLine struct {
	Role string
	Text string
}

// ContextBundle is the structured output of the retrieval engine, consumed
// by the generation collaborator. It is created fresh per query and has no
// persisted identity.
type ContextBundle struct {
	Intent         Intent
	RawQuery       string
	EnhancedQuery  string
	ExpansionTerms []string
	Documents      []DocumentContext
	LabelSummary   LabelHistogram
	Assets         []AssetSummary
	AssetFallback  bool // True when the table is an unfiltered inventory sample
	AssetCounts    []LabelCount
	History        []HistoryLine
}
