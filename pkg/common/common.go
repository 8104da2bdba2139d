package common

import "time"

// Entity type labels produced by the extraction collaborator. The engine
// treats types as opaque strings; these are the ones with dedicated
// matching and classification behavior.
const (
	TypePerson       = "person"
	TypeOrganization = "organization"
	TypeLocation     = "location"
	TypeDate         = "date"
	TypeAmount       = "amount"
	TypeCaseNumber   = "case_number"
	TypeStatute      = "statute"
)

// Resolution methods recorded on a Link.
const (
	MethodExact     = "exact"
	MethodFuzzy     = "fuzzy"
	MethodAlias     = "alias"
	MethodSingleton = "singleton"
)

// Mention is one occurrence of an entity in a document. Mentions are
// immutable and owned by the extraction collaborator; the graph engine
// only reads them.
type Mention struct {
	EntityID       string  `json:"entity_id" validate:"required"`
	Type           string  `json:"type"`
	RawText        string  `json:"raw_text"`
	NormalizedText string  `json:"normalized_text"`
	Confidence     float64 `json:"confidence"`
	DocumentID     string  `json:"document_id" validate:"required"`
	Location       string  `json:"location,omitempty"`
	// SchemaBatch identifies the structured-extraction batch the mention
	// came from, when the extractor ran against a schema. Mentions sharing
	// a batch are known to be related.
	SchemaBatch string `json:"schema_batch,omitempty"`
}

// Node is the canonical representation of a real-world entity across
// documents. Aggregates are maintained transactionally: EdgeCount always
// equals the number of edges touching the node.
type Node struct {
	ID            int64    `json:"id"`
	PublicID      string   `json:"public_id"`
	Type          string   `json:"type"`
	CanonicalName string   `json:"canonical_name"`
	Aliases       []string `json:"aliases,omitempty"`
	DocumentCount int      `json:"document_count"`
	MentionCount  int      `json:"mention_count"`
	AvgConfidence float64  `json:"avg_confidence"`
	EdgeCount     int      `json:"edge_count"`
	Importance    float64  `json:"importance,omitempty"`
}

// Link associates a node with one underlying entity record. Each entity
// record links to exactly one node at any time.
type Link struct {
	ID               int64   `json:"id"`
	NodeID           int64   `json:"node_id"`
	EntityID         string  `json:"entity_id"`
	DocumentID       string  `json:"document_id"`
	ResolutionMethod string  `json:"resolution_method"`
	Similarity       float64 `json:"similarity"`
	Confidence       float64 `json:"confidence"`
}

// Edge is a directed, typed relationship between two nodes. At most one
// edge exists per (source, target, type); repeated evidence re-averages
// Weight and increments EvidenceCount. Self-loops are rejected.
type Edge struct {
	ID            int64      `json:"id"`
	SourceID      int64      `json:"source_id"`
	TargetID      int64      `json:"target_id"`
	Type          string     `json:"type"`
	Weight        float64    `json:"weight"`
	EvidenceCount int        `json:"evidence_count"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidTo       *time.Time `json:"valid_to,omitempty"`
}

// Touches reports whether the edge references the given node.
func (e Edge) Touches(nodeID int64) bool {
	return e.SourceID == nodeID || e.TargetID == nodeID
}

// Path is one route between two nodes, as alternating node and edge
// sequences: Nodes[i] -(Edges[i])-> Nodes[i+1].
type Path struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Hops returns the number of edges in the path.
func (p Path) Hops() int {
	return len(p.Edges)
}

// GraphStats summarizes a graph for the stats operation.
type GraphStats struct {
	GraphID       string         `json:"graph_id"`
	NodeCount     int            `json:"node_count"`
	EdgeCount     int            `json:"edge_count"`
	LinkCount     int            `json:"link_count"`
	DocumentCount int            `json:"document_count"`
	NodesByType   map[string]int `json:"nodes_by_type"`
	EdgesByType   map[string]int `json:"edges_by_type"`
}

// GraphExport is a self-contained serializable snapshot. Adjacency is
// arena-indexed (node id -> edge ids) so the export carries no object
// cycles.
type GraphExport struct {
	GraphID   string            `json:"graph_id"`
	Nodes     []Node            `json:"nodes"`
	Edges     []Edge            `json:"edges"`
	Links     []Link            `json:"links"`
	Adjacency map[int64][]int64 `json:"adjacency"`
}
