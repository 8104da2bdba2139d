package classify

import (
	"strings"

	"github.com/caselight/backend/pkg/common"
)

// Relationship types emitted by the rule matrix.
const (
	RelWorksAt   = "works_at"
	RelLocatedIn = "located_in"
	RelFiledIn   = "filed_in"
	RelCites     = "cites"
	RelPartyTo   = "party_to"
	RelRelatedTo = "related_to"
)

// Relation is a classified relationship with its confidence.
type Relation struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// pairKey builds an order-independent key for a type pair.
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// ruleMatrix is the fixed type-pair classification table. Pairs not
// listed here fall through to the cluster hints or the external
// classifier.
var ruleMatrix = map[string]Relation{
	pairKey(common.TypePerson, common.TypeOrganization):     {Type: RelWorksAt, Confidence: 0.75},
	pairKey(common.TypeOrganization, common.TypeLocation):   {Type: RelLocatedIn, Confidence: 0.80},
	pairKey(common.TypeCaseNumber, common.TypeDate):         {Type: RelFiledIn, Confidence: 0.85},
	pairKey(common.TypeStatute, common.TypeCaseNumber):      {Type: RelCites, Confidence: 0.90},
	pairKey(common.TypePerson, common.TypeLocation):         {Type: RelLocatedIn, Confidence: 0.70},
	pairKey(common.TypeOrganization, common.TypeCaseNumber): {Type: RelPartyTo, Confidence: 0.75},
	pairKey(common.TypePerson, common.TypeCaseNumber):       {Type: RelPartyTo, Confidence: 0.75},
}

// ByRules classifies a type pair against the fixed matrix. The result is
// independent of argument order; unlisted pairs return nil.
func ByRules(typeA, typeB string) *Relation {
	if rel, ok := ruleMatrix[pairKey(typeA, typeB)]; ok {
		r := rel
		return &r
	}
	return nil
}

// schemaConfidence is assigned when two entities come from the same
// structured-extraction batch: the extractor already asserted they belong
// together, which outranks any matrix entry.
const schemaConfidence = 0.90

// BySchema classifies a pair of mentions that share a structured
// extraction batch. The relationship type falls back to the rule matrix
// when the pair is listed there, otherwise a generic related_to is used;
// the confidence is forced either way. Returns nil when the mentions do
// not share a batch.
func BySchema(typeA, typeB, batchA, batchB string) *Relation {
	if batchA == "" || batchA != batchB {
		return nil
	}
	if rel := ByRules(typeA, typeB); rel != nil {
		return &Relation{Type: rel.Type, Confidence: schemaConfidence}
	}
	return &Relation{Type: RelRelatedTo, Confidence: schemaConfidence}
}

// HintTable maps a cluster label plus type pair to a relationship
// override. Labels come from upstream document clustering.
type HintTable map[string]map[string]Relation

// DefaultHints returns the built-in cluster override table. Deployments
// extend it through configuration; the entries here mirror the most
// common document clusters.
func DefaultHints() HintTable {
	return HintTable{
		"employment": {
			pairKey(common.TypePerson, common.TypeOrganization): {Type: RelWorksAt, Confidence: 0.90},
		},
		"jurisdiction": {
			pairKey(common.TypeCaseNumber, common.TypeLocation): {Type: RelFiledIn, Confidence: 0.85},
		},
		"litigation": {
			pairKey(common.TypePerson, common.TypeCaseNumber):       {Type: RelPartyTo, Confidence: 0.90},
			pairKey(common.TypeOrganization, common.TypeCaseNumber): {Type: RelPartyTo, Confidence: 0.90},
		},
	}
}

// ByClusterHint looks up a label-keyed override for the type pair.
// Returns nil when the label or pair has no entry.
func (h HintTable) ByClusterHint(label, typeA, typeB string) *Relation {
	if h == nil || label == "" {
		return nil
	}
	pairs, ok := h[strings.ToLower(strings.TrimSpace(label))]
	if !ok {
		return nil
	}
	if rel, ok := pairs[pairKey(typeA, typeB)]; ok {
		r := rel
		return &r
	}
	return nil
}
