package classify

import (
	"testing"

	"github.com/caselight/backend/pkg/common"
)

func TestByRules(t *testing.T) {
	tests := []struct {
		name     string
		typeA    string
		typeB    string
		wantType string
		wantConf float64
	}{
		{name: "person org", typeA: common.TypePerson, typeB: common.TypeOrganization, wantType: RelWorksAt, wantConf: 0.75},
		{name: "org location", typeA: common.TypeOrganization, typeB: common.TypeLocation, wantType: RelLocatedIn, wantConf: 0.80},
		{name: "case date", typeA: common.TypeCaseNumber, typeB: common.TypeDate, wantType: RelFiledIn, wantConf: 0.85},
		{name: "statute case", typeA: common.TypeStatute, typeB: common.TypeCaseNumber, wantType: RelCites, wantConf: 0.90},
		{name: "person location", typeA: common.TypePerson, typeB: common.TypeLocation, wantType: RelLocatedIn, wantConf: 0.70},
		{name: "person case", typeA: common.TypePerson, typeB: common.TypeCaseNumber, wantType: RelPartyTo, wantConf: 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := ByRules(tt.typeA, tt.typeB)
			if rel == nil {
				t.Fatal("expected a relation, got nil")
			}
			if rel.Type != tt.wantType || rel.Confidence != tt.wantConf {
				t.Errorf("got %+v, want %s@%v", rel, tt.wantType, tt.wantConf)
			}
		})
	}
}

func TestByRulesSymmetric(t *testing.T) {
	types := []string{
		common.TypePerson, common.TypeOrganization, common.TypeLocation,
		common.TypeDate, common.TypeAmount, common.TypeCaseNumber, common.TypeStatute,
	}
	for _, a := range types {
		for _, b := range types {
			left := ByRules(a, b)
			right := ByRules(b, a)
			if (left == nil) != (right == nil) {
				t.Fatalf("asymmetric nil-ness for %s/%s", a, b)
			}
			if left != nil && (left.Type != right.Type || left.Confidence != right.Confidence) {
				t.Errorf("asymmetric result for %s/%s: %+v vs %+v", a, b, left, right)
			}
		}
	}
}

func TestByRulesUnlistedPair(t *testing.T) {
	if rel := ByRules(common.TypeDate, common.TypeAmount); rel != nil {
		t.Errorf("unlisted pair must return nil, got %+v", rel)
	}
}

func TestBySchema(t *testing.T) {
	rel := BySchema(common.TypePerson, common.TypeOrganization, "batch-1", "batch-1")
	if rel == nil || rel.Type != RelWorksAt || rel.Confidence != 0.90 {
		t.Errorf("same batch must force confidence 0.90 over the matrix, got %+v", rel)
	}

	rel = BySchema(common.TypeDate, common.TypeAmount, "batch-1", "batch-1")
	if rel == nil || rel.Type != RelRelatedTo || rel.Confidence != 0.90 {
		t.Errorf("same batch with unlisted pair yields related_to, got %+v", rel)
	}

	if rel := BySchema(common.TypePerson, common.TypeOrganization, "batch-1", "batch-2"); rel != nil {
		t.Errorf("different batches must not classify, got %+v", rel)
	}
	if rel := BySchema(common.TypePerson, common.TypeOrganization, "", ""); rel != nil {
		t.Errorf("missing batches must not classify, got %+v", rel)
	}
}

func TestByClusterHint(t *testing.T) {
	hints := DefaultHints()

	rel := hints.ByClusterHint("employment", common.TypePerson, common.TypeOrganization)
	if rel == nil || rel.Type != RelWorksAt || rel.Confidence != 0.90 {
		t.Errorf("employment hint must override the matrix confidence, got %+v", rel)
	}

	rel = hints.ByClusterHint("employment", common.TypeOrganization, common.TypePerson)
	if rel == nil || rel.Type != RelWorksAt {
		t.Errorf("hints must be symmetric in type order, got %+v", rel)
	}

	if rel := hints.ByClusterHint("employment", common.TypeDate, common.TypeAmount); rel != nil {
		t.Errorf("pair without hint entry returns nil, got %+v", rel)
	}
	if rel := hints.ByClusterHint("unknown-label", common.TypePerson, common.TypeOrganization); rel != nil {
		t.Errorf("unknown label returns nil, got %+v", rel)
	}
	if rel := HintTable(nil).ByClusterHint("employment", common.TypePerson, common.TypeOrganization); rel != nil {
		t.Errorf("nil table returns nil, got %+v", rel)
	}
}
