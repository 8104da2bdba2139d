package resolve

import (
	"testing"

	"github.com/caselight/backend/pkg/common"
)

func mention(id, typ, text, doc string) common.Mention {
	return common.Mention{
		EntityID:       id,
		Type:           typ,
		RawText:        text,
		NormalizedText: text,
		Confidence:     0.9,
		DocumentID:     doc,
	}
}

func TestResolveExactMergesIdenticalMentions(t *testing.T) {
	mentions := []common.Mention{
		mention("e1", common.TypePerson, "John Smith", "d1"),
		mention("e2", common.TypePerson, "John Smith", "d2"),
		mention("e3", common.TypePerson, "Jane Doe", "d2"),
	}

	res := Resolve(mentions, nil, ModeExact, DefaultConfig())

	if len(res.Pending) != 2 {
		t.Fatalf("expected 2 pending nodes, got %d", len(res.Pending))
	}
	if res.Decisions[0].Method != common.MethodSingleton {
		t.Errorf("first mention must seed a singleton, got %q", res.Decisions[0].Method)
	}
	if res.Decisions[1].Method != common.MethodExact || res.Decisions[1].Pending != 0 {
		t.Errorf("second mention must merge exactly into pending 0, got %+v", res.Decisions[1])
	}
	if res.Decisions[2].Pending != 1 {
		t.Errorf("unrelated mention must get its own node, got %+v", res.Decisions[2])
	}
}

func TestResolveExactIsOrderIndependent(t *testing.T) {
	forward := []common.Mention{
		mention("e1", common.TypePerson, "John Smith", "d1"),
		mention("e2", common.TypePerson, "Jane Doe", "d1"),
		mention("e3", common.TypePerson, "John Smith", "d2"),
	}
	backward := []common.Mention{forward[2], forward[1], forward[0]}

	for _, ms := range [][]common.Mention{forward, backward} {
		res := Resolve(ms, nil, ModeExact, DefaultConfig())
		if len(res.Pending) != 2 {
			t.Fatalf("expected 2 nodes regardless of order, got %d", len(res.Pending))
		}
	}
}

func TestResolveExactDoesNotMergeAcrossTypes(t *testing.T) {
	mentions := []common.Mention{
		mention("e1", common.TypePerson, "Madison", "d1"),
		mention("e2", common.TypeLocation, "Madison", "d1"),
	}
	res := Resolve(mentions, nil, ModeExact, DefaultConfig())
	if len(res.Pending) != 2 {
		t.Fatalf("same text with different types must not merge, got %d nodes", len(res.Pending))
	}
}

func TestResolveFuzzyNameVariants(t *testing.T) {
	mentions := []common.Mention{
		mention("e1", common.TypePerson, "John Smith", "d1"),
		mention("e2", common.TypePerson, "Smith, John", "d2"),
		mention("e3", common.TypePerson, "J. Smith", "d3"),
		mention("e4", common.TypeOrganization, "Acme Corp.", "d1"),
		mention("e5", common.TypeOrganization, "Acme Corporation", "d2"),
	}

	res := Resolve(mentions, nil, ModeFuzzy, DefaultConfig())

	if len(res.Pending) != 2 {
		t.Fatalf("expected 2 pending nodes (one person, one org), got %d: %+v", len(res.Pending), res.Pending)
	}
	for _, d := range res.Decisions[1:3] {
		if d.Pending != 0 || d.Method != common.MethodFuzzy {
			t.Errorf("person variant should fuzzy-merge into pending 0, got %+v", d)
		}
	}
	if res.Decisions[4].Pending != 1 {
		t.Errorf("org variant should merge into pending 1, got %+v", res.Decisions[4])
	}

	// First-seen spelling stays canonical, later variants become aliases.
	if res.Pending[0].CanonicalName != "John Smith" {
		t.Errorf("unexpected canonical name %q", res.Pending[0].CanonicalName)
	}
	if len(res.Pending[0].Aliases) != 2 {
		t.Errorf("expected 2 aliases, got %v", res.Pending[0].Aliases)
	}
}

func TestResolveFuzzyTypedMatching(t *testing.T) {
	tests := []struct {
		name      string
		typ       string
		a         string
		b         string
		wantMerge bool
	}{
		{name: "dates normalize", typ: common.TypeDate, a: "2024-01-15", b: "January 15, 2024", wantMerge: true},
		{name: "different dates", typ: common.TypeDate, a: "2024-01-15", b: "2024-03-01", wantMerge: false},
		{name: "case numbers normalize", typ: common.TypeCaseNumber, a: "2024-CV-001", b: "2024 cv 001", wantMerge: true},
		{name: "amounts within tolerance", typ: common.TypeAmount, a: "$1,500.00", b: "1500", wantMerge: true},
		{name: "amounts apart", typ: common.TypeAmount, a: "1500", b: "2500", wantMerge: false},
		{name: "location containment", typ: common.TypeLocation, a: "New York City", b: "New York", wantMerge: true},
		{name: "unrelated locations", typ: common.TypeLocation, a: "Chicago", b: "Boston", wantMerge: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mentions := []common.Mention{
				mention("e1", tt.typ, tt.a, "d1"),
				mention("e2", tt.typ, tt.b, "d2"),
			}
			res := Resolve(mentions, nil, ModeFuzzy, DefaultConfig())
			merged := len(res.Pending) == 1
			if merged != tt.wantMerge {
				t.Errorf("merge = %v, want %v", merged, tt.wantMerge)
			}
		})
	}
}

func TestResolveAgainstExistingNodes(t *testing.T) {
	existing := []common.Node{
		{ID: 10, Type: common.TypePerson, CanonicalName: "John Smith", DocumentCount: 2},
		{ID: 11, Type: common.TypePerson, CanonicalName: "Jon Smith", DocumentCount: 1, Aliases: []string{"Jonny Smith"}},
	}
	mentions := []common.Mention{
		mention("e1", common.TypePerson, "John Smith", "d9"),
		mention("e2", common.TypePerson, "Jonny Smith", "d9"),
		mention("e3", common.TypePerson, "Someone Else", "d9"),
	}

	res := Resolve(mentions, existing, ModeFuzzy, DefaultConfig())

	if res.Decisions[0].NodeID != 10 || res.Decisions[0].Method != common.MethodExact {
		t.Errorf("expected exact match on node 10, got %+v", res.Decisions[0])
	}
	if res.Decisions[1].NodeID != 11 || res.Decisions[1].Method != common.MethodAlias {
		t.Errorf("expected alias match on node 11, got %+v", res.Decisions[1])
	}
	if res.Decisions[2].Method != common.MethodSingleton || len(res.Pending) != 1 {
		t.Errorf("unmatched mention must become a singleton, got %+v", res.Decisions[2])
	}
}

func TestResolveTieBreakPrefersMoreDocuments(t *testing.T) {
	existing := []common.Node{
		{ID: 5, Type: common.TypePerson, CanonicalName: "J. Smith", DocumentCount: 1},
		{ID: 6, Type: common.TypePerson, CanonicalName: "J. Smith", DocumentCount: 4},
	}
	res := Resolve(
		[]common.Mention{mention("e1", common.TypePerson, "J. Smith", "d1")},
		existing, ModeFuzzy, DefaultConfig(),
	)
	if res.Decisions[0].NodeID != 6 {
		t.Errorf("tie must go to the node with more documents, got node %d", res.Decisions[0].NodeID)
	}
}

func TestResolveTieBreakLowestID(t *testing.T) {
	existing := []common.Node{
		{ID: 8, Type: common.TypePerson, CanonicalName: "J. Smith", DocumentCount: 2},
		{ID: 3, Type: common.TypePerson, CanonicalName: "J. Smith", DocumentCount: 2},
	}
	res := Resolve(
		[]common.Mention{mention("e1", common.TypePerson, "J. Smith", "d1")},
		existing, ModeFuzzy, DefaultConfig(),
	)
	if res.Decisions[0].NodeID != 3 {
		t.Errorf("final tie must go to the lowest node id, got node %d", res.Decisions[0].NodeID)
	}
}

func TestResolveNeverPanicsOnMalformedInput(t *testing.T) {
	mentions := []common.Mention{
		{EntityID: "e1"},
		{EntityID: "e2", Type: common.TypeAmount, RawText: "not money"},
		{EntityID: "e3", Type: common.TypeDate},
	}
	res := Resolve(mentions, nil, Mode("bogus"), DefaultConfig())
	if len(res.Decisions) != 3 {
		t.Fatalf("every mention gets a decision, got %d", len(res.Decisions))
	}
}

func TestMatchNamePrecedence(t *testing.T) {
	nodes := []common.Node{
		{ID: 1, Type: common.TypePerson, CanonicalName: "John Smith"},
		{ID: 2, Type: common.TypePerson, CanonicalName: "Jon Smythe", Aliases: []string{"John Smith Jr"}},
	}

	if n := MatchName("john smith", nodes, DefaultConfig()); n == nil || n.ID != 1 {
		t.Errorf("exact canonical match must win, got %+v", n)
	}
	if n := MatchName("John Smith Jr", nodes, DefaultConfig()); n == nil || n.ID != 2 {
		t.Errorf("alias match must be second, got %+v", n)
	}
	if n := MatchName("Smith, John", nodes, DefaultConfig()); n == nil || n.ID != 1 {
		t.Errorf("fuzzy fallback should find node 1, got %+v", n)
	}
	if n := MatchName("completely unknown", nodes, DefaultConfig()); n != nil {
		t.Errorf("unknown names resolve to nil, got %+v", n)
	}
}

func TestMatchNameFuzzesAliases(t *testing.T) {
	nodes := []common.Node{
		{ID: 1, Type: common.TypePerson, CanonicalName: "Bobby Tables", Aliases: []string{"Robert Smith"}},
		{ID: 2, Type: common.TypePerson, CanonicalName: "Jane Doe"},
	}

	// "Smith, Robert" is neither an exact canonical nor a literal alias
	// match, but token-sorts to the same name as the alias.
	if n := MatchName("Smith, Robert", nodes, DefaultConfig()); n == nil || n.ID != 1 {
		t.Errorf("fuzzy stage should score aliases too, got %+v", n)
	}
	if n := MatchName("Tables, Bobby", nodes, DefaultConfig()); n == nil || n.ID != 1 {
		t.Errorf("canonical fuzzing still works, got %+v", n)
	}
}
