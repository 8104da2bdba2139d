package resolve

import (
	"strings"

	"github.com/caselight/backend/pkg/common"
	"github.com/caselight/backend/pkg/similarity"
)

// pendingIDBase orders not-yet-persisted nodes after every existing node
// for tie-breaking purposes.
const pendingIDBase = int64(1) << 62

// Decision records where one mention was resolved to. Exactly one of
// NodeID (> 0, an existing node) or Pending (>= 0, an index into
// Result.Pending) identifies the target.
type Decision struct {
	Mention    common.Mention
	Method     string
	Similarity float64
	NodeID     int64
	Pending    int
}

// PendingNode describes a node the caller must create: the canonical name
// is taken from the first mention resolved into it, later variants become
// aliases.
type PendingNode struct {
	Type          string
	CanonicalName string
	Aliases       []string
}

// Result is the output of Resolve. Decisions appear in mention order.
type Result struct {
	Decisions []Decision
	Pending   []PendingNode
}

// candidate is one resolution target: either an existing node or a
// pending node created earlier in the same call.
type candidate struct {
	id       int64
	pending  int
	typ      string
	name     string
	aliases  []string
	docCount int
	docs     map[string]struct{}
}

// Resolve decides co-reference for the given mentions against the
// existing node set. It is a pure decision procedure: no persistence, no
// errors. Mentions also resolve against each other, so duplicates within
// one batch collapse into a single pending node regardless of order.
// An unknown mode degrades to exact matching.
func Resolve(mentions []common.Mention, existing []common.Node, mode Mode, cfg Config) Result {
	if mode != ModeFuzzy {
		mode = ModeExact
	}

	candidates := make([]candidate, 0, len(existing))
	for _, n := range existing {
		candidates = append(candidates, candidate{
			id:       n.ID,
			pending:  -1,
			typ:      n.Type,
			name:     n.CanonicalName,
			aliases:  n.Aliases,
			docCount: n.DocumentCount,
		})
	}

	res := Result{Decisions: make([]Decision, 0, len(mentions))}

	for _, m := range mentions {
		text := mentionText(m)

		best := -1
		bestMethod := ""
		bestScore := 0.0
		for i := range candidates {
			c := &candidates[i]
			if c.typ != m.Type {
				continue
			}
			method, score := scoreCandidate(text, m.Type, c, mode, cfg)
			if method == "" {
				continue
			}
			if best < 0 || better(score, c, bestScore, &candidates[best]) {
				best = i
				bestMethod = method
				bestScore = score
			}
		}

		if best < 0 {
			pending := len(res.Pending)
			res.Pending = append(res.Pending, PendingNode{
				Type:          m.Type,
				CanonicalName: text,
			})
			candidates = append(candidates, candidate{
				id:      pendingIDBase + int64(pending),
				pending: pending,
				typ:     m.Type,
				name:    text,
				docs:    map[string]struct{}{m.DocumentID: {}},
			})
			res.Decisions = append(res.Decisions, Decision{
				Mention:    m,
				Method:     common.MethodSingleton,
				Similarity: 1.0,
				Pending:    pending,
			})
			continue
		}

		c := &candidates[best]
		if c.pending >= 0 {
			p := &res.Pending[c.pending]
			if !strings.EqualFold(text, p.CanonicalName) && !containsFold(p.Aliases, text) {
				p.Aliases = append(p.Aliases, text)
				c.aliases = append(c.aliases, text)
			}
			if c.docs == nil {
				c.docs = make(map[string]struct{})
			}
			c.docs[m.DocumentID] = struct{}{}
			c.docCount = len(c.docs)
		}

		d := Decision{
			Mention:    m,
			Method:     bestMethod,
			Similarity: bestScore,
			Pending:    -1,
		}
		if c.pending >= 0 {
			d.Pending = c.pending
		} else {
			d.NodeID = c.id
		}
		res.Decisions = append(res.Decisions, d)
	}

	return res
}

// better implements the tie-break order: highest score, then larger
// document count, then lowest node id (pending nodes sort after all
// existing nodes).
func better(score float64, c *candidate, bestScore float64, best *candidate) bool {
	if score != bestScore {
		return score > bestScore
	}
	if c.docCount != best.docCount {
		return c.docCount > best.docCount
	}
	return c.id < best.id
}

func mentionText(m common.Mention) string {
	if m.NormalizedText != "" {
		return m.NormalizedText
	}
	return strings.TrimSpace(m.RawText)
}

// scoreCandidate returns the resolution method and similarity for one
// mention/candidate pair, or ("", 0) when the pair does not qualify.
func scoreCandidate(text, typ string, c *candidate, mode Mode, cfg Config) (string, float64) {
	if strings.EqualFold(text, c.name) {
		return common.MethodExact, 1.0
	}
	if containsFold(c.aliases, text) {
		return common.MethodAlias, 1.0
	}
	if mode == ModeExact {
		return "", 0
	}

	names := append([]string{c.name}, c.aliases...)
	bestScore := 0.0
	for _, name := range names {
		if score, ok := fuzzyScore(text, name, typ, cfg); ok && score > bestScore {
			bestScore = score
		}
	}
	if bestScore == 0 {
		return "", 0
	}
	return common.MethodFuzzy, bestScore
}

// fuzzyScore applies the type-specific fuzzy rules. The boolean reports
// whether the score qualifies for a merge at all.
func fuzzyScore(a, b, typ string, cfg Config) (float64, bool) {
	switch typ {
	case common.TypeDate:
		if na, nb := similarity.NormalizeDate(a), similarity.NormalizeDate(b); na != "" && na == nb {
			return 1.0, true
		}
		return 0, false
	case common.TypeCaseNumber:
		if na, nb := similarity.NormalizeCaseNumber(a), similarity.NormalizeCaseNumber(b); na != "" && na == nb {
			return 1.0, true
		}
		return 0, false
	case common.TypeAmount:
		if similarity.AmountsMatch(a, b, cfg.AmountTolerance) {
			return 1.0, true
		}
		return 0, false
	case common.TypeLocation:
		if similarity.LocationContains(a, b) || similarity.LocationContains(b, a) {
			return cfg.LocationContainScore, true
		}
		if dice := similarity.SorensenDice(a, b); dice >= cfg.LocationDice {
			return dice, true
		}
		return 0, false
	default:
		// person, organization, statute and anything else name-like
		score := similarity.TokenSortedSimilarity(
			similarity.ExpandAbbreviations(a),
			similarity.ExpandAbbreviations(b),
		)
		if similarity.InitialMatch(a, b) && cfg.InitialMatchScore > score {
			score = cfg.InitialMatchScore
		}
		if score >= cfg.NameThreshold {
			return score, true
		}
		return 0, false
	}
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// MatchName resolves a human-entered name to a node using the same
// precedence the resolution service uses for mentions: exact canonical
// match, then alias match, then the best qualifying fuzzy match. Returns
// nil when nothing qualifies.
func MatchName(name string, nodes []common.Node, cfg Config) *common.Node {
	name = strings.TrimSpace(name)
	if name == "" || len(nodes) == 0 {
		return nil
	}

	for i := range nodes {
		if strings.EqualFold(nodes[i].CanonicalName, name) {
			return &nodes[i]
		}
	}
	for i := range nodes {
		if containsFold(nodes[i].Aliases, name) {
			return &nodes[i]
		}
	}

	var best *common.Node
	bestScore := 0.0
	for i := range nodes {
		// Fuzz against the canonical name and every alias, keeping the
		// node's best score, the same way mention resolution does.
		score, ok := fuzzyScore(name, nodes[i].CanonicalName, nodes[i].Type, cfg)
		for _, alias := range nodes[i].Aliases {
			if s, aok := fuzzyScore(name, alias, nodes[i].Type, cfg); aok && (!ok || s > score) {
				score, ok = s, true
			}
		}
		if !ok {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && nodes[i].DocumentCount > best.DocumentCount) ||
			(score == bestScore && nodes[i].DocumentCount == best.DocumentCount && nodes[i].ID < best.ID) {
			best = &nodes[i]
			bestScore = score
		}
	}
	return best
}
