package resolve

import "github.com/caselight/backend/internal/util"

// Mode selects the co-reference decision procedure.
type Mode string

const (
	// ModeExact merges mentions only on identical normalized text and type.
	ModeExact Mode = "exact"
	// ModeFuzzy additionally merges on type-specific approximate matches.
	ModeFuzzy Mode = "fuzzy"
)

// Config carries the tunable matching thresholds. The defaults are
// starting points, not ground truth; deployments override them per corpus
// through the environment.
type Config struct {
	// NameThreshold is the minimum combined name score for person,
	// organization and other name-like types.
	NameThreshold float64
	// InitialMatchScore is the score assigned when an initialism match
	// fires ("J. Smith" vs "John Smith").
	InitialMatchScore float64
	// LocationDice is the minimum Dice score for locations that do not
	// match by containment.
	LocationDice float64
	// LocationContainScore is the score assigned to containment matches.
	LocationContainScore float64
	// AmountTolerance is the relative tolerance for amount equality.
	AmountTolerance float64
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		NameThreshold:        0.85,
		InitialMatchScore:    0.90,
		LocationDice:         0.80,
		LocationContainScore: 0.90,
		AmountTolerance:      0.01,
	}
}

// ConfigFromEnv builds a Config from the environment, falling back to the
// defaults for unset or malformed values.
func ConfigFromEnv() Config {
	def := DefaultConfig()
	return Config{
		NameThreshold:        util.GetEnvFloat("RESOLVE_NAME_THRESHOLD", def.NameThreshold),
		InitialMatchScore:    util.GetEnvFloat("RESOLVE_INITIAL_MATCH_SCORE", def.InitialMatchScore),
		LocationDice:         util.GetEnvFloat("RESOLVE_LOCATION_DICE", def.LocationDice),
		LocationContainScore: util.GetEnvFloat("RESOLVE_LOCATION_CONTAIN_SCORE", def.LocationContainScore),
		AmountTolerance:      util.GetEnvFloat("RESOLVE_AMOUNT_TOLERANCE", def.AmountTolerance),
	}
}
