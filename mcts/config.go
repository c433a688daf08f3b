package mcts

// SelectionPolicy picks the tree-policy formula used at every descent
// decision, the root included (spec §4.5).
type SelectionPolicy int

// Selection policies.
const (
	PUCT SelectionPolicy = iota
	UCB1Tuned
)

// Config bundles every tunable of the search (spec §4.5, §4.6, §4.7,
// §4.9), grounded on Elvenson-alphabeth/mcts/config.go's flat,
// exported-field Config struct — kept in that shape rather than an
// options-pattern, matching the teacher's convention.
type Config struct {
	Selection SelectionPolicy

	// PUCT.
	CPuct float32

	// UCB1-Tuned.
	UCBC float32

	// First-Play Urgency: the exploitation value assigned to an
	// unvisited child before its first real visit (spec §4.5).
	FPUValue float32

	// Progressive bias: weight on the heuristic term, and the visit step
	// of its decay: the term is divided by 1+visits/ProgressiveBiasDecay
	// (integer division), so it shrinks but never reaches zero (spec
	// §4.5, §9).
	ProgressiveBiasWeight float32
	ProgressiveBiasDecay  uint32

	// Root exploration noise (spec §4.6).
	DirichletAlpha   float32
	DirichletEpsilon float32

	// Rollout (spec §4.6's heuristic-simulation fallback, used whenever
	// no CNN evaluator is wired). RolloutEpsilon is the ε-greedy factor
	// spec.md §6 names: at each ply, independently, a uniformly random
	// legal move is played with probability RolloutEpsilon and the
	// heuristically best move is played otherwise. 1.0 is a pure random
	// walk, 0.0 is fully deterministic greedy play.
	RolloutMaxPlies int
	RolloutGamma    float32
	RolloutEpsilon  float32
	RolloutWeights  HeuristicWeights

	// Solver propagation gate (spec §4.7, Open Question resolution #2
	// in SPEC_FULL.md): a node may only be marked ProvenLoss once every
	// legal move from it has a corresponding expanded child.
	EnableSolver bool

	// Node pool sizing hint; Tree grows past this if needed.
	NodePoolHint int
}

// HeuristicWeights scores a board position for the rollout policy and
// the progressive-bias term (spec §4.6, §9's design note on hand-rolled
// evaluation), grounded on the simple material+positional scorers common
// across the example pack's non-neural engines.
type HeuristicWeights struct {
	Pawn         float32
	Lady         float32
	Capture      float32
	Promotion    float32
	Advance      float32
	Center       float32
	Edge         float32
	Base         float32
	Threat       float32
	LadyActivity float32
}

// DefaultHeuristicWeights mirrors a conventional draughts evaluation
// function's rough magnitudes (lady worth ~3 pawns, center/base control
// as small positional nudges).
func DefaultHeuristicWeights() HeuristicWeights {
	return HeuristicWeights{
		Pawn:         1.0,
		Lady:         3.0,
		Capture:      0.5,
		Promotion:    0.75,
		Advance:      0.2,
		Center:       0.1,
		Edge:         -0.05,
		Base:         0.15,
		Threat:       -0.3,
		LadyActivity: 0.2,
	}
}

// DefaultConfig returns reasonable defaults for every tunable, in the
// spirit of Elvenson-alphabeth/mcts/config.go's DefaultMCTSConfig.
func DefaultConfig() Config {
	return Config{
		Selection:             PUCT,
		CPuct:                 1.5,
		UCBC:                  1.4,
		FPUValue:              0.25,
		ProgressiveBiasWeight: 1.0,
		ProgressiveBiasDecay:  40,
		DirichletAlpha:        0.3,
		DirichletEpsilon:      0.25,
		RolloutMaxPlies:       160,
		RolloutGamma:          0.99,
		RolloutEpsilon:        0.15,
		RolloutWeights:        DefaultHeuristicWeights(),
		EnableSolver:          true,
		NodePoolHint:          4096,
	}
}

// IsValid reports whether the configuration is internally consistent,
// grounded on the teacher's config validation convention (spec's AMBIENT
// "config" section: Validate-style guard rather than silent defaults).
func (c Config) IsValid() bool {
	if c.CPuct < 0 || c.UCBC < 0 {
		return false
	}
	if c.DirichletAlpha <= 0 || c.DirichletEpsilon < 0 || c.DirichletEpsilon > 1 {
		return false
	}
	if c.RolloutMaxPlies < 0 || c.RolloutGamma < 0 || c.RolloutGamma > 1 {
		return false
	}
	if c.RolloutEpsilon < 0 || c.RolloutEpsilon > 1 {
		return false
	}
	if c.NodePoolHint <= 0 {
		return false
	}
	return true
}
