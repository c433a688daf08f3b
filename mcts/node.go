// Package mcts implements the shared-tree Monte Carlo Tree Search engine:
// node storage, PUCT/UCB1-Tuned selection with Virtual Loss, expansion,
// heuristic/CNN-backed simulation, perspective-flipping backpropagation
// and game-theoretic solver propagation (spec §3, §4.4-§4.7).
package mcts

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/dama-zero/engine/board"
)

// Naughty is a non-owning index into a Tree's node pool — grounded on
// Elvenson-alphabeth/mcts/naughty.go's index-instead-of-pointer idiom,
// which sidesteps parent-back-pointer lifetime issues in an arena (spec
// §9 "parent back-pointers in a tree with arena lifetimes").
type Naughty int32

// NilNode is the sentinel "no node" index.
const NilNode Naughty = -1

// SolverStatus is the proven-node lattice (spec §4.7, §9, glossary
// "Proven node").
type SolverStatus uint32

// Solver statuses.
const (
	Unsolved SolverStatus = iota
	ProvenWin
	ProvenLoss
	ProvenDraw
)

func (s SolverStatus) String() string {
	switch s {
	case Unsolved:
		return "Unsolved"
	case ProvenWin:
		return "ProvenWin"
	case ProvenLoss:
		return "ProvenLoss"
	case ProvenDraw:
		return "ProvenDraw"
	default:
		return "?"
	}
}

// Node is a single MCTS tree node (spec §3). scoreSum/visits accumulate
// Q(parent, move-into-this-node): the value of having selected this node
// as a move, from the perspective of the player who selected it (this
// node's parent's mover). Storing the edge value at the child this way
// lets Select read child.QSA() directly with no sign negation, matches
// Elvenson-alphabeth/mcts/node.go's Select, and matches spec §4.5's
// Virtual Loss bullet ("score sum decremented by 1") literally: VL is a
// pessimistic adjustment to the very quantity the parent reads.
type Node struct {
	mu sync.Mutex

	state   board.State
	move    board.Move
	hasMove bool // false only for the root, which has no move-from-parent

	parent      Naughty
	children    []Naughty
	numChildren int32 // atomic; published after children is fully written (release fence)

	visits      uint32 // atomic; real+virtual combined, per spec §4.5/§5
	virtualLoss int32  // atomic; bookkeeping only, for invariant (I5)
	scoreSum    float64 // guarded by mu (spec §5: atomic f64 where available, else mutex)
	scoreSumSq  float64 // guarded by mu; sum of squared real backprop values, for UCB1-Tuned's sample variance

	prior float32
	pi    float32 // improved policy, set after search for training-adjacent callers

	terminal       bool
	legalMoveCount int // set at expansion time; 0 for terminal nodes
	solver         uint32 // atomic SolverStatus
}

// Format implements fmt.Formatter for debug logging, grounded on the
// teacher's Node.Format.
func (n *Node) Format(s fmt.State, _ rune) {
	fmt.Fprintf(s, "{move:%v q:%.3f p:%.3f n:%d status:%v}",
		n.move, n.QSA(), n.PSA(), n.Visits(), n.Solver())
}

// Move returns the move that led to this node from its parent.
func (n *Node) Move() board.Move { return n.move }

// HasMove reports whether this node has a move-from-parent (false for the
// root).
func (n *Node) HasMove() bool { return n.hasMove }

// State returns the position this node represents.
func (n *Node) State() *board.State { return &n.state }

// Parent returns the index of this node's parent, or NilNode for the root.
func (n *Node) Parent() Naughty { return n.parent }

// Visits returns the combined real+virtual visit count.
func (n *Node) Visits() uint32 { return atomic.LoadUint32(&n.visits) }

// VirtualLoss returns the current in-flight Virtual Loss bookkeeping
// counter (for diagnostics and invariant (I5) tests — never used in the
// selection formula directly).
func (n *Node) VirtualLoss() int32 { return atomic.LoadInt32(&n.virtualLoss) }

// QSA returns Q(parent, move-into-this-node), i.e. scoreSum/visits.
func (n *Node) QSA() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := atomic.LoadUint32(&n.visits)
	if v == 0 {
		return 0
	}
	return float32(n.scoreSum / float64(v))
}

// Variance returns the sample variance of this node's real backprop
// values (scoreSumSq/n - mean^2, floored at 0 against floating-point
// drift), the per-node term UCB1-Tuned's exploration bound needs (spec
// §4.5). With fewer than two real samples there is nothing to estimate
// from, so it reports the maximum possible variance for a [-1,1]-ranged
// reward (0.25), matching the bound UCB1-Tuned's own analysis falls back
// to before enough data accumulates.
func (n *Node) Variance() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := atomic.LoadUint32(&n.visits)
	if v < 2 {
		return 0.25
	}
	mean := n.scoreSum / float64(v)
	variance := n.scoreSumSq/float64(v) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

// PSA returns the prior probability P(s,a) assigned at expansion time.
func (n *Node) PSA() float32 { return n.prior }

// Pi returns the improved (visit-proportional) policy recorded after
// search, if SetPi was called.
func (n *Node) Pi() float32 { return n.pi }

// SetPi records the improved policy for this node.
func (n *Node) SetPi(p float32) { n.pi = p }

// IsTerminal reports whether this node's position has no legal moves or
// is drawn by the 40-ply rule.
func (n *Node) IsTerminal() bool { return n.terminal }

// Solver returns the current proven-node status.
func (n *Node) Solver() SolverStatus { return SolverStatus(atomic.LoadUint32(&n.solver)) }

// SetSolver sets the proven-node status.
func (n *Node) SetSolver(s SolverStatus) { atomic.StoreUint32(&n.solver, uint32(s)) }

// NumChildren returns the published child count, using an acquire load so
// a reader that observes NumChildren()>0 is guaranteed to see a fully
// written children slice (spec §4.4's release/acquire fence requirement).
func (n *Node) NumChildren() int {
	return int(atomic.LoadInt32(&n.numChildren))
}

// HasChildren reports whether expansion has published any children.
func (n *Node) HasChildren() bool { return n.NumChildren() > 0 }

// FullyExpanded reports whether every legal move from this position has a
// corresponding child — the gate the Open Question resolution in
// SPEC_FULL.md requires before a ProvenLoss verdict may be declared.
func (n *Node) FullyExpanded() bool {
	return n.terminal || n.NumChildren() == n.legalMoveCount
}

// Lock/Unlock expose the node's expansion mutex directly to Tree.Expand,
// which must hold it across move generation, child allocation and the
// release-fence publication of numChildren (spec §4.4: "Expansion is
// guarded by the node's mutex; idempotent").
func (n *Node) Lock()   { n.mu.Lock() }
func (n *Node) Unlock() { n.mu.Unlock() }

// applyVirtualLoss implements spec §4.5's Virtual Loss apply step.
func (n *Node) applyVirtualLoss() {
	atomic.AddUint32(&n.visits, 1)
	atomic.AddInt32(&n.virtualLoss, 1)
	n.mu.Lock()
	n.scoreSum -= 1
	n.mu.Unlock()
}

// undoVirtualLoss implements spec §4.5's Virtual Loss undo step, applied
// immediately before the real backpropagation update for the same node
// (spec §4.7).
func (n *Node) undoVirtualLoss() {
	atomic.AddUint32(&n.visits, ^uint32(0)) // -1
	atomic.AddInt32(&n.virtualLoss, -1)
	n.mu.Lock()
	n.scoreSum += 1
	n.mu.Unlock()
}

// backpropUpdate applies the real result for this node: increments the
// visit counter and adds value (spec §4.7). Must be called after
// undoVirtualLoss for the same traversal.
func (n *Node) backpropUpdate(value float32) {
	atomic.AddUint32(&n.visits, 1)
	n.mu.Lock()
	n.scoreSum += float64(value)
	n.scoreSumSq += float64(value) * float64(value)
	n.mu.Unlock()
}

// findChild returns the first child whose move equals m, or NilNode.
func (n *Node) findChild(tree *Tree, m board.Move) Naughty {
	for _, kid := range tree.Children(n.children, n.NumChildren()) {
		if movesEqual(tree.Node(kid).move, m) {
			return kid
		}
	}
	return NilNode
}

func movesEqual(a, b board.Move) bool {
	if a.Length != b.Length {
		return false
	}
	for i := 0; i <= a.Length; i++ {
		if a.Path[i] != b.Path[i] {
			return false
		}
	}
	return true
}
