package board

// Generate returns the legal moves for the side to move in s, per spec
// §4.1: all capture chains for all own pieces if any capture exists (with
// the Italian priority filter applied), otherwise all simple diagonal
// moves. Order is move-index order (own-piece square order, then
// direction order); callers relying on (I3)/(I4) should not assume any
// particular order beyond that determinism.
func Generate(s *State) []Move {
	mover := s.Side
	var captures []Move
	own := s.Own(mover)
	for sq := Square(0); sq < 64; sq++ {
		if !own.Has(sq) {
			continue
		}
		isLady := s.Ladies[mover].Has(sq)
		collectCaptures(s, mover, sq, isLady, &captures)
	}

	var moves []Move
	if len(captures) > 0 {
		moves = applyItalianPriority(captures)
	} else {
		moves = generateSimple(s, mover)
	}

	if len(moves) > MaxMoves {
		panic("board: move list overflow — engine invariant violated")
	}
	return moves
}

// generateSimple enumerates one-step diagonal moves for every own piece.
func generateSimple(s *State, mover Color) []Move {
	occupied := s.Occupied()
	var out []Move
	own := s.Own(mover)
	t := Tables()
	for sq := Square(0); sq < 64; sq++ {
		if !own.Has(sq) {
			continue
		}
		isLady := s.Ladies[mover].Has(sq)
		dirs := ladyDirs[:]
		if !isLady {
			pd := pawnDirs(mover)
			dirs = pd[:]
		}
		for _, d := range dirs {
			target := t.step[sq][d]
			if target == NoSquare || occupied.Has(target) {
				continue
			}
			var mv Move
			mv.Path[0] = sq
			mv.Path[1] = target
			out = append(out, mv)
		}
	}
	return out
}

// captureDFSState threads the working masks through the recursive
// capture-chain search without mutating the caller's State.
type captureDFSState struct {
	mover          Color
	enemy          Bitboard // remaining enemy pieces (pawns|ladies) not yet captured
	enemyLadies    Bitboard // remaining enemy ladies specifically
	occupied       Bitboard // remaining occupied squares (both colors minus captured)
	isLady         bool
	path           [MaxChainLen + 1]Square
	captured       [MaxChainLen]Square
	capturedIsLady [MaxChainLen]bool
}

// collectCaptures runs the capture-chain DFS for the piece on sq and
// appends every maximal (dead-end) chain found to *out.
func collectCaptures(s *State, mover Color, sq Square, isLady bool, out *[]Move) {
	enemy := mover.Opponent()
	st := captureDFSState{
		mover:       mover,
		enemy:       s.Pawns[enemy] | s.Ladies[enemy],
		enemyLadies: s.Ladies[enemy],
		occupied:    s.Occupied(),
		isLady:      isLady,
	}
	st.path[0] = sq
	dfsCapture(&st, sq, 0, out)
}

func dfsCapture(st *captureDFSState, cur Square, depth int, out *[]Move) {
	t := Tables()
	dirs := ladyDirs[:]
	if !st.isLady {
		pd := pawnDirs(st.mover)
		dirs = pd[:]
	}

	found := false
	for _, d := range dirs {
		over := t.over[cur][d]
		landing := t.landing[cur][d]
		if over == NoSquare || landing == NoSquare {
			continue
		}
		if !st.enemy.Has(over) {
			continue
		}
		if st.occupied.Has(landing) {
			continue
		}
		// Italian rule: a pawn may not capture a lady.
		capturedIsLady := st.enemyLadies.Has(over)
		if !st.isLady && capturedIsLady {
			continue
		}

		found = true

		// descend: remove captured piece from working masks, add to path
		savedEnemy, savedEnemyLadies, savedOccupied := st.enemy, st.enemyLadies, st.occupied
		st.enemy = st.enemy.Clear(over)
		st.enemyLadies = st.enemyLadies.Clear(over)
		st.occupied = st.occupied.Clear(over).Clear(cur).Set(landing)

		st.path[depth+1] = landing
		st.captured[depth] = over
		st.capturedIsLady[depth] = capturedIsLady

		// A pawn landing on its promotion rank freezes immediately — the
		// chain terminates even if further jumps would be geometrically
		// possible (spec §4.1).
		promotedMidChain := !st.isLady && landing.Row() == promotionRank(st.mover)
		if promotedMidChain {
			emitChain(st, depth+1, out)
		} else {
			dfsCapture(st, landing, depth+1, out)
		}

		// backtrack
		st.enemy, st.enemyLadies, st.occupied = savedEnemy, savedEnemyLadies, savedOccupied
	}

	if !found && depth > 0 {
		emitChain(st, depth, out)
	}
}

func emitChain(st *captureDFSState, length int, out *[]Move) {
	var mv Move
	mv.Length = length
	mv.IsLadyMove = st.isLady
	copy(mv.Path[:length+1], st.path[:length+1])
	copy(mv.Captured[:length], st.captured[:length])
	for i := 0; i < length; i++ {
		if st.capturedIsLady[i] {
			mv.CapturedLadiesCount++
		}
	}
	mv.FirstCapturedIsLady = st.capturedIsLady[0]
	*out = append(*out, mv)
}

// applyItalianPriority retains exactly the captures tying the maximum
// priority tuple (spec §4.1, glossary). Correct and idempotent (R3): a
// second application over an already-filtered list changes nothing,
// because every remaining move shares the same (now trivially maximal)
// tuple.
func applyItalianPriority(moves []Move) []Move {
	best := moves[0].priority()
	for _, m := range moves[1:] {
		p := m.priority()
		if best.less(p) {
			best = p
		}
	}
	out := moves[:0:0]
	for _, m := range moves {
		if m.priority() == best {
			out = append(out, m)
		}
	}
	return out
}
