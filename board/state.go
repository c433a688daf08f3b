package board

// DrawPlyLimit is the number of plies without a capture after which the
// position is a draw (spec §4.1). Per the Open Question resolution in
// SPEC_FULL.md, this counter is unconditional: it counts every ply since
// the last capture regardless of how many ladies remain on the board.
const DrawPlyLimit = 40

// State is a single Italian-draughts position: four disjoint bitboards,
// the side to move, the plies-since-capture counter and the incremental
// Zobrist hash. Invariants (I1)-(I3),(I7),(I8) are maintained by Apply and
// never by direct field mutation from outside this package.
type State struct {
	Pawns             [2]Bitboard
	Ladies            [2]Bitboard
	Side              Color
	PliesSinceCapture int
	Hash              uint64
}

// Start returns the Italian-draughts starting position.
func Start() State {
	s := State{
		Pawns: [2]Bitboard{White: startWhitePawns, Black: startBlackPawns},
		Side:  White,
	}
	s.Hash = hashFromScratch(&s)
	return s
}

// Occupied returns the union of all four bitboards.
func (s *State) Occupied() Bitboard {
	return s.Pawns[White] | s.Ladies[White] | s.Pawns[Black] | s.Ladies[Black]
}

// Own returns the combined bitboard of color c's pieces.
func (s *State) Own(c Color) Bitboard {
	return s.Pawns[c] | s.Ladies[c]
}

// PieceAt reports the piece occupying sq, if any.
func (s *State) PieceAt(sq Square) (c Color, p PieceType, ok bool) {
	switch {
	case s.Pawns[White].Has(sq):
		return White, Pawn, true
	case s.Ladies[White].Has(sq):
		return White, Lady, true
	case s.Pawns[Black].Has(sq):
		return Black, Pawn, true
	case s.Ladies[Black].Has(sq):
		return Black, Lady, true
	}
	return 0, 0, false
}

// IsTerminal reports whether the side to move has no legal moves — they
// lose under Italian rules (spec §4.1).
func (s *State) IsTerminal() bool {
	return len(Generate(s)) == 0
}

// IsDrawn reports whether the 40-ply no-capture rule has triggered.
func (s *State) IsDrawn() bool {
	return s.PliesSinceCapture >= DrawPlyLimit
}

// Eq reports bitboard-and-side equality (ignores the redundant hash field,
// which Apply always keeps consistent with the bitboards per invariant I2).
func (s State) Eq(o State) bool {
	return s.Pawns == o.Pawns && s.Ladies == o.Ladies && s.Side == o.Side
}

// popcount-free piece placement helper used by Apply; kept unexported
// since external callers must go through Apply to preserve invariants.
func (s *State) place(c Color, p PieceType, sq Square) {
	switch p {
	case Pawn:
		s.Pawns[c] = s.Pawns[c].Set(sq)
	case Lady:
		s.Ladies[c] = s.Ladies[c].Set(sq)
	}
}

func (s *State) remove(c Color, p PieceType, sq Square) {
	switch p {
	case Pawn:
		s.Pawns[c] = s.Pawns[c].Clear(sq)
	case Lady:
		s.Ladies[c] = s.Ladies[c].Clear(sq)
	}
}

// Apply returns the position after playing m, updating the Zobrist hash
// incrementally per spec §4.2 rather than recomputing it from scratch.
func (s State) Apply(m Move) State {
	z := Zobrist()
	mover := s.Side
	from := m.Path[0]
	_, pieceType, ok := s.PieceAt(from)
	if !ok {
		panic("board: Apply called with no piece on the move's source square")
	}

	dest := m.Dest()
	s.remove(mover, pieceType, from)
	s.Hash ^= z.pieceKey(mover, pieceType, from)

	finalType := pieceType
	if pieceType == Pawn && dest.Row() == promotionRank(mover) {
		finalType = Lady
	}
	s.place(mover, finalType, dest)
	s.Hash ^= z.pieceKey(mover, finalType, dest)

	for i := 0; i < m.Length; i++ {
		capSq := m.Captured[i]
		capColor, capType, ok := s.PieceAt(capSq)
		if !ok || capColor == mover {
			panic("board: Apply called with an invalid captured square")
		}
		s.remove(capColor, capType, capSq)
		s.Hash ^= z.pieceKey(capColor, capType, capSq)
	}

	if m.Length > 0 {
		s.PliesSinceCapture = 0
	} else {
		s.PliesSinceCapture++
	}

	s.Side = mover.Opponent()
	s.Hash ^= z.sideToMove
	return s
}
