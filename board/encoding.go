package board

// ActionSpaceSize is the size of the canonical neural-network policy
// output vocabulary: 64 origin squares times 8 direction codes (4
// diagonals, split into simple-move and capture-initiation codes), per
// spec §6.
const ActionSpaceSize = 64 * 8

// canonicalSquare flips s so that, from mover's point of view, forward is
// always "up the board" — the canonical encoding spec §6 requires ("board
// flipped so the side to move always moves up").
func canonicalSquare(s Square, mover Color) Square {
	if mover == White {
		return s
	}
	return SquareAt(7-s.Row(), 7-s.Col())
}

func directionOf(from, to Square) int {
	dr, dc := sign(to.Row()-from.Row()), sign(to.Col()-from.Col())
	for d := 0; d < numDirs; d++ {
		if dirDeltaRow[d] == dr && dirDeltaCol[d] == dc {
			return d
		}
	}
	return -1
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// directionCode folds the diagonal direction and the simple/capture
// distinction into one of 8 codes.
func directionCode(dir int, capture bool) int {
	if capture {
		return numDirs + dir
	}
	return dir
}

// MoveIndex maps a legal move to its canonical policy index, as described
// in spec §6. The first step of the move (its initiating direction)
// determines the index; capture chains of different lengths starting the
// same way collide by design — the policy prior only needs to rank
// starting directions, legality and length are resolved by Generate.
func MoveIndex(m Move, mover Color) int {
	from := canonicalSquare(m.Path[0], mover)
	firstStep := canonicalSquare(m.Path[1], mover)
	dir := directionOf(from, firstStep)
	code := directionCode(dir, m.IsCapture())
	return int(from)*8 + code
}

// EncoderFeatures is the plane count used by the default board encoder:
// own pawns, own ladies, enemy pawns, enemy ladies, side-to-move (4+1).
const EncoderFeatures = 5

// InputEncoder encodes a position into the flattened plane representation
// the CNN oracle expects, grounded on the teacher's game.InputEncoder
// (board plane + a constant player-indicator plane), generalized to the
// four-bitboard Italian-draughts position and canonical (forward-is-up)
// orientation.
func InputEncoder(s *State) []float32 {
	mover := s.Side
	planes := make([]float32, EncoderFeatures*64)
	write := func(plane int, bb Bitboard) {
		base := plane * 64
		for sq := Square(0); sq < 64; sq++ {
			if bb.Has(sq) {
				planes[base+int(canonicalSquare(sq, mover))] = 1
			}
		}
	}
	write(0, s.Pawns[mover])
	write(1, s.Ladies[mover])
	write(2, s.Pawns[mover.Opponent()])
	write(3, s.Ladies[mover.Opponent()])

	base := 4 * 64
	indicator := float32(0)
	if mover == Black {
		indicator = 1
	}
	for i := 0; i < 64; i++ {
		planes[base+i] = indicator
	}
	return planes
}
