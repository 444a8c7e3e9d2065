package sample

import "github.com/notnil/chess"

type Phase string

const (
	PhaseOpening    Phase = "opening"
	PhaseMiddlegame Phase = "middlegame"
	PhaseEndgame    Phase = "endgame"
)

const (
	openingPlyLimit    = 16
	endgameMaterialMax = 26
)

// classifyPhase tags a ply for downstream reporting. It never gates
// selection.
func classifyPhase(ply int, materialPoints int) Phase {
	if ply < openingPlyLimit {
		return PhaseOpening
	}
	if materialPoints <= endgameMaterialMax {
		return PhaseEndgame
	}
	return PhaseMiddlegame
}

var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

// nonKingMaterial sums both sides' material on a pawn=1 scale.
func nonKingMaterial(pos *chess.Position) int {
	total := 0
	for _, piece := range pos.Board().SquareMap() {
		total += pieceValues[piece.Type()]
	}
	return total
}
