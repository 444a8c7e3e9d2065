package cpumove

import (
	"fmt"

	"github.com/notnil/chess"
)

// LocalMover is a deterministic legal-move chooser: a capture if one
// exists, then a check, then the first legal move. It only has to keep
// a game alive for one move.
type LocalMover struct{}

func (LocalMover) ChooseMove(fen string) (string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("cpumove: bad fen: %w", err)
	}
	game := chess.NewGame(fenOpt)
	moves := game.ValidMoves()
	if len(moves) == 0 {
		return "", fmt.Errorf("cpumove: no legal moves in position %s", fen)
	}
	for _, move := range moves {
		if move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant) {
			return move.String(), nil
		}
	}
	for _, move := range moves {
		if move.HasTag(chess.Check) {
			return move.String(), nil
		}
	}
	return moves[0].String(), nil
}
