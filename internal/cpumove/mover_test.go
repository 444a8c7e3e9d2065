package cpumove

import "testing"

func TestLocalMoverPrefersCapture(t *testing.T) {
	// After 1. e4 d5 white can take on d5.
	fen := "rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2"
	move, err := LocalMover{}.ChooseMove(fen)
	if err != nil {
		t.Fatalf("expected a move, got %v", err)
	}
	if move != "e4d5" {
		t.Fatalf("expected the capture e4d5, got %s", move)
	}
}

func TestLocalMoverReturnsSomeLegalMove(t *testing.T) {
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	move, err := LocalMover{}.ChooseMove(fen)
	if err != nil {
		t.Fatalf("expected a move, got %v", err)
	}
	if len(move) < 4 {
		t.Fatalf("expected coordinate notation, got %q", move)
	}
}

func TestLocalMoverBadFEN(t *testing.T) {
	mover := LocalMover{}
	if _, err := mover.ChooseMove("not a fen"); err == nil {
		t.Fatalf("expected error for malformed fen")
	}
}

func TestLocalMoverNoLegalMoves(t *testing.T) {
	// Fool's mate final position, white is checkmated.
	fen := "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
	mover := LocalMover{}
	if _, err := mover.ChooseMove(fen); err == nil {
		t.Fatalf("expected error in a mated position")
	}
}
