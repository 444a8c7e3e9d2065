package sample

import (
	"sort"
	"strings"

	"github.com/notnil/chess"
)

const (
	ReasonParseError = "pgn-parse-error"
	ReasonFirstNPly  = "first-n-ply"
)

const (
	priorityCheckmate     = 100
	priorityPromotion     = 80
	priorityCheck         = 60
	priorityCapture       = 40
	priorityCastling      = 30
	priorityMaterialSwing = 20
	priorityOpening       = 10
)

// materialSwingPoints is the minimum point delta (pawn=1 scale) between
// consecutive positions for a move to count as a large material swing.
const materialSwingPoints = 3

// Candidate is one position judged worth sending to the engine.
type Candidate struct {
	Ply      int    `json:"ply"`
	MoveSAN  string `json:"move"`
	FEN      string `json:"fen"` // position the move was played from
	Reason   string `json:"reason"`
	Priority int    `json:"priority"`
	Phase    Phase  `json:"phase"`
}

// Config gates which feature classes are eligible for smart sampling.
type Config struct {
	IncludeOpening        bool
	IncludeTactical       bool
	IncludeMaterialSwings bool
	IncludeCheckMate      bool
}

// Selection carries the candidates plus a diagnostic tag; an
// unparseable or empty move sequence yields an empty selection tagged
// pgn-parse-error instead of an error.
type Selection struct {
	Candidates []Candidate `json:"candidates"`
	Diagnostic string      `json:"diagnostic,omitempty"`
}

// Select uses smart sampling when enabled, falling back to first-N when
// smart sampling finds zero eligible candidates. It never returns an
// empty set when plies exist and limit > 0.
func Select(pgn string, limit int, smartEnabled bool, cfg Config) Selection {
	if !smartEnabled {
		return SelectFirstN(pgn, limit)
	}
	sel := SelectSmart(pgn, cfg, limit)
	if sel.Diagnostic == ReasonParseError {
		return sel
	}
	if len(sel.Candidates) == 0 && limit > 0 {
		return SelectFirstN(pgn, limit)
	}
	return sel
}

// SelectFirstN takes the first n plies in order.
func SelectFirstN(pgn string, n int) Selection {
	game, ok := parseGame(pgn)
	if !ok {
		return Selection{Candidates: []Candidate{}, Diagnostic: ReasonParseError}
	}
	moves := game.Moves()
	positions := game.Positions()
	if n > len(moves) {
		n = len(moves)
	}
	if n < 0 {
		n = 0
	}
	candidates := make([]Candidate, 0, n)
	for ply := 0; ply < n; ply++ {
		candidates = append(candidates, Candidate{
			Ply:      ply,
			MoveSAN:  chess.AlgebraicNotation{}.Encode(positions[ply], moves[ply]),
			FEN:      positions[ply].String(),
			Reason:   ReasonFirstNPly,
			Priority: 0,
			Phase:    classifyPhase(ply, nonKingMaterial(positions[ply])),
		})
	}
	return Selection{Candidates: candidates}
}

// SelectSmart walks the game once, scores each ply by its highest
// eligible feature, then sorts by priority descending with ties broken
// by ply order and truncates to limit.
func SelectSmart(pgn string, cfg Config, limit int) Selection {
	game, ok := parseGame(pgn)
	if !ok {
		return Selection{Candidates: []Candidate{}, Diagnostic: ReasonParseError}
	}
	moves := game.Moves()
	positions := game.Positions()

	candidates := make([]Candidate, 0, len(moves))
	for ply, move := range moves {
		before := positions[ply]
		after := positions[ply+1]
		phase := classifyPhase(ply, nonKingMaterial(before))
		reason, priority, found := scoreMove(move, before, after, phase, cfg)
		if !found {
			continue
		}
		candidates = append(candidates, Candidate{
			Ply:      ply,
			MoveSAN:  chess.AlgebraicNotation{}.Encode(before, move),
			FEN:      before.String(),
			Reason:   reason,
			Priority: priority,
			Phase:    phase,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Ply < candidates[j].Ply
	})
	if limit >= 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return Selection{Candidates: candidates}
}

// scoreMove returns the highest-priority eligible feature for one ply.
func scoreMove(move *chess.Move, before, after *chess.Position, phase Phase, cfg Config) (string, int, bool) {
	if cfg.IncludeCheckMate && after.Status() == chess.Checkmate {
		return "checkmate", priorityCheckmate, true
	}
	if cfg.IncludeTactical {
		if move.Promo() != chess.NoPieceType {
			return "promotion", priorityPromotion, true
		}
		if move.HasTag(chess.Check) {
			return "check", priorityCheck, true
		}
		if move.HasTag(chess.Capture) || move.HasTag(chess.EnPassant) {
			return "capture", priorityCapture, true
		}
		if move.HasTag(chess.KingSideCastle) || move.HasTag(chess.QueenSideCastle) {
			return "castling", priorityCastling, true
		}
	}
	if cfg.IncludeMaterialSwings {
		swing := nonKingMaterial(before) - nonKingMaterial(after)
		if swing < 0 {
			swing = -swing
		}
		if swing >= materialSwingPoints {
			return "material-swing", priorityMaterialSwing, true
		}
	}
	if cfg.IncludeOpening && phase == PhaseOpening {
		return "opening", priorityOpening, true
	}
	return "", 0, false
}

// PlyCount reports how many plies a PGN parses to, zero when
// unparseable.
func PlyCount(pgn string) int {
	game, ok := parseGame(pgn)
	if !ok {
		return 0
	}
	return len(game.Moves())
}

func parseGame(pgn string) (*chess.Game, bool) {
	if strings.TrimSpace(pgn) == "" {
		return nil, false
	}
	game := chess.NewGame()
	if err := game.UnmarshalText([]byte(pgn)); err != nil {
		return nil, false
	}
	if len(game.Moves()) == 0 {
		return nil, false
	}
	return game, true
}
