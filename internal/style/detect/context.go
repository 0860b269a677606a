// Package detect holds the detector bank: independent, pure predicate
// functions that each consume a shared Context plus the ThresholdTable
// and emit zero or one DetectorResult.
package detect

import (
	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/features"
	"github.com/kestrelchess/styletagger/internal/style/mode"
	"github.com/kestrelchess/styletagger/internal/style/schema"
)

// Context is what every detector receives: the feature bundle plus the
// simple derived booleans spec §4.4 names.
type Context struct {
	Bundle          *features.FeatureBundle
	Mode            mode.Tag
	IsCapture       bool
	IsCheck         bool
	Phase           boardutil.Phase
	PhaseRatio      float64
	AllowPositional bool
	Ply             int
	Cooldown        *config.CooldownState

	// FullMaterial is true when all 32 pieces were on the board before the
	// played move, the opening-position signal used to disqualify
	// prophylaxis candidates.
	FullMaterial bool
	// MovedPieceType is the type of the piece that made the played move.
	MovedPieceType board.PieceType
	// ToFile is the played move's destination file, 0=a .. 7=h.
	ToFile int

	// Control carries the board-level opponent-mobility/pin/exchange
	// signals the CoD predicates consult alongside the feature bundle.
	Control boardutil.ControlMetrics
}

// Detector is the shape every predicate in the bank implements.
type Detector func(ctx Context, cfg *config.ThresholdTable) *schema.DetectorResult
