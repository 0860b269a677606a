// Command styletag is the core-facing batch tool spec §6 names: it tags
// one (fen, move) pair, a JSON array of them, or a PGN sampled at a
// configurable interval/limit, and writes structured JSON to stdout or a
// file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/engine"
	"github.com/kestrelchess/styletagger/internal/obslog"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/detect"
	"github.com/kestrelchess/styletagger/internal/style/features"
	"github.com/kestrelchess/styletagger/internal/style/gate"
	"github.com/kestrelchess/styletagger/internal/style/mode"
	"github.com/kestrelchess/styletagger/internal/style/pgn"
	"github.com/kestrelchess/styletagger/internal/style/schema"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
)

func main() {
	fen := flag.String("fen", "", "FEN of the position to tag (used with -move)")
	moveUCI := flag.String("move", "", "played move in UCI form, e.g. e2e4")
	jsonPath := flag.String("json", "", "path to a JSON array of {fen, move} objects")
	pgnPath := flag.String("pgn", "", "path to a PGN file to sample positions from")
	sampleInterval := flag.Int("sample-interval", 3, "sample one ply out of every N from a PGN (<=0 means every ply)")
	limit := flag.Int("limit", 0, "stop after this many sampled positions (0 means no limit)")
	depth := flag.Int("depth", 14, "engine search depth for analyze/eval calls")
	depthLow := flag.Int("depth-low", 8, "shallow depth used for the depth-jump signal")
	multiPV := flag.Int("multipv", 4, "number of ranked candidate moves to analyze")
	cpThreshold := flag.Int("cp-threshold", 40, "centipawn gap tolerated before falling back to an explicit eval_move call")
	followupDepth := flag.Int("followup-depth", 10, "engine depth used while simulating followup plies")
	followupSteps := flag.Int("followup-steps", 3, "number of followup plies to simulate")
	thresholdFile := flag.String("thresholds", "", "path to a threshold override file")
	outPath := flag.String("out", "", "output file path (default stdout)")
	softGate := flag.Bool("soft-gate", false, "use the soft logistic mode gate instead of the hard threshold gate")
	lintCatalog := flag.Bool("lint-catalog", false, "lint the tag catalog and exit with spec §6's 0/1/2/3 code, instead of tagging")
	catalogPath := flag.String("catalog", "", "path to a tag catalog YAML file to lint (default: the catalog bundled with this binary)")

	flag.Parse()

	if *lintCatalog {
		os.Exit(runLintCatalog(*catalogPath))
	}

	logger, err := obslog.New()
	if err != nil {
		logger = obslog.NoOp()
	}
	defer logger.Sync()

	cfg, err := config.Load(*thresholdFile, logger)
	if err != nil {
		log.Fatalf("loading thresholds: %v", err)
	}

	positions, err := collectPositions(*fen, *moveUCI, *jsonPath, *pgnPath, *sampleInterval, *limit)
	if err != nil {
		log.Fatalf("collecting positions: %v", err)
	}
	if len(positions) == 0 {
		log.Fatal("no positions to tag: supply -fen/-move, -json, or -pgn")
	}

	eng := engine.NewEngine(64)
	client := styleengine.NewNativeClient(eng, "styletag-cli")
	cooldown := config.NewCooldownState()

	opts := features.Options{
		CPThreshold:   *cpThreshold,
		EvalDepth:     *depth,
		FollowupDepth: *followupDepth,
		FollowupSteps: *followupSteps,
	}

	results := make([]taggedMove, 0, len(positions))
	ctx := context.Background()
	for _, p := range positions {
		tagged, err := tagOne(ctx, p, client, cfg, cooldown, opts, *depth, *multiPV, *depthLow, *softGate)
		if err != nil {
			results = append(results, taggedMove{FEN: p.FEN, Move: p.Move, Error: err.Error()})
			continue
		}
		results = append(results, *tagged)
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("creating output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}

// runLintCatalog loads a tag catalog (the bundled default when path is
// empty) and runs spec §6's orphan/cycle/duplicate-alias/unknown-detector
// lint, printing every issue and returning the exact 0/1/2/3 exit code
// the spec names.
func runLintCatalog(path string) int {
	var cat *schema.TagCatalog
	var err error
	if path == "" {
		cat, err = schema.LoadDefaultCatalog()
	} else {
		var f *os.File
		f, err = os.Open(path)
		if err == nil {
			defer f.Close()
			cat, err = schema.LoadCatalog(f)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading catalog: %v\n", err)
		return 1
	}

	report := schema.LintCatalog(cat, schema.KnownDetectors())
	for _, issue := range report.Issues {
		fmt.Printf("%s: %s: %s\n", issue.Kind, issue.Tag, issue.Detail)
	}
	if len(report.Issues) == 0 {
		fmt.Println("catalog ok")
	}
	return report.ExitCode()
}

type taggedMove struct {
	FEN       string            `json:"fen"`
	Move      string            `json:"move"`
	Primary   []string          `json:"primary,omitempty"`
	Secondary []string          `json:"secondary,omitempty"`
	Notes     map[string]string `json:"notes,omitempty"`
	Mode      string            `json:"mode,omitempty"`
	Telemetry map[string]any    `json:"telemetry,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func collectPositions(fen, moveUCI, jsonPath, pgnPath string, sampleInterval, limit int) ([]pgn.Position, error) {
	switch {
	case jsonPath != "":
		f, err := os.Open(jsonPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return pgn.LoadJSON(f)
	case pgnPath != "":
		f, err := os.Open(pgnPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return pgn.LoadPGN(f, sampleInterval, limit)
	case fen != "" && moveUCI != "":
		return []pgn.Position{{FEN: fen, Move: moveUCI}}, nil
	default:
		return nil, fmt.Errorf("no input source given")
	}
}

func tagOne(ctx context.Context, p pgn.Position, client styleengine.Client, cfg *config.ThresholdTable, cooldown *config.CooldownState, opts features.Options, depth, multiPV, depthLow int, useSoftGate bool) (*taggedMove, error) {
	candidates, err := client.Analyze(ctx, p.FEN, depth, multiPV, depthLow)
	if err != nil {
		return nil, fmt.Errorf("engine analyze: %w", err)
	}

	bundle, err := features.Build(ctx, p.FEN, p.Move, candidates, client, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("building feature bundle: %w", err)
	}

	pos, err := board.ParseFEN(p.FEN)
	if err != nil {
		return nil, fmt.Errorf("parsing fen: %w", err)
	}
	playedMove, err := board.ParseMove(p.Move, pos)
	if err != nil {
		return nil, fmt.Errorf("parsing played move: %w", err)
	}

	phaseRatio := boardutil.PhaseRatio(pos)
	ply := (pos.FullMoveNumber-1)*2 + 1
	if pos.SideToMove == board.Black {
		ply++
	}

	decision := mode.Hard(bundle.TacticalWeight, cfg)
	if useSoftGate {
		decision = mode.Soft(bundle.TacticalWeight, cfg, cooldown.Has())
	}

	dctx := detect.Context{
		Bundle:          bundle,
		Mode:            decision.Tag,
		IsCapture:       playedMove.IsCapture(pos),
		IsCheck:         boardutil.IsCaptureOrCheck(pos, playedMove) && !playedMove.IsCapture(pos),
		Phase:           boardutil.PhaseBucket(phaseRatio),
		PhaseRatio:      phaseRatio,
		AllowPositional: decision.Tag != mode.Tactical,
		Ply:             ply,
		Cooldown:        cooldown,
		FullMaterial:    pos.AllOccupied.PopCount() >= detect.FullMaterialCount,
		MovedPieceType:  pos.PieceAt(playedMove.From()).Type(),
		ToFile:          playedMove.To().File(),
		Control:         boardutil.CollectControlMetrics(pos, playedMove, pos.SideToMove),
	}

	tagBundle := gate.Assemble(dctx, cfg, decision)

	return &taggedMove{
		FEN:       p.FEN,
		Move:      p.Move,
		Primary:   tagBundle.Primary,
		Secondary: tagBundle.Secondary,
		Notes:     tagBundle.Notes,
		Mode:      string(decision.Tag),
		Telemetry: tagBundle.Telemetry,
	}, nil
}
