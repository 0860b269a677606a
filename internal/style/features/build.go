package features

import (
	"context"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
	"github.com/kestrelchess/styletagger/internal/style/config"
	"github.com/kestrelchess/styletagger/internal/style/styleengine"
	"github.com/kestrelchess/styletagger/internal/style/taperr"
)

// Options are the depth/threshold knobs build_feature_bundle took as
// keyword arguments.
type Options struct {
	CPThreshold   int
	EvalDepth     int
	FollowupDepth int
	FollowupSteps int
}

// Build assembles one FeatureBundle from (fen, played move, engine
// candidates) plus a configured engine client, per spec §4.2's ten
// steps.
func Build(ctx context.Context, fen, playedMoveUCI string, engineOut styleengine.EngineCandidates, client styleengine.Client, cfg *config.ThresholdTable, opts Options) (*FeatureBundle, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return nil, taperr.Newf(taperr.InvalidInput, "parse fen: %v", err)
	}
	actor := pos.SideToMove

	playedMove, err := board.ParseMove(playedMoveUCI, pos)
	if err != nil || !pos.IsLegal(playedMove) {
		return nil, taperr.Newf(taperr.InvalidInput, "illegal move %s for position %s", playedMoveUCI, fen)
	}

	bestMove, err := board.ParseMove(engineOut.Best().UCI, pos)
	if err != nil {
		return nil, taperr.Newf(taperr.InvalidInput, "illegal best move %s for position %s", engineOut.Best().UCI, fen)
	}

	bestIsForcing := boardutil.IsCaptureOrCheck(pos, bestMove)
	playedIsForcing := boardutil.IsCaptureOrCheck(pos, playedMove)
	playedKind := classifyMove(pos, playedMove)
	bestKind := classifyMove(pos, bestMove)

	playedScoreCP, havePlayedScore := 0, false
	for _, cand := range engineOut.Moves {
		if cand.UCI == playedMoveUCI {
			playedScoreCP = cand.ScoreCP
			playedKind = cand.Kind
			havePlayedScore = true
			break
		}
	}
	if !havePlayedScore || (engineOut.Best().ScoreCP-playedScoreCP) > opts.CPThreshold {
		cp, err := client.EvalMove(ctx, fen, playedMoveUCI, opts.EvalDepth)
		if err != nil {
			return nil, err
		}
		playedScoreCP = cp
	}

	bestBoard := pos.Copy()
	bestBoard.MakeMove(bestMove)
	playedBoard := pos.Copy()
	playedBoard.MakeMove(playedMove)

	metricsBefore, oppMetricsBefore := evaluationAndMetrics(pos, actor)
	metricsPlayed, oppMetricsPlayed := evaluationAndMetrics(playedBoard, actor)
	metricsBest, oppMetricsBest := evaluationAndMetrics(bestBoard, actor)

	componentDeltas := metricsDelta(metricsPlayed, metricsBest)
	oppComponentDeltas := metricsDelta(oppMetricsPlayed, oppMetricsBest)
	changePlayedVsBefore := metricsDelta(metricsPlayed, metricsBefore)
	oppChangePlayedVsBefore := metricsDelta(oppMetricsPlayed, oppMetricsBefore)

	materialBefore := materialBalance(pos, actor)
	materialAfter := materialBalance(playedBoard, actor)
	materialDeltaSelf := materialAfter - materialBefore

	coverageBefore := defendedSquareCount(pos, actor)
	coverageAfter := defendedSquareCount(playedBoard, actor)

	contactBefore := boardutil.ContactRatio(pos)
	contactPlayed := boardutil.ContactRatio(playedBoard)
	contactBest := boardutil.ContactRatio(bestBoard)
	contactDeltaPlayed := contactPlayed - contactBefore
	contactDeltaBest := contactBest - contactBefore

	evalBeforeCP := engineOut.EvalBeforeCP
	evalBestCP := engineOut.Best().ScoreCP
	evalPlayedCP := playedScoreCP
	deltaEvalCP := evalPlayedCP - evalBestCP
	deltaEvalFloat := round3(float64(evalPlayedCP-evalBeforeCP) / 100.0)

	deltaTacticsBestVsBefore := metricsBest["tactics"] - metricsBefore["tactics"]
	deltaStructureBestVsBefore := metricsBest["structure"] - metricsBefore["structure"]

	tacticalWeight := computeTacticalWeight(
		cfg,
		deltaEvalCP,
		deltaTacticsBestVsBefore,
		deltaStructureBestVsBefore,
		engineOut.Meta.DepthJumpCP,
		engineOut.Meta.DeepeningGainCP,
		engineOut.Meta.ScoreGapCP,
		engineOut.Meta.ContactRatio,
		engineOut.Meta.PhaseRatio,
		bestIsForcing,
		playedIsForcing,
		engineOut.Meta.MateThreat,
	)

	actorIsWhite := actor == board.White
	baseSelfBefore, baseOppBefore, _, _, err := simulateFollowup(ctx, client, fen, actorIsWhite, opts)
	if err != nil {
		return nil, err
	}
	_, _, seqSelfPlayedLine, seqOppPlayedLine, err := simulateFollowup(ctx, client, playedBoard.ToFEN(), actorIsWhite, opts)
	if err != nil {
		return nil, err
	}
	_, _, seqSelfBest, seqOppBest, err := simulateFollowup(ctx, client, bestBoard.ToFEN(), actorIsWhite, opts)
	if err != nil {
		return nil, err
	}

	followSelfDeltas := computeDeltaSequence(baseSelfBefore, seqSelfPlayedLine)
	followOppDeltas := computeDeltaSequence(baseOppBefore, seqOppPlayedLine)
	followSelfDeltasBest := computeDeltaSequence(baseSelfBefore, seqSelfBest)
	followOppDeltasBest := computeDeltaSequence(baseOppBefore, seqOppBest)

	selfTrend := emaTrend(followSelfDeltas)
	oppTrend := emaTrend(followOppDeltas)
	selfTrendBest := emaTrend(followSelfDeltasBest)
	oppTrendBest := emaTrend(followOppDeltasBest)
	windowMean, windowVar := windowStats(followSelfDeltas, 2)

	riskAvoid := detectRiskAvoidance(
		changePlayedVsBefore["king_safety"],
		absF(float64(deltaEvalCP)),
		cfg.RiskSmallLossCP,
		oppChangePlayedVsBefore["tactics"],
		contactDeltaPlayed,
	)

	intentLabel, intentSignals := inferIntentHint(
		changePlayedVsBefore["mobility"],
		oppChangePlayedVsBefore["mobility"],
		changePlayedVsBefore["king_safety"],
		changePlayedVsBefore["center_control"],
		contactDeltaPlayed,
		deltaEvalFloat,
	)

	meta := engineOut.Meta
	bundle := &FeatureBundle{
		FEN:        fen,
		PlayedMove: playedMoveUCI,
		BestMove:   engineOut.Best().UCI,
		PlayedKind: playedKind,
		BestKind:   bestKind,

		TacticalWeight: tacticalWeight,

		MetricsBefore: metricsBefore, MetricsPlayed: metricsPlayed, MetricsBest: metricsBest,
		OppMetricsBefore: oppMetricsBefore, OppMetricsPlayed: oppMetricsPlayed, OppMetricsBest: oppMetricsBest,

		ComponentDeltas:    componentDeltas,
		OppComponentDeltas: oppComponentDeltas,

		ChangePlayedVsBefore:    changePlayedVsBefore,
		OppChangePlayedVsBefore: oppChangePlayedVsBefore,

		Contact: ContactProfile{
			Before:      round3(contactBefore),
			Played:      round3(contactPlayed),
			Best:        round3(contactBest),
			DeltaPlayed: round3(contactDeltaPlayed),
			DeltaBest:   round3(contactDeltaBest),
		},
		Material: MaterialProfile{Before: materialBefore, After: materialAfter, DeltaSelf: materialDeltaSelf},
		Coverage: CoverageProfile{Before: coverageBefore, After: coverageAfter, Delta: coverageAfter - coverageBefore},

		FollowSelfDeltas:     followSelfDeltas,
		FollowOppDeltas:      followOppDeltas,
		FollowSelfDeltasBest: followSelfDeltasBest,
		FollowOppDeltasBest:  followOppDeltasBest,
		Trends: FollowupTrends{
			SelfTrend: round3(selfTrend), OppTrend: round3(oppTrend),
			SelfTrendBest: round3(selfTrendBest), OppTrendBest: round3(oppTrendBest),
			WindowMean: round3(windowMean), WindowVar: round3(windowVar),
		},

		RiskAvoidance: riskAvoid,
		Intent:        IntentHint{Label: intentLabel, Signals: intentSignals},

		EvalBeforeCP: evalBeforeCP,
		EvalPlayedCP: evalPlayedCP,
		EvalBestCP:   evalBestCP,
		DeltaEvalCP:  deltaEvalCP,
		DeltaEval:    deltaEvalFloat,

		AnalysisMeta: meta,
	}
	return bundle, nil
}

// simulateFollowup calls the engine client's simulate_followup and
// returns (baseSelf, baseOpp, seqSelf, seqOpp).
func simulateFollowup(ctx context.Context, client styleengine.Client, fen string, actorIsWhite bool, opts Options) (map[string]float64, map[string]float64, []map[string]float64, []map[string]float64, error) {
	trace, err := client.SimulateFollowup(ctx, fen, actorIsWhite, opts.FollowupSteps, opts.FollowupDepth)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return trace.BaseSelf, trace.BaseOpp, trace.SeqSelf, trace.SeqOpp, nil
}
