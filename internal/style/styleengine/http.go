package styleengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
)

// HTTPClient talks to a remote analysis shim over HTTP: POST
// {fen, depth, multipv}, response is a JSON array of raw UCI "info"
// lines, per spec §6. It follows the same http.Client-with-timeout
// pattern the bundled Lichess tablebase prober uses.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	name    string
}

// NewHTTPClient builds a client against baseURL (e.g.
// "http://localhost:8811/analyze").
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		name:    "http:" + baseURL,
	}
}

func (c *HTTPClient) Identifier() string { return c.name }

type analyzeRequest struct {
	FEN     string `json:"fen"`
	Depth   int    `json:"depth"`
	MultiPV int    `json:"multipv"`
}

func (c *HTTPClient) postAnalyze(ctx context.Context, fen string, depth, multiPV int) ([]string, error) {
	body, err := json.Marshal(analyzeRequest{FEN: fen, Depth: depth, MultiPV: multiPV})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis shim returned status %d", resp.StatusCode)
	}
	var lines []string
	if err := json.NewDecoder(resp.Body).Decode(&lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (c *HTTPClient) Analyze(ctx context.Context, fen string, depth, multiPV, depthLow int) (EngineCandidates, error) {
	if multiPV < 1 {
		multiPV = 1
	}
	lines, err := c.postAnalyze(ctx, fen, depth, multiPV)
	if err != nil {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: err}
	}

	byPV := map[int]pvInfo{}
	for _, line := range lines {
		if !strings.Contains(line, "multipv") {
			continue
		}
		idx, info, ok := parseInfoLine(line)
		if ok {
			byPV[idx] = info
		}
	}
	if len(byPV) == 0 {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: fmt.Errorf("no info lines with pv in response")}
	}

	srcPos, fenErr := board.ParseFEN(fen)

	moves := make([]EngineMove, 0, len(byPV))
	for i := 1; i <= len(byPV); i++ {
		info, ok := byPV[i]
		if !ok {
			continue
		}
		kind := Positional
		if fenErr == nil {
			if m, found := findLegalMove(srcPos, info.firstMove); found && boardutil.IsCaptureOrCheck(srcPos, m) {
				kind = Dynamic
			}
		}
		moves = append(moves, EngineMove{UCI: info.firstMove, ScoreCP: info.cp, Kind: kind, PV: strings.Fields(info.pv)})
	}
	if len(moves) == 0 {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: fmt.Errorf("no candidates parsed from response")}
	}

	meta := AnalysisMeta{DepthUsed: depth, DepthLowUsed: depthLow}
	if fenErr == nil {
		meta.ContactRatio = boardutil.ContactRatio(srcPos)
		meta.PhaseRatio = boardutil.PhaseRatio(srcPos)
	}
	if len(moves) > 1 {
		meta.ScoreGapCP = moves[0].ScoreCP - moves[1].ScoreCP
	}
	for _, mv := range moves {
		if isMateScore(mv.ScoreCP) {
			meta.MateThreat = true
		}
	}

	candidates := EngineCandidates{FEN: fen, Moves: moves, EvalBeforeCP: moves[0].ScoreCP, Meta: meta}
	if fenErr == nil {
		candidates.SideToMove = sideToMoveName(srcPos)
	}
	return candidates, nil
}

func (c *HTTPClient) EvalMove(ctx context.Context, fen, moveUCI string, depth int) (int, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: err}
	}
	m, found := findLegalMove(pos, moveUCI)
	if !found {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: fmt.Errorf("illegal move %s", moveUCI)}
	}
	undo := pos.MakeMove(m)
	afterFEN := pos.ToFEN()
	pos.UnmakeMove(m, undo)

	lines, err := c.postAnalyze(ctx, afterFEN, depth, 1)
	if err != nil {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: err}
	}
	for _, line := range lines {
		if strings.Contains(line, "score") {
			_, info, ok := parseInfoLine(line)
			if ok {
				return -info.cp, nil
			}
		}
	}
	return 0, &Error{Client: c.name, Op: "eval_move", Err: fmt.Errorf("no score in response")}
}

func (c *HTTPClient) SimulateFollowup(ctx context.Context, fen string, actorIsWhite bool, steps, depth int) (FollowupTrace, error) {
	return FollowupTrace{}, &Error{Client: c.name, Op: "simulate_followup", Err: fmt.Errorf("not supported over the HTTP analysis shim")}
}
