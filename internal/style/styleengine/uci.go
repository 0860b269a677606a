package styleengine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/kestrelchess/styletagger/internal/board"
	"github.com/kestrelchess/styletagger/internal/style/boardutil"
)

// UCIClient drives an external UCI engine subprocess. It is grounded on
// the same stdin/stdout pipe pattern used by the project's tournament
// runner, generalized with context cancellation and cp/mate score
// parsing for the style pipeline's needs.
type UCIClient struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	name   string
	mu     sync.Mutex
}

// NewUCIClient launches path as a UCI engine and performs the initial
// handshake.
func NewUCIClient(ctx context.Context, path string, args ...string) (*UCIClient, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}

	c := &UCIClient{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout), name: path}
	if err := c.handshake(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *UCIClient) handshake(ctx context.Context) error {
	c.send("uci")
	if _, err := c.readUntil(ctx, "uciok"); err != nil {
		return err
	}
	c.send("isready")
	if _, err := c.readUntil(ctx, "readyok"); err != nil {
		return err
	}
	c.send("ucinewgame")
	return nil
}

func (c *UCIClient) Identifier() string { return c.name }

// Close terminates the engine process.
func (c *UCIClient) Close() error {
	c.send("quit")
	return c.cmd.Wait()
}

func (c *UCIClient) Analyze(ctx context.Context, fen string, depth, multiPV, depthLow int) (EngineCandidates, error) {
	if multiPV < 1 {
		multiPV = 1
	}
	c.send(fmt.Sprintf("setoption name MultiPV value %d", multiPV))
	c.setPosition(fen)
	c.send(fmt.Sprintf("go depth %d", depth))

	byPV, bestScore, err := c.collectInfoLines(ctx, multiPV)
	if err != nil {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: err}
	}
	if len(byPV) == 0 {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: fmt.Errorf("no info lines with pv")}
	}

	srcPos, fenErr := board.ParseFEN(fen)

	moves := make([]EngineMove, 0, len(byPV))
	for i := 1; i <= len(byPV); i++ {
		line, ok := byPV[i]
		if !ok {
			continue
		}
		kind := Positional
		if fenErr == nil {
			if m, found := findLegalMove(srcPos, line.firstMove); found && boardutil.IsCaptureOrCheck(srcPos, m) {
				kind = Dynamic
			}
		}
		moves = append(moves, EngineMove{UCI: line.firstMove, ScoreCP: line.cp, Kind: kind, PV: strings.Fields(line.pv)})
	}
	if len(moves) == 0 {
		return EngineCandidates{}, &Error{Client: c.name, Op: "analyze", Err: fmt.Errorf("no candidates parsed")}
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

	candidates := EngineCandidates{
		FEN:          fen,
		Moves:        moves,
		EvalBeforeCP: bestScore,
		Meta:         meta,
	}
	if fenErr == nil {
		candidates.SideToMove = sideToMoveName(srcPos)
	}
	return candidates, nil
}

func (c *UCIClient) EvalMove(ctx context.Context, fen, moveUCI string, depth int) (int, error) {
	c.setPositionWithMoves(fen, []string{moveUCI})
	c.send(fmt.Sprintf("go depth %d", depth))
	best, cp, err := c.readBestmove(ctx)
	_ = best
	if err != nil {
		return 0, &Error{Client: c.name, Op: "eval_move", Err: err}
	}
	return -cp, nil
}

func (c *UCIClient) SimulateFollowup(ctx context.Context, fen string, actorIsWhite bool, steps, depth int) (FollowupTrace, error) {
	// A bare UCI engine exposes no positional-metric introspection; this
	// adapter returns an empty trace together with an error. NativeClient
	// is the adapter that supports followup metrics.
	return FollowupTrace{}, &Error{Client: c.name, Op: "simulate_followup", Err: fmt.Errorf("not supported over plain UCI")}
}

type pvInfo struct {
	cp        int
	pv        string
	firstMove string
}

func (c *UCIClient) collectInfoLines(ctx context.Context, multiPV int) (map[int]pvInfo, int, error) {
	byPV := map[int]pvInfo{}
	bestScore := 0
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return nil, 0, err
		}
		if strings.HasPrefix(line, "info") && strings.Contains(line, "multipv") {
			idx, info, ok := parseInfoLine(line)
			if ok {
				byPV[idx] = info
				if idx == 1 {
					bestScore = info.cp
				}
			}
		}
		if strings.HasPrefix(line, "bestmove") {
			break
		}
	}
	return byPV, bestScore, nil
}

func parseInfoLine(line string) (int, pvInfo, bool) {
	fields := strings.Fields(line)
	info := pvInfo{}
	idx := 1
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				idx, _ = strconv.Atoi(fields[i+1])
			}
		case "score":
			if i+2 < len(fields) {
				switch fields[i+1] {
				case "cp":
					v, _ := strconv.Atoi(fields[i+2])
					info.cp = v
				case "mate":
					n, _ := strconv.Atoi(fields[i+2])
					info.cp = mateToCP(n)
				}
			}
		case "pv":
			rest := fields[i+1:]
			info.pv = strings.Join(rest, " ")
			if len(rest) > 0 {
				info.firstMove = rest[0]
			}
			return idx, info, info.firstMove != ""
		}
	}
	return idx, info, info.firstMove != ""
}

// mateToCP maps a UCI "score mate N" to ±(MateBase - |N|*100), matching
// the HTTP adapter's convention in spec §6.
func mateToCP(n int) int {
	sign := 1
	if n < 0 {
		sign = -1
		n = -n
	}
	return sign * (MateBase - n*100)
}

func (c *UCIClient) readBestmove(ctx context.Context) (string, int, error) {
	lastCP := 0
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return "", 0, err
		}
		if strings.HasPrefix(line, "info") && strings.Contains(line, "score") {
			_, info, ok := parseInfoLine(line)
			if ok || info.cp != 0 {
				lastCP = info.cp
			}
		}
		if strings.HasPrefix(line, "bestmove") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				return parts[1], lastCP, nil
			}
			return "", lastCP, fmt.Errorf("malformed bestmove line: %s", line)
		}
	}
}

func (c *UCIClient) setPosition(fen string) {
	c.setPositionWithMoves(fen, nil)
}

func (c *UCIClient) setPositionWithMoves(fen string, moves []string) {
	var cmd string
	if fen == "" || fen == "startpos" {
		cmd = "position startpos"
	} else {
		cmd = "position fen " + fen
	}
	if len(moves) > 0 {
		cmd += " moves " + strings.Join(moves, " ")
	}
	c.send(cmd)
}

func (c *UCIClient) send(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.stdin, cmd)
}

func (c *UCIClient) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.stdout.ReadString('\n')
		ch <- result{strings.TrimSpace(line), err}
	}()
	select {
	case r := <-ch:
		return r.line, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *UCIClient) readUntil(ctx context.Context, prefix string) (string, error) {
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, prefix) {
			return line, nil
		}
	}
}
