// Package pgn loads positions the CLI can tag: either a flat JSON array
// of {fen, move} records or a sampled walk through a PGN movetext file,
// grounded on the reference pipeline's loaders.py.
package pgn

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kestrelchess/styletagger/internal/board"
)

// Position is one (fen, move) pair to tag.
type Position struct {
	FEN  string
	Move string
}

// LoadJSON parses a JSON array of {"fen": "...", "move": "..."} objects.
func LoadJSON(r io.Reader) ([]Position, error) {
	var raw []map[string]string
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding json positions: %w", err)
	}
	out := make([]Position, 0, len(raw))
	for idx, item := range raw {
		fen, ok1 := item["fen"]
		move, ok2 := item["move"]
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("invalid item at index %d: expected keys 'fen' and 'move'", idx+1)
		}
		out = append(out, Position{FEN: fen, Move: move})
	}
	return out, nil
}

var tagLineRe = regexp.MustCompile(`^\[\w+\s+".*"\]\s*$`)
var moveNumberRe = regexp.MustCompile(`^\d+\.(\.\.)?$`)

// LoadPGN walks every game in r, sampling one (fen, move) pair every
// sampleInterval plies (sampleInterval <= 0 means every ply), stopping
// once limit positions have been collected (limit <= 0 means no limit).
func LoadPGN(r io.Reader, sampleInterval, limit int) ([]Position, error) {
	var out []Position
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var movetext strings.Builder
	flush := func() error {
		if movetext.Len() == 0 {
			return nil
		}
		positions, err := walkGame(movetext.String(), sampleInterval, limit-len(out))
		movetext.Reset()
		if err != nil {
			return err
		}
		out = append(out, positions...)
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if tagLineRe.MatchString(line) {
			continue
		}
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
			continue
		}
		movetext.WriteString(" ")
		movetext.WriteString(line)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pgn: %w", err)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// walkGame replays one game's movetext against the starting position,
// recording a (fen-before-move, move) pair every sampleInterval plies.
func walkGame(movetext string, sampleInterval, remaining int) ([]Position, error) {
	tokens := strings.Fields(movetext)
	pos, err := board.ParseFEN(board.StartFEN)
	if err != nil {
		return nil, err
	}

	var out []Position
	ply := 0
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || moveNumberRe.MatchString(tok) || tok == "*" ||
			tok == "1-0" || tok == "0-1" || tok == "1/2-1/2" {
			continue
		}
		san := stripAnnotations(tok)
		if san == "" {
			continue
		}
		move, err := matchSAN(pos, san)
		if err != nil {
			return out, nil
		}
		ply++
		if sampleInterval <= 0 || ply%sampleInterval == 0 {
			out = append(out, Position{FEN: pos.ToFEN(), Move: move.String()})
			if remaining > 0 && len(out) >= remaining {
				return out, nil
			}
		}
		pos.MakeMove(move)
	}
	return out, nil
}

func stripAnnotations(tok string) string {
	tok = strings.TrimRight(tok, "!?+#")
	return tok
}

// matchSAN finds the one legal move in pos whose rendered SAN-ish shape
// matches san: castling by move shape, otherwise piece letter + optional
// disambiguator + destination square + optional promotion letter.
func matchSAN(pos *board.Position, san string) (board.Move, error) {
	moves := pos.GenerateLegalMoves()

	if san == "O-O" || san == "O-O-O" {
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			if !m.IsCastling() {
				continue
			}
			kingside := m.To().File() == 6
			if (san == "O-O") == kingside {
				return m, nil
			}
		}
		return board.NoMove, fmt.Errorf("no castling move matches %s", san)
	}

	clean := san
	promo := board.PieceType(0)
	hasPromo := false
	if idx := strings.Index(clean, "="); idx != -1 {
		hasPromo = true
		switch clean[idx+1] {
		case 'N':
			promo = board.Knight
		case 'B':
			promo = board.Bishop
		case 'R':
			promo = board.Rook
		case 'Q':
			promo = board.Queen
		}
		clean = clean[:idx]
	}
	clean = strings.ReplaceAll(clean, "x", "")

	pieceChar := byte('P')
	if len(clean) > 0 && clean[0] >= 'A' && clean[0] <= 'Z' {
		pieceChar = clean[0]
		clean = clean[1:]
	}
	if len(clean) < 2 {
		return board.NoMove, fmt.Errorf("unparseable SAN token %q", san)
	}
	dest := clean[len(clean)-2:]
	disambig := clean[:len(clean)-2]

	destSq, err := board.ParseSquare(dest)
	if err != nil {
		return board.NoMove, err
	}

	wantType := pieceTypeFromChar(pieceChar)

	var candidates []board.Move
	for i := 0; i < moves.Len(); i++ {
		m := moves.Get(i)
		if m.To() != destSq {
			continue
		}
		if hasPromo && (!m.IsPromotion() || m.Promotion() != promo) {
			continue
		}
		if !hasPromo && m.IsPromotion() {
			continue
		}
		piece := pos.PieceAt(m.From())
		if piece.Type() != wantType {
			continue
		}
		if disambig != "" {
			from := m.From().String()
			matches := true
			for _, d := range disambig {
				if !strings.ContainsRune(from, d) {
					matches = false
					break
				}
			}
			if !matches {
				continue
			}
		}
		candidates = append(candidates, m)
	}

	if len(candidates) != 1 {
		return board.NoMove, fmt.Errorf("SAN token %q matched %d candidates", san, len(candidates))
	}
	return candidates[0], nil
}

func pieceTypeFromChar(c byte) board.PieceType {
	switch c {
	case 'N':
		return board.Knight
	case 'B':
		return board.Bishop
	case 'R':
		return board.Rook
	case 'Q':
		return board.Queen
	case 'K':
		return board.King
	default:
		return board.Pawn
	}
}
