package encoder

import (
	"errors"
	"fmt"
)

// ErrMalformedText is returned by Stats when text does not follow the output grammar.
var ErrMalformedText = errors.New("malformed quadrant text")

// RegionStats summarizes one region of an encoding.
type RegionStats struct {
	Name             string `json:"name"`
	Rows             int    `json:"rows"`
	Tokens           int    `json:"tokens"`
	DistinctColors   int    `json:"distinct_colors"`
	BackgroundTokens int    `json:"background_tokens"`
}

// TextStats summarizes a full encoding.
type TextStats struct {
	Length           int           `json:"length"`
	Tokens           int           `json:"tokens"`
	DistinctColors   int           `json:"distinct_colors"`
	BackgroundTokens int           `json:"background_tokens"`
	Regions          []RegionStats `json:"regions"`
}

// Stats checks text against the output grammar and counts what it holds.
//
// It walks the text token by token and reports the first deviation from the
// grammar with its byte offset. Tokens are compared as strings; nothing is
// turned back into pixels.
func Stats(text string) (*TextStats, error) {
	if len(text) != EncodedLen {
		return nil, fmt.Errorf("%w: length %d, want %d", ErrMalformedText, len(text), EncodedLen)
	}

	// The final row terminator was stripped during encoding.
	s := text + string(Separator)
	bg := string(AppendToken(nil, Background.R, Background.G, Background.B))

	stats := &TextStats{Length: len(text)}
	all := make(map[string]struct{})
	pos := 0

	for i, r := range regions {
		if i > 0 {
			if s[pos] != Separator {
				return nil, fmt.Errorf("%w: missing region separator at %d", ErrMalformedText, pos)
			}
			pos++
		}

		rs := RegionStats{Name: r.Name}
		seen := make(map[string]struct{})
		for row := 0; row < RegionSize; row++ {
			for col := 0; col < RegionSize; col++ {
				tok := s[pos : pos+TokenLen]
				if !validToken(tok) {
					return nil, fmt.Errorf("%w: bad token %q at %d", ErrMalformedText, tok, pos)
				}
				seen[tok] = struct{}{}
				all[tok] = struct{}{}
				if tok == bg {
					rs.BackgroundTokens++
				}
				rs.Tokens++
				pos += TokenLen
			}
			if s[pos] != Separator {
				return nil, fmt.Errorf("%w: missing row terminator at %d", ErrMalformedText, pos)
			}
			pos++
			rs.Rows++
		}
		rs.DistinctColors = len(seen)

		stats.Tokens += rs.Tokens
		stats.BackgroundTokens += rs.BackgroundTokens
		stats.Regions = append(stats.Regions, rs)
	}
	stats.DistinctColors = len(all)

	return stats, nil
}

func validToken(tok string) bool {
	if len(tok) != TokenLen || tok[0] != TokenPrefix {
		return false
	}
	for i := 1; i < TokenLen; i++ {
		c := tok[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
