package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Token is a whitespace-delimited word with its byte offset in the source text
type Token struct {
	Text   string
	Offset int
}

// End returns the byte offset just past the token
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

// Tokenize splits text on whitespace, keeping the offset of every word
func Tokenize(text string) []Token {
	var tokens []Token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, Token{Text: text[start:i], Offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: text[start:], Offset: start})
	}
	return tokens
}

// Transition is a change of the running laterality context
type Transition struct {
	Side   model.Side
	Offset int // start of the laterality word
	End    int // end of the laterality word
}

// sideWordPattern finds left/right as whole words inside a token, so
// "left-sided" and "(right)" both count for side resolution.
var sideWordPattern = regexp.MustCompile(`\b(left|right)\b`)

// LateralityTrack is the result of scanning tokens left to right for
// laterality words. It answers what the running context was at any offset.
type LateralityTrack struct {
	transitions []Transition
	mentions    []Transition // left/right word hits used by Nearest
}

// TrackLaterality runs the laterality state machine over tokens.
// State is the current side; it changes on tokens equal to left, right or
// bilateral once surrounding punctuation is trimmed. Word-boundary hits of
// left/right anywhere in a token are recorded separately for Nearest.
func TrackLaterality(tokens []Token) *LateralityTrack {
	track := &LateralityTrack{}
	for _, tok := range tokens {
		for _, loc := range sideWordPattern.FindAllStringIndex(tok.Text, -1) {
			track.mentions = append(track.mentions, Transition{
				Side:   model.Side(tok.Text[loc[0]:loc[1]]),
				Offset: tok.Offset + loc[0],
				End:    tok.Offset + loc[1],
			})
		}

		side, ok := lateralityWord(tok.Text)
		if !ok {
			continue
		}
		// Offsets must point at the word itself, not at leading punctuation.
		lead := strings.Index(tok.Text, string(side))
		start := tok.Offset + lead
		track.transitions = append(track.transitions, Transition{
			Side:   side,
			Offset: start,
			End:    start + len(side),
		})
	}
	return track
}

// Transitions returns every context change in text order
func (t *LateralityTrack) Transitions() []Transition {
	return append([]Transition(nil), t.transitions...)
}

// ContextAt returns the running side in effect before offset, or unknown
func (t *LateralityTrack) ContextAt(offset int) model.Side {
	side := model.SideUnknown
	for _, tr := range t.transitions {
		if tr.Offset >= offset {
			break
		}
		side = tr.Side
	}
	return side
}

// BilateralBefore reports whether "bilateral" occurred before offset
func (t *LateralityTrack) BilateralBefore(offset int) bool {
	for _, tr := range t.transitions {
		if tr.Offset >= offset {
			break
		}
		if tr.Side == model.SideBilateral {
			return true
		}
	}
	return false
}

// Nearest returns the left/right word closest to offset whose span lies in
// [offset-window, offset+window]. A preceding word wins ties.
// Unlike the running context it also sees words inside hyphenated tokens.
func (t *LateralityTrack) Nearest(offset, window int) (model.Side, bool) {
	best := model.SideUnknown
	bestDist := -1
	for _, tr := range t.mentions {
		if tr.Offset < offset-window || tr.End > offset+window {
			continue
		}
		// distances are doubled so a following word at the same gap scores one higher
		var dist int
		switch {
		case tr.End <= offset:
			dist = 2 * (offset - tr.End)
		case tr.Offset >= offset:
			dist = 2*(tr.Offset-offset) + 1
		}
		if bestDist < 0 || dist < bestDist {
			best = tr.Side
			bestDist = dist
		}
	}
	return best, bestDist >= 0
}

// lateralityWord reports the side named by a token, ignoring punctuation
func lateralityWord(word string) (model.Side, bool) {
	trimmed := strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	switch trimmed {
	case "left":
		return model.SideLeft, true
	case "right":
		return model.SideRight, true
	case "bilateral":
		return model.SideBilateral, true
	}
	return "", false
}
