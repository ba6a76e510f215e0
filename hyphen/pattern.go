package hyphen

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"
)

// boundary marks word edges in patterns and during matching.
const boundary = '.'

// patternSet is an immutable snapshot: a pattern trie plus the
// exception dictionary. Engines swap whole snapshots atomically, so
// readers never observe a partially loaded state.
type patternSet struct {
	root       *trieNode
	exceptions map[string][]int // folded word -> rune break positions
	count      int
}

type trieNode struct {
	children map[rune]*trieNode
	// weights is non-nil when a pattern ends here; entry k is the
	// priority voted for the gap before the k-th pattern letter.
	weights []uint8
}

func (p *patternSet) insert(letters []rune, weights []uint8) {
	if p.root == nil {
		p.root = &trieNode{}
	}
	n := p.root
	for _, r := range letters {
		if n.children == nil {
			n.children = make(map[rune]*trieNode)
		}
		child := n.children[r]
		if child == nil {
			child = &trieNode{}
			n.children[r] = child
		}
		n = child
	}
	n.weights = weights
	p.count++
}

// interGapWeights returns the winning priority for each gap between
// adjacent letters of the folded word: the maximum vote of every
// pattern overlapping that gap.
func (p *patternSet) interGapWeights(word []rune) []int {
	out := make([]int, len(word)-1)
	if p.root == nil {
		return out
	}

	ext := make([]rune, 0, len(word)+2)
	ext = append(ext, boundary)
	ext = append(ext, word...)
	ext = append(ext, boundary)

	// gaps[i] is the vote for the position before ext[i].
	gaps := make([]int, len(ext)+1)
	for start := range ext {
		n := p.root
		for j := start; j < len(ext); j++ {
			n = n.children[ext[j]]
			if n == nil {
				break
			}
			for k, v := range n.weights {
				if int(v) > gaps[start+k] {
					gaps[start+k] = int(v)
				}
			}
		}
	}

	// The gap after word rune i-1 sits before ext[i+1].
	for i := 1; i < len(word); i++ {
		out[i-1] = gaps[i+1]
	}
	return out
}

// breakPositions returns the rune indices where word may break. The
// minima apply to pattern-derived breaks only; an exception spells
// out the whole word and is taken verbatim, as the classic engine
// treats its exception list.
func (p *patternSet) breakPositions(word []rune, leftMin, rightMin int) []int {
	if pos, ok := p.exceptions[string(word)]; ok {
		return append([]int(nil), pos...)
	}

	gaps := p.interGapWeights(word)
	var out []int
	for i := 1; i < len(word); i++ {
		if gaps[i-1]%2 == 1 && i >= leftMin && len(word)-i >= rightMin {
			out = append(out, i)
		}
	}
	return out
}

// LoadPatterns replaces the engine's pattern set with one parsed
// from r. The format is whitespace-separated Liang patterns; a '%'
// starts a comment running to end of line. On any malformed pattern
// the load fails with a *PatternError and the previously loaded set
// stays in effect. Exceptions survive a pattern reload.
func (e *Engine) LoadPatterns(r io.Reader) error {
	next := &patternSet{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '%'); i >= 0 {
			line = line[:i]
		}
		for _, tok := range strings.Fields(line) {
			letters, weights, reason := parsePattern(tok)
			if reason != "" {
				return &PatternError{Line: lineNo, Pattern: tok, Reason: reason}
			}
			next.insert(letters, weights)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	next.exceptions = e.state.Load().exceptions
	e.state.Store(next)
	e.mu.Unlock()
	e.words.Clear()

	e.logger().Info("patterns loaded", "language", e.lang.String(), "patterns", next.count)
	return nil
}

// LoadPatternFile loads patterns from a file on disk.
func (e *Engine) LoadPatternFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return e.LoadPatterns(f)
}

// AddException records a whole-word hyphenation such as "ta-ble",
// overriding the patterns for that word (compared case-folded). The
// marked breaks are used exactly as written, unrestricted by the
// engine's left and right minima.
func (e *Engine) AddException(hyphenated string) error {
	var word []rune
	var pos []int
	prevHyphen := true // leading hyphen is invalid
	for _, r := range hyphenated {
		if r == '-' {
			if prevHyphen {
				return &ExceptionError{Word: hyphenated, Reason: "empty fragment"}
			}
			pos = append(pos, len(word))
			prevHyphen = true
			continue
		}
		if !unicode.IsLetter(r) {
			return &ExceptionError{Word: hyphenated, Reason: "non-letter character"}
		}
		word = append(word, unicode.ToLower(r))
		prevHyphen = false
	}
	if prevHyphen {
		return &ExceptionError{Word: hyphenated, Reason: "empty fragment"}
	}
	if len(word) > MaxWordLen {
		return &ExceptionError{Word: hyphenated, Reason: "word too long"}
	}

	e.mu.Lock()
	cur := e.state.Load()
	next := &patternSet{root: cur.root, count: cur.count}
	next.exceptions = make(map[string][]int, len(cur.exceptions)+1)
	for k, v := range cur.exceptions {
		next.exceptions[k] = v
	}
	next.exceptions[string(word)] = pos
	e.state.Store(next)
	e.mu.Unlock()
	e.words.Clear()
	return nil
}

// parsePattern splits a pattern token into its letters and the
// interleaved priority digits. An empty reason means success.
func parsePattern(tok string) (letters []rune, weights []uint8, reason string) {
	weights = []uint8{0}
	prevDigit := false
	for _, r := range tok {
		switch {
		case r >= '0' && r <= '9':
			if prevDigit {
				return nil, nil, "adjacent digits"
			}
			weights[len(weights)-1] = uint8(r - '0')
			prevDigit = true
		case r == boundary:
			letters = append(letters, boundary)
			weights = append(weights, 0)
			prevDigit = false
		case unicode.IsLetter(r):
			letters = append(letters, unicode.ToLower(r))
			weights = append(weights, 0)
			prevDigit = false
		default:
			return nil, nil, "invalid character"
		}
	}

	hasLetter := false
	for i, r := range letters {
		if r == boundary {
			if i != 0 && i != len(letters)-1 {
				return nil, nil, "boundary marker inside pattern"
			}
			continue
		}
		hasLetter = true
	}
	if !hasLetter {
		return nil, nil, "no letters"
	}
	return letters, weights, ""
}
