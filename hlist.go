package typeset

import (
	"strings"
	"unicode"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/hyphen"
	"github.com/henry-luo/typeset/node"
)

// hyphenChar is the glyph spliced in before a discretionary break.
const hyphenChar = '-'

// BuildHList converts one paragraph of text into a horizontal node
// list: characters with greedy left-to-right ligature formation and
// font kerns, interword glue from the font's space parameters, and a
// discretionary at every legal hyphenation point. A nil hyphenation
// engine disables discretionaries.
//
// Words whose glyphs the font lacks lose those glyphs with a Warn
// log; the list shape stays legal either way.
func BuildHList(a *node.Arena, m font.Metrics, hy *hyphen.Engine, text string, f font.ID) []node.Ref {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	sp := m.SpaceParams(f)
	var out []node.Ref
	for i, word := range words {
		if i > 0 {
			out = append(out, a.Glue(interwordGlue(sp, words[i-1])))
		}
		out = appendWord(out, a, m, hy, word, f)
	}
	return out
}

// interwordGlue is the space following prev: the font's interword
// glue, widened by the extra-space amount after sentence-ending
// punctuation.
func interwordGlue(sp font.SpaceParams, prev string) dim.Glue {
	g := dim.Glue{Width: sp.Space, Stretch: sp.Stretch, Shrink: sp.Shrink}
	if r, ok := lastRune(prev); ok && (r == '.' || r == '!' || r == '?') {
		g.Width += sp.ExtraSpace
	}
	return g
}

func lastRune(s string) (rune, bool) {
	var r rune
	ok := false
	for _, c := range s {
		r, ok = c, true
	}
	return r, ok
}

// wordBuilder tracks the node most recently appended for a word so
// ligatures can absorb it and discretionaries can pull it apart.
type wordBuilder struct {
	a   *node.Arena
	m   font.Metrics
	f   font.ID
	out []node.Ref

	// last appended char or ligature; parts nil when the previous
	// node cannot merge (start of word, after a discretionary, or a
	// missing glyph). kernOnly marks a ligature that moved into a
	// discretionary's no-break list: it still kerns against the next
	// glyph but can no longer grow.
	lastCode  rune
	lastParts []rune
	kernOnly  bool
}

// appendWord emits one word's nodes. brks marks the rune boundaries
// where a discretionary belongs.
func appendWord(out []node.Ref, a *node.Arena, m font.Metrics, hy *hyphen.Engine, word string, f font.ID) []node.Ref {
	runes := []rune(word)
	brks := hyphenBoundaries(hy, runes)

	b := &wordBuilder{a: a, m: m, f: f, out: out}
	for i, r := range runes {
		if i == 0 {
			b.pushChar(r)
			continue
		}
		if brks[i] {
			b.breakBoundary(r)
		} else {
			b.joinBoundary(r)
		}
	}
	return b.out
}

// hyphenBoundaries returns, per rune index, whether a hyphenation
// point precedes that rune. Surrounding punctuation is stripped
// before consulting the engine and the offsets shifted back.
func hyphenBoundaries(hy *hyphen.Engine, runes []rune) []bool {
	brks := make([]bool, len(runes))
	if hy == nil {
		return brks
	}
	lo := 0
	for lo < len(runes) && !unicode.IsLetter(runes[lo]) {
		lo++
	}
	hi := len(runes)
	for hi > lo && !unicode.IsLetter(runes[hi-1]) {
		hi--
	}
	if hi-lo < 2 {
		return brks
	}
	core := string(runes[lo:hi])
	offsets := hy.Breaks(core)
	if len(offsets) == 0 {
		return brks
	}
	// Byte offsets into core map back to rune indices of the word.
	byteToRune := make(map[int]int, hi-lo)
	pos := 0
	for i, r := range runes[lo:hi] {
		byteToRune[pos] = lo + i
		pos += len(string(r))
	}
	for _, off := range offsets {
		if ri, ok := byteToRune[off]; ok && ri > 0 {
			brks[ri] = true
		}
	}
	return brks
}

// pushChar appends the glyph for r, or skips it with a warning when
// the font has none.
func (b *wordBuilder) pushChar(r rune) {
	g, ok := b.m.Glyph(b.f, r)
	if !ok {
		Logger().Warn("missing glyph", "font", b.f, "rune", string(r))
		b.lastParts = nil
		b.kernOnly = false
		return
	}
	b.out = append(b.out, b.a.Char(b.f, r, g.Width, g.Height, g.Depth))
	b.lastCode = r
	b.lastParts = []rune{r}
	b.kernOnly = false
}

// joinBoundary handles the seam before r when no break is legal
// there: ligature formation first, then a font kern.
func (b *wordBuilder) joinBoundary(r rune) {
	if b.lastParts != nil {
		if lig, ok := b.m.Ligature(b.f, b.lastCode, r); ok {
			if g, ok := b.m.Glyph(b.f, lig); ok {
				parts := append(append([]rune(nil), b.lastParts...), r)
				b.out[len(b.out)-1] = b.a.Lig(b.f, lig, parts, g.Width, g.Height, g.Depth)
				b.lastCode = lig
				b.lastParts = parts
				return
			}
		}
	}
	if b.lastParts != nil || b.kernOnly {
		if k := b.m.Kern(b.f, b.lastCode, r); k != 0 {
			b.out = append(b.out, b.a.Kern(k, false))
		}
	}
	b.pushChar(r)
}

// breakBoundary handles the seam before r when a hyphenation point
// sits there. A ligature spanning the seam moves whole into the
// discretionary's no-break list with its components rebuilt in the
// pre- and post-break lists; a font kern spanning the seam moves
// into the no-break list alone.
func (b *wordBuilder) breakBoundary(r rune) {
	pre := []node.Ref{}
	if hg, ok := b.m.Glyph(b.f, hyphenChar); ok {
		pre = append(pre, b.a.Char(b.f, hyphenChar, hg.Width, hg.Height, hg.Depth))
	}

	if b.lastParts != nil {
		if lig, ok := b.m.Ligature(b.f, b.lastCode, r); ok {
			if g, ok := b.m.Glyph(b.f, lig); ok {
				parts := append(append([]rune(nil), b.lastParts...), r)
				whole := b.a.Lig(b.f, lig, parts, g.Width, g.Height, g.Depth)

				// The components on either side of the seam.
				split := len(parts) - 1
				preList := b.charList(parts[:split])
				preList = append(preList, pre...)
				postList := b.charList(parts[split:])

				b.out = b.out[:len(b.out)-1]
				b.out = append(b.out, b.a.Disc(preList, postList, []node.Ref{whole}))
				b.lastCode = lig
				b.lastParts = nil
				b.kernOnly = true
				return
			}
		}
	}
	if b.lastParts != nil || b.kernOnly {
		if k := b.m.Kern(b.f, b.lastCode, r); k != 0 {
			nb := []node.Ref{b.a.Kern(k, false)}
			b.out = append(b.out, b.a.Disc(pre, nil, nb))
			b.pushChar(r)
			return
		}
	}

	b.out = append(b.out, b.a.Disc(pre, nil, nil))
	b.pushChar(r)
}

// charList builds plain char nodes for a run of component runes.
func (b *wordBuilder) charList(runes []rune) []node.Ref {
	var list []node.Ref
	for _, r := range runes {
		if g, ok := b.m.Glyph(b.f, r); ok {
			list = append(list, b.a.Char(b.f, r, g.Width, g.Height, g.Depth))
		}
	}
	return list
}
