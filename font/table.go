package font

import "github.com/henry-luo/typeset/dim"

// Table is an in-memory Metrics implementation backed by maps. It
// drives the pipeline without font files and is the fixture currency
// of the tests. Build it up front with AddFont and the FontEntry
// helpers; once readers start it must not be modified.
type Table struct {
	fonts map[ID]*fontData
}

type glyphPair struct {
	l, r rune
}

type fontData struct {
	info   Info
	space  SpaceParams
	glyphs map[rune]GlyphMetrics
	kerns  map[glyphPair]dim.Sp
	ligs   map[glyphPair]rune
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{fonts: make(map[ID]*fontData)}
}

// AddFont registers a font and returns an entry for declaring its
// glyphs, kerns and ligatures. Adding an ID twice replaces the font.
func (t *Table) AddFont(f ID, info Info, space SpaceParams) *FontEntry {
	d := &fontData{
		info:   info,
		space:  space,
		glyphs: make(map[rune]GlyphMetrics),
		kerns:  make(map[glyphPair]dim.Sp),
		ligs:   make(map[glyphPair]rune),
	}
	t.fonts[f] = d
	return &FontEntry{d: d}
}

// FontEntry declares the content of one font in a Table. Its methods
// return the entry for chaining.
type FontEntry struct {
	d *fontData
}

// Glyph declares one glyph.
func (e *FontEntry) Glyph(code rune, m GlyphMetrics) *FontEntry {
	e.d.glyphs[code] = m
	return e
}

// Uniform declares every rune in s with the same metrics, a shortcut
// for fixture fonts where exact shapes do not matter.
func (e *FontEntry) Uniform(s string, w, h, d dim.Sp) *FontEntry {
	for _, c := range s {
		e.d.glyphs[c] = GlyphMetrics{Width: w, Height: h, Depth: d}
	}
	return e
}

// Kern declares a kerning pair.
func (e *FontEntry) Kern(l, r rune, k dim.Sp) *FontEntry {
	e.d.kerns[glyphPair{l, r}] = k
	return e
}

// Ligature declares that the pair l, r substitutes to the single
// code to.
func (e *FontEntry) Ligature(l, r, to rune) *FontEntry {
	e.d.ligs[glyphPair{l, r}] = to
	return e
}

// Info implements Metrics.
func (t *Table) Info(f ID) Info {
	if d, ok := t.fonts[f]; ok {
		return d.info
	}
	return Info{}
}

// Glyph implements Metrics.
func (t *Table) Glyph(f ID, code rune) (GlyphMetrics, bool) {
	d, ok := t.fonts[f]
	if !ok {
		return GlyphMetrics{}, false
	}
	m, ok := d.glyphs[code]
	return m, ok
}

// Kern implements Metrics.
func (t *Table) Kern(f ID, left, right rune) dim.Sp {
	if d, ok := t.fonts[f]; ok {
		return d.kerns[glyphPair{left, right}]
	}
	return 0
}

// Ligature implements Metrics.
func (t *Table) Ligature(f ID, left, right rune) (rune, bool) {
	d, ok := t.fonts[f]
	if !ok {
		return 0, false
	}
	to, ok := d.ligs[glyphPair{left, right}]
	return to, ok
}

// SpaceParams implements Metrics.
func (t *Table) SpaceParams(f ID) SpaceParams {
	if d, ok := t.fonts[f]; ok {
		return d.space
	}
	return SpaceParams{}
}

var _ Metrics = (*Table)(nil)
