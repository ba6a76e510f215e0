// Package opentype implements font.Metrics over OpenType and TrueType
// font files.
//
// Two parsers share the work, each where it is strong:
// golang.org/x/image/font/sfnt supplies glyph advances and bounding
// boxes, and go-text/typesetting's HarfBuzz port detects kerning pairs
// and ligatures by shaping short probe strings. Probe results land in
// sharded caches, so steady-state lookups never shape.
package opentype

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"
	"sync"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	xopentype "golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/internal/cache"
)

// ligPairs maps each component pair to its presentation form. The
// three-letter forms chain through the two-letter ones: shaping first
// joins ff, then ff + i gives ffi.
var ligPairs = map[[2]rune]rune{
	{'f', 'f'}: 'ﬀ',
	{'f', 'i'}: 'ﬁ',
	{'f', 'l'}: 'ﬂ',
	{'ﬀ', 'i'}: 'ﬃ',
	{'ﬀ', 'l'}: 'ﬄ',
}

// ligParts maps a presentation form back to its component letters.
var ligParts = map[rune]string{
	'ﬀ': "ff",
	'ﬁ': "fi",
	'ﬂ': "fl",
	'ﬃ': "ffi",
	'ﬄ': "ffl",
}

// Collection implements font.Metrics for a set of loaded font files.
// It is safe for concurrent use: the HarfbuzzShaper instances backing
// kern and ligature probes have internal mutable state and are pooled,
// and each probe gets its own lightweight go-text Face over the shared
// thread-safe Font.
type Collection struct {
	mu    sync.RWMutex
	fonts map[font.ID]*loadedFont

	shapers sync.Pool

	glyphs *cache.Sharded[uint64, glyphResult]
	kerns  *cache.Sharded[uint64, dim.Sp]
	ligs   *cache.Sharded[uint64, ligResult]
}

type glyphResult struct {
	m  font.GlyphMetrics
	ok bool
}

type ligResult struct {
	code rune
	ok   bool
}

type loadedFont struct {
	info  font.Info
	at    dim.Sp
	space font.SpaceParams
	data  []byte

	sfnt *xopentype.Font

	// hb is parsed lazily on the first shaping probe; guarded by the
	// collection lock with a double check.
	hb *gtfont.Font
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{
		fonts: make(map[font.ID]*loadedFont),
		shapers: sync.Pool{
			New: func() any {
				return &shaping.HarfbuzzShaper{}
			},
		},
		glyphs: cache.NewSharded[uint64, glyphResult](1024, cache.Uint64Hasher),
		kerns:  cache.NewSharded[uint64, dim.Sp](1024, cache.Uint64Hasher),
		ligs:   cache.NewSharded[uint64, ligResult](256, cache.Uint64Hasher),
	}
}

// Load parses font data and registers it as f, used at size at. The
// font's identification name comes from its family name table, its
// checksum from the raw bytes, so writer and consumer agree without a
// metric file.
func (c *Collection) Load(f font.ID, data []byte, at dim.Sp) error {
	if at <= 0 {
		return fmt.Errorf("opentype: font %d: non-positive size %v", f, at)
	}
	sf, err := xopentype.Parse(data)
	if err != nil {
		return fmt.Errorf("opentype: font %d: %w", f, err)
	}

	lf := &loadedFont{at: at, data: data, sfnt: sf}
	name := familyName(sf)
	if name == "" {
		name = fmt.Sprintf("font%d", f)
	}
	lf.info = font.Info{
		Name:       name,
		Checksum:   crc32.ChecksumIEEE(data),
		DesignSize: at,
	}
	lf.space = spaceParams(lf)

	c.mu.Lock()
	c.fonts[f] = lf
	c.mu.Unlock()
	return nil
}

// LoadFile reads the font file at path and calls Load.
func (c *Collection) LoadFile(f font.ID, path string, at dim.Sp) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opentype: font %d: %w", f, err)
	}
	return c.Load(f, data, at)
}

func (c *Collection) lookup(f font.ID) *loadedFont {
	c.mu.RLock()
	lf := c.fonts[f]
	c.mu.RUnlock()
	return lf
}

// Info implements font.Metrics.
func (c *Collection) Info(f font.ID) font.Info {
	if lf := c.lookup(f); lf != nil {
		return lf.info
	}
	return font.Info{}
}

// Glyph implements font.Metrics. Presentation-form ligature code
// points missing from the character map are measured by shaping their
// component letters.
func (c *Collection) Glyph(f font.ID, code rune) (font.GlyphMetrics, bool) {
	lf := c.lookup(f)
	if lf == nil {
		return font.GlyphMetrics{}, false
	}
	key := glyphKey(f, code)
	if r, ok := c.glyphs.Get(key); ok {
		return r.m, r.ok
	}
	r := c.measureGlyph(lf, code)
	c.glyphs.Put(key, r)
	return r.m, r.ok
}

func (c *Collection) measureGlyph(lf *loadedFont, code rune) glyphResult {
	var buf sfnt.Buffer
	gid, err := lf.sfnt.GlyphIndex(&buf, code)
	if err != nil || gid == 0 {
		if parts, ok := ligParts[code]; ok {
			return c.measureShaped(lf, parts)
		}
		return glyphResult{}
	}
	return glyphResult{m: measureGID(lf, &buf, gid), ok: true}
}

// measureGID reads unhinted metrics for one glyph. Hinting would
// quantize advances to whole pixels, far too coarse at text sizes.
func measureGID(lf *loadedFont, buf *sfnt.Buffer, gid sfnt.GlyphIndex) font.GlyphMetrics {
	ppem := lf.at.Int26_6()
	var m font.GlyphMetrics
	if adv, err := lf.sfnt.GlyphAdvance(buf, gid, ppem, xfont.HintingNone); err == nil {
		m.Width = dim.FromInt26_6(adv)
		if bounds, _, err := lf.sfnt.GlyphBounds(buf, gid, ppem, xfont.HintingNone); err == nil {
			// Bounds use y growing downward: Min.Y is above the
			// baseline, Max.Y below it.
			if bounds.Min.Y < 0 {
				m.Height = dim.FromInt26_6(-bounds.Min.Y)
			}
			if bounds.Max.Y > 0 {
				m.Depth = dim.FromInt26_6(bounds.Max.Y)
			}
			if over := bounds.Max.X - adv; over > 0 {
				m.Italic = dim.FromInt26_6(over)
			}
		}
	}
	return m
}

// measureShaped measures the single glyph that shaping s produces,
// using the shaped advance and the glyph's own bounding box.
func (c *Collection) measureShaped(lf *loadedFont, s string) glyphResult {
	glyphs := c.shape(lf, s)
	if len(glyphs) != 1 {
		return glyphResult{}
	}
	var buf sfnt.Buffer
	m := measureGID(lf, &buf, sfnt.GlyphIndex(glyphs[0].GlyphID))
	m.Width = dim.FromInt26_6(glyphs[0].Advance)
	return glyphResult{m: m, ok: true}
}

// Kern implements font.Metrics. The kern is the difference between
// the pair's shaped advance and the two letters shaped alone.
func (c *Collection) Kern(f font.ID, left, right rune) dim.Sp {
	lf := c.lookup(f)
	if lf == nil {
		return 0
	}
	key := pairKey(f, left, right)
	if k, ok := c.kerns.Get(key); ok {
		return k
	}
	k := c.probeKern(lf, left, right)
	c.kerns.Put(key, k)
	return k
}

func (c *Collection) probeKern(lf *loadedFont, left, right rune) dim.Sp {
	pair := c.shape(lf, string([]rune{left, right}))
	if len(pair) != 2 {
		// A ligature fired or a glyph is missing; no kern applies.
		return 0
	}
	var total fixed.Int26_6
	for _, g := range pair {
		total += g.Advance
	}
	l := c.shape(lf, string(left))
	r := c.shape(lf, string(right))
	if len(l) != 1 || len(r) != 1 {
		return 0
	}
	return dim.FromInt26_6(total - l[0].Advance - r[0].Advance)
}

// Ligature implements font.Metrics. Only the standard Latin ligatures
// are considered; a pair substitutes when shaping its component
// letters yields a single glyph.
func (c *Collection) Ligature(f font.ID, left, right rune) (rune, bool) {
	to, ok := ligPairs[[2]rune{left, right}]
	if !ok {
		return 0, false
	}
	lf := c.lookup(f)
	if lf == nil {
		return 0, false
	}
	key := pairKey(f, left, right)
	if r, ok := c.ligs.Get(key); ok {
		return r.code, r.ok
	}
	res := ligResult{}
	if g := c.shape(lf, ligParts[to]); len(g) == 1 {
		res = ligResult{code: to, ok: true}
	}
	c.ligs.Put(key, res)
	return res.code, res.ok
}

// SpaceParams implements font.Metrics.
func (c *Collection) SpaceParams(f font.ID) font.SpaceParams {
	if lf := c.lookup(f); lf != nil {
		return lf.space
	}
	return font.SpaceParams{}
}

// shape runs one probe string through a pooled shaper. Shaping errors
// degrade to an empty result: the caller reports no kern or ligature
// rather than failing a layout run.
func (c *Collection) shape(lf *loadedFont, s string) []shaping.Glyph {
	hb, err := c.hbFont(lf)
	if err != nil {
		return nil
	}
	runes := []rune(s)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(hb),
		Size:      lf.at.Int26_6(),
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	}
	sh := c.shapers.Get().(*shaping.HarfbuzzShaper)
	out := sh.Shape(input)
	c.shapers.Put(sh)
	return out.Glyphs
}

// hbFont returns the go-text Font for lf, parsing it on first use.
// Font is read-only and safe for concurrent use; the one-time parse
// is double-checked under the collection lock.
func (c *Collection) hbFont(lf *loadedFont) (*gtfont.Font, error) {
	c.mu.RLock()
	hb := lf.hb
	c.mu.RUnlock()
	if hb != nil {
		return hb, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if lf.hb != nil {
		return lf.hb, nil
	}
	face, err := gtfont.ParseTTF(bytes.NewReader(lf.data))
	if err != nil {
		return nil, err
	}
	lf.hb = face.Font
	return lf.hb, nil
}

func familyName(sf *xopentype.Font) string {
	if name, err := sf.Name(nil, sfnt.NameIDFamily); err == nil {
		return name
	}
	return ""
}

// spaceParams derives interword glue from the space advance: stretch
// half a space, shrink a third, the plain TeX proportions.
func spaceParams(lf *loadedFont) font.SpaceParams {
	var buf sfnt.Buffer
	space := lf.at / 3
	if gid, err := lf.sfnt.GlyphIndex(&buf, ' '); err == nil && gid != 0 {
		if adv, err := lf.sfnt.GlyphAdvance(&buf, gid, lf.at.Int26_6(), xfont.HintingNone); err == nil {
			space = dim.FromInt26_6(adv)
		}
	}
	p := font.SpaceParams{
		Space:      space,
		Stretch:    space / 2,
		Shrink:     space / 3,
		Quad:       lf.at,
		ExtraSpace: space / 3,
	}
	if met, err := lf.sfnt.Metrics(&buf, lf.at.Int26_6(), xfont.HintingNone); err == nil {
		p.XHeight = dim.FromInt26_6(met.XHeight)
	}
	return p
}

func glyphKey(f font.ID, code rune) uint64 {
	return uint64(uint32(f))<<21 | (uint64(uint32(code)) & 0x1FFFFF)
}

func pairKey(f font.ID, left, right rune) uint64 {
	return uint64(uint32(f))<<42 |
		(uint64(uint32(left))&0x1FFFFF)<<21 |
		(uint64(uint32(right)) & 0x1FFFFF)
}

var _ font.Metrics = (*Collection)(nil)
