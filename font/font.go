// Package font defines the metrics interface the typesetting engine
// consumes. The engine never reads font binaries itself: glyph
// dimensions, kerning pairs and ligatures arrive through Metrics,
// implemented either by the in-memory Table or by the opentype
// subpackage backed by real font files.
package font

import "github.com/henry-luo/typeset/dim"

// ID identifies a font within one document run. IDs are small dense
// integers assigned by the caller; they become the font numbers of
// the output file.
type ID int32

// GlyphMetrics are the box dimensions of one glyph at the font's
// loaded size.
type GlyphMetrics struct {
	Width  dim.Sp
	Height dim.Sp
	Depth  dim.Sp
	Italic dim.Sp
}

// Info describes a font for output-file identification.
type Info struct {
	// Name is the external font name, for example "cmr10".
	Name string
	// Checksum must match between metric source and output consumer.
	Checksum uint32
	// DesignSize is the size the font was designed at.
	DesignSize dim.Sp
	// At is the size the font is used at. Zero means DesignSize.
	At dim.Sp
}

// LoadedAt returns the effective size the font is used at.
func (i Info) LoadedAt() dim.Sp {
	if i.At != 0 {
		return i.At
	}
	return i.DesignSize
}

// SpaceParams are the spacing parameters of a font: the interword
// glue components plus the reference dimensions lines are built from.
type SpaceParams struct {
	Space      dim.Sp
	Stretch    dim.Sp
	Shrink     dim.Sp
	XHeight    dim.Sp
	Quad       dim.Sp
	ExtraSpace dim.Sp
}

// Metrics supplies everything the engine needs to know about fonts.
// Implementations must be safe for concurrent readers.
type Metrics interface {
	// Info returns identification data for a font.
	Info(f ID) Info

	// Glyph returns the metrics of code in font f. The second result
	// is false when the font has no such glyph.
	Glyph(f ID, code rune) (GlyphMetrics, bool)

	// Kern returns the kerning correction between two adjacent
	// glyphs, zero when the pair has none.
	Kern(f ID, left, right rune) dim.Sp

	// Ligature returns the replacement code when the font forms a
	// ligature from the pair, and whether it does.
	Ligature(f ID, left, right rune) (rune, bool)

	// SpaceParams returns the spacing parameters of a font.
	SpaceParams(f ID) SpaceParams
}
