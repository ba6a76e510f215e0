package typeset

import (
	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/hyphen"
	"github.com/henry-luo/typeset/linebreak"
	"github.com/henry-luo/typeset/pagebreak"
)

// Option configures a Typesetter during creation.
// Use functional options to customize behavior.
//
// Example:
//
//	// Plain defaults
//	ts := typeset.New(metrics)
//
//	// Narrow measure with hyphenation
//	ts := typeset.New(metrics,
//		typeset.WithLineWidth(dim.FromPoints(200)),
//		typeset.WithHyphenation(engine))
type Option func(*config)

// config holds optional configuration for Typesetter creation.
type config struct {
	line linebreak.Parameters
	page pagebreak.Parameters

	hyphenator *hyphen.Engine

	indent        dim.Sp
	baselineSkip  dim.Glue
	lineSkip      dim.Glue
	lineSkipLimit dim.Sp

	clubPenalty  int
	widowPenalty int
}

// defaultConfig returns the plain-TeX-flavored defaults.
func defaultConfig() config {
	return config{
		line:          DefaultParameters(),
		page:          DefaultPageParameters(),
		baselineSkip:  dim.Glue{Width: dim.FromPoints(12)},
		lineSkip:      dim.Glue{Width: dim.FromPoints(1)},
		lineSkipLimit: 0,
		clubPenalty:   150,
		widowPenalty:  150,
	}
}

// DefaultParameters returns line-breaking parameters tuned the way
// plain TeX tunes them: tolerance 200, line penalty 10, hyphen
// penalty 50. The squared charges are expressed pre-squaring, so a
// DoubleHyphenPenalty of 100 costs the classic 10000 demerits.
func DefaultParameters() linebreak.Parameters {
	return linebreak.Parameters{
		LineWidth:           dim.FromPoints(345),
		Tolerance:           200,
		LinePenalty:         10,
		HyphenPenalty:       50,
		ExHyphenPenalty:     50,
		DoubleHyphenPenalty: 100,
		AdjacentDemerits:    10000,
		FinalHyphenDemerits: 5000,
	}
}

// DefaultPageParameters returns page-breaking parameters. The
// tolerance is the badness ceiling itself: pages prefer arbitrarily
// loose spacing to an overfull page, which cannot be split after the
// fact.
func DefaultPageParameters() pagebreak.Parameters {
	return pagebreak.Parameters{
		PageGoal:    dim.FromPoints(550),
		Tolerance:   dim.InfBad,
		PagePenalty: 10,
	}
}

// WithParameters replaces the full line-breaking parameter set.
// Apply it before WithLineWidth when combining the two.
func WithParameters(p linebreak.Parameters) Option {
	return func(c *config) {
		c.line = p
	}
}

// WithPageParameters replaces the full page-breaking parameter set.
// Apply it before WithPageHeight when combining the two.
func WithPageParameters(p pagebreak.Parameters) Option {
	return func(c *config) {
		c.page = p
	}
}

// WithLineWidth sets the target line width (TeX's \hsize).
func WithLineWidth(w dim.Sp) Option {
	return func(c *config) {
		c.line.LineWidth = w
	}
}

// WithParagraphShape sets per-line target widths (TeX's \parshape):
// entry i applies to line i+1 of every paragraph and the last entry
// repeats for all later lines. An empty call restores the uniform
// line width.
func WithParagraphShape(widths ...dim.Sp) Option {
	return func(c *config) {
		c.line.Widths = widths
	}
}

// WithPageHeight sets the target page height (TeX's \vsize).
func WithPageHeight(h dim.Sp) Option {
	return func(c *config) {
		c.page.PageGoal = h
	}
}

// WithHyphenation attaches a hyphenation engine. Without one, words
// break only at explicit discretionaries. The engine picks up the
// package logger when attached.
func WithHyphenation(e *hyphen.Engine) Option {
	return func(c *config) {
		c.hyphenator = e
	}
}

// WithIndent sets the paragraph indentation (TeX's \parindent).
// Zero, the default, starts paragraphs flush left.
func WithIndent(w dim.Sp) Option {
	return func(c *config) {
		c.indent = w
	}
}

// WithBaseline sets the baseline-to-baseline distance and the
// closeness limit below which LineSkip glue is used instead
// (TeX's \baselineskip and \lineskiplimit).
func WithBaseline(skip, limit dim.Sp) Option {
	return func(c *config) {
		c.baselineSkip = dim.Glue{Width: skip}
		c.lineSkipLimit = limit
	}
}

// WithBaselineGlue is WithBaseline with full glue specifications for
// documents that want flexible leading.
func WithBaselineGlue(baseline, lineSkip dim.Glue, limit dim.Sp) Option {
	return func(c *config) {
		c.baselineSkip = baseline
		c.lineSkip = lineSkip
		c.lineSkipLimit = limit
	}
}

// WithOrphanPenalties sets the penalties discouraging a page break
// right after a paragraph's first line (club) or right before its
// last (widow). Pass node.Forbid to ban such breaks outright.
func WithOrphanPenalties(club, widow int) Option {
	return func(c *config) {
		c.clubPenalty = club
		c.widowPenalty = widow
	}
}
