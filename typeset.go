package typeset

import (
	"fmt"
	"io"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/dvi"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/linebreak"
	"github.com/henry-luo/typeset/node"
	"github.com/henry-luo/typeset/pagebreak"
)

// ignoreDepth marks "no previous baseline": the first box on the
// vertical list gets no interline glue above it.
const ignoreDepth = dim.Sp(-1000 * dim.Point)

// Typesetter accumulates a document's vertical list paragraph by
// paragraph and breaks it into DVI pages on demand.
//
// A Typesetter is not safe for concurrent use; independent documents
// belong on independent instances.
type Typesetter struct {
	m   font.Metrics
	cfg config

	arena     *node.Arena
	vlist     []node.Ref
	prevDepth dim.Sp
}

// New creates a Typesetter over the given metrics collaborator.
func New(m font.Metrics, opts ...Option) *Typesetter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.hyphenator != nil {
		propagateLogger(cfg.hyphenator, Logger())
	}
	return &Typesetter{
		m:         m,
		cfg:       cfg,
		arena:     node.NewArena(),
		prevDepth: ignoreDepth,
	}
}

// Arena exposes the node storage, for callers assembling material by
// hand (display boxes, rules) alongside Paragraph.
func (t *Typesetter) Arena() *node.Arena { return t.arena }

// Paragraph builds the horizontal list for text, breaks it into
// lines and appends the line boxes with interline material to the
// document's vertical list.
func (t *Typesetter) Paragraph(text string, f font.ID) error {
	hlist := BuildHList(t.arena, t.m, t.cfg.hyphenator, text, f)
	if t.cfg.indent > 0 {
		indent := t.arena.HPackTo(nil, t.cfg.indent)
		hlist = append([]node.Ref{indent}, hlist...)
	}
	if len(hlist) == 0 {
		return nil
	}

	res, err := linebreak.Break(t.arena, hlist, t.cfg.line)
	if err != nil {
		return fmt.Errorf("typeset: paragraph: %w", err)
	}
	t.appendLines(res.Lines)
	Logger().Debug("paragraph broken",
		"lines", len(res.Lines), "demerits", res.Demerits)
	return nil
}

// appendLines lays line boxes onto the vertical list with the TeX
// baseline discipline, inserting the club and widow penalties at the
// paragraph's outer seams.
func (t *Typesetter) appendLines(lines []linebreak.Line) {
	n := len(lines)
	for i, ln := range lines {
		if i > 0 {
			pen := 0
			if i == 1 {
				pen += t.cfg.clubPenalty
			}
			if i == n-1 {
				pen += t.cfg.widowPenalty
			}
			if pen != 0 {
				t.vlist = append(t.vlist, t.arena.Penalty(pen, false))
			}
		}
		t.appendBox(ln.Box)
	}
}

// appendBox adds one box below the previous one: BaselineSkip glue
// between consecutive baselines, or LineSkip glue when the boxes
// would come closer than LineSkipLimit.
func (t *Typesetter) appendBox(box node.Ref) {
	h := t.arena.Height(box)
	if t.prevDepth > ignoreDepth {
		gap := t.cfg.baselineSkip.Width - t.prevDepth - h
		if gap < t.cfg.lineSkipLimit {
			t.vlist = append(t.vlist, t.arena.Glue(t.cfg.lineSkip))
		} else {
			g := t.cfg.baselineSkip
			g.Width = gap
			t.vlist = append(t.vlist, t.arena.Glue(g))
		}
	}
	t.vlist = append(t.vlist, box)
	t.prevDepth = t.arena.Depth(box)
}

// VSpace appends vertical glue, for example between sections. The
// next box starts a fresh baseline.
func (t *Typesetter) VSpace(g dim.Glue) {
	t.vlist = append(t.vlist, t.arena.Glue(g))
	t.prevDepth = ignoreDepth
}

// Eject forces a page break at the current end of the document.
func (t *Typesetter) Eject() {
	t.vlist = append(t.vlist, t.arena.Penalty(node.Force, false))
	t.prevDepth = ignoreDepth
}

// Pages breaks the accumulated vertical list into pages. The
// vertical list itself is not consumed; material appended afterwards
// extends the same document for a later call.
func (t *Typesetter) Pages() ([]pagebreak.Page, error) {
	if len(t.vlist) == 0 {
		return nil, nil
	}
	res, err := pagebreak.Break(t.arena, t.vlist, t.cfg.page)
	if err != nil {
		return nil, fmt.Errorf("typeset: pages: %w", err)
	}
	return res.Pages, nil
}

// WriteDVI breaks the document into pages and serializes them to w.
// A returned error leaves w holding an invalid partial stream that
// the caller must discard.
func (t *Typesetter) WriteDVI(w io.Writer) error {
	pages, err := t.Pages()
	if err != nil {
		return err
	}

	dw := dvi.NewWriter(w, t.m)
	dw.SetLogger(Logger())
	var counts [10]int32
	for i, pg := range pages {
		counts[0] = int32(i + 1)
		if err := dw.BeginPage(counts); err != nil {
			return fmt.Errorf("typeset: %w", err)
		}
		if err := dw.ShipOut(t.arena, pg.Box); err != nil {
			return fmt.Errorf("typeset: %w", err)
		}
		if err := dw.EndPage(); err != nil {
			return fmt.Errorf("typeset: %w", err)
		}
	}
	if err := dw.Close(); err != nil {
		return fmt.Errorf("typeset: %w", err)
	}
	Logger().Info("document written", "pages", len(pages))
	return nil
}
