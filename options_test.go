package typeset

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/hyphen"
	"github.com/henry-luo/typeset/linebreak"
	"github.com/henry-luo/typeset/node"
)

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	if p.Tolerance != 200 {
		t.Errorf("Tolerance = %d, want 200", p.Tolerance)
	}
	if p.LinePenalty != 10 {
		t.Errorf("LinePenalty = %d, want 10", p.LinePenalty)
	}
	if p.HyphenPenalty != 50 {
		t.Errorf("HyphenPenalty = %d, want 50", p.HyphenPenalty)
	}
	// Pre-squaring value: 100 squared is the classic 10000 demerits.
	if p.DoubleHyphenPenalty != 100 {
		t.Errorf("DoubleHyphenPenalty = %d, want 100", p.DoubleHyphenPenalty)
	}
	if p.LineWidth <= 0 {
		t.Error("LineWidth must default positive")
	}
}

func TestDefaultPageParameters(t *testing.T) {
	p := DefaultPageParameters()
	if p.Tolerance != dim.InfBad {
		t.Errorf("Tolerance = %d, want %d", p.Tolerance, dim.InfBad)
	}
	if p.PageGoal <= 0 {
		t.Error("PageGoal must default positive")
	}
}

func TestWithLineWidthOverridesParameters(t *testing.T) {
	custom := linebreak.Parameters{LineWidth: 100 * dim.Point, Tolerance: 500}
	ts := New(testTable(),
		WithParameters(custom),
		WithLineWidth(80*dim.Point))

	if got, want := ts.cfg.line.LineWidth, 80*dim.Point; got != want {
		t.Errorf("LineWidth = %v, want %v", got, want)
	}
	if got, want := ts.cfg.line.Tolerance, 500; got != want {
		t.Errorf("Tolerance = %d, want %d (WithParameters kept)", got, want)
	}
}

func TestWithParagraphShape(t *testing.T) {
	ts := New(testTable(),
		WithParagraphShape(12*dim.Point, 29*dim.Point),
		WithBaseline(12*dim.Point, dim.Point))

	if err := ts.Paragraph("ab cd ef", 0); err != nil {
		t.Fatalf("Paragraph: %v", err)
	}
	pages, err := ts.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}

	var widths []dim.Sp
	ar := ts.Arena()
	for _, r := range pages[0].Refs {
		if ar.Kind(r) == node.KindHBox {
			widths = append(widths, ar.BoxAt(r).Width)
		}
	}
	// "ab" fills the 12pt first line exactly; "cd ef" fills the 29pt
	// second line.
	if len(widths) != 2 || widths[0] != 12*dim.Point || widths[1] != 29*dim.Point {
		t.Errorf("line widths = %v, want [12pt 29pt]", widths)
	}
}

func TestWithPageHeight(t *testing.T) {
	ts := New(testTable(), WithPageHeight(300*dim.Point))
	if got, want := ts.cfg.page.PageGoal, 300*dim.Point; got != want {
		t.Errorf("PageGoal = %v, want %v", got, want)
	}
}

func TestWithBaseline(t *testing.T) {
	ts := New(testTable(), WithBaseline(14*dim.Point, 2*dim.Point))
	if got, want := ts.cfg.baselineSkip.Width, 14*dim.Point; got != want {
		t.Errorf("baselineSkip = %v, want %v", got, want)
	}
	if got, want := ts.cfg.lineSkipLimit, 2*dim.Point; got != want {
		t.Errorf("lineSkipLimit = %v, want %v", got, want)
	}
}

func TestWithOrphanPenalties(t *testing.T) {
	ts := New(testTable(), WithOrphanPenalties(300, 400))
	if ts.cfg.clubPenalty != 300 || ts.cfg.widowPenalty != 400 {
		t.Errorf("penalties = %d/%d, want 300/400",
			ts.cfg.clubPenalty, ts.cfg.widowPenalty)
	}
}

func TestWithIndent(t *testing.T) {
	ts := New(testTable(),
		WithLineWidth(140*dim.Point),
		WithIndent(20*dim.Point))

	if err := ts.Paragraph("the cat", 0); err != nil {
		t.Fatalf("Paragraph: %v", err)
	}
	pages, err := ts.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	// The line's first node is the empty 20pt indent box.
	a := ts.Arena()
	line := a.BoxAt(pages[0].Box).Kids[0]
	first := a.BoxAt(line).Kids[0]
	if got, want := a.Width(first), 20*dim.Point; got != want {
		t.Errorf("indent box width = %v, want %v", got, want)
	}
}

func TestWithHyphenation(t *testing.T) {
	eng := hyphen.New(language.English)
	ts := New(testTable(), WithHyphenation(eng))
	if ts.cfg.hyphenator != eng {
		t.Error("hyphenation engine not attached")
	}
}
