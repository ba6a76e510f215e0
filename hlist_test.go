package typeset

import (
	"strings"
	"testing"

	"golang.org/x/text/language"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/hyphen"
	"github.com/henry-luo/typeset/node"
)

func kindsOf(a *node.Arena, refs []node.Ref) []node.Kind {
	out := make([]node.Kind, len(refs))
	for i, r := range refs {
		out[i] = a.Kind(r)
	}
	return out
}

func TestBuildHListWords(t *testing.T) {
	a := node.NewArena()
	list := BuildHList(a, testTable(), nil, "ab cd", 0)

	want := []node.Kind{
		node.KindChar, node.KindChar,
		node.KindGlue,
		node.KindChar, node.KindChar,
	}
	got := kindsOf(a, list)
	if len(got) != len(want) {
		t.Fatalf("got kinds %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got kinds %v, want %v", got, want)
		}
	}

	g := a.GlueAt(list[2])
	if g.Width != 5*dim.Point || g.Stretch != 3*dim.Point || g.Shrink != 2*dim.Point {
		t.Errorf("interword glue = %v, want 5pt plus 3pt minus 2pt", g)
	}
}

func TestBuildHListSentenceSpace(t *testing.T) {
	a := node.NewArena()
	list := BuildHList(a, testTable(), nil, "end. next", 0)

	var glue []node.Ref
	for _, r := range list {
		if a.Kind(r) == node.KindGlue {
			glue = append(glue, r)
		}
	}
	if len(glue) != 1 {
		t.Fatalf("got %d glue nodes, want 1", len(glue))
	}
	// Space plus extra space after sentence-ending punctuation.
	if got, want := a.GlueAt(glue[0]).Width, 7*dim.Point; got != want {
		t.Errorf("sentence space = %v, want %v", got, want)
	}
}

func TestBuildHListKern(t *testing.T) {
	a := node.NewArena()
	list := BuildHList(a, testTable(), nil, "av", 0)

	got := kindsOf(a, list)
	want := []node.Kind{node.KindChar, node.KindKern, node.KindChar}
	if len(got) != 3 || got[1] != node.KindKern {
		t.Fatalf("got kinds %v, want %v", got, want)
	}
	kd := a.KernAt(list[1])
	if kd.Width != -dim.Point || kd.Explicit {
		t.Errorf("kern = %v explicit=%v, want -1pt font kern", kd.Width, kd.Explicit)
	}
}

func TestBuildHListLigature(t *testing.T) {
	a := node.NewArena()
	list := BuildHList(a, testTable(), nil, "fit", 0)

	got := kindsOf(a, list)
	if len(got) != 2 || got[0] != node.KindLig || got[1] != node.KindChar {
		t.Fatalf("got kinds %v, want [lig char]", got)
	}
	ld := a.LigAt(list[0])
	if ld.Code != 'ﬁ' {
		t.Errorf("ligature code = %q, want fi", ld.Code)
	}
	if len(ld.Components) != 2 || ld.Components[0] != 'f' || ld.Components[1] != 'i' {
		t.Errorf("ligature components = %q, want [f i]", string(ld.Components))
	}
	if got, want := a.Width(list[0]), 11*dim.Point; got != want {
		t.Errorf("ligature width = %v, want %v", got, want)
	}
}

func TestBuildHListHyphenation(t *testing.T) {
	eng := hyphen.New(language.English)
	if err := eng.LoadPatterns(strings.NewReader("hy3ph he2n 1na tio2n")); err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}

	a := node.NewArena()
	list := BuildHList(a, testTable(), eng, "hyphenation", 0)

	// The first discretionary must sit after "hy".
	charsSeen := 0
	discAt := -1
	for i, r := range list {
		if a.Kind(r) == node.KindDisc {
			discAt = i
			break
		}
		charsSeen++
	}
	if discAt == -1 {
		t.Fatal("no discretionary produced")
	}
	if charsSeen != 2 {
		t.Errorf("first discretionary after %d chars, want 2 (hy-phenation)", charsSeen)
	}

	dd := a.DiscAt(list[discAt])
	if len(dd.Pre) != 1 {
		t.Fatalf("pre-break list has %d nodes, want 1", len(dd.Pre))
	}
	if cd := a.CharAt(dd.Pre[0]); cd.Code != '-' {
		t.Errorf("pre-break char = %q, want -", cd.Code)
	}

	// No break may fall immediately before the trailing "n": the
	// even digit of tio2n forbids it.
	n := len([]rune("hyphenation"))
	pos := 0
	for _, r := range list {
		switch a.Kind(r) {
		case node.KindChar:
			pos++
		case node.KindDisc:
			if pos == n-1 {
				t.Error("break before trailing n should be forbidden")
			}
		}
	}
}

func TestBuildHListLigatureSplitByBreak(t *testing.T) {
	// Force a break point between f and i so the ligature has to be
	// pulled apart into the discretionary.
	eng := hyphen.New(language.English, hyphen.WithLeftMin(1), hyphen.WithRightMin(1))
	if err := eng.LoadPatterns(strings.NewReader("f1i")); err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}

	a := node.NewArena()
	list := BuildHList(a, testTable(), eng, "fit", 0)

	discAt := -1
	for i, r := range list {
		if a.Kind(r) == node.KindDisc {
			discAt = i
		}
	}
	if discAt == -1 {
		t.Fatal("no discretionary produced")
	}

	dd := a.DiscAt(list[discAt])
	if len(dd.NoBreak) != 1 || a.Kind(dd.NoBreak[0]) != node.KindLig {
		t.Fatalf("no-break list should hold the whole ligature, got %v",
			kindsOf(a, dd.NoBreak))
	}
	// pre = f + hyphen, post = i.
	if len(dd.Pre) != 2 {
		t.Fatalf("pre-break list has %d nodes, want 2", len(dd.Pre))
	}
	if cd := a.CharAt(dd.Pre[0]); cd.Code != 'f' {
		t.Errorf("pre-break starts with %q, want f", cd.Code)
	}
	if cd := a.CharAt(dd.Pre[1]); cd.Code != '-' {
		t.Errorf("pre-break ends with %q, want -", cd.Code)
	}
	if len(dd.Post) != 1 {
		t.Fatalf("post-break list has %d nodes, want 1", len(dd.Post))
	}
	if cd := a.CharAt(dd.Post[0]); cd.Code != 'i' {
		t.Errorf("post-break char = %q, want i", cd.Code)
	}
}

func TestBuildHListKernAfterSplitLigature(t *testing.T) {
	eng := hyphen.New(language.English, hyphen.WithLeftMin(1), hyphen.WithRightMin(1))
	if err := eng.LoadPatterns(strings.NewReader("f1i")); err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}

	tbl := font.NewTable()
	tbl.AddFont(0,
		font.Info{Name: "ten", DesignSize: 10 * dim.Point},
		font.SpaceParams{Space: 5 * dim.Point}).
		Uniform("fit-", 6*dim.Point, 7*dim.Point, 2*dim.Point).
		Glyph('ﬁ', font.GlyphMetrics{Width: 11 * dim.Point, Height: 7 * dim.Point, Depth: 2 * dim.Point}).
		Ligature('f', 'i', 'ﬁ').
		Kern('ﬁ', 't', -dim.Point)

	a := node.NewArena()
	list := BuildHList(a, tbl, eng, "fit", 0)

	// The ligature moved into the discretionary, but it is still the
	// kerning predecessor of the t that follows.
	got := kindsOf(a, list)
	want := []node.Kind{node.KindDisc, node.KindKern, node.KindChar}
	if len(got) != 3 || got[0] != node.KindDisc || got[1] != node.KindKern {
		t.Fatalf("got kinds %v, want %v", got, want)
	}
	kd := a.KernAt(list[1])
	if kd.Width != -dim.Point || kd.Explicit {
		t.Errorf("kern = %v explicit=%v, want -1pt font kern", kd.Width, kd.Explicit)
	}
}

func TestBuildHListPunctuationCore(t *testing.T) {
	// Hyphenation must see the letter core despite surrounding
	// punctuation; offsets shift back onto the full word.
	eng := hyphen.New(language.English)
	if err := eng.LoadPatterns(strings.NewReader("hy3ph")); err != nil {
		t.Fatalf("LoadPatterns: %v", err)
	}

	a := node.NewArena()
	list := BuildHList(a, testTable(), eng, "hyphen!", 0)

	discAt := -1
	charsSeen := 0
	for i, r := range list {
		if a.Kind(r) == node.KindDisc {
			discAt = i
			break
		}
		charsSeen++
	}
	if discAt == -1 {
		t.Fatal("no discretionary produced")
	}
	if charsSeen != 2 {
		t.Errorf("discretionary after %d chars, want 2", charsSeen)
	}
}

func TestBuildHListMissingGlyph(t *testing.T) {
	a := node.NewArena()
	// The fixture has no 'Z'; the word must survive without it.
	list := BuildHList(a, testTable(), nil, "aZb", 0)

	var codes []rune
	for _, r := range list {
		if a.Kind(r) == node.KindChar {
			codes = append(codes, a.CharAt(r).Code)
		}
	}
	if len(codes) != 2 || codes[0] != 'a' || codes[1] != 'b' {
		t.Errorf("chars = %q, want ab", string(codes))
	}
}
