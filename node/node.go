// Package node implements the box-and-glue node model: the typed
// nodes that make up horizontal and vertical lists, and the packing
// operations that turn lists into boxes.
//
// # Storage
//
// Nodes live in an Arena and are addressed by Ref values, compact
// generation-tagged indices. A Ref never dangles: after Arena.Reset
// every outstanding Ref is invalidated wholesale, and dereferencing
// one panics instead of silently reading recycled memory. Lists are
// ordinary []Ref slices; a box owns its child list exclusively, so
// the node graph is always a tree.
package node

import (
	"fmt"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
)

// Kind identifies the variant stored in a node.
type Kind uint8

const (
	KindNone Kind = iota
	KindChar
	KindLig
	KindKern
	KindGlue
	KindPenalty
	KindDisc
	KindHBox
	KindVBox
	KindRule
)

// String returns the kind name used in traces and dumps.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindChar:
		return "char"
	case KindLig:
		return "lig"
	case KindKern:
		return "kern"
	case KindGlue:
		return "glue"
	case KindPenalty:
		return "penalty"
	case KindDisc:
		return "disc"
	case KindHBox:
		return "hbox"
	case KindVBox:
		return "vbox"
	case KindRule:
		return "rule"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Discardable reports whether a node of this kind is dropped when it
// appears after a chosen break point.
func (k Kind) Discardable() bool {
	return k == KindGlue || k == KindKern || k == KindPenalty
}

// Running marks a rule dimension that extends to the enclosing box.
// It is resolved at shipout, never stored on a packed box.
const Running dim.Sp = -(1 << 30)

// Penalty bounds. A penalty of Forbid or more never breaks; a penalty
// of Force or less always breaks.
const (
	Forbid = dim.InfBad
	Force  = -dim.InfBad
)

// Ref addresses a node in an Arena. The zero Ref is None.
type Ref struct {
	idx uint32
	gen uint32
}

// None is the null reference.
var None = Ref{}

// IsNone reports whether r is the null reference.
func (r Ref) IsNone() bool { return r.gen == 0 }

// GlueSign records which direction a packed box adjusts its glue.
type GlueSign uint8

const (
	SignNone GlueSign = iota
	SignStretch
	SignShrink
)

// nodeData is the tagged variant. One struct covers all kinds; the
// per-kind constructors and accessors keep the overlay honest.
type nodeData struct {
	kind    Kind
	flags   uint8
	width   dim.Sp
	height  dim.Sp
	depth   dim.Sp
	font    font.ID
	code    rune
	glue    dim.Glue
	penalty int32
	kids    []Ref
	pre     []Ref
	post    []Ref
	parts   []rune
	ratio   float64
	sign    GlueSign
	order   dim.Order
}

const (
	flagExplicit uint8 = 1 << iota
	flagFlagged
)

// Arena holds nodes for one document run. The zero value is not
// usable; call NewArena.
type Arena struct {
	gen   uint32
	nodes []nodeData
}

// NewArena returns an empty arena at generation one.
func NewArena() *Arena {
	return &Arena{gen: 1}
}

// Reset discards every node and invalidates all outstanding Refs.
// Allocated capacity is retained for the next run.
func (a *Arena) Reset() {
	a.nodes = a.nodes[:0]
	a.gen++
}

// Len returns the number of live nodes.
func (a *Arena) Len() int { return len(a.nodes) }

func (a *Arena) alloc(d nodeData) Ref {
	a.nodes = append(a.nodes, d)
	return Ref{idx: uint32(len(a.nodes) - 1), gen: a.gen}
}

func (a *Arena) at(r Ref) *nodeData {
	if r.gen != a.gen {
		panic(fmt.Sprintf("node: ref from generation %d used in generation %d", r.gen, a.gen))
	}
	return &a.nodes[r.idx]
}

// Char appends a character node with resolved metrics.
func (a *Arena) Char(f font.ID, code rune, w, h, d dim.Sp) Ref {
	return a.alloc(nodeData{kind: KindChar, font: f, code: code, width: w, height: h, depth: d})
}

// Lig appends a ligature node. parts holds the replaced character
// codes so a later pass can undo the substitution.
func (a *Arena) Lig(f font.ID, code rune, parts []rune, w, h, d dim.Sp) Ref {
	return a.alloc(nodeData{kind: KindLig, font: f, code: code, parts: parts, width: w, height: h, depth: d})
}

// Kern appends a kern node. explicit distinguishes a requested kern
// from one generated by font metrics.
func (a *Arena) Kern(w dim.Sp, explicit bool) Ref {
	var fl uint8
	if explicit {
		fl = flagExplicit
	}
	return a.alloc(nodeData{kind: KindKern, width: w, flags: fl})
}

// Glue appends a glue node.
func (a *Arena) Glue(g dim.Glue) Ref {
	return a.alloc(nodeData{kind: KindGlue, width: g.Width, glue: g})
}

// Penalty appends a penalty node. flagged marks hyphen-like breaks
// for consecutive-hyphen accounting.
func (a *Arena) Penalty(cost int, flagged bool) Ref {
	var fl uint8
	if flagged {
		fl = flagFlagged
	}
	return a.alloc(nodeData{kind: KindPenalty, penalty: int32(cost), flags: fl})
}

// Disc appends a discretionary break: pre is typeset before the break
// when the break is taken, post after it, and nobreak when it is not.
func (a *Arena) Disc(pre, post, nobreak []Ref) Ref {
	return a.alloc(nodeData{kind: KindDisc, pre: pre, post: post, kids: nobreak})
}

// Rule appends a rule node. Any dimension may be Running, meaning it
// spans the enclosing box at shipout.
func (a *Arena) Rule(h, d, w dim.Sp) Ref {
	return a.alloc(nodeData{kind: KindRule, height: h, depth: d, width: w})
}

// Kind returns the variant stored at r.
func (a *Arena) Kind(r Ref) Kind {
	if r.IsNone() {
		return KindNone
	}
	return a.at(r).kind
}

// Width returns the natural width of the node at r. For glue this is
// the natural width; for an unbroken discretionary the width of its
// no-break list.
func (a *Arena) Width(r Ref) dim.Sp {
	n := a.at(r)
	if n.kind == KindDisc {
		w := dim.Sp(0)
		for _, k := range n.kids {
			w += a.Width(k)
		}
		return w
	}
	return n.width
}

// Height returns the height of the node at r.
func (a *Arena) Height(r Ref) dim.Sp { return a.at(r).height }

// Depth returns the depth of the node at r.
func (a *Arena) Depth(r Ref) dim.Sp { return a.at(r).depth }

// CharData is the resolved content of a character node.
type CharData struct {
	Font   font.ID
	Code   rune
	Width  dim.Sp
	Height dim.Sp
	Depth  dim.Sp
}

// CharAt returns the character node at r. It panics if r does not
// address a char node.
func (a *Arena) CharAt(r Ref) CharData {
	n := a.at(r)
	if n.kind != KindChar {
		panic("node: CharAt on " + n.kind.String())
	}
	return CharData{Font: n.font, Code: n.code, Width: n.width, Height: n.height, Depth: n.depth}
}

// LigData is the resolved content of a ligature node.
type LigData struct {
	Font       font.ID
	Code       rune
	Components []rune
	Width      dim.Sp
	Height     dim.Sp
	Depth      dim.Sp
}

// LigAt returns the ligature node at r.
func (a *Arena) LigAt(r Ref) LigData {
	n := a.at(r)
	if n.kind != KindLig {
		panic("node: LigAt on " + n.kind.String())
	}
	return LigData{Font: n.font, Code: n.code, Components: n.parts, Width: n.width, Height: n.height, Depth: n.depth}
}

// KernData is the content of a kern node.
type KernData struct {
	Width    dim.Sp
	Explicit bool
}

// KernAt returns the kern node at r.
func (a *Arena) KernAt(r Ref) KernData {
	n := a.at(r)
	if n.kind != KindKern {
		panic("node: KernAt on " + n.kind.String())
	}
	return KernData{Width: n.width, Explicit: n.flags&flagExplicit != 0}
}

// GlueAt returns the glue specification at r.
func (a *Arena) GlueAt(r Ref) dim.Glue {
	n := a.at(r)
	if n.kind != KindGlue {
		panic("node: GlueAt on " + n.kind.String())
	}
	return n.glue
}

// PenaltyData is the content of a penalty node.
type PenaltyData struct {
	Cost    int
	Flagged bool
}

// PenaltyAt returns the penalty node at r.
func (a *Arena) PenaltyAt(r Ref) PenaltyData {
	n := a.at(r)
	if n.kind != KindPenalty {
		panic("node: PenaltyAt on " + n.kind.String())
	}
	return PenaltyData{Cost: int(n.penalty), Flagged: n.flags&flagFlagged != 0}
}

// DiscData is the content of a discretionary node.
type DiscData struct {
	Pre     []Ref
	Post    []Ref
	NoBreak []Ref
}

// DiscAt returns the discretionary node at r.
func (a *Arena) DiscAt(r Ref) DiscData {
	n := a.at(r)
	if n.kind != KindDisc {
		panic("node: DiscAt on " + n.kind.String())
	}
	return DiscData{Pre: n.pre, Post: n.post, NoBreak: n.kids}
}

// RuleData is the content of a rule node. Dimensions may be Running.
type RuleData struct {
	Height dim.Sp
	Depth  dim.Sp
	Width  dim.Sp
}

// RuleAt returns the rule node at r.
func (a *Arena) RuleAt(r Ref) RuleData {
	n := a.at(r)
	if n.kind != KindRule {
		panic("node: RuleAt on " + n.kind.String())
	}
	return RuleData{Height: n.height, Depth: n.depth, Width: n.width}
}

// BoxData is the resolved content of a packed box. Ratio, Sign and
// Order describe the glue set computed at packing; child glue keeps
// its natural specification and is widened or narrowed only when the
// box is shipped out.
type BoxData struct {
	Width  dim.Sp
	Height dim.Sp
	Depth  dim.Sp
	Kids   []Ref
	Ratio  float64
	Sign   GlueSign
	Order  dim.Order
}

// BoxAt returns the box node at r (horizontal or vertical).
func (a *Arena) BoxAt(r Ref) BoxData {
	n := a.at(r)
	if n.kind != KindHBox && n.kind != KindVBox {
		panic("node: BoxAt on " + n.kind.String())
	}
	return BoxData{
		Width: n.width, Height: n.height, Depth: n.depth,
		Kids: n.kids, Ratio: n.ratio, Sign: n.sign, Order: n.order,
	}
}

// GlueWidth returns the width glue g takes inside box b: the natural
// width adjusted by the box's stored ratio when the glue's order
// matches the order the box was set at.
func (b BoxData) GlueWidth(g dim.Glue) dim.Sp {
	switch {
	case b.Sign == SignStretch && g.StretchOrder == b.Order:
		return g.Width + dim.Scale(g.Stretch, b.Ratio)
	case b.Sign == SignShrink && g.ShrinkOrder == b.Order:
		return g.Width - dim.Scale(g.Shrink, b.Ratio)
	}
	return g.Width
}
