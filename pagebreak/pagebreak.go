// Package pagebreak divides a vertical list into pages with the same
// optimal-fit method the line breaker uses: every legal breakpoint is
// scored against every reachable predecessor and the cheapest chain
// of page breaks wins.
//
// Vertical material has no discretionaries and no fitness classes,
// so the bookkeeping is leaner than for lines: one candidate record
// per breakpoint. Extent accounting follows vertical packing: a box
// contributes the hanging depth of its predecessor plus its height,
// and the depth of the last box on a page hangs below the page
// rather than counting against the goal.
package pagebreak

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/node"
)

// ErrInvalidParameters reports unusable page parameters.
var ErrInvalidParameters = errors.New("pagebreak: invalid parameters")

// Parameters control one page run.
type Parameters struct {
	// PageGoal is the target vertical extent of every page.
	PageGoal dim.Sp

	// Tolerance is the largest badness a page may have outside the
	// recovery pass. Pages tolerate far worse spacing than lines, so
	// callers usually pass a generous value.
	Tolerance int

	// PagePenalty is added to every page's badness before squaring.
	PagePenalty int

	// Trace receives per-candidate decision records at Debug level.
	// Nil disables tracing.
	Trace *slog.Logger
}

func (p Parameters) validate() error {
	if p.PageGoal <= 0 {
		return fmt.Errorf("%w: page goal %v", ErrInvalidParameters, p.PageGoal)
	}
	if p.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %d", ErrInvalidParameters, p.Tolerance)
	}
	return nil
}

// Page is one page of the chosen solution.
type Page struct {
	// Refs is the page's material with leading discardables of the
	// following break stripped.
	Refs []node.Ref

	// Box is Refs packed to the page goal; its glue-set ratio holds
	// the page's adjustment.
	Box node.Ref

	// Ratio is the box's glue-set ratio, kept for inspection.
	Ratio float64

	// Badness describes the page as the breaker saw it.
	Badness int
}

// Result is a broken document.
type Result struct {
	Pages    []Page
	Demerits int64
}

const awful = int64(1) << 62

// totals accumulates vertical contributions from the document start:
// extent with interior depths resolved, stretch by order, and
// normal-order shrink.
type totals struct {
	ext dim.Sp
	st  dim.Springs
	sh  dim.Sp
}

type record struct {
	pos      int
	page     int
	badness  int
	demerits int64
	prev     int
}

type active struct {
	hist  int
	start totals
}

type breaker struct {
	a     *node.Arena
	list  []node.Ref
	p     Parameters
	trace *slog.Logger

	cur       totals
	hang      dim.Sp
	act       []active
	recs      []record
	finals    []int
	finalPass bool
}

// Break divides the vertical list into pages of p.PageGoal. The list
// is normalized first: unless it already ends with a forced penalty,
// trailing glue is dropped and the document is finished with
// infinitely stretchable fill glue and a forced break. The arena is
// shared with the caller; page boxes are allocated in it.
func Break(a *node.Arena, list []node.Ref, p Parameters) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, err
	}
	if len(list) == 0 {
		return Result{}, nil
	}

	b := &breaker{a: a, p: p, trace: p.Trace}
	b.list = b.normalize(list)

	if !b.run(false) {
		log := b.trace
		if log == nil {
			log = Logger()
		}
		log.Warn("no feasible page breaks within tolerance, rebreaking with artificial demerits")
		if !b.run(true) {
			panic("pagebreak: recovery pass found no solution")
		}
	}

	best := b.recs[b.finals[0]]
	for _, h := range b.finals[1:] {
		if r := b.recs[h]; r.demerits < best.demerits {
			best = r
		}
	}
	return b.materialize(best), nil
}

func (b *breaker) normalize(list []node.Ref) []node.Ref {
	last := list[len(list)-1]
	if b.a.Kind(last) == node.KindPenalty && b.a.PenaltyAt(last).Cost <= node.Force {
		return list
	}
	out := make([]node.Ref, len(list), len(list)+3)
	copy(out, list)
	if b.a.Kind(out[len(out)-1]) == node.KindGlue {
		out = out[:len(out)-1]
	}
	out = append(out,
		b.a.Penalty(node.Forbid, false),
		b.a.Glue(dim.Glue{Stretch: dim.Point, StretchOrder: dim.Fil}),
		b.a.Penalty(node.Force, false),
	)
	return out
}

func (b *breaker) run(finalPass bool) bool {
	b.cur = totals{}
	b.hang = 0
	b.act = b.act[:0]
	b.recs = b.recs[:0]
	b.finals = b.finals[:0]
	b.finalPass = finalPass

	b.recs = append(b.recs, record{pos: -1, prev: -1})
	b.act = append(b.act, active{hist: 0})

	n := len(b.list)
	for j := 0; j < n; j++ {
		r := b.list[j]
		switch b.a.Kind(r) {
		case node.KindGlue:
			if j > 0 && !b.a.Kind(b.list[j-1]).Discardable() {
				if !b.tryBreak(j, 0) {
					return false
				}
			}
			g := b.a.GlueAt(r)
			b.cur.ext += b.hang + g.Width
			b.hang = 0
			b.cur.st.Add(g.Stretch, g.StretchOrder)
			if g.ShrinkOrder == dim.Normal {
				b.cur.sh += g.Shrink
			}
		case node.KindKern:
			if j+1 < n && b.a.Kind(b.list[j+1]) == node.KindGlue {
				if !b.tryBreak(j, 0) {
					return false
				}
			}
			b.cur.ext += b.hang + b.a.KernAt(r).Width
			b.hang = 0
		case node.KindPenalty:
			pd := b.a.PenaltyAt(r)
			if pd.Cost < node.Forbid {
				if !b.tryBreak(j, pd.Cost) {
					return false
				}
			}
		case node.KindHBox, node.KindVBox:
			b.cur.ext += b.hang + b.a.Height(r)
			b.hang = b.a.Depth(r)
		case node.KindRule:
			rd := b.a.RuleAt(r)
			h, d := rd.Height, rd.Depth
			if h == node.Running {
				h = 0
			}
			if d == node.Running {
				d = 0
			}
			b.cur.ext += b.hang + h
			b.hang = d
		}
	}
	return len(b.finals) > 0
}

// tryBreak scores a page break at list index j against every active
// candidate, keeping the single cheapest as a new record. It returns
// false when the active collection empties without recovery.
func (b *breaker) tryBreak(j, pen int) bool {
	if pen >= node.Forbid {
		return true
	}
	forced := pen <= node.Force
	isFinal := j == len(b.list)-1

	var (
		minD     = awful
		minPrev  int
		minBad   int
		survive  []active
		lastGone active
		anyGone  bool
	)

	for _, a := range b.act {
		ext := b.cur.ext - a.start.ext
		bad, overfull := b.rate(ext, a.start)

		if bad <= b.p.Tolerance {
			d := int64(b.p.PagePenalty + bad)
			d *= d
			switch {
			case pen > 0 && pen < node.Forbid:
				d += int64(pen) * int64(pen)
			case pen > node.Force && pen < 0:
				d -= int64(pen) * int64(pen)
			}
			d += b.recs[a.hist].demerits
			if d < minD {
				minD = d
				minPrev = a.hist
				minBad = bad
			}
		}

		if forced || overfull {
			lastGone = a
			anyGone = true
		} else {
			survive = append(survive, a)
		}
	}

	// Recovery: keep the last leaving candidate at zero demerits so
	// the chain always reaches the end of the document.
	if b.finalPass && minD == awful && len(survive) == 0 && anyGone {
		ext := b.cur.ext - lastGone.start.ext
		bad, _ := b.rate(ext, lastGone.start)
		minD = b.recs[lastGone.hist].demerits
		minPrev = lastGone.hist
		minBad = bad
	}

	b.act = append(b.act[:0], survive...)

	if minD == awful {
		if len(b.act) == 0 && !isFinal {
			return false
		}
		return true
	}

	hist := len(b.recs)
	b.recs = append(b.recs, record{
		pos:      j,
		page:     b.recs[minPrev].page + 1,
		badness:  minBad,
		demerits: minD,
		prev:     minPrev,
	})
	if b.trace != nil {
		b.trace.Debug("feasible page break",
			"pos", j, "page", b.recs[minPrev].page+1, "badness", minBad, "demerits", minD)
	}
	if isFinal {
		b.finals = append(b.finals, hist)
	} else {
		b.act = append(b.act, active{hist: hist, start: b.pageStart(j)})
	}

	if len(b.act) == 0 && !isFinal {
		return false
	}
	return true
}

// rate scores one candidate page of extent ext against the goal.
func (b *breaker) rate(ext dim.Sp, start totals) (int, bool) {
	goal := b.p.PageGoal
	switch {
	case ext < goal:
		short := goal - ext
		var st dim.Springs
		for o := dim.Normal; o <= dim.Filll; o++ {
			st[o] = b.cur.st[o] - start.st[o]
		}
		if st[dim.Fil] != 0 || st[dim.Fill] != 0 || st[dim.Filll] != 0 {
			return 0, false
		}
		return dim.Badness(short, st[dim.Normal]), false

	case ext > goal:
		excess := ext - goal
		shrink := b.cur.sh - start.sh
		if excess > shrink {
			return dim.InfBad + 1, true
		}
		return dim.Badness(excess, shrink), false
	}
	return 0, false
}

// pageStart computes the totals at the start of the page following a
// break at j, skipping the discardables the break removes. A glue or
// kern consumed here also resolves the hanging depth of the box
// above the break, which belongs to the finished page.
func (b *breaker) pageStart(j int) totals {
	start := b.cur
	hang := b.hang
	for k := j; k < len(b.list); k++ {
		r := b.list[k]
		kd := b.a.Kind(r)
		if !kd.Discardable() {
			break
		}
		switch kd {
		case node.KindGlue:
			g := b.a.GlueAt(r)
			start.ext += hang + g.Width
			hang = 0
			start.st.Add(g.Stretch, g.StretchOrder)
			if g.ShrinkOrder == dim.Normal {
				start.sh += g.Shrink
			}
		case node.KindKern:
			start.ext += hang + b.a.KernAt(r).Width
			hang = 0
		}
	}
	start.ext += hang
	return start
}

// materialize rebuilds the chosen pages and packs each to the goal.
func (b *breaker) materialize(final record) Result {
	chain := make([]record, 0, final.page)
	for r := final; r.pos >= 0; r = b.recs[r.prev] {
		chain = append(chain, r)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	res := Result{Demerits: final.demerits, Pages: make([]Page, 0, len(chain))}
	start := 0
	for _, rec := range chain {
		refs := append([]node.Ref(nil), b.list[start:rec.pos]...)

		start = rec.pos
		for start < len(b.list) && b.a.Kind(b.list[start]).Discardable() {
			start++
		}

		box := b.a.VPackTo(refs, b.p.PageGoal)
		res.Pages = append(res.Pages, Page{
			Refs:    refs,
			Box:     box,
			Ratio:   b.a.BoxAt(box).Ratio,
			Badness: rec.badness,
		})
	}
	return res
}
