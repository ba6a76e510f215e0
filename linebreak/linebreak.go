// Package linebreak turns paragraph material into lines using the
// optimal-fit method: every legal breakpoint is scored against every
// reachable predecessor, and the sequence with the fewest total
// demerits wins.
//
// The algorithm keeps an explicit collection of active candidates,
// one per surviving (breakpoint, fitness) pair. Candidates leave the
// collection when no future line starting at them can still reach
// the target width. If that ever empties the collection with
// material remaining, the paragraph is rebroken in a recovery pass
// that keeps the last candidate alive with artificial demerits, so
// breaking always succeeds.
package linebreak

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/node"
)

// ErrInvalidParameters reports unusable breaking parameters.
var ErrInvalidParameters = errors.New("linebreak: invalid parameters")

// Fitness classifies how tightly a line was set. Lines of classes
// more than one step apart are visually jarring neighbors and pay
// AdjacentDemerits.
type Fitness uint8

const (
	FitTight Fitness = iota
	FitDecent
	FitLoose
	FitVeryLoose
)

// String returns the class name used in traces.
func (f Fitness) String() string {
	switch f {
	case FitTight:
		return "tight"
	case FitDecent:
		return "decent"
	case FitLoose:
		return "loose"
	case FitVeryLoose:
		return "very_loose"
	}
	return fmt.Sprintf("Fitness(%d)", uint8(f))
}

// Compatible reports whether two classes may neighbor without
// penalty.
func (f Fitness) Compatible(g Fitness) bool {
	d := int(f) - int(g)
	return d >= -1 && d <= 1
}

// Parameters control one breaking run. All fields are explicit;
// there are no hidden defaults.
type Parameters struct {
	// LineWidth is the target width of every line.
	LineWidth dim.Sp

	// Widths, when non-empty, gives each line its own target width:
	// entry i applies to line i+1 and the last entry repeats for
	// every later line, so a paragraph shape needs only as many
	// entries as it has distinct widths. LineWidth is ignored while
	// Widths is set.
	Widths []dim.Sp

	// Tolerance is the largest badness a line may have outside the
	// recovery pass.
	Tolerance int

	// Looseness asks for that many lines more (or fewer, when
	// negative) than the optimal solution, when achievable.
	Looseness int

	// LinePenalty is added to every line's badness before squaring.
	LinePenalty int

	// HyphenPenalty is the cost of breaking at a discretionary with
	// visible pre-break text; ExHyphenPenalty of one without.
	HyphenPenalty   int
	ExHyphenPenalty int

	// DoubleHyphenPenalty is squared into the demerits when two
	// consecutive lines end at flagged breaks.
	DoubleHyphenPenalty int

	// AdjacentDemerits is charged when neighboring lines differ by
	// more than one fitness class.
	AdjacentDemerits int

	// FinalHyphenDemerits is charged when the second-to-last line
	// ends at a flagged break.
	FinalHyphenDemerits int

	// Trace receives per-candidate decision records at Debug level.
	// Nil disables tracing.
	Trace *slog.Logger
}

func (p Parameters) validate() error {
	if len(p.Widths) > 0 {
		for _, w := range p.Widths {
			if w <= 0 {
				return fmt.Errorf("%w: line width %v", ErrInvalidParameters, w)
			}
		}
	} else if p.LineWidth <= 0 {
		return fmt.Errorf("%w: line width %v", ErrInvalidParameters, p.LineWidth)
	}
	if p.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %d", ErrInvalidParameters, p.Tolerance)
	}
	return nil
}

// width returns the target width of the 1-based line number.
func (p Parameters) width(line int) dim.Sp {
	if len(p.Widths) == 0 {
		return p.LineWidth
	}
	if line > len(p.Widths) {
		line = len(p.Widths)
	}
	return p.Widths[line-1]
}

// Line is one line of the chosen solution.
type Line struct {
	// Refs is the line's material with discretionaries resolved and
	// leading discardables of the following break stripped.
	Refs []node.Ref

	// Box is Refs packed to the target width; its glue-set ratio
	// holds the line's adjustment.
	Box node.Ref

	// Ratio is the box's glue-set ratio, kept for inspection.
	Ratio float64

	// Badness and Fitness describe the line as the breaker saw it.
	Badness int
	Fitness Fitness
}

// Result is a broken paragraph.
type Result struct {
	Lines    []Line
	Demerits int64
}

// awful exceeds any real demerits total and survives addition.
const awful = int64(1) << 62

// totals accumulates list contributions from the paragraph start:
// natural width, stretch by order, and normal-order shrink. Shrink
// at infinite orders has no meaning on a line and is ignored.
type totals struct {
	w  dim.Sp
	st dim.Springs
	sh dim.Sp
}

// record is one feasible breakpoint, kept for path reconstruction.
// Records are append-only; prev indexes the predecessor record.
type record struct {
	pos      int
	line     int
	fitness  Fitness
	flagged  bool
	badness  int
	demerits int64
	prev     int
}

// active couples a breakpoint record with the running totals at the
// start of the line following it.
type active struct {
	hist  int
	start totals
}

type breakKind uint8

const (
	breakGlue breakKind = iota
	breakKern
	breakPenalty
	breakDisc
)

type breaker struct {
	a     *node.Arena
	list  []node.Ref
	p     Parameters
	trace *slog.Logger

	cur       totals
	act       []active
	recs      []record
	finals    []int
	finalPass bool
	warned    bool
}

// Break divides the horizontal list into lines, each packed to its
// target width: p.LineWidth throughout, unless p.Widths spells out a
// per-line shape. The list is normalized first: trailing glue is
// dropped and the
// paragraph is finished with infinitely stretchable fill glue and a
// forced break, unless the caller already ends it with one. The
// arena is shared with the caller; line boxes are allocated in it.
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
		if !b.warned {
			b.warned = true
			log := b.trace
			if log == nil {
				log = Logger()
			}
			log.Warn("no feasible line breaks within tolerance, rebreaking with artificial demerits")
		}
		if !b.run(true) {
			panic("linebreak: recovery pass found no solution")
		}
	}

	best := b.chooseFinal()
	return b.materialize(best), nil
}

// normalize prepares the paragraph tail. A final forced penalty is
// respected as-is; otherwise trailing glue is removed and the
// standard finish (unbreakable point, fill glue, forced break) is
// appended.
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

// run scans the list once, growing the record history. It reports
// whether at least one solution reached the final break.
func (b *breaker) run(finalPass bool) bool {
	b.cur = totals{}
	b.act = b.act[:0]
	b.recs = b.recs[:0]
	b.finals = b.finals[:0]
	b.finalPass = finalPass

	b.recs = append(b.recs, record{pos: -1, line: 0, fitness: FitDecent, prev: -1})
	b.act = append(b.act, active{hist: 0})

	n := len(b.list)
	for j := 0; j < n; j++ {
		r := b.list[j]
		switch b.a.Kind(r) {
		case node.KindGlue:
			if j > 0 && !b.a.Kind(b.list[j-1]).Discardable() {
				if !b.tryBreak(j, 0, false, breakGlue) {
					return false
				}
			}
			g := b.a.GlueAt(r)
			b.cur.w += g.Width
			b.cur.st.Add(g.Stretch, g.StretchOrder)
			if g.ShrinkOrder == dim.Normal {
				b.cur.sh += g.Shrink
			}
		case node.KindKern:
			if j+1 < n && b.a.Kind(b.list[j+1]) == node.KindGlue {
				if !b.tryBreak(j, 0, false, breakKern) {
					return false
				}
			}
			b.cur.w += b.a.KernAt(r).Width
		case node.KindPenalty:
			pd := b.a.PenaltyAt(r)
			if pd.Cost < node.Forbid {
				if !b.tryBreak(j, pd.Cost, pd.Flagged, breakPenalty) {
					return false
				}
			}
		case node.KindDisc:
			dd := b.a.DiscAt(r)
			pen := b.p.HyphenPenalty
			if len(dd.Pre) == 0 {
				pen = b.p.ExHyphenPenalty
			}
			if !b.tryBreak(j, pen, true, breakDisc) {
				return false
			}
			b.cur.w += b.listWidth(dd.NoBreak)
		default:
			b.cur.w += b.widthOf(r)
		}
	}
	return len(b.finals) > 0
}

// slot holds the best candidate found for one (line, fitness) pair
// while scoring a breakpoint.
type slot struct {
	demerits int64
	prev     int
	badness  int
	ok       bool
}

// lineGroup collects candidate slots per resulting line count. With
// Looseness zero all line counts collapse into one group, since they
// compete on demerits alone; a nonzero Looseness must keep every
// achievable line count alive for the final choice.
type lineGroup struct {
	line  int
	min   int64
	slots [4]slot
}

// tryBreak scores a break at list index j against every active
// candidate, creating at most one new record per line group and
// fitness class. It returns false when the active collection empties
// without recovery.
func (b *breaker) tryBreak(j, pen int, flagged bool, kind breakKind) bool {
	if pen >= node.Forbid {
		return true
	}
	forced := pen <= node.Force
	isFinal := j == len(b.list)-1

	var preW dim.Sp
	if kind == breakDisc {
		preW = b.listWidth(b.a.DiscAt(b.list[j]).Pre)
	}

	var (
		minTotal = awful
		groups   []lineGroup
		survive  []active
		lastGone active
		anyGone  bool
	)
	group := func(line int) *lineGroup {
		if b.p.Looseness == 0 {
			line = 0
		}
		for i := range groups {
			if groups[i].line == line {
				return &groups[i]
			}
		}
		groups = append(groups, lineGroup{line: line, min: awful})
		return &groups[len(groups)-1]
	}
	place := func(a active, d int64, bad int, fit Fitness) {
		g := group(b.recs[a.hist].line + 1)
		s := &g.slots[fit]
		if !s.ok || d < s.demerits {
			*s = slot{demerits: d, prev: a.hist, badness: bad, ok: true}
		}
		if d < g.min {
			g.min = d
		}
		if d < minTotal {
			minTotal = d
		}
	}

	for _, a := range b.act {
		rec := b.recs[a.hist]
		lw := b.cur.w - a.start.w + preW
		bad, fit, overfull := b.rate(lw, b.p.width(rec.line+1), a.start)

		if bad <= b.p.Tolerance {
			d := int64(b.p.LinePenalty + bad)
			d *= d
			switch {
			case pen > 0 && pen < node.Forbid:
				d += int64(pen) * int64(pen)
			case pen > node.Force && pen < 0:
				d -= int64(pen) * int64(pen)
			}
			switch {
			case isFinal && rec.flagged:
				d += int64(b.p.FinalHyphenDemerits)
			case flagged && rec.flagged:
				d += int64(b.p.DoubleHyphenPenalty) * int64(b.p.DoubleHyphenPenalty)
			}
			if !fit.Compatible(rec.fitness) {
				d += int64(b.p.AdjacentDemerits)
			}
			place(a, d+rec.demerits, bad, fit)
		}

		if forced || overfull {
			lastGone = a
			anyGone = true
		} else {
			survive = append(survive, a)
		}
	}

	// Recovery: the collection is about to empty with nothing
	// recorded. Keep the last leaving candidate at zero demerits.
	if b.finalPass && minTotal == awful && len(survive) == 0 && anyGone {
		lw := b.cur.w - lastGone.start.w + preW
		bad, fit, _ := b.rate(lw, b.p.width(b.recs[lastGone.hist].line+1), lastGone.start)
		place(lastGone, b.recs[lastGone.hist].demerits, bad, fit)
	}

	b.act = append(b.act[:0], survive...)

	if minTotal == awful {
		if len(b.act) == 0 && !isFinal {
			return false
		}
		return true
	}

	var start totals
	if !isFinal {
		start = b.lineStart(j, kind)
	}
	for gi := range groups {
		g := &groups[gi]
		keep := g.min + abs64(int64(b.p.AdjacentDemerits))
		for c := FitTight; c <= FitVeryLoose; c++ {
			s := g.slots[c]
			if !s.ok || s.demerits > keep {
				continue
			}
			hist := len(b.recs)
			b.recs = append(b.recs, record{
				pos:      j,
				line:     b.recs[s.prev].line + 1,
				fitness:  c,
				flagged:  flagged,
				badness:  s.badness,
				demerits: s.demerits,
				prev:     s.prev,
			})
			if b.trace != nil {
				b.trace.Debug("feasible break",
					"pos", j, "line", b.recs[s.prev].line+1, "class", c.String(),
					"badness", s.badness, "demerits", s.demerits, "flagged", flagged)
			}
			if isFinal {
				b.finals = append(b.finals, hist)
			} else {
				b.act = append(b.act, active{hist: hist, start: start})
			}
		}
	}

	if len(b.act) == 0 && !isFinal {
		return false
	}
	return true
}

// rate scores one candidate line of natural width lw against its
// target width, returning its badness, fitness class, and whether it
// is overfull beyond the available shrink.
func (b *breaker) rate(lw, target dim.Sp, start totals) (int, Fitness, bool) {
	switch {
	case lw < target:
		short := target - lw
		var st dim.Springs
		for o := dim.Normal; o <= dim.Filll; o++ {
			st[o] = b.cur.st[o] - start.st[o]
		}
		if st[dim.Fil] != 0 || st[dim.Fill] != 0 || st[dim.Filll] != 0 {
			return 0, FitDecent, false
		}
		bad := dim.Badness(short, st[dim.Normal])
		switch {
		case bad > 99:
			return bad, FitVeryLoose, false
		case bad > 12:
			return bad, FitLoose, false
		}
		return bad, FitDecent, false

	case lw > target:
		excess := lw - target
		shrink := b.cur.sh - start.sh
		if excess > shrink {
			return dim.InfBad + 1, FitTight, true
		}
		bad := dim.Badness(excess, shrink)
		if bad > 12 {
			return bad, FitTight, false
		}
		return bad, FitDecent, false
	}
	return 0, FitDecent, false
}

// lineStart computes the totals at the start of the line following a
// break at j: discardables after the break are skipped, and a
// discretionary contributes its post-break text instead of its
// no-break text.
func (b *breaker) lineStart(j int, kind breakKind) totals {
	if kind == breakDisc {
		dd := b.a.DiscAt(b.list[j])
		start := b.cur
		start.w += b.listWidth(dd.NoBreak) - b.listWidth(dd.Post)
		return start
	}

	start := b.cur
	for k := j; k < len(b.list); k++ {
		r := b.list[k]
		kd := b.a.Kind(r)
		if !kd.Discardable() {
			break
		}
		switch kd {
		case node.KindGlue:
			g := b.a.GlueAt(r)
			start.w += g.Width
			start.st.Add(g.Stretch, g.StretchOrder)
			if g.ShrinkOrder == dim.Normal {
				start.sh += g.Shrink
			}
		case node.KindKern:
			start.w += b.a.KernAt(r).Width
		}
	}
	return start
}

// chooseFinal picks the solution record, honoring Looseness: the
// line count closest to the optimum plus Looseness wins, demerits
// break ties, then earlier creation order.
func (b *breaker) chooseFinal() record {
	best := b.recs[b.finals[0]]
	for _, h := range b.finals[1:] {
		if r := b.recs[h]; r.demerits < best.demerits {
			best = r
		}
	}
	if b.p.Looseness == 0 {
		return best
	}

	target := best.line + b.p.Looseness
	chosen := best
	bestDiff := abs(chosen.line - target)
	for _, h := range b.finals {
		r := b.recs[h]
		diff := abs(r.line - target)
		if diff < bestDiff || (diff == bestDiff && r.demerits < chosen.demerits) {
			chosen = r
			bestDiff = diff
		}
	}
	return chosen
}

// materialize rebuilds the chosen lines: discretionaries resolve to
// their break or no-break text, discardables at line starts vanish,
// and each line is packed to the target width.
func (b *breaker) materialize(final record) Result {
	chain := make([]record, 0, final.line)
	for r := final; r.pos >= 0; r = b.recs[r.prev] {
		chain = append(chain, r)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	res := Result{Demerits: final.demerits, Lines: make([]Line, 0, len(chain))}
	start := 0
	var carry []node.Ref
	for _, rec := range chain {
		refs := append([]node.Ref(nil), carry...)
		for k := start; k < rec.pos; k++ {
			r := b.list[k]
			if b.a.Kind(r) == node.KindDisc {
				refs = append(refs, b.a.DiscAt(r).NoBreak...)
			} else {
				refs = append(refs, r)
			}
		}

		breakNode := b.list[rec.pos]
		if b.a.Kind(breakNode) == node.KindDisc {
			dd := b.a.DiscAt(breakNode)
			refs = append(refs, dd.Pre...)
			carry = append([]node.Ref(nil), dd.Post...)
			start = rec.pos + 1
		} else {
			carry = nil
			start = rec.pos
			for start < len(b.list) && b.a.Kind(b.list[start]).Discardable() {
				start++
			}
		}

		box := b.a.HPackTo(refs, b.p.width(rec.line))
		res.Lines = append(res.Lines, Line{
			Refs:    refs,
			Box:     box,
			Ratio:   b.a.BoxAt(box).Ratio,
			Badness: rec.badness,
			Fitness: rec.fitness,
		})
	}
	return res
}

// widthOf returns the width a node contributes to the running total,
// treating running rule dimensions as zero.
func (b *breaker) widthOf(r node.Ref) dim.Sp {
	if b.a.Kind(r) == node.KindRule {
		if w := b.a.RuleAt(r).Width; w != node.Running {
			return w
		}
		return 0
	}
	return b.a.Width(r)
}

func (b *breaker) listWidth(list []node.Ref) dim.Sp {
	var w dim.Sp
	for _, r := range list {
		w += b.widthOf(r)
	}
	return w
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
