package node

import "github.com/henry-luo/typeset/dim"

// Measure returns the natural width of a horizontal list together
// with its accumulated stretch and shrink. Discretionaries are
// measured through their no-break lists.
func (a *Arena) Measure(list []Ref) (natural dim.Sp, stretch, shrink dim.Springs) {
	var h, d dim.Sp
	a.measureH(list, &natural, &h, &d, &stretch, &shrink)
	return natural, stretch, shrink
}

func (a *Arena) measureH(list []Ref, w, h, d *dim.Sp, stretch, shrink *dim.Springs) {
	for _, r := range list {
		n := a.at(r)
		switch n.kind {
		case KindChar, KindLig:
			*w += n.width
			*h = max(*h, n.height)
			*d = max(*d, n.depth)
		case KindHBox, KindVBox:
			*w += n.width
			*h = max(*h, n.height)
			*d = max(*d, n.depth)
		case KindRule:
			if n.width != Running {
				*w += n.width
			}
			if n.height != Running {
				*h = max(*h, n.height)
			}
			if n.depth != Running {
				*d = max(*d, n.depth)
			}
		case KindKern:
			*w += n.width
		case KindGlue:
			*w += n.glue.Width
			stretch.Add(n.glue.Stretch, n.glue.StretchOrder)
			shrink.Add(n.glue.Shrink, n.glue.ShrinkOrder)
		case KindDisc:
			a.measureH(n.kids, w, h, d, stretch, shrink)
		case KindPenalty:
			// no extent
		}
	}
}

// HPack packs a horizontal list into an hbox at its natural width.
func (a *Arena) HPack(list []Ref) Ref {
	var w, h, d dim.Sp
	var stretch, shrink dim.Springs
	a.measureH(list, &w, &h, &d, &stretch, &shrink)
	return a.alloc(nodeData{kind: KindHBox, width: w, height: h, depth: d, kids: list})
}

// HPackTo packs a horizontal list into an hbox of exactly the target
// width, computing the glue-set ratio that absorbs the difference.
// The ratio is stored on the box; child glue keeps its natural
// specification. Shrinking at finite order is clamped at the total
// available shrink, so an overfull box reports ratio 1.
func (a *Arena) HPackTo(list []Ref, target dim.Sp) Ref {
	var w, h, d dim.Sp
	var stretch, shrink dim.Springs
	a.measureH(list, &w, &h, &d, &stretch, &shrink)
	n := nodeData{kind: KindHBox, width: target, height: h, depth: d, kids: list}
	n.ratio, n.sign, n.order = glueSet(target-w, stretch, shrink)
	return a.alloc(n)
}

// HPackSpread packs a horizontal list into an hbox spread wider (or
// narrower, when negative) than its natural width by the given
// amount.
func (a *Arena) HPackSpread(list []Ref, spread dim.Sp) Ref {
	var w, h, d dim.Sp
	var stretch, shrink dim.Springs
	a.measureH(list, &w, &h, &d, &stretch, &shrink)
	n := nodeData{kind: KindHBox, width: w + spread, height: h, depth: d, kids: list}
	n.ratio, n.sign, n.order = glueSet(spread, stretch, shrink)
	return a.alloc(n)
}

// MeasureV returns the natural height and depth of a vertical list
// with its accumulated stretch and shrink. The depth is the depth of
// the last box or rule; material after it is part of the height.
func (a *Arena) MeasureV(list []Ref) (height, depth dim.Sp, stretch, shrink dim.Springs) {
	for _, r := range list {
		n := a.at(r)
		switch n.kind {
		case KindHBox, KindVBox:
			height += depth + n.height
			depth = n.depth
		case KindRule:
			rh, rd := n.height, n.depth
			if rh == Running {
				rh = 0
			}
			if rd == Running {
				rd = 0
			}
			height += depth + rh
			depth = rd
		case KindKern:
			height += depth + n.width
			depth = 0
		case KindGlue:
			height += depth + n.glue.Width
			depth = 0
			stretch.Add(n.glue.Stretch, n.glue.StretchOrder)
			shrink.Add(n.glue.Shrink, n.glue.ShrinkOrder)
		case KindPenalty:
			// no extent
		}
	}
	return height, depth, stretch, shrink
}

// VPack packs a vertical list into a vbox at its natural height. The
// box width is the widest child; its depth is the last child's depth.
func (a *Arena) VPack(list []Ref) Ref {
	h, d, _, _ := a.MeasureV(list)
	return a.alloc(nodeData{kind: KindVBox, width: a.maxChildWidth(list), height: h, depth: d, kids: list})
}

// VPackTo packs a vertical list into a vbox of exactly the target
// height, storing the glue set like HPackTo.
func (a *Arena) VPackTo(list []Ref, target dim.Sp) Ref {
	h, d, stretch, shrink := a.MeasureV(list)
	n := nodeData{
		kind: KindVBox, width: a.maxChildWidth(list),
		height: target, depth: d, kids: list,
	}
	n.ratio, n.sign, n.order = glueSet(target-h, stretch, shrink)
	return a.alloc(n)
}

// VPackSpread packs a vertical list into a vbox spread taller than
// its natural height by the given amount.
func (a *Arena) VPackSpread(list []Ref, spread dim.Sp) Ref {
	h, d, stretch, shrink := a.MeasureV(list)
	n := nodeData{
		kind: KindVBox, width: a.maxChildWidth(list),
		height: h + spread, depth: d, kids: list,
	}
	n.ratio, n.sign, n.order = glueSet(spread, stretch, shrink)
	return a.alloc(n)
}

func (a *Arena) maxChildWidth(list []Ref) dim.Sp {
	var w dim.Sp
	for _, r := range list {
		n := a.at(r)
		switch n.kind {
		case KindHBox, KindVBox:
			w = max(w, n.width)
		case KindRule:
			if n.width != Running {
				w = max(w, n.width)
			}
		}
	}
	return w
}

// glueSet computes the ratio, sign and order absorbing excess x with
// the given flexibility.
func glueSet(x dim.Sp, stretch, shrink dim.Springs) (float64, GlueSign, dim.Order) {
	switch {
	case x > 0:
		o, total := stretch.Dominant()
		if total == 0 {
			return 0, SignNone, dim.Normal
		}
		return float64(x) / float64(total), SignStretch, o
	case x < 0:
		o, total := shrink.Dominant()
		if total == 0 {
			return 0, SignNone, dim.Normal
		}
		ratio := float64(-x) / float64(total)
		if o == dim.Normal && ratio > 1 {
			ratio = 1
		}
		return ratio, SignShrink, o
	}
	return 0, SignNone, dim.Normal
}
