package dim

import "fmt"

// Order is a glue flexibility order. Normal glue stretches and shrinks
// by finite amounts; the three infinite orders dominate any finite
// flexibility, and each order dominates the ones below it.
type Order uint8

const (
	Normal Order = iota
	Fil
	Fill
	Filll
)

// String returns the suffix form used when printing glue: "" for
// finite flexibility, "fil", "fill" or "filll" for the infinite orders.
func (o Order) String() string {
	switch o {
	case Normal:
		return ""
	case Fil:
		return "fil"
	case Fill:
		return "fill"
	case Filll:
		return "filll"
	}
	return fmt.Sprintf("Order(%d)", uint8(o))
}

// Glue is a glue specification: a natural width plus stretch and
// shrink components, each with its own order. Glue specifications are
// immutable once attached to a node; setting happens on the enclosing
// box, never on the glue itself.
type Glue struct {
	Width        Sp
	Stretch      Sp
	StretchOrder Order
	Shrink       Sp
	ShrinkOrder  Order
}

// FixedGlue returns rigid glue of the given width.
func FixedGlue(w Sp) Glue {
	return Glue{Width: w}
}

// String prints the specification in the conventional
// "width plus stretch minus shrink" form, omitting zero components.
func (g Glue) String() string {
	s := g.Width.String()
	if g.Stretch != 0 {
		if g.StretchOrder == Normal {
			s += " plus " + g.Stretch.String()
		} else {
			s += fmt.Sprintf(" plus %g%s", g.Stretch.Points(), g.StretchOrder)
		}
	}
	if g.Shrink != 0 {
		if g.ShrinkOrder == Normal {
			s += " minus " + g.Shrink.String()
		} else {
			s += fmt.Sprintf(" minus %g%s", g.Shrink.Points(), g.ShrinkOrder)
		}
	}
	return s
}

// Springs accumulates flexibility per order. Index by Order; the
// dominant order is the highest one with a nonzero total.
type Springs [4]Sp

// Add accumulates an amount at the given order.
func (s *Springs) Add(amount Sp, o Order) {
	s[o] += amount
}

// Sub removes an amount at the given order. Running totals in the
// breakers go backwards when a candidate interval is re-anchored.
func (s *Springs) Sub(amount Sp, o Order) {
	s[o] -= amount
}

// Dominant returns the highest order with nonzero flexibility and its
// total. All-zero springs report (Normal, 0).
func (s Springs) Dominant() (Order, Sp) {
	for o := Filll; o > Normal; o-- {
		if s[o] != 0 {
			return o, s[o]
		}
	}
	return Normal, s[Normal]
}

// Infinite reports whether any flexibility beyond Normal is present.
func (s Springs) Infinite() bool {
	return s[Fil] != 0 || s[Fill] != 0 || s[Filll] != 0
}
