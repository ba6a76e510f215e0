// Package dim provides the dimension arithmetic used throughout the
// typesetting engine: scaled points, unit conversion, glue flexibility
// orders, and the badness function.
//
// All layout arithmetic is integer arithmetic on scaled points so that
// identical inputs produce identical output on every platform. Floating
// point appears only at API boundaries (unit parsing, display) and in
// the glue-set ratio stored on packed boxes.
package dim

import (
	"fmt"
	"strings"

	"golang.org/x/image/math/fixed"
)

// Sp is a dimension in scaled points: 1 pt = 65536 sp.
//
// The usable range is |d| < 2^30 sp (about 16384 pt, 5.75 m), matching
// the classic engine limits. Arithmetic on in-range document dimensions
// does not overflow int32; intermediate products use int64.
type Sp int32

// Common dimension constants.
const (
	// Point is 1 pt in scaled points.
	Point Sp = 1 << 16

	// MaxDim is the largest legal dimension, 16383.99998 pt.
	MaxDim Sp = 1<<30 - 1
)

// FromPoints converts a float value in printer's points to scaled points,
// truncating toward zero like a fixed-point cast.
func FromPoints(pt float64) Sp {
	return Sp(pt * float64(Point))
}

// Points returns the dimension in printer's points.
func (d Sp) Points() float64 {
	return float64(d) / float64(Point)
}

// FromInt26_6 converts a 26.6 fixed-point value, interpreted in points,
// to scaled points. Exact: 1/64 pt is a multiple of 1/65536 pt.
func FromInt26_6(v fixed.Int26_6) Sp {
	return Sp(v) << 10
}

// Int26_6 returns the dimension as 26.6 fixed point in points,
// rounding to the nearest representable value.
func (d Sp) Int26_6() fixed.Int26_6 {
	return fixed.Int26_6((d + 1<<9) >> 10)
}

// Scale multiplies the dimension by a float ratio, rounding to the
// nearest scaled point with ties away from zero. Used when applying a
// box's glue-set ratio at shipout.
func Scale(d Sp, r float64) Sp {
	f := r * float64(d)
	if f < 0 {
		return Sp(f - 0.5)
	}
	return Sp(f + 0.5)
}

// XnOverD computes x*n/d with a 64-bit intermediate, returning the
// quotient and the remainder scaled back to the caller's units. It is
// the exact integer unit-conversion primitive: n and d must be positive
// and small enough that x*n fits in 64 bits, which holds for every
// ratio in the unit table.
func XnOverD(x Sp, n, d int32) (q Sp, rem int32) {
	neg := x < 0
	xx := int64(x)
	if neg {
		xx = -xx
	}
	t := xx * int64(n)
	q = Sp(t / int64(d))
	rem = int32(t % int64(d))
	if neg {
		q = -q
		rem = -rem
	}
	return q, rem
}

// unitRatio is an exact conversion ratio: 1 unit = n/d pt.
type unitRatio struct {
	n, d int32
}

// Conversion table for the classic unit family.
var units = map[string]unitRatio{
	"pt": {1, 1},
	"pc": {12, 1},
	"in": {7227, 100},
	"bp": {7227, 7200},
	"cm": {7227, 254},
	"mm": {7227, 2540},
	"dd": {1238, 1157},
	"cc": {14856, 1157},
}

// ParseDim parses a dimension literal such as "10pt", "-3.5mm" or
// "1.5in". The accepted units are pt, pc, in, bp, cm, mm, dd, cc and
// sp. Conversion follows the exact integer scheme of the classic
// engine, so parsing is deterministic to the last scaled point.
func ParseDim(s string) (Sp, error) {
	orig := s
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	intPart := int64(0)
	for _, c := range s[:i] {
		intPart = intPart*10 + int64(c-'0')
		if intPart > int64(MaxDim) {
			return 0, fmt.Errorf("dim: dimension too large in %q", orig)
		}
	}

	var digits []int32
	rest := s[i:]
	if strings.HasPrefix(rest, ".") {
		rest = rest[1:]
		for len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
			if len(digits) < 17 {
				digits = append(digits, int32(rest[0]-'0'))
			}
			rest = rest[1:]
		}
	}
	frac := roundDecimals(digits)

	unit := strings.TrimSpace(rest)
	if unit == "" {
		return 0, fmt.Errorf("dim: missing unit in %q", orig)
	}
	if i == 0 && digits == nil {
		return 0, fmt.Errorf("dim: missing number in %q", orig)
	}

	var v Sp
	switch unit {
	case "sp":
		v = Sp(intPart)
		if frac >= 1<<15 {
			v++
		}
	default:
		r, ok := units[unit]
		if !ok {
			return 0, fmt.Errorf("dim: unknown unit %q in %q", unit, orig)
		}
		whole := Sp(intPart)
		if r.n != 1 || r.d != 1 {
			var rem int32
			whole, rem = XnOverD(whole, r.n, r.d)
			frac = (int32(r.n)*frac + (rem << 16)) / r.d
			whole += Sp(frac >> 16)
			frac &= 0xFFFF
		}
		if whole >= 1<<14 {
			return 0, fmt.Errorf("dim: dimension too large in %q", orig)
		}
		v = whole<<16 + Sp(frac)
	}
	if v > MaxDim {
		return 0, fmt.Errorf("dim: dimension too large in %q", orig)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// roundDecimals converts up to 17 decimal digits into a scaled
// fraction of one point, rounded to the nearest multiple of 2^-16.
func roundDecimals(digits []int32) int32 {
	a := int32(0)
	for k := len(digits) - 1; k >= 0; k-- {
		a = (a + digits[k]<<17) / 10
	}
	return (a + 1) / 2
}

// String formats the dimension in points with the shortest decimal
// fraction that rounds back to the same scaled value, for example
// "12.0pt" or "-0.00002pt".
func (d Sp) String() string {
	var b strings.Builder
	s := int64(d)
	if s < 0 {
		b.WriteByte('-')
		s = -s
	}
	fmt.Fprintf(&b, "%d.", s>>16)
	s = 10*(s&0xFFFF) + 5
	delta := int64(10)
	for {
		if delta > 1<<16 {
			s += 1<<15 - delta/2
		}
		b.WriteByte(byte('0' + s>>16))
		s = 10 * (s & 0xFFFF)
		delta *= 10
		if s <= delta {
			break
		}
	}
	b.WriteString("pt")
	return b.String()
}
