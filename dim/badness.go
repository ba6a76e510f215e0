package dim

// InfBad is the badness of an unreachable layout. Badness values are
// capped here, and a penalty of +InfBad forbids a break while -InfBad
// forces one.
const InfBad = 10000

// Badness approximates 100*(t/s)^3 in pure integer arithmetic,
// rounded and capped at InfBad. t is the excess to absorb and s the
// available flexibility; t <= 0 is free (badness 0) and s <= 0 with
// positive t is unreachable (badness InfBad).
//
// The computation multiplies by 297 (cube root of 100*2^18, nearly)
// and cubes the ratio in 2^18 fixed point, matching the classic
// engine bit for bit so that break decisions are reproducible.
func Badness(t, s Sp) int {
	if t <= 0 {
		return 0
	}
	if s <= 0 {
		return InfBad
	}
	var r int32
	switch {
	case t <= 7230584:
		r = int32(t) * 297 / int32(s)
	case s >= 1663497:
		r = int32(t) / (int32(s) / 297)
	default:
		r = int32(t)
	}
	if r > 1290 {
		return InfBad
	}
	return int((int64(r)*int64(r)*int64(r) + 1<<17) >> 18)
}
