package dim

import (
	"testing"

	"golang.org/x/image/math/fixed"
)

// TestParseDim tests exact integer unit conversion.
func TestParseDim(t *testing.T) {
	tests := []struct {
		in   string
		want Sp
	}{
		{"1pt", 65536},
		{"-3pt", -196608},
		{"0.5pt", 32768},
		{"72.27pt", 4736287},
		{"1in", 4736286},
		{"1bp", 65781},
		{"1cm", 1864679},
		{"2.5cm", 4661699},
		{"12pc", 9437184},
		{"100sp", 100},
		{"+2pt", 131072},
		{".5pt", 32768},
		{"0.00002pt", 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDim(tt.in)
			if err != nil {
				t.Fatalf("ParseDim(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDim(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

// TestParseDimErrors tests rejection of malformed dimension literals.
func TestParseDimErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing unit", "12"},
		{"missing number", "pt"},
		{"unknown unit", "3vw"},
		{"too large", "20000pt"},
		{"too large in", "300in"},
		{"empty", ""},
		{"dot only", ".pt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseDim(tt.in); err == nil {
				t.Errorf("ParseDim(%q) = %d, want error", tt.in, got)
			}
		})
	}
}

// TestSpString tests shortest-round-trip decimal printing.
func TestSpString(t *testing.T) {
	tests := []struct {
		d    Sp
		want string
	}{
		{0, "0.0pt"},
		{65536, "1.0pt"},
		{-65536, "-1.0pt"},
		{32768, "0.5pt"},
		{17695, "0.27pt"},
		{1, "0.00002pt"},
		{4736286, "72.26999pt"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.d.String(); got != tt.want {
				t.Errorf("Sp(%d).String() = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

// TestXnOverD tests the scaled multiply-divide primitive.
func TestXnOverD(t *testing.T) {
	tests := []struct {
		x       Sp
		n, d    int32
		wantQ   Sp
		wantRem int32
	}{
		{65536, 7227, 100, 4736286, 72},
		{1, 7227, 100, 72, 27},
		{-1, 7227, 100, -72, -27},
		{0, 12, 1, 0, 0},
	}

	for _, tt := range tests {
		q, rem := XnOverD(tt.x, tt.n, tt.d)
		if q != tt.wantQ || rem != tt.wantRem {
			t.Errorf("XnOverD(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.x, tt.n, tt.d, q, rem, tt.wantQ, tt.wantRem)
		}
	}
}

// TestInt26_6RoundTrip tests the fixed-point bridge.
func TestInt26_6RoundTrip(t *testing.T) {
	tests := []struct {
		v    fixed.Int26_6
		want Sp
	}{
		{64, 65536},
		{32, 32768},
		{-64, -65536},
		{1, 1024},
	}

	for _, tt := range tests {
		got := FromInt26_6(tt.v)
		if got != tt.want {
			t.Errorf("FromInt26_6(%d) = %d, want %d", tt.v, got, tt.want)
		}
		if back := got.Int26_6(); back != tt.v {
			t.Errorf("Sp(%d).Int26_6() = %d, want %d", got, back, tt.v)
		}
	}
}

// TestScale tests glue-ratio application rounding.
func TestScale(t *testing.T) {
	tests := []struct {
		d    Sp
		r    float64
		want Sp
	}{
		{65536, 0.5, 32768},
		{65536, 0, 0},
		{3, 0.5, 2},
		{-3, 0.5, -2},
		{65536, 1.25, 81920},
	}

	for _, tt := range tests {
		if got := Scale(tt.d, tt.r); got != tt.want {
			t.Errorf("Scale(%d, %g) = %d, want %d", tt.d, tt.r, got, tt.want)
		}
	}
}

// TestPointsRoundTrip tests the float bridges used at API boundaries.
func TestPointsRoundTrip(t *testing.T) {
	for _, pt := range []float64{0, 1, 10, -2.5, 0.25} {
		d := FromPoints(pt)
		if got := d.Points(); got != pt {
			t.Errorf("FromPoints(%g).Points() = %g, want %g", pt, got, pt)
		}
	}
}

func BenchmarkParseDim(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := ParseDim("12.5pt"); err != nil {
			b.Fatal(err)
		}
	}
}
