package dim

import "testing"

// TestOrderString tests the printed suffix forms.
func TestOrderString(t *testing.T) {
	tests := []struct {
		o    Order
		want string
	}{
		{Normal, ""},
		{Fil, "fil"},
		{Fill, "fill"},
		{Filll, "filll"},
	}

	for _, tt := range tests {
		if got := tt.o.String(); got != tt.want {
			t.Errorf("Order(%d).String() = %q, want %q", tt.o, got, tt.want)
		}
	}
}

// TestGlueString tests conventional glue printing.
func TestGlueString(t *testing.T) {
	tests := []struct {
		name string
		g    Glue
		want string
	}{
		{"rigid", FixedGlue(2 * Point), "2.0pt"},
		{
			"interword",
			Glue{Width: 3 * Point, Stretch: Point + Point/2, StretchOrder: Normal, Shrink: Point, ShrinkOrder: Normal},
			"3.0pt plus 1.5pt minus 1.0pt",
		},
		{
			"infinite stretch",
			Glue{Stretch: Point, StretchOrder: Fil},
			"0.0pt plus 1fil",
		},
		{
			"second order",
			Glue{Width: Point, Stretch: 2 * Point, StretchOrder: Fill},
			"1.0pt plus 2fill",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.String(); got != tt.want {
				t.Errorf("Glue.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestSpringsDominant tests highest-order selection.
func TestSpringsDominant(t *testing.T) {
	var s Springs
	s.Add(5*Point, Normal)
	if o, v := s.Dominant(); o != Normal || v != 5*Point {
		t.Errorf("Dominant() = (%v, %d), want (Normal, %d)", o, v, 5*Point)
	}

	s.Add(Point, Fil)
	if o, v := s.Dominant(); o != Fil || v != Point {
		t.Errorf("Dominant() after fil = (%v, %d), want (Fil, %d)", o, v, Point)
	}

	s.Add(2*Point, Filll)
	if o, v := s.Dominant(); o != Filll || v != 2*Point {
		t.Errorf("Dominant() after filll = (%v, %d), want (Filll, %d)", o, v, 2*Point)
	}

	s.Sub(2*Point, Filll)
	if o, _ := s.Dominant(); o != Fil {
		t.Errorf("Dominant() after Sub = %v, want Fil", o)
	}

	if !s.Infinite() {
		t.Error("Infinite() = false, want true with fil present")
	}

	var zero Springs
	if zero.Infinite() {
		t.Error("Infinite() = true for zero springs, want false")
	}
	if o, v := zero.Dominant(); o != Normal || v != 0 {
		t.Errorf("zero Dominant() = (%v, %d), want (Normal, 0)", o, v)
	}
}
