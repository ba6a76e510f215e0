package dvi

import "testing"

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpSetChar0, "set_char_0"},
		{Op(65), "set_char_65"},
		{Op(127), "set_char_127"},
		{OpSet1, "set1"},
		{OpSet4, "set4"},
		{OpSetRule, "set_rule"},
		{OpPut2, "put2"},
		{OpPutRule, "put_rule"},
		{OpNop, "nop"},
		{OpBop, "bop"},
		{OpEop, "eop"},
		{OpPush, "push"},
		{OpPop, "pop"},
		{OpRight3, "right3"},
		{OpW0, "w0"},
		{OpW4, "w4"},
		{OpX1, "x1"},
		{OpDown1, "down1"},
		{OpY0, "y0"},
		{OpZ4, "z4"},
		{OpFntNum0, "fnt_num_0"},
		{OpFntNum0 + 63, "fnt_num_63"},
		{OpFnt1, "fnt1"},
		{OpXXX1, "xxx1"},
		{OpXXX4, "xxx4"},
		{OpFntDef1, "fnt_def1"},
		{OpPre, "pre"},
		{OpPost, "post"},
		{OpPostPost, "post_post"},
		{Op(250), "undefined_250"},
		{Op(255), "undefined_255"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", byte(tt.op), got, tt.want)
		}
	}
}

func TestOpClasses(t *testing.T) {
	if !Op(0).IsSetChar() || !Op(127).IsSetChar() || Op(128).IsSetChar() {
		t.Error("IsSetChar boundaries wrong")
	}
	if !OpFntNum0.IsFntNum() || !(OpFntNum0 + 63).IsFntNum() {
		t.Error("IsFntNum rejects its range")
	}
	if OpFnt1.IsFntNum() || OpEop.IsFntNum() {
		t.Error("IsFntNum accepts outside its range")
	}
}
