// Package dvi writes and reads device-independent output files.
//
// The format is a single byte stream of commands:
//   - a preamble identifying the unit system,
//   - one block per page, bracketed by bop and eop, holding character,
//     rule, movement and font commands,
//   - a postamble repeating the font definitions and the document
//     maxima, padded so the file can also be parsed backwards.
//
// The Writer is strictly append-only: every back-pointer in the
// format points at an earlier byte, so nothing is ever patched after
// the fact. All multi-byte operands are big-endian two's-complement.
package dvi

import "fmt"

// Op is a single-byte command in the output stream. Commands are
// organized in runs:
//
//	0..127   set_char: typeset the character equal to the opcode
//	128..137 set/put characters and rules with explicit operands
//	139..142 page bracketing and the position stack
//	143..170 movement: right/down plus the w/x/y/z spacing registers
//	171..238 font selection
//	243..246 font definition
//	247..249 preamble and postamble
type Op byte

const (
	// OpSetChar0 begins the run of 128 one-byte commands that
	// typeset character c = op - OpSetChar0 and advance right by its
	// width. Data: none.
	OpSetChar0 Op = 0

	// OpSet1..OpSet4 typeset a character given as a 1..4 byte
	// unsigned code, advancing right by its width.
	OpSet1 Op = 128
	OpSet2 Op = 129
	OpSet3 Op = 130
	OpSet4 Op = 131

	// OpSetRule typesets a rule and advances right by its width.
	// Data: height a[4], width b[4]; the rule's bottom-left corner
	// sits at the current position.
	OpSetRule Op = 132

	// OpPut1..OpPut4 typeset a character without moving.
	OpPut1 Op = 133
	OpPut2 Op = 134
	OpPut3 Op = 135
	OpPut4 Op = 136

	// OpPutRule typesets a rule without moving. Data: a[4], b[4].
	OpPutRule Op = 137

	// OpNop does nothing.
	OpNop Op = 138

	// OpBop begins a page. Data: ten signed counters c0..c9[4] and
	// p[4], the offset of the previous bop (-1 on the first page).
	OpBop Op = 139

	// OpEop ends a page; the position stack must be empty.
	OpEop Op = 140

	// OpPush saves (h, v, w, x, y, z); OpPop restores them.
	OpPush Op = 141
	OpPop  Op = 142

	// OpRight1..OpRight4 move right by a signed 1..4 byte amount.
	OpRight1 Op = 143
	OpRight2 Op = 144
	OpRight3 Op = 145
	OpRight4 Op = 146

	// OpW0 moves right by the w register; OpW1..OpW4 set w and move.
	OpW0 Op = 147
	OpW1 Op = 148
	OpW2 Op = 149
	OpW3 Op = 150
	OpW4 Op = 151

	// OpX0 moves right by the x register; OpX1..OpX4 set x and move.
	OpX0 Op = 152
	OpX1 Op = 153
	OpX2 Op = 154
	OpX3 Op = 155
	OpX4 Op = 156

	// OpDown1..OpDown4 move down by a signed 1..4 byte amount.
	OpDown1 Op = 157
	OpDown2 Op = 158
	OpDown3 Op = 159
	OpDown4 Op = 160

	// OpY0 moves down by the y register; OpY1..OpY4 set y and move.
	OpY0 Op = 161
	OpY1 Op = 162
	OpY2 Op = 163
	OpY3 Op = 164
	OpY4 Op = 165

	// OpZ0 moves down by the z register; OpZ1..OpZ4 set z and move.
	OpZ0 Op = 166
	OpZ1 Op = 167
	OpZ2 Op = 168
	OpZ3 Op = 169
	OpZ4 Op = 170

	// OpFntNum0 begins the run of 64 one-byte commands selecting
	// font f = op - OpFntNum0.
	OpFntNum0 Op = 171

	// OpFnt1..OpFnt4 select a font given as a 1..4 byte number.
	OpFnt1 Op = 235
	OpFnt2 Op = 236
	OpFnt3 Op = 237
	OpFnt4 Op = 238

	// OpXXX1..OpXXX4 carry special material. Data: length k[1..4],
	// then k bytes.
	OpXXX1 Op = 239
	OpXXX2 Op = 240
	OpXXX3 Op = 241
	OpXXX4 Op = 242

	// OpFntDef1..OpFntDef4 define a font. Data: number k[1..4],
	// checksum c[4], at-size s[4], design size d[4], then the area
	// and name lengths a[1] l[1] followed by a+l bytes.
	OpFntDef1 Op = 243
	OpFntDef2 Op = 244
	OpFntDef3 Op = 245
	OpFntDef4 Op = 246

	// OpPre starts the file. Data: id i[1], unit fraction num[4]
	// den[4], magnification mag[4], comment length k[1] and k bytes.
	OpPre Op = 247

	// OpPost starts the postamble. Data: final bop pointer p[4],
	// num[4] den[4] mag[4], tallest page extent l[4], widest page
	// u[4], deepest stack s[2], page count t[2].
	OpPost Op = 248

	// OpPostPost ends the postamble. Data: post pointer q[4], id
	// i[1], then at least four filler bytes of 223 padding the file
	// to a multiple of four bytes.
	OpPostPost Op = 249
)

// id is the format version byte carried in pre and post_post.
const id = 2

// IsSetChar reports whether op is one of the 128 one-byte set_char
// commands.
func (o Op) IsSetChar() bool { return o <= 127 }

// IsFntNum reports whether op is one of the 64 one-byte font
// selection commands.
func (o Op) IsFntNum() bool { return o >= OpFntNum0 && o < OpFntNum0+64 }

// String returns the dvitype-style name of the command.
func (o Op) String() string {
	switch {
	case o.IsSetChar():
		return fmt.Sprintf("set_char_%d", byte(o))
	case o >= OpSet1 && o <= OpSet4:
		return fmt.Sprintf("set%d", o-OpSet1+1)
	case o == OpSetRule:
		return "set_rule"
	case o >= OpPut1 && o <= OpPut4:
		return fmt.Sprintf("put%d", o-OpPut1+1)
	case o == OpPutRule:
		return "put_rule"
	case o == OpNop:
		return "nop"
	case o == OpBop:
		return "bop"
	case o == OpEop:
		return "eop"
	case o == OpPush:
		return "push"
	case o == OpPop:
		return "pop"
	case o >= OpRight1 && o <= OpRight4:
		return fmt.Sprintf("right%d", o-OpRight1+1)
	case o >= OpW0 && o <= OpW4:
		return fmt.Sprintf("w%d", o-OpW0)
	case o >= OpX0 && o <= OpX4:
		return fmt.Sprintf("x%d", o-OpX0)
	case o >= OpDown1 && o <= OpDown4:
		return fmt.Sprintf("down%d", o-OpDown1+1)
	case o >= OpY0 && o <= OpY4:
		return fmt.Sprintf("y%d", o-OpY0)
	case o >= OpZ0 && o <= OpZ4:
		return fmt.Sprintf("z%d", o-OpZ0)
	case o.IsFntNum():
		return fmt.Sprintf("fnt_num_%d", o-OpFntNum0)
	case o >= OpFnt1 && o <= OpFnt4:
		return fmt.Sprintf("fnt%d", o-OpFnt1+1)
	case o >= OpXXX1 && o <= OpXXX4:
		return fmt.Sprintf("xxx%d", o-OpXXX1+1)
	case o >= OpFntDef1 && o <= OpFntDef4:
		return fmt.Sprintf("fnt_def%d", o-OpFntDef1+1)
	case o == OpPre:
		return "pre"
	case o == OpPost:
		return "post"
	case o == OpPostPost:
		return "post_post"
	}
	return fmt.Sprintf("undefined_%d", byte(o))
}
