package dvi

import (
	"fmt"

	"github.com/henry-luo/typeset/dim"
)

// FormatError describes a malformed byte stream.
type FormatError struct {
	Offset int
	Op     Op
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("dvi: offset %d (%s): %s", e.Offset, e.Op, e.Reason)
}

// FontDef is one font definition as it appears in the stream.
type FontDef struct {
	Num      int32
	Checksum uint32
	At       dim.Sp
	Design   dim.Sp
	Area     string
	Name     string
}

// PageInfo summarizes one page of a parsed document.
type PageInfo struct {
	Offset int
	Counts [10]int32
}

// Document is the parsed structure of a complete stream.
type Document struct {
	Comment  string
	Num      int32
	Den      int32
	Mag      int32
	Pages    []PageInfo
	Fonts    []FontDef
	Tallest  dim.Sp
	Widest   dim.Sp
	MaxStack int
}

// Command is one decoded command, delivered to the visitor passed to
// ParseWith. Args holds the numeric operands in order; Text carries
// special-material payloads and defined font names.
type Command struct {
	Offset int
	Op     Op
	Args   []int32
	Text   string
}

// Parse validates a complete byte stream and returns its structure.
func Parse(data []byte) (*Document, error) {
	return ParseWith(data, nil)
}

// ParseWith is Parse with a visitor invoked for every page-level
// command, bop and eop included. A non-nil error from the visitor
// stops the walk.
func ParseWith(data []byte, visit func(page int, c Command) error) (*Document, error) {
	p := &parser{data: data, visit: visit}
	doc, err := p.document()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type parser struct {
	data  []byte
	off   int
	err   error
	visit func(page int, c Command) error

	// cur is the command being decoded, for error attribution.
	cur      Op
	defs     map[int32]FontDef
	maxDepth int
}

func (p *parser) fail(off int, op Op, reason string) {
	if p.err == nil {
		p.err = &FormatError{Offset: off, Op: op, Reason: reason}
	}
}

func (p *parser) take(n int) []byte {
	if p.err != nil {
		return nil
	}
	if n < 0 || p.off+n > len(p.data) {
		p.fail(p.off, p.cur, "unexpected end of stream")
		return nil
	}
	b := p.data[p.off : p.off+n]
	p.off += n
	return b
}

// num reads an n-byte big-endian operand, sign-extending when signed.
func (p *parser) num(n int, signed bool) int32 {
	b := p.take(n)
	if b == nil {
		return 0
	}
	var u uint32
	for _, c := range b {
		u = u<<8 | uint32(c)
	}
	if signed && n < 4 {
		shift := uint(32 - 8*n)
		return int32(u<<shift) >> shift
	}
	return int32(u)
}

func (p *parser) u8() int32  { return p.num(1, false) }
func (p *parser) u16() int32 { return p.num(2, false) }
func (p *parser) s32() int32 { return p.num(4, true) }

func (p *parser) document() (*Document, error) {
	p.defs = make(map[int32]FontDef)
	doc := &Document{}

	// Preamble.
	preOff := p.off
	p.cur = OpPre
	if op := Op(p.u8()); p.err == nil && op != OpPre {
		p.fail(preOff, op, "stream does not start with pre")
	}
	if i := p.u8(); p.err == nil && i != id {
		p.fail(preOff, OpPre, fmt.Sprintf("format id %d, want %d", i, id))
	}
	doc.Num = p.s32()
	doc.Den = p.s32()
	doc.Mag = p.s32()
	if p.err == nil && (doc.Num <= 0 || doc.Den <= 0 || doc.Mag <= 0) {
		p.fail(preOff, OpPre, "non-positive unit fraction or magnification")
	}
	doc.Comment = string(p.take(int(p.u8())))

	// Pages and interleaved definitions.
	lastBop := -1
	postOff := -1
	for p.err == nil {
		cmdOff := p.off
		op := Op(p.u8())
		if p.err != nil {
			break
		}
		p.cur = op
		switch {
		case op == OpNop:
		case op >= OpFntDef1 && op <= OpFntDef4:
			p.fontDef(cmdOff, op)
		case op == OpBop:
			lastBop = p.page(doc, cmdOff, lastBop)
		case op == OpPost:
			postOff = cmdOff
		default:
			p.fail(cmdOff, op, "not allowed between pages")
		}
		if postOff >= 0 {
			break
		}
	}
	if p.err != nil {
		return nil, p.err
	}

	// Postamble.
	if back := int(p.s32()); p.err == nil && back != lastBop {
		p.fail(postOff, OpPost, fmt.Sprintf("final bop pointer %d, want %d", back, lastBop))
	}
	num, den, mag := p.s32(), p.s32(), p.s32()
	if p.err == nil && (num != doc.Num || den != doc.Den || mag != doc.Mag) {
		p.fail(postOff, OpPost, "unit parameters disagree with preamble")
	}
	doc.Tallest = dim.Sp(p.s32())
	doc.Widest = dim.Sp(p.s32())
	doc.MaxStack = int(p.u16())
	pages := int(p.u16())
	if p.err == nil && pages != len(doc.Pages) {
		p.fail(postOff, OpPost, fmt.Sprintf("page count %d, want %d", pages, len(doc.Pages)))
	}
	if p.err == nil && p.maxDepth > doc.MaxStack {
		p.fail(postOff, OpPost, fmt.Sprintf("stack reached depth %d, postamble claims %d", p.maxDepth, doc.MaxStack))
	}

	// Postamble font definitions must repeat the page definitions.
	seen := make(map[int32]bool)
	ppOff := -1
	for p.err == nil {
		cmdOff := p.off
		op := Op(p.u8())
		if p.err != nil {
			break
		}
		p.cur = op
		switch {
		case op == OpNop:
		case op >= OpFntDef1 && op <= OpFntDef4:
			def := p.readFontDef(cmdOff, op)
			if p.err != nil {
				break
			}
			have, ok := p.defs[def.Num]
			if !ok {
				p.fail(cmdOff, op, fmt.Sprintf("font %d defined only in postamble", def.Num))
				break
			}
			if have != def {
				p.fail(cmdOff, op, fmt.Sprintf("font %d postamble definition disagrees", def.Num))
				break
			}
			if seen[def.Num] {
				p.fail(cmdOff, op, fmt.Sprintf("font %d listed twice in postamble", def.Num))
				break
			}
			seen[def.Num] = true
			doc.Fonts = append(doc.Fonts, def)
		case op == OpPostPost:
			ppOff = cmdOff
		default:
			p.fail(cmdOff, op, "not allowed in postamble")
		}
		if ppOff >= 0 {
			break
		}
	}
	if p.err == nil && len(seen) != len(p.defs) {
		p.fail(ppOff, OpPostPost, "postamble omits fonts defined in pages")
	}

	// Closing pointer, id and filler.
	if q := int(p.s32()); p.err == nil && q != postOff {
		p.fail(ppOff, OpPostPost, fmt.Sprintf("post pointer %d, want %d", q, postOff))
	}
	if i := p.u8(); p.err == nil && i != id {
		p.fail(ppOff, OpPostPost, fmt.Sprintf("format id %d, want %d", i, id))
	}
	fill := len(p.data) - p.off
	switch {
	case p.err != nil:
	case fill < 4:
		p.fail(p.off, OpPostPost, fmt.Sprintf("%d filler bytes, want at least 4", fill))
	case len(p.data)%4 != 0:
		p.fail(p.off, OpPostPost, "stream length is not a multiple of four")
	default:
		for i, b := range p.data[p.off:] {
			if b != 223 {
				p.fail(p.off+i, OpPostPost, fmt.Sprintf("filler byte %d, want 223", b))
				break
			}
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return doc, nil
}

// page walks one page from its bop at pageOff, returning the new
// last-bop offset.
func (p *parser) page(doc *Document, pageOff, lastBop int) int {
	var info PageInfo
	info.Offset = pageOff
	args := make([]int32, 0, 11)
	for i := range info.Counts {
		info.Counts[i] = p.s32()
		args = append(args, info.Counts[i])
	}
	back := p.s32()
	args = append(args, back)
	if p.err == nil && int(back) != lastBop {
		p.fail(pageOff, OpBop, fmt.Sprintf("previous bop pointer %d, want %d", back, lastBop))
		return lastBop
	}
	pageIdx := len(doc.Pages)
	doc.Pages = append(doc.Pages, info)
	p.emit(pageIdx, Command{Offset: pageOff, Op: OpBop, Args: args})

	depth := 0
	curFont := int32(-1)
	for p.err == nil {
		cmdOff := p.off
		op := Op(p.u8())
		if p.err != nil {
			break
		}
		p.cur = op
		cmd := Command{Offset: cmdOff, Op: op}
		switch {
		case op.IsSetChar():
			if curFont < 0 {
				p.fail(cmdOff, op, "character before font selection")
			}
		case op >= OpSet1 && op <= OpSet4:
			cmd.Args = []int32{p.num(int(op-OpSet1)+1, false)}
			if curFont < 0 {
				p.fail(cmdOff, op, "character before font selection")
			}
		case op >= OpPut1 && op <= OpPut4:
			cmd.Args = []int32{p.num(int(op-OpPut1)+1, false)}
			if curFont < 0 {
				p.fail(cmdOff, op, "character before font selection")
			}
		case op == OpSetRule || op == OpPutRule:
			cmd.Args = []int32{p.s32(), p.s32()}
		case op == OpNop:
		case op == OpPush:
			depth++
			if depth > p.maxDepth {
				p.maxDepth = depth
			}
		case op == OpPop:
			depth--
			if depth < 0 {
				p.fail(cmdOff, op, "pop on empty stack")
			}
		case op >= OpRight1 && op <= OpRight4:
			cmd.Args = []int32{p.num(int(op-OpRight1)+1, true)}
		case op >= OpW0 && op <= OpW4:
			if op > OpW0 {
				cmd.Args = []int32{p.num(int(op-OpW0), true)}
			}
		case op >= OpX0 && op <= OpX4:
			if op > OpX0 {
				cmd.Args = []int32{p.num(int(op-OpX0), true)}
			}
		case op >= OpDown1 && op <= OpDown4:
			cmd.Args = []int32{p.num(int(op-OpDown1)+1, true)}
		case op >= OpY0 && op <= OpY4:
			if op > OpY0 {
				cmd.Args = []int32{p.num(int(op-OpY0), true)}
			}
		case op >= OpZ0 && op <= OpZ4:
			if op > OpZ0 {
				cmd.Args = []int32{p.num(int(op-OpZ0), true)}
			}
		case op.IsFntNum():
			f := int32(op - OpFntNum0)
			if _, ok := p.defs[f]; !ok {
				p.fail(cmdOff, op, fmt.Sprintf("font %d selected before definition", f))
			}
			curFont = f
		case op >= OpFnt1 && op <= OpFnt4:
			f := p.num(int(op-OpFnt1)+1, false)
			cmd.Args = []int32{f}
			if _, ok := p.defs[f]; p.err == nil && !ok {
				p.fail(cmdOff, op, fmt.Sprintf("font %d selected before definition", f))
			}
			curFont = f
		case op >= OpXXX1 && op <= OpXXX4:
			k := p.num(int(op-OpXXX1)+1, false)
			cmd.Args = []int32{k}
			cmd.Text = string(p.take(int(k)))
		case op >= OpFntDef1 && op <= OpFntDef4:
			def := p.fontDef(cmdOff, op)
			cmd.Args = []int32{def.Num}
			cmd.Text = def.Name
		case op == OpEop:
			if depth != 0 {
				p.fail(cmdOff, op, fmt.Sprintf("stack depth %d at eop", depth))
			}
			p.emit(pageIdx, cmd)
			return pageOff
		default:
			p.fail(cmdOff, op, "not allowed inside a page")
		}
		p.emit(pageIdx, cmd)
	}
	if p.err == nil {
		p.fail(pageOff, OpBop, "page without eop")
	}
	return pageOff
}

// fontDef reads a definition and records it, requiring any repeated
// definition to agree with the first.
func (p *parser) fontDef(cmdOff int, op Op) FontDef {
	def := p.readFontDef(cmdOff, op)
	if p.err != nil {
		return def
	}
	if have, ok := p.defs[def.Num]; ok {
		if have != def {
			p.fail(cmdOff, op, fmt.Sprintf("font %d redefined inconsistently", def.Num))
		}
		return def
	}
	p.defs[def.Num] = def
	return def
}

func (p *parser) readFontDef(cmdOff int, op Op) FontDef {
	var def FontDef
	def.Num = p.num(int(op-OpFntDef1)+1, false)
	def.Checksum = uint32(p.s32())
	def.At = dim.Sp(p.s32())
	def.Design = dim.Sp(p.s32())
	a := int(p.u8())
	l := int(p.u8())
	def.Area = string(p.take(a))
	def.Name = string(p.take(l))
	if p.err == nil && (def.At <= 0 || def.Design <= 0) {
		p.fail(cmdOff, op, "non-positive font size")
	}
	return def
}

func (p *parser) emit(page int, c Command) {
	if p.visit == nil || p.err != nil {
		return
	}
	if err := p.visit(page, c); err != nil {
		p.err = err
	}
}
