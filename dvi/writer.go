package dvi

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/node"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var nopLogger = slog.New(nopHandler{})

// Unit fraction mapping output units to 1e-7 meters: 25400000/473628672
// makes one output unit equal one scaled point.
const (
	DefaultNum = 25400000
	DefaultDen = 473628672
)

// DefaultMag is the standard magnification of 1000 (no scaling).
const DefaultMag = 1000

// Option configures a Writer.
type Option func(*Writer)

// WithComment sets the preamble comment. The default is a fixed
// string so identical documents produce identical bytes.
func WithComment(c string) Option {
	return func(w *Writer) {
		if len(c) > 255 {
			c = c[:255]
		}
		w.comment = c
	}
}

// WithMagnification sets the magnification in thousandths.
func WithMagnification(mag int32) Option {
	return func(w *Writer) { w.mag = mag }
}

// WithUnits sets the unit fraction written to the preamble.
func WithUnits(num, den int32) Option {
	return func(w *Writer) { w.num, w.den = num, den }
}

type pos struct {
	h, v dim.Sp
}

// Writer emits a document as a device-independent byte stream. It is
// append-only: back-pointers always refer to earlier offsets, so a
// page is final the moment it is written. Methods keep the first
// write error and turn later calls into no-ops returning it.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	w   io.Writer
	m   font.Metrics
	log *slog.Logger
	err error
	off int

	comment string
	num     int32
	den     int32
	mag     int32

	started bool
	inPage  bool
	closed  bool
	pages   int
	lastBop int

	h, v     dim.Sp
	stack    []pos
	maxStack int

	maxExtent dim.Sp
	maxWidth  dim.Sp

	cur     font.ID
	defined map[font.ID]bool
	order   []font.ID
}

// NewWriter returns a Writer emitting to w. Font identification data
// (checksums, sizes, names) comes from m.
func NewWriter(w io.Writer, m font.Metrics, opts ...Option) *Writer {
	dw := &Writer{
		w:       w,
		m:       m,
		log:     nopLogger,
		comment: "typeset output",
		num:     DefaultNum,
		den:     DefaultDen,
		mag:     DefaultMag,
		lastBop: -1,
		cur:     -1,
		defined: make(map[font.ID]bool),
	}
	for _, opt := range opts {
		opt(dw)
	}
	return dw
}

// SetLogger directs the writer's diagnostics to l. A nil logger
// silences them.
func (w *Writer) SetLogger(l *slog.Logger) {
	if l == nil {
		l = nopLogger
	}
	w.log = l
}

// Err returns the first error encountered, if any.
func (w *Writer) Err() error { return w.err }

// BeginPage starts a new page carrying the ten counter values. The
// position, stack and font selection reset, as the format requires.
func (w *Writer) BeginPage(counts [10]int32) error {
	if w.inPage || w.closed {
		panic("dvi: BeginPage out of sequence")
	}
	w.preamble()

	here := w.off
	w.op(OpBop)
	for _, c := range counts {
		w.arg(c, 4)
	}
	w.arg(int32(w.lastBop), 4)
	w.lastBop = here

	w.h, w.v = 0, 0
	w.stack = w.stack[:0]
	w.cur = -1
	w.inPage = true
	w.pages++
	return w.err
}

// EndPage finishes the current page.
func (w *Writer) EndPage() error {
	if !w.inPage {
		panic("dvi: EndPage without BeginPage")
	}
	if len(w.stack) != 0 {
		panic("dvi: unbalanced push at end of page")
	}
	w.op(OpEop)
	w.inPage = false
	return w.err
}

// ShipOut renders a packed page box onto the current page. The box's
// reference point lands at the origin; a vertical box descends from
// it, a horizontal box sits on its baseline.
func (w *Writer) ShipOut(a *node.Arena, box node.Ref) error {
	if !w.inPage {
		panic("dvi: ShipOut outside a page")
	}
	b := a.BoxAt(box)
	if ext := b.Height + b.Depth; ext > w.maxExtent {
		w.maxExtent = ext
	}
	if b.Width > w.maxWidth {
		w.maxWidth = b.Width
	}
	if a.Kind(box) == node.KindVBox {
		w.vlistOut(a, b, 0, 0)
	} else {
		w.hlistOut(a, b, b.Kids, 0, b.Height)
	}
	return w.err
}

// Close writes the postamble and the filler. The underlying writer
// is not closed; the caller owns it.
func (w *Writer) Close() error {
	if w.inPage {
		panic("dvi: Close inside a page")
	}
	if w.closed {
		return w.err
	}
	w.preamble()
	w.closed = true

	postOff := w.off
	w.op(OpPost)
	w.arg(int32(w.lastBop), 4)
	w.arg(w.num, 4)
	w.arg(w.den, 4)
	w.arg(w.mag, 4)
	w.arg(int32(w.maxExtent), 4)
	w.arg(int32(w.maxWidth), 4)
	w.arg(int32(w.maxStack), 2)
	w.arg(int32(w.pages), 2)

	for _, f := range w.order {
		w.fontDef(f)
	}

	w.op(OpPostPost)
	w.arg(int32(postOff), 4)
	w.arg(id, 1)
	fill := 4
	for (w.off+fill)%4 != 0 {
		fill++
	}
	for i := 0; i < fill; i++ {
		w.arg(223, 1)
	}

	w.log.Debug("document closed",
		"pages", w.pages, "fonts", len(w.order), "bytes", w.off)
	return w.err
}

// vlistOut walks a vertical box whose contents start at the given
// top edge, left edge at the given horizontal position.
func (w *Writer) vlistOut(a *node.Arena, b node.BoxData, left, top dim.Sp) {
	v := top
	for _, r := range b.Kids {
		switch a.Kind(r) {
		case node.KindHBox:
			kb := a.BoxAt(r)
			v += kb.Height
			w.push()
			w.hlistOut(a, kb, kb.Kids, left, v)
			w.pop()
			v += kb.Depth
		case node.KindVBox:
			kb := a.BoxAt(r)
			w.push()
			w.vlistOut(a, kb, left, v)
			w.pop()
			v += kb.Height + kb.Depth
		case node.KindRule:
			rd := a.RuleAt(r)
			rh, rdp, rw := rd.Height, rd.Depth, rd.Width
			if rh == node.Running {
				rh = 0
			}
			if rdp == node.Running {
				rdp = 0
			}
			if rw == node.Running {
				rw = b.Width
			}
			v += rh + rdp
			if rw > 0 && rh+rdp > 0 {
				w.sync(left, v)
				w.op(OpPutRule)
				w.arg(int32(rh+rdp), 4)
				w.arg(int32(rw), 4)
			}
		case node.KindGlue:
			v += b.GlueWidth(a.GlueAt(r))
		case node.KindKern:
			v += a.KernAt(r).Width
		}
	}
}

// hlistOut walks a horizontal run sitting on a baseline. The run's
// glue is set with the ratio of the box b it belongs to, which lets
// an unbroken discretionary's text render inline.
func (w *Writer) hlistOut(a *node.Arena, b node.BoxData, kids []node.Ref, left, baseline dim.Sp) {
	h := left
	for _, r := range kids {
		switch a.Kind(r) {
		case node.KindChar:
			c := a.CharAt(r)
			w.sync(h, baseline)
			w.setChar(c.Font, c.Code, c.Width)
			h += c.Width
		case node.KindLig:
			c := a.LigAt(r)
			w.sync(h, baseline)
			w.setChar(c.Font, c.Code, c.Width)
			h += c.Width
		case node.KindKern:
			h += a.KernAt(r).Width
		case node.KindGlue:
			h += b.GlueWidth(a.GlueAt(r))
		case node.KindDisc:
			dd := a.DiscAt(r)
			w.hlistOut(a, b, dd.NoBreak, h, baseline)
			for _, k := range dd.NoBreak {
				h += a.Width(k)
			}
		case node.KindHBox:
			kb := a.BoxAt(r)
			w.push()
			w.hlistOut(a, kb, kb.Kids, h, baseline)
			w.pop()
			h += kb.Width
		case node.KindVBox:
			kb := a.BoxAt(r)
			w.push()
			w.vlistOut(a, kb, h, baseline-kb.Height)
			w.pop()
			h += kb.Width
		case node.KindRule:
			rd := a.RuleAt(r)
			rh, rdp, rw := rd.Height, rd.Depth, rd.Width
			if rh == node.Running {
				rh = b.Height
			}
			if rdp == node.Running {
				rdp = b.Depth
			}
			if rw == node.Running {
				rw = 0
			}
			if rw > 0 && rh+rdp > 0 {
				w.sync(h, baseline+rdp)
				w.op(OpSetRule)
				w.arg(int32(rh+rdp), 4)
				w.arg(int32(rw), 4)
				w.h += rw
			}
			h += rw
		}
	}
}

// sync emits the movements that bring the device to the desired
// position. Vertical motion comes first, as consumers expect.
func (w *Writer) sync(h, v dim.Sp) {
	if dv := v - w.v; dv != 0 {
		n := signedWidth(int32(dv))
		w.op(OpDown1 + Op(n-1))
		w.arg(int32(dv), n)
		w.v = v
	}
	if dh := h - w.h; dh != 0 {
		n := signedWidth(int32(dh))
		w.op(OpRight1 + Op(n-1))
		w.arg(int32(dh), n)
		w.h = h
	}
}

// setChar selects the font if needed and typesets one character,
// advancing the device by the node's width. Node widths come from
// the same metrics the consumer resolves, so the advance agrees.
func (w *Writer) setChar(f font.ID, code rune, width dim.Sp) {
	w.selectFont(f)
	if code <= 127 {
		w.op(Op(code))
	} else {
		n := unsignedWidth(uint32(code))
		w.op(OpSet1 + Op(n-1))
		w.arg(int32(code), n)
	}
	w.h += width
}

func (w *Writer) selectFont(f font.ID) {
	if f == w.cur {
		return
	}
	if f < 0 {
		panic(fmt.Sprintf("dvi: negative font id %d", f))
	}
	if !w.defined[f] {
		w.fontDef(f)
		w.defined[f] = true
		w.order = append(w.order, f)
	}
	if f < 64 {
		w.op(OpFntNum0 + Op(f))
	} else {
		n := unsignedWidth(uint32(f))
		w.op(OpFnt1 + Op(n-1))
		w.arg(int32(f), n)
	}
	w.cur = f
}

func (w *Writer) fontDef(f font.ID) {
	info := w.m.Info(f)
	n := unsignedWidth(uint32(f))
	w.op(OpFntDef1 + Op(n-1))
	w.arg(int32(f), n)
	w.arg(int32(info.Checksum), 4)
	w.arg(int32(info.LoadedAt()), 4)
	w.arg(int32(info.DesignSize), 4)
	w.arg(0, 1)
	w.arg(int32(len(info.Name)), 1)
	w.bytes([]byte(info.Name))
}

func (w *Writer) push() {
	w.op(OpPush)
	w.stack = append(w.stack, pos{w.h, w.v})
	if len(w.stack) > w.maxStack {
		w.maxStack = len(w.stack)
	}
}

func (w *Writer) pop() {
	if len(w.stack) == 0 {
		panic("dvi: pop on empty stack")
	}
	w.op(OpPop)
	p := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.h, w.v = p.h, p.v
}

func (w *Writer) preamble() {
	if w.started || w.err != nil {
		return
	}
	w.started = true
	w.op(OpPre)
	w.arg(id, 1)
	w.arg(w.num, 4)
	w.arg(w.den, 4)
	w.arg(w.mag, 4)
	w.arg(int32(len(w.comment)), 1)
	w.bytes([]byte(w.comment))
}

func (w *Writer) op(o Op) {
	w.bytes([]byte{byte(o)})
}

// arg writes the low n bytes of v big-endian. Two's-complement
// representation makes the same bytes serve signed and unsigned
// operands.
func (w *Writer) arg(v int32, n int) {
	var buf [4]byte
	for i := 0; i < n; i++ {
		buf[i] = byte(uint32(v) >> (8 * (n - 1 - i)))
	}
	w.bytes(buf[:n])
}

func (w *Writer) bytes(p []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(p)
	w.off += n
	if err != nil {
		w.err = fmt.Errorf("dvi: write at offset %d: %w", w.off, err)
	}
}

// signedWidth returns the fewest bytes holding v two's-complement.
func signedWidth(v int32) int {
	switch {
	case v >= -0x80 && v < 0x80:
		return 1
	case v >= -0x8000 && v < 0x8000:
		return 2
	case v >= -0x800000 && v < 0x800000:
		return 3
	}
	return 4
}

// unsignedWidth returns the fewest bytes holding v unsigned.
func unsignedWidth(v uint32) int {
	switch {
	case v < 0x100:
		return 1
	case v < 0x10000:
		return 2
	case v < 0x1000000:
		return 3
	}
	return 4
}
