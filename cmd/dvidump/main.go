// Command dvidump prints a human-readable opcode listing of a DVI
// file, in the spirit of dvitype.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/henry-luo/typeset/dvi"
)

func main() {
	var (
		pages = flag.String("pages", "", "page range to list, e.g. 2 or 2-5 (default all)")
		quiet = flag.Bool("summary", false, "print only the document summary")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: dvidump [flags] file.dvi\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	lo, hi, err := parseRange(*pages)
	if err != nil {
		log.Fatalf("dvidump: %v", err)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatalf("dvidump: %v", err)
	}

	visit := func(page int, c dvi.Command) error {
		if *quiet || page < lo || (hi > 0 && page > hi) {
			return nil
		}
		printCommand(page, c)
		return nil
	}

	doc, err := dvi.ParseWith(data, visit)
	if err != nil {
		log.Fatalf("dvidump: %v", err)
	}

	fmt.Printf("comment: %q\n", doc.Comment)
	fmt.Printf("units: %d/%d, magnification %d\n", doc.Num, doc.Den, doc.Mag)
	fmt.Printf("pages: %d, tallest %v, widest %v, max stack %d\n",
		len(doc.Pages), doc.Tallest, doc.Widest, doc.MaxStack)
	for _, f := range doc.Fonts {
		fmt.Printf("font %d: %s at %v (design %v, checksum %08X)\n",
			f.Num, f.Name, f.At, f.Design, f.Checksum)
	}
}

func printCommand(page int, c dvi.Command) {
	var b strings.Builder
	fmt.Fprintf(&b, "%6d: p%-3d %s", c.Offset, page, c.Op)
	for _, a := range c.Args {
		fmt.Fprintf(&b, " %d", a)
	}
	if c.Text != "" {
		fmt.Fprintf(&b, " %q", c.Text)
	}
	fmt.Println(b.String())
}

// parseRange parses "", "N" or "N-M" into inclusive 1-based bounds;
// zero hi means unbounded.
func parseRange(s string) (lo, hi int, err error) {
	if s == "" {
		return 1, 0, nil
	}
	lo, hi = 1, 0
	parts := strings.SplitN(s, "-", 2)
	if lo, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, fmt.Errorf("bad page range %q", s)
	}
	if len(parts) == 1 {
		return lo, lo, nil
	}
	if hi, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("bad page range %q", s)
	}
	return lo, hi, nil
}
