// Command typeset runs a typesetting job described by a TOML file
// and writes the result as a DVI document.
//
// A minimal job file:
//
//	[document]
//	line_width  = "345pt"
//	page_height = "550pt"
//
//	[[fonts]]
//	id   = 0
//	path = "fonts/regular.ttf"
//	size = "10pt"
//
//	[input]
//	path = "chapter.txt"
//	font = 0
//
// Paragraphs in the input file are separated by blank lines.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/BurntSushi/toml"
	"github.com/henry-luo/typeset"
	"github.com/henry-luo/typeset/dim"
	"github.com/henry-luo/typeset/font"
	"github.com/henry-luo/typeset/font/opentype"
	"github.com/henry-luo/typeset/hyphen"
)

// job mirrors the TOML file. Dimensions are strings ("12pt",
// "1.5cm") parsed by dim.ParseDim.
type job struct {
	Document struct {
		LineWidth     string `toml:"line_width"`
		PageHeight    string `toml:"page_height"`
		Indent        string `toml:"indent"`
		Tolerance     int    `toml:"tolerance"`
		Looseness     int    `toml:"looseness"`
		HyphenPenalty int    `toml:"hyphen_penalty"`
	} `toml:"document"`

	Hyphenation struct {
		Patterns string `toml:"patterns"`
		Language string `toml:"language"`
		LeftMin  int    `toml:"left_min"`
		RightMin int    `toml:"right_min"`
	} `toml:"hyphenation"`

	Fonts []struct {
		ID   int32  `toml:"id"`
		Path string `toml:"path"`
		Size string `toml:"size"`
	} `toml:"fonts"`

	Input struct {
		Path string `toml:"path"`
		Font int32  `toml:"font"`
	} `toml:"input"`
}

func main() {
	var (
		jobPath = flag.String("job", "", "TOML job file (required)")
		output  = flag.String("output", "out.dvi", "output DVI file")
		trace   = flag.Bool("trace", false, "debug logging to stderr")
	)
	flag.Parse()

	if *jobPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *trace {
		typeset.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	if err := run(*jobPath, *output, *trace); err != nil {
		log.Fatalf("typeset: %v", err)
	}
}

func run(jobPath, output string, trace bool) error {
	var j job
	if _, err := toml.DecodeFile(jobPath, &j); err != nil {
		return fmt.Errorf("job file: %w", err)
	}

	opts, err := documentOptions(j, trace)
	if err != nil {
		return err
	}

	fonts := opentype.NewCollection()
	for _, f := range j.Fonts {
		size, err := parseDim(f.Size, 10*dim.Point)
		if err != nil {
			return fmt.Errorf("font %d size: %w", f.ID, err)
		}
		if err := fonts.LoadFile(font.ID(f.ID), f.Path, size); err != nil {
			return fmt.Errorf("font %d: %w", f.ID, err)
		}
	}

	text, err := os.ReadFile(j.Input.Path)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	ts := typeset.New(fonts, opts...)
	for _, para := range paragraphs(string(text)) {
		if err := ts.Paragraph(para, font.ID(j.Input.Font)); err != nil {
			return err
		}
	}

	out, err := os.Create(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := ts.WriteDVI(out); err != nil {
		// A failed write leaves an invalid stream behind.
		os.Remove(output)
		return err
	}

	log.Printf("wrote %s\n", output)
	return nil
}

// documentOptions turns the job's document and hyphenation sections
// into façade options.
func documentOptions(j job, trace bool) ([]typeset.Option, error) {
	params := typeset.DefaultParameters()
	if j.Document.Tolerance > 0 {
		params.Tolerance = j.Document.Tolerance
	}
	if j.Document.Looseness != 0 {
		params.Looseness = j.Document.Looseness
	}
	if j.Document.HyphenPenalty > 0 {
		params.HyphenPenalty = j.Document.HyphenPenalty
	}
	if trace {
		params.Trace = typeset.Logger()
	}

	lw, err := parseDim(j.Document.LineWidth, params.LineWidth)
	if err != nil {
		return nil, fmt.Errorf("line_width: %w", err)
	}
	params.LineWidth = lw

	opts := []typeset.Option{typeset.WithParameters(params)}

	if j.Document.PageHeight != "" {
		ph, err := dim.ParseDim(j.Document.PageHeight)
		if err != nil {
			return nil, fmt.Errorf("page_height: %w", err)
		}
		opts = append(opts, typeset.WithPageHeight(ph))
	}
	if j.Document.Indent != "" {
		in, err := dim.ParseDim(j.Document.Indent)
		if err != nil {
			return nil, fmt.Errorf("indent: %w", err)
		}
		opts = append(opts, typeset.WithIndent(in))
	}

	if j.Hyphenation.Patterns != "" {
		tag := language.English
		if j.Hyphenation.Language != "" {
			tag, err = language.Parse(j.Hyphenation.Language)
			if err != nil {
				return nil, fmt.Errorf("hyphenation language: %w", err)
			}
		}
		var hopts []hyphen.Option
		if j.Hyphenation.LeftMin > 0 {
			hopts = append(hopts, hyphen.WithLeftMin(j.Hyphenation.LeftMin))
		}
		if j.Hyphenation.RightMin > 0 {
			hopts = append(hopts, hyphen.WithRightMin(j.Hyphenation.RightMin))
		}
		eng := hyphen.New(tag, hopts...)
		if err := eng.LoadPatternFile(j.Hyphenation.Patterns); err != nil {
			return nil, fmt.Errorf("patterns: %w", err)
		}
		opts = append(opts, typeset.WithHyphenation(eng))
	}

	return opts, nil
}

// parseDim parses s, returning def when s is empty.
func parseDim(s string, def dim.Sp) (dim.Sp, error) {
	if s == "" {
		return def, nil
	}
	return dim.ParseDim(s)
}

// paragraphs splits text on blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			out = append(out, block)
		}
	}
	return out
}
