// Package typeset is a batch typesetting engine in the TeX tradition.
//
// # Overview
//
// typeset turns text plus font metrics into a device-independent (DVI)
// byte stream. The pipeline is a sequence of pure stages: a horizontal
// node list is built from text, broken into justified lines by the
// Knuth-Plass optimal-fit algorithm, assembled into a vertical list,
// broken into pages, and shipped out as DVI opcodes.
//
// # Quick Start
//
//	import "github.com/henry-luo/typeset"
//
//	ts := typeset.New(metrics,
//		typeset.WithLineWidth(dim.FromPoints(345)),
//		typeset.WithPageHeight(dim.FromPoints(550)),
//		typeset.WithHyphenation(engine),
//	)
//
//	ts.Paragraph("The quick brown fox ...", fontID)
//	ts.WriteDVI(out)
//
// # Architecture
//
// The library is organized into:
//   - Public API: Typesetter, Option, the dim/node/font vocabulary
//   - Engines: hyphen (Liang patterns), linebreak (Knuth-Plass),
//     pagebreak (vertical analog)
//   - Output: dvi (append-only writer plus a verifying reader)
//   - Internal: cache (sharded LRU), parallel (worker pool)
//
// # Determinism
//
// Identical inputs and parameters produce byte-identical DVI output.
// All dimension arithmetic is integer scaled points (1pt = 65536sp);
// the only floating value is the glue-set ratio stored on packed
// boxes, computed exactly once.
//
// # Concurrency
//
// A Typesetter is single-threaded. Independent paragraphs or
// documents may be processed concurrently on separate instances;
// BreakAll spreads independent paragraph runs across a worker pool.
package typeset

// Version information
const (
	// Version is the current version of the library
	Version = "0.2.0"

	// VersionMajor is the major version
	VersionMajor = 0

	// VersionMinor is the minor version
	VersionMinor = 2

	// VersionPatch is the patch version
	VersionPatch = 0
)
