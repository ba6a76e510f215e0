// Package hyphen finds legal hyphenation points in words using the
// Liang pattern method: competing patterns vote with odd and even
// priorities on every inter-letter position, and the odd positions
// win.
//
// An Engine is created for one language, loaded with a pattern set,
// and is then safe for any number of concurrent readers. Loading a
// new pattern set swaps an immutable snapshot; a failed load leaves
// the previous set in place.
package hyphen

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"unicode"

	"golang.org/x/text/language"

	"github.com/henry-luo/typeset/internal/cache"
)

// Default engine limits. Words must keep at least LeftMin letters
// before the first break and RightMin after the last; words longer
// than MaxWordLen receive no breaks at all.
const (
	DefaultLeftMin  = 2
	DefaultRightMin = 3
	MaxWordLen      = 64
)

// Engine hyphenates words of one language. Create with New, load
// patterns, then share freely between goroutines.
type Engine struct {
	lang     language.Tag
	leftMin  int
	rightMin int

	mu    sync.Mutex // serializes loads and exception edits
	state atomic.Pointer[patternSet]
	words *cache.Sharded[string, []int]
	log   atomic.Pointer[slog.Logger]
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLeftMin sets the minimum number of letters before the first
// break point.
func WithLeftMin(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.leftMin = n
		}
	}
}

// WithRightMin sets the minimum number of letters after the last
// break point.
func WithRightMin(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rightMin = n
		}
	}
}

// WithCacheSize sets the approximate number of words the result
// cache retains.
func WithCacheSize(words int) Option {
	return func(e *Engine) {
		if words > 0 {
			e.words = cache.NewSharded[string, []int](max(1, words/16), cache.StringHasher)
		}
	}
}

// New creates an engine for the given language with an empty pattern
// set. Until patterns are loaded only exceptions produce breaks.
func New(lang language.Tag, opts ...Option) *Engine {
	e := &Engine{
		lang:     lang,
		leftMin:  DefaultLeftMin,
		rightMin: DefaultRightMin,
		words:    cache.NewSharded[string, []int](256, cache.StringHasher),
	}
	e.state.Store(&patternSet{exceptions: map[string][]int{}})
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Language returns the language the engine was created for.
func (e *Engine) Language() language.Tag { return e.lang }

// LeftMin returns the minimum letters kept before the first break.
func (e *Engine) LeftMin() int { return e.leftMin }

// RightMin returns the minimum letters kept after the last break.
func (e *Engine) RightMin() int { return e.rightMin }

// PatternCount returns the number of patterns currently loaded.
func (e *Engine) PatternCount() int { return e.state.Load().count }

// CacheStats returns word-cache effectiveness counters.
func (e *Engine) CacheStats() cache.Stats { return e.words.Stats() }

// SetLogger sets the engine's logger. Pass nil to silence it.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = nopLogger
	}
	e.log.Store(l)
}

func (e *Engine) logger() *slog.Logger {
	if l := e.log.Load(); l != nil {
		return l
	}
	return nopLogger
}

// Breaks returns the byte offsets inside word where a hyphen may be
// inserted, in increasing order. A word that cannot be hyphenated
// (too short, too long, or containing non-letters) yields nil; that
// is a degradation, never an error.
func (e *Engine) Breaks(word string) []int {
	runes := []rune(word)
	n := len(runes)
	if n < 2 {
		return nil
	}
	if n > MaxWordLen {
		e.logger().Warn("hyphenation skipped", "reason", "word too long", "runes", n, "max", MaxWordLen)
		return nil
	}

	folded := make([]rune, n)
	for i, r := range runes {
		if !unicode.IsLetter(r) {
			return nil
		}
		folded[i] = unicode.ToLower(r)
	}
	key := string(folded)

	positions := e.words.GetOrCreate(key, func() []int {
		return e.state.Load().breakPositions(folded, e.leftMin, e.rightMin)
	})
	if len(positions) == 0 {
		return nil
	}

	// Rune positions map onto byte offsets of the original word.
	starts := make([]int, 0, n)
	for i := range word {
		starts = append(starts, i)
	}
	out := make([]int, len(positions))
	for i, p := range positions {
		out[i] = starts[p]
	}
	return out
}

// Weights returns the raw priority value for every inter-letter
// position of word (length one less than the letter count), before
// the left and right minima are applied. Useful for inspecting what
// the loaded patterns decide.
func (e *Engine) Weights(word string) []int {
	runes := []rune(word)
	if len(runes) < 2 || len(runes) > MaxWordLen {
		return nil
	}
	folded := make([]rune, len(runes))
	for i, r := range runes {
		if !unicode.IsLetter(r) {
			return nil
		}
		folded[i] = unicode.ToLower(r)
	}
	return e.state.Load().interGapWeights(folded)
}

// nopHandler silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var nopLogger = slog.New(nopHandler{})
