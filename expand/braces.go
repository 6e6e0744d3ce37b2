package expand

import (
	"strconv"
	"strings"

	"github.com/tv-labs/bash/ast"
)

// braceExpand materializes every {a,b,c} / {1..5} / {01..10..2} run in
// w into the cartesian product of concrete words, left to right,
// mirroring Bash's own expansion order (outermost brace first, nested
// braces expanded recursively within each alternative).
func braceExpand(w *ast.Word) []*ast.Word {
	words := []*ast.Word{{Quote: w.Quote}}
	for _, p := range w.Parts {
		b, ok := p.(*ast.BraceExpand)
		if !ok {
			words = appendPart(words, p)
			continue
		}
		alts := braceAlternatives(b)
		if len(alts) <= 1 {
			words = appendPart(words, p)
			continue
		}
		var next []*ast.Word
		for _, base := range words {
			for _, alt := range alts {
				clone := &ast.Word{Quote: base.Quote, Parts: append(append([]ast.WordPart{}, base.Parts...), alt...)}
				next = append(next, clone)
			}
		}
		words = next
	}
	return words
}

func appendPart(words []*ast.Word, p ast.WordPart) []*ast.Word {
	for _, w := range words {
		w.Parts = append(w.Parts, p)
	}
	return words
}

// braceAlternatives turns one BraceExpand node into its list of
// alternative part-sequences, recursively brace-expanding each list
// alternative so {a,{b,c}} nests correctly.
func braceAlternatives(b *ast.BraceExpand) [][]ast.WordPart {
	if b.IsRange {
		return rangeAlternatives(b)
	}
	var out [][]ast.WordPart
	for _, alt := range b.List {
		for _, expanded := range braceExpand(alt) {
			out = append(out, expanded.Parts)
		}
	}
	return out
}

func rangeAlternatives(b *ast.BraceExpand) [][]ast.WordPart {
	if isNumericRangeEnd(b.Start) && isNumericRangeEnd(b.End) {
		return numericRangeAlternatives(b)
	}
	return charRangeAlternatives(b)
}

func isNumericRangeEnd(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) == -1
}

func numericRangeAlternatives(b *ast.BraceExpand) [][]ast.WordPart {
	start, _ := strconv.Atoi(b.Start)
	end, _ := strconv.Atoi(b.End)
	step := 1
	if b.HasStep {
		if s, err := strconv.Atoi(b.Step); err == nil && s != 0 {
			step = abs(s)
		}
	}
	if start > end {
		step = -step
	}
	width := b.ZeroPad
	var out [][]ast.WordPart
	for n := start; (step > 0 && n <= end) || (step < 0 && n >= end); n += step {
		out = append(out, []ast.WordPart{&ast.Literal{Value: formatPadded(n, width)}})
		if n == end {
			break
		}
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func formatPadded(n, width int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	for len(digits) < width {
		digits = "0" + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func charRangeAlternatives(b *ast.BraceExpand) [][]ast.WordPart {
	if len(b.Start) != 1 || len(b.End) != 1 {
		return nil
	}
	start, end := rune(b.Start[0]), rune(b.End[0])
	step := 1
	if b.HasStep {
		if s, err := strconv.Atoi(b.Step); err == nil && s != 0 {
			step = abs(s)
		}
	}
	if start > end {
		step = -step
	}
	var out [][]ast.WordPart
	for c := start; (step > 0 && c <= end) || (step < 0 && c >= end); c += rune(step) {
		out = append(out, []ast.WordPart{&ast.Literal{Value: string(c)}})
		if c == end {
			break
		}
	}
	return out
}
