// Package listfield decodes cells that textually encode a list of strings.
//
// Source extracts serialize list columns (developers, genres, libraries) with
// inconsistent quoting, including typographic quotes and bare comma lists.
// Parse never fails: when the strict literal grammar rejects a value it falls
// back to bracket stripping and comma splitting.
package listfield

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"gamecat/pkg/cell"
)

// quote characters stripped from fallback tokens, ASCII and typographic
const quoteRunes = "'\"`‘’‚‛“”„‟´"

var absentTokens = map[string]struct{}{
	"nan":  {},
	"none": {},
	"[]":   {},
	"na":   {},
	"n/a":  {},
}

// Parse decodes a raw cell into an ordered sequence. The result is never nil.
func Parse(v cell.Value) []string {
	switch v.Kind() {
	case cell.KindAbsent:
		return []string{}
	case cell.KindTextSequence:
		seq, _ := v.Sequence()
		if seq == nil {
			return []string{}
		}
		return seq
	}
	return ParseText(v.Text())
}

// ParseText decodes list-like text. See Parse.
func ParseText(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || isAbsentToken(s) {
		return []string{}
	}
	if items, ok := parseLiteral(s); ok {
		return items
	}
	return splitFallback(s)
}

func isAbsentToken(s string) bool {
	// every absent token is at most three runes long
	if len(s) > 8 {
		return false
	}
	_, ok := absentTokens[cases.Fold().String(s)]
	return ok
}

// splitFallback strips one bracket pair and splits on commas
func splitFallback(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")

	out := []string{}
	for _, part := range strings.Split(s, ",") {
		tok := strings.TrimFunc(part, isQuoteOrSpace)
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func isQuoteOrSpace(r rune) bool {
	return unicode.IsSpace(r) || strings.ContainsRune(quoteRunes, r)
}
