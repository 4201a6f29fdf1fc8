// Package record converts between the server's line-oriented frequency
// format and structured records.
//
// A ResultLine looks like "的: A:5, B:3". The text before the first colon is
// the n-gram; the remainder is a comma separated list of file:count pairs.
// The server writes "A: 5" with a space, which parses the same way.
package record

import (
	"sort"
	"strconv"
	"strings"

	"github.com/yildizm/NgramLens/internal/apperr"
)

// Pair is one file:count entry of a line, in wire order
type Pair struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// Record is the parsed form of a ResultLine
type Record struct {
	Ngram       string         `json:"ngram"`
	Frequencies map[string]int `json:"frequencies"`
	Pairs       []Pair         `json:"pairs"`

	// Defects lists pairs that degraded to zero while parsing
	Defects []*apperr.DecodeError `json:"-"`
}

// Parse parses a ResultLine. It never fails: malformed counts become 0 and
// are listed in Defects, so one bad row cannot blank the whole table.
func Parse(line string) Record {
	rec := Record{Frequencies: make(map[string]int)}

	idx := strings.Index(line, ":")
	if idx < 0 {
		rec.Ngram = strings.TrimSpace(line)
		return rec
	}

	rec.Ngram = strings.TrimSpace(line[:idx])
	rest := line[idx+1:]
	if strings.TrimSpace(rest) == "" {
		return rec
	}

	for _, piece := range strings.Split(rest, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		file, countText, found := strings.Cut(piece, ":")
		file = strings.TrimSpace(file)
		countText = strings.TrimSpace(countText)

		count, err := strconv.Atoi(countText)
		switch {
		case !found:
			rec.Defects = append(rec.Defects, &apperr.DecodeError{Line: line, Pair: piece, Reason: "missing count"})
			count = 0
		case err != nil:
			rec.Defects = append(rec.Defects, &apperr.DecodeError{Line: line, Pair: piece, Reason: "count is not an integer"})
			count = 0
		case count < 0:
			rec.Defects = append(rec.Defects, &apperr.DecodeError{Line: line, Pair: piece, Reason: "negative count"})
			count = 0
		}

		if _, dup := rec.Frequencies[file]; !dup {
			rec.Pairs = append(rec.Pairs, Pair{File: file, Count: count})
		}
		rec.Frequencies[file] = count
	}

	// last occurrence wins for duplicated files; keep pairs consistent
	for i := range rec.Pairs {
		rec.Pairs[i].Count = rec.Frequencies[rec.Pairs[i].File]
	}

	return rec
}

// ParseAll parses a batch of lines in order
func ParseAll(lines []string) []Record {
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		records = append(records, Parse(line))
	}
	return records
}

// Lookup returns the count for filename, or 0 when the record has no pair for it
func Lookup(rec Record, filename string) int {
	return rec.Frequencies[filename]
}

// Total sums all per-file counts of a record
func Total(rec Record) int {
	total := 0
	for _, count := range rec.Frequencies {
		total += count
	}
	return total
}

// Format serializes a record back into a ResultLine. Every name in filenames
// is written in that order (absent files as 0); files the record carries
// beyond that list follow in their original order.
func Format(rec Record, filenames []string) string {
	seen := make(map[string]bool, len(filenames))
	parts := make([]string, 0, len(filenames)+len(rec.Pairs))

	for _, name := range filenames {
		if seen[name] {
			continue
		}
		seen[name] = true
		parts = append(parts, name+": "+strconv.Itoa(rec.Frequencies[name]))
	}

	for _, pair := range rec.Pairs {
		if seen[pair.File] {
			continue
		}
		seen[pair.File] = true
		parts = append(parts, pair.File+": "+strconv.Itoa(rec.Frequencies[pair.File]))
	}

	// Frequencies set directly without Pairs
	var extra []string
	for name := range rec.Frequencies {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		parts = append(parts, name+": "+strconv.Itoa(rec.Frequencies[name]))
	}

	return rec.Ngram + ": " + strings.Join(parts, ", ")
}

// Ngram returns the n-gram text of a line without parsing its pairs
func Ngram(line string) string {
	if idx := strings.Index(line, ":"); idx >= 0 {
		return strings.TrimSpace(line[:idx])
	}
	return strings.TrimSpace(line)
}

// Ngrams extracts the n-gram text of every line, in order
func Ngrams(lines []string) []string {
	ngrams := make([]string, 0, len(lines))
	for _, line := range lines {
		ngrams = append(ngrams, Ngram(line))
	}
	return ngrams
}

// Equal reports whether two records carry the same n-gram and the same
// lookup result for every file either of them mentions. An explicit zero and
// an absent file are the same thing.
func Equal(a, b Record) bool {
	if a.Ngram != b.Ngram {
		return false
	}
	for name, count := range a.Frequencies {
		if Lookup(b, name) != count {
			return false
		}
	}
	for name, count := range b.Frequencies {
		if Lookup(a, name) != count {
			return false
		}
	}
	return true
}
