package chunker

import (
	"regexp"
	"sort"
)

// Boundary patterns for legal document structure. Each matcher is
// independent and yields (offset, kind) pairs; the merged result is sorted
// by offset with duplicates removed, so a position hit by two patterns
// produces a single boundary.
var (
	numberedClausePattern = regexp.MustCompile(`(?m)^\s*\d+\.(?:\d+\.?)*\s+[A-Z]`)
	sectionHeaderPattern  = regexp.MustCompile(`(?mi)^\s*(?:SECTION|ARTICLE|CLAUSE)\s+\d+`)
	scheduleHeaderPattern = regexp.MustCompile(`(?mi)^\s*(?:SCHEDULE|APPENDIX|ANNEX)\s+[A-Z0-9]`)

	clauseNumberPattern = regexp.MustCompile(`^\s*(\d+(?:\.\d+)*)`)
)

type boundaryKind int

const (
	kindNumberedClause boundaryKind = iota
	kindSectionHeader
	kindScheduleHeader
)

type boundary struct {
	offset int
	kind   boundaryKind
}

type boundaryMatcher func(text string) []boundary

func patternMatcher(re *regexp.Regexp, kind boundaryKind) boundaryMatcher {
	return func(text string) []boundary {
		locs := re.FindAllStringIndex(text, -1)
		matches := make([]boundary, 0, len(locs))
		for _, loc := range locs {
			matches = append(matches, boundary{offset: loc[0], kind: kind})
		}
		return matches
	}
}

var boundaryMatchers = []boundaryMatcher{
	patternMatcher(numberedClausePattern, kindNumberedClause),
	patternMatcher(sectionHeaderPattern, kindSectionHeader),
	patternMatcher(scheduleHeaderPattern, kindScheduleHeader),
}

// findBoundaries runs every matcher and merges the hits by ascending
// offset, deduplicated by offset.
func findBoundaries(text string) []boundary {
	var all []boundary
	for _, match := range boundaryMatchers {
		all = append(all, match(text)...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].offset < all[j].offset })

	merged := all[:0]
	lastOffset := -1
	for _, b := range all {
		if b.offset == lastOffset {
			continue
		}
		merged = append(merged, b)
		lastOffset = b.offset
	}
	return merged
}

// extractClauseNumber pulls the leading numeral sequence ("3.2") from a
// clause chunk, or returns the empty string.
func extractClauseNumber(text string) string {
	m := clauseNumberPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
