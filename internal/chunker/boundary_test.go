package chunker

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindBoundaries_AllKinds(t *testing.T) {
	text := strings.Join([]string{
		"RECITALS",
		"1. Definitions. Words defined in this clause apply throughout.",
		"SECTION 2 INTERPRETATION",
		"Headings are for convenience only and do not affect construction.",
		"2.1 Assignment. Neither party may assign without consent.",
		"SCHEDULE A PAYMENT TERMS",
	}, "\n")

	boundaries := findBoundaries(text)
	require.Len(t, boundaries, 4)

	// Ascending offset order regardless of which pattern matched
	assert.True(t, sort.SliceIsSorted(boundaries, func(i, j int) bool {
		return boundaries[i].offset < boundaries[j].offset
	}))

	seen := map[int]bool{}
	for _, b := range boundaries {
		assert.False(t, seen[b.offset], "duplicate boundary offset %d", b.offset)
		seen[b.offset] = true
	}

	kinds := []boundaryKind{boundaries[0].kind, boundaries[1].kind, boundaries[2].kind, boundaries[3].kind}
	assert.Equal(t, []boundaryKind{kindNumberedClause, kindSectionHeader, kindNumberedClause, kindScheduleHeader}, kinds)
}

func TestFindBoundaries_CaseInsensitiveHeaders(t *testing.T) {
	text := "Section 3 Liability\nsome body text\nschedule 2 Rates\nannex B Forms"
	boundaries := findBoundaries(text)
	assert.Len(t, boundaries, 3)
}

func TestFindBoundaries_None(t *testing.T) {
	assert.Empty(t, findBoundaries("Just a letter with no legal structure whatsoever. Kind regards."))
}

func TestNumberedClausePattern(t *testing.T) {
	tests := []struct {
		line    string
		matches bool
	}{
		{"1. Definitions", true},
		{"1.2 Subcontracting", true},
		{"1.2. Subcontracting", true},
		{"10.4.1 Notices", true},
		{"  3. Indented clause", true},
		{"1.Definitions", false}, // no whitespace before the title
		{"1. lowercase title", false},
		{"v1.2 release notes", false}, // not at line start
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.matches, numberedClausePattern.MatchString(tt.line))
		})
	}
}

func TestExtractClauseNumber(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"3.2 Termination for convenience", "3.2"},
		{"1. Definitions", "1"},
		{"  10.4.1 Notices", "10.4.1"},
		{"SCHEDULE A", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractClauseNumber(tt.text))
	}
}
