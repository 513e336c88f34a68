package chunker

import (
	"regexp"
	"sort"
	"strconv"
)

var pageMarkerPattern = regexp.MustCompile(`\[Page (\d+)\]`)

// PageMap maps character offsets in the original document text to page
// numbers. It is built once from the [Page N] markers before any chunking
// happens, so lookups must always use offsets into the original text.
type PageMap struct {
	offsets []int
	pages   []int
}

// BuildPageMap scans the text for [Page N] markers. A document without
// markers yields an empty map and every lookup degrades to page 1.
func BuildPageMap(text string) PageMap {
	var pm PageMap
	for _, m := range pageMarkerPattern.FindAllStringSubmatchIndex(text, -1) {
		page, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		pm.offsets = append(pm.offsets, m[0])
		pm.pages = append(pm.pages, page)
	}
	return pm
}

// PageFor returns the page of the last marker at or before the given
// offset, or 1 when no marker precedes it.
func (pm PageMap) PageFor(offset int) int {
	i := sort.SearchInts(pm.offsets, offset+1) - 1
	if i < 0 {
		return 1
	}
	return pm.pages[i]
}

// Len reports the number of page markers found
func (pm PageMap) Len() int {
	return len(pm.offsets)
}
