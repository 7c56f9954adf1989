// Package search provides ecology-biased web search and the plain-text
// rendering of its results.
package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Result is a single ranked hit
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DomainTerms are the keywords that mark a query as already on topic
var DomainTerms = []string{"plant", "ecology", "garden", "farm", "soil", "crop"}

const (
	domainPrefix = "ecology "
	noResults    = "No search results found."
	header       = "Search Results:\n\n"
)

// BiasQuery trims the query and prefixes "ecology " unless it already
// mentions one of DomainTerms.
func BiasQuery(query string) string {
	q := strings.TrimSpace(query)
	lower := strings.ToLower(q)
	for _, term := range DomainTerms {
		if strings.Contains(lower, term) {
			return q
		}
	}
	return domainPrefix + q
}

// Format renders results as a numbered block:
//
//	Search Results:
//
//	1. title
//	   url
//	   description
//
// Line breaks inside fields are flattened so every entry keeps its shape.
func Format(results []Result) string {
	if len(results) == 0 {
		return noResults
	}

	var b strings.Builder
	b.WriteString(header)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, flatten(r.Title))
		fmt.Fprintf(&b, "   %s\n", flatten(r.URL))
		fmt.Fprintf(&b, "   %s\n\n", flatten(r.Description))
	}
	return b.String()
}

var entryLine = regexp.MustCompile(`^\d+\. `)

// CountEntries returns the number of entries in a block produced by Format
func CountEntries(block string) int {
	if !strings.HasPrefix(block, header) {
		return 0
	}

	n := 0
	for _, line := range strings.Split(strings.TrimPrefix(block, header), "\n") {
		if entryLine.MatchString(line) {
			n++
		}
	}
	return n
}

func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
