package catalog

import "strings"

// Match locates a thread inside a catalog.
type Match struct {
	Page       int
	Position   int // 1-based rank within the page
	PageLength int
	Thread     Thread
}

// Find returns the first thread, in catalog order, whose subject contains
// fragment. Matching is a case-sensitive substring test on the raw subject.
func (c Catalog) Find(fragment string) (Match, bool) {
	for _, p := range c {
		for i, t := range p.Threads {
			if strings.Contains(t.Sub, fragment) {
				return Match{
					Page:       p.Page,
					Position:   i + 1,
					PageLength: len(p.Threads),
					Thread:     t,
				}, true
			}
		}
	}
	return Match{}, false
}
