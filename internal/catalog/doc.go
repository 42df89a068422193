// Package catalog fetches a board catalog from the upstream JSON API and
// locates a thread in it.
//
// A catalog is an ordered list of pages; each page lists its threads in bump
// order (position 1 was bumped most recently).
package catalog
