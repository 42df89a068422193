// Package tracker follows one thread through a board catalog and decides
// when to re-fetch the catalog and when to alert.
//
// The poll loop threads a State value through every tick: a tick takes the
// previous State and returns the next one. Nothing else mutates it.
package tracker
