package catalog

import (
	"errors"
	"fmt"
)

// ErrNotModified is returned (wrapped in a FetchError) when the API answers
// 304 to an If-Modified-Since request.
var ErrNotModified = errors.New("catalog not modified")

type Kind string

const (
	KindNetwork     Kind = "network"
	KindHTTP        Kind = "http"
	KindDecode      Kind = "decode"
	KindNotModified Kind = "not_modified"
)

// FetchError describes why a catalog could not be obtained.
type FetchError struct {
	Kind   Kind
	Board  string
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog /%s/: %s (status %d): %v", e.Board, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("catalog /%s/: %s: %v", e.Board, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, k Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == k
}
