package session

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyWatched = errors.New("match already in watchlist")
	ErrInFlight       = errors.New("a save for this match is already in progress")
	ErrNotWatched     = errors.New("match is not in the watchlist")
	ErrNotUpdated     = errors.New("server updated no rows")
	errNoneInserted   = errors.New("server inserted no rows")
)

// ValidationError is a request rejected before any remote call
type ValidationError struct {
	Op  string
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// AnomalyError is a well-formed response with implausible values, such as
// deleting more rows than requested
type AnomalyError struct {
	Op        string
	Requested int
	Reported  int
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("%s: server reported %d rows for %d requested", e.Op, e.Reported, e.Requested)
}
