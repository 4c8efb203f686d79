package booking

import "errors"

// Gate rejections, in the order the state machine checks them. Each maps
// to exactly one user-facing reply; none of them is retried.
var (
	ErrNotPublished = errors.New("activity not published")
	ErrNotBound     = errors.New("student id not bound")
	ErrNotStarted   = errors.New("booking has not started")
	ErrEnded        = errors.New("booking has ended")
	ErrSoldOut      = errors.New("tickets sold out")
	ErrNoTicket     = errors.New("no valid ticket in hand")

	// ErrBusy means another request for the same (student, activity) is in
	// flight, or the store kept failing transiently; surfaced as a generic
	// "service busy" reply.
	ErrBusy = errors.New("service busy, try again")
)
