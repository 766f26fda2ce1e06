// Package rsm implements Result Set Management paging: it turns an
// abstract window request (max size plus an absolute index or a relative
// before/after cursor) and a known total count into a concrete skip/limit
// window, and produces the stable first/last cursors a client needs to
// resume from either end.
//
// Cursors are absolute ordinal positions in the full ordered result
// sequence, encoded as decimal strings. They are opaque to clients.
package rsm

import (
	"fmt"
	"strconv"
)

// Request describes one requested page.
type Request struct {
	// Max is the page size. Must be positive.
	Max int
	// Index, when set, is the absolute position the window starts at.
	Index *int
	// After, when set, is a cursor from a prior response; the window
	// starts just past it.
	After *string
	// Before, when set, is a cursor from a prior response; the window
	// ends just before it.
	Before *string
	// WantLast requests the final page when no cursor is given.
	WantLast bool
}

// Result carries the paging metadata of one response.
type Result struct {
	// Count is the total number of matching items at count time. Under
	// concurrent writers it may not agree with the returned window; that
	// is the accepted consistency level, not an error.
	Count int
	// Index is the absolute position the returned window starts at.
	Index int
	// First and Last are the cursors of the first and last returned
	// items. Both are nil when the window came back empty.
	First *string
	Last  *string
}

// Window is a concrete skip/limit pair to hand to the store.
type Window struct {
	Skip  int
	Limit int
}

// Window resolves the request against the total item count.
//
// After wins over Before; a skip past count is legal and yields an empty
// page. A Before cursor close to the start clamps the skip to zero and
// shrinks the limit so the window still ends exactly at the cursor.
// WantLast with no cursor returns the final page.
func (r Request) Window(count int) (Window, error) {
	if r.Max <= 0 {
		return Window{}, fmt.Errorf("rsm: max must be positive, got %d", r.Max)
	}
	limit := r.Max

	switch {
	case r.After != nil:
		after, err := decodeCursor(*r.After)
		if err != nil {
			return Window{}, err
		}
		return Window{Skip: after + 1, Limit: limit}, nil

	case r.Before != nil:
		before, err := decodeCursor(*r.Before)
		if err != nil {
			return Window{}, err
		}
		skip := before - r.Max
		if skip < 0 {
			skip = 0
			limit = before
		}
		return Window{Skip: skip, Limit: limit}, nil

	case r.WantLast:
		skip := count - r.Max
		if skip < 0 {
			skip = 0
		}
		return Window{Skip: skip, Limit: limit}, nil

	default:
		skip := 0
		if r.Index != nil {
			skip = *r.Index
		}
		return Window{Skip: skip, Limit: limit}, nil
	}
}

// Result builds the response metadata for a window that returned the given
// number of items out of count total.
func (w Window) Result(count, returned int) Result {
	res := Result{Count: count, Index: w.Skip}
	if returned > 0 {
		res.First = cursorPtr(w.Skip)
		res.Last = cursorPtr(w.Skip + returned - 1)
	}
	return res
}

// Cursor encodes an absolute position as an opaque cursor string.
func Cursor(position int) string {
	return strconv.Itoa(position)
}

func cursorPtr(position int) *string {
	c := Cursor(position)
	return &c
}

func decodeCursor(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("rsm: invalid cursor %q", s)
	}
	return n, nil
}
