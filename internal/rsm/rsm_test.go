package rsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func TestWindow_ResolvesRequests(t *testing.T) {
	const count = 57

	cases := []struct {
		name      string
		req       Request
		wantSkip  int
		wantLimit int
	}{
		{"after cursor", Request{Max: 10, After: strPtr("19")}, 20, 10},
		{"before cursor", Request{Max: 10, Before: strPtr("30")}, 20, 10},
		{"before near start clamps", Request{Max: 10, Before: strPtr("5")}, 0, 5},
		{"want last page", Request{Max: 10, WantLast: true}, 47, 10},
		{"no cursor no index", Request{Max: 10}, 0, 10},
		{"absolute index", Request{Max: 10, Index: intPtr(30)}, 30, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			win, err := tc.req.Window(count)
			require.NoError(t, err)
			require.Equal(t, tc.wantSkip, win.Skip)
			require.Equal(t, tc.wantLimit, win.Limit)
		})
	}
}

func TestWindow_AfterBeyondCountIsLegal(t *testing.T) {
	win, err := Request{Max: 10, After: strPtr("99")}.Window(57)
	require.NoError(t, err)
	require.Equal(t, 100, win.Skip)
}

func TestWindow_WantLastSmallCount(t *testing.T) {
	win, err := Request{Max: 10, WantLast: true}.Window(3)
	require.NoError(t, err)
	require.Equal(t, 0, win.Skip)
	require.Equal(t, 10, win.Limit)
}

func TestWindow_InvalidInputs(t *testing.T) {
	_, err := Request{Max: 0}.Window(10)
	require.Error(t, err)

	_, err = Request{Max: 10, After: strPtr("abc")}.Window(10)
	require.Error(t, err)

	_, err = Request{Max: 10, Before: strPtr("-1")}.Window(10)
	require.Error(t, err)
}

// The count handed to Window may already be stale by the time the store
// serves the window; the resolution must stay deterministic regardless.
func TestWindow_StaleCountStaysDeterministic(t *testing.T) {
	win, err := Request{Max: 10, WantLast: true}.Window(5)
	require.NoError(t, err)
	require.Equal(t, Window{Skip: 0, Limit: 10}, win)

	// Cursor-relative windows do not depend on count at all.
	win, err = Request{Max: 10, After: strPtr("19")}.Window(0)
	require.NoError(t, err)
	require.Equal(t, Window{Skip: 20, Limit: 10}, win)
}

func TestResult_Cursors(t *testing.T) {
	res := Window{Skip: 20, Limit: 10}.Result(57, 10)
	require.Equal(t, 57, res.Count)
	require.Equal(t, 20, res.Index)
	require.Equal(t, "20", *res.First)
	require.Equal(t, "29", *res.Last)
}

func TestResult_EmptyPageHasNoCursors(t *testing.T) {
	res := Window{Skip: 100, Limit: 10}.Result(57, 0)
	require.Equal(t, 57, res.Count)
	require.Equal(t, 100, res.Index)
	require.Nil(t, res.First)
	require.Nil(t, res.Last)
}
