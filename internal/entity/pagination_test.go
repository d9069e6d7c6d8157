package entity

import "testing"

func TestNewPaginationInputClamps(t *testing.T) {
	cases := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{5, 10, 5, 10},
		{0, 0, MaxPageSize, 0},
		{MaxPageSize + 1, -3, MaxPageSize, 0},
		{-1, 2, MaxPageSize, 2},
	}
	for _, tc := range cases {
		pg := NewPaginationInput(tc.limit, tc.offset)
		if pg.Limit != tc.wantLimit || pg.Offset != tc.wantOffset {
			t.Errorf("NewPaginationInput(%d, %d) = %+v", tc.limit, tc.offset, *pg)
		}
	}
}
