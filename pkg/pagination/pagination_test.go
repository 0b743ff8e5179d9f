package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 12))
	assert.Equal(t, 24, Offset(3, 12))
	assert.Equal(t, 0, Offset(0, 12))
}

func TestOffset_SaturatesInsteadOfOverflowing(t *testing.T) {
	off := Offset(math.MaxInt, 12)
	assert.GreaterOrEqual(t, off, 0)
	assert.Equal(t, math.MaxInt-12, off)

	last := MaxPage(12)
	assert.Equal(t, (last-1)*12, Offset(last, 12))
	assert.Equal(t, math.MaxInt-12, Offset(last+1, 12))

	start, end := Window(math.MaxInt, 12, 30)
	assert.Equal(t, 30, start)
	assert.Equal(t, 30, end)
}

func TestNew_ExactMultiple(t *testing.T) {
	p := New(1, 10, 30)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)
	assert.Equal(t, 10, p.Limit)
}

func TestNew_Remainder(t *testing.T) {
	p := New(3, 10, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
}

func TestNew_Empty(t *testing.T) {
	p := New(1, 12, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, int64(0), p.TotalCount)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)
}

func TestNew_PastLastPage(t *testing.T) {
	p := New(5, 10, 25)
	assert.Equal(t, 5, p.CurrentPage)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
}

func TestNew_TotalPagesIsCeiling(t *testing.T) {
	for total := int64(0); total <= 50; total++ {
		for _, limit := range []int{1, 3, 7, 12} {
			p := New(1, limit, total)
			want := int((total + int64(limit) - 1) / int64(limit))
			assert.Equal(t, want, p.TotalPages, "total=%d limit=%d", total, limit)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name              string
		page, limit, size int
		start, end        int
	}{
		{"first page", 1, 10, 25, 0, 10},
		{"last partial page", 3, 10, 25, 20, 25},
		{"past the end", 4, 10, 25, 25, 25},
		{"empty", 1, 10, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Window(tt.page, tt.limit, tt.size)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}
