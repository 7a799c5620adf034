package pagination

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20}},
		{"page=3&limit=10", Params{Page: 3, Limit: 10}},
		{"page=0&limit=0", Params{Page: 1, Limit: 20}},
		{"page=-2&limit=500", Params{Page: 1, Limit: 100}},
		{"page=abc&limit=xyz", Params{Page: 1, Limit: 20}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, Parse(q))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
	assert.Equal(t, math.MaxInt, Params{Page: 92233720368547760, Limit: 100}.Offset())
}

func TestSlice_HugePage(t *testing.T) {
	q, err := url.ParseQuery("page=92233720368547760&limit=100")
	assert.NoError(t, err)

	page := Slice([]int{1, 2, 3}, Parse(q))
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestSlice(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	first := Slice(all, Params{Page: 1, Limit: 2})
	assert.Equal(t, []int{1, 2}, first.Items)
	assert.Equal(t, Meta{Page: 1, Limit: 2, Total: 5, TotalPages: 3, HasNextPage: true, HasPrevPage: false}, first.Pagination)

	last := Slice(all, Params{Page: 3, Limit: 2})
	assert.Equal(t, []int{5}, last.Items)
	assert.False(t, last.Pagination.HasNextPage)
	assert.True(t, last.Pagination.HasPrevPage)

	beyond := Slice(all, Params{Page: 9, Limit: 2})
	assert.Empty(t, beyond.Items)
	assert.NotNil(t, beyond.Items)
	assert.Equal(t, 3, beyond.Pagination.TotalPages)
}

func TestNew_Empty(t *testing.T) {
	p := New[string](nil, 0, Params{Page: 1, Limit: 20})
	assert.Equal(t, 0, p.Pagination.TotalPages)
	assert.False(t, p.Pagination.HasNextPage)
	assert.NotNil(t, p.Items)
}
