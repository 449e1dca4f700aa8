package query_test

import (
	"solo/query"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected query.Page
		wantErr  bool
	}{
		{
			name:     "all segments",
			path:     "1/10/20",
			expected: query.Page{Current: 1, Size: 10, WindowSize: 20},
		},
		{
			name:     "only current page",
			path:     "3",
			expected: query.Page{Current: 3, Size: query.DefaultPageSize, WindowSize: query.DefaultWindowSize},
		},
		{
			name:     "empty path",
			path:     "",
			expected: query.Page{Current: 1, Size: query.DefaultPageSize, WindowSize: query.DefaultWindowSize},
		},
		{
			name:     "surrounding slashes",
			path:     "/2/5/",
			expected: query.Page{Current: 2, Size: 5, WindowSize: query.DefaultWindowSize},
		},
		{
			name:    "not a number",
			path:    "one/10/20",
			wantErr: true,
		},
		{
			name:    "zero page",
			path:    "0/10/20",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := query.ParsePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, page)
		})
	}
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, query.Page{Current: 1, Size: 10}.Offset())
	assert.Equal(t, 20, query.Page{Current: 3, Size: 10}.Offset())
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, query.PageCount(0, 10))
	assert.Equal(t, 1, query.PageCount(10, 10))
	assert.Equal(t, 2, query.PageCount(11, 10))
	assert.Equal(t, 0, query.PageCount(5, 0))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		pageCount int
		window    int
		expected  []int
	}{
		{
			name:      "fewer pages than window",
			current:   1,
			pageCount: 3,
			window:    5,
			expected:  []int{1, 2, 3},
		},
		{
			name:      "no pages",
			current:   1,
			pageCount: 0,
			window:    5,
			expected:  []int{},
		},
		{
			name:      "window at start",
			current:   1,
			pageCount: 10,
			window:    5,
			expected:  []int{1, 2, 3, 4, 5},
		},
		{
			name:      "window centred",
			current:   6,
			pageCount: 10,
			window:    5,
			expected:  []int{5, 6, 7, 8, 9},
		},
		{
			name:      "window clamped at end",
			current:   10,
			pageCount: 10,
			window:    5,
			expected:  []int{6, 7, 8, 9, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, query.Paginate(tt.current, tt.pageCount, tt.window))
		})
	}
}
