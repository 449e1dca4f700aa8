// Package query holds paging parameters shared by the store and the console
package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	DefaultPageSize   = 15
	DefaultWindowSize = 20
)

// Page describes a paged request, e.g. /console/links/1/10/20 is page 1,
// 10 items per page and a window of 20 page numbers.
type Page struct {
	Current    int
	Size       int
	WindowSize int
}

// Offset returns the number of rows preceding the current page
func (p Page) Offset() int {
	return (p.Current - 1) * p.Size
}

// ParsePath parses a "current/size/window" path. Missing trailing segments fall
// back to defaults.
func ParsePath(path string) (Page, error) {
	page := Page{Current: 1, Size: DefaultPageSize, WindowSize: DefaultWindowSize}

	parts := lo.Compact(strings.Split(strings.Trim(path, "/"), "/"))
	targets := []*int{&page.Current, &page.Size, &page.WindowSize}

	for i, part := range parts {
		if i >= len(targets) {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("invalid pagination segment %q", part)
		}
		*targets[i] = n
	}

	return page, nil
}

// PageCount returns how many pages of size are needed for total rows
func PageCount(total, size int) int {
	if size < 1 || total < 1 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns the page numbers to show around current. When there are fewer
// pages than the window, all pages are returned.
func Paginate(current, pageCount, windowSize int) []int {
	if pageCount < windowSize {
		return lo.RangeFrom(1, pageCount)
	}

	first := current + 1 - windowSize/2
	if first < 1 {
		first = 1
	}
	if first+windowSize > pageCount {
		first = pageCount - windowSize + 1
	}

	return lo.RangeFrom(first, windowSize)
}
