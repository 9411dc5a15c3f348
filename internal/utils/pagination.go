// Package utils holds small helpers shared by the HTTP and service layers.
package utils

import (
	"strconv"
	"strings"
)

// Paging defaults shared by every list endpoint.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads raw page and page_size query values. Missing or malformed
// values take the defaults; out-of-range ones are clamped into
// [1, ∞) × [1, MaxPageSize].
func ParsePage(number, size string) Page {
	p := Page{
		Number: IntOr(number, 1),
		Size:   IntOr(size, DefaultPageSize),
	}
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Window converts the page into an offset/limit pair. A zero Page means the
// first page of DefaultPageSize rows.
func (p Page) Window() (offset, limit int) {
	n, s := p.Number, p.Size
	if n < 1 {
		n = 1
	}
	if s <= 0 {
		s = DefaultPageSize
	}
	return (n - 1) * s, s
}

// TotalPages reports how many pages of p.Size hold total rows.
func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

// IntOr parses s as a base-10 int, returning def when s is blank or invalid.
func IntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
