// Package utils provides small parsing helpers shared by the HTTP and
// service layers. They know nothing about marketplace rules.
package utils

import "strconv"

// Catalog paging bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a 1-based window over a listing.
type Page struct {
	Number int
	Size   int
}

// NewPage bounds number to at least 1 and size to [1, MaxPageSize]. A size
// below 1 means DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

// ParsePage reads the page and page_size query values. Missing or malformed
// values fall back to the first page of DefaultPageSize rows.
//
// Example:
//
//	utils.ParsePage("3", "50")  // {3 50}
//	utils.ParsePage("0", "500") // {1 100}
//	utils.ParsePage("x", "")    // {1 20}
func ParsePage(number, size string) Page {
	return NewPage(atoiDefault(number, 1), atoiDefault(size, DefaultPageSize))
}

// Offset is the number of rows before the page.
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// Count returns how many pages total rows fill.
func (p Page) Count(total int64) int {
	if total <= 0 || p.Size <= 0 {
		return 0
	}
	return int((total + int64(p.Size) - 1) / int64(p.Size))
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
