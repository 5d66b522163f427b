package service

import "math"

// Page describes one page of a collection.
type Page struct {
	Number     int
	Size       int
	TotalItems int
}

// LastPage returns the number of the last page. An empty collection has one
// (empty) page.
func (p Page) LastPage() int {
	if p.TotalItems <= 0 || p.Size <= 0 {
		return 1
	}
	return (p.TotalItems + p.Size - 1) / p.Size
}

// Offset returns the number of items before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// HasPrevious reports whether a previous page exists.
func (p Page) HasPrevious() bool {
	return p.Number > 1
}

// HasNext reports whether a next page exists.
func (p Page) HasNext() bool {
	return p.Number < p.LastPage()
}

func newPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, ErrInvalidPage
	}
	// Offset must stay representable.
	if size > 0 && number > math.MaxInt/size {
		return Page{}, ErrInvalidPage
	}
	return Page{Number: number, Size: size}, nil
}
