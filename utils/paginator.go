package utils

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Page describes one slice of a paginated listing.
type Page struct {
	Number   int   `json:"page"`
	PerPage  int   `json:"page_size"`
	Count    int64 `json:"total"`
	NumPages int   `json:"total_pages"`
}

// Paginate loads page rawPage of query into dest, perPage rows at a time.
// Unparseable or non-positive pages yield the first page; pages past the end
// yield the last one. An empty result is page 1 of 1.
func Paginate(query *gorm.DB, rawPage string, perPage int, dest interface{}) (Page, error) {
	if perPage <= 0 {
		perPage = 10
	}
	var count int64
	if err := query.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return Page{}, err
	}
	page := Page{PerPage: perPage, Count: count, NumPages: numPages(count, perPage)}
	page.Number = clampPage(rawPage, page.NumPages)

	offset := (page.Number - 1) * perPage
	if err := query.Session(&gorm.Session{}).Offset(offset).Limit(perPage).Find(dest).Error; err != nil {
		return Page{}, err
	}
	return page, nil
}

func numPages(count int64, perPage int) int {
	if count == 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// PageNumber parses a requested page number. Anything unparseable or below 1 is page 1.
func PageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func clampPage(raw string, last int) int {
	n := PageNumber(raw)
	if n > last {
		return last
	}
	return n
}

func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.NumPages }
func (p Page) HasOtherPages() bool {
	return p.NumPages > 1
}
func (p Page) PreviousNumber() int { return p.Number - 1 }
func (p Page) NextNumber() int     { return p.Number + 1 }

// Pages lists every page number, for rendering page links.
func (p Page) Pages() []int {
	out := make([]int, p.NumPages)
	for i := range out {
		out[i] = i + 1
	}
	return out
}
