// Package pagination implements page/size request parameters and the
// hypermedia links returned with paged listings.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	"pidmr/internal/provider"
)

// Params is a validated page request. Pages are one-based.
type Params struct {
	Page int
	Size int
}

// Offset converts the page number to a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Parse reads page and size from query values, applying the default size when
// absent and rejecting values outside bounds.
func Parse(values url.Values, defaultSize, maxSize int) (Params, error) {
	params := Params{Page: 1, Size: defaultSize}

	if raw := values.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Params{}, provider.Wrap(provider.ErrValidation, "pagination", "parse",
				fmt.Sprintf("page must be a positive integer, got %q", raw), nil)
		}
		params.Page = page
	}
	if raw := values.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return Params{}, provider.Wrap(provider.ErrValidation, "pagination", "parse",
				fmt.Sprintf("size must be a positive integer, got %q", raw), nil)
		}
		if size > maxSize {
			return Params{}, provider.Wrap(provider.ErrValidation, "pagination", "parse",
				fmt.Sprintf("size %d exceeds the maximum of %d", size, maxSize), nil)
		}
		params.Size = size
	}
	return params, nil
}

// Meta summarizes one page of a listing.
type Meta struct {
	SizeOfPage    int `json:"size_of_page"`
	NumberOfPage  int `json:"number_of_page"`
	TotalElements int `json:"total_elements"`
	TotalPages    int `json:"total_pages"`
}

// Link is one navigation link in a paged response.
type Link struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

// NewMeta computes page metadata for a listing of total elements.
func NewMeta(params Params, pageLen, total int) Meta {
	totalPages := total / params.Size
	if total%params.Size != 0 {
		totalPages++
	}
	return Meta{
		SizeOfPage:    pageLen,
		NumberOfPage:  params.Page,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}

// Links builds self, first, prev, next and last links for the page described
// by meta, preserving any other query parameters on the request URL.
func Links(requestURL *url.URL, params Params, meta Meta) []Link {
	links := []Link{
		{Href: pageHref(requestURL, params.Page, params.Size), Rel: "self"},
	}
	if meta.TotalPages <= 1 {
		return links
	}

	links = append(links, Link{Href: pageHref(requestURL, 1, params.Size), Rel: "first"})
	if params.Page > 1 {
		links = append(links, Link{Href: pageHref(requestURL, params.Page-1, params.Size), Rel: "prev"})
	}
	if params.Page < meta.TotalPages {
		links = append(links, Link{Href: pageHref(requestURL, params.Page+1, params.Size), Rel: "next"})
	}
	links = append(links, Link{Href: pageHref(requestURL, meta.TotalPages, params.Size), Rel: "last"})
	return links
}

func pageHref(requestURL *url.URL, page, size int) string {
	u := *requestURL
	query := u.Query()
	query.Set("page", strconv.Itoa(page))
	query.Set("size", strconv.Itoa(size))
	u.RawQuery = query.Encode()
	return u.String()
}
