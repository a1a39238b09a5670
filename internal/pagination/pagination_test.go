package pagination_test

import (
	"errors"
	"net/url"
	"testing"

	"pidmr/internal/pagination"
	"pidmr/internal/provider"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    pagination.Params
		wantErr bool
	}{
		{name: "defaults", query: "", want: pagination.Params{Page: 1, Size: 10}},
		{name: "explicit", query: "page=3&size=25", want: pagination.Params{Page: 3, Size: 25}},
		{name: "zero page", query: "page=0", wantErr: true},
		{name: "negative size", query: "size=-1", wantErr: true},
		{name: "non numeric page", query: "page=abc", wantErr: true},
		{name: "size above max", query: "size=101", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatalf("parse query: %v", err)
			}
			params, err := pagination.Parse(values, 10, 100)
			if tt.wantErr {
				if !errors.Is(err, provider.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if params != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, params)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	params := pagination.Params{Page: 3, Size: 10}
	if got := params.Offset(); got != 20 {
		t.Fatalf("expected offset 20, got %d", got)
	}
}

func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(pagination.Params{Page: 2, Size: 10}, 10, 25)
	if meta.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", meta.TotalPages)
	}
	if meta.TotalElements != 25 || meta.NumberOfPage != 2 || meta.SizeOfPage != 10 {
		t.Fatalf("unexpected meta: %+v", meta)
	}

	meta = pagination.NewMeta(pagination.Params{Page: 1, Size: 10}, 0, 0)
	if meta.TotalPages != 0 {
		t.Fatalf("expected 0 total pages for empty listing, got %d", meta.TotalPages)
	}
}

func TestLinks(t *testing.T) {
	requestURL, err := url.Parse("http://localhost:7465/v1/providers?status=approved&page=2&size=10")
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	params := pagination.Params{Page: 2, Size: 10}
	meta := pagination.NewMeta(params, 10, 35)

	links := pagination.Links(requestURL, params, meta)

	got := map[string]string{}
	for _, link := range links {
		got[link.Rel] = link.Href
	}
	if len(got) != 5 {
		t.Fatalf("expected self, first, prev, next and last, got %v", got)
	}

	wantPages := map[string]string{
		"self":  "page=2",
		"first": "page=1",
		"prev":  "page=1",
		"next":  "page=3",
		"last":  "page=4",
	}
	for rel, fragment := range wantPages {
		href, ok := got[rel]
		if !ok {
			t.Fatalf("missing %s link", rel)
		}
		parsed, err := url.Parse(href)
		if err != nil {
			t.Fatalf("parse %s link: %v", rel, err)
		}
		if q := "page=" + parsed.Query().Get("page"); q != fragment {
			t.Fatalf("%s link: expected %s, got %s", rel, fragment, q)
		}
		if parsed.Query().Get("status") != "approved" {
			t.Fatalf("%s link dropped unrelated query params: %s", rel, href)
		}
	}
}

func TestLinksSinglePage(t *testing.T) {
	requestURL, _ := url.Parse("http://localhost:7465/v1/providers")
	params := pagination.Params{Page: 1, Size: 10}
	meta := pagination.NewMeta(params, 3, 3)

	links := pagination.Links(requestURL, params, meta)
	if len(links) != 1 || links[0].Rel != "self" {
		t.Fatalf("expected only a self link, got %v", links)
	}
}
