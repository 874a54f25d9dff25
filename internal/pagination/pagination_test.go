package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/?", 1, 20},
		{"explicit", "/?page=3&limit=50", 3, 50},
		{"limit capped", "/?limit=500", 1, 100},
		{"invalid ignored", "/?page=abc&limit=-2", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			p := ParseParams(r)
			if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d",
					p.Page, p.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	p := Params{Page: 2, Limit: 10}

	start, end := p.Bounds(25)
	if start != 10 || end != 20 {
		t.Errorf("expected [10,20), got [%d,%d)", start, end)
	}

	start, end = p.Bounds(12)
	if start != 10 || end != 12 {
		t.Errorf("expected [10,12), got [%d,%d)", start, end)
	}

	start, end = p.Bounds(5)
	if start != 5 || end != 5 {
		t.Errorf("out-of-range page should be empty, got [%d,%d)", start, end)
	}
}

func TestCalculateMeta(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	meta := p.CalculateMeta(25)

	if meta.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", meta.TotalPages)
	}
	if !meta.HasNext || !meta.HasPrevious {
		t.Errorf("expected both neighbors, got next=%v prev=%v", meta.HasNext, meta.HasPrevious)
	}

	first := Params{Page: 1, Limit: 10}
	empty := first.CalculateMeta(0)
	if empty.TotalPages != 1 || empty.HasNext {
		t.Errorf("empty set should have one page and no next: %+v", empty)
	}
}
