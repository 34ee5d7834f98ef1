package transport

import "github.com/fastygo/taskhub/domain"

// PageMeta is the pagination block embedded in list envelopes.
type PageMeta struct {
	FirstPage   int `json:"first_page"`
	LastPage    int `json:"last_page"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	TotalCount  int `json:"total_count"`
}

func NewPageMeta(p domain.Page) *PageMeta {
	return &PageMeta{
		FirstPage:   1,
		LastPage:    p.LastPage(),
		CurrentPage: p.Number,
		PerPage:     p.PerPage,
		TotalCount:  p.Total,
	}
}
