package domain

// PageLast requests the last page of a result set whatever its size.
const PageLast = -1

// Page describes one slice of a paginated result set.
type Page struct {
	Number  int
	PerPage int
	Total   int
}

// NewPage resolves the requested page number against total items. A number
// outside [1, LastPage] yields ErrInvalidPage.
func NewPage(total, number, perPage int) (Page, error) {
	if perPage <= 0 {
		perPage = 1
	}
	p := Page{Number: number, PerPage: perPage, Total: total}
	if number == PageLast {
		p.Number = p.LastPage()
	}
	if p.Number < 1 || p.Number > p.LastPage() {
		return Page{}, ErrInvalidPage
	}
	return p, nil
}

// LastPage is at least 1 so that an empty result still has a first page.
func (p Page) LastPage() int {
	if p.Total <= 0 || p.PerPage <= 0 {
		return 1
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) Offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.PerPage
}
