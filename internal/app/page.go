package app

// Page is one slice of a newest-first listing, shaped like a Laravel paginator.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

func newPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Page[T]{
		Data:        data,
		CurrentPage: page,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
	}
}

func pageOffset(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * perPage
}
