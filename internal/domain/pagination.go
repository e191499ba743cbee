package domain

type Pagination struct {
	Page     int
	PageSize int
}

func (f Pagination) Limit() int {
	return f.PageSize
}

func (f Pagination) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Metadata describes the page window a listing query produced.
type Metadata struct {
	CurrentPage  int
	FirstPage    int
	LastPage     int
	PageSize     int
	TotalRecords int
}

// Metadata derives the listing metadata for the given total record count.
func (f Pagination) Metadata(totalRecords int) Metadata {
	return Metadata{
		CurrentPage:  f.Page,
		FirstPage:    1,
		LastPage:     (totalRecords + f.PageSize - 1) / f.PageSize,
		PageSize:     f.PageSize,
		TotalRecords: totalRecords,
	}
}
