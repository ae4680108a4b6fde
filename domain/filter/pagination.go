package filter

const (
	DefaultPage     = 1
	MinPageSize     = 1
	MaxPageSize     = 100
	MinSearchLimit  = 10
	MaxSearchLimit  = 100
	MinSearchOffset = 0
)

// Pagination is a page/limit pair that has already been clamped. Out-of-range input is never
// rejected; it is moved to the nearest valid boundary.
type Pagination struct {
	Page  int
	Limit int
}

func NewPagination(page, limit int64) Pagination {
	return Pagination{
		Page:  int(clamp(page, DefaultPage, maxInt)),
		Limit: int(clamp(limit, MinPageSize, MaxPageSize)),
	}
}

func (p Pagination) GetOffset() int {
	return (p.Page - 1) * p.Limit
}

func (p Pagination) GetPageSize() int {
	return p.Limit
}

// Window is the limit/offset pair used by message search.
type Window struct {
	Limit  int
	Offset int
}

func NewWindow(limit, offset int64) Window {
	return Window{
		Limit:  int(clamp(limit, MinSearchLimit, MaxSearchLimit)),
		Offset: int(clamp(offset, MinSearchOffset, maxInt)),
	}
}

const maxInt = int64(^uint32(0) >> 1)

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
