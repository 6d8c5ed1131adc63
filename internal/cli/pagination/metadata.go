package pagination

// Meta describes the window returned by Window.
type Meta struct {
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	Returned   int  `json:"returned"`
	TotalItems int  `json:"total_items"`
	HasNext    bool `json:"has_next"`
}

// NewMeta computes window metadata from parameters and total count.
func NewMeta(p Params, totalCount int) Meta {
	start := min(p.Offset, totalCount)
	end := totalCount
	if p.Limit > 0 {
		end = min(start+p.Limit, totalCount)
	}
	return Meta{
		Offset:     p.Offset,
		Limit:      p.Limit,
		Returned:   end - start,
		TotalItems: totalCount,
		HasNext:    end < totalCount,
	}
}
