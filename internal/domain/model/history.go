package model

import "time"

// HistoryFilter bounds a history query. Nil bounds are open; set bounds are
// inclusive.
type HistoryFilter struct {
	Start *time.Time
	End   *time.Time
}

// HistoryPage is one offset-addressed slice of the descending-time-ordered
// reading log, along with the size of the whole filtered set.
type HistoryPage struct {
	Readings []SensorReading
	Total    int64
	Page     int
	PageSize int
}

// TotalPages returns the number of pages needed to cover Total at PageSize.
func (p HistoryPage) TotalPages() int64 {
	if p.PageSize <= 0 {
		return 0
	}
	size := int64(p.PageSize)
	return (p.Total + size - 1) / size
}
