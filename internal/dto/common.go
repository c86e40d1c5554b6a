package dto

import (
	"errors"
	"time"
)

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
)

// ErrInvalidWindow is returned for a malformed or inverted from/to window
var ErrInvalidWindow = errors.New("from must be before to")

// Pagination holds page/limit query parameters
type Pagination struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SetDefaults fills zero values
func (p *Pagination) SetDefaults() {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
}

// Skip returns the number of documents before the page
func (p Pagination) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// WindowQuery is a from/to query window. Both accept RFC 3339 timestamps or
// YYYY-MM-DD dates (UTC midnight).
type WindowQuery struct {
	From  string `form:"from"`
	To    string `form:"to"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// Window parses the window, defaulting to [now, now+defaultSpan)
func (q WindowQuery) Window(now time.Time, defaultSpan time.Duration) (time.Time, time.Time, error) {
	from, to := now, now.Add(defaultSpan)
	var err error
	if q.From != "" {
		if from, err = parseTime(q.From); err != nil {
			return time.Time{}, time.Time{}, err
		}
		if q.To == "" {
			to = from.Add(defaultSpan)
		}
	}
	if q.To != "" {
		if to, err = parseTime(q.To); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, ErrInvalidWindow
	}
	return from, to, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, errors.New("invalid time " + s + ": use RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

// ListResponse is a page of items
type ListResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}
