package models

import "time"

// PageView counts successful page renders per day and request path.
type PageView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"uniqueIndex:idx_page_view_day_path;type:date;not null" json:"date"`
	Path      string    `gorm:"uniqueIndex:idx_page_view_day_path;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Day truncates t to local midnight, the granularity of PageView.Date.
func Day(t time.Time) time.Time {
	t = t.In(time.Local)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
