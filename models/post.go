package models

import (
	"strings"
	"time"
)

// PostOrder is the default listing order: newest first.
const PostOrder = "pub_date DESC, id DESC"

// Post is a user-authored text entry, optionally tagged with a group and an image.
type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"index;autoCreateTime" json:"pub_date"`
	AuthorID uint      `gorm:"index;not null" json:"author_id"`
	GroupID  *uint     `gorm:"index" json:"group_id"`
	// Image is a path relative to the media root, e.g. "posts/small.gif".
	Image    string    `gorm:"size:255" json:"image"`
	Author   User      `gorm:"foreignKey:AuthorID" json:"author"`
	Group    *Group    `json:"group,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// Excerpt returns at most n runes of the text.
func (p Post) Excerpt(n int) string {
	rs := []rune(strings.TrimSpace(p.Text))
	if len(rs) <= n {
		return string(rs)
	}
	return string(rs[:n]) + "…"
}
