package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// ErrSelfFollow is returned when a user tries to subscribe to themselves.
var ErrSelfFollow = errors.New("users cannot follow themselves")

// Follow is a directed subscription edge: UserID follows AuthorID.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_follow_user_author,priority:1" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index;uniqueIndex:idx_follow_user_author,priority:2" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"-"`
}

// BeforeCreate rejects self-follow edges at the model layer.
func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.UserID == f.AuthorID {
		return ErrSelfFollow
	}
	return nil
}

// IsFollowing reports whether userID follows authorID. A user never follows themselves.
func IsFollowing(db *gorm.DB, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	var count int64
	if err := db.Model(&Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FollowedAuthorIDs is a subquery selecting the authors userID follows.
func FollowedAuthorIDs(db *gorm.DB, userID uint) *gorm.DB {
	return db.Model(&Follow{}).Select("author_id").Where("user_id = ?", userID)
}
