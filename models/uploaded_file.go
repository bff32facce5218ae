package models

import "time"

// UploadedFile records a media file that is no longer referenced and is due for deletion.
type UploadedFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FilePath  string    `gorm:"size:1024;not null" json:"file_path"` // filesystem path under the media root
	URL       string    `gorm:"size:1024;not null" json:"url"`       // public URL like /media/posts/...
	ExpireAt  time.Time `gorm:"index" json:"expire_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
