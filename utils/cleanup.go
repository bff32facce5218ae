package utils

import (
	"context"
	"errors"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
)

// ScheduleMediaDeletion records a media file that should be removed after grace.
func ScheduleMediaDeletion(db *gorm.DB, filePath, url string, grace time.Duration) error {
	return db.Create(&models.UploadedFile{
		FilePath: filePath,
		URL:      url,
		ExpireAt: time.Now().Add(grace),
	}).Error
}

// PurgeExpiredMedia deletes up to limit expired files and their records.
// It returns how many records were processed.
func PurgeExpiredMedia(db *gorm.DB, now time.Time, limit int) (int, error) {
	var items []models.UploadedFile
	if err := db.Where("expire_at <= ?", now).Order("expire_at").Limit(limit).Find(&items).Error; err != nil {
		return 0, err
	}
	for _, it := range items {
		if it.FilePath != "" {
			if err := os.Remove(it.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				Sugar.Warnw("media cleaner remove failed", "path", it.FilePath, "err", err)
			}
		}
		// Remove row regardless of file deletion outcome
		if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

// StartMediaCleaner periodically purges expired media until ctx is done.
func StartMediaCleaner(ctx context.Context, db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := PurgeExpiredMedia(db, now, 100)
				if err != nil {
					Sugar.Errorw("media cleaner failed", "err", err)
					continue
				}
				if n > 0 {
					Sugar.Infow("media cleaner purged files", "count", n)
				}
			}
		}
	}()
}
