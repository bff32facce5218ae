package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var untrackedPrefixes = []string{"/api/", "/static/", "/media/", "/auth/"}

// PageViewRecorder records page views per day and path.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only successful HTML page views count
		if c.Request.Method != http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		path := c.Request.URL.Path
		if path == "/health" {
			return
		}
		for _, prefix := range untrackedPrefixes {
			if strings.HasPrefix(path, prefix) {
				return
			}
		}

		if err := RecordPageView(db, path, time.Now()); err != nil {
			utils.Sugar.Warnw("page view record failed", "path", path, "err", err)
		}
	}
}

// RecordPageView bumps the counter for path on the local day of at.
func RecordPageView(db *gorm.DB, path string, at time.Time) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
	}).Create(&models.PageView{Date: models.Day(at), Path: path, Count: 1}).Error
}
