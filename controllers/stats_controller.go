package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// StatsController provides site statistics such as counts and today's page views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the site.
func (s *StatsController) GetStats(ctx *gin.Context) {
	counts := map[string]interface{}{
		"user_count":    &models.User{},
		"post_count":    &models.Post{},
		"comment_count": &models.Comment{},
		"group_count":   &models.Group{},
		"follow_count":  &models.Follow{},
	}
	data := gin.H{}
	for key, model := range counts {
		var n int64
		if err := s.db.Model(model).Count(&n).Error; err != nil {
			// Fallback to 0 instead of failing the whole endpoint
			utils.Sugar.Warnw("stats count failed", "key", key, "err", err)
			n = 0
		}
		data[key] = n
	}

	var todayViews int64
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", models.Day(time.Now())).
		Select("COALESCE(SUM(count),0)").
		Scan(&todayViews).Error; err != nil {
		todayViews = 0
	}
	data["today_page_views"] = todayViews

	utils.Success(ctx, data)
}
