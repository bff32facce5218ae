package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// APIController exposes read-only JSON views of posts and groups.
type APIController struct {
	db *gorm.DB
}

// NewAPIController creates a new APIController instance.
func NewAPIController(db *gorm.DB) *APIController {
	return &APIController{db: db}
}

// ListPosts returns posts newest first, paginated like the HTML index.
func (a *APIController) ListPosts(ctx *gin.Context) {
	var posts []models.Post
	query := a.db.Model(&models.Post{}).Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), config.Get().PostsPerPage, &posts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to list posts")
		return
	}
	utils.SuccessPage(ctx, posts, page)
}

// GetPost returns a single post with its comments.
func (a *APIController) GetPost(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	var post models.Post
	err = a.db.Preload("Author").Preload("Group").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("created ASC, id ASC") }).
		Preload("Comments.Author").
		First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load post")
		return
	}
	utils.Success(ctx, gin.H{"post": post})
}

// ListGroups returns every group ordered by title.
func (a *APIController) ListGroups(ctx *gin.Context) {
	var groups []models.Group
	if err := a.db.Order("title").Find(&groups).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list groups")
		return
	}
	utils.Success(ctx, gin.H{"items": groups})
}

// GroupPosts returns the posts of one group, paginated.
func (a *APIController) GroupPosts(ctx *gin.Context) {
	var group models.Group
	err := a.db.Where("slug = ?", ctx.Param("slug")).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40402, "group not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load group")
		return
	}

	var posts []models.Post
	query := a.db.Model(&models.Post{}).Where("group_id = ?", group.ID).
		Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), config.Get().PostsPerPage, &posts)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to list group posts")
		return
	}
	utils.SuccessPage(ctx, posts, page)
}
