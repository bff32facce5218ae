package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

const followIndexPath = "/follow/"

// FollowController manages subscriptions between users.
type FollowController struct {
	db   *gorm.DB
	view *View
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(db *gorm.DB, view *View) *FollowController {
	return &FollowController{db: db, view: view}
}

// FollowIndex lists posts of the authors the visitor follows.
func (f *FollowController) FollowIndex(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	var posts []models.Post
	query := f.db.Model(&models.Post{}).
		Where("author_id IN (?)", models.FollowedAuthorIDs(f.db, user.ID)).
		Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), config.Get().PostsPerPage, &posts)
	if err != nil {
		f.view.ServerError(ctx, err)
		return
	}
	f.view.HTML(ctx, http.StatusOK, "posts/follow.html", gin.H{"posts": posts, "page": page})
}

// ProfileFollow subscribes the visitor to an author. Repeats and self-follows are no-ops.
func (f *FollowController) ProfileFollow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}
	user := middleware.CurrentUser(ctx)
	if author.ID != user.ID {
		edge := models.Follow{UserID: user.ID, AuthorID: author.ID}
		if err := f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			f.view.ServerError(ctx, err)
			return
		}
	}
	ctx.Redirect(http.StatusFound, followIndexPath)
}

// ProfileUnfollow removes the subscription if there is one.
func (f *FollowController) ProfileUnfollow(ctx *gin.Context) {
	author, ok := f.loadAuthor(ctx)
	if !ok {
		return
	}
	user := middleware.CurrentUser(ctx)
	if err := f.db.Where("user_id = ? AND author_id = ?", user.ID, author.ID).
		Delete(&models.Follow{}).Error; err != nil {
		f.view.ServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, followIndexPath)
}

func (f *FollowController) loadAuthor(ctx *gin.Context) (*models.User, bool) {
	var author models.User
	if err := f.db.Where("username = ?", ctx.Param("username")).First(&author).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			f.view.NotFound(ctx)
		} else {
			f.view.ServerError(ctx, err)
		}
		return nil, false
	}
	return &author, true
}
