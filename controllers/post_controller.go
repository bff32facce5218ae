package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// IndexCachePrefix prefixes every cached rendering of the main page.
const IndexCachePrefix = "cache:posts:index:"

// PostController serves the post listings, post pages and the post/comment forms.
type PostController struct {
	db   *gorm.DB
	view *View
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB, view *View) *PostController {
	return &PostController{db: db, view: view}
}

// PostForm carries the submitted post fields back into the form on errors.
type PostForm struct {
	Text  string `form:"text"`
	Group string `form:"group"`
}

// Index lists every post, newest first. Rendered pages are cached briefly.
func (p *PostController) Index(ctx *gin.Context) {
	cfg := config.Get()
	if b, ok := utils.CacheGetBytes(indexCacheKey(ctx, utils.PageNumber(ctx.Query("page")))); ok {
		ctx.Data(http.StatusOK, htmlContentType, b)
		return
	}

	var posts []models.Post
	query := p.db.Model(&models.Post{}).Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), cfg.PostsPerPage, &posts)
	if err != nil {
		p.view.ServerError(ctx, err)
		return
	}

	b, err := p.view.Bytes(ctx, "posts/index.html", gin.H{"posts": posts, "page": page})
	if err != nil {
		p.view.ServerError(ctx, err)
		return
	}
	// Pages past the end are stored under the page actually rendered
	utils.CacheSetBytes(indexCacheKey(ctx, page.Number), b, time.Duration(cfg.IndexCacheSeconds)*time.Second)
	ctx.Data(http.StatusOK, htmlContentType, b)
}

func indexCacheKey(ctx *gin.Context, page int) string {
	var uid uint
	if user := middleware.CurrentUser(ctx); user != nil {
		uid = user.ID
	}
	return fmt.Sprintf("%su=%d:page=%d", IndexCachePrefix, uid, page)
}

// GroupPosts lists the posts of one group.
func (p *PostController) GroupPosts(ctx *gin.Context) {
	var group models.Group
	if err := p.db.Where("slug = ?", ctx.Param("slug")).First(&group).Error; err != nil {
		p.notFoundOr500(ctx, err)
		return
	}

	var posts []models.Post
	query := p.db.Model(&models.Post{}).Where("group_id = ?", group.ID).
		Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), config.Get().PostsPerPage, &posts)
	if err != nil {
		p.view.ServerError(ctx, err)
		return
	}
	p.view.HTML(ctx, http.StatusOK, "posts/group_list.html", gin.H{
		"group": group,
		"posts": posts,
		"page":  page,
	})
}

// Profile lists an author's posts and whether the visitor follows them.
func (p *PostController) Profile(ctx *gin.Context) {
	var author models.User
	if err := p.db.Where("username = ?", ctx.Param("username")).First(&author).Error; err != nil {
		p.notFoundOr500(ctx, err)
		return
	}

	var following bool
	if user := middleware.CurrentUser(ctx); user != nil {
		var err error
		if following, err = models.IsFollowing(p.db, user.ID, author.ID); err != nil {
			p.view.ServerError(ctx, err)
			return
		}
	}

	var posts []models.Post
	query := p.db.Model(&models.Post{}).Where("author_id = ?", author.ID).
		Preload("Author").Preload("Group").Order(models.PostOrder)
	page, err := utils.Paginate(query, ctx.Query("page"), config.Get().PostsPerPage, &posts)
	if err != nil {
		p.view.ServerError(ctx, err)
		return
	}
	p.view.HTML(ctx, http.StatusOK, "posts/profile.html", gin.H{
		"author":     author,
		"following":  following,
		"post_count": page.Count,
		"posts":      posts,
		"page":       page,
	})
}

// PostDetail shows one post with its comments and the comment form.
func (p *PostController) PostDetail(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, true)
	if !ok {
		return
	}

	var comments []models.Comment
	if err := p.db.Where("post_id = ?", post.ID).Preload("Author").
		Order("created ASC, id ASC").Find(&comments).Error; err != nil {
		p.view.ServerError(ctx, err)
		return
	}

	var authorPosts int64
	if err := p.db.Model(&models.Post{}).Where("author_id = ?", post.AuthorID).Count(&authorPosts).Error; err != nil {
		p.view.ServerError(ctx, err)
		return
	}

	p.view.HTML(ctx, http.StatusOK, "posts/post_detail.html", gin.H{
		"post":         post,
		"comments":     comments,
		"author_posts": authorPosts,
	})
}

// PostCreate renders and processes the new post form.
func (p *PostController) PostCreate(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	if ctx.Request.Method != http.MethodPost {
		p.renderForm(ctx, PostForm{}, nil, nil)
		return
	}

	var form PostForm
	if err := ctx.ShouldBind(&form); err != nil {
		p.renderForm(ctx, form, map[string]string{"form": "Invalid form submission."}, nil)
		return
	}
	text, groupID, errs := p.cleanPostForm(form)
	image, imgErr := p.saveUploadedImage(ctx)
	if imgErr != "" {
		errs["image"] = imgErr
	}
	if len(errs) > 0 {
		p.discardImage(image)
		p.renderForm(ctx, form, errs, nil)
		return
	}

	post := models.Post{
		Text:     text,
		AuthorID: user.ID,
		GroupID:  groupID,
		Image:    image,
	}
	if err := p.db.Create(&post).Error; err != nil {
		p.discardImage(image)
		p.view.ServerError(ctx, err)
		return
	}
	utils.InvalidateByPrefix(IndexCachePrefix)
	utils.Sugar.Infow("post created", "post_id", post.ID, "author", user.Username)

	ctx.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// PostEdit lets the author change text, group and image. Others are sent back to the post.
func (p *PostController) PostEdit(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, false)
	if !ok {
		return
	}
	user := middleware.CurrentUser(ctx)
	detailURL := postURL(post.ID)
	if post.AuthorID != user.ID {
		ctx.Redirect(http.StatusFound, detailURL)
		return
	}

	if ctx.Request.Method != http.MethodPost {
		form := PostForm{Text: post.Text}
		if post.GroupID != nil {
			form.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
		}
		p.renderForm(ctx, form, nil, post)
		return
	}

	var form PostForm
	if err := ctx.ShouldBind(&form); err != nil {
		p.renderForm(ctx, form, map[string]string{"form": "Invalid form submission."}, post)
		return
	}
	text, groupID, errs := p.cleanPostForm(form)
	image, imgErr := p.saveUploadedImage(ctx)
	if imgErr != "" {
		errs["image"] = imgErr
	}
	if len(errs) > 0 {
		p.discardImage(image)
		p.renderForm(ctx, form, errs, post)
		return
	}

	oldImage := post.Image
	post.Text = text
	post.GroupID = groupID
	if image != "" {
		post.Image = image
	}
	if err := p.db.Model(post).Select("Text", "GroupID", "Image").Updates(post).Error; err != nil {
		p.discardImage(image)
		p.view.ServerError(ctx, err)
		return
	}
	if image != "" && oldImage != "" && oldImage != image {
		p.scheduleImageCleanup(oldImage)
	}
	utils.InvalidateByPrefix(IndexCachePrefix)

	ctx.Redirect(http.StatusFound, detailURL)
}

// PostDelete removes the author's post together with its comments.
func (p *PostController) PostDelete(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, false)
	if !ok {
		return
	}
	user := middleware.CurrentUser(ctx)
	if post.AuthorID != user.ID {
		ctx.Redirect(http.StatusFound, postURL(post.ID))
		return
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, post.ID).Error
	})
	if err != nil {
		p.view.ServerError(ctx, err)
		return
	}
	if post.Image != "" {
		p.scheduleImageCleanup(post.Image)
	}
	utils.InvalidateByPrefix(IndexCachePrefix)
	utils.Sugar.Infow("post deleted", "post_id", post.ID, "author", user.Username)

	ctx.Redirect(http.StatusFound, "/profile/"+user.Username+"/")
}

// AddComment attaches a comment to a post. Empty comments are dropped silently.
func (p *PostController) AddComment(ctx *gin.Context) {
	post, ok := p.loadPost(ctx, false)
	if !ok {
		return
	}
	text := strings.TrimSpace(ctx.PostForm("text"))
	if text != "" {
		comment := models.Comment{
			PostID:   post.ID,
			AuthorID: middleware.CurrentUser(ctx).ID,
			Text:     text,
		}
		if err := p.db.Create(&comment).Error; err != nil {
			p.view.ServerError(ctx, err)
			return
		}
	}
	ctx.Redirect(http.StatusFound, postURL(post.ID))
}

func (p *PostController) loadPost(ctx *gin.Context, withRelations bool) (*models.Post, bool) {
	id, err := strconv.ParseUint(ctx.Param("post_id"), 10, 64)
	if err != nil {
		p.view.NotFound(ctx)
		return nil, false
	}
	query := p.db
	if withRelations {
		query = query.Preload("Author").Preload("Group")
	}
	var post models.Post
	if err := query.First(&post, id).Error; err != nil {
		p.notFoundOr500(ctx, err)
		return nil, false
	}
	return &post, true
}

func (p *PostController) notFoundOr500(ctx *gin.Context, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p.view.NotFound(ctx)
		return
	}
	p.view.ServerError(ctx, err)
}

// cleanPostForm returns the trimmed text, the chosen group and field errors.
func (p *PostController) cleanPostForm(form PostForm) (string, *uint, map[string]string) {
	errs := map[string]string{}
	text := strings.TrimSpace(form.Text)
	if text == "" {
		errs["text"] = "This field is required."
	}

	var groupID *uint
	if raw := strings.TrimSpace(form.Group); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		var count int64
		if err == nil {
			err = p.db.Model(&models.Group{}).Where("id = ?", id).Count(&count).Error
		}
		if err != nil || count == 0 {
			errs["group"] = "Select a valid choice. That choice is not one of the available choices."
		} else {
			gid := uint(id)
			groupID = &gid
		}
	}
	return text, groupID, errs
}

// saveUploadedImage stores the optional "image" upload and returns its media name
// or a message for the form.
func (p *PostController) saveUploadedImage(ctx *gin.Context) (string, string) {
	header, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", ""
	}
	if err != nil {
		return "", "The submitted data was not a file."
	}
	if header.Size == 0 {
		return "", "The submitted file is empty."
	}
	cfg := config.Get()
	name, err := utils.SaveImage(cfg.MediaRoot, "posts", header, int64(cfg.MediaMaxUploadMB)<<20)
	switch {
	case err == nil:
		return name, ""
	case errors.Is(err, utils.ErrNotImage):
		return "", "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	case errors.Is(err, utils.ErrFileTooLarge):
		return "", fmt.Sprintf("The image must not exceed %d MB.", cfg.MediaMaxUploadMB)
	default:
		utils.Sugar.Errorw("image upload failed", "file", header.Filename, "err", err)
		return "", "The image could not be saved."
	}
}

// discardImage schedules an image saved for a submission that did not go through.
func (p *PostController) discardImage(name string) {
	if name != "" {
		p.scheduleImageCleanup(name)
	}
}

func (p *PostController) scheduleImageCleanup(name string) {
	cfg := config.Get()
	grace := time.Duration(cfg.MediaCleanupGraceMinutes) * time.Minute
	err := utils.ScheduleMediaDeletion(p.db,
		utils.MediaPath(cfg.MediaRoot, name),
		utils.MediaURL(cfg.MediaURL, name),
		grace,
	)
	if err != nil {
		utils.Sugar.Warnw("schedule media cleanup failed", "image", name, "err", err)
	}
}

func (p *PostController) renderForm(ctx *gin.Context, form PostForm, errs map[string]string, post *models.Post) {
	var groups []models.Group
	if err := p.db.Order("title").Find(&groups).Error; err != nil {
		p.view.ServerError(ctx, err)
		return
	}
	p.view.HTML(ctx, http.StatusOK, "posts/create_post.html", gin.H{
		"form":    form,
		"errors":  errs,
		"groups":  groups,
		"post":    post,
		"is_edit": post != nil,
	})
}

func postURL(id uint) string {
	return "/posts/" + strconv.FormatUint(uint64(id), 10) + "/"
}
