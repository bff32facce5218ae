package controllers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// GroupController lets administrators create groups.
type GroupController struct {
	db   *gorm.DB
	view *View
}

// NewGroupController creates a new GroupController instance.
func NewGroupController(db *gorm.DB, view *View) *GroupController {
	return &GroupController{db: db, view: view}
}

// GroupForm is the group creation form.
type GroupForm struct {
	Title       string `form:"title" binding:"required,max=200"`
	Slug        string `form:"slug" binding:"required,max=50"`
	Description string `form:"description"`
}

// GroupCreate renders and processes the group form. Non-admins get a 404.
func (g *GroupController) GroupCreate(ctx *gin.Context) {
	if !isAdmin(ctx) {
		g.view.NotFound(ctx)
		return
	}
	if ctx.Request.Method != http.MethodPost {
		g.render(ctx, GroupForm{}, nil)
		return
	}

	var form GroupForm
	errs := map[string]string{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindingErrors(err)
	}
	form.Title = utils.SanitizePlain(form.Title)
	form.Slug = strings.TrimSpace(form.Slug)
	if _, ok := errs["title"]; !ok && form.Title == "" {
		errs["title"] = "This field is required."
	}
	if _, ok := errs["slug"]; !ok {
		if !slugPattern.MatchString(form.Slug) {
			errs["slug"] = "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
		} else {
			var count int64
			if err := g.db.Model(&models.Group{}).Where("slug = ?", form.Slug).Count(&count).Error; err != nil {
				g.view.ServerError(ctx, err)
				return
			}
			if count > 0 {
				errs["slug"] = "Group with this slug already exists."
			}
		}
	}
	if len(errs) > 0 {
		g.render(ctx, form, errs)
		return
	}

	group := models.Group{
		Title:       form.Title,
		Slug:        form.Slug,
		Description: strings.TrimSpace(form.Description),
	}
	if err := g.db.Create(&group).Error; err != nil {
		g.view.ServerError(ctx, err)
		return
	}
	utils.Sugar.Infow("group created", "slug", group.Slug)
	ctx.Redirect(http.StatusFound, "/group/"+group.Slug+"/")
}

func (g *GroupController) render(ctx *gin.Context, form GroupForm, errs map[string]string) {
	g.view.HTML(ctx, http.StatusOK, "groups/create.html", gin.H{"form": form, "errors": errs})
}
