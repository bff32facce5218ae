package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/utils"
)

const htmlContentType = "text/html; charset=utf-8"

// View renders pages from a parsed template set.
type View struct {
	set multitemplate.Render
}

// NewView wraps a template set built by templates.Load.
func NewView(set multitemplate.Render) *View {
	return &View{set: set}
}

// Bytes renders page name into memory, adding the visitor and request path to data.
func (v *View) Bytes(ctx *gin.Context, name string, data gin.H) ([]byte, error) {
	tmpl, ok := v.set[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	if data == nil {
		data = gin.H{}
	}
	data["path"] = ctx.Request.URL.Path
	if user := middleware.CurrentUser(ctx); user != nil {
		data["user"] = user
		data["is_admin"] = isAdmin(ctx)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// HTML renders page name with status. A failed render becomes a 500 page.
func (v *View) HTML(ctx *gin.Context, status int, name string, data gin.H) {
	b, err := v.Bytes(ctx, name, data)
	if err != nil {
		v.ServerError(ctx, err)
		return
	}
	ctx.Data(status, htmlContentType, b)
}

// NotFound renders core/404.html and stops the chain.
func (v *View) NotFound(ctx *gin.Context) {
	v.HTML(ctx, http.StatusNotFound, "core/404.html", nil)
	ctx.Abort()
}

// ServerError logs err and renders core/500.html.
func (v *View) ServerError(ctx *gin.Context, err error) {
	utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "err", err)
	b, rerr := v.Bytes(ctx, "core/500.html", nil)
	if rerr != nil {
		ctx.String(http.StatusInternalServerError, "Internal Server Error")
	} else {
		ctx.Data(http.StatusInternalServerError, htmlContentType, b)
	}
	ctx.Abort()
}

func isAdmin(ctx *gin.Context) bool {
	user := middleware.CurrentUser(ctx)
	if user == nil {
		return false
	}
	for _, u := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(u), user.Username) {
			return true
		}
	}
	return false
}
