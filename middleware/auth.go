package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

const (
	// TokenCookieName is the cookie carrying the session JWT.
	TokenCookieName = "token"
	// LoginPath is where anonymous visitors are sent by LoginRequired.
	LoginPath = "/auth/login/"

	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "current_user"
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextTokenKey keeps the raw token so logout can revoke it.
	ContextTokenKey = "auth_token"
)

// AuthOptional resolves the visitor from the token cookie (or a Bearer header).
// Anonymous requests pass through untouched.
func AuthOptional(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := requestToken(ctx)
		if tokenString == "" || utils.IsTokenBlacklisted(tokenString) {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			ctx.Next()
			return
		}

		var user models.User
		if err := db.First(&user, claims.UserID).Error; err != nil {
			ctx.Next()
			return
		}

		ctx.Set(ContextUserKey, &user)
		ctx.Set(ContextUserIDKey, user.ID)
		ctx.Set(ContextUsernameKey, user.Username)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Next()
	}
}

// LoginRequired redirects anonymous visitors to the login page with a next parameter.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) == nil {
			ctx.Redirect(http.StatusFound, LoginURL(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(ctx *gin.Context) *models.User {
	v, ok := ctx.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// LoginURL builds /auth/login/?next=<next>, leaving slashes readable.
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// SafeNext keeps only local absolute paths, falling back to "/".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func requestToken(ctx *gin.Context) string {
	if cookie, err := ctx.Cookie(TokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
