package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

// AuthController handles signup, login and logout with a JWT cookie session.
type AuthController struct {
	db   *gorm.DB
	view *View
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(db *gorm.DB, view *View) *AuthController {
	return &AuthController{db: db, view: view}
}

// SignupForm is the account creation form.
type SignupForm struct {
	FirstName string `form:"first_name" binding:"max=150"`
	LastName  string `form:"last_name" binding:"max=150"`
	Username  string `form:"username" binding:"required,max=150"`
	Email     string `form:"email" binding:"omitempty,email,max=254"`
	Password1 string `form:"password1" binding:"required"`
	Password2 string `form:"password2" binding:"required"`
	CaptchaID string `form:"captcha_id"`
	Captcha   string `form:"captcha"`
}

// Signup renders and processes the account creation form, logging the new user in.
func (a *AuthController) Signup(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodPost {
		a.renderSignup(ctx, SignupForm{}, nil)
		return
	}

	var form SignupForm
	errs := map[string]string{}
	if err := ctx.ShouldBind(&form); err != nil {
		errs = bindingErrors(err)
	}
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.FirstName = utils.SanitizePlain(form.FirstName)
	form.LastName = utils.SanitizePlain(form.LastName)

	if _, ok := errs["username"]; !ok {
		if !validUsername(form.Username) {
			errs["username"] = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
		} else {
			var count int64
			// deleted accounts still hold their username in the unique index
			if err := a.db.Unscoped().Model(&models.User{}).Where("username = ?", form.Username).Count(&count).Error; err != nil {
				a.view.ServerError(ctx, err)
				return
			}
			if count > 0 {
				errs["username"] = "A user with that username already exists."
			}
		}
	}
	if _, ok := errs["password1"]; !ok {
		if err := utils.ValidatePassword(form.Password1); err != nil {
			errs["password1"] = passwordMessage(err)
		} else if isNumeric(form.Password1) {
			errs["password1"] = "This password is entirely numeric."
		}
	}
	if _, ok := errs["password2"]; !ok && form.Password1 != form.Password2 {
		errs["password2"] = "The two password fields didn't match."
	}
	if config.Get().RegisterCaptchaEnabled && !utils.VerifyCaptcha(strings.TrimSpace(form.CaptchaID), strings.TrimSpace(form.Captcha)) {
		errs["captcha"] = "Wrong or expired code."
	}
	if len(errs) > 0 {
		a.renderSignup(ctx, form, errs)
		return
	}

	ip := ctx.ClientIP()
	if !utils.SignupCooldownTry(ip) {
		a.renderSignup(ctx, form, map[string]string{"form": "Too many attempts, please wait a few seconds."})
		return
	}
	if !utils.SignupDailyLimitCheck(ip) {
		a.renderSignup(ctx, form, map[string]string{"form": "Daily signup limit reached for your network."})
		return
	}

	hash, err := utils.HashPassword(form.Password1)
	if err != nil {
		a.view.ServerError(ctx, err)
		return
	}
	user := models.User{
		Username:     form.Username,
		Email:        form.Email,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		PasswordHash: hash,
		RegisterIP:   ip,
	}
	if err := a.db.Create(&user).Error; err != nil {
		a.view.ServerError(ctx, err)
		return
	}
	utils.SignupDailyIncrement(ip)
	utils.Sugar.Infow("user signed up", "user_id", user.ID, "username", user.Username, "ip", ip)

	if err := a.startSession(ctx, &user); err != nil {
		a.view.ServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// Login checks credentials and sets the session cookie, then follows next.
func (a *AuthController) Login(ctx *gin.Context) {
	if ctx.Request.Method != http.MethodPost {
		a.view.HTML(ctx, http.StatusOK, "users/login.html", gin.H{"next": ctx.Query("next")})
		return
	}

	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")
	next := ctx.PostForm("next")
	if next == "" {
		next = ctx.Query("next")
	}

	var user models.User
	err := a.db.Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		a.view.ServerError(ctx, err)
		return
	}
	if err != nil || !utils.CheckPassword(user.PasswordHash, password) {
		a.view.HTML(ctx, http.StatusOK, "users/login.html", gin.H{
			"next":     next,
			"username": username,
			"errors": map[string]string{
				"form": "Please enter a correct username and password. Note that both fields may be case-sensitive.",
			},
		})
		return
	}

	if err := a.startSession(ctx, &user); err != nil {
		a.view.ServerError(ctx, err)
		return
	}
	ctx.Redirect(http.StatusFound, middleware.SafeNext(next))
}

// Logout revokes the current token until its expiration and clears the cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	if token := ctx.GetString(middleware.ContextTokenKey); token != "" {
		fallback := time.Now().Add(time.Duration(config.Get().TokenTTLHours) * time.Hour)
		claims, _ := utils.ParseToken(token)
		utils.BlacklistToken(token, utils.TokenExpiry(claims, fallback))
	}
	a.setCookie(ctx, "", -1)
	ctx.Set(middleware.ContextUserKey, (*models.User)(nil))
	a.view.HTML(ctx, http.StatusOK, "users/logged_out.html", nil)
}

func (a *AuthController) startSession(ctx *gin.Context, user *models.User) error {
	ttl := time.Duration(config.Get().TokenTTLHours) * time.Hour
	token, err := utils.GenerateToken(user.ID, user.Username, ttl)
	if err != nil {
		return err
	}
	a.setCookie(ctx, token, int(ttl.Seconds()))
	return nil
}

func (a *AuthController) setCookie(ctx *gin.Context, value string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookieName, value, maxAge, "/", "", config.Get().CookieSecure, true)
}

func (a *AuthController) renderSignup(ctx *gin.Context, form SignupForm, errs map[string]string) {
	form.Password1, form.Password2, form.Captcha = "", "", ""
	data := gin.H{"form": form, "errors": errs}
	if config.Get().RegisterCaptchaEnabled {
		id, image, err := utils.GenerateCaptcha()
		if err != nil {
			a.view.ServerError(ctx, err)
			return
		}
		data["captcha_id"] = id
		data["captcha_image"] = image
	}
	a.view.HTML(ctx, http.StatusOK, "users/signup.html", data)
}

var bindingFieldNames = map[string]string{
	"FirstName": "first_name",
	"LastName":  "last_name",
	"Username":  "username",
	"Email":     "email",
	"Password1": "password1",
	"Password2": "password2",
	"Title":     "title",
	"Slug":      "slug",
}

// bindingErrors maps validator failures to form field messages.
func bindingErrors(err error) map[string]string {
	errs := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs["form"] = "Invalid form submission."
		return errs
	}
	for _, fe := range verrs {
		field, ok := bindingFieldNames[fe.Field()]
		if !ok {
			field = "form"
		}
		switch fe.Tag() {
		case "required":
			errs[field] = "This field is required."
		case "email":
			errs[field] = "Enter a valid email address."
		case "max":
			errs[field] = "Ensure this value has at most " + fe.Param() + " characters."
		default:
			errs[field] = "Enter a valid value."
		}
	}
	return errs
}

func passwordMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrPasswordTooShort):
		return "This password is too short. It must contain at least 8 characters."
	case errors.Is(err, utils.ErrPasswordTooLong):
		return "This password is too long."
	default:
		return "Enter a valid password."
	}
}

// validUsername allows letters, digits and @/./+/-/_ characters.
func validUsername(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("@.+-_", r) {
			continue
		}
		return false
	}
	return true
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
