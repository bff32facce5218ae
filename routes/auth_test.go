package routes

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/models"
	"github.com/cppla/yatube/utils"
)

func sessionCookie(t *testing.T, w *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range w.Cookies() {
		if c.Name == middleware.TokenCookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", middleware.TokenCookieName)
	return nil
}

func TestSignupCreatesUserAndLogsIn(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusOK, app.get("/auth/signup/", nil).Code)

	w := app.post("/auth/signup/", url.Values{
		"first_name": {"Leo"},
		"last_name":  {"Tolstoy"},
		"username":   {"newbie"},
		"email":      {"newbie@example.com"},
		"password1":  {"war-and-peace"},
		"password2":  {"war-and-peace"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	var user models.User
	require.NoError(t, app.db.Where("username = ?", "newbie").First(&user).Error)
	assert.Equal(t, "Leo Tolstoy", user.FullName())
	assert.True(t, utils.CheckPassword(user.PasswordHash, "war-and-peace"))

	cookie := sessionCookie(t, w.Result())
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.StatusOK, app.get("/create/", cookie).Code)
}

func TestSignupValidation(t *testing.T) {
	app := newTestApp(t)
	app.createUser("taken")
	gone := app.createUser("gone")
	require.NoError(t, app.db.Delete(&gone).Error)

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{
			name: "duplicate username",
			form: url.Values{"username": {"taken"}, "password1": {"long-password"}, "password2": {"long-password"}},
			want: "A user with that username already exists.",
		},
		{
			name: "username of a deleted account",
			form: url.Values{"username": {"gone"}, "password1": {"long-password"}, "password2": {"long-password"}},
			want: "A user with that username already exists.",
		},
		{
			name: "bad username",
			form: url.Values{"username": {"no spaces"}, "password1": {"long-password"}, "password2": {"long-password"}},
			want: "Enter a valid username.",
		},
		{
			name: "short password",
			form: url.Values{"username": {"fresh"}, "password1": {"short"}, "password2": {"short"}},
			want: "This password is too short.",
		},
		{
			name: "numeric password",
			form: url.Values{"username": {"fresh"}, "password1": {"1234567890"}, "password2": {"1234567890"}},
			want: "This password is entirely numeric.",
		},
		{
			name: "mismatch",
			form: url.Values{"username": {"fresh"}, "password1": {"long-password"}, "password2": {"other-password"}},
			want: "The two password fields didn&#39;t match.",
		},
		{
			name: "bad email",
			form: url.Values{"username": {"fresh"}, "email": {"nope"}, "password1": {"long-password"}, "password2": {"long-password"}},
			want: "Enter a valid email address.",
		},
		{
			name: "missing username",
			form: url.Values{"password1": {"long-password"}, "password2": {"long-password"}},
			want: "This field is required.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.post("/auth/signup/", tc.form, nil)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
	assert.EqualValues(t, 1, app.count(&models.User{}))
}

func TestLoginFollowsSafeNext(t *testing.T) {
	app := newTestApp(t)
	app.createUser("writer")

	page := app.get("/auth/login/?next=/create/", nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `value="/create/"`)

	w := app.post("/auth/login/", url.Values{"username": {"writer"}, "password": {"wrong-password"}, "next": {"/create/"}}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please enter a correct username and password.")

	w = app.post("/auth/login/", url.Values{"username": {"writer"}, "password": {"correct-horse"}, "next": {"/create/"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/create/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, app.get("/create/", sessionCookie(t, w.Result())).Code)

	w = app.post("/auth/login/", url.Values{"username": {"writer"}, "password": {"correct-horse"}, "next": {"//evil.example/"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogoutRevokesSession(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("leaving")
	cookie := app.cookieFor(user)
	require.Equal(t, http.StatusOK, app.get("/create/", cookie).Code)

	w := app.get("/auth/logout/", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "You have logged out")
	assert.NotContains(t, w.Body.String(), "/auth/logout/")
	cleared := sessionCookie(t, w.Result())
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	w = app.get("/create/", cookie)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/create/", w.Header().Get("Location"))
}

func TestGroupCreateIsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	admin := app.createUser("admin")
	regular := app.createUser("regular")

	assert.Equal(t, http.StatusNotFound, app.get("/groups/create/", app.cookieFor(regular)).Code)
	assert.Equal(t, http.StatusOK, app.get("/groups/create/", app.cookieFor(admin)).Code)

	w := app.post("/groups/create/", url.Values{"title": {"Cats"}, "slug": {"cats"}, "description": {"All about cats"}}, app.cookieFor(admin))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/group/cats/", w.Header().Get("Location"))
	assert.Equal(t, http.StatusOK, app.get("/group/cats/", nil).Code)

	w = app.post("/groups/create/", url.Values{"title": {"Cats again"}, "slug": {"cats"}}, app.cookieFor(admin))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Group with this slug already exists.")

	w = app.post("/groups/create/", url.Values{"title": {"Bad"}, "slug": {"bad slug!"}}, app.cookieFor(admin))
	assert.Contains(t, w.Body.String(), "Enter a valid slug")
	assert.EqualValues(t, 1, app.count(&models.Group{}))
}
