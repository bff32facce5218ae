package routes

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/yatube/models"
)

func TestCreatePostRedirectsToProfile(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	group := app.createGroup("test_slug")
	before := app.count(&models.Post{})

	w := app.post("/create/", url.Values{
		"text":  {"Brand new post"},
		"group": {strconv.Itoa(int(group.ID))},
	}, app.cookieFor(author))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.Equal(t, before+1, app.count(&models.Post{}))

	var post models.Post
	require.NoError(t, app.db.Order(models.PostOrder).First(&post).Error)
	assert.Equal(t, "Brand new post", post.Text)
	assert.Equal(t, author.ID, post.AuthorID)
	require.NotNil(t, post.GroupID)
	assert.Equal(t, group.ID, *post.GroupID)
}

func TestCreatePostAnonymousIsRejected(t *testing.T) {
	app := newTestApp(t)
	before := app.count(&models.Post{})

	w := app.post("/create/", url.Values{"text": {"Sneaky"}}, nil)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next=/create/", w.Header().Get("Location"))
	assert.Equal(t, before, app.count(&models.Post{}))
}

func TestCreatePostWithImage(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")

	w := app.upload("/create/", map[string]string{"text": "With a picture"}, "small.gif", smallGIF, app.cookieFor(author))
	require.Equal(t, http.StatusFound, w.Code)

	var post models.Post
	require.NoError(t, app.db.Where("text = ?", "With a picture").First(&post).Error)
	assert.Equal(t, "posts/small.gif", post.Image)
	_, err := os.Stat(filepath.Join(app.mediaRoot, "posts", "small.gif"))
	assert.NoError(t, err)

	for _, page := range []string{"/", "/profile/auth/", fmt.Sprintf("/posts/%d/", post.ID)} {
		body := app.get(page, nil).Body.String()
		assert.Contains(t, body, `src="/media/posts/small.gif"`, page)
	}
}

func TestCreatePostRejectsInvalidForm(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	cookie := app.cookieFor(author)

	cases := []struct {
		name string
		form url.Values
		want string
	}{
		{"empty text", url.Values{"text": {"   "}}, "This field is required."},
		{"unknown group", url.Values{"text": {"ok"}, "group": {"404"}}, "Select a valid choice."},
		{"garbage group", url.Values{"text": {"ok"}, "group": {"cats"}}, "Select a valid choice."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := app.post("/create/", tc.form, cookie)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tc.want)
		})
	}
	assert.EqualValues(t, 0, app.count(&models.Post{}))

	w := app.upload("/create/", map[string]string{"text": "not an image"}, "notes.txt", []byte("plain text"), cookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")
	assert.EqualValues(t, 0, app.count(&models.Post{}))
}

func TestCreatePostRejectsSVGUpload(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(document.cookie)</script></svg>`)

	w := app.upload("/create/", map[string]string{"text": "vector"}, "x.svg", svg, app.cookieFor(author))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Upload a valid image.")
	assert.EqualValues(t, 0, app.count(&models.Post{}))
	_, err := os.Stat(filepath.Join(app.mediaRoot, "posts", "x.svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestPostTextIsStoredAsTyped(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	cookie := app.cookieFor(author)
	const text = `It's "fine" & 2 < 3`
	const escaped = `It&#39;s &#34;fine&#34; &amp; 2 &lt; 3`

	require.Equal(t, http.StatusFound, app.post("/create/", url.Values{"text": {text}}, cookie).Code)
	var post models.Post
	require.NoError(t, app.db.First(&post).Error)
	assert.Equal(t, text, post.Text)

	edit := app.get(fmt.Sprintf("/posts/%d/edit/", post.ID), cookie).Body.String()
	assert.Contains(t, edit, ">"+escaped+"</textarea>")
	assert.NotContains(t, edit, "&amp;#39;")

	detail := app.get(fmt.Sprintf("/posts/%d/", post.ID), nil).Body.String()
	assert.Contains(t, detail, "<p>"+escaped+"</p>")
	assert.NotContains(t, detail, "&amp;#39;")

	// saving the edit form unchanged keeps the text
	require.Equal(t, http.StatusFound, app.post(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {text}}, cookie).Code)
	require.NoError(t, app.db.First(&post, post.ID).Error)
	assert.Equal(t, text, post.Text)

	w := app.get(fmt.Sprintf("/api/v1/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Post struct {
			Text string `json:"text"`
		} `json:"post"`
	}
	decode(t, w.Body.Bytes(), &data)
	assert.Equal(t, text, data.Post.Text)
}

func TestCommentTextIsStoredAsTyped(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	post := app.createPost(author, nil, "Post")
	const text = "<b>bold</b> & more"

	w := app.post(fmt.Sprintf("/posts/%d/comment/", post.ID), url.Values{"text": {text}}, app.cookieFor(author))
	require.Equal(t, http.StatusFound, w.Code)

	var comment models.Comment
	require.NoError(t, app.db.First(&comment).Error)
	assert.Equal(t, text, comment.Text)
	body := app.get(fmt.Sprintf("/posts/%d/", post.ID), nil).Body.String()
	assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt; &amp; more")
	assert.NotContains(t, body, "<b>bold</b>")
}

func TestEditPostUpdatesAndRedirects(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	oldGroup := app.createGroup("old")
	newGroup := app.createGroup("new")
	post := app.createPost(author, &oldGroup, "Original text")

	w := app.post(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{
		"text":  {"Edited text"},
		"group": {strconv.Itoa(int(newGroup.ID))},
	}, app.cookieFor(author))

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	var got models.Post
	require.NoError(t, app.db.First(&got, post.ID).Error)
	assert.Equal(t, "Edited text", got.Text)
	require.NotNil(t, got.GroupID)
	assert.Equal(t, newGroup.ID, *got.GroupID)
	assert.Equal(t, post.PubDate.Unix(), got.PubDate.Unix())

	// clearing the group detaches the post
	w = app.post(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"Edited text"}, "group": {""}}, app.cookieFor(author))
	require.Equal(t, http.StatusFound, w.Code)
	require.NoError(t, app.db.First(&got, post.ID).Error)
	assert.Nil(t, got.GroupID)
}

func TestEditPostByStrangerChangesNothing(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	stranger := app.createUser("stranger")
	post := app.createPost(author, nil, "Original text")

	w := app.post(fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"Hacked"}}, app.cookieFor(stranger))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))
	var got models.Post
	require.NoError(t, app.db.First(&got, post.ID).Error)
	assert.Equal(t, "Original text", got.Text)
}

func TestEditPostReplacingImageSchedulesOldOne(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	cookie := app.cookieFor(author)

	require.Equal(t, http.StatusFound, app.upload("/create/", map[string]string{"text": "pic"}, "first.gif", smallGIF, cookie).Code)
	var post models.Post
	require.NoError(t, app.db.First(&post).Error)

	w := app.upload(fmt.Sprintf("/posts/%d/edit/", post.ID), map[string]string{"text": "pic"}, "second.gif", smallGIF, cookie)
	require.Equal(t, http.StatusFound, w.Code)

	require.NoError(t, app.db.First(&post, post.ID).Error)
	assert.Equal(t, "posts/second.gif", post.Image)

	var pending []models.UploadedFile
	require.NoError(t, app.db.Find(&pending).Error)
	require.Len(t, pending, 1)
	assert.Equal(t, "/media/posts/first.gif", pending[0].URL)
}

func TestAddComment(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	reader := app.createUser("reader")
	post := app.createPost(author, nil, "Commentable")
	commentURL := fmt.Sprintf("/posts/%d/comment/", post.ID)
	detailURL := fmt.Sprintf("/posts/%d/", post.ID)

	w := app.post(commentURL, url.Values{"text": {"Nice post!"}}, app.cookieFor(reader))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL, w.Header().Get("Location"))

	var comment models.Comment
	require.NoError(t, app.db.First(&comment).Error)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, reader.ID, comment.AuthorID)
	assert.Equal(t, "Nice post!", comment.Text)
	assert.Contains(t, app.get(detailURL, nil).Body.String(), "Nice post!")

	// empty comments are dropped but still redirect
	w = app.post(commentURL, url.Values{"text": {""}}, app.cookieFor(reader))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailURL, w.Header().Get("Location"))

	// guests are sent to login
	w = app.post(commentURL, url.Values{"text": {"anon"}}, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/?next="+commentURL, w.Header().Get("Location"))

	assert.EqualValues(t, 1, app.count(&models.Comment{}))
}

func TestDeletePost(t *testing.T) {
	app := newTestApp(t)
	author := app.createUser("auth")
	stranger := app.createUser("stranger")
	post := app.createPost(author, nil, "Short lived")
	require.NoError(t, app.db.Create(&models.Comment{PostID: post.ID, AuthorID: stranger.ID, Text: "bye"}).Error)
	deleteURL := fmt.Sprintf("/posts/%d/delete/", post.ID)

	w := app.post(deleteURL, nil, app.cookieFor(stranger))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))
	assert.EqualValues(t, 1, app.count(&models.Post{}))

	w = app.post(deleteURL, nil, app.cookieFor(author))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/auth/", w.Header().Get("Location"))
	assert.EqualValues(t, 0, app.count(&models.Post{}))
	assert.EqualValues(t, 0, app.count(&models.Comment{}))
}
