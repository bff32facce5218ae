// Package templates holds the server-rendered pages. Every page is parsed
// together with base.html and the shared includes into its own set.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/gin-contrib/multitemplate"
)

//go:embed base.html includes/*.html posts/*.html users/*.html groups/*.html core/*.html
var files embed.FS

// Pages lists every renderable page by name.
var Pages = []string{
	"posts/index.html",
	"posts/group_list.html",
	"posts/profile.html",
	"posts/post_detail.html",
	"posts/create_post.html",
	"posts/follow.html",
	"users/signup.html",
	"users/login.html",
	"users/logged_out.html",
	"groups/create.html",
	"core/404.html",
	"core/500.html",
}

// FuncMap returns the helpers available to every page.
// mediaURL prefixes stored image paths, e.g. "/media/".
func FuncMap(mediaURL string) template.FuncMap {
	return template.FuncMap{
		"linebreaksbr": func(s string) template.HTML {
			s = template.HTMLEscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
			return template.HTML(strings.ReplaceAll(s, "\n", "<br>"))
		},
		"media": func(name string) string {
			if name == "" {
				return ""
			}
			return strings.TrimRight(mediaURL, "/") + "/" + strings.TrimLeft(name, "/")
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2 January 2006")
		},
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02.01.2006 15:04")
		},
		"safeURL": func(s string) template.URL { return template.URL(s) },
	}
}

// Load parses every page into its own template set.
func Load(mediaURL string) (multitemplate.Render, error) {
	set := multitemplate.New()
	fm := FuncMap(mediaURL)
	for _, page := range Pages {
		tmpl, err := template.New("base.html").Funcs(fm).ParseFS(files,
			"base.html",
			"includes/*.html",
			page,
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		set.Add(page, tmpl)
	}
	return set, nil
}
