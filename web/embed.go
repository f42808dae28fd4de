// Package web holds the HTML templates compiled into the binary.
package web

import (
	"embed"
	"html/template"
	"time"
)

//go:embed templates
var files embed.FS

// Templates 解析全部页面模板，模板名即 {{define}} 的名字，如 "posts/index.html"
func Templates(mediaURL func(string) string) (*template.Template, error) {
	funcs := template.FuncMap{
		"mediaURL": mediaURL,
		"date": func(t time.Time) string {
			return t.Format("02 Jan 2006")
		},
	}
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*/*.html")
}
