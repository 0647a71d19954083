// Package web 页面模板，嵌入二进制
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates
var files embed.FS

// Templates 解析全部页面模板；mediaURL 为上传文件的访问前缀，loginURL 为登录页路径
func Templates(mediaURL, loginURL string) (*template.Template, error) {
	return template.New("").Funcs(Funcs(mediaURL, loginURL)).ParseFS(files, "templates/*/*.html")
}

func Funcs(mediaURL, loginURL string) template.FuncMap {
	return template.FuncMap{
		"loginurl":    func() string { return loginURL },
		"naturaltime": func(t time.Time) string { return humanize.Time(t) },
		"date":        func(t time.Time) string { return t.Format("02 Jan 2006") },
		"comma":       func(n int64) string { return humanize.Comma(n) },
		"media": func(path string) string {
			return strings.TrimSuffix(mediaURL, "/") + "/" + strings.TrimPrefix(path, "/")
		},
		"truncatewords": truncateWords,
		"linebreaks": func(s string) []string {
			return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		},
		"deref": func(p *uint) uint {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

func truncateWords(n int, s string) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + " …"
}
