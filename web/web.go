// Package web 打包页面模板与静态资源，随二进制一起分发。
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates
var templates embed.FS

//go:embed static
var static embed.FS

// TemplatePatterns 是 ParseFS 使用的模板匹配模式。
var TemplatePatterns = []string{
	"templates/*.html",
	"templates/partials/*.html",
	"templates/admin/*.html",
}

// Templates 返回模板文件系统。
func Templates() fs.FS {
	return templates
}

// Static 返回以 static 目录为根的静态资源文件系统。
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
