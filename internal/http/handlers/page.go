package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

// PageTemplates parses the embedded page templates for gin's HTML renderer.
func PageTemplates() *template.Template {
	return template.Must(template.ParseFS(webFS, "web/templates/*.html"))
}

// StaticFS serves the embedded scripts under /static.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

type PageHandler struct {
	provider string
}

func NewPageHandler(provider string) *PageHandler {
	return &PageHandler{provider: provider}
}

// GET /
func (h *PageHandler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "scan.html", gin.H{
		"Provider": h.provider,
	})
}
