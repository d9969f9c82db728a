// Package inertia answers page visits with either a JSON page object, for the
// client-side router, or an HTML shell that boots the client with that page.
package inertia

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HeaderInertia          = "X-Inertia"
	HeaderVersion          = "X-Inertia-Version"
	HeaderLocation         = "X-Inertia-Location"
	HeaderPartialData      = "X-Inertia-Partial-Data"
	HeaderPartialComponent = "X-Inertia-Partial-Component"

	templateName = "app.html"
)

const shell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ .title }}</title>
<script type="module" src="/build/app.js?v={{ .version }}" defer></script>
</head>
<body>
<div id="app" data-page="{{ .page }}"></div>
</body>
</html>
`

// Page is the object exchanged with the client-side router.
type Page struct {
	Component string                 `json:"component"`
	Props     map[string]interface{} `json:"props"`
	URL       string                 `json:"url"`
	Version   string                 `json:"version"`
}

type Renderer struct {
	title   string
	version string
}

func NewRenderer(title, version string) *Renderer {
	return &Renderer{title: title, version: version}
}

// Template is installed on the gin engine with SetHTMLTemplate.
func (r *Renderer) Template() *template.Template {
	return template.Must(template.New(templateName).Parse(shell))
}

func (r *Renderer) Version() string {
	return r.version
}

func IsInertia(c *gin.Context) bool {
	return c.GetHeader(HeaderInertia) == "true"
}

// WantsJSON reports a plain API client, as opposed to a page visit.
func WantsJSON(c *gin.Context) bool {
	if IsInertia(c) {
		return false
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func (r *Renderer) Render(c *gin.Context, component string, props map[string]interface{}) {
	page := Page{
		Component: component,
		Props:     r.selectProps(c, component, props),
		URL:       c.Request.URL.RequestURI(),
		Version:   r.version,
	}

	c.Header("Vary", HeaderInertia)
	if IsInertia(c) {
		if c.Request.Method == http.MethodGet && r.stale(c) {
			c.Header(HeaderLocation, page.URL)
			c.Status(http.StatusConflict)
			return
		}
		c.Header(HeaderInertia, "true")
		c.JSON(http.StatusOK, page)
		return
	}

	payload, err := json.Marshal(page)
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.HTML(http.StatusOK, templateName, gin.H{
		"title":   r.title,
		"version": r.version,
		"page":    string(payload),
	})
}

// Redirect ends a mutation. 303 makes the browser follow up with a GET
// whatever verb the form used.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// Back redirects to the referring page, or fallback when there is none.
func Back(c *gin.Context, fallback string) {
	location := c.GetHeader("Referer")
	if location == "" {
		location = fallback
	}
	Redirect(c, location)
}

func (r *Renderer) stale(c *gin.Context) bool {
	version := c.GetHeader(HeaderVersion)
	return version != "" && version != r.version
}

// selectProps honours partial reloads, which ask for a subset of props of the
// component already on screen.
func (r *Renderer) selectProps(c *gin.Context, component string, props map[string]interface{}) map[string]interface{} {
	if props == nil {
		props = map[string]interface{}{}
	}
	only := c.GetHeader(HeaderPartialData)
	if !IsInertia(c) || only == "" || c.GetHeader(HeaderPartialComponent) != component {
		return props
	}

	selected := make(map[string]interface{})
	for _, key := range strings.Split(only, ",") {
		key = strings.TrimSpace(key)
		if value, ok := props[key]; ok {
			selected[key] = value
		}
	}
	return selected
}
