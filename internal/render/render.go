// Package render turns Markdown documents into HTML pages: a goldmark
// converter plus an html/template page shell shared by the preview server
// and the static site build.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	mdparser "github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Site identifies the rendered site.
type Site struct {
	Title   string
	BaseURL string
}

// NavItem is one entry in the page navigation.
type NavItem struct {
	Title  string
	Href   string
	Active bool
}

// Page is the model for one rendered document page.
type Page struct {
	Site       Site
	Title      string
	Date       time.Time
	Summary    string
	Tags       []string
	Draft      bool
	Nav        []NavItem
	Content    template.HTML
	LiveReload bool
}

// ListingItem is one row on the index page.
type ListingItem struct {
	Title   string
	Href    string
	Date    time.Time
	Summary string
	Tags    []string
	Draft   bool
}

// Listing is the model for the index page.
type Listing struct {
	Site       Site
	Items      []ListingItem
	LiveReload bool
}

// Renderer converts Markdown bodies to HTML and wraps them in the page
// shell. The preview converter leaves document-relative .md links alone
// (the browser resolves them under /preview/); the site converter rewrites
// them to .html for the static build.
type Renderer struct {
	site    Site
	preview goldmark.Markdown
	build   goldmark.Markdown
}

// New creates a Renderer for the given site.
func New(site Site) *Renderer {
	base := []goldmark.Option{
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(mdparser.WithAutoHeadingID()),
	}
	withRewrite := append([]goldmark.Option{}, base...)
	withRewrite = append(withRewrite, goldmark.WithParserOptions(
		mdparser.WithASTTransformers(util.Prioritized(mdLinkTransformer{}, 100)),
	))
	return &Renderer{
		site:    site,
		preview: goldmark.New(base...),
		build:   goldmark.New(withRewrite...),
	}
}

// HTML converts a Markdown body for the preview server.
func (r *Renderer) HTML(body string) (template.HTML, error) {
	return convert(r.preview, body)
}

// SiteHTML converts a Markdown body for the static build, rewriting
// document-relative .md links to .html.
func (r *Renderer) SiteHTML(body string) (template.HTML, error) {
	return convert(r.build, body)
}

// DocPage writes a full document page.
func (r *Renderer) DocPage(w io.Writer, p Page) error {
	p.Site = r.site
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render: page template: %w", err)
	}
	return nil
}

// ListingPage writes the index page.
func (r *Renderer) ListingPage(w io.Writer, l Listing) error {
	l.Site = r.site
	if err := listingTmpl.Execute(w, l); err != nil {
		return fmt.Errorf("render: listing template: %w", err)
	}
	return nil
}

func convert(md goldmark.Markdown, body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render: convert: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// mdLinkTransformer rewrites document-relative .md link destinations to
// their .html output paths. External, root-relative, and anchor-only
// destinations pass through untouched.
type mdLinkTransformer struct{}

func (mdLinkTransformer) Transform(doc *ast.Document, _ text.Reader, _ mdparser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		if out, changed := rewriteMarkdownHref(string(link.Destination)); changed {
			link.Destination = []byte(out)
		}
		return ast.WalkContinue, nil
	})
}

func rewriteMarkdownHref(dest string) (string, bool) {
	switch {
	case dest == "",
		strings.Contains(dest, "://"),
		strings.HasPrefix(dest, "//"),
		strings.HasPrefix(dest, "mailto:"),
		strings.HasPrefix(dest, "#"),
		strings.HasPrefix(dest, "/"):
		return "", false
	}
	target, anchor, _ := strings.Cut(dest, "#")
	if !strings.HasSuffix(target, ".md") {
		return "", false
	}
	out := strings.TrimSuffix(target, ".md") + ".html"
	if anchor != "" {
		out += "#" + anchor
	}
	return out, true
}

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.Site.Title}}</title>
<style>
body { font: 16px/1.6 system-ui, sans-serif; margin: 0; color: #1a1a1a; }
.wrap { display: flex; max-width: 72rem; margin: 0 auto; }
nav { width: 18rem; padding: 2rem 1rem; border-right: 1px solid #e4e4e4; }
nav a { display: block; padding: .25rem 0; color: #444; text-decoration: none; }
nav a.active { font-weight: 600; color: #000; }
main { flex: 1; padding: 2rem 3rem; min-width: 0; }
header.doc h1 { margin-bottom: .25rem; }
header.doc .meta { color: #777; font-size: .875rem; }
.tag { background: #eef2f7; border-radius: 3px; padding: 0 .4rem; margin-right: .25rem; font-size: .8rem; }
.draft { color: #b45309; font-weight: 600; }
pre { background: #f6f8fa; padding: 1rem; overflow-x: auto; border-radius: 4px; }
code { font-family: ui-monospace, monospace; font-size: .9em; }
img { max-width: 100%; }
</style>
</head>
<body>
<div class="wrap">
<nav>
<p><a href="{{if .Site.BaseURL}}{{.Site.BaseURL}}{{else}}/{{end}}"><strong>{{.Site.Title}}</strong></a></p>
{{range .Nav}}<a href="{{.Href}}"{{if .Active}} class="active"{{end}}>{{.Title}}</a>
{{end}}</nav>
<main>
<header class="doc">
<h1>{{.Title}}</h1>
<p class="meta">
{{if not .Date.IsZero}}<time datetime="{{.Date.Format "2006-01-02"}}">{{.Date.Format "January 2, 2006"}}</time>{{end}}
{{if .Draft}} <span class="draft">draft</span>{{end}}
{{range .Tags}}<span class="tag">{{.}}</span>{{end}}
</p>
{{if .Summary}}<p><em>{{.Summary}}</em></p>{{end}}
</header>
<article>
{{.Content}}
</article>
</main>
</div>
{{if .LiveReload}}<script>
new EventSource("/api/events").addEventListener("reload", function () { location.reload(); });
</script>
{{end}}</body>
</html>
`

var listingTmpl = template.Must(template.New("listing").Parse(listingHTML))

const listingHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Site.Title}}</title>
<style>
body { font: 16px/1.6 system-ui, sans-serif; margin: 0 auto; max-width: 48rem; padding: 2rem 1rem; color: #1a1a1a; }
h1 { margin-bottom: 1.5rem; }
ul { list-style: none; padding: 0; }
li { margin-bottom: 1.25rem; }
li a { font-size: 1.125rem; font-weight: 600; text-decoration: none; color: #0969da; }
.meta { color: #777; font-size: .875rem; }
.tag { background: #eef2f7; border-radius: 3px; padding: 0 .4rem; margin-right: .25rem; font-size: .8rem; }
.draft { color: #b45309; font-weight: 600; }
</style>
</head>
<body>
<h1>{{.Site.Title}}</h1>
<ul>
{{range .Items}}<li>
<a href="{{.Href}}">{{.Title}}</a>{{if .Draft}} <span class="draft">draft</span>{{end}}
<div class="meta">{{if not .Date.IsZero}}<time datetime="{{.Date.Format "2006-01-02"}}">{{.Date.Format "January 2, 2006"}}</time>{{end}}
{{range .Tags}}<span class="tag">{{.}}</span>{{end}}</div>
{{if .Summary}}<p>{{.Summary}}</p>{{end}}
</li>
{{end}}</ul>
{{if .LiveReload}}<script>
new EventSource("/api/events").addEventListener("reload", function () { location.reload(); });
</script>
{{end}}</body>
</html>
`
