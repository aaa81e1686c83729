package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	gopath "path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Build renders every document to <out>/<path>.html, writes an index.html
// listing sorted newest-first, and copies the static tree verbatim. Drafts
// are skipped unless includeDrafts is set.
func Build(site Site, docs storage.Provider, staticDir, outDir string, includeDrafts bool, logger *slog.Logger) error {
	r := New(site)

	metas, err := docs.List("")
	if err != nil {
		return fmt.Errorf("build: list docs: %w", err)
	}

	type page struct {
		path    string
		title   string
		date    time.Time
		summary string
		tags    []string
		draft   bool
		body    string
	}

	var pages []page
	for _, m := range metas {
		data, err := docs.Read(m.Path)
		if err != nil {
			return fmt.Errorf("build: read %s: %w", m.Path, err)
		}
		res, err := parser.Parse(data)
		if err != nil {
			return fmt.Errorf("build: parse %s: %w", m.Path, err)
		}
		if res.Meta.Draft && !includeDrafts {
			logger.Debug("build: skipping draft", slog.String("path", m.Path))
			continue
		}
		title := res.Title
		if title == "" {
			title = strings.TrimSuffix(gopath.Base(m.Path), ".md")
		}
		pages = append(pages, page{
			path:    m.Path,
			title:   title,
			date:    res.Meta.Date,
			summary: res.Meta.Summary,
			tags:    res.Meta.Tags,
			draft:   res.Meta.Draft,
			body:    res.Body,
		})
	}

	sort.Slice(pages, func(i, j int) bool {
		if !pages[i].date.Equal(pages[j].date) {
			return pages[i].date.After(pages[j].date)
		}
		return pages[i].path < pages[j].path
	})

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("build: mkdir out: %w", err)
	}

	nav := make([]NavItem, len(pages))
	for i, p := range pages {
		nav[i] = NavItem{Title: p.title, Href: "/" + HTMLPath(p.path)}
	}

	for i, p := range pages {
		content, err := r.SiteHTML(p.body)
		if err != nil {
			return fmt.Errorf("build: render %s: %w", p.path, err)
		}

		pageNav := make([]NavItem, len(nav))
		copy(pageNav, nav)
		pageNav[i].Active = true

		var buf bytes.Buffer
		err = r.DocPage(&buf, Page{
			Title:   p.title,
			Date:    p.date,
			Summary: p.summary,
			Tags:    p.tags,
			Draft:   p.draft,
			Nav:     pageNav,
			Content: content,
		})
		if err != nil {
			return fmt.Errorf("build: page %s: %w", p.path, err)
		}

		outPath := filepath.Join(outDir, filepath.FromSlash(HTMLPath(p.path)))
		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return fmt.Errorf("build: mkdir: %w", err)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("build: write %s: %w", outPath, err)
		}
		logger.Debug("build: wrote page", slog.String("path", HTMLPath(p.path)))
	}

	items := make([]ListingItem, len(pages))
	for i, p := range pages {
		items[i] = ListingItem{
			Title:   p.title,
			Href:    "/" + HTMLPath(p.path),
			Date:    p.date,
			Summary: p.summary,
			Tags:    p.tags,
			Draft:   p.draft,
		}
	}
	var buf bytes.Buffer
	if err := r.ListingPage(&buf, Listing{Items: items}); err != nil {
		return fmt.Errorf("build: listing: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("build: write index: %w", err)
	}

	if err := copyTree(staticDir, filepath.Join(outDir, "static")); err != nil {
		return fmt.Errorf("build: copy static: %w", err)
	}

	logger.Info("build: complete", slog.Int("pages", len(pages)), slog.String("out", outDir))
	return nil
}

// HTMLPath maps a document path to its rendered output path.
func HTMLPath(docPath string) string {
	return strings.TrimSuffix(docPath, ".md") + ".html"
}

// copyTree copies src into dst preserving structure. A missing src is not
// an error: a corpus without assets is fine.
func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil || !info.IsDir() {
		return nil
	}
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
