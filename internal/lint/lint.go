// Package lint verifies the document-level properties of the content tree:
// well-formed front matter with the required keys, internal links that
// resolve, and code fences that are syntactically plausible.
package lint

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Severity grades a finding. Errors fail a check run; warnings do not
// unless the caller asks for strict mode.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is a single problem located in a document.
type Finding struct {
	Path     string   `json:"path"`
	Line     int      `json:"line"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report aggregates findings across the corpus.
type Report struct {
	Docs     int       `json:"docs"`
	Errors   int       `json:"errors"`
	Warnings int       `json:"warnings"`
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding is at severity error.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Linter checks documents against the authoring contract.
type Linter struct {
	docs   storage.Provider
	static storage.Provider
}

// New returns a Linter over the document and static-asset trees.
func New(docs, static storage.Provider) *Linter {
	return &Linter{docs: docs, static: static}
}

// Corpus parses every document once and applies all rules.
func (l *Linter) Corpus() (*Report, error) {
	metas, err := l.docs.List("")
	if err != nil {
		return nil, fmt.Errorf("lint: list docs: %w", err)
	}

	parsed := make(map[string]*parser.Result, len(metas))
	paths := make([]string, 0, len(metas))
	for _, m := range metas {
		data, err := l.docs.Read(m.Path)
		if err != nil {
			return nil, fmt.Errorf("lint: read %s: %w", m.Path, err)
		}
		res, err := parser.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("lint: parse %s: %w", m.Path, err)
		}
		parsed[m.Path] = res
		paths = append(paths, m.Path)
	}
	sort.Strings(paths)

	rep := &Report{Docs: len(paths)}
	inbound := make(map[string]int)
	for _, p := range paths {
		rep.Findings = append(rep.Findings, l.checkDoc(p, parsed[p], parsed, inbound)...)
	}

	// Orphan detection only makes sense once there is something to link from.
	if len(paths) > 1 {
		for _, p := range paths {
			if inbound[p] == 0 {
				rep.Findings = append(rep.Findings, Finding{
					Path:     p,
					Line:     1,
					Rule:     "doc/orphan",
					Severity: SeverityWarning,
					Message:  "no other document links here",
				})
			}
		}
	}

	sort.SliceStable(rep.Findings, func(i, j int) bool {
		if rep.Findings[i].Path != rep.Findings[j].Path {
			return rep.Findings[i].Path < rep.Findings[j].Path
		}
		return rep.Findings[i].Line < rep.Findings[j].Line
	})
	for _, f := range rep.Findings {
		if f.Severity == SeverityError {
			rep.Errors++
		} else {
			rep.Warnings++
		}
	}
	return rep, nil
}

// File checks a single document in the context of the full corpus. Link
// resolution and orphan detection need the other documents, so the corpus
// is still parsed; only the findings are filtered.
func (l *Linter) File(docPath string) ([]Finding, error) {
	rep, err := l.Corpus()
	if err != nil {
		return nil, err
	}
	var out []Finding
	for _, f := range rep.Findings {
		if f.Path == docPath {
			out = append(out, f)
		}
	}
	return out, nil
}

func (l *Linter) checkDoc(docPath string, res *parser.Result, corpus map[string]*parser.Result, inbound map[string]int) []Finding {
	var out []Finding
	out = append(out, l.frontmatterFindings(docPath, res)...)
	out = append(out, l.linkFindings(docPath, res, corpus, inbound)...)
	out = append(out, fenceFindings(docPath, res)...)
	return out
}

func (l *Linter) frontmatterFindings(docPath string, res *parser.Result) []Finding {
	atTop := func(rule string, msg string) Finding {
		return Finding{Path: docPath, Line: 1, Rule: rule, Severity: SeverityError, Message: msg}
	}

	if !res.HasFrontmatter {
		return []Finding{atTop("frontmatter/missing", "no front-matter block")}
	}
	if res.FrontmatterErr != nil {
		return []Finding{atTop("frontmatter/invalid", fmt.Sprintf("front matter is not valid YAML: %v", res.FrontmatterErr))}
	}

	var out []Finding
	typed := fieldTypeIssues(res.Frontmatter)
	for _, field := range []string{"title", "date", "draft", "images", "summary", "tags"} {
		if msg, ok := typed[field]; ok {
			out = append(out, atTop("frontmatter/field", msg))
		}
	}

	if err := res.Meta.Validate(); err != nil {
		if verrs, ok := err.(validation.Errors); ok {
			names := make([]string, 0, len(verrs))
			for name := range verrs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				lower := strings.ToLower(name)
				if _, dup := typed[lower]; dup {
					continue
				}
				out = append(out, atTop("frontmatter/field", fmt.Sprintf("%s: %v", lower, verrs[name])))
			}
		} else {
			out = append(out, atTop("frontmatter/field", err.Error()))
		}
	}

	for _, img := range res.Meta.Images {
		if !l.static.Exists(img) {
			out = append(out, atTop("frontmatter/image", fmt.Sprintf("images: %s not found under static/", img)))
		}
	}
	return out
}

// fieldTypeIssues reports wrongly typed front-matter values, which the typed
// Meta silently zeroes.
func fieldTypeIssues(fm map[string]interface{}) map[string]string {
	out := map[string]string{}

	for _, key := range []string{"title", "summary"} {
		if v, ok := fm[key]; ok {
			if _, isStr := v.(string); !isStr {
				out[key] = key + ": must be a string"
			}
		}
	}
	if v, ok := fm["draft"]; ok {
		if _, isBool := v.(bool); !isBool {
			out["draft"] = "draft: must be a boolean"
		}
	}
	if v, ok := fm["date"]; ok {
		switch d := v.(type) {
		case time.Time:
		case string:
			if _, valid := parser.ParseDate(d); !valid {
				out["date"] = fmt.Sprintf("date: unrecognized format %q (want YYYY-MM-DD or RFC 3339)", d)
			}
		default:
			out["date"] = "date: must be a date"
		}
	}
	for _, key := range []string{"images", "tags"} {
		v, ok := fm[key]
		if !ok {
			continue
		}
		list, isList := v.([]interface{})
		if !isList {
			out[key] = key + ": must be a list of strings"
			continue
		}
		for _, item := range list {
			if _, isStr := item.(string); !isStr {
				out[key] = key + ": must be a list of strings"
				break
			}
		}
	}
	return out
}

func (l *Linter) linkFindings(docPath string, res *parser.Result, corpus map[string]*parser.Result, inbound map[string]int) []Finding {
	var out []Finding
	for _, ln := range res.Links {
		target := ln.Target
		if isExternal(target) {
			continue
		}

		if strings.HasPrefix(target, "#") {
			if !hasAnchor(res, target[1:]) {
				out = append(out, Finding{
					Path: docPath, Line: ln.Line, Rule: "link/anchor", Severity: SeverityWarning,
					Message: fmt.Sprintf("anchor %s not found in this document", target),
				})
			}
			continue
		}

		if ln.Image || strings.HasPrefix(target, "/static/") || isAssetPath(target) {
			asset := strings.TrimPrefix(target, "/static/")
			if !l.static.Exists(asset) {
				out = append(out, Finding{
					Path: docPath, Line: ln.Line, Rule: "link/asset", Severity: SeverityError,
					Message: fmt.Sprintf("asset %s not found under static/", target),
				})
			}
			continue
		}

		resolved, anchor, ok := parser.ResolveInternal(docPath, target)
		if !ok {
			out = append(out, Finding{
				Path: docPath, Line: ln.Line, Rule: "link/broken", Severity: SeverityWarning,
				Message: fmt.Sprintf("unrecognized internal link form: %s", target),
			})
			continue
		}

		tres, ok := corpus[resolved]
		if !ok {
			out = append(out, Finding{
				Path: docPath, Line: ln.Line, Rule: "link/broken", Severity: SeverityError,
				Message: fmt.Sprintf("link target %s does not exist", target),
			})
			continue
		}
		if resolved != docPath {
			inbound[resolved]++
		}
		if anchor != "" && !hasAnchor(tres, anchor) {
			out = append(out, Finding{
				Path: docPath, Line: ln.Line, Rule: "link/anchor", Severity: SeverityWarning,
				Message: fmt.Sprintf("anchor #%s not found in %s", anchor, resolved),
			})
		}
	}
	return out
}

func isExternal(target string) bool {
	return strings.HasPrefix(target, "http://") ||
		strings.HasPrefix(target, "https://") ||
		strings.HasPrefix(target, "mailto:") ||
		strings.HasPrefix(target, "//")
}

// isAssetPath recognizes bare asset references, which resolve against the
// static root like /static/ ones do.
func isAssetPath(target string) bool {
	switch strings.ToLower(path.Ext(strings.TrimSuffix(target, "/"))) {
	case ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp", ".pdf":
		return true
	}
	return false
}

func hasAnchor(res *parser.Result, anchor string) bool {
	for _, h := range res.Headings {
		if h.Anchor == anchor {
			return true
		}
	}
	return false
}
