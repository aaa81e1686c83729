// Package parser extracts front matter, links, code fences, and headings
// from Markdown content.
package parser

import (
	"bytes"
	"path"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

var (
	linkRe        = regexp.MustCompile(`(!?)\[([^\]]*)\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	fenceRe       = regexp.MustCompile("^(`{3,}|~{3,})\\s*([A-Za-z0-9_+.-]*)")
	headingRe     = regexp.MustCompile(`^ {0,3}(#{1,6})[ \t]+(.*)$`)
	closingHashRe = regexp.MustCompile(`[ \t]+#+[ \t]*$`)
	anchorStripRe = regexp.MustCompile(`[^\p{L}\p{N} _-]`)
	dateLayouts   = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
)

// Meta is the typed front matter carried by every document.
type Meta struct {
	Title   string
	Date    time.Time
	Draft   bool
	Images  []string
	Summary string
	Tags    []string
}

// Validate enforces the authoring contract: title, date, and summary are
// required; draft, images, and tags are optional.
func (m Meta) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Date, validation.Required),
		validation.Field(&m.Summary, validation.Required),
	)
}

// Link is an inline Markdown link or image reference with its source line.
type Link struct {
	Text   string
	Target string
	Line   int
	Image  bool
}

// Fence is a fenced code block. Line is the opening fence line; Closed is
// false when the fence runs to end of file.
type Fence struct {
	Lang   string
	Code   string
	Line   int
	Closed bool
}

// Heading is an ATX heading with its GitHub-style anchor.
type Heading struct {
	Level  int
	Text   string
	Anchor string
	Line   int
}

// Result holds the output of parsing a Markdown document.
type Result struct {
	Meta           Meta
	Frontmatter    map[string]interface{}
	Body           string
	BodyLine       int
	Links          []Link
	Fences         []Fence
	Headings       []Heading
	Title          string
	HasFrontmatter bool
	FrontmatterErr error
}

// Parse extracts front matter, body, links, fences, and headings from raw
// Markdown bytes. Bad front matter never fails the parse: an invalid YAML
// block falls back to treating the whole file as body, with FrontmatterErr
// recording the decode error.
func Parse(data []byte) (*Result, error) {
	res := &Result{}

	block, body, has := splitFrontmatter(data)
	res.Body = body
	res.HasFrontmatter = has

	if has {
		var fm map[string]interface{}
		if err := yaml.Unmarshal(block, &fm); err != nil {
			res.Body = string(data)
			res.FrontmatterErr = err
		} else {
			res.Frontmatter = fm
			res.Meta = metaFrom(fm)
		}
	}

	res.BodyLine = bodyLine(data, res.Body)
	res.Links, res.Fences, res.Headings = scanBody(res.Body, res.BodyLine)

	res.Title = res.Meta.Title
	if res.Title == "" {
		for _, h := range res.Headings {
			if h.Level == 1 {
				res.Title = h.Text
				break
			}
		}
	}

	return res, nil
}

// Anchor returns the GitHub-style anchor for a heading text: lowercased,
// punctuation stripped, spaces replaced with hyphens.
func Anchor(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = anchorStripRe.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "-")
}

// splitFrontmatter separates a YAML front-matter block (between leading ---
// delimiters) from the Markdown body. If no block is found the entire
// content is body.
func splitFrontmatter(data []byte) (block []byte, body string, has bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return nil, string(data), false
	}

	block = rest[:idx]
	after := rest[idx+1+len(delim):]
	body = strings.TrimLeft(string(after), "\n\r")
	return block, body, true
}

// bodyLine returns the 1-based line number in data where body begins. The
// body is always a verbatim suffix of data.
func bodyLine(data []byte, body string) int {
	prefix := data[:len(data)-len(body)]
	return bytes.Count(prefix, []byte("\n")) + 1
}

// scanBody walks the body once, tracking fence state so that links and
// headings inside code blocks are not extracted.
func scanBody(body string, startLine int) ([]Link, []Fence, []Heading) {
	var (
		links    []Link
		fences   []Fence
		headings []Heading

		inFence  bool
		fenceTok string
		cur      Fence
		curCode  []string
	)

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		n := startLine + i
		stripped := strings.TrimSpace(line)

		if m := fenceRe.FindStringSubmatch(stripped); m != nil {
			if inFence {
				// A closing fence uses the same character, is at least as
				// long as the opener, and carries no info string.
				if strings.HasPrefix(stripped, fenceTok) && m[2] == "" {
					cur.Code = strings.Join(curCode, "\n")
					cur.Closed = true
					fences = append(fences, cur)
					inFence = false
					curCode = nil
				} else {
					curCode = append(curCode, line)
				}
				continue
			}
			inFence = true
			fenceTok = m[1]
			cur = Fence{Lang: m[2], Line: n}
			curCode = nil
			continue
		}

		if inFence {
			curCode = append(curCode, line)
			continue
		}

		if m := headingRe.FindStringSubmatch(line); m != nil {
			text := closingHashRe.ReplaceAllString(strings.TrimSpace(m[2]), "")
			if text != "" {
				headings = append(headings, Heading{
					Level:  len(m[1]),
					Text:   text,
					Anchor: Anchor(text),
					Line:   n,
				})
			}
			continue
		}

		for _, m := range linkRe.FindAllStringSubmatch(line, -1) {
			links = append(links, Link{
				Text:   m[2],
				Target: m[3],
				Line:   n,
				Image:  m[1] == "!",
			})
		}
	}

	if inFence {
		cur.Code = strings.Join(curCode, "\n")
		fences = append(fences, cur)
	}

	return links, fences, headings
}

// metaFrom builds the typed front matter from the raw map. Wrongly typed
// fields are left at their zero value; lint surfaces them separately.
func metaFrom(fm map[string]interface{}) Meta {
	return Meta{
		Title:   strField(fm, "title"),
		Date:    dateField(fm, "date"),
		Draft:   boolField(fm, "draft"),
		Images:  strSliceField(fm, "images"),
		Summary: strField(fm, "summary"),
		Tags:    strSliceField(fm, "tags"),
	}
}

func strField(fm map[string]interface{}, key string) string {
	if s, ok := fm[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func boolField(fm map[string]interface{}, key string) bool {
	b, _ := fm[key].(bool)
	return b
}

func strSliceField(fm map[string]interface{}, key string) []string {
	raw, ok := fm[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// dateField accepts YAML timestamps and the date string forms ParseDate knows.
func dateField(fm map[string]interface{}, key string) time.Time {
	switch v := fm[key].(type) {
	case time.Time:
		return v
	case string:
		if t, ok := ParseDate(v); ok {
			return t
		}
	}
	return time.Time{}
}

// ParseDate parses the date string forms accepted in front matter.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InternalTargets resolves every internal .md link in links against docPath
// and returns the corpus paths, deduplicated in first-seen order. These are
// the edges the index stores.
func InternalTargets(docPath string, links []Link) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, ln := range links {
		resolved, _, ok := ResolveInternal(docPath, ln.Target)
		if !ok || resolved == docPath {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		out = append(out, resolved)
	}
	return out
}

// ResolveInternal resolves an internal .md link target against the linking
// document's path, returning the corpus path and any #anchor. ok is false
// for external targets, bare anchors, and anything that is not a .md path.
func ResolveInternal(docPath, target string) (resolved, anchor string, ok bool) {
	if target == "" || strings.HasPrefix(target, "#") {
		return "", "", false
	}
	for _, prefix := range []string{"http://", "https://", "mailto:", "//"} {
		if strings.HasPrefix(target, prefix) {
			return "", "", false
		}
	}
	rel, frag, _ := strings.Cut(target, "#")
	if !strings.HasSuffix(rel, ".md") {
		return "", "", false
	}
	if strings.HasPrefix(rel, "/") {
		// Root-relative form resolves against the content root.
		return path.Clean(strings.TrimPrefix(rel, "/")), frag, true
	}
	return path.Clean(path.Join(path.Dir(docPath), rel)), frag, true
}
