package lint

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/storage"
)

const goodFM = "---\ntitle: T\ndate: 2024-01-01\nsummary: S\n---\n"

func lintEnv(t *testing.T) (*Linter, storage.Provider, storage.Provider) {
	t.Helper()
	docs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS docs: %v", err)
	}
	static, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS static: %v", err)
	}
	return New(docs, static), docs, static
}

func mustWrite(t *testing.T, p storage.Provider, path, content string) {
	t.Helper()
	if err := p.Write(path, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func corpusReport(t *testing.T, l *Linter) *Report {
	t.Helper()
	rep, err := l.Corpus()
	if err != nil {
		t.Fatalf("Corpus: %v", err)
	}
	return rep
}

func countRule(findings []Finding, rule string) int {
	n := 0
	for _, f := range findings {
		if f.Rule == rule {
			n++
		}
	}
	return n
}

func TestCorpus_Clean(t *testing.T) {
	l, docs, static := lintEnv(t)
	mustWrite(t, static, "covers/a.svg", "<svg xmlns=\"http://www.w3.org/2000/svg\"/>")

	mustWrite(t, docs, "a.md", goodFM+
		"# A\n\nSee [b](b.md).\n\n![cover](/static/covers/a.svg)\n\n"+
		"```go\nx := 1\n```\n\n```graphql\nquery { users { id } }\n```\n\n```json\n{\"ok\": true}\n```\n")
	mustWrite(t, docs, "b.md", goodFM+"# B\n\nBack to [a](a.md).\n")

	rep := corpusReport(t, l)
	if rep.Docs != 2 {
		t.Errorf("Docs = %d, want 2", rep.Docs)
	}
	if len(rep.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", rep.Findings)
	}
}

func TestFrontmatter_Missing(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "# No front matter\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "frontmatter/missing") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFrontmatter_InvalidYAML(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\n: bad: yaml: {{{\n---\nbody\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "frontmatter/invalid") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFrontmatter_RequiredKeys(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\ntitle: Only a title\n---\nbody\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "frontmatter/field"); got != 2 {
		t.Fatalf("frontmatter/field count = %d, want 2 (date, summary): %+v", got, rep.Findings)
	}
	var fields []string
	for _, f := range rep.Findings {
		fields = append(fields, f.Message)
	}
	joined := strings.Join(fields, "; ")
	if !strings.Contains(joined, "date") || !strings.Contains(joined, "summary") {
		t.Errorf("messages = %s", joined)
	}
}

func TestFrontmatter_WrongTypes(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\ntitle: T\ndate: 2024-01-01\nsummary: S\ndraft: \"maybe\"\nimages: cover.svg\n---\nbody\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "frontmatter/field"); got != 2 {
		t.Fatalf("frontmatter/field count = %d, want 2 (draft, images): %+v", got, rep.Findings)
	}
}

func TestFrontmatter_BadDateString(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\ntitle: T\ndate: \"next tuesday\"\nsummary: S\n---\nbody\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "frontmatter/field"); got != 1 {
		t.Fatalf("frontmatter/field count = %d, want 1: %+v", got, rep.Findings)
	}
	if !strings.Contains(rep.Findings[0].Message, "date") {
		t.Errorf("message = %q", rep.Findings[0].Message)
	}
}

func TestFrontmatter_ImageMissing(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\ntitle: T\ndate: 2024-01-01\nsummary: S\nimages:\n  - covers/missing.svg\n---\nbody\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "frontmatter/image") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestLink_Broken(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"See [gone](missing.md).\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "link/broken") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
	if rep.Findings[0].Line != 6 {
		t.Errorf("line = %d, want 6", rep.Findings[0].Line)
	}
}

func TestLink_Anchors(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+
		"[good](b.md#docker-setup) and [bad](b.md#nope) and [back](a.md)\n")
	mustWrite(t, docs, "b.md", goodFM+"## Docker Setup\n\nBack to [a](a.md).\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "link/anchor"); got != 1 {
		t.Errorf("link/anchor count = %d: %+v", got, rep.Findings)
	}
}

func TestLink_SelfAnchor(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"# Intro\n\nJump to [intro](#intro) or [gone](#missing).\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "link/anchor"); got != 1 {
		t.Errorf("link/anchor count = %d: %+v", got, rep.Findings)
	}
}

func TestLink_AssetMissing(t *testing.T) {
	l, docs, static := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"![d](/static/diagrams/flow.svg)\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "link/asset") != 1 {
		t.Fatalf("findings = %+v", rep.Findings)
	}

	mustWrite(t, static, "diagrams/flow.svg", "<svg xmlns=\"http://www.w3.org/2000/svg\"/>")
	rep = corpusReport(t, l)
	if countRule(rep.Findings, "link/asset") != 0 {
		t.Errorf("findings after write = %+v", rep.Findings)
	}
}

func TestLink_ExternalSkipped(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+
		"[gqlgen](https://gqlgen.com) [pgx](http://example.com/pgx.md) [mail](mailto:x@example.com)\n")

	rep := corpusReport(t, l)
	if len(rep.Findings) != 0 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestLink_RelativeWithinSubdir(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "workshop/a.md", goodFM+"See [b](b.md).\n")
	mustWrite(t, docs, "workshop/b.md", goodFM+"See [a](a.md).\n")

	rep := corpusReport(t, l)
	if len(rep.Findings) != 0 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFence_Unclosed(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"```go\nx := 1\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "fence/unclosed") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFence_Language(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"```\nplain\n```\n\n```klingon\nqapla\n```\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "fence/language"); got != 2 {
		t.Errorf("fence/language count = %d: %+v", got, rep.Findings)
	}
	for _, f := range rep.Findings {
		if f.Severity != SeverityWarning {
			t.Errorf("severity = %s, want warning", f.Severity)
		}
	}
}

func TestFence_GraphQL(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+
		"```graphql\ntype User {\n  id: ID!\n  email: String!\n}\n```\n\n"+
		"```graphql\nmutation {\n  createUser(email: \"a@b.c\") {\n    id\n  }\n}\n```\n\n"+
		"```graphql\ntype User {\n```\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "fence/graphql"); got != 1 {
		t.Errorf("fence/graphql count = %d: %+v", got, rep.Findings)
	}
}

func TestFence_JSON(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"```json\n{\"ok\": }\n```\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "fence/json") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFence_YAML(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"```yaml\nkey: [unclosed\n```\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "fence/yaml") != 1 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestFence_Go(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+
		"```go\nfunc run() error {\n```\n\n"+
		"```go\npackage main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n```\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "fence/go"); got != 1 {
		t.Errorf("fence/go count = %d: %+v", got, rep.Findings)
	}
}

func TestOrphan(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"See [b](b.md).\n")
	mustWrite(t, docs, "b.md", goodFM+"See [a](a.md).\n")
	mustWrite(t, docs, "c.md", goodFM+"Nothing links here.\n")

	rep := corpusReport(t, l)
	if got := countRule(rep.Findings, "doc/orphan"); got != 1 {
		t.Fatalf("doc/orphan count = %d: %+v", got, rep.Findings)
	}
	if rep.Findings[0].Path != "c.md" {
		t.Errorf("orphan path = %s, want c.md", rep.Findings[0].Path)
	}
}

func TestOrphan_SingleDocSkipped(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "only.md", goodFM+"Alone.\n")

	rep := corpusReport(t, l)
	if countRule(rep.Findings, "doc/orphan") != 0 {
		t.Errorf("findings = %+v", rep.Findings)
	}
}

func TestReport_Counts(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", goodFM+"[gone](missing.md)\n\n```\nplain\n```\n")

	rep := corpusReport(t, l)
	if rep.Errors != 1 || rep.Warnings != 1 {
		t.Errorf("errors = %d, warnings = %d: %+v", rep.Errors, rep.Warnings, rep.Findings)
	}
	if !rep.HasErrors() {
		t.Error("HasErrors = false")
	}
}

func TestFile_FiltersToPath(t *testing.T) {
	l, docs, _ := lintEnv(t)
	mustWrite(t, docs, "a.md", "---\ntitle: T\ndate: 2024-01-01\n---\nbody\n")
	mustWrite(t, docs, "b.md", goodFM+"See [a](a.md).\n")

	findings, err := l.File("a.md")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if len(findings) != 1 || findings[0].Rule != "frontmatter/field" {
		t.Errorf("findings = %+v", findings)
	}
	for _, f := range findings {
		if f.Path != "a.md" {
			t.Errorf("finding for %s leaked through", f.Path)
		}
	}
}
