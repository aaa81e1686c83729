package render

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/testutil"
)

func buildLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuild(t *testing.T) {
	contentDir, docs := testutil.TestTree(t)
	staticDir := t.TempDir()
	outDir := t.TempDir()

	testutil.WriteDoc(t, contentDir, "workshop/new.md", `---
title: New Edition
date: 2024-03-19
summary: The latest run.
tags: [go]
---

# New Edition

See [the old edition](old.md).
`)
	testutil.WriteDoc(t, contentDir, "workshop/old.md", `---
title: Old Edition
date: 2021-06-01
summary: The first run.
---

# Old Edition
`)
	testutil.WriteDoc(t, contentDir, "workshop/wip.md", `---
title: Work In Progress
date: 2024-05-01
summary: Not done.
draft: true
---

# WIP
`)
	if err := os.MkdirAll(filepath.Join(staticDir, "covers"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(staticDir, "covers", "a.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Build(Site{Title: "Workshop"}, docs, staticDir, outDir, false, buildLogger()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	newPage, err := os.ReadFile(filepath.Join(outDir, "workshop", "new.html"))
	if err != nil {
		t.Fatalf("rendered page missing: %v", err)
	}
	if !strings.Contains(string(newPage), `href="old.html"`) {
		t.Errorf("internal link not rewritten to .html: %s", newPage)
	}
	if strings.Contains(string(newPage), "EventSource") {
		t.Error("static build must not carry the live-reload script")
	}

	if _, err := os.Stat(filepath.Join(outDir, "workshop", "old.html")); err != nil {
		t.Errorf("old.html missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "workshop", "wip.html")); !os.IsNotExist(err) {
		t.Error("draft should not be rendered without --drafts")
	}

	idx, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	if err != nil {
		t.Fatalf("index.html missing: %v", err)
	}
	s := string(idx)
	if strings.Index(s, "New Edition") > strings.Index(s, "Old Edition") {
		t.Error("index should list newest first")
	}

	asset, err := os.ReadFile(filepath.Join(outDir, "static", "covers", "a.svg"))
	if err != nil {
		t.Fatalf("static asset not copied: %v", err)
	}
	if string(asset) != "<svg/>" {
		t.Errorf("asset content = %q", asset)
	}
}

func TestBuild_IncludeDrafts(t *testing.T) {
	contentDir, docs := testutil.TestTree(t)
	outDir := t.TempDir()

	testutil.WriteDoc(t, contentDir, "wip.md", `---
title: WIP
date: 2024-05-01
summary: Not done.
draft: true
---

# WIP
`)

	if err := Build(Site{Title: "Workshop"}, docs, filepath.Join(outDir, "no-static"), outDir, true, buildLogger()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "wip.html"))
	if err != nil {
		t.Fatalf("draft page missing with drafts enabled: %v", err)
	}
	if !strings.Contains(string(data), `<span class="draft">draft</span>`) {
		t.Error("draft marker missing on rendered draft page")
	}
}

func TestHTMLPath(t *testing.T) {
	if got := HTMLPath("workshop/a.md"); got != "workshop/a.html" {
		t.Errorf("HTMLPath = %q", got)
	}
}
