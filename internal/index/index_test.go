package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "ansuz-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM docs`).Scan(&count); err != nil {
		t.Fatalf("docs table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := DocRow{
		Path:      "workshop/hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Tags:      []string{"go", "graphql"},
		Words:     7,
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDoc(row, "This is a hello world page.", []string{"workshop/other.md"}); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}
	cs, err := db.GetChecksum("workshop/hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestGetDoc(t *testing.T) {
	db := testDB(t)
	date := time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC)
	row := DocRow{
		Path:      "workshop/a.md",
		Title:     "A",
		Date:      date,
		Draft:     true,
		Summary:   "A summary.",
		Checksum:  "c1",
		Tags:      []string{"go"},
		Words:     42,
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDoc(row, "body", nil); err != nil {
		t.Fatalf("UpsertDoc: %v", err)
	}

	got, err := db.GetDoc("workshop/a.md")
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if got.Title != "A" || got.Summary != "A summary." || !got.Draft || got.Words != 42 {
		t.Errorf("row = %+v", got)
	}
	if !got.Date.Equal(date) {
		t.Errorf("date = %v, want %v", got.Date, date)
	}
}

func TestGetDoc_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := db.GetDoc("nope.md"); err == nil {
		t.Fatal("expected error for missing doc")
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "a.md", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})
	_ = db.UpsertDoc(DocRow{Path: "c.md", Checksum: "2", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 {
		t.Fatalf("expected 2 backlinks, got %d", len(bl))
	}
}

func TestDeleteDoc(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "del.md", Checksum: "x", Tags: []string{}, UpdatedAt: time.Now()}, "body", []string{"target.md"})

	if err := db.DeleteDoc("del.md"); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted doc still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "up.md", Title: "Old", Checksum: "1", Tags: []string{}, UpdatedAt: now}, "old body", []string{"x.md"})
	_ = db.UpsertDoc(DocRow{Path: "up.md", Title: "New", Checksum: "2", Tags: []string{"new"}, UpdatedAt: now}, "new body", []string{"y.md"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestListDocs_ExcludesDraftsByDefault(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "pub.md", Title: "Pub", Checksum: "1", UpdatedAt: now}, "", nil)
	_ = db.UpsertDoc(DocRow{Path: "wip.md", Title: "WIP", Draft: true, Checksum: "2", UpdatedAt: now}, "", nil)

	rows, total, err := db.ListDocs(ListQuery{})
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "pub.md" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}

	rows, total, err = db.ListDocs(ListQuery{Drafts: true})
	if err != nil {
		t.Fatalf("ListDocs drafts: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Errorf("with drafts: rows = %+v, total = %d", rows, total)
	}
}

func TestListDocs_DateOrderNewestFirst(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "old.md", Date: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), Checksum: "1", UpdatedAt: now}, "", nil)
	_ = db.UpsertDoc(DocRow{Path: "new.md", Date: time.Date(2024, 3, 19, 0, 0, 0, 0, time.UTC), Checksum: "2", UpdatedAt: now}, "", nil)
	_ = db.UpsertDoc(DocRow{Path: "mid.md", Date: time.Date(2022, 9, 5, 0, 0, 0, 0, time.UTC), Checksum: "3", UpdatedAt: now}, "", nil)

	rows, _, err := db.ListDocs(ListQuery{})
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	want := []string{"new.md", "mid.md", "old.md"}
	for i, w := range want {
		if rows[i].Path != w {
			t.Fatalf("rows[%d] = %s, want %s (all: %+v)", i, rows[i].Path, w, rows)
		}
	}
}

func TestListDocs_TagFilter(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "a.md", Tags: []string{"graphql", "go"}, Checksum: "1", UpdatedAt: now}, "", nil)
	_ = db.UpsertDoc(DocRow{Path: "b.md", Tags: []string{"postgres"}, Checksum: "2", UpdatedAt: now}, "", nil)

	rows, total, err := db.ListDocs(ListQuery{Tag: "graphql"})
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Path != "a.md" {
		t.Errorf("rows = %+v, total = %d", rows, total)
	}
}

func TestListDocs_Pagination(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	for _, p := range []string{"a.md", "b.md", "c.md"} {
		_ = db.UpsertDoc(DocRow{Path: p, Checksum: p, UpdatedAt: now}, "", nil)
	}

	rows, total, err := db.ListDocs(ListQuery{Limit: 2, Offset: 2, Sort: "path"})
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(rows) != 1 || rows[0].Path != "c.md" {
		t.Errorf("rows = %+v, want just c.md", rows)
	}
}

func TestListTags(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDoc(DocRow{Path: "a.md", Tags: []string{"go", "graphql"}, Checksum: "1", UpdatedAt: now}, "", nil)
	_ = db.UpsertDoc(DocRow{Path: "b.md", Tags: []string{"go"}, Checksum: "2", UpdatedAt: now}, "", nil)

	tags, err := db.ListTags()
	if err != nil {
		t.Fatalf("ListTags: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("tags = %+v", tags)
	}
	if tags[0].Tag != "go" || tags[0].Count != 2 {
		t.Errorf("tags[0] = %+v, want go/2", tags[0])
	}
	if tags[1].Tag != "graphql" || tags[1].Count != 1 {
		t.Errorf("tags[1] = %+v, want graphql/1", tags[1])
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "s.md", Title: "Search Me", Checksum: "1", Tags: []string{}, UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSearch_MatchesSummary(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDoc(DocRow{Path: "sum.md", Title: "T", Summary: "walks through sqlc and gqlgen", Checksum: "1", UpdatedAt: time.Now()}, "plain body", nil)

	results, err := db.Search("sqlc", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "sum.md" {
		t.Errorf("search results = %+v, want 1 hit for sum.md", results)
	}
}
