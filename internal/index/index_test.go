package index

import (
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "kenaz-jekyll-test-*.db")
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
	if err := db.conn.QueryRow(`SELECT count(*) FROM posts`).Scan(&count); err != nil {
		t.Fatalf("posts table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestRecordPostAndList(t *testing.T) {
	db := testDB(t)
	row := PostRow{
		Source:      "/vault/hello.md",
		Filename:    "2025-03-19-Hello-World",
		Title:       "Hello World",
		Date:        "2025-03-19",
		Tags:        []string{"go", "출근"},
		Checksum:    "abc123",
		ConvertedAt: time.Now(),
	}
	if err := db.RecordPost(row, nil); err != nil {
		t.Fatalf("RecordPost: %v", err)
	}
	posts, err := db.Posts()
	if err != nil {
		t.Fatalf("Posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("len(posts) = %d, want 1", len(posts))
	}
	p := posts[0]
	if p.Filename != row.Filename || p.Title != row.Title || p.Checksum != "abc123" {
		t.Errorf("post = %+v", p)
	}
	if len(p.Tags) != 2 || p.Tags[1] != "출근" {
		t.Errorf("tags = %v", p.Tags)
	}
}

func TestUnresolvedLinks(t *testing.T) {
	db := testDB(t)
	links := []LinkRow{
		{Target: "Known", Destination: "2025-01-01-Known", Resolved: true},
		{Target: "Missing", Destination: "1970-01-01-missing"},
		{Target: "Missing", Destination: "1970-01-01-missing", Embed: true},
	}
	if err := db.RecordPost(PostRow{Source: "/vault/a.md", Filename: "a", ConvertedAt: time.Now()}, links); err != nil {
		t.Fatalf("RecordPost: %v", err)
	}

	got, err := db.UnresolvedLinks()
	if err != nil {
		t.Fatalf("UnresolvedLinks: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	for _, l := range got {
		if l.Source != "/vault/a.md" || l.Target != "Missing" || l.Resolved {
			t.Errorf("unexpected link %+v", l)
		}
	}
}

func TestRecordPostReplacesLinks(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.RecordPost(PostRow{Source: "s", Filename: "old", ConvertedAt: now}, []LinkRow{{Target: "X"}})
	_ = db.RecordPost(PostRow{Source: "s", Filename: "new", ConvertedAt: now}, []LinkRow{{Target: "Y"}})

	got, _ := db.UnresolvedLinks()
	if len(got) != 1 || got[0].Target != "Y" {
		t.Errorf("links = %+v, want only Y", got)
	}
	posts, _ := db.Posts()
	if len(posts) != 1 || posts[0].Filename != "new" {
		t.Errorf("posts = %+v", posts)
	}
}

func TestPrune(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.RecordPost(PostRow{Source: "keep", Filename: "k", ConvertedAt: now}, []LinkRow{{Target: "A"}})
	_ = db.RecordPost(PostRow{Source: "gone", Filename: "g", ConvertedAt: now}, []LinkRow{{Target: "B"}})

	n, err := db.Prune(map[string]struct{}{"keep": {}})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	posts, _ := db.Posts()
	if len(posts) != 1 || posts[0].Source != "keep" {
		t.Errorf("posts = %+v", posts)
	}
	links, _ := db.UnresolvedLinks()
	if len(links) != 1 || links[0].Target != "A" {
		t.Errorf("links = %+v", links)
	}
}

func TestPosts_CorruptTagsReported(t *testing.T) {
	db := testDB(t)
	if err := db.RecordPost(PostRow{Source: "/vault/a.md", Filename: "2025-01-01-A", ConvertedAt: time.Now()}, nil); err != nil {
		t.Fatalf("RecordPost: %v", err)
	}
	if _, err := db.conn.Exec(`UPDATE posts SET tags = '{not json' WHERE source = ?`, "/vault/a.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Posts(); err == nil {
		t.Error("expected error for corrupt tags column")
	}
}
