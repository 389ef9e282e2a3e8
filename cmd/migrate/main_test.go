package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/repository"
)

func TestParseFuzzyTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		input    string
		expected time.Time
	}{
		{"2024-03-01T10:30:00Z", want},
		{"2024-03-01T12:30:00+02:00", want},
		{"2024-03-01 12:30:00+02:00", want},
		{"2024-03-01 10:30:00", want},
		{"2024-03-01 10:30:00.000000000+00:00", want},
		{"  2024-03-01T10:30:00Z ", want},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"1709289000", want},
	}

	for _, tc := range testCases {
		got, err := parseFuzzyTime(tc.input)
		if err != nil {
			t.Errorf("parseFuzzyTime(%q) failed: %v", tc.input, err)
			continue
		}
		if !got.Equal(tc.expected) {
			t.Errorf("parseFuzzyTime(%q) = %v, expected %v", tc.input, got, tc.expected)
		}
	}

	if _, err := parseFuzzyTime("last tuesday"); err == nil {
		t.Error("Expected an error for an unparseable time")
	}
}

func TestReadLegacyJSON(t *testing.T) {
	data := []byte(`[
		{"id": 7, "title": " Cats ", "content": "a\r\nb <img src=\"cat.png\">", "image_url": "https://x/cat.png", "created_at": "2020-05-01 08:00:00", "is_deleted": 0},
		{"id": "8", "title": "Gone", "content": "c", "image_url": null, "created_at": "2020-05-02T08:00:00Z", "is_deleted": 1}
	]`)

	posts, err := readLegacyJSON(data)
	if err != nil {
		t.Fatalf("readLegacyJSON failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	first := posts[0]
	if first.ID != "7" || first.Title != "Cats" || first.IsDeleted {
		t.Errorf("Unexpected first post %+v", first)
	}
	if string(first.Body) != "a\nb <img src=\"cat.png\">" {
		t.Errorf("Expected normalized body kept verbatim otherwise, got %q", first.Body)
	}
	if first.ImageURL != "https://x/cat.png" {
		t.Errorf("Expected image url, got %q", first.ImageURL)
	}

	if !posts[1].IsDeleted || posts[1].ImageURL != "" {
		t.Errorf("Unexpected second post %+v", posts[1])
	}
}

func TestReadLegacyJSONRejects(t *testing.T) {
	testCases := map[string]string{
		"bad id":   `[{"id": "../x", "title": "t", "content": "c", "created_at": "2020-05-01"}]`,
		"bad time": `[{"id": 1, "title": "t", "content": "c", "created_at": "soon"}]`,
		"not json": `{`,
	}

	for name, data := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := readLegacyJSON([]byte(data)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestReadMarkdownDir(t *testing.T) {
	dir := t.TempDir()

	withFM := "%%%\ntitle = \"Front Title\"\ndate = 2021-06-01T00:00:00Z\n%%%\n\nBody"
	if err := os.WriteFile(filepath.Join(dir, "first post.md"), []byte(withFM), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plain.md"), []byte("# Plain"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatal(err)
	}

	posts, err := readMarkdownDir(dir)
	if err != nil {
		t.Fatalf("readMarkdownDir failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}

	byID := map[string]int{}
	for i, p := range posts {
		byID[string(p.ID)] = i
	}

	fm := posts[byID["first-post"]]
	if fm.Title != "Front Title" {
		t.Errorf("Expected front matter title, got %q", fm.Title)
	}
	if !fm.CreatedDate.Equal(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected front matter date, got %v", fm.CreatedDate)
	}

	if posts[byID["plain"]].Title != "plain" {
		t.Errorf("Expected file name title, got %q", posts[byID["plain"]].Title)
	}
}

func TestFixTimestamps(t *testing.T) {
	database := db.NewSQLite(db.MemoryPath)
	if err := database.InitDb(); err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	ctx := context.Background()
	repo := repository.NewDBPostRepository(database)
	post := repo.NewPost()
	post.ID = "old"
	post.Title = "t"
	post.Body = []byte("body")
	if err := repo.SavePost(ctx, post); err != nil {
		t.Fatalf("Failed to save post: %v", err)
	}

	_, err := database.Exec(ctx,
		`UPDATE posts SET created_at = '2020-01-02 05:04:05+02:00', modified_at = 'garbage' WHERE id = 'old'`)
	if err != nil {
		t.Fatalf("Failed to write legacy timestamps: %v", err)
	}

	n, err := fixTimestamps(ctx, database, false)
	if err != nil {
		t.Fatalf("fixTimestamps failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 updated row, got %d", n)
	}

	post, err = repo.ReadPost(ctx, "old")
	if err != nil {
		t.Fatalf("ReadPost failed: %v", err)
	}
	want := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	if !post.CreatedDate.Equal(want) {
		t.Errorf("Expected created %v, got %v", want, post.CreatedDate)
	}
	if !post.ModifiedDate.Equal(want) {
		t.Errorf("Expected unparseable modified_at to fall back to created, got %v", post.ModifiedDate)
	}
}
