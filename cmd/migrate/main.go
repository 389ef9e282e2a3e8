// Command migrate imports legacy content into the post store and repairs
// timestamps written in older formats.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/db"
	"github.com/debemdeboas/quill/internal/logger"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/repository"
	"github.com/debemdeboas/quill/internal/util"
)

var log zerolog.Logger

func main() {
	configPath := flag.String("config", config.ConfigPath(), "Path to the config file")
	dbPath := flag.String("db", "", "Database path (defaults to database.path from the config)")
	mdDir := flag.String("path", "", "Directory of .md files to import")
	jsonFile := flag.String("json", "", "JSON export of the legacy posts table")
	fixTimes := flag.Bool("fix-times", false, "Rewrite stored timestamps in RFC 3339 UTC")
	dryRun := flag.Bool("dry-run", false, "Parse everything, write nothing")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log = logger.New(config.AppConfig.Logging.Level)
	repository.SetLogger(log)
	db.SetLogger(log)

	if *mdDir == "" && *jsonFile == "" && !*fixTimes {
		log.Fatal().Msg("Nothing to do: pass --path, --json or --fix-times")
	}

	path := *dbPath
	if path == "" {
		path = config.AppConfig.Database.Path
	}
	database := db.NewSQLite(path)
	if err := database.InitDb(); err != nil {
		log.Fatal().Msgf(config.ErrInitializeDatabaseFmt, err)
	}
	defer database.Close()

	ctx := context.Background()
	repo := repository.NewDBPostRepository(database)

	if *fixTimes {
		n, err := fixTimestamps(ctx, database, *dryRun)
		if err != nil {
			log.Fatal().Err(err).Msg("Timestamp migration failed")
		}
		log.Info().Int("updated", n).Msg("Timestamp migration complete")
	}

	var posts []*model.Post
	if *mdDir != "" {
		p, err := readMarkdownDir(*mdDir)
		if err != nil {
			log.Fatal().Err(err).Str("path", *mdDir).Msg("Failed to read markdown directory")
		}
		posts = append(posts, p...)
	}
	if *jsonFile != "" {
		data, err := os.ReadFile(*jsonFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read JSON export")
		}
		p, err := readLegacyJSON(data)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse JSON export")
		}
		posts = append(posts, p...)
	}

	saved := 0
	for _, post := range posts {
		if *dryRun {
			log.Info().Str("post_id", string(post.ID)).Str("title", post.Title).Msg("Would import post")
			continue
		}
		if err := repo.SavePost(ctx, post); err != nil {
			log.Error().Err(err).Str("post_id", string(post.ID)).Msg("Failed to save post")
			continue
		}
		saved++
	}
	log.Info().Int("found", len(posts)).Int("saved", saved).Msg("Import complete")
}

// readMarkdownDir turns every .md file of dir into a post. The front matter
// supplies the title and date when present; otherwise the file name and
// modification time are used.
func readMarkdownDir(dir string) ([]*model.Post, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var posts []*model.Post
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		modTime := info.ModTime().UTC()
		title := strings.TrimSuffix(entry.Name(), ".md")
		created := modTime

		if fm, err := util.GetFrontMatter(content); err == nil && fm != nil {
			if t := strings.TrimSpace(fm.Title); t != "" {
				title = t
			}
			if !fm.Date.IsZero() {
				created = fm.Date.UTC()
			}
		}

		posts = append(posts, &model.Post{
			ID:           model.PostID(legacyIDFromName(entry.Name())),
			Title:        title,
			Body:         []byte(util.NormalizeContent(string(content))),
			CreatedDate:  created,
			ModifiedDate: modTime,
		})
	}
	return posts, nil
}

// legacyIDFromName keeps file-based posts addressable by their old slug.
func legacyIDFromName(name string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSuffix(name, ".md"))
	if len(slug) > 64 {
		slug = slug[:64]
	}
	return slug
}

// legacyRow is one row of the legacy posts export. Ids were integers,
// is_deleted was 0/1 and timestamps came in several formats.
type legacyRow struct {
	ID        flexString `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	ImageURL  *string    `json:"image_url"`
	CreatedAt flexString `json:"created_at"`
	IsDeleted flexString `json:"is_deleted"`
}

// flexString accepts a JSON string, number or bool.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) bool() bool {
	b, err := strconv.ParseBool(string(f))
	return err == nil && b
}

func readLegacyJSON(data []byte) ([]*model.Post, error) {
	var rows []legacyRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	posts := make([]*model.Post, 0, len(rows))
	for i, row := range rows {
		id := model.PostID(row.ID)
		if !model.ValidPostID(id) {
			return nil, fmt.Errorf("row %d: invalid id %q", i, row.ID)
		}

		created, err := parseFuzzyTime(string(row.CreatedAt))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, id, err)
		}

		post := &model.Post{
			ID:           id,
			Title:        strings.TrimSpace(row.Title),
			Body:         []byte(util.NormalizeContent(row.Content)),
			CreatedDate:  created,
			ModifiedDate: created,
			IsDeleted:    row.IsDeleted.bool(),
		}
		if row.ImageURL != nil {
			post.ImageURL = strings.TrimSpace(*row.ImageURL)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// parseFuzzyTime attempts to parse a timestamp string using multiple formats.
func parseFuzzyTime(timeStr string) (time.Time, error) {
	timeFormats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		time.RFC3339,
		"2006-01-02 15:04:05", // Without timezone, read as UTC
		"2006-01-02",
	}

	timeStr = strings.TrimSpace(timeStr)
	for _, format := range timeFormats {
		if parsed, err := time.Parse(format, timeStr); err == nil {
			return parsed.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(timeStr, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("failed to parse time '%s' with any known format", timeStr)
}

// fixTimestamps rewrites every stored timestamp through parseFuzzyTime. Rows
// whose values cannot be parsed are logged and left alone.
func fixTimestamps(ctx context.Context, database db.DB, dryRun bool) (int, error) {
	rows, err := database.Query(ctx,
		`SELECT id, CAST(created_at AS TEXT), CAST(modified_at AS TEXT) FROM posts`)
	if err != nil {
		return 0, err
	}

	type postTime struct {
		id       string
		created  string
		modified string
	}
	var all []postTime
	for rows.Next() {
		var p postTime
		if err := rows.Scan(&p.id, &p.created, &p.modified); err != nil {
			rows.Close()
			return 0, err
		}
		all = append(all, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	updated := 0
	for _, p := range all {
		created, err := parseFuzzyTime(p.created)
		if err != nil {
			log.Warn().Err(err).Str("post_id", p.id).Msg("Could not parse created_at")
			continue
		}
		modified, err := parseFuzzyTime(p.modified)
		if err != nil {
			log.Warn().Err(err).Str("post_id", p.id).Msg("Could not parse modified_at")
			modified = created
		}

		if dryRun {
			log.Info().Str("post_id", p.id).Time("created_at", created).Msg("Would update timestamps")
			continue
		}
		if _, err := database.Exec(ctx,
			`UPDATE posts SET created_at = ?, modified_at = ? WHERE id = ?`,
			created, modified, p.id); err != nil {
			return updated, fmt.Errorf("update %s: %w", p.id, err)
		}
		updated++
	}
	return updated, nil
}
