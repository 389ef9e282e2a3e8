// Package model defines the data carried through the publishing pipeline and
// the read model of stored posts.
package model

import (
	"html/template"
	"strings"
	"time"

	"github.com/debemdeboas/quill/internal/util"
)

type PostID string

// Post is the read model of a stored post. Body is opaque to the pipeline
// except for the image references inside it.
type Post struct {
	ID PostID

	Title    string
	Body     []byte
	ImageURL string

	// Hash of the stored (compressed) body, used to detect content changes.
	BodyHash string

	CreatedDate  time.Time
	ModifiedDate time.Time

	IsDeleted bool

	// Optional data from Mmark front matter, filled in at render time.
	Info *util.ExtendedTitleData
}

func (p *Post) GetTitle() string {
	if p.Info != nil && p.Info.TitleData != nil && p.Info.Title != "" && p.Title == "" {
		var s strings.Builder

		if p.Info.SeriesInfo.Name != "" && p.Info.SeriesInfo.Value != "" {
			s.WriteString("[")
			s.WriteString(p.Info.SeriesInfo.Name)
			s.WriteString("-")
			s.WriteString(p.Info.SeriesInfo.Value)
			s.WriteString("] ")
		}

		s.WriteString(p.Info.Title)

		return s.String()
	}
	return p.Title
}

// Visible reports whether the post belongs in list views.
func (p *Post) Visible() bool {
	return !p.IsDeleted
}

// RenderedPost is derived from a Post on every read and never persisted.
type RenderedPost struct {
	ID          PostID
	Title       string
	HTML        template.HTML
	ImageURL    string
	CreatedDate time.Time
}

// ValidPostID reports whether id has the shape of a stored post id. Malformed
// ids are treated like missing ones.
func ValidPostID(id PostID) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
