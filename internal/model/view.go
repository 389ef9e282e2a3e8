package model

import "time"

// PostView is the JSON form of a stored post. Content is the plain body text.
type PostView struct {
	ID         PostID    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	ImageURL   string    `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	IsDeleted  bool      `json:"is_deleted,omitempty"`
}

func (p *Post) View() PostView {
	return PostView{
		ID:         p.ID,
		Title:      p.Title,
		Content:    string(p.Body),
		ImageURL:   p.ImageURL,
		CreatedAt:  p.CreatedDate,
		ModifiedAt: p.ModifiedDate,
		IsDeleted:  p.IsDeleted,
	}
}

func (v PostView) Post() *Post {
	return &Post{
		ID:           v.ID,
		Title:        v.Title,
		Body:         []byte(v.Content),
		ImageURL:     v.ImageURL,
		CreatedDate:  v.CreatedAt,
		ModifiedDate: v.ModifiedAt,
		IsDeleted:    v.IsDeleted,
	}
}
