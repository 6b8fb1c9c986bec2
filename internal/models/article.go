// internal/models/article.go
package models

import "time"

// Article is a generated blog post waiting to be published.
type Article struct {
	ID       string `json:"id"`
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
	// Title is the video title when it could be read, otherwise empty.
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	// Source is "direct" or "transcribed_audio".
	Source    string    `json:"source"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PublishedAt   *time.Time `json:"published_at,omitempty"`
	PublishStatus int        `json:"publish_status,omitempty"`
}

// Transcribed reports whether the speech-to-text fallback produced the text.
func (a *Article) Transcribed() bool {
	return a.Source == "transcribed_audio"
}

// Published reports whether the article was accepted by the blog.
func (a *Article) Published() bool {
	return a.PublishedAt != nil
}
