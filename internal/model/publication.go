package model

import "time"

// Publication is a Risala booklet stored in object storage with its
// metadata in the database. BookletPath is always set; AudioPath and
// ThumbnailPath are optional companion objects.
type Publication struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Filename      string    `json:"filename"`
	BookletPath   string    `json:"booklet_path"`
	AudioPath     string    `json:"audio_path,omitempty"`
	ThumbnailPath string    `json:"thumbnail_path,omitempty"`
	Size          int64     `json:"size"`
	ContentType   string    `json:"content_type"`
	CreatedAt     time.Time `json:"created_at"`
}
