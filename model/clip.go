package model

import (
	"fmt"
	"strings"
	"time"
)

// Clip represents one short audio asset plus its play counter.
// PlayCount is only ever mutated through the repository's atomic
// increment; it never decreases.
type Clip struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string    `json:"title" gorm:"size:255;not null;index"`
	Description string    `json:"description" gorm:"type:text"`
	Genre       string    `json:"genre" gorm:"size:100;not null"`
	Duration    string    `json:"duration" gorm:"size:32;not null"` // display string, e.g. "30s"
	AudioURL    string    `json:"audioUrl" gorm:"size:767;not null"`
	PlayCount   int64     `json:"playCount" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of GORM's pluralization.
func (Clip) TableName() string {
	return "clips"
}

// HasRemoteSource reports whether the clip's audio lives behind an external
// URL (served via redirect) as opposed to an object-store path (proxied).
func (c *Clip) HasRemoteSource() bool {
	return strings.HasPrefix(c.AudioURL, "http://") || strings.HasPrefix(c.AudioURL, "https://")
}

// ClipStats is the play-count view of a clip returned by the stats endpoint.
type ClipStats struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	PlayCount   int64  `json:"playCount"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Duration    string `json:"duration"`
}

// Stats returns the stats view of the clip.
func (c *Clip) Stats() ClipStats {
	return ClipStats{
		ID:          c.ID,
		Title:       c.Title,
		PlayCount:   c.PlayCount,
		Description: c.Description,
		Genre:       c.Genre,
		Duration:    c.Duration,
	}
}

// CreateClipRequest carries the fields accepted when creating a clip.
type CreateClipRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Duration    string `json:"duration"`
	AudioURL    string `json:"audioUrl"`
}

// Validate checks the request before anything touches storage.
func (r *CreateClipRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(r.Genre) == "" {
		return fmt.Errorf("genre is required")
	}
	if strings.TrimSpace(r.Duration) == "" {
		return fmt.Errorf("duration is required")
	}
	url := strings.TrimSpace(r.AudioURL)
	if url == "" {
		return fmt.Errorf("audioUrl is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") &&
		!strings.HasPrefix(url, "audio/") {
		return fmt.Errorf("audioUrl must be an HTTP/HTTPS URL or an audio/ object path")
	}
	return nil
}

// Clip builds a Clip from the validated request.
func (r *CreateClipRequest) Clip() *Clip {
	return &Clip{
		Title:       strings.TrimSpace(r.Title),
		Description: strings.TrimSpace(r.Description),
		Genre:       strings.TrimSpace(r.Genre),
		Duration:    strings.TrimSpace(r.Duration),
		AudioURL:    strings.TrimSpace(r.AudioURL),
	}
}
