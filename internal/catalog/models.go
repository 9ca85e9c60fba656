package catalog

import "time"

// ProcessingState is the forward-only download/transcode marker on a show.
type ProcessingState string

const (
	StateUnset      ProcessingState = ""
	StateDownloaded ProcessingState = "downloaded"
	StateConverted  ProcessingState = "converted"
)

// Show is one archived broadcast, keyed by its playlist page URL.
type Show struct {
	ID              string          `json:"id"`
	ExternalID      string          `json:"externalId,omitempty"`
	Title           string          `json:"title,omitempty"`
	Date            time.Time       `json:"date"`
	PlaylistURL     string          `json:"playlistUrl"`
	ArchiveURL      string          `json:"archiveUrl,omitempty"`
	AudioFormat     string          `json:"audioFormat,omitempty"`
	AudioPath       string          `json:"audioPath,omitempty"`
	RawAudioPath    string          `json:"rawAudioPath,omitempty"`
	RawAudioFormat  string          `json:"rawAudioFormat,omitempty"`
	Processed       bool            `json:"processed"`
	ProcessingState ProcessingState `json:"processingState,omitempty"`
	DownloadedAt    *time.Time      `json:"downloadedAt,omitempty"`
	ConvertedAt     *time.Time      `json:"convertedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Tracks          []Track         `json:"tracks,omitempty"`
}

// Track is one playlist entry belonging to a show.
type Track struct {
	ID       string `json:"id"`
	ShowID   string `json:"showId"`
	Position int    `json:"position"`
	Artist   string `json:"artist"`
	Title    string `json:"title"`
	Album    string `json:"album,omitempty"`
	Label    string `json:"label,omitempty"`
	Year     *int   `json:"year,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// NewShow carries the fields of a first sighting.
type NewShow struct {
	ExternalID  string
	Title       string
	Date        time.Time
	PlaylistURL string
	ArchiveURL  string
	AudioFormat string
	Tracks      []Track
}

// Patch lists gap-filling updates. Nil fields are left untouched.
type Patch struct {
	Title       *string
	ArchiveURL  *string
	AudioFormat *string
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.ArchiveURL == nil && p.AudioFormat == nil
}

// Downloaded records a fresh raw artifact.
type Downloaded struct {
	RawAudioPath   string
	RawAudioFormat string
	At             time.Time
}

// Converted records the canonical artifact.
type Converted struct {
	AudioPath   string
	AudioFormat string
	At          time.Time
}

// Page is one page of shows plus the totals needed for pagination.
type Page struct {
	Shows      []Show
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
