package backend

import "encoding/json"

// Resolver type values reported by POST /api/info.
const (
	TypeTrack    = "track"
	TypePlaylist = "playlist"
	TypeAlbum    = "album"
)

// Job status values reported by GET /api/progress/{task_id}.
const (
	StatusStarting    = "starting"
	StatusDownloading = "downloading"
	StatusProcessing  = "processing"
	StatusCompleted   = "completed"
	StatusFailed      = "error"
)

type InfoRequest struct {
	URL string `json:"url"`
}

// InfoResponse is the raw resolver result. Data is either a JSON object (single item, or a collection record) or a
// JSON array (collection); interpreting it is left to the media package.
type InfoResponse struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Count *int            `json:"count,omitempty"`
}

type DownloadRequest struct {
	SourceURL string `json:"spotify_url"`
	Quality   string `json:"quality"`
}

type DownloadResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// Progress is one status report for a job. Optional numeric fields are nil when absent.
type Progress struct {
	Status       string   `json:"status"`
	Percent      *float64 `json:"percent,omitempty"`
	CurrentTrack *int     `json:"current_track,omitempty"`
	TotalTracks  *int     `json:"total_tracks,omitempty"`
	Filename     string   `json:"filename,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// Settings are the resolver credentials held by the backend.
type Settings struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Masked returns a copy with all but the last four characters of the secret hidden.
func (s Settings) Masked() Settings {
	const visible = 4
	if n := len(s.ClientSecret); n > visible {
		masked := make([]byte, n)
		for i := range masked[:n-visible] {
			masked[i] = '*'
		}
		copy(masked[n-visible:], s.ClientSecret[n-visible:])
		s.ClientSecret = string(masked)
	} else if n > 0 {
		s.ClientSecret = "****"
	}
	return s
}
