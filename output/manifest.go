package output

import (
	"time"

	"github.com/google/uuid"
)

// Manifest describes a crawl run
type Manifest struct {
	RunID    string    `json:"run_id"`
	Query    string    `json:"query"`
	Results  int       `json:"results"`
	Records  int       `json:"records"`
	Failed   int       `json:"failed"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// NewManifest starts a manifest for a run searching query
func NewManifest(query string) Manifest {
	return Manifest{
		RunID:   uuid.NewString(),
		Query:   query,
		Started: time.Now(),
	}
}
