package models

import "time"

const SnapshotVersion = 1

// PlaylistSnapshot is the on-disk form of the last public story list fetched
// for a city, used to start playback without the backend.
type PlaylistSnapshot struct {
	Version   int          `json:"version"`
	City      string       `json:"city"`
	FetchedAt time.Time    `json:"fetched_at"`
	Groups    []StoryGroup `json:"groups"`
}
