// Package domain holds the value objects shared across the resolution
// pipeline. Everything here is created per request and discarded; no
// shared mutable state crosses requests.
package domain

// Artist identifies a single credited artist on a track.
type Artist struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// TrackQuery describes the track a caller wants to play. URL, when set,
// points at an already-resolved stream and short-circuits resolution.
// ID, when it looks like a native provider identifier, skips the search
// step. Artist may be empty, in which case artist matching is skipped.
type TrackQuery struct {
	Title  string
	Artist string
	ID     string
	URL    string
}

// SearchCandidate is a single search result normalized to a common shape
// regardless of which provider produced it.
type SearchCandidate struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	DurationSeconds int      `json:"durationSeconds,omitempty"`
	PrimaryArtists  []Artist `json:"primaryArtists,omitempty"`
	AllArtists      []Artist `json:"allArtists,omitempty"`
	AlbumName       string   `json:"albumName,omitempty"`
	StreamHint      string   `json:"streamHint,omitempty"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
}

// Artists returns the candidate's primary and secondary artists as one
// ordered list, primaries first.
func (c *SearchCandidate) Artists() []Artist {
	out := make([]Artist, 0, len(c.PrimaryArtists)+len(c.AllArtists))
	out = append(out, c.PrimaryArtists...)
	out = append(out, c.AllArtists...)
	return out
}

// ResolvedStream is the chosen playable resource before proxying. URL is
// absolute and upstream-hosted, with any internal hostname substitution
// already applied.
type ResolvedStream struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType,omitempty"`
}
