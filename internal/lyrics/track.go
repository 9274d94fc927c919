package lyrics

// TrackSelection identifies one lyrics record chosen for playback. It
// mirrors the lrclib record shape and is handed around by reference; a
// new selection always replaces the old one wholesale, nothing mutates
// it in place.
type TrackSelection struct {
	ID           int     `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics,omitempty"`
	SyncedLyrics string  `json:"syncedLyrics,omitempty"`
}

// HasSyncedLyrics reports whether the selection carries a line-timed
// payload.
func (t *TrackSelection) HasSyncedLyrics() bool {
	return t.SyncedLyrics != ""
}

// HasPlainLyrics reports whether the selection carries untimed text.
func (t *TrackSelection) HasPlainLyrics() bool {
	return t.PlainLyrics != ""
}
