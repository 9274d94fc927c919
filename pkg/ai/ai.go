// Package ai abstracts the text-completion providers used for
// assisted song-info extraction.
package ai

// Client is a minimal text-in, text-out completion interface.
type Client interface {
	Name() string
	HandleText(msg string) (string, error)
}
