package model

import (
	"strings"
	"time"
)

// MediaKind identifies the kind of media attached to an event
type MediaKind string

const (
	MediaNone  MediaKind = "none"
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
	MediaAudio MediaKind = "audio"
	MediaLink  MediaKind = "link"
)

// ParseMediaKind maps a loose string onto a MediaKind. Unknown values map to MediaNone.
func ParseMediaKind(s string) MediaKind {
	switch MediaKind(strings.ToLower(strings.TrimSpace(s))) {
	case MediaImage:
		return MediaImage
	case MediaVideo:
		return MediaVideo
	case MediaAudio:
		return MediaAudio
	case MediaLink:
		return MediaLink
	default:
		return MediaNone
	}
}

// ChannelKey identifies one conversation on one source
type ChannelKey struct {
	Source  string `json:"source"`
	Channel string `json:"channel"`
}

func (k ChannelKey) String() string {
	return k.Source + "/" + k.Channel
}

// ParseChannelKey splits "source/channel" at the first slash. Both halves
// must be non-empty.
func ParseChannelKey(s string) (ChannelKey, bool) {
	source, channel, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found || source == "" || channel == "" {
		return ChannelKey{}, false
	}
	return ChannelKey{Source: source, Channel: channel}, true
}

// Event is one ingested message. Events are never mutated once appended to the log.
type Event struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Channel   string    `json:"channel"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	Media     MediaKind `json:"media,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Key returns the channel identity of the event
func (e Event) Key() ChannelKey {
	return ChannelKey{Source: e.Source, Channel: e.Channel}
}

// AttachedMedia returns the attached media kind, treating an empty value as MediaNone
func (e Event) AttachedMedia() MediaKind {
	if e.Media == "" {
		return MediaNone
	}
	return e.Media
}
