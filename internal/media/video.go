// Package media normalizes attachment URLs and derives plain-text excerpts.
package media

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// EmbedBase is the privacy-enhanced host videos are embedded from.
const EmbedBase = "https://www.youtube-nocookie.com/embed/"

// embedQuery is appended to every embed URL.
const embedQuery = "rel=0&modestbranding=1"

// ErrInvalidVideoURL is returned when no video identifier can be extracted.
var ErrInvalidVideoURL = errors.New("not a recognized YouTube video URL")

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	shortLink      = regexp.MustCompile(`(?i)^(?:https?://)?(?:www\.)?youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)
	canonicalLink  = regexp.MustCompile(`(?i)^(?:https?://)?(?:(?:www|m)\.)?youtube(?:-nocookie)?\.com/(?:watch\?v=|embed/|v/|shorts/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)
)

// Video is a normalized video reference.
type Video struct {
	ID       string
	EmbedURL string
}

// NormalizeVideoURL extracts the 11-character video id from raw and rebuilds the
// canonical embed URL. Lookup order: short link, canonical path forms, then a
// "v" query parameter on a YouTube host. Normalizing an embed URL returns it unchanged.
func NormalizeVideoURL(raw string) (Video, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Video{}, ErrInvalidVideoURL
	}

	if m := shortLink.FindStringSubmatch(s); m != nil {
		return videoFor(m[1]), nil
	}
	if m := canonicalLink.FindStringSubmatch(s); m != nil {
		return videoFor(m[1]), nil
	}
	if id, ok := queryVideoID(s); ok {
		return videoFor(id), nil
	}
	return Video{}, ErrInvalidVideoURL
}

// EmbedURL returns the canonical embed URL for a video id.
func EmbedURL(id string) string {
	return EmbedBase + id + "?" + embedQuery
}

func videoFor(id string) Video {
	return Video{ID: id, EmbedURL: EmbedURL(id)}
}

func queryVideoID(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || !isYouTubeHost(u.Hostname()) {
		return "", false
	}
	v := u.Query().Get("v")
	if !videoIDPattern.MatchString(v) {
		return "", false
	}
	return v, true
}

func isYouTubeHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range []string{"youtube.com", "youtube-nocookie.com", "youtu.be"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
