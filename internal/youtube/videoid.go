// internal/youtube/videoid.go
package youtube

import (
	"net/url"
	"strings"
)

// WatchURL returns the canonical watch page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(videoID)
}

// ExtractVideoID returns the video id of a youtu.be short link, a watch page
// URL or an embed URL. Any other input reports false.
func ExtractVideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}

	var id string
	switch strings.ToLower(u.Hostname()) {
	case "youtu.be":
		id = strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)[0]
	case "www.youtube.com", "youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.SplitN(strings.TrimPrefix(u.Path, "/embed/"), "/", 2)[0]
		}
	}

	if id == "" {
		return "", false
	}
	return id, true
}
