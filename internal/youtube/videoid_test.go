package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
		ok   bool
	}{
		{"short link", "https://youtu.be/abc123", "abc123", true},
		{"short link with query", "https://youtu.be/abc123?t=42", "abc123", true},
		{"short link with trailing path", "https://youtu.be/abc123/extra", "abc123", true},
		{"short link upper case host", "https://YOUTU.BE/abc123", "abc123", true},
		{"watch", "https://www.youtube.com/watch?v=abc123", "abc123", true},
		{"watch mixed case host", "https://WWW.YouTube.com/watch?v=abc123", "abc123", true},
		{"watch without www", "https://youtube.com/watch?v=abc123&list=PL1", "abc123", true},
		{"watch with surrounding spaces", "  https://www.youtube.com/watch?v=abc123 ", "abc123", true},
		{"embed", "https://www.youtube.com/embed/abc123", "abc123", true},
		{"embed with trailing path", "https://youtube.com/embed/abc123/extra?rel=0", "abc123", true},
		{"watch missing v", "https://www.youtube.com/watch?list=PL1", "", false},
		{"shorts not recognized", "https://www.youtube.com/shorts/abc123", "", false},
		{"mobile host not recognized", "https://m.youtube.com/watch?v=abc123", "", false},
		{"other host", "https://vimeo.com/123", "", false},
		{"empty short link", "https://youtu.be/", "", false},
		{"empty embed", "https://www.youtube.com/embed/", "", false},
		{"garbage", "%%%not a url", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVideoID(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWatchURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", WatchURL("abc123"))
}
