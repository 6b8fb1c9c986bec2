// internal/youtube/captions.go
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/utils"
)

// ErrTranscriptUnavailable is the parent of the two "no transcript" conditions.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

var (
	// ErrTranscriptsDisabled means the video has no caption tracks at all.
	ErrTranscriptsDisabled = fmt.Errorf("%w: transcripts are disabled for this video", ErrTranscriptUnavailable)
	// ErrNoTranscriptFound means captions exist but none in the requested languages.
	ErrNoTranscriptFound = fmt.Errorf("%w: no transcript in the requested languages", ErrTranscriptUnavailable)
)

const (
	playerResponseMarker = "ytInitialPlayerResponse = "
	maxWatchPageSize     = 6 << 20
	maxTimedTextSize     = 2 << 20
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// Captions is a transcript taken directly from a video's caption track.
type Captions struct {
	VideoID  string
	Title    string
	Language string
	// Generated is true for automatic speech recognition tracks.
	Generated bool
	Text      string
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	VideoDetails *struct {
		Title string `json:"title"`
	} `json:"videoDetails"`
}

type timedText struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// CaptionClient fetches captions by scraping the watch page.
type CaptionClient struct {
	baseURL string
	client  *http.Client
	logger  *utils.Logger
}

// CaptionOption customizes a CaptionClient.
type CaptionOption func(*CaptionClient)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(baseURL string) CaptionOption {
	return func(c *CaptionClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) CaptionOption {
	return func(c *CaptionClient) {
		c.client = client
	}
}

// NewCaptionClient creates a caption client for www.youtube.com.
func NewCaptionClient(logger *utils.Logger, opts ...CaptionOption) *CaptionClient {
	c := &CaptionClient{
		baseURL: "https://www.youtube.com",
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchTranscript returns the transcript of videoID in the first language of
// languages that has a track. For each language a manual track wins over an
// automatic one. A video without a usable track yields an error wrapping
// ErrTranscriptsDisabled or ErrNoTranscriptFound; the returned Captions then
// still carry the video title.
func (c *CaptionClient) FetchTranscript(ctx context.Context, videoID string, languages []string) (*Captions, error) {
	body, err := c.get(ctx, c.baseURL+"/watch?v="+videoID, maxWatchPageSize)
	if err != nil {
		return nil, apperrors.NewUpstreamError("fetch watch page", err)
	}

	player, err := parsePlayerResponse(body)
	if err != nil {
		return nil, apperrors.NewUpstreamError("parse watch page", err)
	}

	captions := &Captions{VideoID: videoID, Title: pageTitle(body)}
	if captions.Title == "" && player.VideoDetails != nil {
		captions.Title = player.VideoDetails.Title
	}

	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		return captions, apperrors.NewUnavailableError(videoID, ErrTranscriptsDisabled)
	}

	track, ok := pickTrack(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, languages)
	if !ok {
		return captions, apperrors.NewUnavailableError(videoID, ErrNoTranscriptFound)
	}

	text, err := c.fetchTimedText(ctx, track.BaseURL)
	if err != nil {
		return nil, apperrors.NewUpstreamError("fetch caption track", err)
	}

	captions.Language = track.LanguageCode
	captions.Generated = track.Kind == "asr"
	captions.Text = text

	c.logger.Debug("captions fetched", map[string]interface{}{
		"video_id":  videoID,
		"language":  track.LanguageCode,
		"generated": captions.Generated,
		"chars":     len(text),
	})
	return captions, nil
}

// pickTrack walks languages in priority order, preferring manual tracks.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		var generated *captionTrack
		for i, t := range tracks {
			if t.LanguageCode != lang {
				continue
			}
			if t.Kind != "asr" {
				return t, true
			}
			if generated == nil {
				generated = &tracks[i]
			}
		}
		if generated != nil {
			return *generated, true
		}
	}
	return captionTrack{}, false
}

func (c *CaptionClient) fetchTimedText(ctx context.Context, trackURL string) (string, error) {
	body, err := c.get(ctx, trackURL, maxTimedTextSize)
	if err != nil {
		return "", err
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("parse timedtext XML: %w", err)
	}

	var sb strings.Builder
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func (c *CaptionClient) get(ctx context.Context, target string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

func parsePlayerResponse(page []byte) (*playerResponse, error) {
	idx := bytes.Index(page, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found")
	}
	raw := extractJSON(page[idx+len(playerResponseMarker):])
	if raw == nil {
		return nil, errors.New("ytInitialPlayerResponse is truncated")
	}

	var player playerResponse
	if err := json.Unmarshal(raw, &player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

// extractJSON returns the balanced JSON object at the start of data.
func extractJSON(data []byte) []byte {
	if len(data) == 0 || data[0] != '{' {
		return nil
	}
	depth := 0
	inString := false
	escaped := false
	for i, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return data[:i+1]
			}
		}
	}
	return nil
}

// pageTitle reads the video title from the watch page meta tags.
func pageTitle(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return ""
	}
	if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	if title, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		return strings.TrimSpace(title)
	}
	return ""
}
