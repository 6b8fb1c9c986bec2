package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/utils"
)

const timedTextXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">xin chào</text>
<text start="1.5" dur="2.0">các bạn &amp;amp; khán giả</text>
<text start="3.5" dur="1.0">  </text>
<text start="4.5" dur="1.0">tạm biệt</text>
</transcript>`

// fakeYouTube serves a watch page whose caption tracks point back at itself.
func fakeYouTube(t *testing.T, tracksJSON string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("v"))
		tracks := fmt.Sprintf(tracksJSON, srv.URL, srv.URL)
		fmt.Fprintf(w, `<html><head><meta name="title" content="Demo video"></head><body>
<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s}},"videoDetails":{"title":"Demo {video}"}};var meta = {};</script>
</body></html>`, tracks)
	})
	mux.HandleFunc("/timedtext/vi", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(timedTextXML))
	})
	mux.HandleFunc("/timedtext/en", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<transcript><text start="0" dur="1">hello</text><text start="1" dur="1">world</text></transcript>`))
	})
	return srv
}

func newTestCaptionClient(srv *httptest.Server) *CaptionClient {
	return NewCaptionClient(utils.NopLogger(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestFetchTranscriptPreferredLanguage(t *testing.T) {
	srv := fakeYouTube(t, `[{"baseUrl":"%s/timedtext/en","languageCode":"en"},{"baseUrl":"%s/timedtext/vi","languageCode":"vi"}]`)
	client := newTestCaptionClient(srv)

	captions, err := client.FetchTranscript(context.Background(), "abc123", []string{"vi", "en"})
	require.NoError(t, err)

	assert.Equal(t, "vi", captions.Language)
	assert.Equal(t, "Demo video", captions.Title)
	assert.Equal(t, "xin chào các bạn & khán giả tạm biệt", captions.Text)
	assert.False(t, captions.Generated)
}

func TestFetchTranscriptFallsBackToSecondLanguage(t *testing.T) {
	srv := fakeYouTube(t, `[{"baseUrl":"%s/timedtext/en","languageCode":"en","kind":"asr"},{"baseUrl":"%s/timedtext/vi","languageCode":"fr"}]`)
	client := newTestCaptionClient(srv)

	captions, err := client.FetchTranscript(context.Background(), "abc123", []string{"vi", "en"})
	require.NoError(t, err)

	assert.Equal(t, "en", captions.Language)
	assert.True(t, captions.Generated)
	assert.Equal(t, "hello world", captions.Text)
}

func TestFetchTranscriptNoTrackInLanguages(t *testing.T) {
	srv := fakeYouTube(t, `[{"baseUrl":"%s/timedtext/en","languageCode":"de"},{"baseUrl":"%s/timedtext/vi","languageCode":"fr"}]`)
	client := newTestCaptionClient(srv)

	_, err := client.FetchTranscript(context.Background(), "abc123", []string{"vi", "en"})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNoTranscriptFound)
	assert.ErrorIs(t, err, ErrTranscriptUnavailable)
	assert.True(t, apperrors.IsUnavailableError(err))
}

func TestFetchTranscriptDisabled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"},"videoDetails":{"title":"No captions"}};</script>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	captions, err := newTestCaptionClient(srv).FetchTranscript(context.Background(), "abc123", []string{"vi"})

	require.NotNil(t, captions)
	assert.Equal(t, "No captions", captions.Title)
	assert.Empty(t, captions.Text)
	assert.ErrorIs(t, err, ErrTranscriptsDisabled)
	assert.ErrorIs(t, err, ErrTranscriptUnavailable)
}

func TestFetchTranscriptHardErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") == "broken" {
			fmt.Fprint(w, `<html>consent page</html>`)
			return
		}
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := newTestCaptionClient(srv)

	_, err := client.FetchTranscript(context.Background(), "abc123", []string{"vi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTranscriptUnavailable)
	assert.Equal(t, apperrors.ErrorTypeUpstream, apperrors.TypeOf(err))

	_, err = client.FetchTranscript(context.Background(), "broken", []string{"vi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTranscriptUnavailable)
}

func TestExtractJSON(t *testing.T) {
	assert.Equal(t, `{"a":"}{","b":{"c":"\"}"}}`, string(extractJSON([]byte(`{"a":"}{","b":{"c":"\"}"}};var x;`))))
	assert.Nil(t, extractJSON([]byte(`{"a":1`)))
	assert.Nil(t, extractJSON([]byte(`x{}`)))
}

func TestPickTrackPrefersManual(t *testing.T) {
	tracks := []captionTrack{
		{BaseURL: "asr-vi", LanguageCode: "vi", Kind: "asr"},
		{BaseURL: "manual-vi", LanguageCode: "vi"},
	}
	track, ok := pickTrack(tracks, []string{"vi"})
	require.True(t, ok)
	assert.Equal(t, "manual-vi", track.BaseURL)
}
