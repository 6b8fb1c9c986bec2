package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/yt2blog/internal/article"
	"github.com/Corphon/yt2blog/internal/blogger"
	"github.com/Corphon/yt2blog/internal/config"
	"github.com/Corphon/yt2blog/internal/llm"
	_ "github.com/Corphon/yt2blog/internal/llm/providers/openai"
	"github.com/Corphon/yt2blog/internal/metrics"
	"github.com/Corphon/yt2blog/internal/services"
	"github.com/Corphon/yt2blog/internal/storage"
	"github.com/Corphon/yt2blog/internal/stt"
	"github.com/Corphon/yt2blog/internal/transcript"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"
)

// audioFile writes a placeholder audio file like yt-dlp would.
type audioFile struct {
	dir string
}

func (d audioFile) Download(ctx context.Context, videoID string) (string, error) {
	path := filepath.Join(d.dir, videoID+".mp3")
	return path, os.WriteFile(path, []byte("ID3"), 0644)
}

type bloggerCall struct {
	Path   string
	Key    string
	Title  string   `json:"title"`
	Body   string   `json:"content"`
	Labels []string `json:"labels"`
}

func TestGenerateThenPublishThroughRemoteServices(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// YouTube: the video has no captions
	yt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Street food - YouTube</title></head>`+
			`<script>var ytInitialPlayerResponse = {"playabilityStatus":{"status":"OK"}};</script></html>`)
	}))
	defer yt.Close()

	aai := http.NewServeMux()
	aai.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"upload_url":"https://cdn.example/abc123"}`))
	})
	aai.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1","status":"queued"}`))
	})
	aai.HandleFunc("/transcript/job-1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"job-1","status":"completed","text":"pho and banh mi at night"}`))
	})
	sttServer := httptest.NewServer(aai)
	defer sttServer.Close()

	var prompt string
	llmServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		prompt = body.Messages[0]["content"]
		w.Write([]byte(`{"choices":[{"message":{"content":"# Saigon street food\n\nPho and banh mi."}}]}`))
	}))
	defer llmServer.Close()

	var posted bloggerCall
	blog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&posted)
		posted.Path = r.URL.Path
		posted.Key = r.URL.Query().Get("key")
		w.Write([]byte(`{"id":"post-1"}`))
	}))
	defer blog.Close()

	cfg := &config.Config{
		Transcript: config.TranscriptConfig{Languages: []string{"vi", "en"}},
		STT: config.STTConfig{
			APIKey: "aai", BaseURL: sttServer.URL, LanguageCode: "vi",
			PollInterval: time.Millisecond, PollMultiplier: 1, PollMaxAttempts: 5, Timeout: 5 * time.Second,
		},
		Blogger: config.BloggerConfig{APIKey: testSecret, BlogID: "42", BaseURL: blog.URL},
		Store:   config.StoreConfig{Backend: "memory"},
	}
	logger := utils.NopLogger()
	m := metrics.New()
	workDir := t.TempDir()

	resolver := transcript.NewResolver(cfg,
		youtube.NewCaptionClient(logger, youtube.WithBaseURL(yt.URL)),
		audioFile{dir: workDir},
		stt.NewClient(cfg.STT, logger),
		logger)
	provider, err := llm.GetProvider("openai", map[string]string{"api_key": "sk", "base_url": llmServer.URL})
	require.NoError(t, err)
	generator := article.NewGeneratorWithProvider(provider, "Vietnamese", logger)
	pipeline := services.NewPipelineService(resolver, generator,
		blogger.NewClient(cfg.Blogger, logger),
		storage.NewMemoryStore(10, time.Hour), m, logger)
	progress := services.NewProgressService()

	router, err := SetupRouter(NewHandler(cfg, pipeline, progress, generator, logger), m, nil, logger)
	require.NoError(t, err)
	s := &testServer{router: router, progress: progress}

	requestID := "6f1c1a52-3b0e-4d7a-9a43-2f5d0c7e9b11"
	w := s.form("/generate", url.Values{
		"url":        {"https://www.youtube.com/watch?v=abc123"},
		"request_id": {requestID},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()

	assert.Contains(t, body, "<textarea readonly># Saigon street food\n\nPho and banh mi.</textarea>")
	assert.Contains(t, body, "<h1>Saigon street food</h1>")
	assert.Contains(t, body, fallbackWarning)
	assert.NotContains(t, body, "Article published to Blogger.")

	assert.Contains(t, prompt, "pho and banh mi at night")
	assert.Contains(t, prompt, "Write the article in Vietnamese")
	assert.NoFileExists(t, filepath.Join(workDir, "abc123.mp3"))

	tracker, ok := progress.GetTracker(requestID)
	require.True(t, ok)
	assert.Equal(t, services.StatusCompleted, tracker.Snapshot().Status)

	marker := `name="article_id" value="`
	start := strings.Index(body, marker)
	require.NotEqual(t, -1, start)
	rest := body[start+len(marker):]
	articleID := rest[:strings.Index(rest, `"`)]

	w = s.form("/publish", url.Values{"article_id": {articleID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = w.Body.String()
	assert.Contains(t, body, "Article published to Blogger.")
	assert.Contains(t, body, "<textarea readonly># Saigon street food\n\nPho and banh mi.</textarea>")
	assert.NotContains(t, body, testSecret)

	assert.Equal(t, "/blogs/42/posts/", posted.Path)
	assert.Equal(t, testSecret, posted.Key)
	assert.Equal(t, "Article from YouTube: abc123", posted.Title)
	assert.Equal(t, "# Saigon street food\n\nPho and banh mi.", posted.Body)
	assert.Equal(t, []string{"YouTube", "SEO"}, posted.Labels)
}
