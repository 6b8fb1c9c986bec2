package transcript

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/stt"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"
)

type fakeCaptions struct {
	captions *youtube.Captions
	err      error
}

func (f *fakeCaptions) FetchTranscript(ctx context.Context, videoID string, languages []string) (*youtube.Captions, error) {
	return f.captions, f.err
}

type fakeDownloader struct {
	dir   string
	calls int
	err   error
}

func (f *fakeDownloader) Download(ctx context.Context, videoID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(f.dir, videoID+".mp3")
	return path, os.WriteFile(path, []byte("audio"), 0644)
}

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.calls++
	return f.text, f.err
}

type recordingReporter struct {
	warnings []string
}

func (r *recordingReporter) UpdateProgress(int, string) {}
func (r *recordingReporter) Warn(message string)       { r.warnings = append(r.warnings, message) }

func newResolver(t *testing.T, captions *fakeCaptions, transcriber *fakeTranscriber, keepAudio bool) (*Resolver, *fakeDownloader) {
	t.Helper()
	cfg := &config.Config{
		Transcript: config.TranscriptConfig{Languages: []string{"vi", "en"}},
		Downloader: config.DownloaderConfig{KeepAudio: keepAudio},
	}
	downloader := &fakeDownloader{dir: t.TempDir()}
	return NewResolver(cfg, captions, downloader, transcriber, utils.NopLogger()), downloader
}

func unavailable(sentinel error) error {
	return apperrors.NewUnavailableError("abc", sentinel)
}

func TestResolveUsesCaptions(t *testing.T) {
	captions := &fakeCaptions{captions: &youtube.Captions{Text: "hello world", Title: "Video", Language: "vi"}}
	transcriber := &fakeTranscriber{}
	r, downloader := newResolver(t, captions, transcriber, false)

	got, err := r.Resolve(context.Background(), "abc", nil)
	require.NoError(t, err)

	assert.Equal(t, &Transcript{VideoID: "abc", Text: "hello world", Source: SourceDirect, Title: "Video", Language: "vi"}, got)
	assert.Zero(t, downloader.calls)
	assert.Zero(t, transcriber.calls)
}

func TestResolveFallsBackToSpeechToText(t *testing.T) {
	for name, sentinel := range map[string]error{
		"disabled":  youtube.ErrTranscriptsDisabled,
		"not found": youtube.ErrNoTranscriptFound,
	} {
		t.Run(name, func(t *testing.T) {
			captions := &fakeCaptions{captions: &youtube.Captions{Title: "Video"}, err: unavailable(sentinel)}
			transcriber := &fakeTranscriber{text: "spoken words"}
			r, downloader := newResolver(t, captions, transcriber, false)
			reporter := &recordingReporter{}

			got, err := r.Resolve(context.Background(), "abc", reporter)
			require.NoError(t, err)

			assert.Equal(t, "spoken words", got.Text)
			assert.Equal(t, SourceTranscribed, got.Source)
			assert.Equal(t, "Video", got.Title)
			assert.Len(t, reporter.warnings, 1)
			assert.NoFileExists(t, filepath.Join(downloader.dir, "abc.mp3"))
		})
	}
}

func TestResolveFallsBackOnEmptyCaptions(t *testing.T) {
	captions := &fakeCaptions{captions: &youtube.Captions{Text: "  "}}
	r, _ := newResolver(t, captions, &fakeTranscriber{text: "spoken"}, false)

	got, err := r.Resolve(context.Background(), "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, SourceTranscribed, got.Source)
}

func TestResolveKeepsAudioWhenConfigured(t *testing.T) {
	captions := &fakeCaptions{err: unavailable(youtube.ErrTranscriptsDisabled)}
	r, downloader := newResolver(t, captions, &fakeTranscriber{text: "spoken"}, true)

	_, err := r.Resolve(context.Background(), "abc", nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(downloader.dir, "abc.mp3"))
}

func TestResolveNoContent(t *testing.T) {
	jobFailed := apperrors.NewProcessingError("bad audio", stt.ErrTranscriptionFailed)

	for name, transcriber := range map[string]*fakeTranscriber{
		"job error":  {err: jobFailed},
		"empty text": {text: ""},
	} {
		t.Run(name, func(t *testing.T) {
			captions := &fakeCaptions{err: unavailable(youtube.ErrNoTranscriptFound)}
			r, _ := newResolver(t, captions, transcriber, false)

			got, err := r.Resolve(context.Background(), "abc", nil)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, ErrNoContent)
			assert.Equal(t, "NO_CONTENT", apperrors.CodeOf(err))
		})
	}
}

func TestResolveHardErrors(t *testing.T) {
	captions := &fakeCaptions{err: apperrors.NewUpstreamError("fetch watch page", errors.New("connection reset"))}
	transcriber := &fakeTranscriber{}
	r, downloader := newResolver(t, captions, transcriber, false)

	_, err := r.Resolve(context.Background(), "abc", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoContent)
	assert.Zero(t, downloader.calls)

	captions.err = unavailable(youtube.ErrTranscriptsDisabled)
	downloader.err = apperrors.NewUpstreamError("download audio", errors.New("HTTP 403"))
	_, err = r.Resolve(context.Background(), "abc", nil)
	assert.Equal(t, apperrors.ErrorTypeUpstream, apperrors.TypeOf(err))
	assert.Zero(t, transcriber.calls)

	_, err = r.Resolve(context.Background(), "", nil)
	assert.True(t, apperrors.IsValidationError(err))
}
