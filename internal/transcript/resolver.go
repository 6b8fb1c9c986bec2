// internal/transcript/resolver.go
package transcript

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/Corphon/yt2blog/internal/audio"
	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/stt"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"
)

// Source tells where a transcript came from.
type Source string

const (
	SourceDirect      Source = "direct"
	SourceTranscribed Source = "transcribed_audio"
)

// ErrNoContent means neither captions nor speech-to-text produced any text.
var ErrNoContent = errors.New("no content could be obtained from the video")

// Transcript is the text of a video.
type Transcript struct {
	VideoID  string `json:"video_id"`
	Text     string `json:"text"`
	Source   Source `json:"source"`
	Title    string `json:"title,omitempty"`
	Language string `json:"language,omitempty"`
}

// CaptionSource fetches caption tracks.
type CaptionSource interface {
	FetchTranscript(ctx context.Context, videoID string, languages []string) (*youtube.Captions, error)
}

// Transcriber converts an audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Reporter receives stage updates. ProgressTracker implements it.
type Reporter interface {
	UpdateProgress(progress int, message string)
	Warn(message string)
}

type nopReporter struct{}

func (nopReporter) UpdateProgress(int, string) {}
func (nopReporter) Warn(string)                {}

// Resolver gets a transcript from captions, falling back to downloading the
// audio and running speech-to-text.
type Resolver struct {
	captions    CaptionSource
	downloader  audio.Downloader
	transcriber Transcriber
	languages   []string
	keepAudio   bool
	logger      *utils.Logger
}

// NewResolver wires a resolver from its collaborators.
func NewResolver(cfg *config.Config, captions CaptionSource, downloader audio.Downloader, transcriber Transcriber, logger *utils.Logger) *Resolver {
	return &Resolver{
		captions:    captions,
		downloader:  downloader,
		transcriber: transcriber,
		languages:   cfg.Transcript.Languages,
		keepAudio:   cfg.Downloader.KeepAudio,
		logger:      logger,
	}
}

// Resolve returns the transcript of videoID. Captions are used when a track
// in the preferred languages exists and is not empty; otherwise the audio is
// transcribed. A failed transcription job or empty text yields ErrNoContent.
// Any other failure is returned as is.
func (r *Resolver) Resolve(ctx context.Context, videoID string, reporter Reporter) (*Transcript, error) {
	if videoID == "" {
		return nil, apperrors.NewValidationError("video id is empty", nil)
	}
	if reporter == nil {
		reporter = nopReporter{}
	}
	log := r.logger.With(map[string]interface{}{"video_id": videoID})

	reporter.UpdateProgress(10, "Fetching captions")
	captions, err := r.captions.FetchTranscript(ctx, videoID, r.languages)
	if err != nil && !errors.Is(err, youtube.ErrTranscriptUnavailable) {
		return nil, err
	}

	var title string
	if captions != nil {
		title = captions.Title
	}

	if err == nil && strings.TrimSpace(captions.Text) != "" {
		log.Info("transcript taken from captions", map[string]interface{}{"language": captions.Language})
		return &Transcript{
			VideoID:  videoID,
			Text:     captions.Text,
			Source:   SourceDirect,
			Title:    title,
			Language: captions.Language,
		}, nil
	}

	reason := "captions are empty"
	if err != nil {
		reason = err.Error()
	}
	log.Info("no usable captions, falling back to speech-to-text", map[string]interface{}{"reason": reason})
	reporter.Warn("No transcript found, downloading audio for speech-to-text...")

	text, err := r.transcribe(ctx, videoID, reporter, log)
	if err != nil {
		return nil, err
	}
	return &Transcript{
		VideoID: videoID,
		Text:    text,
		Source:  SourceTranscribed,
		Title:   title,
	}, nil
}

func (r *Resolver) transcribe(ctx context.Context, videoID string, reporter Reporter, log *utils.Logger) (string, error) {
	reporter.UpdateProgress(25, "Downloading audio")
	path, err := r.downloader.Download(ctx, videoID)
	if err != nil {
		return "", err
	}
	if !r.keepAudio {
		defer func() {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Warn("failed to remove audio file", map[string]interface{}{"path": path, "error": err.Error()})
			}
		}()
	}

	reporter.UpdateProgress(40, "Transcribing audio")
	text, err := r.transcriber.Transcribe(ctx, path)
	if errors.Is(err, stt.ErrTranscriptionFailed) {
		log.Warn("speech-to-text job failed", map[string]interface{}{"error": err.Error()})
		return "", apperrors.NewProcessingError("speech-to-text job failed", errors.Join(ErrNoContent, err)).WithCode("NO_CONTENT")
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", apperrors.NewProcessingError("speech-to-text returned no text", ErrNoContent).WithCode("NO_CONTENT")
	}

	log.Info("transcript taken from speech-to-text", map[string]interface{}{"chars": len(text)})
	return text, nil
}
