// internal/services/pipeline_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Corphon/yt2blog/internal/blogger"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/metrics"
	"github.com/Corphon/yt2blog/internal/models"
	"github.com/Corphon/yt2blog/internal/storage"
	"github.com/Corphon/yt2blog/internal/transcript"
	"github.com/Corphon/yt2blog/internal/utils"
	"github.com/Corphon/yt2blog/internal/youtube"
)

// Default post metadata.
var DefaultLabels = []string{"YouTube", "SEO"}

// TranscriptResolver resolves the text of a video.
type TranscriptResolver interface {
	Resolve(ctx context.Context, videoID string, reporter transcript.Reporter) (*transcript.Transcript, error)
}

// ArticleGenerator writes an article from a transcript.
type ArticleGenerator interface {
	Generate(ctx context.Context, transcript, title string) (string, error)
}

// Publisher posts an article to the blog.
type Publisher interface {
	Publish(ctx context.Context, post blogger.Post) (*blogger.PublishResult, error)
}

// PipelineService runs URL -> transcript -> article, and publishing.
type PipelineService struct {
	resolver  TranscriptResolver
	generator ArticleGenerator
	publisher Publisher
	store     storage.ArticleStore
	metrics   *metrics.Metrics
	logger    *utils.Logger
	now       func() time.Time
}

func NewPipelineService(resolver TranscriptResolver, generator ArticleGenerator, publisher Publisher,
	store storage.ArticleStore, m *metrics.Metrics, logger *utils.Logger) *PipelineService {
	return &PipelineService{
		resolver:  resolver,
		generator: generator,
		publisher: publisher,
		store:     store,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// DefaultPost builds the blog post for an article.
func DefaultPost(article *models.Article) blogger.Post {
	return blogger.Post{
		Title:       fmt.Sprintf("Article from YouTube: %s", article.VideoID),
		Content:     article.Content,
		Labels:      append([]string(nil), DefaultLabels...),
		Description: fmt.Sprintf("Automatically generated article from video %s", article.VideoID),
	}
}

// Generate runs the pipeline for rawURL and stores the resulting article.
// tracker may be nil.
func (s *PipelineService) Generate(ctx context.Context, rawURL string, tracker *ProgressTracker) (*models.Article, error) {
	article, err := s.generate(ctx, rawURL, tracker)
	if tracker != nil {
		if err != nil {
			tracker.Fail(summary(err))
		} else {
			tracker.Complete("Article ready")
		}
	}
	return article, err
}

func (s *PipelineService) generate(ctx context.Context, rawURL string, tracker *ProgressTracker) (*models.Article, error) {
	start := s.now()

	videoID, ok := youtube.ExtractVideoID(rawURL)
	if !ok {
		s.metrics.RecordError("parse", string(apperrors.ErrorTypeValidation))
		return nil, apperrors.NewValidationError("not a recognized YouTube URL: "+rawURL, nil).WithCode("INVALID_URL")
	}
	log := s.logger.With(map[string]interface{}{"video_id": videoID})
	log.Info("pipeline started", nil)

	// a nil *ProgressTracker must not become a non-nil interface
	var reporter transcript.Reporter
	if tracker != nil {
		reporter = tracker
	}

	t, err := s.resolver.Resolve(ctx, videoID, reporter)
	if err != nil {
		s.metrics.RecordError("transcript", string(apperrors.TypeOf(err)))
		log.Error("transcript resolution failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	s.metrics.RecordTranscript(string(t.Source))

	promptTitle := t.Title
	if promptTitle == "" {
		promptTitle = rawURL
	}

	if tracker != nil {
		tracker.UpdateProgress(70, "Generating article")
	}
	genStart := s.now()
	content, err := s.generator.Generate(ctx, t.Text, promptTitle)
	s.metrics.RecordGeneration(err, s.now().Sub(genStart))
	if err != nil {
		s.metrics.RecordError("generate", string(apperrors.TypeOf(err)))
		log.Error("article generation failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	article := &models.Article{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		VideoURL:  rawURL,
		Title:     t.Title,
		Content:   content,
		Source:    string(t.Source),
		Language:  t.Language,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, article); err != nil {
		s.metrics.RecordError("store", string(apperrors.TypeOf(err)))
		return nil, err
	}

	s.metrics.RecordPipeline(string(t.Source), s.now().Sub(start))
	log.Info("pipeline finished", map[string]interface{}{
		"article_id": article.ID,
		"source":     article.Source,
		"chars":      len(content),
	})
	return article, nil
}

// GetArticle returns a stored article.
func (s *PipelineService) GetArticle(ctx context.Context, articleID string) (*models.Article, error) {
	return s.store.Get(ctx, articleID)
}

// Publish posts a stored article with the default metadata. A rejected post
// is a result with Success() == false, not an error.
func (s *PipelineService) Publish(ctx context.Context, articleID string) (*blogger.PublishResult, error) {
	article, err := s.store.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	log := s.logger.With(map[string]interface{}{"video_id": article.VideoID, "article_id": article.ID})

	result, err := s.publisher.Publish(ctx, DefaultPost(article))
	if err != nil {
		s.metrics.RecordPublish("error")
		s.metrics.RecordError("publish", string(apperrors.TypeOf(err)))
		log.Error("publish failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}

	article.PublishStatus = result.StatusCode
	if result.Success() {
		s.metrics.RecordPublish("published")
		now := s.now()
		article.PublishedAt = &now
	} else {
		s.metrics.RecordPublish("rejected")
		log.Warn("publish rejected", map[string]interface{}{"status": result.StatusCode})
	}

	if err := s.store.Save(ctx, article); err != nil {
		log.Warn("failed to record publish status", map[string]interface{}{"error": err.Error()})
	}
	return result, nil
}

// summary is the outermost message of err, without wrapped upstream details.
func summary(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// PublishError is the API error for a rejected post.
func PublishError(result *blogger.PublishResult) *apperrors.AppError {
	return apperrors.NewUpstreamError(fmt.Sprintf("blog API answered %d %s", result.StatusCode, http.StatusText(result.StatusCode)), nil).WithCode("PUBLISH_FAILED")
}
