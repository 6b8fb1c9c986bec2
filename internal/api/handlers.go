// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/yt2blog/internal/article"
	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/models"
	"github.com/Corphon/yt2blog/internal/services"
	"github.com/Corphon/yt2blog/internal/utils"
)

// fallbackWarning is shown when the article was written from transcribed audio.
const fallbackWarning = "No transcript found, the audio was downloaded and transcribed with speech-to-text."

// Handler serves the form pages and the JSON API.
type Handler struct {
	Pipeline  *services.PipelineService
	Progress  *services.ProgressService
	Generator *article.Generator
	Config    *config.Config
	Response  *ResponseHelper
	logger    *utils.Logger
}

func NewHandler(cfg *config.Config, pipeline *services.PipelineService, progress *services.ProgressService,
	generator *article.Generator, logger *utils.Logger) *Handler {
	return &Handler{
		Pipeline:  pipeline,
		Progress:  progress,
		Generator: generator,
		Config:    cfg,
		Response:  NewResponseHelper(cfg.SecretValues()),
		logger:    logger,
	}
}

// pageData feeds index.html.
type pageData struct {
	URL       string
	RequestID string
	Article   *models.Article
	Preview   template.HTML
	Warning   string
	Error     string
	Details   string
	Published bool
}

// ------------------------------------------------
// form pages

func (h *Handler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{RequestID: c.GetString("request_id")})
}

// GenerateForm runs the whole pipeline inside the request.
func (h *Handler) GenerateForm(c *gin.Context) {
	rawURL := c.PostForm("url")
	data := pageData{URL: rawURL, RequestID: c.GetString("request_id")}

	tracker := h.trackerFor(c.PostForm("request_id"))
	a, err := h.Pipeline.Generate(c.Request.Context(), rawURL, tracker)
	if err != nil {
		data.Error, data.Details = h.describe(err)
		c.HTML(statusForError(err), "index.html", data)
		return
	}

	h.fillArticle(&data, a)
	c.HTML(http.StatusOK, "index.html", data)
}

// PublishForm publishes the article generated on the page.
func (h *Handler) PublishForm(c *gin.Context) {
	articleID := c.PostForm("article_id")
	data := pageData{RequestID: c.GetString("request_id")}

	a, err := h.Pipeline.GetArticle(c.Request.Context(), articleID)
	if err != nil {
		data.Error, data.Details = h.describe(err)
		c.HTML(statusForError(err), "index.html", data)
		return
	}
	data.URL = a.VideoURL

	result, err := h.Pipeline.Publish(c.Request.Context(), articleID)
	if err != nil {
		h.fillArticle(&data, a)
		data.Error, data.Details = h.describe(err)
		c.HTML(statusForError(err), "index.html", data)
		return
	}

	h.fillArticle(&data, a)
	if result.Success() {
		data.Published = true
	} else {
		data.Error = fmt.Sprintf("Publishing failed with status %d", result.StatusCode)
		data.Details = h.Response.Sanitize(formatBody(result.Body))
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) fillArticle(data *pageData, a *models.Article) {
	data.Article = a
	data.Preview = article.Render(a.Content)
	if a.Transcribed() {
		data.Warning = fallbackWarning
	}
}

// describe returns a user facing message and details for err.
func (h *Handler) describe(err error) (string, string) {
	if apperrors.CodeOf(err) == ErrorNoContent {
		return "Could not get any content from the video.", ""
	}
	var details string
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Err != nil {
			details = appErr.Err.Error()
		}
	}
	return h.Response.Sanitize(message), h.Response.Sanitize(details)
}

func (h *Handler) trackerFor(requestID string) *services.ProgressTracker {
	if requestID == "" {
		return nil
	}
	return h.Progress.CreateTracker(requestID)
}

// ------------------------------------------------
// JSON API

// CreateArticleRequest is the body of POST /api/articles.
type CreateArticleRequest struct {
	URL       string `json:"url" binding:"required"`
	RequestID string `json:"request_id,omitempty"`
}

// PublishResponse is the data of POST /api/articles/:id/publish.
type PublishResponse struct {
	StatusCode int         `json:"status_code"`
	Body       interface{} `json:"body"`
	Success    bool        `json:"success"`
}

func (h *Handler) CreateArticle(c *gin.Context) {
	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "request body must contain a url", err.Error())
		return
	}

	a, err := h.Pipeline.Generate(c.Request.Context(), req.URL, h.trackerFor(req.RequestID))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	message := "article generated"
	if a.Transcribed() {
		message = fallbackWarning
	}
	h.Response.Created(c, a, message)
}

func (h *Handler) GetArticle(c *gin.Context) {
	a, err := h.Pipeline.GetArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}
	h.Response.Success(c, a)
}

func (h *Handler) PublishArticle(c *gin.Context) {
	result, err := h.Pipeline.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Response.FromError(c, err)
		return
	}

	if !result.Success() {
		appErr := services.PublishError(result)
		h.Response.Error(c, http.StatusBadGateway, appErr.Code, appErr.Message, formatBody(result.Body))
		return
	}
	h.Response.Success(c, PublishResponse{StatusCode: result.StatusCode, Body: result.Body, Success: true}, "article published")
}

// Health reports which integrations are configured.
func (h *Handler) Health(c *gin.Context) {
	cfg := h.Config
	h.Response.Success(c, gin.H{
		"status":   "ok",
		"warnings": cfg.Warnings(),
		"llm": gin.H{
			"provider": h.Generator.ProviderName(),
			"ready":    h.Generator.IsReady(),
			"state":    h.Generator.ReadyState(),
		},
		"speech_to_text": gin.H{"configured": cfg.STT.APIKey != ""},
		"blogger":        gin.H{"configured": cfg.Blogger.APIKey != "" && cfg.Blogger.BlogID != ""},
		"store":          cfg.Store.Backend,
	})
}

// SubscribeProgress streams tracker updates as server-sent events.
func (h *Handler) SubscribeProgress(c *gin.Context) {
	tracker, exists := h.Progress.GetTracker(c.Param("request_id"))
	if !exists {
		h.Response.NotFound(c, "no run with this request id")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			data, _ := json.Marshal(update)
			fmt.Fprintf(c.Writer, "event: progress\ndata: %s\n\n", data)
			c.Writer.Flush()
			if update.Status != services.StatusRunning {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(c.Writer, "event: heartbeat\ndata: {\"time\":%d}\n\n", time.Now().Unix())
			c.Writer.Flush()
		}
	}
}

// formatBody renders a publish response body for display.
func formatBody(body interface{}) string {
	if s, ok := body.(string); ok {
		return s
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Sprint(body)
	}
	return string(data)
}
