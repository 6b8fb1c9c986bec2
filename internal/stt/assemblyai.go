// internal/stt/assemblyai.go
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Corphon/yt2blog/internal/config"
	apperrors "github.com/Corphon/yt2blog/internal/errors"
	"github.com/Corphon/yt2blog/internal/utils"
)

// Job statuses reported by the provider.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// ErrTranscriptionFailed is returned when a job ends in the error state.
var ErrTranscriptionFailed = errors.New("transcription job failed")

// Job is the provider's view of a transcription job.
type Job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Text   string `json:"text"`
	Error  string `json:"error,omitempty"`
}

// PollObserver is told about every status poll.
type PollObserver func(jobID, status string, attempt int)

// Client talks to the AssemblyAI v2 API.
type Client struct {
	apiKey       string
	baseURL      string
	languageCode string
	poll         PollConfig
	client       *http.Client
	logger       *utils.Logger
	observer     PollObserver
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithPollObserver registers a callback invoked after each poll.
func WithPollObserver(observer PollObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// NewClient creates a speech-to-text client from the application config.
func NewClient(cfg config.STTConfig, logger *utils.Logger, opts ...Option) *Client {
	c := &Client{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		languageCode: cfg.LanguageCode,
		poll: PollConfig{
			Interval:    cfg.PollInterval,
			MaxInterval: cfg.PollMaxInterval,
			Multiplier:  cfg.PollMultiplier,
			MaxAttempts: cfg.PollMaxAttempts,
			Timeout:     cfg.Timeout,
		},
		// uploads of long audio can take minutes; each call is bounded by ctx instead
		client: &http.Client{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe uploads the audio file, submits a job and waits for its result.
// A job that ends in the error state yields ErrTranscriptionFailed.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if c.apiKey == "" {
		return "", apperrors.NewValidationError("speech-to-text API key is not configured", nil)
	}

	uploadURL, err := c.Upload(ctx, audioPath)
	if err != nil {
		return "", err
	}

	job, err := c.Submit(ctx, uploadURL)
	if err != nil {
		return "", err
	}
	c.logger.Info("transcription job submitted", map[string]interface{}{"job_id": job.ID, "language": c.languageCode})

	job, err = c.Wait(ctx, job.ID)
	if err != nil {
		return "", err
	}
	return job.Text, nil
}

// Upload sends the audio file as multipart form data and returns the upload URL.
func (c *Client) Upload(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", apperrors.NewProcessingError("open audio file", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(audioPath))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out struct {
		UploadURL string `json:"upload_url"`
	}
	if err := c.do(req, &out); err != nil {
		pr.Close()
		return "", apperrors.WrapError(err, "upload audio", apperrors.ErrorTypeUpstream)
	}
	if out.UploadURL == "" {
		return "", apperrors.NewUpstreamError("upload audio: response has no upload_url", nil)
	}
	return out.UploadURL, nil
}

// Submit creates a transcription job for an uploaded file.
func (c *Client) Submit(ctx context.Context, audioURL string) (*Job, error) {
	body, err := json.Marshal(map[string]string{
		"audio_url":     audioURL,
		"language_code": c.languageCode,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var job Job
	if err := c.do(req, &job); err != nil {
		return nil, apperrors.WrapError(err, "submit transcription job", apperrors.ErrorTypeUpstream)
	}
	if job.ID == "" {
		return nil, apperrors.NewUpstreamError("submit transcription job: response has no id", nil)
	}
	return &job, nil
}

// Get fetches the current state of a job.
func (c *Client) Get(ctx context.Context, jobID string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Wait polls a job until it completes, fails, or the poll budget runs out.
func (c *Client) Wait(ctx context.Context, jobID string) (*Job, error) {
	start := time.Now()
	job, err := c.poll.Wait(ctx, func(ctx context.Context, attempt int) (*Job, bool, error) {
		job, err := c.Get(ctx, jobID)
		if err != nil {
			return nil, false, err
		}
		if c.observer != nil {
			c.observer(jobID, job.Status, attempt)
		}
		c.logger.Debug("transcription job polled", map[string]interface{}{
			"job_id":  jobID,
			"status":  job.Status,
			"attempt": attempt,
		})
		switch job.Status {
		case StatusCompleted, StatusError:
			return job, true, nil
		default:
			return job, false, nil
		}
	})
	if err != nil {
		return nil, apperrors.WrapError(err, "wait for transcription job "+jobID, apperrors.ErrorTypeUpstream)
	}

	if job.Status == StatusError {
		c.logger.Warn("transcription job failed", map[string]interface{}{"job_id": jobID, "error": job.Error})
		return nil, apperrors.NewProcessingError(job.Error, ErrTranscriptionFailed).WithCode("TRANSCRIPTION_FAILED")
	}

	c.logger.Info("transcription job completed", map[string]interface{}{
		"job_id":   jobID,
		"duration": time.Since(start).Round(time.Millisecond).String(),
		"chars":    len(job.Text),
	})
	return job, nil
}

// do sends an authorized request and decodes a JSON response into out.
func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewUpstreamError(fmt.Sprintf("speech-to-text API returned %d", resp.StatusCode), errors.New(strings.TrimSpace(string(body))))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
