// internal/api/error_codes.go
package api

import (
	"net/http"

	apperrors "github.com/Corphon/yt2blog/internal/errors"
)

// API error codes
const (
	// general
	ErrorBadRequest    = "BAD_REQUEST"
	ErrorNotFound      = "NOT_FOUND"
	ErrorInternalError = "INTERNAL_ERROR"
	ErrorRateLimited   = "RATE_LIMIT_EXCEEDED"

	// pipeline
	ErrorInvalidURL          = "INVALID_URL"
	ErrorNoContent           = "NO_CONTENT"
	ErrorTranscriptionFailed = "TRANSCRIPTION_FAILED"
	ErrorSTTTimeout          = "STT_TIMEOUT"
	ErrorGenerationFailed    = "GENERATION_FAILED"

	// publishing
	ErrorArticleNotFound = "ARTICLE_NOT_FOUND"
	ErrorPublishFailed   = "PUBLISH_FAILED"
)

// statusForError maps an error to the HTTP status of its API response.
func statusForError(err error) int {
	switch apperrors.CodeOf(err) {
	case ErrorNoContent, ErrorTranscriptionFailed:
		return http.StatusUnprocessableEntity
	}

	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrorTypeUpstream:
		return http.StatusBadGateway
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
