package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/arena"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/progress"
	"go.uber.org/zap"
)

// errInvalidRequest marks malformed request bodies and parameters
var errInvalidRequest = errors.New("invalid request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// statusFor maps a domain error to its HTTP status and error type
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, lesson.ErrUnknownCategory),
		errors.Is(err, progress.ErrUnknownFilter):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, lesson.ErrSessionNotFound),
		errors.Is(err, arena.ErrGameNotFound),
		errors.Is(err, database.ErrNoProfile):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, lesson.ErrSessionFinished),
		errors.Is(err, arena.ErrGameOver):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, arena.ErrNotEnoughWords):
		return http.StatusUnprocessableEntity, "invalid_request_error"
	case errors.Is(err, ai.ErrQuota):
		return http.StatusTooManyRequests, "rate_limit_error"
	case errors.Is(err, ai.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout_error"
	case errors.Is(err, ai.ErrNotConfigured):
		return http.StatusServiceUnavailable, "generator_unavailable"
	case errors.Is(err, lesson.ErrGeneration),
		errors.Is(err, ai.ErrMalformedResponse):
		return http.StatusBadGateway, "generator_error"
	default:
		return http.StatusInternalServerError, "api_error"
	}
}

// generatorError marks err as coming from the generator so unclassified
// failures still map to 502
func generatorError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", lesson.ErrGeneration, err)
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, errType := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.Logger.Error("request error",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	httpError(w, code, errType, "%v", err)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errInvalidRequest, err)
	}
	return nil
}
