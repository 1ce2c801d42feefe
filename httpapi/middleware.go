package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyRequestID ctxKey = "request_id"

// maxBodyBytes caps request bodies; documents are sent whole.
const maxBodyBytes = 4 << 20

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-Id")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic in handler", "path", r.URL.Path, "panic", rec, "request_id", requestIDFromContext(r.Context()))
				writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type successResponse struct {
	Data any `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code blocktl.Code) int {
	switch code {
	case blocktl.CodeFeatureUnavailable:
		return http.StatusServiceUnavailable
	case blocktl.CodeNoAPIKey:
		return http.StatusForbidden
	case blocktl.CodeInvalidProvider, blocktl.CodeInsufficientProviders,
		blocktl.CodeEmptyText, blocktl.CodeNoBlocks, blocktl.CodeInvalidBlockStructure,
		blocktl.CodeHTMLParseError:
		return http.StatusBadRequest
	case blocktl.CodePostNotFound, blocktl.CodeComparisonNotFound,
		blocktl.CodeProviderResultNotFound, blocktl.CodePendingNotFound:
		return http.StatusNotFound
	case blocktl.CodeDailyLimitExceeded, blocktl.CodeMonthlyLimitExceeded:
		return http.StatusTooManyRequests
	case blocktl.CodeAPIConnectionFailed, blocktl.CodeAPIError,
		blocktl.CodeInvalidResponse, blocktl.CodeEmptyTranslation:
		return http.StatusBadGateway
	case blocktl.CodeExtensionUsed, blocktl.CodeAlreadySelected:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err with its code. Errors without a code and
// storage failures are reported without their message.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := blocktl.CodeOf(err)
	status := statusFor(code)

	if code == "" || code == blocktl.CodeStorage {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", requestIDFromContext(r.Context()))
		writeError(w, status, "internal_error", "internal server error")
		return
	}

	message := err.Error()
	var e *blocktl.Error
	if errors.As(err, &e) && e.Message != "" {
		message = e.Message
	}
	writeError(w, status, string(code), message)
}

// decode reads a JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
