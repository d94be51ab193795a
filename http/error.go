package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fwojciec/distill"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	distill.EINVALID:       http.StatusBadRequest,
	distill.ENOTFOUND:      http.StatusNotFound,
	distill.ETOOLARGE:      http.StatusRequestEntityTooLarge,
	distill.ENOTCONFIGURED: http.StatusInternalServerError,
	distill.EPROVIDER:      http.StatusInternalServerError,
	distill.EEXTRACT:       http.StatusBadGateway,
	distill.ENOCONTENT:     http.StatusUnprocessableEntity,
	distill.EUNAUTHORIZED:  http.StatusUnauthorized,
	distill.EFORBIDDEN:     http.StatusForbidden,
	distill.EQUOTA:         http.StatusTooManyRequests,
	distill.ERATELIMIT:     http.StatusTooManyRequests,
	distill.EINTERNAL:      http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details string         `json:"details,omitempty"`
	Usage   *distill.Usage `json:"usage,omitempty"`
}

// route-specific overrides of the default status mapping.
type errorOptions struct {
	providerStatus int
}

// Error writes err to w as JSON and logs it. Messages of internal and
// not-configured errors are replaced by generic text; the full error only
// reaches the log.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, err, errorOptions{})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, opts errorOptions) {
	code, message := distill.ErrorCode(err), distill.ErrorMessage(err)

	status := ErrorStatusCode(code)
	if code == distill.EPROVIDER && opts.providerStatus != 0 {
		status = opts.providerStatus
	}

	resp := ErrorResponse{Code: code, Usage: distill.ErrorUsage(err)}
	switch code {
	case distill.EINTERNAL:
		resp.Error = "internal error"
	case distill.ENOTCONFIGURED:
		resp.Error = "service not configured"
	case distill.EEXTRACT:
		resp.Error = message
		resp.Details = distill.ErrorDetails(err)
	default:
		resp.Error = message
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger().Log(r.Context(), level, "request failed",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"err", err,
	)

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
