package web

// errors.go maps engine errors to HTTP responses.
//
// Every error response has the same JSON shape, {errorCode, errorMessage},
// where errorCode is the stable numeric code of the error kind. Clients of
// the legacy reporting service switch on these codes.
//
// Kinds caused by the caller carry their detail so the request can be
// fixed; server-side failures only carry the fixed kind message and the
// detail goes to the log.

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// statusByKind is never modified. Kinds not listed map to 500.
var statusByKind = map[core.Kind]int{
	core.InvalidInput:        http.StatusBadRequest,
	core.NoDataFound:         http.StatusNotFound,
	core.ReportNotConfigured: http.StatusNotFound,
}

// callerKinds are reported to the client with their detail.
var callerKinds = map[core.Kind]bool{
	core.InvalidInput:        true,
	core.NoDataFound:         true,
	core.ReportNotConfigured: true,
	core.DeviceUnavailable:   true,
}

// StatusFor returns the HTTP status of an error kind.
func StatusFor(kind core.Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError logs err with the request id and writes it as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	e := core.Normalize(err)

	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", StatusFor(e.Kind),
		"code", e.Code(),
		"error", e.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeError(w, e)
}

// writeError writes err as JSON without logging it. Errors returned by the
// engine have already been logged with the report fields.
func writeError(w http.ResponseWriter, err error) {
	e := core.Normalize(err)
	msg := e.Kind.Message()
	if callerKinds[e.Kind] {
		msg = e.Error()
	}
	writeJSONStatus(w, StatusFor(e.Kind), ErrorResponse{ErrorCode: e.Code(), ErrorMessage: msg})
}
