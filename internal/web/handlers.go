package web

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/logging"
)

// MaxRequestSize bounds the JSON body of a generate request.
const MaxRequestSize = 1 << 20

// healthTimeout bounds all health checks together.
const healthTimeout = 5 * time.Second

// GenerateRequest is the JSON body of POST /api/reports/generate.
type GenerateRequest struct {
	ReportID     string      `json:"reportId"`
	ManifestID   string      `json:"manifestId"`
	OutputFormat string      `json:"outputFormat"`
	Parameters   core.Params `json:"parameters"`
	IsPrint      bool        `json:"isPrint"`
	PrinterName  string      `json:"printerName"`
	User         string      `json:"user"`
	DataSource   string      `json:"dataSource"`
}

// Request converts the body into an engine request.
func (g *GenerateRequest) Request() *core.Request {
	return &core.Request{
		ReportID:    core.ReportID(strings.TrimSpace(g.ReportID)),
		ManifestID:  strings.TrimSpace(g.ManifestID),
		Format:      g.OutputFormat,
		Parameters:  g.Parameters,
		IsPrint:     g.IsPrint,
		PrinterName: strings.TrimSpace(g.PrinterName),
		User:        g.User,
		DataSource:  g.DataSource,
	}
}

// handleGenerate renders a report and writes the document.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestSize)

	var body GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.Errorf(core.InvalidInput, "request body exceeds %d bytes", MaxRequestSize))
			return
		}
		s.respondError(w, r, core.Errorf(core.InvalidInput, "invalid request body: %w", err))
		return
	}

	req := body.Request()
	if req.User == "" {
		req.User = core.GetUserFromContext(r.Context())
	}
	ctx := WithRequestMetadata(r.Context(), r, req.User)

	doc, err := s.opts.Service.Execute(ctx, req)
	if err != nil {
		logging.FromContext(ctx).Debug("report request failed", "path", r.URL.Path, "code", core.KindOf(err).Code())
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType())
	w.Header().Set("Content-Disposition", contentDisposition(req, doc))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Data); err != nil {
		logging.FromContext(ctx).Debug("write document", "error", err)
	}
}

// contentDisposition offers spreadsheets as downloads and shows HTML and
// PDF inline.
func contentDisposition(req *core.Request, doc *core.Document) string {
	name := string(req.ReportID)
	if req.ManifestID != "" {
		name += "_" + req.ManifestID
	}
	disposition := "inline"
	if doc.Format == core.DocXLSX {
		disposition = "attachment"
	}
	return mime.FormatMediaType(disposition, map[string]string{"filename": name + doc.Extension()})
}

// ReportInfo describes one report in the catalog listing.
type ReportInfo struct {
	ReportID    string   `json:"reportId"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format"`
	Deliver     string   `json:"outputFormat"`
	Required    []string `json:"required,omitempty"`
	Split       string   `json:"splitParameter,omitempty"`
}

// handleListReports lists the configured reports.
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	descs := s.opts.Catalog.List()
	out := make([]ReportInfo, 0, len(descs))
	for _, d := range descs {
		out = append(out, ReportInfo{
			ReportID:    string(d.ID),
			Name:        d.Name,
			Description: d.Description,
			Format:      string(d.Format),
			Deliver:     string(d.Deliver),
			Required:    d.Required,
			Split:       d.SplitParam,
		})
	}
	writeJSON(w, out)
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Converter any               `json:"converter,omitempty"`
}

// handleHealth runs the configured checks. Any failure answers 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok"}
	status := http.StatusOK
	if len(s.opts.Checks) > 0 {
		resp.Checks = make(map[string]string, len(s.opts.Checks))
	}
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			logging.FromContext(ctx).Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	if s.opts.Status != nil {
		resp.Converter = s.opts.Status()
	}

	writeJSONStatus(w, status, resp)
}
