package core

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/reports/internal/logging"
)

// ServiceConfig wires the engine's collaborators.
type ServiceConfig struct {
	Registry  *Registry
	Catalog   Catalog
	Connector Connector

	// Converter and Printer may be nil; requests that need them then fail
	// with ConversionFailure and DeviceUnavailable.
	Converter Converter
	Printer   Printer

	Margins           Margins
	DefaultDataSource string
	ManifestProcedure string         // defaults to DefaultManifestProcedure
	Location          *time.Location // print timestamps; defaults to time.Local
	Now               func() time.Time
}

// Service executes report requests.
type Service struct {
	registry  *Registry
	catalog   Catalog
	connector Connector
	converter Converter
	printer   Printer

	margins           Margins
	defaultDataSource string
	manifestProcedure string
	location          *time.Location
	now               func() time.Time
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, errors.New("core: registry is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("core: catalog is required")
	}
	if cfg.Connector == nil {
		return nil, errors.New("core: connector is required")
	}

	s := &Service{
		registry:          cfg.Registry,
		catalog:           cfg.Catalog,
		connector:         cfg.Connector,
		converter:         cfg.Converter,
		printer:           cfg.Printer,
		margins:           cfg.Margins,
		defaultDataSource: cfg.DefaultDataSource,
		manifestProcedure: cfg.ManifestProcedure,
		location:          cfg.Location,
		now:               cfg.Now,
	}
	if s.manifestProcedure == "" {
		s.manifestProcedure = DefaultManifestProcedure
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Execute validates req, binds its data, renders it and delivers the
// result. Every failure is an *Error, logged once here.
func (s *Service) Execute(ctx context.Context, req *Request) (*Document, error) {
	logger := logging.WithFields(ctx, logging.ReportFields(
		string(req.ReportID), req.ManifestID, req.User,
		req.Parameters.Summary(RedactKey),
	)...)
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		logger = logger.With("client_ip", ip)
	}
	logger.Info("report requested", "format", req.Format, "print", req.IsPrint)

	start := time.Now()
	doc, err := s.execute(ctx, req)
	if err != nil {
		e := Normalize(err)
		level := slog.LevelError
		if e.Kind == InvalidInput || e.Kind == NoDataFound || e.Kind == ReportNotConfigured {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "report failed",
			"error", e.Error(),
			"code", e.Code(),
			"kind", e.Kind.String(),
		)
		return nil, e
	}

	logger.Info("report generated",
		"doc_format", string(doc.Format),
		"bytes", len(doc.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

func (s *Service) execute(ctx context.Context, req *Request) (*Document, error) {
	desc, ok := s.catalog.Descriptor(req.ReportID)
	if !ok {
		return nil, Errorf(ReportNotConfigured, "report %q", req.ReportID)
	}
	def, ok := s.registry.Lookup(req.ReportID)
	if !ok {
		return nil, Errorf(ReportNotConfigured, "report %q has no definition", req.ReportID)
	}
	if desc.Procedure != "" {
		def.Schema.Procedure = desc.Procedure
	}

	want, err := s.validate(desc, def, req)
	if err != nil {
		return nil, err
	}

	locator := req.DataSource
	if locator == "" {
		locator = s.defaultDataSource
	}
	src, err := s.connector.Connect(ctx, locator)
	if err != nil {
		return nil, Wrap(DataAccessFailure, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			logging.FromContext(ctx).Debug("close data source", "error", cerr)
		}
	}()

	m, err := s.fetchManifest(ctx, src, req.ManifestID)
	if err != nil {
		return nil, err
	}

	var doc *Document
	if values := splitTargets(desc, req); values != nil {
		doc, err = s.compose(ctx, src, def, desc, req, m, values)
	} else {
		doc, err = s.renderOne(ctx, src, def, desc, req, m)
	}
	if err != nil {
		return nil, err
	}

	return s.deliver(ctx, doc, want, req)
}

// validate checks req against the descriptor before any data access and
// returns the delivery format.
func (s *Service) validate(desc *Descriptor, def Definition, req *Request) (DocFormat, error) {
	if strings.TrimSpace(req.ManifestID) == "" {
		return "", NewError(InvalidInput, "manifestId is required")
	}

	var missing []string
	for _, name := range desc.Required {
		if !req.Parameters.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", Errorf(InvalidInput, "missing required parameters: %s", strings.Join(missing, ", "))
	}

	if req.IsPrint && strings.TrimSpace(req.PrinterName) == "" {
		return "", NewError(InvalidInput, "printerName is required when printing")
	}

	want := desc.Deliver
	if req.Format != "" {
		f, ok := ParseDocFormat(req.Format)
		if !ok {
			return "", Errorf(InvalidInput, "unknown output format %q", req.Format)
		}
		want = f
	}
	if want == "" {
		want = def.Format.Native()
	}
	if !def.Format.Allows(want) {
		return "", Errorf(InvalidInput, "%s reports cannot be delivered as %s", def.Format, want)
	}
	return want, nil
}

// renderOne binds and renders a single document.
func (s *Service) renderOne(ctx context.Context, src DataSource, def Definition, desc *Descriptor, req *Request, m *Manifest) (*Document, error) {
	b, err := s.bind(ctx, src, def, req, m)
	if err != nil {
		return nil, err
	}

	var lookups LookupSource
	if ls, ok := b.(LookupSource); ok {
		lookups = ls
	}

	doc, err := def.Render(ctx, RenderInput{
		Descriptor: desc,
		Request:    req,
		Params:     req.Parameters,
		Data:       b,
		Manifest:   m,
		Clauses:    Describe(desc.Filters, req.Parameters, lookups),
		Now:        s.now().In(s.location),
	})
	if err != nil {
		return nil, Wrap(RenderError, err)
	}
	if doc == nil {
		return nil, Errorf(RenderError, "%s: renderer returned no document", def.ID)
	}
	return doc, nil
}

// deliver converts and prints as requested.
func (s *Service) deliver(ctx context.Context, doc *Document, want DocFormat, req *Request) (*Document, error) {
	if want != DocPDF && !req.IsPrint {
		return doc, nil
	}

	if s.converter == nil {
		return nil, NewError(ConversionFailure, "no converter configured")
	}
	pdf, err := s.converter.ConvertToFixedLayout(ctx, doc, s.margins)
	if err != nil {
		return nil, Wrap(ConversionFailure, err)
	}

	if req.IsPrint {
		if s.printer == nil {
			return nil, Errorf(DeviceUnavailable, "no printer configured for %q", req.PrinterName)
		}
		if err := s.printer.Submit(ctx, pdf, req.PrinterName); err != nil {
			return nil, Wrap(ConversionFailure, err)
		}
	}

	if want == DocPDF {
		return &Document{Data: pdf, Format: DocPDF}, nil
	}
	return doc, nil
}
