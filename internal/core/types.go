package core

import (
	"context"
	"strings"
	"time"
)

// ReportID identifies a report. The set of ids is closed: every id the
// catalog may name is declared here and bound in the registry at startup.
type ReportID string

// Tabular reports.
const (
	SUMentries9       ReportID = "SUMentries9"
	InvBck            ReportID = "InvBck"
	SUMvalindex3      ReportID = "SUMvalindex3"
	SUMdeliveryGush8  ReportID = "SUMdeliveryGush8"
	SUMdeliveryLines8 ReportID = "SUMdeliveryLines8"
	CarsInShowrooms   ReportID = "CarsInShowrooms"
	SUMqntIndex1      ReportID = "SUMqntIndex1"
	DTLentries9       ReportID = "DTLentries9"
	ZeroInventory11   ReportID = "ZeroInventory11"
)

// Markup reports.
const (
	R912470  ReportID = "R912470"
	R2470    ReportID = "R2470"
	R60split ReportID = "R60split"
	R24720P  ReportID = "R24720P"
	R1050MT  ReportID = "R1050MT"
)

// OutputFormat is the rendering family of a report.
type OutputFormat string

const (
	FormatTabular OutputFormat = "tabular"
	FormatMarkup  OutputFormat = "markup"
)

// Native returns the document format the renderer of this family produces.
func (f OutputFormat) Native() DocFormat {
	if f == FormatMarkup {
		return DocHTML
	}
	return DocXLSX
}

// Allows reports whether a document of this family can be delivered as d.
func (f OutputFormat) Allows(d DocFormat) bool {
	switch f {
	case FormatTabular:
		return d == DocXLSX || d == DocPDF
	case FormatMarkup:
		return d == DocHTML || d == DocPDF
	}
	return false
}

// DocFormat tags the bytes of a rendered document.
type DocFormat string

const (
	DocXLSX DocFormat = "xlsx"
	DocHTML DocFormat = "html"
	DocPDF  DocFormat = "pdf"
)

// ParseDocFormat accepts the delivery format names used by callers.
// "excel" is kept as an alias of xlsx.
func ParseDocFormat(s string) (DocFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return DocXLSX, true
	case "html":
		return DocHTML, true
	case "pdf":
		return DocPDF, true
	}
	return "", false
}

// Descriptor is the catalog entry of a report. Descriptors are loaded once
// per process and never modified afterwards.
type Descriptor struct {
	ID          ReportID
	Name        string
	Description string
	Template    string
	Format      OutputFormat
	Deliver     DocFormat // default delivery format

	// Procedure overrides the definition's stored procedure when set.
	Procedure string

	HeaderTemplate string
	TitleTemplate  string
	FooterTemplate string

	Required []string
	Filters  []FilterRule

	// SplitParam names the parameter whose comma-separated values produce
	// one fragment each. Empty when the report does not compose.
	SplitParam string
}

// Request is a single report generation request.
type Request struct {
	ReportID    ReportID
	ManifestID  string
	Format      string // requested delivery format, empty for the descriptor default
	Parameters  Params
	IsPrint     bool
	PrinterName string
	User        string
	DataSource  string // data source locator, empty for the configured default
}

// Document is a rendered report.
type Document struct {
	Data   []byte
	Format DocFormat
}

// ContentType returns the MIME type of the document.
func (d *Document) ContentType() string {
	switch d.Format {
	case DocXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case DocHTML:
		return "text/html; charset=utf-8"
	case DocPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension of the document, including the dot.
func (d *Document) Extension() string {
	return "." + string(d.Format)
}

// Margins are page margins in CSS length units ("12mm").
type Margins struct {
	Top    string
	Right  string
	Bottom string
	Left   string
}

// UniformMargins returns margins with the same length on every side.
func UniformMargins(v string) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Converter turns a rendered document into fixed-layout (PDF) bytes.
type Converter interface {
	ConvertToFixedLayout(ctx context.Context, doc *Document, margins Margins) ([]byte, error)
}

// Printer submits fixed-layout bytes to a named device.
type Printer interface {
	Submit(ctx context.Context, pdf []byte, device string) error
}

// Catalog resolves report descriptors.
type Catalog interface {
	Descriptor(id ReportID) (*Descriptor, bool)
}

// RenderInput is everything a renderer may use to lay out one document.
type RenderInput struct {
	Descriptor *Descriptor
	Request    *Request
	Params     Params
	Data       Bound
	Manifest   *Manifest
	Clauses    []string
	Now        time.Time
}

// Manifest is the bonded warehouse header record shown on every report.
type Manifest struct {
	ManifestID string
	GroupName  string
	GroupID    int64
	TermName   string
	TermUN     string
	TermVAT    int64
	Location   string
	Phone      string
	LastGush   int64
}

// ManifestFromRecord maps a GetManifestByManifestID row.
func ManifestFromRecord(r Record) *Manifest {
	return &Manifest{
		ManifestID: r.String("ManifestID"),
		GroupName:  r.String("GroupName"),
		GroupID:    r.Int("GroupID"),
		TermName:   r.String("TermName"),
		TermUN:     r.String("TermUN"),
		TermVAT:    r.Int("TermVAT"),
		Location:   r.String("Location"),
		Phone:      r.String("Phone"),
		LastGush:   r.Int("LastGush"),
	}
}
