package core

import (
	"bytes"
	"context"
	"strings"
)

// PageBreak separates composed fragments.
const PageBreak = `<div style="page-break-after: always;"></div>`

// SplitValues splits a comma-separated parameter value. Blank items are
// dropped.
func SplitValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// splitTargets returns the values to compose over, or nil when the request
// renders as a single document.
func splitTargets(desc *Descriptor, req *Request) []string {
	if desc.SplitParam == "" || desc.Format != FormatMarkup {
		return nil
	}
	values := SplitValues(req.Parameters.String(desc.SplitParam))
	if len(values) < 2 {
		return nil
	}
	return values
}

// compose binds and renders one fragment per value and joins them with
// PageBreak, in input order. Any failure aborts the whole document.
func (s *Service) compose(ctx context.Context, src DataSource, def Definition, desc *Descriptor, req *Request, m *Manifest, values []string) (*Document, error) {
	var buf bytes.Buffer
	for i, v := range values {
		fragReq := *req
		fragReq.Parameters = req.Parameters.With(desc.SplitParam, v)

		doc, err := s.renderOne(ctx, src, def, desc, &fragReq, m)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(PageBreak)
		}
		buf.Write(doc.Data)
	}
	return &Document{Data: buf.Bytes(), Format: def.Format.Native()}, nil
}
