// Package reports binds every known report id to its data schema, binder
// and renderer.
//
// Tabular reports share one aggregate, TabularData, and differ only in
// their result sets and sheet layout. Markup reports each have a typed
// aggregate that declares its template fields.
package reports

import (
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/markup"
)

// Options configures the renderers.
type Options struct {
	// Templates renders markup reports.
	Templates *markup.Renderer

	// FontSize is the spreadsheet font size; zero uses the default.
	FontSize float64
}

// Procedure returns the default stored procedure of a report.
func Procedure(id core.ReportID) string {
	return "GetDataFor" + string(id) + "Report"
}

// Register adds every report definition to reg.
func Register(reg *core.Registry, opts Options) {
	for _, r := range tabularReports {
		reg.Register(core.Definition{
			ID:     r.id,
			Format: core.FormatTabular,
			Schema: core.Schema{
				Procedure:      Procedure(r.id),
				Sets:           r.sets,
				InjectManifest: true,
			},
			Bind:   bindTabular,
			Render: tabularRenderer{layout: r.layout, fontSize: opts.FontSize}.render,
		})
	}

	mr := markupRenderer{renderer: opts.Templates}
	for _, r := range markupReports {
		proc := r.procedure
		if proc == "" {
			proc = Procedure(r.id)
		}
		reg.Register(core.Definition{
			ID:     r.id,
			Format: core.FormatMarkup,
			Schema: core.Schema{
				Procedure:      proc,
				Sets:           r.sets,
				Remove:         []string{VarSequenceParam},
				InjectManifest: true,
			},
			Bind:   r.bind,
			Render: mr.render,
		})
	}
}
