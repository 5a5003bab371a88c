// Package core provides the report dispatch-and-rendering engine.
//
// This package holds the domain logic that turns a report request into a
// finished document, independent of any transport. It is used by the HTTP
// server, the reportctl CLI and tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Definitions: each report id is bound at startup to a [Definition]
//     holding its fetch [Schema], a binder and a renderer. Definitions live
//     in a [Registry] that is read-only once the process starts serving.
//   - Descriptors: catalog entries ([Descriptor]) carrying the display name,
//     template names, required parameters and filter rules of a report.
//   - Service: [Service.Execute] validates, binds, renders and delivers.
//
// # Registry
//
// Definitions are registered once at startup:
//
//	reg := core.NewRegistry()
//	reg.Register(core.Definition{
//	    ID:     core.SUMentries9,
//	    Format: core.FormatTabular,
//	    Schema: core.Schema{
//	        Procedure: "GetDataForSUMentries9Report",
//	        Sets:      []core.ResultSetSpec{{Name: "rows"}, {Name: "billed_importer", Optional: true}},
//	    },
//	    Bind:   bindTabular,
//	    Render: renderSheet,
//	})
//
// # Pipeline
//
// A request flows through the following steps:
//
//  1. The descriptor and definition are resolved ([ReportNotConfigured])
//  2. Required parameters are checked before any data access ([InvalidInput])
//  3. The manifest header and the report's named result sets are fetched
//     ([DataAccessFailure]) and bound into a typed aggregate ([NoDataFound]
//     when the master record is absent)
//  4. Filter clauses are described from the catalog rules
//  5. The renderer produces bytes ([RenderError]); comma-separated split
//     parameters produce one fragment per value joined by [PageBreak]
//  6. Fixed-layout conversion and printing run when requested
//     ([ConversionFailure], [DeviceUnavailable])
//
// # Error Handling
//
// Every failure is reported as an [*Error] carrying a [Kind] with a stable
// numeric code. Errors outside the taxonomy are wrapped into [GlobalError]
// by [Normalize]. The dispatcher logs each failure once with the report
// correlation fields.
package core
