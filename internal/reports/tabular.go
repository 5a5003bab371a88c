package reports

import (
	"bytes"
	"context"
	"errors"

	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/tabular"
)

// Result set names of the tabular reports. rows is always the master.
const (
	setRows            = "rows"
	setCurrencySummary = "currency_summary"
	setBilledImporter  = "billed_importer"
	setBilledCA        = "billed_ca"
	setCustomsAgent    = "customs_agent"
	setDeliverySite    = "delivery_site"
)

// TabularData is the aggregate of every tabular report: the master rows
// plus named lookup and summary sets.
type TabularData struct {
	core.Sealed
	Sets core.ResultSets
}

// HasMaster reports whether the master set has at least one row.
func (d *TabularData) HasMaster() bool { return d.Rows().Len() > 0 }

// Rows returns the master set.
func (d *TabularData) Rows() *core.Table { return d.Sets.Table(setRows) }

// Lookup returns the first row of a lookup set, for filter clauses.
func (d *TabularData) Lookup(name string) (core.Record, bool) {
	return d.Sets.Lookup(name)
}

func bindTabular(in core.BindInput) (core.Bound, error) {
	return &TabularData{Sets: in.Sets}, nil
}

// lookups returns the optional lookup sets a filter line may read.
func lookups(names ...string) []core.ResultSetSpec {
	return withLookups([]core.ResultSetSpec{{Name: setRows}}, names...)
}

// withLookups appends optional single-row lookup sets to specs. Positional
// sources assign sets in this order.
func withLookups(specs []core.ResultSetSpec, names ...string) []core.ResultSetSpec {
	for _, n := range names {
		specs = append(specs, core.ResultSetSpec{Name: n, Single: true, Optional: true})
	}
	return specs
}

// tabularReports lists the tabular definitions and their layouts.
var tabularReports = []struct {
	id     core.ReportID
	sets   []core.ResultSetSpec
	layout tabular.Layout
}{
	{
		id: core.SUMentries9,
		sets: withLookups(
			[]core.ResultSetSpec{{Name: setRows}, {Name: setCurrencySummary, Optional: true}},
			setBilledImporter, setCustomsAgent, setDeliverySite,
		),
		layout: tabular.Layout{
			Sums:   []string{"כמות", `ערך בש"ח`, "20”", "40”", "נפח"},
			Counts: []string{"גוש"},
			Secondary: []tabular.Secondary{
				{Set: setCurrencySummary, Title: "ריכוז כניסות לפי מטבע", Column: 9},
			},
		},
	},
	{
		id:   core.InvBck,
		sets: lookups(setBilledImporter, setBilledCA),
		layout: tabular.Layout{
			Sums:       []string{"כמות מוצהרת", "טרם התקבל", "יתרה", "כמות משוחררת", "כמות ברשות מוסמכת"},
			Counts:     []string{"גוש"},
			PrintPrune: []string{"תיק סוכן", "כמות מוצהרת", "הערה"},
		},
	},
	{
		id:   core.SUMvalindex3,
		sets: lookups(setBilledImporter),
		layout: tabular.Layout{
			Sums: []string{
				"כמות בפתיחה", "ערך בפתיחה", "נפח בפתיחה", "שטח בפתיחה", "משקל בפתיחה",
				"יתרת כמות", "יתרת ערך", "יתרת נפח", "יתרת שטח", "יתרת משקל",
			},
			Counts: []string{"גוש"},
		},
	},
	{
		id:   core.SUMdeliveryGush8,
		sets: lookups(setBilledImporter),
		layout: tabular.Layout{
			Sums:   []string{"כמות"},
			Counts: []string{"מונה"},
		},
	},
	{
		id:   core.SUMdeliveryLines8,
		sets: lookups(setBilledImporter),
		layout: tabular.Layout{
			Sums:   []string{"כמות שנמסרה מהמזהה"},
			Counts: []string{"תעודת מסירה"},
		},
	},
	{
		id:   core.CarsInShowrooms,
		sets: lookups(setBilledImporter),
	},
	{
		id:   core.SUMqntIndex1,
		sets: lookups(setBilledImporter),
		layout: tabular.Layout{
			Sums:   []string{"יתרת כמות"},
			Counts: []string{"גוש"},
		},
	},
	{
		id:   core.DTLentries9,
		sets: lookups(setBilledImporter, setCustomsAgent, setDeliverySite),
		layout: tabular.Layout{
			Sums: []string{"כמות"},
		},
	},
	{
		id:   core.ZeroInventory11,
		sets: lookups(setBilledImporter),
	},
}

type tabularRenderer struct {
	layout   tabular.Layout
	fontSize float64
}

func (t tabularRenderer) render(_ context.Context, in core.RenderInput) (*core.Document, error) {
	data, ok := in.Data.(*TabularData)
	if !ok {
		return nil, errors.New("tabular renderer needs tabular data")
	}

	var user string
	var printing bool
	if in.Request != nil {
		user, printing = in.Request.User, in.Request.IsPrint
	}

	grid, err := tabular.Build(tabular.Input{
		Sheet:    string(in.Descriptor.ID),
		Title:    in.Descriptor.Name,
		Manifest: in.Manifest,
		User:     user,
		Now:      in.Now,
		Clauses:  in.Clauses,
		Table:    data.Rows(),
		Sets:     data.Sets,
		GroupBy:  in.Params.String(core.GroupByParam),
		Print:    printing,
		FontSize: t.fontSize,
	}, t.layout)
	if errors.Is(err, tabular.ErrUnknownColumn) {
		return nil, core.Wrap(core.InvalidInput, err)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := grid.WriteXLSX(&buf); err != nil {
		return nil, err
	}
	return &core.Document{Data: buf.Bytes(), Format: core.DocXLSX}, nil
}
