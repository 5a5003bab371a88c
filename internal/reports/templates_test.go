package reports

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reports/internal/catalog"
	"github.com/JonMunkholm/reports/internal/core"
	"github.com/JonMunkholm/reports/internal/markup"
)

// allMarkupSets answers every markup fetch with one populated row per set.
func allMarkupSets(core.FetchSpec) core.ResultSets {
	return core.ResultSets{
		setConsignment: consignmentTable("C1"),
		setItems: table([]string{"ItemSequence", "CargoDescription", "Quantity"},
			[]any{int64(1), "tyres", int64(1200)},
		),
		setControl1050: table([]string{"ContainerNumber", "DriverID"},
			[]any{"MSKU1234567", "D9"},
		),
		setRelease: table([]string{"ConsignmentID", "CustomsAgentID", "ImporterName"},
			[]any{"C1", "CA2", "Acme Ltd"},
		),
		setReleaseItems: table([]string{"ItemSequence", "CargoDescription", "Quantity"},
			[]any{int64(1), "tyres", int64(1200)},
		),
		setEntryLines: table([]string{"LineNum", "LineID", "LineQuantityDeclared"},
			[]any{int64(1), "L1", int64(40)},
		),
		setLineMoves: table([]string{"LineNum", "LineID", "LineQuantityDeclared", "TotalQuantityMoveNow"},
			[]any{int64(1), "L1", int64(40), int64(15)},
		),
	}
}

func TestShippedTemplates(t *testing.T) {
	cat, err := catalog.Load("")
	require.NoError(t, err)

	reg := core.NewRegistry()
	Register(reg, Options{Templates: markup.NewRenderer(markup.NewDirStore("../../templates"))})

	svc, err := core.NewService(core.ServiceConfig{
		Registry:  reg,
		Catalog:   cat,
		Connector: stubConnector{src: &stubSource{fetch: allMarkupSets}},
		Now:       func() time.Time { return testNow },
	})
	require.NoError(t, err)

	tests := []struct {
		id   core.ReportID
		want []string
	}{
		{id: core.R912470, want: []string{"MSKU1234567", "1,200", "tyres"}},
		{id: core.R2470, want: []string{"Acme Ltd", "1,200", "סוכן מכס שונה"}},
		{id: core.R60split, want: []string{"L1", "40"}},
		{id: core.R24720P, want: []string{"2401234-1", "15"}},
		{id: core.R1050MT, want: []string{"MSKU1234567", "D9"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			doc, err := svc.Execute(context.Background(), &core.Request{
				ReportID:   tt.id,
				ManifestID: "1234",
				Format:     "html",
				Parameters: core.NewParams("ConsignmentID", "C1"),
				User:       "dana",
			})
			require.NoError(t, err)

			html := string(doc.Data)
			assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
			assert.Contains(t, html, `dir="rtl"`)
			assert.Contains(t, html, "direction: rtl", "style partial not included")
			assert.Contains(t, html, "North", "header not rendered")
			assert.Contains(t, html, `הופק ע"י dana`, "footer not rendered")
			for _, w := range tt.want {
				assert.Contains(t, html, w)
			}
			assert.NotContains(t, html, "{{")
		})
	}
}
