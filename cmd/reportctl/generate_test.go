package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reports/internal/core"
)

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"ToDate=2024-01-31", "FromDate=2024-01-01", "Note=a=b", "Empty="})
	require.NoError(t, err)

	assert.Equal(t, []string{"ToDate", "FromDate", "Note", "Empty"}, p.Keys())
	assert.Equal(t, "a=b", p.String("Note"))
	assert.False(t, p.Has("Empty"))

	for _, bad := range []string{"novalue", "=x"} {
		_, err := parseParams([]string{bad})
		assert.True(t, core.IsKind(err, core.InvalidInput), bad)
	}
}

func TestGenerateRequest(t *testing.T) {
	gc := &GenerateCmd{
		reportID:   "R2470",
		manifestID: "1234",
		format:     "pdf",
		params:     []string{"ConsignmentID=77"},
		print:      true,
		printer:    "hp",
		user:       "dana",
	}
	req, err := gc.request()
	require.NoError(t, err)

	assert.Equal(t, core.R2470, req.ReportID)
	assert.Equal(t, "1234", req.ManifestID)
	assert.Equal(t, "pdf", req.Format)
	assert.True(t, req.IsPrint)
	assert.Equal(t, "hp", req.PrinterName)
	assert.Equal(t, "77", req.Parameters.String("ConsignmentID"))
}

func TestOutputName(t *testing.T) {
	name := outputName(&core.Request{ReportID: core.SUMentries9, ManifestID: "1234"}, &core.Document{Format: core.DocXLSX})
	assert.Regexp(t, regexp.MustCompile(`^SUMentries9_1234_[0-9a-f]{8}\.xlsx$`), name)
}

func TestOutputName_StaysInDirectory(t *testing.T) {
	tests := []struct {
		manifest string
		want     string
	}{
		{manifest: "../../etc/cron.d/x", want: `^R2470_x_[0-9a-f]{8}\.html$`},
		{manifest: "..", want: `^R2470_[0-9a-f]{8}\.html$`},
		{manifest: "/", want: `^R2470_[0-9a-f]{8}\.html$`},
		{manifest: "a/b/", want: `^R2470_b_[0-9a-f]{8}\.html$`},
	}

	for _, tt := range tests {
		t.Run(tt.manifest, func(t *testing.T) {
			name := outputName(&core.Request{ReportID: core.R2470, ManifestID: tt.manifest}, &core.Document{Format: core.DocHTML})
			assert.Regexp(t, regexp.MustCompile(tt.want), name)
			assert.Equal(t, name, filepath.Base(name))
		})
	}
}

func TestListCmd(t *testing.T) {
	cmd := NewListCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--catalog", ""})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.Contains(t, out.String(), "R60split")
	assert.Contains(t, out.String(), "SUMentries9")
}
