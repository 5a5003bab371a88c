package pgsource

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/reports/internal/core"
)

func TestCallQuery(t *testing.T) {
	tests := []struct {
		name      string
		procedure string
		params    core.Params
		wantSQL   string
		wantArgs  int
	}{
		{
			name:      "no parameters",
			procedure: "GetManifestByManifestID",
			params:    core.Params{},
			wantSQL:   `SELECT * FROM "GetManifestByManifestID"()`,
		},
		{
			name:      "ordered parameters",
			procedure: "GetDataForSUMentries9Report",
			params:    core.NewParams("FromDate", "2024-01-01", "ToDate", "2024-01-31", "ManifestID", "12"),
			wantSQL:   `SELECT * FROM "GetDataForSUMentries9Report"("FromDate" => $1, "ToDate" => $2, "ManifestID" => $3)`,
			wantArgs:  3,
		},
		{
			name:      "schema qualified",
			procedure: "reports.GetDataForR2470Report",
			params:    core.NewParams("ConsignmentID", "C1"),
			wantSQL:   `SELECT * FROM "reports"."GetDataForR2470Report"("ConsignmentID" => $1)`,
			wantArgs:  1,
		},
		{
			name:      "quotes in names",
			procedure: `bad"name`,
			params:    core.NewParams(`x"y`, 1),
			wantSQL:   `SELECT * FROM "bad""name"("x""y" => $1)`,
			wantArgs:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := CallQuery(tt.procedure, tt.params)
			if sql != tt.wantSQL {
				t.Errorf("CallQuery() sql = %s, want %s", sql, tt.wantSQL)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("CallQuery() args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestCallQueryArgOrder(t *testing.T) {
	_, args := CallQuery("p", core.NewParams("b", "2", "a", "1"))
	if args[0] != "2" || args[1] != "1" {
		t.Errorf("args = %v, want [2 1]", args)
	}
}

func TestNormalize(t *testing.T) {
	now := time.Now()
	id := [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}

	tests := []struct {
		name  string
		input any
		want  any
	}{
		{name: "int32", input: int32(7), want: int64(7)},
		{name: "int16", input: int16(-3), want: int64(-3)},
		{name: "float32", input: float32(1.5), want: float64(1.5)},
		{name: "uuid", input: id, want: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "bytes", input: []byte("abc"), want: "abc"},
		{name: "string", input: "x", want: "x"},
		{name: "time", input: now, want: now},
		{name: "null", input: nil, want: nil},
		{name: "invalid numeric", input: pgtype.Numeric{}, want: nil},
		{name: "nan", input: pgtype.Numeric{NaN: true, Valid: true}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%v) = %v (%T), want %v (%T)", tt.input, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestNormalizeNumeric(t *testing.T) {
	n := pgtype.Numeric{Int: big.NewInt(12345), Exp: -2, Valid: true}

	got, ok := Normalize(n).(decimal.Decimal)
	if !ok {
		t.Fatalf("Normalize() = %T, want decimal.Decimal", Normalize(n))
	}
	if !got.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("Normalize() = %s, want 123.45", got)
	}
}
