package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// ----------------------------------------------------------------------------
// Record accessor Tests
// ----------------------------------------------------------------------------

func TestRecordDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "int64", input: int64(123), want: "123"},
		{name: "float64", input: 12.5, want: "12.5"},
		{name: "decimal", input: decimal.RequireFromString("7.25"), want: "7.25"},
		{name: "text with thousands", input: "1,234.50", want: "1234.5"},
		{name: "shekel symbol", input: "₪100", want: "100"},
		{name: "accounting negative", input: "(45.00)", want: "-45"},
		{name: "bytes", input: []byte("42"), want: "42"},
		{name: "null", input: nil, want: "0"},
		{name: "garbage", input: "abc", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{"v": tt.input}
			if got := r.Decimal("v").String(); got != tt.want {
				t.Errorf("Decimal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecordInt(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{name: "int32", input: int32(7), want: 7, wantOK: true},
		{name: "string", input: " 24001 ", want: 24001, wantOK: true},
		{name: "decimal truncates", input: decimal.RequireFromString("9.9"), want: 9, wantOK: true},
		{name: "missing", input: nil, want: 0, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{"v": tt.input}
			got, ok := r.NullInt("v")
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NullInt() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRecordTime(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    time.Time
		wantNil bool
	}{
		{name: "iso date", input: "2024-03-05", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "day first", input: "05/03/2024", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "iso datetime", input: "2024-03-05T10:30:00", want: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)},
		{name: "time value", input: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), want: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{name: "empty", input: "", wantNil: true},
		{name: "null", input: nil, wantNil: true},
		{name: "invalid", input: "not a date", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Record{"v": tt.input}.Time("v")
			if tt.wantNil {
				if got != nil {
					t.Errorf("Time() = %v, want nil", got)
				}
				return
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("Time() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordString(t *testing.T) {
	r := Record{
		"name":  "  Acme  ",
		"date":  time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		"stamp": time.Date(2024, 1, 31, 14, 5, 0, 0, time.UTC),
		"n":     int64(5),
	}

	tests := []struct {
		col  string
		want string
	}{
		{"name", "Acme"},
		{"date", "31/01/2024"},
		{"stamp", "31/01/2024 14:05"},
		{"n", "5"},
		{"missing", ""},
	}
	for _, tt := range tests {
		if got := r.String(tt.col); got != tt.want {
			t.Errorf("String(%q) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestRecordBool(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{true, true},
		{"Y", true},
		{"yes", true},
		{int64(1), true},
		{"N", false},
		{"0", false},
		{nil, false},
		{"maybe", false},
	}
	for _, tt := range tests {
		if got := (Record{"v": tt.input}).Bool("v"); got != tt.want {
			t.Errorf("Bool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1,000"},
		{"1234567", "1,234,567"},
		{"-1234.6", "-1,235"},
		{"100000", "100,000"},
	}
	for _, tt := range tests {
		if got := FormatThousands(decimal.RequireFromString(tt.input)); got != tt.want {
			t.Errorf("FormatThousands(%s) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatGush(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"24001", "24/001"},
		{"12345", "12/345"},
		{"24", "24"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatGush(tt.input); got != tt.want {
			t.Errorf("FormatGush(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTableWithout(t *testing.T) {
	tbl := &Table{
		Name:    "rows",
		Columns: []string{"a", "b", "c"},
		Rows:    [][]any{{1, 2, 3}, {4, 5, 6}},
	}

	got := tbl.Without("b", "unknown")

	if len(got.Columns) != 2 || got.Columns[0] != "a" || got.Columns[1] != "c" {
		t.Fatalf("Columns = %v, want [a c]", got.Columns)
	}
	if got.Rows[1][1] != 6 {
		t.Errorf("Rows[1][1] = %v, want 6", got.Rows[1][1])
	}
	if len(tbl.Columns) != 3 {
		t.Error("Without modified the receiver")
	}
}

func TestAssignSets(t *testing.T) {
	specs := []ResultSetSpec{{Name: "consignment"}, {Name: "items"}, {Name: "control1050", Optional: true}}

	tests := []struct {
		name   string
		tables []*Table
		want   map[string]string // set name -> first column
	}{
		{
			name:   "positional",
			tables: []*Table{{Columns: []string{"c"}}, {Columns: []string{"i"}}},
			want:   map[string]string{"consignment": "c", "items": "i"},
		},
		{
			name:   "named out of order",
			tables: []*Table{{Name: "items", Columns: []string{"i"}}, {Name: "consignment", Columns: []string{"c"}}},
			want:   map[string]string{"consignment": "c", "items": "i"},
		},
		{
			name:   "mixed",
			tables: []*Table{{Name: "control1050", Columns: []string{"m"}}, {Columns: []string{"c"}}, {Columns: []string{"i"}}},
			want:   map[string]string{"consignment": "c", "items": "i", "control1050": "m"},
		},
		{
			name:   "extra tables dropped",
			tables: []*Table{{Columns: []string{"c"}}, {Columns: []string{"i"}}, {Columns: []string{"m"}}, {Columns: []string{"x"}}},
			want:   map[string]string{"consignment": "c", "items": "i", "control1050": "m"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssignSets(specs, tt.tables)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for name, col := range tt.want {
				tbl := got.Table(name)
				if tbl == nil {
					t.Fatalf("set %q missing", name)
				}
				if tbl.Columns[0] != col {
					t.Errorf("set %q first column = %q, want %q", name, tbl.Columns[0], col)
				}
				if tbl.Name != name {
					t.Errorf("set %q Name = %q", name, tbl.Name)
				}
			}
		})
	}
}
