package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParamsUnmarshalKeepsOrder(t *testing.T) {
	var p Params
	data := `{"ToDate":"2024-01-31","FromDate":"2024-01-01","GushState":0,"Rate":1.5,"Flag":true,"Empty":null}`
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := []string{"ToDate", "FromDate", "GushState", "Rate", "Flag", "Empty"}
	if got := p.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	if v, _ := p.Get("GushState"); v != int64(0) {
		t.Errorf("GushState = %#v, want int64(0)", v)
	}
	if v, _ := p.Get("Rate"); v != 1.5 {
		t.Errorf("Rate = %#v, want 1.5", v)
	}
	if got := p.String("GushState"); got != "0" {
		t.Errorf("String(GushState) = %q, want %q", got, "0")
	}
	if p.Has("Empty") {
		t.Error("Has(Empty) = true, want false")
	}
}

func TestParamsUnmarshalRejectsNested(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"object value", `{"a":{"b":1}}`},
		{"array value", `{"a":[1,2]}`},
		{"not an object", `[1,2]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Params
			if err := json.Unmarshal([]byte(tt.data), &p); err == nil {
				t.Error("Unmarshal() error = nil, want error")
			}
		})
	}
}

func TestParamsMarshalRoundTripOrder(t *testing.T) {
	p := NewParams("b", "2", "a", int64(1))
	got, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"b":"2","a":1}`; string(got) != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

func TestParamsWithWithout(t *testing.T) {
	base := NewParams("ConsignmentID", "10,20", "GroupBy", "גוש")

	with := base.With("ConsignmentID", "10")
	if got := with.String("ConsignmentID"); got != "10" {
		t.Errorf("With: ConsignmentID = %q, want %q", got, "10")
	}
	if got := base.String("ConsignmentID"); got != "10,20" {
		t.Errorf("With modified the receiver: ConsignmentID = %q", got)
	}
	if got := with.Keys(); got[0] != "ConsignmentID" {
		t.Errorf("With moved an existing key: %v", got)
	}

	without := base.Without("GroupBy")
	if without.Len() != 1 || without.Has("GroupBy") {
		t.Errorf("Without(GroupBy) = %v", without.Keys())
	}
	if base.Len() != 2 {
		t.Error("Without modified the receiver")
	}
}

func TestParamsSummaryRedacts(t *testing.T) {
	p := NewParams("FromDate", "2024-01-01", "DbPassword", "hunter2")
	got := p.Summary(RedactKey)
	if want := "FromDate=2024-01-01, DbPassword=***"; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestFetchParams(t *testing.T) {
	req := &Request{
		ManifestID: "M1",
		Parameters: NewParams("FromDate", "2024-01-01", "GroupBy", "גוש", "Internal", "x"),
	}
	schema := Schema{Remove: []string{"Internal"}, InjectManifest: true}

	got := FetchParams(schema, req)

	want := []string{"FromDate", "ManifestID"}
	if !reflect.DeepEqual(got.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", got.Keys(), want)
	}
	if got.String("ManifestID") != "M1" {
		t.Errorf("ManifestID = %q, want M1", got.String("ManifestID"))
	}
}
