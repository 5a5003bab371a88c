package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindCodes(t *testing.T) {
	tests := []struct {
		kind        Kind
		wantCode    int
		wantMessage string
	}{
		{GlobalError, -1, "Global error"},
		{InvalidInput, 401, "Invalid Input"},
		{DataAccessFailure, 402, "DB access failure"},
		{LogAccessFailure, 403, "Log access failure"},
		{NoDataFound, 404, "No Data found"},
		{DeviceUnavailable, 405, "Unknown Printer"},
		{ConversionFailure, 406, "Failed to print"},
		{ReportNotConfigured, 407, "Report not configured"},
		{RenderError, 408, "Failed to render report"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Code(); got != tt.wantCode {
				t.Errorf("Code() = %d, want %d", got, tt.wantCode)
			}
			if got := tt.kind.Message(); got != tt.wantMessage {
				t.Errorf("Message() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnknownKindFallsBackToGlobal(t *testing.T) {
	k := Kind(99)
	if got := k.Code(); got != -1 {
		t.Errorf("Code() = %d, want -1", got)
	}
}

func TestNormalize(t *testing.T) {
	sentinel := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantNil  bool
	}{
		{name: "nil", err: nil, wantNil: true},
		{name: "foreign error becomes global", err: sentinel, wantKind: GlobalError},
		{name: "taxonomy error kept", err: NewError(NoDataFound, "x"), wantKind: NoDataFound},
		{name: "wrapped taxonomy error kept", err: fmt.Errorf("bind: %w", NewError(InvalidInput, "x")), wantKind: InvalidInput},
		{name: "wrap keeps first kind", err: Wrap(RenderError, NewError(DataAccessFailure, "x")), wantKind: DataAccessFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Normalize() = %v, want nil", got)
				}
				return
			}
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
		})
	}
}

func TestErrorfKeepsCause(t *testing.T) {
	cause := errors.New("timeout")
	err := Errorf(DataAccessFailure, "fetch %s: %w", "rows", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got, want := err.Error(), "DB access failure: fetch rows: timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !IsKind(err, DataAccessFailure) {
		t.Error("IsKind(DataAccessFailure) = false, want true")
	}
}

func TestErrorfKeepsEveryCause(t *testing.T) {
	first := errors.New("timeout")
	second := errors.New("pool closed")
	err := Errorf(DataAccessFailure, "fetch: %w; close: %w", first, second)

	for _, cause := range []error{first, second} {
		if !errors.Is(err, cause) {
			t.Errorf("errors.Is(err, %q) = false, want true", cause)
		}
	}

	plain := Errorf(InvalidInput, "bad %s", "value")
	if plain.Err != nil {
		t.Errorf("Err = %v, want nil without %%w", plain.Err)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(GlobalError, nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}
