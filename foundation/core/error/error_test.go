// File: error_test.go
// Title: Error Module Tests
// Description: Tests for error creation, wrapping, codes, severity and
//              transport status mapping.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with comprehensive test coverage
// - 2026-10-17 v0.2.0: Coverage for analysis codes and errors.As lookups

package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

type positionError struct {
	pos int
}

func (e *positionError) Error() string {
	return fmt.Sprintf("bad character at %d", e.pos)
}

func TestNew(t *testing.T) {
	msg := "test error message"
	err := New(msg)

	if err.Error() != msg {
		t.Errorf("Error() = %q, want %q", err.Error(), msg)
	}
	if err.Code() != CodeUnknown {
		t.Errorf("Code() = %v, want %v", err.Code(), CodeUnknown)
	}
	if err.Severity() != SeverityMedium {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityMedium)
	}
	if err.Timestamp().IsZero() {
		t.Error("Timestamp() should not be zero")
	}
	if len(err.StackTrace()) == 0 {
		t.Error("StackTrace() should not be empty")
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		wantNil  bool
		wantMsg  string
		wantCode Code
	}{
		{
			name:    "wrap nil error",
			err:     nil,
			message: "wrapper message",
			wantNil: true,
		},
		{
			name:     "wrap standard error",
			err:      errors.New("original error"),
			message:  "wrapper message",
			wantMsg:  "wrapper message: original error",
			wantCode: CodeUnknown,
		},
		{
			name:     "wrap structured error inherits code",
			err:      New("original").WithCode(CodeDatabaseError),
			message:  "wrapper message",
			wantMsg:  "wrapper message: original",
			wantCode: CodeDatabaseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Wrap() = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.wantMsg)
			}
			if got.Code() != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got.Code(), tt.wantCode)
			}
			if !errors.Is(got, tt.err) {
				t.Error("wrapped error should match its cause with errors.Is")
			}
		})
	}
}

func TestWrap_KeepsTypedCauseReachable(t *testing.T) {
	cause := &positionError{pos: 2}
	err := Wrap(cause, "analysis rejected").WithCode(CodeLexical)

	var target *positionError
	if !errors.As(err, &target) {
		t.Fatal("errors.As should find the typed cause")
	}
	if target.pos != 2 {
		t.Errorf("pos = %d, want 2", target.pos)
	}
	if !HasCode(fmt.Errorf("outer: %w", err), CodeLexical) {
		t.Error("HasCode should look through fmt wrapping")
	}
}

func TestWithCode_DerivesSeverity(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodeSyntax, SeverityLow},
		{CodeLexical, SeverityLow},
		{CodeDatabaseError, SeverityHigh},
		{CodeInternal, SeverityCritical},
		{CodeTimeout, SeverityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := New("x").WithCode(tt.code)
			if err.Severity() != tt.want {
				t.Errorf("Severity() = %v, want %v", err.Severity(), tt.want)
			}
		})
	}

	explicit := New("x").WithSeverity(SeverityCritical).WithCode(CodeSyntax)
	if explicit.Severity() != SeverityCritical {
		t.Errorf("explicit severity overwritten: %v", explicit.Severity())
	}
}

func TestCode_Mappings(t *testing.T) {
	tests := []struct {
		code      Code
		http      int
		grpc      codes.Code
		rejection bool
	}{
		{CodeLexical, http.StatusUnprocessableEntity, codes.InvalidArgument, true},
		{CodeSyntax, http.StatusUnprocessableEntity, codes.InvalidArgument, true},
		{CodeTrailingInput, http.StatusUnprocessableEntity, codes.InvalidArgument, true},
		{CodeInputTooLong, http.StatusRequestEntityTooLarge, codes.ResourceExhausted, true},
		{CodeNotFound, http.StatusNotFound, codes.NotFound, false},
		{CodeDatabaseError, http.StatusServiceUnavailable, codes.Unavailable, false},
		{CodeUnknown, http.StatusInternalServerError, codes.Internal, false},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.http {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.http)
			}
			if got := tt.code.GRPCCode(); got != tt.grpc {
				t.Errorf("GRPCCode() = %v, want %v", got, tt.grpc)
			}
			if got := tt.code.IsRejection(); got != tt.rejection {
				t.Errorf("IsRejection() = %v, want %v", got, tt.rejection)
			}
			if !tt.code.IsValid() {
				t.Errorf("IsValid() = false for %s", tt.code)
			}
		})
	}

	if Code("NOPE").IsValid() {
		t.Error("unknown code reported as valid")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := Wrap(errors.New("boom"), "analysis failed").
		WithCode(CodeSyntax).
		WithDetail("input", "3 +").
		WithOperation("service.Analyze").
		WithRequestID("req-1")

	data, jsonErr := json.Marshal(err)
	if jsonErr != nil {
		t.Fatalf("json.Marshal() error = %v", jsonErr)
	}

	var decoded map[string]interface{}
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		t.Fatalf("json.Unmarshal() error = %v", jsonErr)
	}

	want := map[string]string{
		"code":       "SYNTAX",
		"severity":   "low",
		"operation":  "service.Analyze",
		"request_id": "req-1",
		"cause":      "boom",
	}
	for k, v := range want {
		if decoded[k] != v {
			t.Errorf("%s = %v, want %v", k, decoded[k], v)
		}
	}
}

func TestGetSeverity_PlainError(t *testing.T) {
	if got := GetSeverity(errors.New("plain")); got != SeverityMedium {
		t.Errorf("GetSeverity() = %v, want %v", got, SeverityMedium)
	}
	if got := GetCode(errors.New("plain")); got != CodeUnknown {
		t.Errorf("GetCode() = %v, want %v", got, CodeUnknown)
	}
}
