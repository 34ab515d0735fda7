package output

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitError(t *testing.T) {
	cause := errors.New("connection refused")

	tests := []struct {
		name         string
		err          *ExitError
		wantCode     int
		wantErrorStr string
	}{
		{
			name:         "user error",
			err:          NewUserError("query is required"),
			wantCode:     ExitUserError,
			wantErrorStr: "query is required",
		},
		{
			name:         "system error",
			err:          NewSystemError("settings file unreadable"),
			wantCode:     ExitSystemError,
			wantErrorStr: "settings file unreadable",
		},
		{
			name:         "system error with cause",
			err:          NewSystemErrorWithCause("request failed", cause),
			wantCode:     ExitSystemError,
			wantErrorStr: "request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", tt.err.Code, tt.wantCode)
			}
			if tt.err.Error() != tt.wantErrorStr {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantErrorStr)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	cause := errors.New("root")
	err := NewSystemErrorWithCause("wrapped", cause)
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"user error", NewUserError("bad"), ExitUserError},
		{"system error", NewSystemError("down"), ExitSystemError},
		{"wrapped system error", fmt.Errorf("ctx: %w", NewSystemError("down")), ExitSystemError},
		{"plain error", errors.New("plain"), ExitUserError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.want {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
