package util

import (
	"errors"
	"fmt"
	"testing"
)

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrConnect, ReasonConnect},
		{ErrAuth, ReasonAuth},
		{ErrModeEntry, ReasonModeEntry},
		{ErrTimeout, ReasonTimeout},
		{ErrCanceled, ReasonCanceled},
		{ErrTransport, ReasonTransport},
		{errors.New("something else"), ReasonTransport},
		{fmt.Errorf("dial 10.0.0.1:22: %w", ErrConnect), ReasonConnect},
		{NewDeviceError("sw1", "10.0.0.1", "Authenticating", ErrAuth), ReasonAuth},
	}

	for _, tt := range tests {
		if got := Reason(tt.err); got != tt.want {
			t.Errorf("Reason(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestDeviceErrorUnwrap(t *testing.T) {
	err := NewDeviceError("core-1", "192.0.2.10", "Connecting", ErrTimeout)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("DeviceError should unwrap to ErrTimeout")
	}
	want := "core-1 (192.0.2.10) during Connecting: operation timed out"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestRowError(t *testing.T) {
	err := NewRowError(3, "host", "missing value")
	if !errors.Is(err, ErrInput) {
		t.Errorf("RowError should unwrap to ErrInput")
	}
	if err.Error() != "row 3: host: missing value" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
