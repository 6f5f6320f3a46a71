// Package util provides shared logging helpers and the error taxonomy
// used across the run pipeline.
package util

import (
	"errors"
	"fmt"
)

// Sentinel errors for run and per-device failures. Per-device errors are
// converted to a terminal session outcome and never abort the run; input
// errors abort before any connection is attempted.
var (
	ErrConnect         = errors.New("connection failed")
	ErrAuth            = errors.New("authentication rejected")
	ErrModeEntry       = errors.New("mode entry rejected")
	ErrTransport       = errors.New("transport failed")
	ErrTimeout         = errors.New("operation timed out")
	ErrCanceled        = errors.New("run canceled")
	ErrInput           = errors.New("invalid input")
	ErrEmptyCommandSet = errors.New("command set is empty")
)

// Failure reason labels as they appear in transcripts and summaries.
const (
	ReasonConnect   = "ConnectError"
	ReasonAuth      = "AuthError"
	ReasonModeEntry = "ModeEntryError"
	ReasonTransport = "TransportError"
	ReasonTimeout   = "Timeout"
	ReasonCanceled  = "Canceled"
	ReasonWrite     = "WriteError"
)

// Reason maps an error to its failure reason label. Unclassified errors
// are reported as transport failures: once the channel misbehaves in a
// way the taxonomy does not name, nothing further is recoverable.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrConnect):
		return ReasonConnect
	case errors.Is(err, ErrAuth):
		return ReasonAuth
	case errors.Is(err, ErrModeEntry):
		return ReasonModeEntry
	case errors.Is(err, ErrTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrCanceled):
		return ReasonCanceled
	default:
		return ReasonTransport
	}
}

// DeviceError carries device context for a per-session failure.
type DeviceError struct {
	Hostname string
	Host     string
	Stage    string
	Err      error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s (%s) during %s: %v", e.Hostname, e.Host, e.Stage, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError wraps err with device and state-machine context.
func NewDeviceError(hostname, host, stage string, err error) *DeviceError {
	return &DeviceError{Hostname: hostname, Host: host, Stage: stage, Err: err}
}

// RowError reports a malformed inventory row. Row numbers are 1-based
// file line numbers, counting the header line.
type RowError struct {
	Row    int
	Field  string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Reason)
}

func (e *RowError) Unwrap() error {
	return ErrInput
}

// NewRowError creates a row-level inventory error.
func NewRowError(row int, field, reason string) *RowError {
	return &RowError{Row: row, Field: field, Reason: reason}
}
