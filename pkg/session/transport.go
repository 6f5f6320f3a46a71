package session

import (
	"context"
	"regexp"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/inventory"
)

// Transport is one interactive channel to a device CLI. Device CLIs do
// not pipeline, so callers alternate Send and ReadUntil strictly.
type Transport interface {
	// Send writes one line to the device.
	Send(line string) error

	// ReadUntil accumulates device output until pattern matches the
	// buffered tail or timeout expires. It returns whatever arrived in
	// either case; on timeout or channel loss the partial output comes
	// back alongside the error.
	ReadUntil(pattern *regexp.Regexp, timeout time.Duration) (string, error)

	// Close releases the channel. Safe to call more than once.
	Close() error
}

// Dialer opens a transport to one device. Implementations classify
// failures with the util sentinels: ErrConnect for unreachable or
// refused targets, ErrAuth for rejected credentials.
type Dialer interface {
	Dial(ctx context.Context, rec inventory.Record) (Transport, error)
}
