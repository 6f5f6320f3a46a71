// Package transcript holds the durable record of one device session and
// writes it to a per-device log artifact.
package transcript

import (
	"time"
)

// Status is the terminal outcome of a device session.
type Status string

const (
	StatusSucceeded Status = "Succeeded"
	StatusFailed    Status = "Failed"
)

// Entry is one executed command and its captured output, in execution order.
type Entry struct {
	Command string
	Output  string
}

// Transcript is the durable output of one device session. It is built by
// the session that owns it and immutable once the session reaches a
// terminal state.
type Transcript struct {
	Hostname     string
	Host         string
	DeviceFamily string
	Mode         string
	Start        time.Time
	End          time.Time
	Entries      []Entry
	Status       Status
	Reason       string // failure reason label, empty on success
	Detail       string // underlying error text, empty on success
}

// Elapsed returns the session duration.
func (t *Transcript) Elapsed() time.Duration {
	return t.End.Sub(t.Start)
}
