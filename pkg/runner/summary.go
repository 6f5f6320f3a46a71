package runner

import (
	"sync"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/inventory"
	"github.com/fleetcmd/fleetcmd/pkg/transcript"
	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// DeviceResult is one device's outcome in the run summary.
type DeviceResult struct {
	Hostname string
	Host     string
	Status   transcript.Status
	Reason   string // failure reason label, empty on success
	Artifact string // transcript path, empty if never written
	Elapsed  time.Duration
}

// DeviceFailure identifies a failed device for end-of-run reporting.
type DeviceFailure struct {
	Hostname string
	Host     string
	Reason   string
}

// Summary aggregates per-device outcomes. It is the one piece of
// mutable state shared across workers; all updates go through its
// mutex as sessions complete.
type Summary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    []DeviceFailure
	Results   []DeviceResult
	Elapsed   time.Duration

	mu sync.Mutex
}

func newSummary(runID string, total int) *Summary {
	return &Summary{RunID: runID, Total: total}
}

func (s *Summary) record(rec inventory.Record, tr *transcript.Transcript, artifact string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := DeviceResult{
		Hostname: rec.Label(),
		Host:     rec.Host,
		Status:   tr.Status,
		Reason:   tr.Reason,
		Artifact: artifact,
		Elapsed:  tr.Elapsed(),
	}
	s.Results = append(s.Results, result)

	if tr.Status == transcript.StatusSucceeded {
		s.Succeeded++
	} else {
		s.Failed = append(s.Failed, DeviceFailure{Hostname: rec.Label(), Host: rec.Host, Reason: tr.Reason})
	}
}

// recordSkipped accounts for a device whose session never started
// because cancellation was observed first.
func (s *Summary) recordSkipped(rec inventory.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Results = append(s.Results, DeviceResult{
		Hostname: rec.Label(),
		Host:     rec.Host,
		Status:   transcript.StatusFailed,
		Reason:   util.ReasonCanceled,
	})
	s.Failed = append(s.Failed, DeviceFailure{Hostname: rec.Label(), Host: rec.Host, Reason: util.ReasonCanceled})
}

// recordWriteFailure accounts for a session whose transcript could not
// be persisted. The session outcome is preserved in the reason when it
// failed too; otherwise the artifact loss itself is the failure.
func (s *Summary) recordWriteFailure(rec inventory.Record, tr *transcript.Transcript, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reason := tr.Reason
	if reason == "" {
		reason = util.ReasonWrite
	}
	s.Results = append(s.Results, DeviceResult{
		Hostname: rec.Label(),
		Host:     rec.Host,
		Status:   transcript.StatusFailed,
		Reason:   reason,
		Elapsed:  tr.Elapsed(),
	})
	s.Failed = append(s.Failed, DeviceFailure{Hostname: rec.Label(), Host: rec.Host, Reason: reason})
}

func (s *Summary) finish(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Elapsed = elapsed
}
