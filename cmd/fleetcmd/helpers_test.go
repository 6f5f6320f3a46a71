package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/runner"
	"github.com/fleetcmd/fleetcmd/pkg/transcript"
)

func TestRunExitError(t *testing.T) {
	tests := []struct {
		failOn  bool
		failed  int
		wantErr bool
	}{
		{false, 0, false},
		{false, 3, false}, // default: device failures do not flip the exit code
		{true, 0, false},
		{true, 1, true},
	}
	for _, tt := range tests {
		err := runExitError(tt.failOn, tt.failed)
		if (err != nil) != tt.wantErr {
			t.Errorf("runExitError(%v, %d) = %v, wantErr %v", tt.failOn, tt.failed, err, tt.wantErr)
		}
	}
}

func TestPrintSummary(t *testing.T) {
	s := &runner.Summary{
		RunID:     "0d06ee7c-aaaa-bbbb-cccc-000000000001",
		Total:     3,
		Succeeded: 2,
		Failed: []runner.DeviceFailure{
			{Hostname: "edge-r3", Host: "10.0.0.3", Reason: "ConnectError"},
		},
		Results: []runner.DeviceResult{
			{Hostname: "sw1", Host: "10.0.0.1", Status: transcript.StatusSucceeded, Artifact: "outputs/sw1_10.0.0.1_01-02-2026__10-00-00.log"},
			{Hostname: "sw2", Host: "10.0.0.2", Status: transcript.StatusSucceeded, Artifact: "outputs/sw2_10.0.0.2_01-02-2026__10-00-00.log"},
			{Hostname: "edge-r3", Host: "10.0.0.3", Status: transcript.StatusFailed, Reason: "ConnectError"},
		},
		Elapsed: 4200 * time.Millisecond,
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	if !strings.Contains(out, "3 devices, 2 succeeded, 1 failed") {
		t.Errorf("summary line missing:\n%s", out)
	}
	if !strings.Contains(out, "edge-r3") || !strings.Contains(out, "ConnectError") {
		t.Errorf("failure table missing:\n%s", out)
	}
	if !strings.Contains(out, "sw1_10.0.0.1") || !strings.Contains(out, "sw2_10.0.0.2") {
		t.Errorf("artifact list missing:\n%s", out)
	}
}
