package commandset

import (
	"errors"
	"strings"
	"testing"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

func TestParseFiltersCommentsAndBlanks(t *testing.T) {
	input := strings.Join([]string{
		"# audit commands",
		"show version",
		"",
		"! legacy comment style",
		"  show ip interface brief",
		"   ",
		"show running-config",
	}, "\n")

	got, err := Parse(strings.NewReader(input), DefaultMarkers)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"show version", "  show ip interface brief", "show running-config"}
	if len(got) != len(want) {
		t.Fatalf("got %d commands %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseOrderPreserved(t *testing.T) {
	input := "cmd-c\ncmd-a\ncmd-b\ncmd-a\n"
	got, err := Parse(strings.NewReader(input), DefaultMarkers)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"cmd-c", "cmd-a", "cmd-b", "cmd-a"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v (no dedup, no reorder)", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseIdempotent(t *testing.T) {
	input := "# c\nshow version\n\n! x\nshow clock\n"
	first, err := Parse(strings.NewReader(input), DefaultMarkers)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(strings.NewReader(input), DefaultMarkers)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("repeated parses differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("command %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestParseCustomMarkers(t *testing.T) {
	input := "; skipped\nshow version\n"
	got, err := Parse(strings.NewReader(input), ";")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got) != 1 || got[0] != "show version" {
		t.Errorf("got %v, want [show version]", got)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "# only comments\n! more\n"} {
		_, err := Parse(strings.NewReader(input), DefaultMarkers)
		if !errors.Is(err, util.ErrEmptyCommandSet) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyCommandSet", input, err)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("show"); err != nil || m != ModeShow {
		t.Errorf("ParseMode(show) = %v, %v", m, err)
	}
	if m, err := ParseMode("config"); err != nil || m != ModeConfig {
		t.Errorf("ParseMode(config) = %v, %v", m, err)
	}
	if _, err := ParseMode("audit"); !errors.Is(err, util.ErrInput) {
		t.Errorf("ParseMode(audit) error = %v, want ErrInput", err)
	}
}
