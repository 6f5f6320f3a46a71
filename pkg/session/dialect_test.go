package session

import (
	"testing"
)

func TestLookupKnownFamilies(t *testing.T) {
	for _, family := range []string{
		"cisco_ios", "cisco_nxos", "arista_eos", "juniper_junos",
		"hp_procurve", "dell_os10", "fortinet", "paloalto_panos",
		"linux", "generic",
	} {
		d := Lookup(family)
		if d.Name != family {
			t.Errorf("Lookup(%q).Name = %q", family, d.Name)
		}
		if d.Prompt == nil {
			t.Errorf("Lookup(%q) has no prompt pattern", family)
		}
	}
}

func TestLookupFallback(t *testing.T) {
	for _, family := range []string{"", "vyos", "something_new", "CISCO_IOS "} {
		d := Lookup(family)
		if d == nil {
			t.Fatalf("Lookup(%q) returned nil", family)
		}
	}
	if Lookup("no_such_family").Name != "generic" {
		t.Errorf("unknown family should map to generic")
	}
	// Lookup is case- and whitespace-tolerant.
	if Lookup(" Cisco_IOS ").Name != "cisco_ios" {
		t.Errorf("Lookup should normalize family names")
	}
}

func TestPromptPatterns(t *testing.T) {
	tests := []struct {
		family string
		tail   string
		match  bool
	}{
		{"cisco_ios", "core-sw-1>", true},
		{"cisco_ios", "core-sw-1# ", true},
		{"cisco_ios", "core-sw-1(config)# ", true},
		{"cisco_ios", "...show version output...", false},
		{"juniper_junos", "admin@edge-r1> ", true},
		{"juniper_junos", "admin@edge-r1# ", true},
		{"linux", "user@box:~$ ", true},
		{"generic", "anything% ", true},
	}
	for _, tt := range tests {
		d := Lookup(tt.family)
		if got := d.Prompt.MatchString(tt.tail); got != tt.match {
			t.Errorf("%s prompt match %q = %v, want %v", tt.family, tt.tail, got, tt.match)
		}
	}
}

func TestCLIErrorPattern(t *testing.T) {
	rejected := []string{
		"% Invalid input detected at '^' marker.",
		"% Incomplete command.",
		"syntax error, expecting <command>",
		"Permission denied",
	}
	for _, out := range rejected {
		if !cliError.MatchString(out) {
			t.Errorf("cliError should match %q", out)
		}
	}
	if cliError.MatchString("Interface Ethernet0 is up, 100% utilized") {
		t.Errorf("cliError must not match ordinary output with a mid-line percent sign")
	}
}
