package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// Dialect captures how one device family's CLI behaves: what its prompt
// looks like, how to raise privilege, and how to enter and leave the
// configuration context. The set is closed; unknown families fall back
// to generic best-effort behavior rather than failing.
type Dialect struct {
	Name string

	// Prompt matches the tail of buffered output once the device is
	// ready for the next command.
	Prompt *regexp.Regexp

	// PasswordPrompt matches the device asking for the enable secret.
	// Nil for families without privilege escalation.
	PasswordPrompt *regexp.Regexp

	// EnableCommand raises privilege before entering config context.
	EnableCommand string

	// DisablePaging is sent once after login so long output is not
	// chunked behind --More-- prompts. Empty when not needed.
	DisablePaging string

	ConfigEnter []string
	ConfigExit  []string

	// Save persists the running configuration, per family convention.
	Save []string

	enableWait *regexp.Regexp
}

// cliError matches device-side rejection of a context switch. Ordinary
// command errors are captured as output, not matched against this.
var cliError = regexp.MustCompile(`(?im)^%\s|invalid input|incomplete command|syntax error|permission denied|access denied|unknown command`)

// EnterMode raises privilege (when the family supports it and a secret
// is available) and enters the configuration context.
func (d *Dialect) EnterMode(t Transport, secret string, timeout time.Duration) error {
	if d.EnableCommand != "" && secret != "" {
		if err := t.Send(d.EnableCommand); err != nil {
			return err
		}
		out, err := t.ReadUntil(d.enableWait, timeout)
		if err != nil {
			return err
		}
		if d.PasswordPrompt != nil && d.PasswordPrompt.MatchString(out) {
			if err := t.Send(secret); err != nil {
				return err
			}
			out, err = t.ReadUntil(d.Prompt, timeout)
			if err != nil {
				// No privileged prompt after the secret: rejected.
				return fmt.Errorf("%w: enable secret not accepted: %v", util.ErrModeEntry, err)
			}
		}
		if cliError.MatchString(out) {
			return fmt.Errorf("%w: privilege escalation rejected", util.ErrModeEntry)
		}
	}

	for _, cmd := range d.ConfigEnter {
		if err := t.Send(cmd); err != nil {
			return err
		}
		out, err := t.ReadUntil(d.Prompt, timeout)
		if err != nil {
			return err
		}
		if cliError.MatchString(out) {
			return fmt.Errorf("%w: %q rejected", util.ErrModeEntry, cmd)
		}
	}
	return nil
}

// ExitMode leaves the configuration context and, when save is set and
// the family defines one, persists the running configuration.
func (d *Dialect) ExitMode(t Transport, save bool, timeout time.Duration) error {
	for _, cmd := range d.ConfigExit {
		if err := t.Send(cmd); err != nil {
			return err
		}
		if _, err := t.ReadUntil(d.Prompt, timeout); err != nil {
			return err
		}
	}
	if save {
		for _, cmd := range d.Save {
			if err := t.Send(cmd); err != nil {
				return err
			}
			if _, err := t.ReadUntil(d.Prompt, timeout); err != nil {
				return err
			}
		}
	}
	return nil
}

var (
	// iosPrompt covers IOS-style exec and config prompts, e.g.
	// "core-sw-1>", "core-sw-1#", "core-sw-1(config)#".
	iosPrompt      = regexp.MustCompile(`[\w.@/:+()-]+[>#]\s*$`)
	junosPrompt    = regexp.MustCompile(`[\w.@-]+[>#%]\s*$`)
	shellPrompt    = regexp.MustCompile(`[$#%>]\s*$`)
	passwordPrompt = regexp.MustCompile(`(?i)password:?\s*$`)
)

// families is the closed dialect set, keyed by the device_family values
// the inventory carries.
var families = map[string]*Dialect{
	"cisco_ios": {
		Name:           "cisco_ios",
		Prompt:         iosPrompt,
		PasswordPrompt: passwordPrompt,
		EnableCommand:  "enable",
		DisablePaging:  "terminal length 0",
		ConfigEnter:    []string{"configure terminal"},
		ConfigExit:     []string{"end"},
		Save:           []string{"write memory"},
	},
	"cisco_nxos": {
		Name:           "cisco_nxos",
		Prompt:         iosPrompt,
		PasswordPrompt: passwordPrompt,
		EnableCommand:  "enable",
		DisablePaging:  "terminal length 0",
		ConfigEnter:    []string{"configure terminal"},
		ConfigExit:     []string{"end"},
		Save:           []string{"copy running-config startup-config"},
	},
	"arista_eos": {
		Name:           "arista_eos",
		Prompt:         iosPrompt,
		PasswordPrompt: passwordPrompt,
		EnableCommand:  "enable",
		DisablePaging:  "terminal length 0",
		ConfigEnter:    []string{"configure terminal"},
		ConfigExit:     []string{"end"},
		Save:           []string{"write memory"},
	},
	"juniper_junos": {
		Name:          "juniper_junos",
		Prompt:        junosPrompt,
		DisablePaging: "set cli screen-length 0",
		ConfigEnter:   []string{"configure"},
		ConfigExit:    []string{"exit configuration-mode"},
		Save:          []string{"commit"},
	},
	"hp_procurve": {
		Name:           "hp_procurve",
		Prompt:         iosPrompt,
		PasswordPrompt: passwordPrompt,
		EnableCommand:  "enable",
		DisablePaging:  "no page",
		ConfigEnter:    []string{"configure"},
		ConfigExit:     []string{"exit"},
		Save:           []string{"write memory"},
	},
	"dell_os10": {
		Name:          "dell_os10",
		Prompt:        iosPrompt,
		DisablePaging: "terminal length 0",
		ConfigEnter:   []string{"configure terminal"},
		ConfigExit:    []string{"end"},
		Save:          []string{"copy running-configuration startup-configuration"},
	},
	"fortinet": {
		Name:   "fortinet",
		Prompt: shellPrompt,
	},
	"paloalto_panos": {
		Name:          "paloalto_panos",
		Prompt:        junosPrompt,
		DisablePaging: "set cli pager off",
		ConfigEnter:   []string{"configure"},
		ConfigExit:    []string{"exit"},
		Save:          []string{"commit"},
	},
	"linux": {
		Name:   "linux",
		Prompt: shellPrompt,
	},
	"generic": {
		Name:   "generic",
		Prompt: shellPrompt,
	},
}

func init() {
	for _, d := range families {
		if d.PasswordPrompt != nil {
			d.enableWait = regexp.MustCompile("(?:" + d.Prompt.String() + ")|(?:" + d.PasswordPrompt.String() + ")")
		} else {
			d.enableWait = d.Prompt
		}
	}
}

// Lookup returns the dialect for a device family. Unknown families map
// to generic, never an error.
func Lookup(family string) *Dialect {
	if d, ok := families[strings.ToLower(strings.TrimSpace(family))]; ok {
		return d
	}
	return families["generic"]
}
