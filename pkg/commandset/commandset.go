// Package commandset loads the ordered list of commands applied to every
// device in a run. The same line-oriented format serves both show and
// config mode; only the device session's mode handling differs.
package commandset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// Mode selects how a device session treats the command set.
type Mode string

const (
	// ModeShow runs read-only commands at the exec prompt.
	ModeShow Mode = "show"
	// ModeConfig enters the configuration context before running commands.
	ModeConfig Mode = "config"
)

// ParseMode validates a mode string from the CLI or a config file.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeShow, ModeConfig:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q (use %q or %q)", util.ErrInput, s, ModeShow, ModeConfig)
	}
}

// DefaultMarkers are the comment-leader characters dropped during parsing.
const DefaultMarkers = "#!"

// Parse reads commands from r, dropping blank lines and lines whose first
// non-whitespace character is one of markers. Order is preserved exactly;
// nothing is deduplicated and no syntax is validated. An empty result is
// an error: a run with no commands is a pre-flight failure.
func Parse(r io.Reader, markers string) ([]string, error) {
	if markers == "" {
		markers = DefaultMarkers
	}

	var commands []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.ContainsRune(markers, rune(trimmed[0])) {
			continue
		}
		commands = append(commands, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading commands: %v", util.ErrInput, err)
	}

	if len(commands) == 0 {
		return nil, util.ErrEmptyCommandSet
	}
	return commands, nil
}

// Load parses commands from a file.
func Load(path, markers string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInput, err)
	}
	defer f.Close()

	commands, err := Parse(f, markers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return commands, nil
}
