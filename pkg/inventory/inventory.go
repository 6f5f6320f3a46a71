// Package inventory loads and validates the device table for a run.
// Records are constructed once, immutable thereafter, and handed to
// exactly one device session each.
package inventory

import (
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/fleetcmd/fleetcmd/pkg/util"
)

// DefaultPort is the SSH port used when the inventory and run defaults
// leave port unset.
const DefaultPort = 22

// Record holds one device's validated connection parameters.
type Record struct {
	Hostname     string `csv:"hostname"`
	DeviceFamily string `csv:"device_family"`
	Host         string `csv:"host"`
	Username     string `csv:"username"`
	Password     string `csv:"password"`
	Secret       string `csv:"secret"`
	Port         int    `csv:"port"`
}

// Label returns the display name for the device: hostname when present,
// otherwise the host address.
func (r Record) Label() string {
	if r.Hostname != "" {
		return r.Hostname
	}
	return r.Host
}

// Addr returns the host:port dial target.
func (r Record) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Defaults are run-level fallbacks applied to rows that leave the
// corresponding column empty. How they are obtained (prompt, config
// file, environment) is the caller's concern.
type Defaults struct {
	Username     string
	Password     string
	Secret       string
	DeviceFamily string
	Port         int
}

// Load reads the inventory CSV at path, applies defaults, and validates
// each row. A row missing host, or missing device_family with no default,
// is a row-level error that aborts the load; rows are never silently
// skipped.
func Load(path string, defaults Defaults) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInput, err)
	}
	defer f.Close()

	var records []Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", util.ErrInput, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no devices found in %s", util.ErrInput, path)
	}

	for i := range records {
		// Row 1 is the header line.
		if err := normalize(&records[i], defaults, i+2); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return records, nil
}

func normalize(r *Record, defaults Defaults, row int) error {
	r.Hostname = strings.TrimSpace(r.Hostname)
	r.DeviceFamily = strings.TrimSpace(r.DeviceFamily)
	r.Host = strings.TrimSpace(r.Host)
	r.Username = strings.TrimSpace(r.Username)

	if r.Host == "" {
		return util.NewRowError(row, "host", "missing value")
	}

	if r.DeviceFamily == "" {
		r.DeviceFamily = defaults.DeviceFamily
	}
	if r.DeviceFamily == "" {
		return util.NewRowError(row, "device_family", "missing value and no run-level default")
	}

	if r.Username == "" {
		r.Username = defaults.Username
	}
	if r.Password == "" {
		r.Password = defaults.Password
	}
	if r.Secret == "" {
		r.Secret = defaults.Secret
	}

	if r.Port == 0 {
		r.Port = defaults.Port
	}
	if r.Port == 0 {
		r.Port = DefaultPort
	}
	if r.Port < 0 || r.Port > 65535 {
		return util.NewRowError(row, "port", fmt.Sprintf("out of range: %d", r.Port))
	}
	return nil
}
