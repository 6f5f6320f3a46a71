package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// timestampLayout is the session start time as it appears in filenames.
const timestampLayout = "01-02-2006__15-04-05"

var unsafeChars = regexp.MustCompile(`[\\/<>:"|?*]`)

// Sanitize makes a hostname safe for use in a filename: path-hostile
// characters become dashes, whitespace runs become single underscores.
func Sanitize(name string) string {
	if name == "" {
		return "unknown"
	}
	v := strings.Join(strings.Fields(name), " ")
	v = unsafeChars.ReplaceAllString(v, "-")
	return strings.ReplaceAll(v, " ", "_")
}

// Writer persists transcripts under a single output directory with a
// deterministic naming scheme. Two sessions in the same run that would
// collide on a name (same hostname, host, and second) get a
// disambiguating suffix instead of overwriting each other. Safe for
// concurrent use by the coordinator's workers.
type Writer struct {
	dir string

	mu   sync.Mutex
	used map[string]int
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir, used: make(map[string]int)}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Write serializes t to its log file and returns the artifact path.
func (w *Writer) Write(t *Transcript) (string, error) {
	path := w.reserve(t)
	if err := os.WriteFile(path, []byte(Render(t)), 0644); err != nil {
		return "", fmt.Errorf("write transcript for %s: %w", t.Hostname, err)
	}
	return path, nil
}

// reserve picks the first unused filename for t, applying _1, _2, ...
// suffixes on collision within this run or with files already on disk.
func (w *Writer) reserve(t *Transcript) string {
	base := fmt.Sprintf("%s_%s_%s", Sanitize(t.Hostname), t.Host, t.Start.Format(timestampLayout))

	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		name := base
		if n := w.used[base]; n > 0 {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		w.used[base]++

		path := filepath.Join(w.dir, name+".log")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}

// Render produces the artifact content: a header block, then each
// command and its captured output in execution order, then a failure
// trailer when the session did not succeed.
func Render(t *Transcript) string {
	var b strings.Builder

	fmt.Fprintf(&b, "==== DEVICE: %s (%s) ====\n", t.Hostname, t.Host)
	fmt.Fprintf(&b, "device_family: %s\n", t.DeviceFamily)
	fmt.Fprintf(&b, "mode: %s\n", t.Mode)
	fmt.Fprintf(&b, "start: %s\n", t.Start.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "end: %s\n", t.End.Format("2006-01-02 15:04:05"))
	b.WriteString("\n")

	for _, e := range t.Entries {
		fmt.Fprintf(&b, "$ %s\n", e.Command)
		b.WriteString(e.Output)
		if !strings.HasSuffix(e.Output, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if t.Status == StatusFailed {
		fmt.Fprintf(&b, "FAILED (%s): %s\n", t.Reason, t.Detail)
	}
	return b.String()
}
