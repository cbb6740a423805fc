// Package ledger persists which mention URLs have already been tagged.
//
// The ledger is an append-only, semicolon-separated CSV file. It is the
// only source of "already processed" truth across runs. Concurrent runs
// against the same file are not guarded; the tool assumes at most one
// run at a time.
package ledger

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Separator used by the ledger file.
const Separator = ';'

// Columns is the ledger header, in order.
var Columns = []string{"url", "processing_date", "generated_tags", "instruction_version", "language_model"}

const dateLayout = "2006-01-02 15:04:05"

// Normalize produces the dedupe identity for a URL: whitespace trimmed
// and exactly one trailing slash stripped. An empty result is never a
// valid identity.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "/")
	return s
}

// Ledger reads and appends the processed-URL log file.
type Ledger struct {
	Path string

	// Now is the clock used for processing_date stamps. Defaults to
	// time.Now.
	Now func() time.Time
}

// Ensure creates the ledger file with its header row if it does not
// exist yet, creating parent directories as needed.
func (l *Ledger) Ensure() error {
	if _, err := os.Stat(l.Path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat ledger: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	f, err := os.Create(l.Path)
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	w.Comma = Separator
	if err := w.Write(Columns); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Load reads every row and returns the set of normalized URLs already
// processed. A missing file yields an empty set. An unreadable or
// malformed file also yields an empty set, plus a non-nil error the
// caller is expected to log and absorb rather than abort on.
func (l *Ledger) Load() (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	f, err := os.Open(l.Path)
	if os.IsNotExist(err) {
		return seen, nil
	}
	if err != nil {
		return seen, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = Separator
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return map[string]struct{}{}, fmt.Errorf("read ledger: %w", err)
	}
	if len(rows) == 0 {
		return seen, nil
	}

	urlCol := -1
	for i, name := range rows[0] {
		if strings.TrimSpace(name) == "url" {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		return seen, fmt.Errorf("ledger %s has no url column", l.Path)
	}

	for _, row := range rows[1:] {
		if urlCol >= len(row) {
			continue
		}
		if u := Normalize(row[urlCol]); u != "" {
			seen[u] = struct{}{}
		}
	}
	return seen, nil
}

// Append writes one entry for a successfully classified record. Called
// once per record, immediately after its batch response is validated,
// so a crash mid-run leaves the ledger consistent with exactly the
// records that were confirmed classified.
func (l *Ledger) Append(url, tags, instructionVersion, model string) error {
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger for append: %w", err)
	}
	defer f.Close()

	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	w := csv.NewWriter(f)
	w.Comma = Separator
	if err := w.Write([]string{url, now().Format(dateLayout), tags, instructionVersion, model}); err != nil {
		return fmt.Errorf("append ledger row: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Tracker is the single membership set deciding whether a URL may be
// submitted: it unifies the persisted ledger (seed) with URLs seen
// earlier in the current run.
type Tracker struct {
	seen map[string]struct{}
}

// NewTracker seeds a tracker, typically from Ledger.Load.
func NewTracker(seed map[string]struct{}) *Tracker {
	if seed == nil {
		seed = make(map[string]struct{})
	}
	return &Tracker{seen: seed}
}

// IsProcessed reports whether a normalized URL is already known.
func (t *Tracker) IsProcessed(url string) bool {
	_, ok := t.seen[url]
	return ok
}

// MarkProcessed records a normalized URL so that later duplicates in
// the same input are skipped, not submitted twice.
func (t *Tracker) MarkProcessed(url string) {
	t.seen[url] = struct{}{}
}
