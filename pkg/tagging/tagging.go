// Package tagging drives one batch-tagging run over a mention export:
// load the dataset, filter already-processed URLs via the ledger,
// select content per record, classify in fixed-size batches with
// bounded retry, validate labels against the allow-list, and export
// the tagged dataset.
package tagging

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cureanalytics/twtagger/pkg/tagging/ledger"
)

// Record is one row of the input dataset.
type Record struct {
	Row     int
	URL     string
	Content string
	Title   string
}

// Dataset is the in-memory view of the tabular export.
type Dataset interface {
	Records() []Record
	SetTags(row int, tags string)
	Export(path string) error
}

// BatchItem is one (record id, content text) pair submitted to the
// classifier.
type BatchItem struct {
	ID   int
	Text string
}

// Classifier maps a batch to stringified-id -> raw label values.
type Classifier interface {
	Classify(ctx context.Context, batch []BatchItem, system string) (map[string][]any, error)
}

// Options configures an Orchestrator. Zero values fall back to the
// production defaults.
type Options struct {
	Dataset    Dataset
	Classifier Classifier
	Selector   *Selector
	Validator  *Validator
	Ledger     *ledger.Ledger

	SystemInstruction  string
	InstructionVersion string
	Model              string

	BatchSize   int           // default 5
	MaxAttempts int           // total attempts per batch, default 3
	RetryWait   time.Duration // default 30s
	BatchPause  time.Duration // default 12s

	OutputDir    string
	OutputPrefix string // default "Brenntag_Batch_Result"

	// Sleep and Now are injectable for tests.
	Sleep func(time.Duration)
	Now   func() time.Time
}

// Report summarizes one run.
type Report struct {
	RunID         string
	Skipped       int
	Submitted     int
	Tagged        int
	FailedBatches int
	OutputPath    string
}

// Orchestrator executes the run-once tagging flow.
type Orchestrator struct {
	opts Options
}

// New creates an Orchestrator, filling in defaults.
func New(opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 30 * time.Second
	}
	if opts.BatchPause <= 0 {
		opts.BatchPause = 12 * time.Second
	}
	if opts.OutputPrefix == "" {
		opts.OutputPrefix = "Brenntag_Batch_Result"
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Orchestrator{opts: opts}
}

type queued struct {
	row     int
	content string
	url     string
}

// Run performs one full pass over the dataset. It returns a non-nil
// Report unless setup fails; per-batch classifier failures never abort
// the run.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	opts := o.opts
	report := &Report{RunID: ulid.Make().String()}

	if err := opts.Ledger.Ensure(); err != nil {
		return nil, err
	}
	seen, err := opts.Ledger.Load()
	if err != nil {
		log.Printf("ledger unreadable, starting with empty URL set: %v", err)
	}
	tracker := ledger.NewTracker(seen)

	queue := o.filter(ctx, tracker, report)
	if report.Skipped > 0 {
		log.Printf("%d rows skipped (already in ledger)", report.Skipped)
	}
	if len(queue) == 0 {
		log.Print("no new rows, no file written")
		return report, nil
	}
	report.Submitted = len(queue)
	log.Printf("run %s: processing %d rows in batches of %d", report.RunID, len(queue), opts.BatchSize)

	anyTagged := false
	for start := 0; start < len(queue); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(queue) {
			end = len(queue)
		}
		batch := queue[start:end]

		results := o.submitWithRetry(ctx, batch)
		if results == nil {
			report.FailedBatches++
			log.Printf("  giving up after %d attempts: rows %v", opts.MaxAttempts, rowIDs(batch))
		} else {
			anyTagged = true
			if err := o.record(batch, results, report); err != nil {
				return nil, err
			}
		}
		opts.Sleep(opts.BatchPause)
	}

	if !anyTagged {
		log.Print("nothing tagged, no file written")
		return report, nil
	}
	path, err := o.export()
	if err != nil {
		return nil, err
	}
	report.OutputPath = path
	log.Printf("done: %s", path)
	return report, nil
}

// filter walks the dataset in row order, skipping rows without a URL
// and rows whose normalized URL is already known. Eligible rows are
// queued with their selected content and marked processed immediately
// so in-file duplicates are submitted only once.
func (o *Orchestrator) filter(ctx context.Context, tracker *ledger.Tracker, report *Report) []queued {
	var queue []queued
	for _, rec := range o.opts.Dataset.Records() {
		url := ledger.Normalize(rec.URL)
		if url == "" {
			continue
		}
		if tracker.IsProcessed(url) {
			report.Skipped++
			continue
		}
		queue = append(queue, queued{
			row:     rec.Row,
			content: o.opts.Selector.Content(ctx, rec),
			url:     url,
		})
		tracker.MarkProcessed(url)
	}
	return queue
}

// submitWithRetry submits one batch up to MaxAttempts times with a
// fixed wait between attempts. A nil result means every attempt
// failed.
func (o *Orchestrator) submitWithRetry(ctx context.Context, batch []queued) map[string][]any {
	items := make([]BatchItem, len(batch))
	for i, q := range batch {
		items[i] = BatchItem{ID: q.row, Text: q.content}
	}
	for attempt := 1; attempt <= o.opts.MaxAttempts; attempt++ {
		results, err := o.opts.Classifier.Classify(ctx, items, o.opts.SystemInstruction)
		if err == nil {
			return results
		}
		log.Printf("  batch failed (rows %v): %v", rowIDs(batch), err)
		if attempt < o.opts.MaxAttempts {
			log.Printf("  retry in %s", o.opts.RetryWait)
			o.opts.Sleep(o.opts.RetryWait)
		}
	}
	return nil
}

// record validates each batch member's labels, writes the tag column
// and appends a ledger entry per record. A missing id in the response
// counts as an empty label list, and an empty validated result still
// marks the record processed.
func (o *Orchestrator) record(batch []queued, results map[string][]any, report *Report) error {
	for _, q := range batch {
		tags := o.opts.Validator.Format(results[strconv.Itoa(q.row)])
		o.opts.Dataset.SetTags(q.row, tags)
		if err := o.opts.Ledger.Append(q.url, tags, o.opts.InstructionVersion, o.opts.Model); err != nil {
			return fmt.Errorf("ledger append for %s: %w", q.url, err)
		}
		report.Tagged++
		log.Printf("  row %d: %s", q.row, tags)
	}
	return nil
}

func (o *Orchestrator) export() (string, error) {
	if err := os.MkdirAll(o.opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("%s_%s.xlsx", o.opts.OutputPrefix, o.opts.Now().Format("0201_1504"))
	path := filepath.Join(o.opts.OutputDir, name)
	if err := o.opts.Dataset.Export(path); err != nil {
		return "", fmt.Errorf("export dataset: %w", err)
	}
	return path, nil
}

func rowIDs(batch []queued) []int {
	ids := make([]int, len(batch))
	for i, q := range batch {
		ids[i] = q.row
	}
	return ids
}
