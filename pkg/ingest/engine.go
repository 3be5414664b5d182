// Package ingest orchestrates batched, memory-bounded ingestion of tabular
// market-data files into the persistent canonical table.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/redline/redline/pkg/batch"
	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/errors"
	"github.com/redline/redline/pkg/model"
	"github.com/redline/redline/pkg/normalize"
	"github.com/redline/redline/pkg/progress"
	"github.com/redline/redline/pkg/readers"
)

// Store is the subset of the persistent store the engine mutates. The
// engine owns the store exclusively for the duration of a run.
type Store interface {
	CreateOrReplace(ctx context.Context, table string, rows []model.Record) error
	Append(ctx context.Context, table string, rows []model.Record) error
}

// Options configures an ingestion run.
type Options struct {
	// BatchSize is the number of files per batch.
	BatchSize int

	// TableName is the persistent table written to.
	TableName string

	// InputFormat forces a format for every file. FormatUnknown means
	// classify each file from its extension.
	InputFormat classify.Format

	// ValidateStooqHeader enables the header probe on .txt files.
	ValidateStooqHeader bool

	// Policy selects the row-validation rule applied after normalization.
	Policy normalize.Policy

	// Workers bounds concurrent file reads within one batch. The
	// concatenate and append step is always sequential and batch-ordered.
	Workers int

	// OnProgress receives a snapshot after each file and each batch.
	OnProgress progress.Callback
}

// DefaultOptions returns the defaults used by the original loader.
func DefaultOptions() Options {
	return Options{
		BatchSize:           batch.DefaultSize,
		TableName:           model.TableName,
		ValidateStooqHeader: true,
		Policy:              normalize.PolicyPrices,
		Workers:             1,
	}
}

// FileError records a per-file failure reason.
type FileError struct {
	Path string
	Err  error
}

// BatchResult summarizes one processed batch.
type BatchResult struct {
	Index        int
	SuccessCount int
	ErrorCount   int
	RowsWritten  int
	FileErrors   []FileError
}

// Report is the user-visible summary of a run, available whether the run
// completed fully or was aborted.
type Report struct {
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	TotalFiles  int // files considered after classification
	Succeeded   int
	Failed      int
	RowsWritten int
	Canceled    bool

	// Excluded lists files rejected before batching (classification).
	Excluded []FileError

	// Batches holds per-batch results in processing order.
	Batches []BatchResult
}

// FileErrors aggregates per-file failure reasons across all batches.
func (r *Report) FileErrors() []FileError {
	var out []FileError
	out = append(out, r.Excluded...)
	for _, b := range r.Batches {
		out = append(out, b.FileErrors...)
	}
	return out
}

// Engine reads each file in a batch, normalizes it, concatenates the batch
// and appends it to the store. Per-file failures are isolated; store
// failures abort the run.
type Engine struct {
	store      Store
	registry   *readers.Registry
	classifier *classify.Classifier
	normalizer *normalize.Normalizer
	opts       Options
}

// fileOutcome is the Result-style product of processing one file.
type fileOutcome struct {
	records []model.Record
	err     error
}

// NewEngine creates an engine over a store.
func NewEngine(store Store, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = batch.DefaultSize
	}
	if opts.TableName == "" {
		opts.TableName = model.TableName
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	classifier := classify.New()
	classifier.ValidateStooqHeader = opts.ValidateStooqHeader

	return &Engine{
		store:      store,
		registry:   readers.Default(),
		classifier: classifier,
		normalizer: normalize.New(opts.Policy),
		opts:       opts,
	}
}

// Classify classifies every path, separating valid descriptors from files
// excluded before batching.
func (e *Engine) Classify(paths []string) ([]classify.FileDescriptor, []FileError) {
	var valid []classify.FileDescriptor
	var excluded []FileError

	for _, path := range paths {
		fd, err := e.classifier.Classify(path)
		if err != nil {
			excluded = append(excluded, FileError{Path: path, Err: err})
			continue
		}
		if e.opts.InputFormat != classify.FormatUnknown {
			fd.Format = e.opts.InputFormat
		}
		valid = append(valid, fd)
	}
	return valid, excluded
}

// ProcessAll classifies the file list, plans batches once, and processes
// them strictly in order: batch n+1 never starts before batch n's append
// completes, so persisted row order is deterministic. Per-file errors are
// recovered and reported; only store failures return an error. On
// cancellation the current batch's already-normalized files are still
// appended and the run stops with a partial report.
func (e *Engine) ProcessAll(ctx context.Context, paths []string) (*Report, error) {
	valid, excluded := e.Classify(paths)

	report := &Report{
		RunID:      uuid.New().String(),
		StartTime:  time.Now(),
		TotalFiles: len(valid),
		Excluded:   excluded,
	}

	batches := batch.Plan(valid, e.opts.BatchSize)
	tracker := progress.New(len(valid), e.opts.BatchSize, e.opts.OnProgress)

	created := false
	for _, b := range batches {
		result, canceled, err := e.processBatch(ctx, b, &created, tracker)
		report.Batches = append(report.Batches, result)
		report.Succeeded += result.SuccessCount
		report.Failed += result.ErrorCount
		report.RowsWritten += result.RowsWritten

		if err != nil {
			report.EndTime = time.Now()
			return report, err
		}
		if canceled {
			report.Canceled = true
			break
		}
	}

	report.EndTime = time.Now()
	return report, nil
}

// ProcessBatch processes a single planned batch against the store. first
// selects table creation over append for the batch's write.
func (e *Engine) ProcessBatch(ctx context.Context, b batch.Batch, first bool) (BatchResult, error) {
	created := !first
	tracker := progress.New(len(b.Files), e.opts.BatchSize, e.opts.OnProgress)
	result, _, err := e.processBatch(ctx, b, &created, tracker)
	return result, err
}

// processBatch reads and normalizes every file in the batch, then persists
// all successes as one store operation. One bad file never aborts the
// batch; a store failure does.
func (e *Engine) processBatch(ctx context.Context, b batch.Batch, created *bool, tracker *progress.Tracker) (BatchResult, bool, error) {
	result := BatchResult{Index: b.Index}

	outcomes, canceled := e.readBatch(ctx, b, tracker)

	// Concatenate successes in file order so persisted ordering is
	// deterministic.
	var rows []model.Record
	for i, out := range outcomes {
		if out == nil {
			continue // not reached before cancellation
		}
		if out.err != nil {
			result.ErrorCount++
			result.FileErrors = append(result.FileErrors, FileError{Path: b.Files[i].Path, Err: out.err})
			continue
		}
		result.SuccessCount++
		rows = append(rows, out.records...)
	}

	if len(rows) > 0 {
		var err error
		if !*created {
			err = e.store.CreateOrReplace(ctx, e.opts.TableName, rows)
		} else {
			err = e.store.Append(ctx, e.opts.TableName, rows)
		}
		if err != nil {
			return result, canceled, err
		}
		*created = true
		result.RowsWritten = len(rows)
	}

	tracker.Update(0, b.Index)
	return result, canceled, nil
}

// readBatch produces one outcome per file, in file order. With Workers > 1
// the reads run concurrently under an errgroup limit; cancellation is
// checked between files, never mid-read.
func (e *Engine) readBatch(ctx context.Context, b batch.Batch, tracker *progress.Tracker) ([]*fileOutcome, bool) {
	outcomes := make([]*fileOutcome, len(b.Files))

	if e.opts.Workers <= 1 {
		for i, fd := range b.Files {
			if ctx.Err() != nil {
				return outcomes, true
			}
			outcomes[i] = e.processFile(ctx, fd)
			tracker.Update(1, b.Index)
		}
		return outcomes, false
	}

	canceled := false
	g := &errgroup.Group{}
	g.SetLimit(e.opts.Workers)
	for i, fd := range b.Files {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		i, fd := i, fd
		g.Go(func() error {
			outcomes[i] = e.processFile(ctx, fd)
			tracker.Update(1, b.Index)
			return nil
		})
	}
	g.Wait()
	return outcomes, canceled
}

// processFile reads and normalizes one file. Errors are captured, not
// raised: the caller aggregates them into the batch result.
func (e *Engine) processFile(ctx context.Context, fd classify.FileDescriptor) *fileOutcome {
	reader, err := e.registry.Get(fd.Format)
	if err != nil {
		return &fileOutcome{err: err}
	}

	table, err := reader.Read(ctx, fd.Path)
	if err != nil {
		return &fileOutcome{err: err}
	}

	res, err := e.normalizer.Normalize(table, fd.Format)
	if err != nil {
		return &fileOutcome{err: errors.Wrapf(err, errors.GetCode(err), "normalize %s", fd.Path)}
	}
	return &fileOutcome{records: res.Records}
}
