package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch size limits.
const (
	// DefaultBatchSize matches the Tavern page size.
	DefaultBatchSize = 50

	MinBatchSize = 1
	MaxBatchSize = 1000

	// DefaultConcurrency is the number of batches in flight at once.
	DefaultConcurrency = 4
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrEmptyItems       = errors.New("items slice cannot be empty")
)

// Callback processes one batch. index is the 0-based batch number.
type Callback[T any] func(ctx context.Context, batch []T, index int) error

// ProgressCallback observes progress after each batch.
type ProgressCallback func(snapshot ProgressSnapshot)

// Processor splits items into batches and runs a callback per batch.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults creates a processor with DefaultBatchSize.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets the progress observer.
func (p *Processor[T]) WithProgressCallback(cb ProgressCallback) *Processor[T] {
	p.onProgress = cb
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int {
	return p.batchSize
}

// Process runs batches one after another and stops at the first error.
func (p *Processor[T]) Process(ctx context.Context, items []T, cb Callback[T]) error {
	if err := validate(items, cb); err != nil {
		return err
	}

	bounds := p.CalculateBatches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)
	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := cb(ctx, items[b[0]:b[1]], i); err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}
		p.report(progress, b[1]-b[0])
	}
	return nil
}

// ProcessConcurrent runs up to maxConcurrency batches at once. The first
// failure cancels the context passed to the remaining batches.
func (p *Processor[T]) ProcessConcurrent(ctx context.Context, items []T, cb Callback[T], maxConcurrency int) error {
	if err := validate(items, cb); err != nil {
		return err
	}

	bounds := p.CalculateBatches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, maxConcurrency))
	for i, b := range bounds {
		batch := items[b[0]:b[1]]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := cb(gctx, batch, i); err != nil {
				return fmt.Errorf("batch %d failed: %w", i, err)
			}
			p.report(progress, len(batch))
			return nil
		})
	}
	return g.Wait()
}

// Collect runs fn for every batch concurrently and concatenates the results
// in batch order.
func Collect[T, R any](
	ctx context.Context,
	p *Processor[T],
	items []T,
	maxConcurrency int,
	fn func(ctx context.Context, batch []T) ([]R, error),
) ([]R, error) {
	if fn == nil {
		return nil, ErrNilCallback
	}
	if len(items) == 0 {
		return nil, nil
	}

	results := make([][]R, len(p.CalculateBatches(len(items))))
	err := p.ProcessConcurrent(ctx, items, func(ctx context.Context, batch []T, index int) error {
		out, err := fn(ctx, batch)
		if err != nil {
			return err
		}
		results[index] = out
		return nil
	}, maxConcurrency)
	if err != nil {
		return nil, err
	}

	var all []R
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// CalculateBatches returns [start, end) bounds for totalItems.
func (p *Processor[T]) CalculateBatches(totalItems int) [][2]int {
	n := (totalItems + p.batchSize - 1) / p.batchSize
	bounds := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		bounds[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return bounds
}

func (p *Processor[T]) report(progress *Progress, processed int) {
	progress.AddProcessed(processed)
	if p.onProgress != nil {
		p.onProgress(progress.Snapshot())
	}
}

func validate[T any](items []T, cb Callback[T]) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if cb == nil {
		return ErrNilCallback
	}
	return nil
}
