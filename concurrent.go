package spdxer

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// ConcurrentProcessor runs a batch operation with a worker pool. Every file
// gets its own Transaction and distinct paths share no mutable state, so
// files can be processed in parallel freely; the report is assembled after
// all workers finish and sorted by path for stable output.
type ConcurrentProcessor struct {
	*Processor
	workerCount int
	bufferSize  int
	stats       *RunStats
}

// RunStats tracks performance metrics
type RunStats struct {
	filesProcessed atomic.Uint64
	totalFiles     atomic.Uint64
	startTime      time.Time
	endTime        time.Time
}

// FilesProcessed returns how many files have completed.
func (s *RunStats) FilesProcessed() uint64 { return s.filesProcessed.Load() }

// TotalFiles returns how many files the run covers.
func (s *RunStats) TotalFiles() uint64 { return s.totalFiles.Load() }

// Duration returns the wall-clock time of the run.
func (s *RunStats) Duration() time.Duration { return s.endTime.Sub(s.startTime) }

// ConcurrentOption is a functional option for ConcurrentProcessor
type ConcurrentOption func(*ConcurrentProcessor) error

// WithWorkerCount sets the number of worker goroutines
func WithWorkerCount(count int) ConcurrentOption {
	return func(cp *ConcurrentProcessor) error {
		if count < 1 {
			return fmt.Errorf("worker count must be at least 1, got %d", count)
		}
		cp.workerCount = count
		return nil
	}
}

// WithBufferSize sets the job buffer size
func WithBufferSize(size int) ConcurrentOption {
	return func(cp *ConcurrentProcessor) error {
		if size < 1 {
			return fmt.Errorf("buffer size must be at least 1, got %d", size)
		}
		cp.bufferSize = size
		return nil
	}
}

// NewConcurrentProcessor wraps a Processor with a worker pool.
func NewConcurrentProcessor(p *Processor, opts ...ConcurrentOption) (*ConcurrentProcessor, error) {
	cp := &ConcurrentProcessor{
		Processor:   p,
		workerCount: runtime.NumCPU(),
		bufferSize:  64,
		stats:       &RunStats{},
	}
	for _, opt := range opts {
		if err := opt(cp); err != nil {
			return nil, err
		}
	}
	return cp, nil
}

// Stats returns the metrics of the most recent run.
func (cp *ConcurrentProcessor) Stats() *RunStats {
	return cp.stats
}

// Add is the parallel variant of Processor.Add.
func (cp *ConcurrentProcessor) Add(ctx context.Context, root, license string, dryRun bool) (*Report, error) {
	if _, err := cp.catalog.Lookup(license); err != nil {
		return nil, err
	}
	return cp.runParallel(ctx, root, func(path string) FileResult {
		return cp.addFile(path, license, dryRun)
	})
}

// Change is the parallel variant of Processor.Change.
func (cp *ConcurrentProcessor) Change(ctx context.Context, root, license string, dryRun bool) (*Report, error) {
	if _, err := cp.catalog.Lookup(license); err != nil {
		return nil, err
	}
	return cp.runParallel(ctx, root, func(path string) FileResult {
		return cp.changeFile(path, license, dryRun)
	})
}

// Remove is the parallel variant of Processor.Remove.
func (cp *ConcurrentProcessor) Remove(ctx context.Context, root string, dryRun bool) (*Report, error) {
	return cp.runParallel(ctx, root, func(path string) FileResult {
		return cp.removeFile(path, dryRun)
	})
}

// Verify is the parallel variant of Processor.Verify.
func (cp *ConcurrentProcessor) Verify(ctx context.Context, root string) (*Report, error) {
	return cp.runParallel(ctx, root, cp.verifyFile)
}

func (cp *ConcurrentProcessor) runParallel(ctx context.Context, root string, op func(path string) FileResult) (*Report, error) {
	paths, err := cp.Candidates(root)
	if err != nil {
		return nil, err
	}

	cp.stats = &RunStats{startTime: time.Now()}
	cp.stats.totalFiles.Store(uint64(len(paths)))

	jobs := make(chan string, cp.bufferSize)
	results := make(chan FileResult, cp.bufferSize)

	var wg sync.WaitGroup
	for i := 0; i < cp.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				select {
				case <-ctx.Done():
					results <- FileResult{Path: path, Action: ActionFailed, Err: ctx.Err()}
				default:
					results <- op(path)
				}
				cp.stats.filesProcessed.Add(1)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, path := range paths {
			jobs <- path
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	for result := range results {
		report.Add(result)
	}
	cp.stats.endTime = time.Now()

	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Path < report.Results[j].Path
	})
	return report, nil
}
