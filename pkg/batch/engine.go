// Package batch analyzes a set of files concurrently, running one job per
// file on a worker pool and writing a per-file report.
package batch

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/pkg/pool"
)

// ErrAnalyzerPanicked is reported for files whose analysis panicked.
var ErrAnalyzerPanicked = errors.New("analyzer panicked")

type Config struct {
	Analyzer      Analyzer
	Input         []string
	Output        string
	Workers       int
	QueueCapacity int

	Logger  pool.Logger
	Metrics *pool.Metrics
}

// FileResult holds the outcome of analyzing a single file.
type FileResult struct {
	Path   string
	Values []KeyValue
	Err    error
}

type Report struct {
	RunID    uuid.UUID
	Analyzer string
	Results  []FileResult
	Totals   []KeyValue
	Failed   int
	Elapsed  time.Duration
}

type Engine struct {
	config Config
	logger pool.Logger
}

func NewEngine(config Config) (*Engine, error) {
	if config.Analyzer == nil {
		return nil, errors.New("analyzer must be specified")
	}
	if len(config.Input) == 0 {
		return nil, errors.New("at least one input pattern must be specified")
	}
	if config.Workers <= 0 {
		return nil, pool.ErrInvalidSize
	}

	logger := config.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Engine{config: config, logger: logger}, nil
}

// Run analyzes every input file and writes the report to the configured
// output, if any. Files whose job was not submitted before ctx ended are
// reported with the context error.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	runID := uuid.New()

	files, err := FindFiles(e.config.Input...)
	if err != nil {
		return nil, fmt.Errorf("invalid input pattern: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched the input patterns: %s", strings.Join(e.config.Input, ", "))
	}

	opts := []pool.Option{
		pool.WithLogger(e.logger),
		pool.WithQueueCapacity(e.config.QueueCapacity),
	}
	if e.config.Metrics != nil {
		opts = append(opts, pool.WithMetrics(e.config.Metrics))
	}
	p, err := pool.New(min(e.config.Workers, len(files)), opts...)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Starting batch run",
		"run_id", runID,
		"analyzer", e.config.Analyzer.Name(),
		"files", len(files),
		"workers", p.Size(),
	)

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(files))
	)
	record := func(r FileResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			record(FileResult{Path: file, Err: err})
			continue
		}
		err := p.Submit(func() {
			res := FileResult{Path: file, Err: ErrAnalyzerPanicked}
			defer func() { record(res) }()
			res.Values, res.Err = e.analyzeFile(file)
		})
		if err != nil {
			record(FileResult{Path: file, Err: err})
		}
	}
	p.Shutdown()

	slices.SortFunc(results, func(left, right FileResult) int {
		return cmp.Compare(left.Path, right.Path)
	})

	report := &Report{
		RunID:    runID,
		Analyzer: e.config.Analyzer.Name(),
		Results:  results,
		Elapsed:  time.Since(start),
	}
	report.Totals, report.Failed = summarize(results)

	e.logger.Info("Batch run finished",
		"run_id", runID,
		"files", len(results),
		"failed", report.Failed,
		"elapsed", report.Elapsed,
	)

	if e.config.Output != "" {
		if err := WriteLines(e.config.Output, report.Lines()); err != nil {
			return report, fmt.Errorf("failed to write report: %w", err)
		}
	}
	return report, nil
}

func (e *Engine) analyzeFile(path string) ([]KeyValue, error) {
	lines, err := ReadLines(path)
	if err != nil {
		e.logger.Warn("Failed to read file", "path", path, "error", err)
		return nil, err
	}
	return e.config.Analyzer.Analyze(lines), nil
}

// summarize adds up values per key across successful files, keeping the
// key order of the first result.
func summarize(results []FileResult) ([]KeyValue, int) {
	var (
		totals []KeyValue
		index  = make(map[string]int)
		failed int
	)
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		for _, kv := range r.Values {
			i, ok := index[kv.Key]
			if !ok {
				i = len(totals)
				index[kv.Key] = i
				totals = append(totals, KeyValue{Key: kv.Key})
			}
			totals[i].Value += kv.Value
		}
	}
	return totals, failed
}

// Lines renders the report as tab separated lines, one per file and key,
// followed by the totals.
func (r *Report) Lines() []string {
	var lines []string
	for _, res := range r.Results {
		if res.Err != nil {
			lines = append(lines, fmt.Sprintf("%s\terror\t%v\n", res.Path, res.Err))
			continue
		}
		for _, kv := range res.Values {
			lines = append(lines, fmt.Sprintf("%s\t%s\t%d\n", res.Path, kv.Key, kv.Value))
		}
	}
	for _, kv := range r.Totals {
		lines = append(lines, fmt.Sprintf("TOTAL\t%s\t%d\n", kv.Key, kv.Value))
	}
	return lines
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
