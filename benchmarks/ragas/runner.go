// ABOUTME: Test runner for retrieval benchmarks - indexes the corpus and scores answers
// ABOUTME: Runs fully offline with the hash embedder and an in-memory database

package ragas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/storage/sqlite"
)

// Options tunes a benchmark run
type Options struct {
	TopK          int
	MaxChunkChars int
	OverlapChars  int
	HashDimension int
	Verbose       bool
	Out           io.Writer
}

// DefaultOptions returns settings sized for the fixture corpus
func DefaultOptions() Options {
	return Options{
		TopK:          3,
		MaxChunkChars: 400,
		OverlapChars:  50,
		HashDimension: llm.DefaultHashDimension,
		Out:           os.Stdout,
	}
}

// Summary is the exported result of a run
type Summary struct {
	Timestamp         string       `json:"timestamp"`
	SnapshotVersion   uint64       `json:"snapshot_version"`
	Chunks            int          `json:"chunks"`
	TotalTests        int          `json:"total_tests"`
	Passed            int          `json:"passed"`
	Failed            int          `json:"failed"`
	MeanFaithfulness  float64      `json:"mean_faithfulness"`
	MeanContextRecall float64      `json:"mean_context_recall"`
	MRR               float64      `json:"mrr"`
	Results           []TestResult `json:"results"`
}

// BenchmarkRunner executes benchmark scenarios against an indexed corpus
type BenchmarkRunner struct {
	storage *sqlite.Storage
	engine  *core.Engine
	metrics *MetricsCalculator
	opts    Options
	logger  *log.Logger
}

// NewBenchmarkRunner creates a runner and indexes the fixture corpus
func NewBenchmarkRunner(ctx context.Context, opts Options) (*BenchmarkRunner, error) {
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	store, err := sqlite.NewStorageInMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cfg := core.DefaultEngineConfig()
	if opts.TopK > 0 {
		cfg.TopK = opts.TopK
	}
	if opts.MaxChunkChars > 0 {
		cfg.MaxChunkChars = opts.MaxChunkChars
		cfg.OverlapChars = opts.OverlapChars
	}

	// No generator: answers are the extractive fallback, so runs are repeatable
	engine, err := core.NewEngine(cfg, llm.NewHashEmbedder(opts.HashDimension), nil, store.Snapshots, store.Documents)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	r := &BenchmarkRunner{
		storage: store,
		engine:  engine,
		metrics: NewMetricsCalculator(),
		opts:    opts,
		logger:  log.WithPrefix("benchmark"),
	}
	if err := r.setup(ctx); err != nil {
		r.Close()
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	return r, nil
}

// Close cleans up benchmark runner resources
func (r *BenchmarkRunner) Close() {
	if r.storage != nil {
		_ = r.storage.Close()
	}
}

func (r *BenchmarkRunner) setup(ctx context.Context) error {
	for _, fixture := range GetCorpus() {
		doc := fixture.Document()
		if err := r.storage.Documents.Save(ctx, &doc); err != nil {
			return fmt.Errorf("failed to save %s: %w", fixture.SourceName, err)
		}
	}

	res, err := r.engine.RebuildFromStore(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("corpus indexed", "version", res.Version, "chunks", res.ChunkCount, "documents", res.DocumentCount)
	return nil
}

// RunTest executes a single benchmark scenario
func (r *BenchmarkRunner) RunTest(ctx context.Context, scenario TestScenario) (TestResult, error) {
	if r.opts.Verbose {
		_, _ = fmt.Fprintf(r.opts.Out, "\n========================================\n")
		_, _ = fmt.Fprintf(r.opts.Out, "RUNNING: %s\n", scenario.Name)
		_, _ = fmt.Fprintf(r.opts.Out, "========================================\n")
		_, _ = fmt.Fprintf(r.opts.Out, "Description: %s\n", scenario.Description)
		_, _ = fmt.Fprintf(r.opts.Out, "Question: %s\n\n", scenario.Question)
	}

	answer, err := r.engine.Ask(ctx, scenario.Question, core.AskOptions{DocumentScope: scenario.DocumentScope})
	if err != nil {
		return TestResult{}, fmt.Errorf("ask failed: %w", err)
	}

	result := r.metrics.EvaluateTest(scenario, answer)

	if r.opts.Verbose {
		for i, src := range answer.Sources {
			_, _ = fmt.Fprintf(r.opts.Out, "  [%d] %s (%.3f)\n", i+1, src.SourceName, src.Score)
		}
		_, _ = fmt.Fprintf(r.opts.Out, "Faithfulness: %.2f\n", result.FaithfulnessScore)
		_, _ = fmt.Fprintf(r.opts.Out, "Context Recall: %.2f\n", result.ContextRecallScore)
		_, _ = fmt.Fprintf(r.opts.Out, "Reciprocal Rank: %.2f\n", result.ReciprocalRank)
		_, _ = fmt.Fprintf(r.opts.Out, "Status: %s\n", result.Status)
	}

	return result, nil
}

// RunAllTests executes all benchmark scenarios
func (r *BenchmarkRunner) RunAllTests(ctx context.Context) ([]TestResult, error) {
	scenarios := GetAllTests()
	results := make([]TestResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		result, err := r.RunTest(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("test %s failed: %w", scenario.ID, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Summarize aggregates results against the runner's index
func (r *BenchmarkRunner) Summarize(results []TestResult) Summary {
	status := r.engine.Status()
	summary := Summary{
		Timestamp:       time.Now().Format(time.RFC3339),
		SnapshotVersion: status.Version,
		Chunks:          status.ChunkCount,
		TotalTests:      len(results),
		MRR:             MeanReciprocalRank(results),
		Results:         results,
	}

	for _, result := range results {
		if result.Status == "PASS" {
			summary.Passed++
		} else {
			summary.Failed++
		}
		summary.MeanFaithfulness += result.FaithfulnessScore
		summary.MeanContextRecall += result.ContextRecallScore
	}
	if len(results) > 0 {
		summary.MeanFaithfulness /= float64(len(results))
		summary.MeanContextRecall /= float64(len(results))
	}
	return summary
}

// ExportResults writes the summary to outputPath as JSON
func ExportResults(summary Summary, outputPath string) error {
	jsonData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if err := os.WriteFile(outputPath, jsonData, 0o600); err != nil {
		return fmt.Errorf("failed to write results file: %w", err)
	}
	return nil
}
