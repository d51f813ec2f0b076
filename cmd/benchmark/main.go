// ABOUTME: Command-line benchmark runner for retrieval quality
// ABOUTME: Indexes the fixture corpus offline and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harper/docqa/benchmarks/ragas"
)

func main() {
	opts := ragas.DefaultOptions()

	// Command-line flags
	testID := flag.String("test", "", "Run specific test (refund, shipping, passwords, leave-scoped, expenses). If empty, runs all tests.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	flag.IntVar(&opts.TopK, "top-k", opts.TopK, "Passages retrieved per question")
	flag.IntVar(&opts.MaxChunkChars, "chunk-chars", opts.MaxChunkChars, "Maximum chunk size in bytes")
	flag.IntVar(&opts.OverlapChars, "overlap-chars", opts.OverlapChars, "Chunk overlap in bytes")
	flag.BoolVar(&opts.Verbose, "verbose", false, "Enable verbose output")
	flag.Parse()

	if opts.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	ctx := context.Background()

	// Print header
	fmt.Println("========================================")
	fmt.Println("docqa Retrieval Benchmarks")
	fmt.Println("========================================")

	runner, err := ragas.NewBenchmarkRunner(ctx, opts)
	if err != nil {
		log.Fatal("failed to create benchmark runner", "err", err)
	}
	defer runner.Close()

	var results []ragas.TestResult
	if *testID == "" {
		results, err = runner.RunAllTests(ctx)
		if err != nil {
			log.Fatal("benchmark failed", "err", err)
		}
	} else {
		scenario, ok := ragas.GetTest(*testID)
		if !ok {
			log.Fatal("unknown test ID", "test", *testID)
		}
		result, err := runner.RunTest(ctx, scenario)
		if err != nil {
			log.Fatal("test failed", "err", err)
		}
		results = []ragas.TestResult{result}
	}

	summary := runner.Summarize(results)

	// Print summary
	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.TestID, result.TestName)
		fmt.Printf("  Faithfulness: %.2f\n", result.FaithfulnessScore)
		fmt.Printf("  Context Recall: %.2f\n", result.ContextRecallScore)
		fmt.Printf("  Reciprocal Rank: %.2f\n", result.ReciprocalRank)
		fmt.Printf("  Status: %s\n", result.Status)
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", summary.TotalTests)
	fmt.Printf("Passed: %d\n", summary.Passed)
	fmt.Printf("Failed: %d\n", summary.Failed)
	fmt.Printf("MRR: %.3f\n", summary.MRR)
	fmt.Println("========================================")

	// Export results
	if err := ragas.ExportResults(summary, *outputPath); err != nil {
		log.Fatal("failed to export results", "err", err)
	}
	fmt.Printf("✓ Results exported to: %s\n", *outputPath)

	// Exit with error code if any tests failed
	if summary.Failed > 0 {
		runner.Close()
		os.Exit(1)
	}
}
