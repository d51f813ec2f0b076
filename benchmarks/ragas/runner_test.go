// ABOUTME: Tests for the benchmark runner and fixture corpus
// ABOUTME: Runs the full offline benchmark and checks the exported summary

package ragas

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFixture_Document(t *testing.T) {
	for _, f := range GetCorpus() {
		doc := f.Document()
		if err := doc.Validate(); err != nil {
			t.Errorf("%s: Validate() error = %v", f.ID, err)
		}
		if len(f.Pages) > 1 && len(doc.PageMap) != len(f.Pages) {
			t.Errorf("%s: %d page spans, want %d", f.ID, len(doc.PageMap), len(f.Pages))
		}
	}

	paged := GetCorpus()[2].Document()
	second := paged.PageMap[1]
	if got := paged.FullText[second.Start:second.End]; got != GetCorpus()[2].Pages[1] {
		t.Errorf("page 2 text = %q", got)
	}
}

func TestGetTest(t *testing.T) {
	if _, ok := GetTest("refund"); !ok {
		t.Error("GetTest(refund) not found")
	}
	if _, ok := GetTest("7a"); ok {
		t.Error("GetTest(7a) should not exist")
	}

	seen := map[string]bool{}
	for _, s := range GetAllTests() {
		if seen[s.ID] {
			t.Errorf("duplicate scenario ID %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestBenchmarkRunner_RunAll(t *testing.T) {
	ctx := context.Background()
	runner, err := NewBenchmarkRunner(ctx, DefaultOptions())
	if err != nil {
		t.Fatalf("NewBenchmarkRunner() error = %v", err)
	}
	defer runner.Close()

	results, err := runner.RunAllTests(ctx)
	if err != nil {
		t.Fatalf("RunAllTests() error = %v", err)
	}
	if len(results) != len(GetAllTests()) {
		t.Fatalf("got %d results, want %d", len(results), len(GetAllTests()))
	}

	for _, r := range results {
		for name, v := range map[string]float64{
			"faithfulness": r.FaithfulnessScore,
			"recall":       r.ContextRecallScore,
			"rank":         r.ReciprocalRank,
			"overall":      r.OverallScore,
		} {
			if v < 0 || v > 1 {
				t.Errorf("%s %s = %v, want within [0, 1]", r.TestID, name, v)
			}
		}
	}

	// Scoped to a single one-chunk document, the answer is fully determined
	scoped, _ := GetTest("leave-scoped")
	result, err := runner.RunTest(ctx, scoped)
	if err != nil {
		t.Fatalf("RunTest() error = %v", err)
	}
	if result.Status != "PASS" || result.ReciprocalRank != 1 {
		t.Errorf("scoped result = %+v, want PASS at rank 1", result)
	}

	summary := runner.Summarize(results)
	if summary.TotalTests != len(results) || summary.Passed+summary.Failed != len(results) {
		t.Errorf("summary counts = %+v", summary)
	}
	if summary.SnapshotVersion != 1 || summary.Chunks < len(GetCorpus()) {
		t.Errorf("summary index = v%d with %d chunks", summary.SnapshotVersion, summary.Chunks)
	}
	if summary.MRR <= 0 {
		t.Errorf("MRR = %v, want positive", summary.MRR)
	}

	path := filepath.Join(t.TempDir(), "results.json")
	if err := ExportResults(summary, path); err != nil {
		t.Fatalf("ExportResults() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	var decoded Summary
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("results file is not JSON: %v", err)
	}
	if decoded.TotalTests != summary.TotalTests || len(decoded.Results) != len(results) {
		t.Errorf("decoded summary = %+v", decoded)
	}
}
