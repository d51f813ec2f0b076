// ABOUTME: Tests for benchmark metrics
// ABOUTME: Covers faithfulness, context recall, reciprocal rank and pass/fail gating

package ragas

import (
	"math"
	"testing"

	"github.com/harper/docqa/internal/models"
)

func TestCalculateFaithfulness(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		response  string
		expected  []string
		forbidden []string
		want      float64
	}{
		{"all expected, case insensitive", "Returns within 30 DAYS", []string{"30 days"}, nil, 1.0},
		{"missing expected", "Returns within a month", []string{"30 days"}, nil, 0.5},
		{"forbidden present", "30 days, ships from Denver", []string{"30 days"}, []string{"Denver"}, 0.5},
		{"missing and forbidden", "ships from Denver", []string{"30 days"}, []string{"Denver"}, 0.0},
		{"nothing required", "anything", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := m.CalculateFaithfulness(tt.response, tt.expected, tt.forbidden)
			if got != tt.want {
				t.Errorf("CalculateFaithfulness() = %v (%s), want %v", got, detail, tt.want)
			}
		})
	}
}

func TestCalculateContextRecall(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name      string
		retrieved []string
		expected  []string
		want      float64
	}{
		{"all found", []string{"a.txt", "b.txt"}, []string{"b.txt"}, 1.0},
		{"half found", []string{"a.txt"}, []string{"a.txt", "c.txt"}, 0.5},
		{"none found", []string{"a.txt"}, []string{"z.txt"}, 0.0},
		{"nothing expected", nil, nil, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := m.CalculateContextRecall(tt.retrieved, tt.expected)
			if got != tt.want {
				t.Errorf("CalculateContextRecall() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalculateReciprocalRank(t *testing.T) {
	m := NewMetricsCalculator()

	tests := []struct {
		name   string
		ranked []string
		want   float64
	}{
		{"first", []string{"want.txt", "x.txt"}, 1.0},
		{"third", []string{"x.txt", "y.txt", "want.txt"}, 1.0 / 3.0},
		{"absent", []string{"x.txt"}, 0},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.CalculateReciprocalRank(tt.ranked, []string{"want.txt"})
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CalculateReciprocalRank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluateTest(t *testing.T) {
	m := NewMetricsCalculator()
	scenario := TestScenario{
		ID:   "t",
		Name: "test",
		GroundTruth: GroundTruth{
			ExpectedSources:    []string{"policy.txt"},
			ExpectedInResponse: []string{"30 days"},
		},
	}

	pass := m.EvaluateTest(scenario, models.AnswerResult{
		AnswerText: "Returns within 30 days.",
		Sources: []models.SearchResult{
			{SourceName: "other.txt"},
			{SourceName: "policy.txt"},
		},
	})
	if pass.Status != "PASS" || pass.ReciprocalRank != 0.5 {
		t.Errorf("EvaluateTest() = %+v, want PASS with rank 1/2", pass)
	}
	if want := (1.0 + 1.0 + 0.5) / 3.0; math.Abs(pass.OverallScore-want) > 1e-12 {
		t.Errorf("OverallScore = %v, want %v", pass.OverallScore, want)
	}

	fail := m.EvaluateTest(scenario, models.AnswerResult{NoEvidence: true})
	if fail.Status != "FAIL" || fail.ContextRecallScore != 0 || fail.ReciprocalRank != 0 {
		t.Errorf("EvaluateTest(no evidence) = %+v, want FAIL with nothing retrieved", fail)
	}
}

func TestMeanReciprocalRank(t *testing.T) {
	results := []TestResult{{ReciprocalRank: 1}, {ReciprocalRank: 0.5}, {ReciprocalRank: 0}}
	if got := MeanReciprocalRank(results); got != 0.5 {
		t.Errorf("MeanReciprocalRank() = %v, want 0.5", got)
	}
	if got := MeanReciprocalRank(nil); got != 0 {
		t.Errorf("MeanReciprocalRank(nil) = %v, want 0", got)
	}
}
