package modeleval

import (
	"errors"
	"testing"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

func testEvals() []dataset.ModelEvaluation {
	return []dataset.ModelEvaluation{
		{Model: "Random Forest", Split: "Train", Accuracy: 0.99, Precision: 0.98, Recall: 0.99, F1: 0.99, ROCAUC: 0.99},
		{Model: "Random Forest", Split: "Validation", Accuracy: 0.91, Precision: 0.90, Recall: 0.89, F1: 0.90, ROCAUC: 0.95},
		{Model: "Random Forest", Split: "Test", Accuracy: 0.92, Precision: 0.91, Recall: 0.90, F1: 0.91, ROCAUC: 0.96},
		{Model: "Logistic Regression", Split: "Train", Accuracy: 0.87, Precision: 0.85, Recall: 0.84, F1: 0.85, ROCAUC: 0.91},
		{Model: "Logistic Regression", Split: "Test", Accuracy: 0.86, Precision: 0.84, Recall: 0.83, F1: 0.84, ROCAUC: 0.90},
	}
}

func TestNewService_RejectsBadTable(t *testing.T) {
	bad := testEvals()
	bad = append(bad, dataset.ModelEvaluation{Model: "Random Forest", Split: "Test", F1: 0.5})
	_, err := NewService(bad)
	var lerr *dataset.LoadError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LoadError for duplicate key, got %v", err)
	}
}

func TestBestByTestF1(t *testing.T) {
	svc, err := NewService(testEvals())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	best, ok := svc.BestByTestF1()
	if !ok {
		t.Fatal("no best model found")
	}
	if best.Model != "Random Forest" || best.F1 != 0.91 {
		t.Fatalf("best = %s (f1=%v), want Random Forest (0.91)", best.Model, best.F1)
	}
}

func TestBestByTestF1_NoTestRows(t *testing.T) {
	svc, err := NewService([]dataset.ModelEvaluation{
		{Model: "Random Forest", Split: "Train", F1: 0.99},
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, ok := svc.BestByTestF1(); ok {
		t.Fatal("best model reported with no Test rows")
	}
}

func TestTestMetricSeries(t *testing.T) {
	svc, err := NewService(testEvals())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	series, err := svc.TestMetricSeries(MetricROCAUC)
	if err != nil {
		t.Fatalf("TestMetricSeries: %v", err)
	}
	if len(series.Models) != 2 || series.Models[0] != "Random Forest" || series.Models[1] != "Logistic Regression" {
		t.Fatalf("models = %v", series.Models)
	}
	if series.Values[0] != 0.96 || series.Values[1] != 0.90 {
		t.Fatalf("values = %v", series.Values)
	}

	if _, err := svc.TestMetricSeries("specificity"); err == nil {
		t.Fatal("unknown metric accepted")
	}
}

func TestF1BySplit_DeclaredOrder(t *testing.T) {
	svc, err := NewService(testEvals())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	series := svc.F1BySplit()
	if len(series) != 2 {
		t.Fatalf("got %d models, want 2", len(series))
	}

	rf := series[0]
	if rf.Model != "Random Forest" || len(rf.Splits) != 3 {
		t.Fatalf("first series = %+v", rf)
	}
	for i, want := range []string{"Train", "Validation", "Test"} {
		if rf.Splits[i] != want {
			t.Fatalf("split[%d] = %s, want %s", i, rf.Splits[i], want)
		}
	}

	// Logistic Regression has no Validation row; the gap is skipped, not
	// zero-filled.
	lr := series[1]
	if len(lr.Splits) != 2 || lr.Splits[0] != "Train" || lr.Splits[1] != "Test" {
		t.Fatalf("sparse series = %+v", lr)
	}
}

func TestTestRadarSeries(t *testing.T) {
	svc, err := NewService(testEvals())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	radar := svc.TestRadarSeries()
	if len(radar) != 2 {
		t.Fatalf("got %d radar series, want 2", len(radar))
	}
	rf := radar[0]
	if len(rf.Values) != len(Metrics) {
		t.Fatalf("got %d values, want %d", len(rf.Values), len(Metrics))
	}
	// Values follow Metrics order: accuracy first, roc_auc last.
	if rf.Values[0] != 0.92 || rf.Values[len(rf.Values)-1] != 0.96 {
		t.Fatalf("radar values = %v", rf.Values)
	}
}
