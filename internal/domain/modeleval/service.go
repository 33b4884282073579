package modeleval

import (
	"fmt"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// Metric names as they appear in payloads and query parameters.
const (
	MetricAccuracy  = "accuracy"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1        = "f1"
	MetricROCAUC    = "roc_auc"
)

// Metrics lists every evaluation metric in reporting order.
var Metrics = []string{MetricAccuracy, MetricPrecision, MetricRecall, MetricF1, MetricROCAUC}

// Service serves the precomputed model-evaluation table. The table is
// fixed at startup; every method is read-only.
type Service struct {
	evals  []dataset.ModelEvaluation
	models []string
	byKey  map[string]dataset.ModelEvaluation
}

// NewService validates the evaluation table and indexes it by
// (model, split).
func NewService(evals []dataset.ModelEvaluation) (*Service, error) {
	if err := dataset.ValidateModelEvaluations(evals); err != nil {
		return nil, err
	}
	s := &Service{
		evals: append([]dataset.ModelEvaluation(nil), evals...),
		byKey: make(map[string]dataset.ModelEvaluation, len(evals)),
	}
	seen := make(map[string]bool)
	for _, ev := range s.evals {
		s.byKey[ev.Model+"\x00"+ev.Split] = ev
		if !seen[ev.Model] {
			seen[ev.Model] = true
			s.models = append(s.models, ev.Model)
		}
	}
	return s, nil
}

// Models returns the distinct model names in table order.
func (s *Service) Models() []string {
	return append([]string(nil), s.models...)
}

// Evaluations returns every row of the table.
func (s *Service) Evaluations() []dataset.ModelEvaluation {
	return append([]dataset.ModelEvaluation(nil), s.evals...)
}

// TestEvaluations returns the Test-split row for each model that has
// one, in model order.
func (s *Service) TestEvaluations() []dataset.ModelEvaluation {
	var out []dataset.ModelEvaluation
	for _, m := range s.models {
		if ev, ok := s.byKey[m+"\x00"+"Test"]; ok {
			out = append(out, ev)
		}
	}
	return out
}

// BestByTestF1 returns the model with the highest Test-split F1. ok is
// false when no model has a Test row.
func (s *Service) BestByTestF1() (dataset.ModelEvaluation, bool) {
	var best dataset.ModelEvaluation
	found := false
	for _, ev := range s.TestEvaluations() {
		if !found || ev.F1 > best.F1 {
			best = ev
			found = true
		}
	}
	return best, found
}

// MetricSeries is one metric's value per model, parallel slices in model
// order.
type MetricSeries struct {
	Metric string    `json:"metric"`
	Models []string  `json:"models"`
	Values []float64 `json:"values"`
}

// TestMetricSeries returns the named metric across models on the Test
// split.
func (s *Service) TestMetricSeries(metric string) (MetricSeries, error) {
	series := MetricSeries{Metric: metric}
	for _, ev := range s.TestEvaluations() {
		v, err := metricOf(ev, metric)
		if err != nil {
			return MetricSeries{}, err
		}
		series.Models = append(series.Models, ev.Model)
		series.Values = append(series.Values, v)
	}
	return series, nil
}

// RadarSeries is one model's full metric vector on the Test split, in
// Metrics order.
type RadarSeries struct {
	Model   string    `json:"model"`
	Metrics []string  `json:"metrics"`
	Values  []float64 `json:"values"`
}

// TestRadarSeries returns every Test-split model's five-metric vector.
func (s *Service) TestRadarSeries() []RadarSeries {
	var out []RadarSeries
	for _, ev := range s.TestEvaluations() {
		r := RadarSeries{Model: ev.Model, Metrics: Metrics}
		for _, m := range Metrics {
			v, _ := metricOf(ev, m)
			r.Values = append(r.Values, v)
		}
		out = append(out, r)
	}
	return out
}

// SplitSeries is one model's F1 across the splits it has rows for, in
// declared split order.
type SplitSeries struct {
	Model  string    `json:"model"`
	Splits []string  `json:"splits"`
	F1     []float64 `json:"f1"`
}

// F1BySplit returns each model's F1 trajectory across
// Train/Validation/Test.
func (s *Service) F1BySplit() []SplitSeries {
	var out []SplitSeries
	for _, m := range s.models {
		series := SplitSeries{Model: m}
		for _, split := range dataset.Splits {
			ev, ok := s.byKey[m+"\x00"+split]
			if !ok {
				continue
			}
			series.Splits = append(series.Splits, split)
			series.F1 = append(series.F1, ev.F1)
		}
		if len(series.Splits) > 0 {
			out = append(out, series)
		}
	}
	return out
}

func metricOf(ev dataset.ModelEvaluation, metric string) (float64, error) {
	switch metric {
	case MetricAccuracy:
		return ev.Accuracy, nil
	case MetricPrecision:
		return ev.Precision, nil
	case MetricRecall:
		return ev.Recall, nil
	case MetricF1:
		return ev.F1, nil
	case MetricROCAUC:
		return ev.ROCAUC, nil
	}
	return 0, fmt.Errorf("unknown metric %q", metric)
}
