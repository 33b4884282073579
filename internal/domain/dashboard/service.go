package dashboard

import (
	"errors"
	"fmt"
	"time"

	"github.com/glycoview/glycoview/internal/analytics"
	"github.com/glycoview/glycoview/internal/domain/anomaly"
	"github.com/glycoview/glycoview/internal/domain/modeleval"
	"github.com/glycoview/glycoview/internal/platform/cache"
	"github.com/glycoview/glycoview/internal/platform/dataset"
	"github.com/glycoview/glycoview/internal/platform/metrics"
)

// step computes one named fragment of a page payload by delegating to
// the engine or a domain service. Steps never aggregate on their own.
type step struct {
	name string
	run  func(s *Service, p analytics.Predicate, f analytics.Filters) (any, error)
}

// pagePlans is the static dispatch table mapping each page to the
// fragments that make up its payload.
var pagePlans = map[PageID][]step{
	PageOverview: {
		{"kpis", runKPIs},
		{"anomaly_counts", runAnomalyCounts},
		{"best_model", runBestModel},
		{"cohort", runCohortSummary},
	},
	PageDistribution: {
		{"kpis", runKPIs},
		{"age_histogram", histogramStep(dataset.ColAge)},
		{"bmi_histogram", histogramStep(dataset.ColScaledBMI)},
		{"age_group_counts", groupedCountStep(dataset.DimAgeGroup, dataset.DimStatus)},
		{"bmi_category_counts", groupedCountStep(dataset.DimBMICategory)},
	},
	PageTemporal: {
		{"kpis", runKPIs},
		{"fasting_glucose_series", timeSeriesStep(dataset.ColFastingGlucose)},
		{"hba1c_series", timeSeriesStep(dataset.ColHbA1c)},
		{"combined_series", runCombinedSeries},
	},
	PageCorrelations: {
		{"kpis", runKPIs},
		{"matrix", runCorrelationMatrix},
		{"bmi_glucose_scatter", scatterStep(dataset.ColScaledBMI, dataset.ColFastingGlucose)},
		{"age_hba1c_scatter", scatterStep(dataset.ColAge, dataset.ColHbA1c)},
		{"fasting_glucose_box", boxStep(dataset.ColFastingGlucose)},
		{"hba1c_box", boxStep(dataset.ColHbA1c)},
	},
	PageModels: {
		{"metric_table", runModelTable},
		{"metric_bars", runModelBars},
		{"radar", runModelRadar},
		{"f1_by_split", runModelF1BySplit},
	},
	PageAnomalies: {
		{"kpis", runKPIs},
		{"counts", runAnomalyCounts},
		{"consensus_scatter", runConsensusScatter},
		{"score_histograms", runScoreHistograms},
	},
}

// Service composes engine and domain-service calls into page payloads,
// memoizing by (page, filter tuple).
type Service struct {
	engine    *analytics.Engine
	models    *modeleval.Service
	anomalies *anomaly.Service
	memo      *cache.Memo
}

func NewService(engine *analytics.Engine, models *modeleval.Service, anomalies *anomaly.Service, memo *cache.Memo) *Service {
	return &Service{engine: engine, models: models, anomalies: anomalies, memo: memo}
}

// BuildPage resolves the filters and runs the page's plan, returning the
// assembled payload. Identical (page, filters) pairs are served from the
// memo; the underlying store never changes, so entries only expire by
// TTL.
func (s *Service) BuildPage(page PageID, f analytics.Filters) (map[string]any, error) {
	plan, ok := pagePlans[page]
	if !ok {
		return nil, &analytics.ValidationError{Field: "page", Value: string(page), Reason: "unknown page"}
	}

	key := string(page) + "|" + f.Key()
	if cached, hit := s.memo.Get(key); hit {
		metrics.PayloadCacheHits.WithLabelValues(string(page)).Inc()
		return cached.(map[string]any), nil
	}
	metrics.PayloadCacheMisses.WithLabelValues(string(page)).Inc()

	pred, err := analytics.Resolve(s.engine.Store(), f)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload := make(map[string]any, len(plan))
	for _, st := range plan {
		fragment, err := st.run(s, pred, f)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", page, st.name, err)
		}
		payload[st.name] = fragment
	}
	metrics.PageComputeDuration.WithLabelValues(string(page)).Observe(time.Since(start).Seconds())

	s.memo.Set(key, payload)
	return payload, nil
}

// ---------------------------------------------------------------------------
// Shared fragments
// ---------------------------------------------------------------------------

func runKPIs(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
	summary, err := s.engine.Summary(p, []string{dataset.ColAge, dataset.ColScaledBMI})
	if err != nil {
		return nil, err
	}
	diabetic, err := s.engine.CountWhere(p, dataset.DimStatus, dataset.StatusDiabetic)
	if err != nil {
		return nil, err
	}
	kpi := KPI{
		Count:         summary.Count,
		DiabeticCount: diabetic,
		MeanAge:       meanOf(summary.Stats[dataset.ColAge]),
		MeanScaledBMI: meanOf(summary.Stats[dataset.ColScaledBMI]),
	}
	if summary.Count > 0 {
		kpi.DiabeticRate = float64(diabetic) / float64(summary.Count)
	}
	return kpi, nil
}

func runAnomalyCounts(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.anomalies.Counts(p)
}

func runBestModel(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	best, ok := s.models.BestByTestF1()
	if !ok {
		return nil, nil
	}
	return best, nil
}

func runCohortSummary(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
	summary, err := s.engine.Summary(p, []string{
		dataset.ColAge, dataset.ColScaledBMI, dataset.ColFastingGlucose, dataset.ColHbA1c,
	})
	if err != nil {
		return nil, err
	}
	age := summary.Stats[dataset.ColAge]
	out := CohortSummary{
		MeanScaledBMI:      meanOf(summary.Stats[dataset.ColScaledBMI]),
		MeanFastingGlucose: meanOf(summary.Stats[dataset.ColFastingGlucose]),
		MeanHbA1c:          meanOf(summary.Stats[dataset.ColHbA1c]),
	}
	if age.Defined {
		min, max := age.Min, age.Max
		out.AgeMin, out.AgeMax = &min, &max
	}
	return out, nil
}

func histogramStep(col string) func(*Service, analytics.Predicate, analytics.Filters) (any, error) {
	return func(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
		return s.engine.Histogram(p, col, DistributionBins, dataset.DimStatus)
	}
}

func groupedCountStep(dims ...string) func(*Service, analytics.Predicate, analytics.Filters) (any, error) {
	return func(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
		return s.engine.GroupedCounts(p, dims)
	}
}

func timeSeriesStep(col string) func(*Service, analytics.Predicate, analytics.Filters) (any, error) {
	return func(s *Service, p analytics.Predicate, f analytics.Filters) (any, error) {
		return s.engine.TimeBucketedMeans(p, col, dataset.DimStatus, f.Period)
	}
}

// combinedSeriesColumns are the unsplit per-bucket mean series plotted
// together on the temporal page.
var combinedSeriesColumns = []string{
	dataset.ColFastingGlucose, dataset.ColHbA1c, dataset.ColScaledBMI,
}

func runCombinedSeries(s *Service, p analytics.Predicate, f analytics.Filters) (any, error) {
	series := make(map[string][]analytics.TimeBucketMean, len(combinedSeriesColumns))
	for _, col := range combinedSeriesColumns {
		buckets, err := s.engine.TimeBucketedMeans(p, col, "", f.Period)
		if err != nil {
			return nil, err
		}
		series[col] = buckets
	}
	return series, nil
}

// runCorrelationMatrix emits a null matrix fragment when the subset has
// too few complete rows; the rest of the page still renders.
func runCorrelationMatrix(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
	matrix, err := s.engine.CorrelationMatrix(p, dataset.CorrelationColumns)
	if err != nil {
		var ierr *analytics.InsufficientDataError
		if errors.As(err, &ierr) {
			return nil, nil
		}
		return nil, err
	}
	return matrix, nil
}

func scatterStep(xcol, ycol string) func(*Service, analytics.Predicate, analytics.Filters) (any, error) {
	return func(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
		groups, err := s.engine.ScatterPoints(p, xcol, ycol, dataset.DimStatus)
		if err != nil {
			return nil, err
		}
		trends, err := s.engine.TrendLines(p, xcol, ycol, dataset.DimStatus)
		if err != nil {
			return nil, err
		}
		return ScatterSet{X: xcol, Y: ycol, Groups: groups, Trends: trends}, nil
	}
}

func boxStep(col string) func(*Service, analytics.Predicate, analytics.Filters) (any, error) {
	return func(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
		return s.engine.BoxStatsBy(p, col, dataset.DimStatus)
	}
}

func runModelTable(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.models.TestEvaluations(), nil
}

func runModelBars(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	var bars []modeleval.MetricSeries
	for _, m := range []string{modeleval.MetricAccuracy, modeleval.MetricF1, modeleval.MetricROCAUC} {
		series, err := s.models.TestMetricSeries(m)
		if err != nil {
			return nil, err
		}
		bars = append(bars, series)
	}
	return bars, nil
}

func runModelRadar(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.models.TestRadarSeries(), nil
}

func runModelF1BySplit(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.models.F1BySplit(), nil
}

func runConsensusScatter(s *Service, p analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.anomalies.ConsensusScatter(p)
}

func runScoreHistograms(s *Service, _ analytics.Predicate, _ analytics.Filters) (any, error) {
	return s.anomalies.ScoreHistograms(), nil
}

func meanOf(st analytics.ColumnStats) *float64 {
	if !st.Defined {
		return nil
	}
	mean := st.Mean
	return &mean
}
