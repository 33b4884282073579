package analytics

import (
	"errors"
	"math"
	"testing"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

func f(v float64) *float64 { return &v }
func code(v int) *int      { return &v }

// newTestEngine builds an engine over a small fixed cohort:
// ages [20,30,50,70], statuses [Healthy,Healthy,Diabetic,Diabetic],
// scaled bmi [21,26,31,36], weight = 2*age, anomaly flags
// iso=[1,0,1], ocsvm=[1,1,0], consensus=[1,0,0] with row 3 unmatched.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	patients := []dataset.PatientRecord{
		{ID: 0, Age: f(20), Height: f(170), Weight: f(40), BMI: f(0.0021), FastingGlucose: f(90), HbA1c: f(5.1), DiabetesCode: code(0)},
		{ID: 1, Age: f(30), Height: f(165), Weight: f(60), BMI: f(0.0026), FastingGlucose: f(95), HbA1c: f(5.4), DiabetesCode: code(0)},
		{ID: 2, Age: f(50), Height: f(180), Weight: f(100), BMI: f(0.0031), FastingGlucose: f(160), HbA1c: f(7.8), DiabetesCode: code(1)},
		{ID: 3, Age: f(70), Height: f(175), Weight: f(140), BMI: f(0.0036), FastingGlucose: f(180), HbA1c: f(8.9), DiabetesCode: code(1)},
	}
	anomalies := []dataset.AnomalyResult{
		{PatientID: 0, IsoAnomaly: true, IsoScore: -0.12, OCSVMAnomaly: true, OCSVMScore: -1.4, ConsensusAnomaly: true},
		{PatientID: 1, IsoAnomaly: false, IsoScore: 0.08, OCSVMAnomaly: true, OCSVMScore: -0.2, ConsensusAnomaly: false},
		{PatientID: 2, IsoAnomaly: true, IsoScore: -0.05, OCSVMAnomaly: false, OCSVMScore: 0.9, ConsensusAnomaly: false},
	}
	store, err := dataset.New(patients, anomalies)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return NewEngine(store)
}

func all(int) bool { return true }

// ---------------------------------------------------------------------------
// Summary and counts
// ---------------------------------------------------------------------------

func TestSummary(t *testing.T) {
	e := newTestEngine(t)
	s, err := e.Summary(all, []string{dataset.ColAge, dataset.ColScaledBMI})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Count != 4 {
		t.Fatalf("count = %d, want 4", s.Count)
	}
	age := s.Stats[dataset.ColAge]
	if !age.Defined || age.Mean != 42.5 || age.Min != 20 || age.Max != 70 {
		t.Fatalf("age stats = %+v", age)
	}
	bmi := s.Stats[dataset.ColScaledBMI]
	if !bmi.Defined || math.Abs(bmi.Mean-28.5) > 1e-9 {
		t.Fatalf("scaled bmi mean = %v", bmi.Mean)
	}
}

func TestSummary_UnknownColumn(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.Summary(all, []string{"cholesterol"}); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestCountFlag_ConsensusMatchesUpstream(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.CountFlag(all, dataset.FlagConsensus)
	if err != nil {
		t.Fatalf("CountFlag: %v", err)
	}
	if got != 1 {
		t.Fatalf("consensus count = %d, want 1", got)
	}
}

// ---------------------------------------------------------------------------
// Grouped counts
// ---------------------------------------------------------------------------

func TestGroupedCounts_SingleDimDeclaredOrder(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.GroupedCounts(all, []string{dataset.DimBMICategory})
	if err != nil {
		t.Fatalf("GroupedCounts: %v", err)
	}

	want := []struct {
		key   string
		count int
	}{
		{"Underweight", 0},
		{"Normal", 1},
		{"Overweight", 1},
		{"Obese", 1},
		{"Severely Obese", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d groups, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Keys[0] != w.key || got[i].Count != w.count {
			t.Fatalf("group[%d] = %v/%d, want %s/%d", i, got[i].Keys, got[i].Count, w.key, w.count)
		}
	}
}

func TestGroupedCounts_TwoDims(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.GroupedCounts(all, []string{dataset.DimAgeGroup, dataset.DimStatus})
	if err != nil {
		t.Fatalf("GroupedCounts: %v", err)
	}
	if len(got) != 12 { // 6 age groups x 2 statuses, zero groups included
		t.Fatalf("got %d cells, want 12", len(got))
	}

	lookup := make(map[string]int)
	for _, g := range got {
		lookup[g.Keys[0]+"|"+g.Keys[1]] = g.Count
	}
	if lookup["<25|Healthy"] != 1 {
		t.Fatalf("<25/Healthy = %d, want 1", lookup["<25|Healthy"])
	}
	if lookup["65+|Diabetic"] != 1 {
		t.Fatalf("65+/Diabetic = %d, want 1", lookup["65+|Diabetic"])
	}
	if lookup["36-45|Healthy"] != 0 || lookup["36-45|Diabetic"] != 0 {
		t.Fatal("empty age group should carry zero counts")
	}

	// Primary dimension outer, declared order.
	if got[0].Keys[0] != "<25" || got[0].Keys[1] != "Healthy" {
		t.Fatalf("first cell = %v", got[0].Keys)
	}
	if got[len(got)-1].Keys[0] != "65+" || got[len(got)-1].Keys[1] != "Diabetic" {
		t.Fatalf("last cell = %v", got[len(got)-1].Keys)
	}
}

func TestGroupedCounts_DimensionArity(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.GroupedCounts(all, nil); err == nil {
		t.Fatal("zero dimensions accepted")
	}
	if _, err := e.GroupedCounts(all, []string{dataset.DimStatus, dataset.DimAgeGroup, dataset.DimBMICategory}); err == nil {
		t.Fatal("three dimensions accepted")
	}
}

// ---------------------------------------------------------------------------
// Time-bucketed means
// ---------------------------------------------------------------------------

func TestTimeBucketedMeans_Monthly(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.TimeBucketedMeans(all, dataset.ColFastingGlucose, "", PeriodMonthly)
	if err != nil {
		t.Fatalf("TimeBucketedMeans: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got))
	}
	if got[0].Bucket != "2023-01" {
		t.Fatalf("bucket = %q, want 2023-01", got[0].Bucket)
	}
	if math.Abs(got[0].Mean-131.25) > 1e-9 {
		t.Fatalf("mean = %v, want 131.25", got[0].Mean)
	}
}

func TestTimeBucketedMeans_MonthlySplitByStatus(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.TimeBucketedMeans(all, dataset.ColFastingGlucose, dataset.DimStatus, PeriodMonthly)
	if err != nil {
		t.Fatalf("TimeBucketedMeans: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d series cells, want 2", len(got))
	}
	// Declared status order within the bucket.
	if got[0].Group != "Healthy" || math.Abs(got[0].Mean-92.5) > 1e-9 {
		t.Fatalf("first cell = %+v", got[0])
	}
	if got[1].Group != "Diabetic" || math.Abs(got[1].Mean-170) > 1e-9 {
		t.Fatalf("second cell = %+v", got[1])
	}
}

func TestTimeBucketedMeans_DailyChronological(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.TimeBucketedMeans(all, dataset.ColHbA1c, "", PeriodDaily)
	if err != nil {
		t.Fatalf("TimeBucketedMeans: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d buckets, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Start.Before(got[i].Start) {
			t.Fatalf("buckets out of order at %d: %v then %v", i, got[i-1].Start, got[i].Start)
		}
	}
	if got[0].Bucket != "2023-01-01" || got[3].Bucket != "2023-01-04" {
		t.Fatalf("bucket keys = %q .. %q", got[0].Bucket, got[3].Bucket)
	}
}

func TestTimeBucketedMeans_WeeklyMondayStart(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.TimeBucketedMeans(all, dataset.ColFastingGlucose, "", PeriodWeekly)
	if err != nil {
		t.Fatalf("TimeBucketedMeans: %v", err)
	}
	// Row 0 (Sunday 2023-01-01) belongs to the week starting Monday
	// 2022-12-26; rows 1-3 to the week of 2023-01-02.
	if len(got) != 2 {
		t.Fatalf("got %d buckets, want 2", len(got))
	}
	if got[0].Bucket != "2022-12-26" || got[0].N != 1 || got[0].Mean != 90 {
		t.Fatalf("first week = %+v", got[0])
	}
	if got[1].Bucket != "2023-01-02" || got[1].N != 3 || math.Abs(got[1].Mean-145) > 1e-9 {
		t.Fatalf("second week = %+v", got[1])
	}
}

// ---------------------------------------------------------------------------
// Histograms
// ---------------------------------------------------------------------------

func TestHistogram(t *testing.T) {
	e := newTestEngine(t)
	h, err := e.Histogram(all, dataset.ColAge, 2, "")
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(h.Bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(h.Bins))
	}
	if h.Bins[0].Lo != 20 || h.Bins[1].Hi != 70 {
		t.Fatalf("bin span = [%v, %v], want [20, 70]", h.Bins[0].Lo, h.Bins[1].Hi)
	}
	if len(h.Series) != 1 {
		t.Fatalf("got %d series, want 1", len(h.Series))
	}
	// Ages 20,30 in [20,45); 50 and the max 70 in the closed last bin.
	if h.Series[0].Counts[0] != 2 || h.Series[0].Counts[1] != 2 {
		t.Fatalf("counts = %v", h.Series[0].Counts)
	}
}

func TestHistogram_SplitSharesBins(t *testing.T) {
	e := newTestEngine(t)
	h, err := e.Histogram(all, dataset.ColAge, 2, dataset.DimStatus)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(h.Series) != 2 {
		t.Fatalf("got %d series, want 2", len(h.Series))
	}
	if h.Series[0].Group != "Healthy" || h.Series[1].Group != "Diabetic" {
		t.Fatalf("series order = %s, %s", h.Series[0].Group, h.Series[1].Group)
	}
	if h.Series[0].Counts[0] != 2 || h.Series[0].Counts[1] != 0 {
		t.Fatalf("healthy counts = %v", h.Series[0].Counts)
	}
	if h.Series[1].Counts[0] != 0 || h.Series[1].Counts[1] != 2 {
		t.Fatalf("diabetic counts = %v", h.Series[1].Counts)
	}
}

func TestHistogram_EmptySubset(t *testing.T) {
	e := newTestEngine(t)
	h, err := e.Histogram(func(int) bool { return false }, dataset.ColAge, 10, "")
	if err != nil {
		t.Fatalf("Histogram over empty subset: %v", err)
	}
	if len(h.Bins) != 0 || len(h.Series) != 0 {
		t.Fatalf("empty subset produced %d bins, %d series", len(h.Bins), len(h.Series))
	}
}

func TestHistogramOfValues(t *testing.T) {
	bins, counts := HistogramOfValues([]float64{0, 1, 2, 3, 4}, 2)
	if len(bins) != 2 || len(counts) != 2 {
		t.Fatalf("got %d bins, %d counts", len(bins), len(counts))
	}
	if counts[0] != 2 || counts[1] != 3 {
		t.Fatalf("counts = %v", counts)
	}

	// Identical values collapse into a single degenerate bin.
	bins, counts = HistogramOfValues([]float64{7, 7, 7}, 5)
	if len(bins) != 1 || counts[0] != 3 {
		t.Fatalf("degenerate histogram = %v / %v", bins, counts)
	}

	if bins, counts := HistogramOfValues(nil, 5); bins != nil || counts != nil {
		t.Fatal("empty input should produce nil histogram")
	}
}

// ---------------------------------------------------------------------------
// Correlation matrix
// ---------------------------------------------------------------------------

func TestCorrelationMatrix_Properties(t *testing.T) {
	e := newTestEngine(t)
	m, err := e.CorrelationMatrix(all, dataset.CorrelationColumns)
	if err != nil {
		t.Fatalf("CorrelationMatrix: %v", err)
	}
	k := len(dataset.CorrelationColumns)
	if len(m.Labels) != k || len(m.Values) != k {
		t.Fatalf("matrix is %dx%d, want %dx%d", len(m.Values), len(m.Values[0]), k, k)
	}
	for a := 0; a < k; a++ {
		if m.Values[a][a] != 1.0 {
			t.Fatalf("diagonal[%d] = %v, want exactly 1.0", a, m.Values[a][a])
		}
		for b := 0; b < k; b++ {
			if math.Abs(m.Values[a][b]-m.Values[b][a]) > 1e-9 {
				t.Fatalf("asymmetry at (%d,%d): %v vs %v", a, b, m.Values[a][b], m.Values[b][a])
			}
			if m.Values[a][b] < -1 || m.Values[a][b] > 1 {
				t.Fatalf("value out of [-1,1] at (%d,%d): %v", a, b, m.Values[a][b])
			}
		}
	}
}

func TestCorrelationMatrix_PerfectCorrelation(t *testing.T) {
	// weight = 2*age in the fixture.
	e := newTestEngine(t)
	m, err := e.CorrelationMatrix(all, []string{dataset.ColAge, dataset.ColWeight})
	if err != nil {
		t.Fatalf("CorrelationMatrix: %v", err)
	}
	if math.Abs(m.Values[0][1]-1.0) > 1e-9 {
		t.Fatalf("corr(age, weight) = %v, want 1.0", m.Values[0][1])
	}
}

func TestCorrelationMatrix_ZeroVariance(t *testing.T) {
	// Restricted to healthy rows the status code is constant, so its
	// correlations are undefined; the engine reports 0, not NaN.
	e := newTestEngine(t)
	pred, err := Resolve(e.Store(), Filters{Status: OneCategory(dataset.StatusHealthy)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	m, err := e.CorrelationMatrix(pred, []string{dataset.ColAge, dataset.ColDiabetesStatus})
	if err != nil {
		t.Fatalf("CorrelationMatrix: %v", err)
	}
	if m.Values[0][1] != 0 {
		t.Fatalf("zero-variance correlation = %v, want 0", m.Values[0][1])
	}
	if m.Values[1][1] != 1.0 {
		t.Fatal("diagonal must stay 1.0 even for a constant column")
	}
}

func TestCorrelationMatrix_InsufficientData(t *testing.T) {
	e := newTestEngine(t)
	one := func(i int) bool { return i == 0 }
	_, err := e.CorrelationMatrix(one, dataset.CorrelationColumns)
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Box stats and scatter
// ---------------------------------------------------------------------------

func TestBoxStatsBy(t *testing.T) {
	e := newTestEngine(t)
	got, err := e.BoxStatsBy(all, dataset.ColFastingGlucose, dataset.DimStatus)
	if err != nil {
		t.Fatalf("BoxStatsBy: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	healthy := got[0]
	if healthy.Group != "Healthy" || healthy.N != 2 {
		t.Fatalf("first group = %+v", healthy)
	}
	if healthy.Min != 90 || healthy.Max != 95 || math.Abs(healthy.Median-92.5) > 1e-9 {
		t.Fatalf("healthy box = %+v", healthy)
	}
}

func TestScatterPoints_DropsNullPairs(t *testing.T) {
	patients := []dataset.PatientRecord{
		{ID: 0, Age: f(20), FastingGlucose: f(90), DiabetesCode: code(0)},
		{ID: 1, Age: f(30), DiabetesCode: code(0)}, // glucose null
		{ID: 2, FastingGlucose: f(100), DiabetesCode: code(1)}, // age null
	}
	store, err := dataset.New(patients, nil)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	e := NewEngine(store)

	groups, err := e.ScatterPoints(all, dataset.ColAge, dataset.ColFastingGlucose, dataset.DimStatus)
	if err != nil {
		t.Fatalf("ScatterPoints: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].Group != "Healthy" || len(groups[0].Points) != 1 {
		t.Fatalf("group = %+v", groups[0])
	}
}
