package anomaly

import (
	"github.com/glycoview/glycoview/internal/analytics"
	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// ScoreBins is the bin count for detector score distributions.
const ScoreBins = 50

// Scatter labels for the consensus split.
const (
	LabelNormal  = "Normal"
	LabelAnomaly = "Anomaly"
)

// Service answers anomaly questions over the joined store plus the raw
// detector scores, which keep their full resolution outside the store.
type Service struct {
	engine  *analytics.Engine
	results []dataset.AnomalyResult
}

// NewService validates the anomaly table and wraps it with the engine.
func NewService(engine *analytics.Engine, results []dataset.AnomalyResult) (*Service, error) {
	if err := dataset.ValidateAnomalies(results); err != nil {
		return nil, err
	}
	return &Service{
		engine:  engine,
		results: append([]dataset.AnomalyResult(nil), results...),
	}, nil
}

// Counts holds the per-detector anomaly counts for one filtered subset.
type Counts struct {
	Iso       int `json:"iso_anomalies"`
	OCSVM     int `json:"ocsvm_anomalies"`
	Consensus int `json:"consensus_anomalies"`
}

// Counts tallies each detector's flagged rows within the filtered
// subset. Patients with no anomaly row never count.
func (s *Service) Counts(p analytics.Predicate) (Counts, error) {
	var c Counts
	var err error
	if c.Iso, err = s.engine.CountFlag(p, dataset.FlagIso); err != nil {
		return Counts{}, err
	}
	if c.OCSVM, err = s.engine.CountFlag(p, dataset.FlagOCSVM); err != nil {
		return Counts{}, err
	}
	if c.Consensus, err = s.engine.CountFlag(p, dataset.FlagConsensus); err != nil {
		return Counts{}, err
	}
	return c, nil
}

// ScoreHistogram is one detector's score distribution over the full
// anomaly table.
type ScoreHistogram struct {
	Detector string                   `json:"detector"`
	Bins     []analytics.HistogramBin `json:"bins"`
	Counts   []int                    `json:"counts"`
}

// ScoreHistograms bins the raw isolation-forest and one-class-SVM scores.
// Scores describe the detector runs themselves, so filters do not apply.
func (s *Service) ScoreHistograms() []ScoreHistogram {
	iso := make([]float64, 0, len(s.results))
	ocsvm := make([]float64, 0, len(s.results))
	for _, r := range s.results {
		iso = append(iso, r.IsoScore)
		ocsvm = append(ocsvm, r.OCSVMScore)
	}

	var out []ScoreHistogram
	for _, d := range []struct {
		name   string
		scores []float64
	}{
		{"isolation_forest", iso},
		{"one_class_svm", ocsvm},
	} {
		bins, counts := analytics.HistogramOfValues(d.scores, ScoreBins)
		if bins == nil {
			continue
		}
		out = append(out, ScoreHistogram{Detector: d.name, Bins: bins, Counts: counts})
	}
	return out
}

// ConsensusScatter gathers (scaled_bmi, fasting_glucose) pairs from the
// filtered subset, labeled Normal or Anomaly by the consensus flag. Rows
// without an anomaly verdict or with a null on either axis are dropped.
// Normal comes first so the anomaly markers draw on top.
func (s *Service) ConsensusScatter(p analytics.Predicate) ([]analytics.ScatterGroup, error) {
	store := s.engine.Store()
	xs, _ := store.Numeric(dataset.ColScaledBMI)
	ys, _ := store.Numeric(dataset.ColFastingGlucose)
	flags, _ := store.Flag(dataset.FlagConsensus)

	byLabel := map[string][]analytics.Point{}
	for i := 0; i < store.Len(); i++ {
		if !p(i) {
			continue
		}
		flagged, known := flags.Value(i)
		if !known {
			continue
		}
		x, xValid := xs.Value(i)
		y, yValid := ys.Value(i)
		if !xValid || !yValid {
			continue
		}
		label := LabelNormal
		if flagged {
			label = LabelAnomaly
		}
		byLabel[label] = append(byLabel[label], analytics.Point{X: x, Y: y})
	}

	var out []analytics.ScatterGroup
	for _, label := range []string{LabelNormal, LabelAnomaly} {
		if pts := byLabel[label]; len(pts) > 0 {
			out = append(out, analytics.ScatterGroup{Group: label, Points: pts})
		}
	}
	return out, nil
}
