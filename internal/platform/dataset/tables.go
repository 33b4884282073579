package dataset

import "fmt"

// PatientRecord is one raw patient row as delivered by a table source,
// before derived columns are computed. Pointer fields are null when the
// source had no value for that cell.
type PatientRecord struct {
	ID             int64    `json:"id"`
	Age            *float64 `json:"age,omitempty"`
	Height         *float64 `json:"height,omitempty"`
	Weight         *float64 `json:"weight,omitempty"`
	BMI            *float64 `json:"bmi,omitempty"`
	FastingGlucose *float64 `json:"fasting_glucose,omitempty"`
	HbA1c          *float64 `json:"hba1c,omitempty"`
	DiabetesCode   *int     `json:"diabetes_code,omitempty"`
}

// ModelEvaluation is one precomputed model-evaluation row, keyed by
// (Model, Split).
type ModelEvaluation struct {
	Model     string  `json:"model"`
	Split     string  `json:"split"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
}

// Recognized evaluation splits, in reporting order.
var Splits = []string{"Train", "Validation", "Test"}

// AnomalyResult is one precomputed anomaly-detection row, keyed by
// PatientID. ConsensusAnomaly must equal IsoAnomaly AND OCSVMAnomaly;
// the engine consumes the flag but verifies the invariant at load.
type AnomalyResult struct {
	PatientID        int64   `json:"patient_id"`
	IsoAnomaly       bool    `json:"iso_anomaly"`
	IsoScore         float64 `json:"iso_score"`
	OCSVMAnomaly     bool    `json:"ocsvm_anomaly"`
	OCSVMScore       float64 `json:"ocsvm_score"`
	ConsensusAnomaly bool    `json:"consensus_anomaly"`
}

// LoadError is a fatal initialization failure: a malformed input table or
// a broken upstream invariant. The server never serves requests after a
// LoadError.
type LoadError struct {
	Table  string
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.Table, e.Reason)
}

// ValidateModelEvaluations checks the model-evaluation table invariants:
// at most one row per (model, split), recognized split names, and every
// metric within [0,1].
func ValidateModelEvaluations(evals []ModelEvaluation) error {
	seen := make(map[string]bool, len(evals))
	for _, ev := range evals {
		if ev.Model == "" {
			return &LoadError{Table: "model_evaluation", Reason: "empty model name"}
		}
		if !validSplit(ev.Split) {
			return &LoadError{
				Table:  "model_evaluation",
				Reason: fmt.Sprintf("unknown split %q for model %q", ev.Split, ev.Model),
			}
		}
		key := ev.Model + "\x00" + ev.Split
		if seen[key] {
			return &LoadError{
				Table:  "model_evaluation",
				Reason: fmt.Sprintf("duplicate row for (%s, %s)", ev.Model, ev.Split),
			}
		}
		seen[key] = true

		for name, v := range map[string]float64{
			"accuracy": ev.Accuracy, "precision": ev.Precision,
			"recall": ev.Recall, "f1": ev.F1, "roc_auc": ev.ROCAUC,
		} {
			if v < 0 || v > 1 {
				return &LoadError{
					Table:  "model_evaluation",
					Reason: fmt.Sprintf("metric %s out of [0,1] for (%s, %s): %v", name, ev.Model, ev.Split, v),
				}
			}
		}
	}
	return nil
}

func validSplit(s string) bool {
	for _, known := range Splits {
		if s == known {
			return true
		}
	}
	return false
}

// ValidateAnomalies verifies the upstream consensus invariant
// consensus = iso AND ocsvm for every row, and that patient IDs are
// unique within the table.
func ValidateAnomalies(results []AnomalyResult) error {
	seen := make(map[int64]bool, len(results))
	for _, r := range results {
		if seen[r.PatientID] {
			return &LoadError{
				Table:  "anomaly_result",
				Reason: fmt.Sprintf("duplicate patient_id %d", r.PatientID),
			}
		}
		seen[r.PatientID] = true

		if r.ConsensusAnomaly != (r.IsoAnomaly && r.OCSVMAnomaly) {
			return &LoadError{
				Table: "anomaly_result",
				Reason: fmt.Sprintf(
					"consensus invariant broken for patient_id %d: consensus=%t iso=%t ocsvm=%t",
					r.PatientID, r.ConsensusAnomaly, r.IsoAnomaly, r.OCSVMAnomaly),
			}
		}
	}
	return nil
}
