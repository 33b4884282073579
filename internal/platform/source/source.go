package source

import (
	"context"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// Tables holds the three input tables exactly as loaded, before any
// derivation or joining.
type Tables struct {
	Patients    []dataset.PatientRecord
	Evaluations []dataset.ModelEvaluation
	Anomalies   []dataset.AnomalyResult
}

// Source loads the input tables from a backing store. Implementations
// return a LoadError for malformed input; the caller treats any error as
// fatal.
type Source interface {
	Load(ctx context.Context) (*Tables, error)
}
