package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// CSVSource loads the input tables from three CSV files with header
// rows. Empty cells in nullable patient columns load as nulls.
type CSVSource struct {
	PatientsPath    string
	EvaluationsPath string
	AnomaliesPath   string
}

func NewCSVSource(patients, evaluations, anomalies string) *CSVSource {
	return &CSVSource{
		PatientsPath:    patients,
		EvaluationsPath: evaluations,
		AnomaliesPath:   anomalies,
	}
}

func (s *CSVSource) Load(ctx context.Context) (*Tables, error) {
	t := &Tables{}
	var err error
	if t.Patients, err = s.loadPatients(); err != nil {
		return nil, err
	}
	if t.Evaluations, err = s.loadEvaluations(); err != nil {
		return nil, err
	}
	if t.Anomalies, err = s.loadAnomalies(); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *CSVSource) loadPatients() ([]dataset.PatientRecord, error) {
	const table = "patients"
	rows, idx, err := readTable(table, s.PatientsPath,
		"id", "age", "height", "weight", "bmi", "fasting_glucose", "hba1c", "diabetes_code")
	if err != nil {
		return nil, err
	}

	out := make([]dataset.PatientRecord, 0, len(rows))
	for n, rec := range rows {
		var p dataset.PatientRecord
		p.ID, err = strconv.ParseInt(rec[idx["id"]], 10, 64)
		if err != nil {
			return nil, rowError(table, n, "id", rec[idx["id"]])
		}
		for _, c := range []struct {
			col string
			dst **float64
		}{
			{"age", &p.Age}, {"height", &p.Height}, {"weight", &p.Weight},
			{"bmi", &p.BMI}, {"fasting_glucose", &p.FastingGlucose}, {"hba1c", &p.HbA1c},
		} {
			*c.dst, err = optFloat(rec[idx[c.col]])
			if err != nil {
				return nil, rowError(table, n, c.col, rec[idx[c.col]])
			}
		}
		p.DiabetesCode, err = optInt(rec[idx["diabetes_code"]])
		if err != nil {
			return nil, rowError(table, n, "diabetes_code", rec[idx["diabetes_code"]])
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *CSVSource) loadEvaluations() ([]dataset.ModelEvaluation, error) {
	const table = "model_evaluations"
	rows, idx, err := readTable(table, s.EvaluationsPath,
		"model", "split", "accuracy", "precision", "recall", "f1", "roc_auc")
	if err != nil {
		return nil, err
	}

	out := make([]dataset.ModelEvaluation, 0, len(rows))
	for n, rec := range rows {
		ev := dataset.ModelEvaluation{
			Model: rec[idx["model"]],
			Split: rec[idx["split"]],
		}
		for _, c := range []struct {
			col string
			dst *float64
		}{
			{"accuracy", &ev.Accuracy}, {"precision", &ev.Precision},
			{"recall", &ev.Recall}, {"f1", &ev.F1}, {"roc_auc", &ev.ROCAUC},
		} {
			*c.dst, err = strconv.ParseFloat(rec[idx[c.col]], 64)
			if err != nil {
				return nil, rowError(table, n, c.col, rec[idx[c.col]])
			}
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *CSVSource) loadAnomalies() ([]dataset.AnomalyResult, error) {
	const table = "anomalies"
	rows, idx, err := readTable(table, s.AnomaliesPath,
		"patient_id", "iso_anomaly", "iso_score", "ocsvm_anomaly", "ocsvm_score", "consensus_anomaly")
	if err != nil {
		return nil, err
	}

	out := make([]dataset.AnomalyResult, 0, len(rows))
	for n, rec := range rows {
		var r dataset.AnomalyResult
		r.PatientID, err = strconv.ParseInt(rec[idx["patient_id"]], 10, 64)
		if err != nil {
			return nil, rowError(table, n, "patient_id", rec[idx["patient_id"]])
		}
		for _, c := range []struct {
			col string
			dst *bool
		}{
			{"iso_anomaly", &r.IsoAnomaly}, {"ocsvm_anomaly", &r.OCSVMAnomaly},
			{"consensus_anomaly", &r.ConsensusAnomaly},
		} {
			*c.dst, err = parseBool(rec[idx[c.col]])
			if err != nil {
				return nil, rowError(table, n, c.col, rec[idx[c.col]])
			}
		}
		for _, c := range []struct {
			col string
			dst *float64
		}{
			{"iso_score", &r.IsoScore}, {"ocsvm_score", &r.OCSVMScore},
		} {
			*c.dst, err = strconv.ParseFloat(rec[idx[c.col]], 64)
			if err != nil {
				return nil, rowError(table, n, c.col, rec[idx[c.col]])
			}
		}
		out = append(out, r)
	}
	return out, nil
}

// readTable reads a CSV file and verifies every required column is
// present, returning the data rows and the header index.
func readTable(table, path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &dataset.LoadError{Table: table, Reason: err.Error()}
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, &dataset.LoadError{Table: table, Reason: err.Error()}
	}
	if len(records) == 0 {
		return nil, nil, &dataset.LoadError{Table: table, Reason: "missing header row"}
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[strings.TrimSpace(name)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, &dataset.LoadError{
				Table:  table,
				Reason: fmt.Sprintf("missing required column %q", col),
			}
		}
	}
	return records[1:], idx, nil
}

func rowError(table string, row int, col, value string) error {
	return &dataset.LoadError{
		Table:  table,
		Reason: fmt.Sprintf("row %d: bad %s value %q", row+1, col, value),
	}
}

func optFloat(cell string) (*float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optInt(cell string) (*int, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(cell)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseBool(cell string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "1", "true", "t":
		return true, nil
	case "0", "false", "f":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", cell)
}
