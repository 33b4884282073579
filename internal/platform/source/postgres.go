package source

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// PostgresSource loads the input tables from Postgres. The tables are
// read once at startup; the pool can be closed afterwards.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Load(ctx context.Context) (*Tables, error) {
	t := &Tables{}
	var err error
	if t.Patients, err = s.loadPatients(ctx); err != nil {
		return nil, &dataset.LoadError{Table: "patients", Reason: err.Error()}
	}
	if t.Evaluations, err = s.loadEvaluations(ctx); err != nil {
		return nil, &dataset.LoadError{Table: "model_evaluations", Reason: err.Error()}
	}
	if t.Anomalies, err = s.loadAnomalies(ctx); err != nil {
		return nil, &dataset.LoadError{Table: "anomalies", Reason: err.Error()}
	}
	return t, nil
}

func (s *PostgresSource) loadPatients(ctx context.Context) ([]dataset.PatientRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, age, height, weight, bmi, fasting_glucose, hba1c, diabetes_code
		FROM patients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAll(rows, func(row pgx.Rows) (dataset.PatientRecord, error) {
		var p dataset.PatientRecord
		err := row.Scan(&p.ID, &p.Age, &p.Height, &p.Weight, &p.BMI,
			&p.FastingGlucose, &p.HbA1c, &p.DiabetesCode)
		return p, err
	})
}

func (s *PostgresSource) loadEvaluations(ctx context.Context) ([]dataset.ModelEvaluation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT model, split, accuracy, precision, recall, f1, roc_auc
		FROM model_evaluations ORDER BY model, split`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAll(rows, func(row pgx.Rows) (dataset.ModelEvaluation, error) {
		var ev dataset.ModelEvaluation
		err := row.Scan(&ev.Model, &ev.Split, &ev.Accuracy, &ev.Precision,
			&ev.Recall, &ev.F1, &ev.ROCAUC)
		return ev, err
	})
}

func (s *PostgresSource) loadAnomalies(ctx context.Context) ([]dataset.AnomalyResult, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT patient_id, iso_anomaly, iso_score, ocsvm_anomaly, ocsvm_score, consensus_anomaly
		FROM anomalies ORDER BY patient_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAll(rows, func(row pgx.Rows) (dataset.AnomalyResult, error) {
		var r dataset.AnomalyResult
		err := row.Scan(&r.PatientID, &r.IsoAnomaly, &r.IsoScore,
			&r.OCSVMAnomaly, &r.OCSVMScore, &r.ConsensusAnomaly)
		return r, err
	})
}

func scanAll[T any](rows pgx.Rows, scan func(pgx.Rows) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
