package dataset

import (
	"fmt"
	"time"
)

// Numeric column names.
const (
	ColAge            = "age"
	ColHeight         = "height"
	ColWeight         = "weight"
	ColBMI            = "bmi"
	ColScaledBMI      = "scaled_bmi"
	ColFastingGlucose = "fasting_glucose"
	ColHbA1c          = "hba1c"
	ColDiabetesStatus = "diabetes_status"
	ColIsoScore       = "iso_score"
	ColOCSVMScore     = "ocsvm_score"
)

// Categorical dimension names.
const (
	DimAgeGroup    = "age_group"
	DimBMICategory = "bmi_category"
	DimStatus      = "diabetes_status"
)

// Anomaly flag column names.
const (
	FlagIso       = "iso_anomaly"
	FlagOCSVM     = "ocsvm_anomaly"
	FlagConsensus = "consensus_anomaly"
)

// CorrelationColumns is the fixed, ordered column set used for the
// correlation matrix. diabetes_status participates as its 0/1 code.
var CorrelationColumns = []string{
	ColAge, ColHeight, ColWeight, ColBMI, ColFastingGlucose, ColHbA1c, ColDiabetesStatus,
}

// FloatColumn is a nullable float64 column.
type FloatColumn struct {
	values []float64
	valid  []bool
}

// Value returns the cell at row i and whether it is non-null.
func (c *FloatColumn) Value(i int) (float64, bool) {
	return c.values[i], c.valid[i]
}

// Len returns the number of rows.
func (c *FloatColumn) Len() int { return len(c.values) }

// StringColumn is a nullable string column (derived categories).
type StringColumn struct {
	values []string
	valid  []bool
}

// Value returns the cell at row i and whether it is non-null.
func (c *StringColumn) Value(i int) (string, bool) {
	return c.values[i], c.valid[i]
}

// BoolColumn is a nullable bool column (joined anomaly flags; rows with
// no matching anomaly result are null, not false).
type BoolColumn struct {
	values []bool
	valid  []bool
}

// Value returns the cell at row i and whether it is non-null.
func (c *BoolColumn) Value(i int) (bool, bool) {
	return c.values[i], c.valid[i]
}

// Store is the immutable, fully joined in-memory table every aggregate
// is computed over. It is built exactly once at startup and never
// mutated afterwards, so concurrent readers need no locking.
type Store struct {
	n          int
	ids        []int64
	numeric    map[string]*FloatColumn
	categories map[string]*StringColumn
	flags      map[string]*BoolColumn
	times      []time.Time
	months     []string
	order      map[string][]string
}

// New builds the Store from the raw patient table and the anomaly-result
// table: derives the categorical and time columns, verifies the anomaly
// consensus invariant, and left-joins anomaly results by patient id.
func New(patients []PatientRecord, anomalies []AnomalyResult) (*Store, error) {
	if len(patients) == 0 {
		return nil, &LoadError{Table: "patient", Reason: "no rows"}
	}
	if err := ValidateAnomalies(anomalies); err != nil {
		return nil, err
	}

	n := len(patients)
	s := &Store{
		n:          n,
		ids:        make([]int64, n),
		numeric:    make(map[string]*FloatColumn),
		categories: make(map[string]*StringColumn),
		flags:      make(map[string]*BoolColumn),
		times:      make([]time.Time, n),
		months:     make([]string, n),
		order: map[string][]string{
			DimAgeGroup:    append([]string(nil), ageLabels...),
			DimBMICategory: append([]string(nil), bmiLabels...),
			DimStatus:      append([]string(nil), statusLabels...),
		},
	}

	for _, col := range []string{
		ColAge, ColHeight, ColWeight, ColBMI, ColScaledBMI,
		ColFastingGlucose, ColHbA1c, ColDiabetesStatus,
		ColIsoScore, ColOCSVMScore,
	} {
		s.numeric[col] = &FloatColumn{values: make([]float64, n), valid: make([]bool, n)}
	}
	for _, dim := range []string{DimAgeGroup, DimBMICategory, DimStatus} {
		s.categories[dim] = &StringColumn{values: make([]string, n), valid: make([]bool, n)}
	}
	for _, flag := range []string{FlagIso, FlagOCSVM, FlagConsensus} {
		s.flags[flag] = &BoolColumn{values: make([]bool, n), valid: make([]bool, n)}
	}

	byID := make(map[int64]AnomalyResult, len(anomalies))
	for _, a := range anomalies {
		byID[a.PatientID] = a
	}

	seen := make(map[int64]bool, n)
	for i, p := range patients {
		if seen[p.ID] {
			return nil, &LoadError{Table: "patient", Reason: fmt.Sprintf("duplicate id %d", p.ID)}
		}
		seen[p.ID] = true
		s.ids[i] = p.ID

		s.setNumeric(ColAge, i, p.Age)
		s.setNumeric(ColHeight, i, p.Height)
		s.setNumeric(ColWeight, i, p.Weight)
		s.setNumeric(ColBMI, i, p.BMI)
		s.setNumeric(ColFastingGlucose, i, p.FastingGlucose)
		s.setNumeric(ColHbA1c, i, p.HbA1c)

		if p.BMI != nil {
			scaled := *p.BMI * BMIScale
			s.numeric[ColScaledBMI].values[i] = scaled
			s.numeric[ColScaledBMI].valid[i] = true
			if label, ok := BMICategory(scaled); ok {
				s.setCategory(DimBMICategory, i, label)
			}
		}
		if p.Age != nil {
			if label, ok := AgeGroup(*p.Age); ok {
				s.setCategory(DimAgeGroup, i, label)
			}
		}
		if p.DiabetesCode != nil {
			label, ok := StatusLabel(*p.DiabetesCode)
			if !ok {
				return nil, &LoadError{
					Table:  "patient",
					Reason: fmt.Sprintf("unknown diabetes code %d for id %d", *p.DiabetesCode, p.ID),
				}
			}
			s.setCategory(DimStatus, i, label)
			s.numeric[ColDiabetesStatus].values[i] = float64(*p.DiabetesCode)
			s.numeric[ColDiabetesStatus].valid[i] = true
		}

		s.times[i] = RowTimestamp(i)
		s.months[i] = MonthBucket(s.times[i])

		if a, ok := byID[p.ID]; ok {
			s.setFlag(FlagIso, i, a.IsoAnomaly)
			s.setFlag(FlagOCSVM, i, a.OCSVMAnomaly)
			s.setFlag(FlagConsensus, i, a.ConsensusAnomaly)
			s.numeric[ColIsoScore].values[i] = a.IsoScore
			s.numeric[ColIsoScore].valid[i] = true
			s.numeric[ColOCSVMScore].values[i] = a.OCSVMScore
			s.numeric[ColOCSVMScore].valid[i] = true
		}
	}

	return s, nil
}

func (s *Store) setNumeric(col string, i int, v *float64) {
	if v == nil {
		return
	}
	c := s.numeric[col]
	c.values[i] = *v
	c.valid[i] = true
}

func (s *Store) setCategory(dim string, i int, label string) {
	c := s.categories[dim]
	c.values[i] = label
	c.valid[i] = true
}

func (s *Store) setFlag(flag string, i int, v bool) {
	c := s.flags[flag]
	c.values[i] = v
	c.valid[i] = true
}

// Len returns the number of patient rows.
func (s *Store) Len() int { return s.n }

// ID returns the patient id at row i.
func (s *Store) ID(i int) int64 { return s.ids[i] }

// Numeric returns a numeric column by name.
func (s *Store) Numeric(col string) (*FloatColumn, bool) {
	c, ok := s.numeric[col]
	return c, ok
}

// Category returns a categorical column by dimension name.
func (s *Store) Category(dim string) (*StringColumn, bool) {
	c, ok := s.categories[dim]
	return c, ok
}

// Flag returns an anomaly flag column by name.
func (s *Store) Flag(name string) (*BoolColumn, bool) {
	c, ok := s.flags[name]
	return c, ok
}

// Timestamp returns the synthetic timestamp at row i.
func (s *Store) Timestamp(i int) time.Time { return s.times[i] }

// Month returns the calendar-month bucket at row i.
func (s *Store) Month(i int) string { return s.months[i] }

// CategoryOrder returns the declared label order for a dimension. Group
// ordering in every aggregate follows this order, never discovery or
// alphabetical order.
func (s *Store) CategoryOrder(dim string) ([]string, bool) {
	labels, ok := s.order[dim]
	if !ok {
		return nil, false
	}
	return append([]string(nil), labels...), true
}

// ValidCategory reports whether value is a declared label of dim.
func (s *Store) ValidCategory(dim, value string) bool {
	labels, ok := s.order[dim]
	if !ok {
		return false
	}
	for _, l := range labels {
		if l == value {
			return true
		}
	}
	return false
}
