package analytics

import (
	"fmt"

	"github.com/glycoview/glycoview/internal/platform/dataset"
)

// CategoryFilter is an optional constraint on one categorical dimension.
// The zero value is unconstrained; there is no "all" sentinel anywhere in
// the core.
type CategoryFilter struct {
	constrained bool
	value       string
}

// AnyCategory returns an unconstrained CategoryFilter.
func AnyCategory() CategoryFilter { return CategoryFilter{} }

// OneCategory returns a CategoryFilter constrained to value.
func OneCategory(value string) CategoryFilter {
	return CategoryFilter{constrained: true, value: value}
}

// Constrained returns the constrained value and whether one is set.
func (f CategoryFilter) Constrained() (string, bool) {
	return f.value, f.constrained
}

// AgeRangeFilter is an optional inclusive [Min, Max] constraint on age.
type AgeRangeFilter struct {
	constrained bool
	min, max    int
}

// AnyAge returns an unconstrained AgeRangeFilter.
func AnyAge() AgeRangeFilter { return AgeRangeFilter{} }

// AgeBetween returns an AgeRangeFilter constrained to [min, max].
func AgeBetween(min, max int) AgeRangeFilter {
	return AgeRangeFilter{constrained: true, min: min, max: max}
}

// Bounds returns the range and whether one is set.
func (f AgeRangeFilter) Bounds() (min, max int, ok bool) {
	return f.min, f.max, f.constrained
}

// Period selects the time-bucketing granularity.
type Period int

const (
	PeriodDaily Period = iota
	PeriodWeekly
	PeriodMonthly
)

// ParsePeriod maps the wire codes D/W/M to a Period.
func ParsePeriod(code string) (Period, error) {
	switch code {
	case "D":
		return PeriodDaily, nil
	case "W":
		return PeriodWeekly, nil
	case "M":
		return PeriodMonthly, nil
	default:
		return 0, &ValidationError{Field: "period", Value: code, Reason: "must be D, W, or M"}
	}
}

func (p Period) String() string {
	switch p {
	case PeriodDaily:
		return "daily"
	case PeriodWeekly:
		return "weekly"
	case PeriodMonthly:
		return "monthly"
	}
	return fmt.Sprintf("period(%d)", int(p))
}

// Filters is a page's full set of filter parameters. Every constrained
// dimension narrows the row set; the dimensions compose by conjunction.
type Filters struct {
	AgeRange    AgeRangeFilter
	Status      CategoryFilter // diabetes_status label
	BMICategory CategoryFilter
	AgeGroup    CategoryFilter
	Period      Period
}

// Key returns a canonical string for the filter tuple, used as a
// memoization key. Filters are low-cardinality, so the key space is
// small.
func (f Filters) Key() string {
	min, max := 0, 0
	ageSet := false
	if lo, hi, ok := f.AgeRange.Bounds(); ok {
		min, max, ageSet = lo, hi, true
	}
	status, _ := f.Status.Constrained()
	bmi, _ := f.BMICategory.Constrained()
	group, _ := f.AgeGroup.Constrained()
	return fmt.Sprintf("age=%t:%d:%d|status=%s|bmi=%s|group=%s|period=%s",
		ageSet, min, max, status, bmi, group, f.Period)
}

// Predicate reports whether the store row at index i passes the resolved
// filters.
type Predicate func(i int) bool

// Resolve validates the filter parameters against the store's declared
// category sets and composes them into a single row predicate. An empty
// result set after filtering is valid; only unknown categories and
// inverted ranges are errors.
func Resolve(store *dataset.Store, f Filters) (Predicate, error) {
	type check func(i int) bool
	var checks []check

	if min, max, ok := f.AgeRange.Bounds(); ok {
		if min > max {
			return nil, &ValidationError{
				Field:  "age_range",
				Value:  fmt.Sprintf("[%d,%d]", min, max),
				Reason: "min greater than max",
			}
		}
		col, _ := store.Numeric(dataset.ColAge)
		lo, hi := float64(min), float64(max)
		checks = append(checks, func(i int) bool {
			v, valid := col.Value(i)
			return valid && v >= lo && v <= hi
		})
	}

	for _, dim := range []struct {
		name   string
		filter CategoryFilter
	}{
		{dataset.DimStatus, f.Status},
		{dataset.DimBMICategory, f.BMICategory},
		{dataset.DimAgeGroup, f.AgeGroup},
	} {
		value, ok := dim.filter.Constrained()
		if !ok {
			continue
		}
		if !store.ValidCategory(dim.name, value) {
			return nil, &ValidationError{Field: dim.name, Value: value, Reason: "unknown category"}
		}
		col, _ := store.Category(dim.name)
		want := value
		checks = append(checks, func(i int) bool {
			v, valid := col.Value(i)
			return valid && v == want
		})
	}

	return func(i int) bool {
		for _, c := range checks {
			if !c(i) {
				return false
			}
		}
		return true
	}, nil
}
