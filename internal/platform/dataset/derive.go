package dataset

import "time"

// Epoch is the start of the synthetic time axis: row i is assigned
// Epoch + i days.
var Epoch = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// BMIScale converts the raw bmi column to the displayed/binned scale.
// The raw column is off by this factor in the source data; the quirk is
// part of the data contract and is deliberately not corrected here.
const BMIScale = 10000

// Bin edges and labels for the derived categorical columns.
var (
	ageEdges  = []float64{0, 25, 35, 45, 55, 65, 100}
	ageLabels = []string{"<25", "25-35", "36-45", "46-55", "56-65", "65+"}

	bmiEdges  = []float64{0, 18.5, 25, 30, 35, 100}
	bmiLabels = []string{"Underweight", "Normal", "Overweight", "Obese", "Severely Obese"}
)

// Display labels for the diabetes status code, in declared order.
var statusLabels = []string{"Healthy", "Diabetic"}

const (
	StatusHealthy  = "Healthy"
	StatusDiabetic = "Diabetic"
)

// binRightOpen places v into [edge_i, edge_{i+1}) intervals, with the
// final interval closed on the right. Values outside the edge span are
// unbound and return ok=false.
func binRightOpen(v float64, edges []float64, labels []string) (string, bool) {
	if v < edges[0] || v > edges[len(edges)-1] {
		return "", false
	}
	for i := 0; i < len(labels)-1; i++ {
		if v >= edges[i] && v < edges[i+1] {
			return labels[i], true
		}
	}
	// Last interval is closed: [edge_{n-1}, edge_n].
	return labels[len(labels)-1], true
}

// binRightClosed places v into (edge_i, edge_{i+1}] intervals, with the
// first interval additionally including its lower edge so the dataset
// minimum is never unbound.
func binRightClosed(v float64, edges []float64, labels []string) (string, bool) {
	if v < edges[0] || v > edges[len(edges)-1] {
		return "", false
	}
	if v <= edges[1] {
		return labels[0], true
	}
	for i := 1; i < len(labels); i++ {
		if v > edges[i] && v <= edges[i+1] {
			return labels[i], true
		}
	}
	return "", false
}

// AgeGroup returns the age-group label for an age, or ok=false when the
// age falls outside every bin. An age exactly on an interior edge belongs
// to the lower bin (35 is "25-35", not "36-45").
func AgeGroup(age float64) (string, bool) {
	return binRightClosed(age, ageEdges, ageLabels)
}

// BMICategory returns the category label for an already-scaled bmi, or
// ok=false when the value falls outside every bin. A value exactly on an
// interior edge belongs to the upper bin (25.0 is "Overweight").
func BMICategory(scaledBMI float64) (string, bool) {
	return binRightOpen(scaledBMI, bmiEdges, bmiLabels)
}

// StatusLabel maps the raw integer diabetes code to its display label.
func StatusLabel(code int) (string, bool) {
	switch code {
	case 0:
		return StatusHealthy, true
	case 1:
		return StatusDiabetic, true
	default:
		return "", false
	}
}

// RowTimestamp returns the synthetic timestamp assigned to row i.
func RowTimestamp(i int) time.Time {
	return Epoch.AddDate(0, 0, i)
}

// MonthBucket formats a timestamp as its calendar-month key.
func MonthBucket(t time.Time) string {
	return t.Format("2006-01")
}

// WeekStart returns the Monday that starts t's ISO week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
