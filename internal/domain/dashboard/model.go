package dashboard

import "github.com/glycoview/glycoview/internal/analytics"

// PageID names one dashboard view.
type PageID string

const (
	PageOverview     PageID = "overview"
	PageDistribution PageID = "distribution"
	PageTemporal     PageID = "temporal"
	PageCorrelations PageID = "correlations"
	PageModels       PageID = "models"
	PageAnomalies    PageID = "anomalies"
)

// Pages lists every dashboard page in navigation order.
var Pages = []PageID{
	PageOverview,
	PageDistribution,
	PageTemporal,
	PageCorrelations,
	PageModels,
	PageAnomalies,
}

// DistributionBins is the bin count for the distribution page
// histograms.
const DistributionBins = 30

// KPI is the headline block shared by the filtered pages. Means are nil
// when the filtered subset has no valid value for the column.
type KPI struct {
	Count         int      `json:"count"`
	DiabeticCount int      `json:"diabetic_count"`
	DiabeticRate  float64  `json:"diabetic_rate"`
	MeanAge       *float64 `json:"mean_age"`
	MeanScaledBMI *float64 `json:"mean_scaled_bmi"`
}

// ScatterSet pairs a scatter's point groups with the per-group fitted
// trend lines.
type ScatterSet struct {
	X      string                   `json:"x"`
	Y      string                   `json:"y"`
	Groups []analytics.ScatterGroup `json:"groups"`
	Trends []analytics.TrendLine    `json:"trends"`
}

// CohortSummary is the overview page's dataset description.
type CohortSummary struct {
	AgeMin             *float64 `json:"age_min"`
	AgeMax             *float64 `json:"age_max"`
	MeanScaledBMI      *float64 `json:"mean_scaled_bmi"`
	MeanFastingGlucose *float64 `json:"mean_fasting_glucose"`
	MeanHbA1c          *float64 `json:"mean_hba1c"`
}
