package analysis

// Analysis sources. Fallback results keep the exact shape of remote ones;
// the source marker is what distinguishes them in logs and responses.
const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Risk levels for a recommendation.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// SavingsRange is an estimated savings band in currency units.
type SavingsRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// VendorAlternative is a suggested replacement vendor.
type VendorAlternative struct {
	Name          string  `json:"name"`
	EstimatedCost float64 `json:"estimatedCost"`
	Savings       float64 `json:"savings"`
	Note          string  `json:"note,omitempty"`
}

// ItemDetails carries the narrative part of a recommendation.
type ItemDetails struct {
	Description    string `json:"description"`
	Implementation string `json:"implementation"`
	Timeline       string `json:"timeline"`
	RiskLevel      string `json:"riskLevel"`
}

// SpendAnalysisItem is one optimization recommendation for a vendor.
type SpendAnalysisItem struct {
	ID                string              `json:"id"`
	Vendor            string              `json:"vendor"`
	Segment           string              `json:"segment"`
	Category          string              `json:"category"`
	Type              string              `json:"type"`
	Item              string              `json:"item"`
	PastSpend         float64             `json:"pastSpend"`
	ProjectedSpend    float64             `json:"projectedSpend"`
	ProjectedChange   float64             `json:"projectedChange"`
	SavingsRange      SavingsRange        `json:"savingsRange"`
	SavingsPercentage float64             `json:"savingsPercentage"`
	Confidence        float64             `json:"confidence"`
	Alternatives      []VendorAlternative `json:"alternatives,omitempty"`
	Details           ItemDetails         `json:"details"`
}

// SummaryMetrics aggregates the analysis array. It is always computed
// locally from the final analysis items, never trusted from a remote
// response, so pastSpend and projectedSpend match the item sums by
// construction.
type SummaryMetrics struct {
	PastSpend        float64      `json:"pastSpend"`
	ProjectedSpend   float64      `json:"projectedSpend"`
	PotentialSavings SavingsRange `json:"potentialSavings"`
	ROI              float64      `json:"roi"`
}

// AnalysisResult is the cached unit: the recommendation list plus its
// locally derived summary. Results are never mutated after creation.
type AnalysisResult struct {
	Analysis []SpendAnalysisItem `json:"analysis"`
	Summary  SummaryMetrics      `json:"summary"`
}

// ComputeSummary derives SummaryMetrics from the analysis array.
func ComputeSummary(items []SpendAnalysisItem) SummaryMetrics {
	var s SummaryMetrics
	for _, item := range items {
		s.PastSpend += item.PastSpend
		s.ProjectedSpend += item.ProjectedSpend
		s.PotentialSavings.Min += item.SavingsRange.Min
		s.PotentialSavings.Max += item.SavingsRange.Max
	}
	if s.PastSpend > 0 {
		mid := (s.PotentialSavings.Min + s.PotentialSavings.Max) / 2
		s.ROI = mid / s.PastSpend
	}
	return s
}
