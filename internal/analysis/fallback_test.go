package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valoris-backend/internal/ingest"
)

func TestSynthesizeDeterministic(t *testing.T) {
	vendors := []ingest.VendorAggregate{
		{Vendor: "Acme", Spend: 1000, Category: "Software", Segment: "IT"},
		{Vendor: "Globex", Spend: 400, Category: "Cloud", Segment: "Ops"},
	}

	a, err := Synthesize(vendors)
	require.NoError(t, err)
	b, err := Synthesize(vendors)
	require.NoError(t, err)
	assert.Equal(t, a, b, "fallback synthesis must be deterministic")

	require.Len(t, a.Analysis, 2)
	assert.Equal(t, "Acme", a.Analysis[0].Vendor)
	assert.InDelta(t, 1000, a.Analysis[0].PastSpend, 1e-9)
	assert.InDelta(t, 1050, a.Analysis[0].ProjectedSpend, 1e-9)
	assert.InDelta(t, 100, a.Analysis[0].SavingsRange.Min, 1e-9)
	assert.InDelta(t, 200, a.Analysis[0].SavingsRange.Max, 1e-9)
	assert.Equal(t, RiskMedium, a.Analysis[0].Details.RiskLevel, "largest contract carries medium risk")
	assert.Equal(t, RiskLow, a.Analysis[1].Details.RiskLevel)
	assert.NotEmpty(t, a.Analysis[0].Alternatives)
}

func TestSynthesizeSummaryInvariant(t *testing.T) {
	result, err := Synthesize([]ingest.VendorAggregate{
		{Vendor: "A", Spend: 123.45, Category: "Software", Segment: "IT"},
		{Vendor: "B", Spend: 678.9, Category: "Hardware", Segment: "Ops"},
		{Vendor: "C", Spend: 42, Category: "Cloud", Segment: "IT"},
	})
	require.NoError(t, err)
	assertSummaryInvariant(t, result)
}

func TestSynthesizeEmptyInput(t *testing.T) {
	_, err := Synthesize(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

// assertSummaryInvariant checks that the summary equals the exact sums over
// the analysis array.
func assertSummaryInvariant(t *testing.T, result AnalysisResult) {
	t.Helper()
	var past, projected, min, max float64
	for _, item := range result.Analysis {
		past += item.PastSpend
		projected += item.ProjectedSpend
		min += item.SavingsRange.Min
		max += item.SavingsRange.Max
	}
	assert.Equal(t, past, result.Summary.PastSpend, "summary.pastSpend must equal the item sum exactly")
	assert.Equal(t, projected, result.Summary.ProjectedSpend, "summary.projectedSpend must equal the item sum exactly")
	assert.Equal(t, min, result.Summary.PotentialSavings.Min)
	assert.Equal(t, max, result.Summary.PotentialSavings.Max)
}
