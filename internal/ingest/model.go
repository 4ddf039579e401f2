package ingest

// RawRow is one spreadsheet row as parsed: arbitrary column labels mapped to
// cell text, with the original column order retained. Column names vary per
// uploaded file ("Supplier" vs "vendor" vs "Company Name"), so no schema is
// assumed here.
type RawRow struct {
	Columns []string          `json:"columns"`
	Values  map[string]string `json:"values"`
}

// Get returns the trimmed cell value for a column label.
func (r RawRow) Get(column string) (string, bool) {
	val, ok := r.Values[column]
	return val, ok
}

// NormalizedRecord is the canonical extraction of a RawRow. A record only
// exists when vendor is non-empty and spend is positive; rows failing that
// are dropped during normalization.
type NormalizedRecord struct {
	Vendor   string  `json:"vendor"`
	Spend    float64 `json:"spend"`
	Category string  `json:"category"`
	Segment  string  `json:"segment"`
}

// VendorAggregate is one entry per distinct vendor (case-insensitive
// identity) with spend summed across contributing records. The first-seen
// spelling, category and segment are retained.
type VendorAggregate struct {
	Vendor   string  `json:"vendor"`
	Spend    float64 `json:"spend"`
	Category string  `json:"category"`
	Segment  string  `json:"segment"`
	Rows     int     `json:"rows"`
}
