package ingest

import "strings"

// fieldRule locates a field inside a RawRow: exact column candidates are
// tried first in order, then the first column whose name contains one of the
// substrings (case-insensitive). First match wins.
type fieldRule struct {
	exact      []string
	substrings []string
	fallback   string
}

var vendorRule = fieldRule{
	exact:      []string{"Supplier", "supplier", "vendor", "Vendor", "Supplier_Name", "Company Name", "company", "Company"},
	substrings: []string{"vendor", "supplier", "company"},
}

var spendRule = fieldRule{
	exact:      []string{"Total_Current_Cost", "spend", "Spend", "cost", "Cost", "amount", "Amount", "Annual_Spend", "Total Spend"},
	substrings: []string{"spend", "cost", "amount"},
}

var categoryRule = fieldRule{
	exact:      []string{"category", "Category", "Item_Category", "Commodity"},
	substrings: []string{"category", "commodity"},
	fallback:   "Software",
}

var segmentRule = fieldRule{
	exact:      []string{"segment", "Segment", "Business_Unit", "department", "Department"},
	substrings: []string{"segment", "department", "division"},
	fallback:   "IT",
}

// Normalizer derives NormalizedRecords from raw rows under a fixed locale.
type Normalizer struct {
	Locale string
}

// Normalize extracts a NormalizedRecord from a raw row. The second return is
// false when the row is dropped: empty vendor or zero spend never reach the
// aggregate, which keeps decorative and blank spreadsheet rows out.
func (n Normalizer) Normalize(row RawRow) (NormalizedRecord, bool) {
	rec := NormalizedRecord{
		Vendor:   strings.TrimSpace(vendorRule.extract(row)),
		Spend:    ParseAmount(spendRule.extract(row), n.locale()),
		Category: strings.TrimSpace(categoryRule.extract(row)),
		Segment:  strings.TrimSpace(segmentRule.extract(row)),
	}
	if rec.Vendor == "" || rec.Spend == 0 {
		return NormalizedRecord{}, false
	}
	if rec.Spend < 0 {
		return NormalizedRecord{}, false
	}
	if rec.Category == "" {
		rec.Category = categoryRule.fallback
	}
	if rec.Segment == "" {
		rec.Segment = segmentRule.fallback
	}
	return rec, true
}

// NormalizeAll applies Normalize over a row sequence, keeping input order.
func (n Normalizer) NormalizeAll(rows []RawRow) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(rows))
	for _, row := range rows {
		if rec, ok := n.Normalize(row); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (n Normalizer) locale() string {
	if n.Locale == "" {
		return LocaleAuto
	}
	return n.Locale
}

func (r fieldRule) extract(row RawRow) string {
	for _, key := range r.exact {
		if val, ok := row.Get(key); ok && strings.TrimSpace(val) != "" {
			return val
		}
	}
	for _, col := range row.Columns {
		lower := strings.ToLower(col)
		for _, sub := range r.substrings {
			if strings.Contains(lower, sub) {
				if val, ok := row.Get(col); ok && strings.TrimSpace(val) != "" {
					return val
				}
				break
			}
		}
	}
	return ""
}

// BestEffortSpend pulls a spend-like value out of a raw row without the drop
// rule, used when ranking raw rows for the dense fallback payload.
func BestEffortSpend(row RawRow, locale string) float64 {
	return ParseAmount(spendRule.extract(row), locale)
}
