package ingest

import "strings"

// Aggregate groups normalized records by case-insensitive vendor identity.
// The first occurrence fixes the retained spelling, category and segment;
// later occurrences only add spend. Output order is first-seen order.
func Aggregate(records []NormalizedRecord) []VendorAggregate {
	index := make(map[string]int, len(records))
	out := make([]VendorAggregate, 0, len(records))

	for _, rec := range records {
		key := strings.ToLower(rec.Vendor)
		if i, ok := index[key]; ok {
			out[i].Spend += rec.Spend
			out[i].Rows++
			continue
		}
		index[key] = len(out)
		out = append(out, VendorAggregate{
			Vendor:   rec.Vendor,
			Spend:    rec.Spend,
			Category: rec.Category,
			Segment:  rec.Segment,
			Rows:     1,
		})
	}
	return out
}
