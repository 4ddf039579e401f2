package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"valoris-backend/internal/ingest"
)

// schemaVersionV1 is the contract version this client negotiates. Responses
// carrying a recognized schemaVersion decode strictly; anything else goes
// through the ordered shape adapters below.
const schemaVersionV1 = "v1"

// ShapeAdapter locates the payload array inside a loosely-shaped response
// envelope. Each adapter is a pure function tried in priority order; the
// first hit wins.
type ShapeAdapter struct {
	Name    string
	Extract func(envelope map[string]json.RawMessage) (json.RawMessage, bool)
}

func keyAdapter(key string) ShapeAdapter {
	return ShapeAdapter{
		Name: key,
		Extract: func(envelope map[string]json.RawMessage) (json.RawMessage, bool) {
			raw, ok := envelope[key]
			if !ok {
				return nil, false
			}
			if arr, ok := asArray(raw); ok {
				return arr, true
			}
			// One level of nesting: {"result": {"items": [...]}} shows up in
			// some service revisions.
			var nested map[string]json.RawMessage
			if err := json.Unmarshal(raw, &nested); err == nil {
				for _, innerKey := range payloadKeys {
					if inner, ok := nested[innerKey]; ok {
						if arr, ok := asArray(inner); ok {
							return arr, true
						}
					}
				}
			}
			return nil, false
		},
	}
}

var payloadKeys = []string{"items", "analysis", "data", "vendors", "result"}

var payloadAdapters = func() []ShapeAdapter {
	out := make([]ShapeAdapter, 0, len(payloadKeys))
	for _, key := range payloadKeys {
		out = append(out, keyAdapter(key))
	}
	return out
}()

func asArray(raw json.RawMessage) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(trimmed), true
	}
	return nil, false
}

// extractPayloadArray searches a response body for the payload array. A bare
// top-level array is accepted as-is; otherwise the adapters run in order.
func extractPayloadArray(raw json.RawMessage) (json.RawMessage, string, bool) {
	if arr, ok := asArray(raw); ok {
		return arr, "root", true
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, "", false
	}
	for _, adapter := range payloadAdapters {
		if arr, ok := adapter.Extract(envelope); ok {
			return arr, adapter.Name, true
		}
	}
	return nil, "", false
}

type versionedAnalysisEnvelope struct {
	SchemaVersion string              `json:"schemaVersion"`
	Analysis      []SpendAnalysisItem `json:"analysis"`
}

// decodeAnalysisItems turns the optimize-stage body into analysis items.
func decodeAnalysisItems(raw json.RawMessage) ([]SpendAnalysisItem, error) {
	var versioned versionedAnalysisEnvelope
	if err := json.Unmarshal(raw, &versioned); err == nil &&
		versioned.SchemaVersion == schemaVersionV1 && len(versioned.Analysis) > 0 {
		return validateItems(versioned.Analysis)
	}

	arr, shape, ok := extractPayloadArray(raw)
	if !ok {
		return nil, &ParsingError{Stage: StageOptimize, Reason: "no payload array in any known envelope shape"}
	}
	var items []SpendAnalysisItem
	if err := json.Unmarshal(arr, &items); err != nil {
		return nil, &ParsingError{Stage: StageOptimize, Reason: fmt.Sprintf("payload array (shape %q) is not an analysis list: %v", shape, err)}
	}
	return validateItems(items)
}

func validateItems(items []SpendAnalysisItem) ([]SpendAnalysisItem, error) {
	if len(items) == 0 {
		return nil, &ValidationError{Stage: StageOptimize, Reason: "empty analysis list"}
	}
	withVendor := 0
	for _, item := range items {
		if strings.TrimSpace(item.Vendor) != "" {
			withVendor++
		}
	}
	if withVendor == 0 {
		return nil, &ValidationError{Stage: StageOptimize, Reason: "analysis items carry no vendor names"}
	}
	return items, nil
}

type versionedVendorEnvelope struct {
	SchemaVersion string                   `json:"schemaVersion"`
	Vendors       []ingest.VendorAggregate `json:"vendors"`
}

// decodeVendorList turns the normalize-stage body into a vendor list.
func decodeVendorList(raw json.RawMessage) ([]ingest.VendorAggregate, error) {
	var versioned versionedVendorEnvelope
	if err := json.Unmarshal(raw, &versioned); err == nil &&
		versioned.SchemaVersion == schemaVersionV1 && len(versioned.Vendors) > 0 {
		return validateVendors(versioned.Vendors)
	}

	arr, shape, ok := extractPayloadArray(raw)
	if !ok {
		return nil, &ParsingError{Stage: StageNormalize, Reason: "no payload array in any known envelope shape"}
	}
	var vendors []ingest.VendorAggregate
	if err := json.Unmarshal(arr, &vendors); err != nil {
		return nil, &ParsingError{Stage: StageNormalize, Reason: fmt.Sprintf("payload array (shape %q) is not a vendor list: %v", shape, err)}
	}
	return validateVendors(vendors)
}

func validateVendors(vendors []ingest.VendorAggregate) ([]ingest.VendorAggregate, error) {
	if len(vendors) == 0 {
		return nil, &ValidationError{Stage: StageNormalize, Reason: "empty vendor list"}
	}
	named := 0
	for _, v := range vendors {
		if strings.TrimSpace(v.Vendor) != "" {
			named++
		}
	}
	if named == 0 {
		return nil, &ValidationError{Stage: StageNormalize, Reason: "vendor list carries no vendor names"}
	}
	return vendors, nil
}
