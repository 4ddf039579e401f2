package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"valoris-backend/internal/ingest"
	"valoris-backend/internal/shared/metrics"
	"valoris-backend/internal/shared/telemetry"
	"valoris-backend/internal/shared/util"
)

const (
	cacheCapacity = 10

	// Payload caps: structured vendor payloads stop at 100 entries; the
	// dense raw-text fallback payload stops at the top 12 rows by spend.
	maxStructuredVendors = 100
	maxDenseRows         = 12

	// Below this many positive-spend rows, structured extraction is assumed
	// to have failed locally and the raw rows are sent as dense text for the
	// remote analyzer to work with.
	minStructuredRows = 2
)

// Pipeline orchestrates the two-stage remote analysis with content-hash
// caching, in-flight de-duplication and local fallback synthesis. Construct
// one per process and inject it; it is safe for concurrent use.
type Pipeline struct {
	client StageClient // nil when no remote service is configured
	cache  *resultCache
	group  singleflight.Group
	locale string
}

// NewPipeline constructs a Pipeline. A nil client means every analysis is
// served by fallback synthesis (demo mode without a remote service).
func NewPipeline(client StageClient, locale string) *Pipeline {
	return &Pipeline{
		client: client,
		cache:  newResultCache(cacheCapacity),
		locale: locale,
	}
}

type pipelineOutcome struct {
	result AnalysisResult
	source string
}

// Analyze runs the full pipeline for one uploaded file's rows. The returned
// source is SourceRemote or SourceFallback; repeated identical inputs return
// the cached value without a second remote call.
func (p *Pipeline) Analyze(ctx context.Context, rows []ingest.RawRow) (AnalysisResult, string, error) {
	payload, err := json.Marshal(rows)
	if err != nil {
		return AnalysisResult{}, "", &ParsingError{Stage: "input", Reason: fmt.Sprintf("serialize rows: %v", err)}
	}
	hash := util.ContentHash(payload)

	if result, source, ok := p.cache.Get(hash); ok {
		metrics.IncAnalysisCacheHit()
		telemetry.Info("analysis.cache_hit", map[string]any{
			"content_hash": hash,
			"source":       source,
		})
		return result, source, nil
	}

	// Concurrent callers with the same content hash share one execution.
	v, err, _ := p.group.Do(hash, func() (any, error) {
		if result, source, ok := p.cache.Get(hash); ok {
			return pipelineOutcome{result: result, source: source}, nil
		}
		outcome, err := p.analyzeOnce(ctx, hash, rows)
		if err != nil {
			return pipelineOutcome{}, err
		}
		p.cache.Put(hash, outcome.result, outcome.source)
		return outcome, nil
	})
	if err != nil {
		return AnalysisResult{}, "", err
	}
	outcome := v.(pipelineOutcome)
	return outcome.result, outcome.source, nil
}

func (p *Pipeline) analyzeOnce(ctx context.Context, hash string, rows []ingest.RawRow) (pipelineOutcome, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveAnalysisDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	normalizer := ingest.Normalizer{Locale: p.locale}
	records := normalizer.NormalizeAll(rows)
	vendors := ingest.Aggregate(records)

	if p.client != nil {
		result, err := p.runRemote(ctx, rows, records, vendors)
		if err == nil {
			metrics.IncAnalysisRemote()
			telemetry.Info("analysis.remote", map[string]any{
				"content_hash": hash,
				"vendors":      len(result.Analysis),
				"duration_ms":  float64(time.Since(start).Microseconds()) / 1000.0,
			})
			return pipelineOutcome{result: result, source: SourceRemote}, nil
		}
		if !recoverable(err) {
			return pipelineOutcome{}, err
		}
		telemetry.Error("analysis.stage_failed", map[string]any{
			"content_hash": hash,
			"error":        err.Error(),
		})
	}

	result, err := Synthesize(vendors)
	if err != nil {
		return pipelineOutcome{}, err
	}
	metrics.IncAnalysisFallback()
	telemetry.Info("analysis.fallback", map[string]any{
		"content_hash": hash,
		"fallback":     true,
		"vendors":      len(result.Analysis),
	})
	return pipelineOutcome{result: result, source: SourceFallback}, nil
}

func (p *Pipeline) runRemote(ctx context.Context, rows []ingest.RawRow, records []ingest.NormalizedRecord, vendors []ingest.VendorAggregate) (AnalysisResult, error) {
	stage1Payload := p.buildNormalizePayload(rows, records, vendors)

	raw1, err := p.client.Normalize(ctx, stage1Payload)
	if err != nil {
		return AnalysisResult{}, err
	}
	remoteVendors, err := decodeVendorList(raw1)
	if err != nil {
		return AnalysisResult{}, err
	}

	raw2, err := p.client.Optimize(ctx, map[string]any{
		"schemaVersion": schemaVersionV1,
		"vendors":       remoteVendors,
	})
	if err != nil {
		return AnalysisResult{}, err
	}
	items, err := decodeAnalysisItems(raw2)
	if err != nil {
		return AnalysisResult{}, err
	}

	for i := range items {
		if strings.TrimSpace(items[i].ID) == "" {
			items[i].ID = uuid.NewString()
		}
	}

	// The summary is generated locally from the final analysis array, so the
	// aggregate invariant holds even when the remote returned a partial or
	// inconsistent summary of its own.
	return AnalysisResult{
		Analysis: items,
		Summary:  ComputeSummary(items),
	}, nil
}

// buildNormalizePayload decides the stage-1 input shape. Sparse extractions
// switch to a dense plain-text rendering of the raw rows: when structured
// extraction failed locally, the opaque analyzer does better with more
// surrounding context.
func (p *Pipeline) buildNormalizePayload(rows []ingest.RawRow, records []ingest.NormalizedRecord, vendors []ingest.VendorAggregate) map[string]any {
	if len(records) < minStructuredRows {
		return map[string]any{
			"schemaVersion": schemaVersionV1,
			"format":        "text",
			"content":       denseText(rows, p.locale),
			"rowCount":      len(rows),
		}
	}

	capped := vendors
	if len(capped) > maxStructuredVendors {
		capped = capped[:maxStructuredVendors]
	}

	var totalSpend float64
	for _, r := range records {
		totalSpend += r.Spend
	}
	meanSpend := 0.0
	if len(records) > 0 {
		meanSpend = totalSpend / float64(len(records))
	}

	return map[string]any{
		"schemaVersion": schemaVersionV1,
		"format":        "vendors",
		"vendors":       capped,
		"stats": map[string]any{
			"rowCount":      len(rows),
			"vendorCount":   len(vendors),
			"rowsWithSpend": len(records),
			"meanSpend":     meanSpend,
		},
	}
}

// denseText renders raw rows as a tab-separated table, sorted descending by
// best-effort spend and capped to the top rows.
func denseText(rows []ingest.RawRow, locale string) string {
	sorted := make([]ingest.RawRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ingest.BestEffortSpend(sorted[i], locale) > ingest.BestEffortSpend(sorted[j], locale)
	})
	if len(sorted) > maxDenseRows {
		sorted = sorted[:maxDenseRows]
	}

	var b strings.Builder
	for i, row := range sorted {
		if i == 0 {
			b.WriteString(strings.Join(row.Columns, "\t"))
			b.WriteString("\n")
		}
		cells := make([]string, 0, len(row.Columns))
		for _, col := range row.Columns {
			cells = append(cells, row.Values[col])
		}
		b.WriteString(strings.Join(cells, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}
