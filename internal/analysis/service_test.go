package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valoris-backend/internal/ingest"
)

func rawRow(pairs ...string) ingest.RawRow {
	r := ingest.RawRow{Values: make(map[string]string)}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Columns = append(r.Columns, pairs[i])
		r.Values[pairs[i]] = pairs[i+1]
	}
	return r
}

func spendRows() []ingest.RawRow {
	return []ingest.RawRow{
		rawRow("Supplier", "Acme", "spend", "100", "category", "Software", "segment", "IT"),
		rawRow("Supplier", "ACME", "spend", "50", "category", "Software", "segment", "IT"),
		rawRow("Supplier", "Other", "spend", "10", "category", "Cloud", "segment", "Ops"),
	}
}

// stubClient counts stage calls and serves canned responses. An optional
// gate blocks Normalize so tests can hold a request in flight.
type stubClient struct {
	mu             sync.Mutex
	normalizeCalls int
	optimizeCalls  int

	normalizeResp json.RawMessage
	optimizeResp  json.RawMessage
	normalizeErr  error
	optimizeErr   error

	gate chan struct{}
}

func (s *stubClient) Normalize(ctx context.Context, payload any) (json.RawMessage, error) {
	s.mu.Lock()
	s.normalizeCalls++
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	return s.normalizeResp, s.normalizeErr
}

func (s *stubClient) Optimize(ctx context.Context, payload any) (json.RawMessage, error) {
	s.mu.Lock()
	s.optimizeCalls++
	s.mu.Unlock()
	return s.optimizeResp, s.optimizeErr
}

func (s *stubClient) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.normalizeCalls, s.optimizeCalls
}

func healthyStub() *stubClient {
	return &stubClient{
		normalizeResp: json.RawMessage(`{"schemaVersion":"v1","vendors":[{"vendor":"Acme","spend":150,"category":"Software","segment":"IT"},{"vendor":"Other","spend":10,"category":"Cloud","segment":"Ops"}]}`),
		optimizeResp:  json.RawMessage(`{"analysis":[{"id":"r1","vendor":"Acme","pastSpend":150,"projectedSpend":160,"savingsRange":{"min":15,"max":30}},{"id":"r2","vendor":"Other","pastSpend":10,"projectedSpend":11,"savingsRange":{"min":1,"max":2}}]}`),
	}
}

func TestAnalyzeRemoteSuccess(t *testing.T) {
	stub := healthyStub()
	p := NewPipeline(stub, ingest.LocaleAuto)

	result, source, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	require.Len(t, result.Analysis, 2)
	assertSummaryInvariant(t, result)

	n, o := stub.calls()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, o)
}

func TestAnalyzeIdempotentOnIdenticalInput(t *testing.T) {
	stub := healthyStub()
	p := NewPipeline(stub, ingest.LocaleAuto)

	first, _, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	second, _, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	n, o := stub.calls()
	assert.Equal(t, 1, n, "second identical upload must not reach the network")
	assert.Equal(t, 1, o)
}

func TestAnalyzeAtMostOneInFlight(t *testing.T) {
	stub := healthyStub()
	stub.gate = make(chan struct{})
	p := NewPipeline(stub, ingest.LocaleAuto)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := p.Analyze(context.Background(), spendRows())
			assert.NoError(t, err)
		}()
	}

	// Give both callers a chance to join the in-flight request, then let it
	// complete. Whether the second caller shares the flight or hits the
	// cache afterwards, exactly one stage pair may go out.
	time.Sleep(50 * time.Millisecond)
	close(stub.gate)
	wg.Wait()

	n, o := stub.calls()
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, o)
}

func TestAnalyzeFallbackOnRemoteFailure(t *testing.T) {
	stub := &stubClient{
		normalizeErr: &APIError{Stage: StageNormalize, Status: 502, Body: "bad gateway"},
	}
	p := NewPipeline(stub, ingest.LocaleAuto)

	result, source, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err, "remote failure must degrade, not surface")
	assert.Equal(t, SourceFallback, source)
	assert.Len(t, result.Analysis, 2, "one item per distinct input vendor")
	assertSummaryInvariant(t, result)
}

func TestAnalyzeFallbackOnUnparsableBody(t *testing.T) {
	stub := &stubClient{
		normalizeResp: json.RawMessage(`{"schemaVersion":"v1","vendors":[{"vendor":"Acme","spend":150}]}`),
		optimizeResp:  json.RawMessage(`<html>definitely not json</html>`),
	}
	p := NewPipeline(stub, ingest.LocaleAuto)

	_, source, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, source)
}

func TestAnalyzeConfigErrorFailsFast(t *testing.T) {
	stub := &stubClient{normalizeErr: &ConfigError{Missing: "ANALYSIS_API_KEY"}}
	p := NewPipeline(stub, ingest.LocaleAuto)

	_, _, err := p.Analyze(context.Background(), spendRows())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr, "config errors must not degrade to fallback")
}

func TestAnalyzeNoClientUsesFallback(t *testing.T) {
	p := NewPipeline(nil, ingest.LocaleAuto)

	result, source, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, source)
	assert.Len(t, result.Analysis, 2)
}

func TestAnalyzeEmptyInputSurfacesError(t *testing.T) {
	p := NewPipeline(nil, ingest.LocaleAuto)

	rows := []ingest.RawRow{rawRow("note", "decorative row with no vendor")}
	_, _, err := p.Analyze(context.Background(), rows)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyInput))
}

func TestAnalyzeDistinctInputsAnalyzedSeparately(t *testing.T) {
	stub := healthyStub()
	p := NewPipeline(stub, ingest.LocaleAuto)

	_, _, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	other := []ingest.RawRow{
		rawRow("Supplier", "Initech", "spend", "77"),
		rawRow("Supplier", "Hooli", "spend", "33"),
	}
	_, _, err = p.Analyze(context.Background(), other)
	require.NoError(t, err)

	n, _ := stub.calls()
	assert.Equal(t, 2, n, "distinct content hashes must not share a flight")
}

func TestAnalyzeSparseInputSendsDenseText(t *testing.T) {
	var captured map[string]any
	stub := healthyStub()
	p := NewPipeline(&capturingClient{inner: stub, capture: &captured}, ingest.LocaleAuto)

	rows := []ingest.RawRow{
		rawRow("Supplier", "OnlyOne", "spend", "500"),
		rawRow("note", "no spend here"),
	}
	_, _, err := p.Analyze(context.Background(), rows)
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "text", captured["format"], "sparse extraction switches to dense text payload")
	assert.Contains(t, captured["content"], "OnlyOne")
}

func TestAnalyzeStructuredPayloadCarriesStats(t *testing.T) {
	var captured map[string]any
	stub := healthyStub()
	p := NewPipeline(&capturingClient{inner: stub, capture: &captured}, ingest.LocaleAuto)

	_, _, err := p.Analyze(context.Background(), spendRows())
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "vendors", captured["format"])
	stats, ok := captured["stats"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3, stats["rowCount"])
	assert.Equal(t, 2, stats["vendorCount"])
	assert.Equal(t, 3, stats["rowsWithSpend"])
}

// capturingClient records the stage-1 payload before delegating.
type capturingClient struct {
	inner   StageClient
	capture *map[string]any
}

func (c *capturingClient) Normalize(ctx context.Context, payload any) (json.RawMessage, error) {
	if m, ok := payload.(map[string]any); ok {
		*c.capture = m
	}
	return c.inner.Normalize(ctx, payload)
}

func (c *capturingClient) Optimize(ctx context.Context, payload any) (json.RawMessage, error) {
	return c.inner.Optimize(ctx, payload)
}
