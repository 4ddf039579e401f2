package conversation

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"valoris-backend/internal/analysis"
	"valoris-backend/internal/shared/telemetry"
)

const (
	maxTopCategories = 5
	maxTopVendors    = 10
	maxFileIDName    = 40
)

// Store holds analysis results and chat histories for the lifetime of the
// process. Construct one per process and inject it wherever needed; it is
// safe for concurrent use. Nothing is persisted.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
	current string
}

func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// NewFileID derives a unique file ID from the upload name: a sanitized name
// fragment, the upload time and a random suffix. The name fragment keeps IDs
// readable in logs.
func NewFileID(fileName string) string {
	return fmt.Sprintf("%s-%d-%s", sanitizeName(fileName), time.Now().UnixMilli(), uuid.NewString()[:8])
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
		if b.Len() >= maxFileIDName {
			break
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "file"
	}
	return out
}

// StoreAnalysis records an analysis result under fileID and makes that file
// the current one. Re-storing an existing fileID replaces the analysis but
// keeps the chat history.
func (s *Store) StoreAnalysis(fileID, fileName string, result analysis.AnalysisResult, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[fileID]; ok {
		existing.FileName = fileName
		existing.Analysis = result.Analysis
		existing.Summary = result.Summary
		existing.Source = source
	} else {
		s.records[fileID] = &Record{
			FileID:     fileID,
			FileName:   fileName,
			UploadedAt: time.Now(),
			Source:     source,
			Analysis:   result.Analysis,
			Summary:    result.Summary,
		}
		s.order = append(s.order, fileID)
	}
	s.current = fileID
}

// Get returns a copy of the record for fileID.
func (s *Store) Get(fileID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fileID]
	if !ok {
		return Record{}, false
	}
	return copyRecord(rec), true
}

// History returns a copy of the chat history for fileID, oldest first.
func (s *Store) History(fileID string) []ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[fileID]
	if !ok {
		return nil
	}
	out := make([]ChatMessage, len(rec.History))
	copy(out, rec.History)
	return out
}

// AddChatMessage appends a message to the history of fileID. The history is
// append-only. An unknown fileID is logged and ignored rather than failing
// the chat turn.
func (s *Store) AddChatMessage(fileID string, msg ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[fileID]
	if !ok {
		telemetry.Warn("conversation.unknown_file", map[string]any{
			"file_id": fileID,
			"role":    msg.Role,
		})
		return
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	rec.History = append(rec.History, msg)
}

// GetChatContext computes the aggregate context across all stored files.
// When fileID is empty the most recently stored file is the current one.
// The result is derived fresh from the records on every call.
func (s *Store) GetChatContext(fileID string) ChatContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if fileID == "" {
		fileID = s.current
	}

	ctx := ChatContext{AvailableFiles: []FileRef{}}
	categorySpend := make(map[string]float64)
	vendorSpend := make(map[string]*VendorSpend)
	var vendorOrder []string

	for _, id := range s.order {
		rec := s.records[id]
		ref := FileRef{
			ID:          rec.FileID,
			Name:        rec.FileName,
			UploadedAt:  rec.UploadedAt,
			VendorCount: len(rec.Analysis),
		}
		ctx.AvailableFiles = append(ctx.AvailableFiles, ref)
		if rec.FileID == fileID {
			current := ref
			ctx.CurrentFile = &current
		}

		ctx.TotalVendors += len(rec.Analysis)
		ctx.TotalSpend += rec.Summary.PastSpend
		ctx.TotalSavings += (rec.Summary.PotentialSavings.Min + rec.Summary.PotentialSavings.Max) / 2

		for _, item := range rec.Analysis {
			categorySpend[item.Category] += item.PastSpend

			key := strings.ToLower(item.Vendor)
			entry, ok := vendorSpend[key]
			if !ok {
				entry = &VendorSpend{Vendor: item.Vendor}
				vendorSpend[key] = entry
				vendorOrder = append(vendorOrder, key)
			}
			entry.Spend += item.PastSpend
			entry.SavingsMid += (item.SavingsRange.Min + item.SavingsRange.Max) / 2
		}
	}

	ctx.TopCategories = topCategories(categorySpend)
	ctx.TopVendors = topVendors(vendorSpend, vendorOrder)
	return ctx
}

// Clear drops every record. Used by logout.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*Record)
	s.order = nil
	s.current = ""
}

// Len reports the number of stored files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func copyRecord(rec *Record) Record {
	out := *rec
	out.Analysis = make([]analysis.SpendAnalysisItem, len(rec.Analysis))
	copy(out.Analysis, rec.Analysis)
	out.History = make([]ChatMessage, len(rec.History))
	copy(out.History, rec.History)
	return out
}

func topCategories(spend map[string]float64) []CategorySpend {
	out := make([]CategorySpend, 0, len(spend))
	for category, total := range spend {
		out = append(out, CategorySpend{Category: category, Spend: total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Spend != out[j].Spend {
			return out[i].Spend > out[j].Spend
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > maxTopCategories {
		out = out[:maxTopCategories]
	}
	return out
}

func topVendors(spend map[string]*VendorSpend, order []string) []VendorSpend {
	out := make([]VendorSpend, 0, len(order))
	for _, key := range order {
		out = append(out, *spend[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Spend > out[j].Spend
	})
	if len(out) > maxTopVendors {
		out = out[:maxTopVendors]
	}
	return out
}
