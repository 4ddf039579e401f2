package files

import (
	"sync"
	"time"
)

// Upload statuses surfaced to the UI file list.
const (
	// StatusAnalyzed means the file went through the full spend pipeline.
	StatusAnalyzed = "analyzed"
	// StatusReady means the file was accepted but is not analyzable tabular
	// content (PDFs, images). It is kept for reference only.
	StatusReady = "ready"
	// StatusError means the file could not be decoded; the UI shows an error
	// badge next to it.
	StatusError = "error"
)

// File is one registry entry.
type File struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	Error      string    `json:"error,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Registry is the in-memory list of uploaded files for the process lifetime.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	files []File
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Add(f File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.UploadedAt.IsZero() {
		f.UploadedAt = time.Now()
	}
	r.files = append(r.files, f)
}

// List returns the registered files, newest first.
func (r *Registry) List() []File {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]File, len(r.files))
	for i, f := range r.files {
		out[len(r.files)-1-i] = f
	}
	return out
}

// Clear drops every entry. Used by logout together with the conversation
// store so a demo session starts from a blank slate.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = nil
}
