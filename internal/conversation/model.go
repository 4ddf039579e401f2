package conversation

import (
	"time"

	"valoris-backend/internal/analysis"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// MessageContext carries optional structured hints attached to a message.
type MessageContext struct {
	FileID            string  `json:"fileId,omitempty"`
	VendorMentioned   string  `json:"vendorMentioned,omitempty"`
	SavingsCalculated float64 `json:"savingsCalculated,omitempty"`
}

// ChatMessage is one turn in a per-file conversation.
type ChatMessage struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
	Context   *MessageContext `json:"context,omitempty"`
}

// Record is everything retained for one analyzed file: the analysis result
// and the append-only chat history.
type Record struct {
	FileID     string
	FileName   string
	UploadedAt time.Time
	Source     string
	Analysis   []analysis.SpendAnalysisItem
	Summary    analysis.SummaryMetrics
	History    []ChatMessage
}

// FileRef identifies an analyzed file inside a chat context payload.
type FileRef struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	UploadedAt  time.Time `json:"uploadedAt"`
	VendorCount int       `json:"vendorCount"`
}

// CategorySpend is an aggregated spend figure for one category.
type CategorySpend struct {
	Category string  `json:"category"`
	Spend    float64 `json:"spend"`
}

// VendorSpend is an aggregated spend figure for one vendor. SavingsMid is
// the midpoint of the vendor's estimated savings range.
type VendorSpend struct {
	Vendor     string  `json:"vendor"`
	Spend      float64 `json:"spend"`
	SavingsMid float64 `json:"savingsMid"`
}

// ChatContext is the aggregate view handed to the chat service. It is
// recomputed from the stored records on every request, never cached.
type ChatContext struct {
	CurrentFile    *FileRef        `json:"currentFile,omitempty"`
	AvailableFiles []FileRef       `json:"availableFiles"`
	TotalVendors   int             `json:"totalVendors"`
	TotalSpend     float64         `json:"totalSpend"`
	TotalSavings   float64         `json:"totalSavings"`
	TopCategories  []CategorySpend `json:"topCategories"`
	TopVendors     []VendorSpend   `json:"topVendors"`
}
