package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"valoris-backend/internal/analysis"
)

// StageChat tags chat relay failures in the error taxonomy.
const StageChat = "chat"

// ChatClient relays a chat turn to the remote assistant service.
type ChatClient interface {
	Send(ctx context.Context, message string, chatCtx ChatContext, history []ChatMessage) (string, error)
}

// HTTPChatClient posts chat turns to a single endpoint.
type HTTPChatClient struct {
	url    string
	client *http.Client
}

func NewHTTPChatClient(url string, timeout time.Duration) (*HTTPChatClient, error) {
	if strings.TrimSpace(url) == "" {
		return nil, &analysis.ConfigError{Missing: "CHAT_URL"}
	}
	return &HTTPChatClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type chatRequest struct {
	Message             string        `json:"message"`
	ChatContext         ChatContext   `json:"chatContext"`
	ConversationHistory []ChatMessage `json:"conversationHistory"`
}

type chatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *HTTPChatClient) Send(ctx context.Context, message string, chatCtx ChatContext, history []ChatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Message:             message,
		ChatContext:         chatCtx,
		ConversationHistory: history,
	})
	if err != nil {
		return "", &analysis.ParsingError{Stage: StageChat, Reason: fmt.Sprintf("serialize request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &analysis.NetworkError{Stage: StageChat, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &analysis.NetworkError{Stage: StageChat, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &analysis.NetworkError{Stage: StageChat, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &analysis.APIError{Stage: StageChat, Status: resp.StatusCode, Body: string(raw)}
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &analysis.ParsingError{Stage: StageChat, Reason: "response is not valid JSON"}
	}
	if !decoded.Success || strings.TrimSpace(decoded.Message) == "" {
		reason := decoded.Error
		if reason == "" {
			reason = "empty assistant message"
		}
		return "", &analysis.ValidationError{Stage: StageChat, Reason: reason}
	}
	return decoded.Message, nil
}

// FallbackReply produces a local context-aware answer when the remote chat
// service is unavailable. Replies are keyword-matched so the demo stays
// usable offline.
func FallbackReply(message string, chatCtx ChatContext) string {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "savings"):
		if chatCtx.TotalSavings > 0 {
			return fmt.Sprintf("Across your %d analyzed vendors I estimate about %.2f in potential savings on %.2f total spend. Ask about a specific vendor for a breakdown.", chatCtx.TotalVendors, chatCtx.TotalSavings, chatCtx.TotalSpend)
		}
		return "Upload a spend file first and I can walk you through the savings opportunities I find."
	case strings.Contains(lower, "vendor"):
		if len(chatCtx.TopVendors) > 0 {
			top := chatCtx.TopVendors[0]
			return fmt.Sprintf("Your largest vendor is %s with %.2f in spend. It is usually the best place to start a negotiation.", top.Vendor, top.Spend)
		}
		return "I don't have any vendors on file yet. Upload a spend file and I can rank them for you."
	case strings.Contains(lower, "alternative"):
		return "For most of your larger contracts I can suggest alternative vendors at an estimated 15% discount. Ask about a vendor by name to see its alternatives."
	default:
		if chatCtx.TotalVendors > 0 {
			return fmt.Sprintf("I have %d vendors from your uploads on file. Try asking about savings, vendors, or alternatives.", chatCtx.TotalVendors)
		}
		return "I'm your procurement assistant. Upload a spend file and ask me about savings, vendors, or alternatives."
	}
}
