package model

const (
	SourceChatbot      = "chatbot"
	BookingMessage     = "I'm going to book"
	TimestampLayoutISO = "2006-01-02T15:04:05.000Z07:00"
)

// ChatRequest is the outbound body for a free-text chat exchange.
type ChatRequest struct {
	Message   string   `json:"message"`
	UserInfo  Identity `json:"userInfo"`
	SessionID string   `json:"sessionId"`
	Timestamp string   `json:"timestamp"`
	Source    string   `json:"source"`
}

// BookingRequest is the outbound body sent once a booking is confirmed.
type BookingRequest struct {
	Message   string       `json:"message"`
	UserInfo  Identity     `json:"userInfo"`
	Booking   BookingDraft `json:"booking"`
	SessionID string       `json:"sessionId"`
	Timestamp string       `json:"timestamp"`
	Source    string       `json:"source"`
}

// WebhookResponse is the expected success body: {"output":{"response":"..."}}.
type WebhookResponse struct {
	Output *WebhookOutput `json:"output"`
}

type WebhookOutput struct {
	Response any `json:"response"`
}

// Text returns the reply text and whether it was present and usable.
func (r *WebhookResponse) Text() (string, bool) {
	if r == nil || r.Output == nil {
		return "", false
	}
	text, ok := r.Output.Response.(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}
