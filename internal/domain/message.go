package domain

import "time"

// Sender tags who authored a conversation entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Valid reports whether s is a known sender.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

// TimeFormat renders entry timestamps as two-digit hour and minute.
const TimeFormat = "03:04 PM"

// Entry is one rendered message in a widget's conversation log.
// Text is already safe markup.
type Entry struct {
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp string    `json:"timestamp"`
	At        time.Time `json:"at"`
}

// NewEntry stamps markup with the given sender and time.
func NewEntry(markup string, sender Sender, at time.Time) Entry {
	return Entry{
		Text:      markup,
		Sender:    sender,
		Timestamp: at.Format(TimeFormat),
		At:        at,
	}
}

// WebhookRequest is the JSON body a widget posts to its remote endpoint.
type WebhookRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

// WebhookReply is the JSON body a remote endpoint answers with. Only one of
// Response, Message or Reply is normally set.
type WebhookReply struct {
	Response          string `json:"response,omitempty"`
	Message           string `json:"message,omitempty"`
	Reply             string `json:"reply,omitempty"`
	FormattedResponse string `json:"formattedResponse,omitempty"`
}
