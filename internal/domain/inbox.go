package domain

import "time"

// InboxMessage is one request received by the demo reply endpoint.
type InboxMessage struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Message    string    `json:"message"`
	Reply      string    `json:"reply"`
	SentAt     string    `json:"sentAt,omitempty"` // client supplied timestamp, verbatim
	ReceivedAt time.Time `json:"receivedAt"`
}

// SessionSummary aggregates the inbox messages of one session.
type SessionSummary struct {
	SessionID string    `json:"sessionId"`
	Messages  int       `json:"messages"`
	LastSeen  time.Time `json:"lastSeen"`
}
