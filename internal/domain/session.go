package domain

// WidgetState is a point-in-time snapshot of a widget.
type WidgetState struct {
	SessionID string `json:"sessionId"`
	Open      bool   `json:"open"`
	Waiting   bool   `json:"waiting"`
	Destroyed bool   `json:"destroyed"`
	Entries   int    `json:"entries"`
}
