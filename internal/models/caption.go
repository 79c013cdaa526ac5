// Package models defines the event payloads exchanged over the event bus and
// the HTTP API.
package models

// Event types carried in the eventType field and Kafka header.
const (
	EventCaptionAppend  = "interview.caption.append"
	EventCaptionReplace = "interview.caption.replace"
	EventQAGenerated    = "interview.qa.generated"
)

// CaptionFragment is one raw caption update from a speech source, as it
// arrives on the fragment topic or the HTTP ingest route.
type CaptionFragment struct {
	InteractionID string `json:"interactionId"`
	Role          string `json:"role"`
	Text          string `json:"text"`
	Timestamp     int64  `json:"timestamp"`
}

// CaptionMutation is emitted whenever the stabilized caption log changes.
type CaptionMutation struct {
	EventType     string `json:"eventType"`
	SessionID     string `json:"sessionId"`
	Index         int    `json:"index"`
	Role          string `json:"role"`
	Speaker       string `json:"speaker"`
	Text          string `json:"text"`
	FirstSeenAt   int64  `json:"firstSeenAt"`
	LastUpdatedAt int64  `json:"lastUpdatedAt"`
}
