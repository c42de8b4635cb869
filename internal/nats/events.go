package nats

import (
	"time"
)

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamEvents = "ROVERCHAT_EVENTS"
)

// Subject constants.
const (
	SubjectEvents    = "roverchat.events.>"
	SubjectTurnEvent = "roverchat.events.turn"
	SubjectLogsEvent = "roverchat.events.logs"
)

// TurnEvent is published after a chat turn has been persisted. It carries no
// message content.
type TurnEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	EarthDate      string    `json:"earth_date"`
	MemoriesUsed   int       `json:"memories_used"`
	CompletedAt    time.Time `json:"completed_at"`
}

// LogsEvent is published after a transaction log has been served.
type LogsEvent struct {
	ID        string    `json:"id"`
	EarthDate string    `json:"earth_date"`
	Entries   int       `json:"entries"`
	ServedAt  time.Time `json:"served_at"`
}
