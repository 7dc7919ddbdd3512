package domain

import "time"

type SessionID string
type MessageID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// TurnMode frames a request to the response generator.
type TurnMode string

const (
	ModeStart        TurnMode = "start"        // First message of a fresh task
	ModeCheckIn      TurnMode = "checkin"      // Proactive, not user-initiated
	ModeRoadblock    TurnMode = "roadblock"    // User sounds stuck
	ModeConversation TurnMode = "conversation" // Ongoing exchange
)

// ParseTurnMode maps wire spellings to a TurnMode. Unknown values fall back to conversation.
func ParseTurnMode(s string) TurnMode {
	switch TurnMode(s) {
	case ModeStart, ModeCheckIn, ModeRoadblock, ModeConversation:
		return TurnMode(s)
	case "check_in":
		return ModeCheckIn
	default:
		return ModeConversation
	}
}

// Mood is a derived display state. It is never authoritative.
type Mood string

const (
	MoodIdle        Mood = "idle"
	MoodThinking    Mood = "thinking"
	MoodCelebrating Mood = "celebrating"
	MoodConcerned   Mood = "concerned"
)

type Timestamp = time.Time

// DayLayout formats the calendar day stored on journal entries and usage records.
const DayLayout = "2006-01-02"

// Day returns the calendar day of t in its own location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}
