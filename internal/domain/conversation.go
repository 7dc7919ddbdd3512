package domain

// Message is one immutable entry in a session's history.
type Message struct {
	ID        MessageID `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at"`
}

// RecentMessage is the trimmed shape passed to the generator as context.
type RecentMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// State names the session state machine positions.
type State string

const (
	StateIdle           State = "idle"
	StateActive         State = "active"
	StateAwaitingWrapup State = "awaiting_wrapup"
)

// View is the projection handed to the display boundary.
type View struct {
	SessionID      SessionID `json:"session_id"`
	State          State     `json:"state"`
	Task           string    `json:"task"`
	Messages       []Message `json:"messages"`
	IsTyping       bool      `json:"is_typing"`
	Mood           Mood      `json:"mood"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	StreakDays     int       `json:"streak_days"`
	AwaitingWrapup bool      `json:"awaiting_wrapup"`
	CheckinArmed   bool      `json:"checkin_armed"`
}
