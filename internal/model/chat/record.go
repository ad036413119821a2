package chat

import (
	"time"

	"github.com/zhouzirui/mindhaven/backend/internal/analysis/emotion"
)

// TimestampLayout is the wire format of Record.Timestamp.
const TimestampLayout = time.RFC3339Nano

// Record persists one exchange for the history view.
type Record struct {
	ID        string        `json:"id"`
	Timestamp string        `json:"ts"`
	User      string        `json:"user"`
	Bot       string        `json:"bot"`
	Emotion   emotion.Label `json:"emotion"`
}

// NewRecord stamps a record with the UTC time t.
func NewRecord(id string, t time.Time, user, bot string, label emotion.Label) Record {
	return Record{
		ID:        id,
		Timestamp: t.UTC().Format(TimestampLayout),
		User:      user,
		Bot:       bot,
		Emotion:   label,
	}
}
