package hub

import (
	"github.com/onairhq/greenroom/internal/envelope"
)

// chatRetention caps per-room chat memory; append trims the oldest
// entries past this. Reads are further bounded by the caller's limit.
const chatRetention = 500

// chatLog is a per-room append-only sequence of minted chat entries.
// Appends and reads happen under the hub mutex because room registry
// operations may discard the log.
type chatLog struct {
	entries []envelope.ChatMessage
}

func (l *chatLog) append(m envelope.ChatMessage) {
	l.entries = append(l.entries, m)
	if n := len(l.entries) - chatRetention; n > 0 {
		l.entries = append([]envelope.ChatMessage{}, l.entries[n:]...)
	}
}

// tail returns a copy of at most limit entries, most-recent-last. A
// non-positive limit means the default tail.
func (l *chatLog) tail(limit int) []envelope.ChatMessage {
	if limit <= 0 {
		limit = DefaultChatTail
	}
	n := len(l.entries)
	if n > limit {
		n = limit
	}
	return append([]envelope.ChatMessage{}, l.entries[len(l.entries)-n:]...)
}
