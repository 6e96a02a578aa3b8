package chat

import (
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	PendingText = "Thinking..."
	ErrorText   = "AI error (assistant backend unavailable)."
)

// Message is one chat log entry. Only a pending assistant message may change,
// and only once.
type Message struct {
	ID      string
	Role    Role
	Text    string
	Pending bool
}

// Log is an append-only sequence of messages. Pending replies are addressed
// by ID, so overlapping sends each resolve their own placeholder.
type Log struct {
	messages []Message
	newID    func() string
}

func NewLog() *Log {
	return &Log{newID: func() string { return uuid.NewString() }}
}

// Send appends the user message and a pending assistant placeholder. It
// returns the placeholder ID, or ok=false when text is blank.
func (l *Log) Send(text string) (id string, ok bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	l.messages = append(l.messages, Message{ID: l.newID(), Role: RoleUser, Text: text})
	id = l.newID()
	l.messages = append(l.messages, Message{ID: id, Role: RoleAssistant, Text: PendingText, Pending: true})
	return id, true
}

// Resolve replaces the pending message with id. Unknown or already
// resolved IDs are ignored.
func (l *Log) Resolve(id, text string) bool {
	for i := range l.messages {
		if l.messages[i].ID != id {
			continue
		}
		if !l.messages[i].Pending {
			return false
		}
		l.messages[i].Text = text
		l.messages[i].Pending = false
		return true
	}
	return false
}

func (l *Log) Fail(id string) bool {
	return l.Resolve(id, ErrorText)
}

func (l *Log) Messages() []Message {
	return append([]Message(nil), l.messages...)
}

func (l *Log) Len() int {
	return len(l.messages)
}

func (l *Log) PendingCount() int {
	n := 0
	for _, m := range l.messages {
		if m.Pending {
			n++
		}
	}
	return n
}
