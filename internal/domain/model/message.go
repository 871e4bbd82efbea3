package model

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"trades-marketplace/internal/domain"
)

// Message is a directed note between two parties about a job. IDs are ULIDs
// so lexical order matches creation order.
type Message struct {
	ID         string    `json:"id"`
	JobID      string    `json:"job_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

const MaxMessageLength = 4000

func NewMessage(jobID, senderID, receiverID, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if jobID == "" || senderID == "" || receiverID == "" || content == "" {
		return nil, domain.ErrInvalidArgument
	}
	if senderID == receiverID || len([]rune(content)) > MaxMessageLength {
		return nil, domain.ErrInvalidArgument
	}
	return &Message{
		ID:         ulid.Make().String(),
		JobID:      jobID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// IsBetween reports whether the message belongs to the a<->b conversation.
func (m *Message) IsBetween(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
