package chat

import (
	"time"
)

type Sender string

const (
	SenderSelf  Sender = "self"
	SenderOther Sender = "other"
)

type Message struct {
	ID          int       `json:"id"`
	Sender      Sender    `json:"sender"`
	DisplayName string    `json:"name"`
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m Message) GetID() int { return m.ID }

func (m Message) WithID(id int) Message {
	m.ID = id
	return m
}

// Conversation is one student's thread as the admin inbox holds it.
type Conversation struct {
	StudentID  string    `json:"student_id"`
	Name       string    `json:"name"`
	LastActive time.Time `json:"last_active"`
	Messages   []Message `json:"messages"`
}
