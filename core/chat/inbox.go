package chat

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/store"
	"github.com/trezcool/placement/core/user"
)

// InboxOwner owns the admin inbox document, a map keyed by student id.
const InboxOwner = "admin"

var ErrConversationNotFound = errors.New("conversation not found")

func (svc *Service) loadInbox(ctx context.Context) (map[string]Conversation, error) {
	inbox, _, err := svc.inbox.Load(ctx, InboxOwner)
	if err != nil {
		return nil, err
	}
	if inbox == nil {
		inbox = make(map[string]Conversation)
	}
	return inbox, nil
}

// Conversations lists the inbox, most recently active first. A non-empty
// filter keeps the conversations whose participant name contains it, ignoring case.
func (svc *Service) Conversations(ctx context.Context, filter string) ([]Conversation, error) {
	inbox, err := svc.loadInbox(ctx)
	if err != nil {
		return nil, err
	}

	filter = core.CleanString(filter)
	convs := make([]Conversation, 0, len(inbox))
	for id, conv := range inbox {
		if filter != "" && !core.ContainsFold(conv.Name, filter) {
			continue
		}
		conv.StudentID = id
		convs = append(convs, conv)
	}
	sort.Slice(convs, func(i, j int) bool {
		if convs[i].LastActive.Equal(convs[j].LastActive) {
			return convs[i].StudentID < convs[j].StudentID
		}
		return convs[i].LastActive.After(convs[j].LastActive)
	})
	return convs, nil
}

// Conversation selects one student's conversation.
func (svc *Service) Conversation(ctx context.Context, studentID string) (Conversation, error) {
	inbox, err := svc.loadInbox(ctx)
	if err != nil {
		return Conversation{}, err
	}
	conv, ok := inbox[studentID]
	if !ok {
		return Conversation{}, ErrConversationNotFound
	}
	conv.StudentID = studentID
	return conv, nil
}

// SendTo appends text from admin to the student's conversation.
// Whitespace-only text and unknown students are no-ops and sent is false.
func (svc *Service) SendTo(ctx context.Context, admin user.User, studentID, text string) (msg Message, sent bool, err error) {
	if core.CleanString(text) == "" {
		return Message{}, false, nil
	}
	name := admin.Name
	if name == "" {
		name = "Admin User"
	}

	var to string
	_, err = svc.inbox.Mutate(ctx, InboxOwner, func(inbox map[string]Conversation, _ bool) (map[string]Conversation, error) {
		conv, ok := inbox[studentID]
		if !ok {
			return nil, store.ErrNoChange
		}
		now := svc.sched.Now()
		msg = Message{
			ID:          store.NextID(conv.Messages),
			Sender:      SenderSelf,
			DisplayName: name,
			Text:        text,
			Timestamp:   now,
		}
		conv.Messages = append(conv.Messages, msg)
		conv.LastActive = now
		inbox[studentID] = conv
		to, sent = conv.Name, true
		return inbox, nil
	})
	if err != nil || !sent {
		return Message{}, false, err
	}
	svc.notifier.Notify(core.NotifySuccess, fmt.Sprintf("Message sent to %s", to))
	return msg, true, nil
}

// SeedInbox installs the demo conversations unless an inbox already exists.
func (svc *Service) SeedInbox(ctx context.Context) (seeded bool, err error) {
	now := svc.sched.Now()
	_, err = svc.inbox.Mutate(ctx, InboxOwner, func(inbox map[string]Conversation, found bool) (map[string]Conversation, error) {
		if found {
			return nil, store.ErrNoChange
		}
		seeded = true
		return demoInbox(now), nil
	})
	return seeded, err
}

func demoInbox(now time.Time) map[string]Conversation {
	at := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02T15:04:05", s)
		return t
	}
	return map[string]Conversation{
		"s1": {
			Name:       "John Student",
			LastActive: now.Add(-10 * time.Minute),
			Messages: []Message{
				{ID: 1, Sender: SenderOther, DisplayName: "John Student", Text: "Hello, I had a question about the Software Engineering internship opportunity.", Timestamp: at("2025-04-16T14:30:00")},
				{ID: 2, Sender: SenderSelf, DisplayName: "Admin", Text: "Hi John! I'd be happy to answer your questions about the Software Engineering internship.", Timestamp: at("2025-04-16T14:35:00")},
				{ID: 3, Sender: SenderOther, DisplayName: "John Student", Text: "Thanks! What technical skills are required for this position?", Timestamp: at("2025-04-16T14:38:00")},
				{ID: 4, Sender: SenderSelf, DisplayName: "Admin", Text: "For this internship, we're looking for candidates with experience in JavaScript, React, and Node.js. Knowledge of database technologies like MongoDB or PostgreSQL is a plus.", Timestamp: at("2025-04-16T14:45:00")},
			},
		},
		"s2": {
			Name:       "Sarah Johnson",
			LastActive: now.Add(-3 * time.Hour),
			Messages: []Message{
				{ID: 1, Sender: SenderOther, DisplayName: "Sarah Johnson", Text: "Hi there! I'm interested in the UX Design position.", Timestamp: at("2025-04-16T10:15:00")},
			},
		},
		"s3": {
			Name:       "Michael Lee",
			LastActive: now.Add(-24 * time.Hour),
			Messages: []Message{
				{ID: 1, Sender: SenderOther, DisplayName: "Michael Lee", Text: "Good morning! I have some questions about the data science internship.", Timestamp: at("2025-04-15T09:30:00")},
			},
		},
	}
}
