package reminder

import (
	"context"
	"net/mail"
	"sort"
	"time"

	"github.com/trezcool/placement/core"
)

// Recipient is a student who asked for e-mail notifications.
type Recipient struct {
	ID      string
	Name    string
	Address mail.Address
}

// RecipientSource lists the students that receive the digest.
type RecipientSource interface {
	DigestRecipients(ctx context.Context) ([]Recipient, error)
}

type digestData struct {
	Name      string
	Reminders []Reminder
}

// Digest e-mails each recipient their open reminders due within a window.
type Digest struct {
	reminders  *Service
	recipients RecipientSource
	email      core.EmailService
	window     time.Duration
}

func NewDigest(reminders *Service, recipients RecipientSource, email core.EmailService, window time.Duration) *Digest {
	return &Digest{reminders: reminders, recipients: recipients, email: email, window: window}
}

// DueSoon returns the open reminders whose deadline falls between now and
// now+window, earliest first. Unparsable deadlines are skipped.
func DueSoon(items []Reminder, now time.Time, window time.Duration) []Reminder {
	today := core.FormatDate(now)
	last := core.FormatDate(now.Add(window))

	due := make([]Reminder, 0)
	for _, r := range items {
		if r.IsCompleted {
			continue
		}
		if _, err := time.Parse(core.DateLayout, r.Deadline); err != nil {
			continue
		}
		if r.Deadline >= today && r.Deadline <= last {
			due = append(due, r)
		}
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].Deadline < due[j].Deadline })
	return due
}

// Run sends the digest and returns how many e-mails were queued. It reads the
// broadcast tier without promoting anything.
func (d *Digest) Run(ctx context.Context) (int, error) {
	recipients, err := d.recipients.DigestRecipients(ctx)
	if err != nil {
		return 0, err
	}
	broadcast, err := d.reminders.items.Load(ctx, BroadcastOwner)
	if err != nil {
		return 0, err
	}

	now := d.reminders.clock.Now()
	msgs := make([]*core.EmailMessage, 0, len(recipients))
	for _, rcpt := range recipients {
		private, err := d.reminders.items.Load(ctx, rcpt.ID)
		if err != nil {
			d.reminders.logger.Error("loading reminders for digest", err, map[string]interface{}{"student_id": rcpt.ID})
			continue
		}
		claimed, _, err := d.reminders.claimed.Load(ctx, rcpt.ID)
		if err != nil {
			d.reminders.logger.Error("loading claimed reminders for digest", err, map[string]interface{}{"student_id": rcpt.ID})
			continue
		}
		pending := notHeld(private, unclaimed(broadcast, claimed))
		items := make([]Reminder, 0, len(private)+len(pending))
		items = append(append(items, private...), pending...)
		due := DueSoon(items, now, d.window)
		if len(due) == 0 {
			continue
		}
		msgs = append(msgs, &core.EmailMessage{
			To:           []mail.Address{rcpt.Address},
			Subject:      "Reminders due soon",
			TemplateName: "reminder_digest",
			TemplateData: digestData{Name: rcpt.Name, Reminders: due},
		})
	}

	if len(msgs) > 0 {
		d.email.SendMessages(msgs...)
	}
	d.reminders.logger.Info("reminder digest sent", map[string]interface{}{"emails": len(msgs)})
	return len(msgs), nil
}
