// Package reminder keeps student reminders in two tiers: a broadcast tier
// written by admins and shared by every student, and a private tier per
// student. A student's view is their private tier plus the broadcast items
// they have not seen yet; viewing promotes those items into the private tier,
// after which only the private copy counts.
package reminder

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/store"
)

const (
	Kind = "reminders"
	// ClaimedKind records, per student, the broadcast ids already promoted.
	ClaimedKind = "reminders-claimed"
	// BroadcastOwner owns the shared tier.
	BroadcastOwner = "broadcast"
)

// Clock tells the current time.
type Clock interface {
	Now() time.Time
}

type Options struct {
	KV         core.KVStore
	Clock      Clock
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	Notifier   core.Notifier
}

type Service struct {
	items      *store.Collection[Reminder]
	claimed    *store.Document[[]int]
	clock      Clock
	validate   *validator.Validate
	translator ut.Translator
	notifier   core.Notifier
	logger     core.Logger
}

func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Service{
		items:      store.NewCollection[Reminder](opts.KV, Kind, opts.Logger),
		claimed:    store.NewDocument[[]int](opts.KV, ClaimedKind, opts.Logger),
		clock:      opts.Clock,
		validate:   opts.Validate,
		translator: opts.Translator,
		notifier:   opts.Notifier,
		logger:     opts.Logger,
	}
}

// View returns the student's reminders, promoting unseen broadcast items into
// their private tier first. A broadcast item is promoted once per student: if
// the student later deletes it, it does not come back. Promoted copies get a
// private id, so the student's own reminders never hide a broadcast item.
func (svc *Service) View(ctx context.Context, studentID string) ([]Reminder, error) {
	broadcast, err := svc.items.Load(ctx, BroadcastOwner)
	if err != nil {
		return nil, err
	}

	var (
		view     []Reminder
		promoted int
	)
	_, err = svc.claimed.Mutate(ctx, studentID, func(claimed []int, _ bool) ([]int, error) {
		fresh := unclaimed(broadcast, claimed)
		var err error
		view, err = svc.items.Mutate(ctx, studentID, func(private []Reminder, alloc *store.Allocator) ([]Reminder, error) {
			incoming := notHeld(private, fresh)
			if promoted = len(incoming); promoted == 0 {
				return nil, store.ErrNoChange
			}
			out := make([]Reminder, 0, len(private)+promoted)
			out = append(out, private...)
			for _, b := range incoming {
				out = append(out, promote(b, alloc.Next()))
			}
			return out, nil
		})
		if err != nil {
			return nil, err
		}
		if len(fresh) == 0 {
			return nil, store.ErrNoChange
		}
		for _, r := range fresh {
			claimed = append(claimed, r.ID)
		}
		return claimed, nil
	})
	if err != nil {
		return nil, err
	}
	if promoted > 0 {
		svc.notifier.Notify(core.NotifyInfo, fmt.Sprintf("%d reminders from Admin", promoted))
	}
	return view, nil
}

// promote returns the student's private copy of the broadcast item b.
func promote(b Reminder, id int) Reminder {
	b.BroadcastID = b.ID
	b.ID = id
	b.Origin = OriginBroadcast
	return b
}

// unclaimed drops the broadcast items whose id is in claimed.
func unclaimed(broadcast []Reminder, claimed []int) []Reminder {
	if len(claimed) == 0 {
		return broadcast
	}
	seen := make(map[int]struct{}, len(claimed))
	for _, id := range claimed {
		seen[id] = struct{}{}
	}
	out := make([]Reminder, 0, len(broadcast))
	for _, r := range broadcast {
		if _, ok := seen[r.ID]; !ok {
			out = append(out, r)
		}
	}
	return out
}

// notHeld drops the broadcast items private already holds a copy of.
func notHeld(private, broadcast []Reminder) []Reminder {
	out := make([]Reminder, 0, len(broadcast))
	for _, b := range broadcast {
		var held bool
		for _, r := range private {
			if r.copyOf(b) {
				held = true
				break
			}
		}
		if !held {
			out = append(out, b)
		}
	}
	return out
}

func (svc *Service) validateNew(in NewReminder) (NewReminder, error) {
	in.Title = core.CleanString(in.Title)
	in.Deadline = core.CleanString(in.Deadline)
	if in.Title == "" {
		svc.notifier.Notify(core.NotifyError, "Please enter a title for the reminder")
		return in, core.NewValidationMessage(
			"Please enter a title for the reminder",
			core.FieldError{Field: "title", Error: "this field is required"},
		)
	}
	if err := core.ValidateStruct(svc.validate, svc.translator, in, "invalid reminder"); err != nil {
		svc.notifier.Notify(core.NotifyError, "Please enter a valid deadline")
		return in, err
	}
	if in.Deadline == "" {
		in.Deadline = core.FormatDate(svc.clock.Now())
	}
	return in, nil
}

// Add creates a reminder in the student's private tier.
func (svc *Service) Add(ctx context.Context, studentID string, in NewReminder) (Reminder, error) {
	in, err := svc.validateNew(in)
	if err != nil {
		return Reminder{}, err
	}
	rem, err := svc.items.Create(ctx, studentID, Reminder{Title: in.Title, Deadline: in.Deadline, Origin: OriginUser})
	if err != nil {
		return Reminder{}, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Reminder added successfully")
	return rem, nil
}

func pick(items []Reminder, id int) Reminder {
	rem, _ := store.Find(items, id)
	return rem
}

// Toggle flips the completion of a private reminder. found is false for an unknown id.
func (svc *Service) Toggle(ctx context.Context, studentID string, id int) (rem Reminder, found bool, err error) {
	items, found, err := svc.items.Update(ctx, studentID, id, func(r Reminder) Reminder {
		r.IsCompleted = !r.IsCompleted
		return r
	})
	if err != nil || !found {
		return Reminder{}, found, err
	}

	rem = pick(items, id)
	if rem.IsCompleted {
		svc.notifier.Notify(core.NotifySuccess, fmt.Sprintf("Completed %q!", rem.Title))
	} else {
		svc.notifier.Notify(core.NotifySuccess, fmt.Sprintf("Marked %q as incomplete", rem.Title))
	}
	return rem, true, nil
}

// Delete removes a private reminder. Promoted broadcast items stay deleted for
// this student only.
func (svc *Service) Delete(ctx context.Context, studentID string, id int) (found bool, err error) {
	_, found, err = svc.items.Delete(ctx, studentID, id)
	if err != nil || !found {
		return found, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Reminder deleted")
	return true, nil
}

// Broadcasts returns the shared tier as admins see it.
func (svc *Service) Broadcasts(ctx context.Context) ([]Reminder, error) {
	return svc.items.Load(ctx, BroadcastOwner)
}

// AddBroadcast creates a reminder every student will receive on their next view.
func (svc *Service) AddBroadcast(ctx context.Context, in NewReminder) (Reminder, error) {
	in, err := svc.validateNew(in)
	if err != nil {
		return Reminder{}, err
	}
	rem, err := svc.items.Create(ctx, BroadcastOwner, Reminder{Title: in.Title, Deadline: in.Deadline, Origin: OriginBroadcast})
	if err != nil {
		return Reminder{}, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Reminder added successfully")
	return rem, nil
}

// UpdateBroadcast edits a broadcast reminder. Students who already hold a
// copy keep theirs unchanged.
func (svc *Service) UpdateBroadcast(ctx context.Context, id int, in NewReminder) (rem Reminder, found bool, err error) {
	in, err = svc.validateNew(in)
	if err != nil {
		return Reminder{}, false, err
	}
	items, found, err := svc.items.Update(ctx, BroadcastOwner, id, func(r Reminder) Reminder {
		r.Title, r.Deadline = in.Title, in.Deadline
		return r
	})
	if err != nil || !found {
		return Reminder{}, found, err
	}
	return pick(items, id), true, nil
}

func (svc *Service) ToggleBroadcast(ctx context.Context, id int) (rem Reminder, found bool, err error) {
	items, found, err := svc.items.Update(ctx, BroadcastOwner, id, func(r Reminder) Reminder {
		r.IsCompleted = !r.IsCompleted
		return r
	})
	if err != nil || !found {
		return Reminder{}, found, err
	}
	return pick(items, id), true, nil
}

func (svc *Service) DeleteBroadcast(ctx context.Context, id int) (found bool, err error) {
	_, found, err = svc.items.Delete(ctx, BroadcastOwner, id)
	return found, err
}
