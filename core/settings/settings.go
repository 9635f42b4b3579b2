// Package settings keeps each user's contact details and notification
// preferences. Saving them also renames the signed-in session user.
package settings

import (
	"context"
	"net/mail"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/store"
	"github.com/trezcool/placement/core/user"
)

const Kind = "settings"

type Settings struct {
	Name                     string `json:"name" validate:"required,notblank"`
	Email                    string `json:"email" validate:"required,email"`
	Phone                    string `json:"phone"`
	Location                 string `json:"location"`
	LinkedIn                 string `json:"linkedin"`
	GitHub                   string `json:"github"`
	EnableEmailNotifications bool   `json:"enable_email_notifications"`
}

func (s Settings) clean() Settings {
	s.Name = core.CleanString(s.Name)
	s.Email = core.CleanString(s.Email, true /* lower */)
	s.Phone = core.CleanString(s.Phone)
	s.Location = core.CleanString(s.Location)
	s.LinkedIn = core.CleanString(s.LinkedIn)
	s.GitHub = core.CleanString(s.GitHub)
	return s
}

// Defaults are the settings of a user who never saved any.
func Defaults(usr user.User) Settings {
	return Settings{Name: usr.Name, Email: usr.Email, EnableEmailNotifications: true}
}

// ProfileUpdater applies profile changes to the signed-in user.
type ProfileUpdater interface {
	CurrentUser() (user.User, bool)
	UpdateProfile(ctx context.Context, patch user.ProfilePatch) (user.User, error)
}

type Options struct {
	KV         core.KVStore
	Session    ProfileUpdater
	Users      user.Repository
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	Notifier   core.Notifier
}

type Service struct {
	doc        *store.Document[Settings]
	session    ProfileUpdater
	users      user.Repository
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
	notifier   core.Notifier
}

func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Service{
		doc:        store.NewDocument[Settings](opts.KV, Kind, opts.Logger),
		session:    opts.Session,
		users:      opts.Users,
		validate:   opts.Validate,
		translator: opts.Translator,
		logger:     opts.Logger,
		notifier:   opts.Notifier,
	}
}

// Load returns the stored settings of userID; found is false if none were saved.
func (svc *Service) Load(ctx context.Context, userID string) (Settings, bool, error) {
	return svc.doc.Load(ctx, userID)
}

// Get returns the user's settings, falling back to Defaults.
func (svc *Service) Get(ctx context.Context, usr user.User) (Settings, error) {
	s, found, err := svc.doc.Load(ctx, usr.ID)
	if err != nil {
		return Settings{}, err
	}
	if !found {
		return Defaults(usr), nil
	}
	return s, nil
}

// Save validates and stores s for usr, then pushes the new name and e-mail
// into the session.
func (svc *Service) Save(ctx context.Context, usr user.User, s Settings) (Settings, error) {
	s = s.clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, s, "Please enter a valid name and email"); err != nil {
		svc.notifier.Notify(core.NotifyError, err.Error())
		return Settings{}, err
	}
	if err := svc.doc.Save(ctx, usr.ID, s); err != nil {
		svc.notifier.Notify(core.NotifyError, "Failed to save settings")
		return Settings{}, err
	}

	if current, ok := svc.sessionUser(); ok && current.ID == usr.ID {
		if _, err := svc.session.UpdateProfile(ctx, user.ProfilePatch{Name: &s.Name, Email: &s.Email}); err != nil {
			svc.logger.Warn("settings saved but session profile not updated", err, usr)
		}
	}
	svc.notifier.Notify(core.NotifySuccess, "Settings saved successfully")
	return s, nil
}

func (svc *Service) sessionUser() (user.User, bool) {
	if svc.session == nil {
		return user.User{}, false
	}
	return svc.session.CurrentUser()
}

// DigestRecipients lists the students who keep e-mail notifications on.
func (svc *Service) DigestRecipients(ctx context.Context) ([]reminder.Recipient, error) {
	students, err := svc.users.Filter(user.RoleStudent, "")
	if err != nil {
		return nil, err
	}
	out := make([]reminder.Recipient, 0, len(students))
	for _, usr := range students {
		s, err := svc.Get(ctx, usr)
		if err != nil {
			return nil, err
		}
		if !s.EnableEmailNotifications || s.Email == "" {
			continue
		}
		out = append(out, reminder.Recipient{
			ID:      usr.ID,
			Name:    s.Name,
			Address: mail.Address{Name: s.Name, Address: s.Email},
		})
	}
	return out, nil
}
