// Package resume stores each student's structured resume and the document
// they uploaded.
package resume

import (
	"context"
	"encoding/base64"
	"path"
	"strings"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/settings"
	"github.com/trezcool/placement/core/store"
	"github.com/trezcool/placement/core/user"
)

const (
	Kind     = "resume"
	FileKind = "resume-file"

	pdfType = "application/pdf"
)

var (
	acceptedTypes = map[string]bool{
		pdfType:              true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	}
	acceptedExts = map[string]bool{".pdf": true, ".doc": true, ".docx": true}
)

// Accepted reports whether meta is a PDF or Word document, by type or file name.
func Accepted(meta FileMeta) bool {
	return acceptedTypes[meta.Type] || acceptedExts[strings.ToLower(path.Ext(meta.Name))]
}

// SettingsSource reads a user's saved settings.
type SettingsSource interface {
	Load(ctx context.Context, userID string) (settings.Settings, bool, error)
}

type Options struct {
	KV       core.KVStore
	Settings SettingsSource
	Logger   core.Logger
	Notifier core.Notifier
}

type Service struct {
	doc      *store.Document[Resume]
	file     *store.Document[StoredFile]
	settings SettingsSource
	logger   core.Logger
	notifier core.Notifier
}

func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Service{
		doc:      store.NewDocument[Resume](opts.KV, Kind, opts.Logger),
		file:     store.NewDocument[StoredFile](opts.KV, FileKind, opts.Logger),
		settings: opts.Settings,
		logger:   opts.Logger,
		notifier: opts.Notifier,
	}
}

func (svc *Service) loadSettings(ctx context.Context, usr user.User) (settings.Settings, bool, error) {
	if svc.settings == nil {
		return settings.Settings{}, false, nil
	}
	return svc.settings.Load(ctx, usr.ID)
}

func orDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

// fresh is the resume of a student who never saved one, filled from settings.
func fresh(usr user.User, s settings.Settings) Resume {
	r := Template()
	r.PersonalInfo = PersonalInfo{
		Name:     orDefault(s.Name, usr.Name),
		Email:    orDefault(s.Email, usr.Email),
		Phone:    s.Phone,
		Location: s.Location,
		LinkedIn: s.LinkedIn,
		GitHub:   s.GitHub,
	}
	return r
}

// overlay refreshes the name and e-mail of a stored resume from saved settings.
func overlay(r Resume, usr user.User, s settings.Settings, hasSettings bool) Resume {
	if hasSettings {
		r.PersonalInfo.Name = orDefault(s.Name, usr.Name)
		r.PersonalInfo.Email = orDefault(s.Email, usr.Email)
	}
	return r
}

// Get returns the student's resume. Name and e-mail follow the saved settings.
func (svc *Service) Get(ctx context.Context, usr user.User) (Resume, error) {
	s, hasSettings, err := svc.loadSettings(ctx, usr)
	if err != nil {
		return Resume{}, err
	}
	r, found, err := svc.doc.Load(ctx, usr.ID)
	if err != nil {
		return Resume{}, err
	}
	if !found {
		return fresh(usr, s), nil
	}
	return overlay(r, usr, s, hasSettings), nil
}

// Skills returns the skills listed on the student's resume.
func (svc *Service) Skills(ctx context.Context, usr user.User) ([]string, error) {
	r, err := svc.Get(ctx, usr)
	if err != nil {
		return nil, err
	}
	return r.Skills, nil
}

func (svc *Service) Save(ctx context.Context, usr user.User, r Resume) (Resume, error) {
	if err := svc.doc.Save(ctx, usr.ID, r); err != nil {
		svc.notifier.Notify(core.NotifyError, "Failed to save resume")
		return Resume{}, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Resume saved successfully!")
	return r, nil
}

// mutate edits the stored resume, starting from a fresh one when none exists.
func (svc *Service) mutate(ctx context.Context, usr user.User, fn func(r Resume) (Resume, error)) (Resume, error) {
	s, hasSettings, err := svc.loadSettings(ctx, usr)
	if err != nil {
		return Resume{}, err
	}
	var out Resume
	_, err = svc.doc.Mutate(ctx, usr.ID, func(r Resume, found bool) (Resume, error) {
		if !found {
			r = fresh(usr, s)
		}
		next, err := fn(r)
		if err != nil {
			out = r
			return r, err
		}
		out = next
		return next, nil
	})
	if err != nil {
		return Resume{}, err
	}
	return overlay(out, usr, s, hasSettings), nil
}

// AddSkill appends skill to the resume. Blank input is ignored; a skill
// already listed, in any case, is rejected.
func (svc *Service) AddSkill(ctx context.Context, usr user.User, skill string) (Resume, bool, error) {
	skill = core.CleanString(skill)
	if skill == "" {
		r, err := svc.Get(ctx, usr)
		return r, false, err
	}

	var duplicate bool
	r, err := svc.mutate(ctx, usr, func(r Resume) (Resume, error) {
		for _, have := range r.Skills {
			if strings.EqualFold(have, skill) {
				duplicate = true
				return r, store.ErrNoChange
			}
		}
		r.Skills = append(r.Skills, skill)
		return r, nil
	})
	if err != nil {
		return Resume{}, false, err
	}
	if duplicate {
		msg := "This skill already exists in your resume"
		svc.notifier.Notify(core.NotifyError, msg)
		return r, false, core.NewValidationMessage(msg, core.FieldError{Field: "skill", Error: "already listed"})
	}
	svc.notifier.Notify(core.NotifySuccess, "Skill added successfully!")
	return r, true, nil
}

// RemoveSkill drops skill from the resume. removed is false when it was not listed.
func (svc *Service) RemoveSkill(ctx context.Context, usr user.User, skill string) (Resume, bool, error) {
	var removed bool
	r, err := svc.mutate(ctx, usr, func(r Resume) (Resume, error) {
		kept := make([]string, 0, len(r.Skills))
		for _, have := range r.Skills {
			if have == skill {
				removed = true
				continue
			}
			kept = append(kept, have)
		}
		if !removed {
			return r, store.ErrNoChange
		}
		r.Skills = kept
		return r, nil
	})
	if err != nil {
		return Resume{}, false, err
	}
	if removed {
		svc.notifier.Notify(core.NotifySuccess, "Skill removed successfully!")
	}
	return r, removed, nil
}

// Upload stores a PDF or Word document as the student's resume file. Only
// PDFs keep their content, as a data URL.
func (svc *Service) Upload(ctx context.Context, usr user.User, meta FileMeta, content []byte) (StoredFile, error) {
	if !Accepted(meta) {
		msg := "Please upload a PDF or Word document"
		svc.notifier.Notify(core.NotifyError, msg)
		return StoredFile{}, core.NewValidationMessage(msg, core.FieldError{Field: "file", Error: "unsupported file type"})
	}
	if meta.Size == 0 {
		meta.Size = int64(len(content))
	}

	f := StoredFile{File: meta}
	if meta.Type == pdfType {
		f.DataURL = "data:" + pdfType + ";base64," + base64.StdEncoding.EncodeToString(content)
	}
	if err := svc.file.Save(ctx, usr.ID, f); err != nil {
		svc.notifier.Notify(core.NotifyError, "Failed to upload resume")
		return StoredFile{}, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Resume uploaded successfully!")
	return f, nil
}

// File returns the uploaded document; found is false when there is none.
func (svc *Service) File(ctx context.Context, usr user.User) (StoredFile, bool, error) {
	return svc.file.Load(ctx, usr.ID)
}

func (svc *Service) RemoveFile(ctx context.Context, usr user.User) error {
	if err := svc.file.Remove(ctx, usr.ID); err != nil {
		return err
	}
	svc.notifier.Notify(core.NotifySuccess, "Stored resume removed successfully!")
	return nil
}
