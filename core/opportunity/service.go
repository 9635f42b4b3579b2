// Package opportunity manages the job listings admins publish and the
// applications and bookmarks students make on them.
package opportunity

import (
	"context"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/store"
)

const (
	Kind             = "opportunities"
	ApplicationsKind = "applications"
	BookmarksKind    = "bookmarks"
)

var ErrNotFound = errors.New("opportunity not found")

// Filter narrows Query results.
type Filter struct {
	// Search matches title, company, description or any skill, ignoring case.
	Search string
	// Type matches a substring of the job type. "all" or empty matches everything.
	Type string
}

type Options struct {
	KV         core.KVStore
	Validate   *validator.Validate
	Translator ut.Translator
	Logger     core.Logger
	Notifier   core.Notifier
}

type Service struct {
	items        *store.Collection[Opportunity]
	applications *store.Document[[]int]
	bookmarks    *store.Document[[]int]
	validate     *validator.Validate
	translator   ut.Translator
	logger       core.Logger
	notifier     core.Notifier
}

func NewService(opts Options) *Service {
	if opts.Notifier == nil {
		opts.Notifier = core.NopNotifier
	}
	return &Service{
		items:        store.NewCollection[Opportunity](opts.KV, Kind, opts.Logger),
		applications: store.NewDocument[[]int](opts.KV, ApplicationsKind, opts.Logger),
		bookmarks:    store.NewDocument[[]int](opts.KV, BookmarksKind, opts.Logger),
		validate:     opts.Validate,
		translator:   opts.Translator,
		logger:       opts.Logger,
		notifier:     opts.Notifier,
	}
}

func (svc *Service) validateInput(in Input) (Input, error) {
	in = in.clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, in, "Please fill in all required fields"); err != nil {
		svc.notifier.Notify(core.NotifyError, err.Error())
		return in, err
	}
	if len(in.Skills) == 0 {
		svc.notifier.Notify(core.NotifyError, "Please add at least one skill")
		return in, core.NewValidationMessage(
			"Please add at least one skill",
			core.FieldError{Field: "skills", Error: "add at least one skill"},
		)
	}
	return in, nil
}

// Create publishes a new opportunity.
func (svc *Service) Create(ctx context.Context, in Input) (Opportunity, error) {
	in, err := svc.validateInput(in)
	if err != nil {
		return Opportunity{}, err
	}
	opp := in.apply(Opportunity{})
	opp.Logo = LogoURL(opp.Company)

	opp, err = svc.items.Create(ctx, store.Global, opp)
	if err != nil {
		return Opportunity{}, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Job opportunity added successfully")
	return opp, nil
}

// Update edits an opportunity. The logo is kept. found is false for an unknown id.
func (svc *Service) Update(ctx context.Context, id int, in Input) (opp Opportunity, found bool, err error) {
	in, err = svc.validateInput(in)
	if err != nil {
		return Opportunity{}, false, err
	}
	items, found, err := svc.items.Update(ctx, store.Global, id, in.apply)
	if err != nil || !found {
		return Opportunity{}, found, err
	}
	opp, _ = store.Find(items, id)
	svc.notifier.Notify(core.NotifySuccess, "Job opportunity updated successfully")
	return opp, true, nil
}

func (svc *Service) Delete(ctx context.Context, id int) (found bool, err error) {
	_, found, err = svc.items.Delete(ctx, store.Global, id)
	if err != nil || !found {
		return found, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Job opportunity deleted successfully")
	return true, nil
}

func (svc *Service) Get(ctx context.Context, id int) (Opportunity, error) {
	items, err := svc.items.Load(ctx, store.Global)
	if err != nil {
		return Opportunity{}, err
	}
	opp, ok := store.Find(items, id)
	if !ok {
		return Opportunity{}, ErrNotFound
	}
	return opp, nil
}

// Query returns the opportunities matching filter, sorted by orderings.
// Supported fields are deadline and company; others are ignored.
func (svc *Service) Query(ctx context.Context, filter Filter, orderings ...core.Ordering) ([]Opportunity, error) {
	items, err := svc.items.Load(ctx, store.Global)
	if err != nil {
		return nil, err
	}

	result := make([]Opportunity, 0, len(items))
	for _, opp := range items {
		if matchesSearch(opp, filter.Search) && matchesType(opp, filter.Type) {
			result = append(result, opp)
		}
	}
	Sort(result, orderings...)
	return result, nil
}

func matchesSearch(opp Opportunity, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	if core.ContainsFold(opp.Title, search) || core.ContainsFold(opp.Company, search) || core.ContainsFold(opp.Description, search) {
		return true
	}
	for _, skill := range opp.Skills {
		if core.ContainsFold(skill, search) {
			return true
		}
	}
	return false
}

func matchesType(opp Opportunity, typ string) bool {
	typ = strings.TrimSpace(typ)
	return typ == "" || strings.EqualFold(typ, "all") || core.ContainsFold(opp.Type, typ)
}

// Sort orders items in place by the recognized orderings, in priority order.
func Sort(items []Opportunity, orderings ...core.Ordering) {
	cmps := make([]func(a, b Opportunity) int, 0, len(orderings))
	for _, ord := range orderings {
		var cmp func(a, b Opportunity) int
		switch ord.Field {
		case "deadline":
			cmp = func(a, b Opportunity) int { return strings.Compare(a.Deadline, b.Deadline) }
		case "company":
			cmp = func(a, b Opportunity) int {
				return strings.Compare(strings.ToLower(a.Company), strings.ToLower(b.Company))
			}
		default:
			continue
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b Opportunity) int { return asc(b, a) }
		}
		cmps = append(cmps, cmp)
	}
	if len(cmps) == 0 {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, cmp := range cmps {
			if c := cmp(items[i], items[j]); c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// record adds id to the student's list behind doc, once.
func (svc *Service) record(ctx context.Context, doc *store.Document[[]int], studentID string, id int) (found bool, err error) {
	if _, err := svc.Get(ctx, id); err == ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	_, err = doc.Mutate(ctx, studentID, func(ids []int, _ bool) ([]int, error) {
		for _, got := range ids {
			if got == id {
				return nil, store.ErrNoChange
			}
		}
		return append(ids, id), nil
	})
	return err == nil, err
}

// Apply records an application. Unknown ids are ignored and found is false.
func (svc *Service) Apply(ctx context.Context, studentID string, id int) (found bool, err error) {
	if found, err = svc.record(ctx, svc.applications, studentID, id); err != nil || !found {
		return found, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Application submitted successfully!")
	return true, nil
}

// Bookmark saves an opportunity for later. Unknown ids are ignored and found is false.
func (svc *Service) Bookmark(ctx context.Context, studentID string, id int) (found bool, err error) {
	if found, err = svc.record(ctx, svc.bookmarks, studentID, id); err != nil || !found {
		return found, err
	}
	svc.notifier.Notify(core.NotifySuccess, "Job saved to your bookmarks!")
	return true, nil
}

func (svc *Service) listed(ctx context.Context, doc *store.Document[[]int], studentID string) ([]Opportunity, error) {
	ids, _, err := doc.Load(ctx, studentID)
	if err != nil {
		return nil, err
	}
	items, err := svc.items.Load(ctx, store.Global)
	if err != nil {
		return nil, err
	}
	out := make([]Opportunity, 0, len(ids))
	for _, id := range ids {
		if opp, ok := store.Find(items, id); ok {
			out = append(out, opp)
		}
	}
	return out, nil
}

// Applications returns the opportunities the student applied to that still exist.
func (svc *Service) Applications(ctx context.Context, studentID string) ([]Opportunity, error) {
	return svc.listed(ctx, svc.applications, studentID)
}

// Bookmarks returns the opportunities the student saved that still exist.
func (svc *Service) Bookmarks(ctx context.Context, studentID string) ([]Opportunity, error) {
	return svc.listed(ctx, svc.bookmarks, studentID)
}
