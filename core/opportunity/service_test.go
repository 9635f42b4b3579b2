package opportunity

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/placement/core"
	testutil "github.com/trezcool/placement/tests"
)

func newService(env *testutil.Env) *Service {
	return NewService(Options{
		KV:         env.KV,
		Validate:   env.Validate,
		Translator: env.Translator,
		Logger:     env.Logger,
		Notifier:   env.Notifier,
	})
}

func seeded(t *testing.T, env *testutil.Env) *Service {
	t.Helper()
	svc := newService(env)
	ok, err := svc.Seed(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	return svc
}

func validInput() Input {
	return Input{
		Title:       "Data Analyst Intern",
		Company:     "Acme Analytics",
		Location:    "Remote",
		Description: "Work with the data team.",
		Type:        TypeInternship,
		Salary:      "$25 per hour",
		Skills:      []string{"SQL", " Python ", "", "SQL"},
		Deadline:    "2025-06-01",
	}
}

func titles(items []Opportunity) []string {
	out := make([]string, 0, len(items))
	for _, o := range items {
		out = append(out, o.Title)
	}
	return out
}

func TestService_Seed(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := seeded(t, env)
	ctx := context.Background()

	items, err := svc.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, items, 5)
	for i, o := range items {
		assert.Equal(t, i+1, o.ID)
	}
	assert.Equal(t, "Frontend Developer", items[0].Title)
	assert.Equal(t, "UI/UX Designer", items[4].Title)

	ok, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "seeding twice is a no-op")

	_, err = svc.Delete(ctx, 1)
	require.NoError(t, err)
	ok, err = svc.Seed(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "an edited list is never reseeded")
}

func TestService_Create(t *testing.T) {
	noSkills := validInput()
	noSkills.Skills = []string{" "}
	missing := validInput()
	missing.Salary = "  "
	badDate := validInput()
	badDate.Deadline = "June 1st"
	badScore := validInput()
	score := 101
	badScore.MatchScore = &score

	tests := []struct {
		name    string
		in      Input
		wantErr string
	}{
		{name: "valid", in: validInput()},
		{name: "missing field", in: missing, wantErr: "Please fill in all required fields"},
		{name: "bad deadline", in: badDate, wantErr: "Please fill in all required fields"},
		{name: "score out of range", in: badScore, wantErr: "Please fill in all required fields"},
		{name: "no skills", in: noSkills, wantErr: "Please add at least one skill"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testutil.NewEnv(t)
			svc := newService(env)
			ctx := context.Background()

			opp, err := svc.Create(ctx, tt.in)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, core.IsValidation(err))
				assert.Equal(t, tt.wantErr, err.Error())
				env.LastNote(t, core.NotifyError, tt.wantErr)
				items, _ := svc.Query(ctx, Filter{})
				assert.Empty(t, items)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, opp.ID)
			assert.Equal(t, []string{"SQL", "Python"}, opp.Skills)
			assert.Equal(t, defaultMatchScore, opp.MatchScore)
			assert.Equal(t, LogoURL("Acme Analytics"), opp.Logo)
			env.LastNote(t, core.NotifySuccess, "Job opportunity added successfully")
		})
	}
}

func TestService_UpdateDelete(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := seeded(t, env)
	ctx := context.Background()

	before, err := svc.Get(ctx, 2)
	require.NoError(t, err)

	in := validInput()
	opp, found, err := svc.Update(ctx, 2, in)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, opp.ID)
	assert.Equal(t, "Data Analyst Intern", opp.Title)
	assert.Equal(t, before.MatchScore, opp.MatchScore, "score kept when not given")
	assert.Equal(t, before.Logo, opp.Logo, "logo kept")
	env.LastNote(t, core.NotifySuccess, "Job opportunity updated successfully")

	env.Notifier.Reset()
	_, found, err = svc.Update(ctx, 99, in)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = svc.Delete(ctx, 99)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, env.Notifier.Notes())

	found, err = svc.Delete(ctx, 2)
	require.NoError(t, err)
	assert.True(t, found)
	_, err = svc.Get(ctx, 2)
	assert.Equal(t, ErrNotFound, err)

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	assert.Equal(t, 6, created.ID)
}

func TestService_Query(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := seeded(t, env)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    Filter
		orderings []core.Ordering
		want      []string
	}{
		{
			name:   "search by skill",
			filter: Filter{Search: "aws"},
			want:   []string{"Full Stack Developer", "DevOps Engineer"},
		},
		{
			name:   "search by company",
			filter: Filter{Search: "creative"},
			want:   []string{"UI/UX Designer"},
		},
		{
			name:   "type substring",
			filter: Filter{Type: "part"},
			want:   []string{"UI/UX Designer"},
		},
		{
			name:   "all types",
			filter: Filter{Search: "developer", Type: "all"},
			want:   []string{"Frontend Developer", "Full Stack Developer"},
		},
		{
			name:   "search and type",
			filter: Filter{Search: "react", Type: "full-time"},
			want:   []string{"Frontend Developer"},
		},
		{
			name:      "deadline ascending",
			orderings: []core.Ordering{{Field: "deadline", Ascending: true}},
			want:      []string{"Frontend Developer", "Backend Software Engineer", "UI/UX Designer", "Full Stack Developer", "DevOps Engineer"},
		},
		{
			name:      "company descending",
			orderings: []core.Ordering{{Field: "company"}},
			want:      []string{"Full Stack Developer", "Frontend Developer", "Backend Software Engineer", "UI/UX Designer", "DevOps Engineer"},
		},
		{
			name:      "unknown ordering keeps insertion order",
			orderings: []core.Ordering{{Field: "salary"}},
			want:      []string{"Frontend Developer", "Backend Software Engineer", "Full Stack Developer", "DevOps Engineer", "UI/UX Designer"},
		},
		{
			name:   "nothing",
			filter: Filter{Search: "cobol"},
			want:   []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.Query(ctx, tt.filter, tt.orderings...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(items))
		})
	}
}

func TestService_ApplyBookmark(t *testing.T) {
	env := testutil.NewEnv(t)
	svc := seeded(t, env)
	ctx := context.Background()

	found, err := svc.Apply(ctx, "s1", 3)
	require.NoError(t, err)
	assert.True(t, found)
	env.LastNote(t, core.NotifySuccess, "Application submitted successfully!")

	found, err = svc.Apply(ctx, "s1", 3)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = svc.Bookmark(ctx, "s1", 5)
	require.NoError(t, err)
	assert.True(t, found)
	env.LastNote(t, core.NotifySuccess, "Job saved to your bookmarks!")

	env.Notifier.Reset()
	found, err = svc.Bookmark(ctx, "s1", 42)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, env.Notifier.Notes())

	applied, err := svc.Applications(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Full Stack Developer"}, titles(applied), "recorded once")

	saved, err := svc.Bookmarks(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"UI/UX Designer"}, titles(saved))

	other, err := svc.Applications(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = svc.Delete(ctx, 3)
	require.NoError(t, err)
	applied, err = svc.Applications(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, applied, "deleted listings drop out")
}

func TestLogoURL(t *testing.T) {
	tests := []struct {
		company  string
		wantName string
	}{
		{company: "TechCorp Inc", wantName: "T+I"},
		{company: "webWizards", wantName: "W"},
		{company: "  Cloud   Systems Group ", wantName: "C+S"},
	}
	for _, tt := range tests {
		t.Run(tt.company, func(t *testing.T) {
			url := LogoURL(tt.company)
			assert.True(t, strings.HasPrefix(url, "https://ui-avatars.com/api/?name="+tt.wantName+"&background="), url)
			assert.True(t, strings.HasSuffix(url, "&color=fff"), url)
			assert.Equal(t, url, LogoURL(tt.company), "stable")

			var inPalette bool
			for _, c := range logoColors {
				inPalette = inPalette || strings.Contains(url, "background="+c+"&")
			}
			assert.True(t, inPalette, url)
		})
	}
}

func TestMatchScore(t *testing.T) {
	required := []string{"React", "TypeScript", "Tailwind CSS", "RESTful APIs"}

	tests := []struct {
		name string
		have []string
		want int
	}{
		{name: "none", have: []string{"COBOL"}, want: 0},
		{name: "case insensitive", have: []string{"react", "TYPESCRIPT"}, want: 50},
		{name: "close spelling", have: []string{"React", "Typescript", "TailwindCSS", "Restful API"}, want: 100},
		{name: "similar but different", have: []string{"Javascript"}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchScore(required, tt.have))
		})
	}

	assert.Equal(t, 0, MatchScore(nil, []string{"React"}))
	assert.Greater(t, SkillSimilarity("Node.js", "NodeJS"), SkillMatchThreshold)
}

func TestMatchFor(t *testing.T) {
	items := DemoOpportunities()

	kept := MatchFor(items, nil)
	assert.Equal(t, items, kept)

	scored := MatchFor(items, []string{"AWS", "Docker", "Kubernetes"})
	assert.Equal(t, 92, items[0].MatchScore, "input untouched")
	assert.Equal(t, 0, scored[0].MatchScore)
	assert.Equal(t, 25, scored[2].MatchScore)
	assert.Equal(t, 60, scored[3].MatchScore)
}
