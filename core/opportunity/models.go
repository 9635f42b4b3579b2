package opportunity

import (
	"hash/fnv"
	"strings"
)

// Job types offered by the opportunity form.
const (
	TypeFullTime   = "Full-time"
	TypePartTime   = "Part-time"
	TypeContract   = "Contract"
	TypeInternship = "Internship"
)

const defaultMatchScore = 75

type Opportunity struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Salary      string   `json:"salary"`
	Skills      []string `json:"skills"`
	Deadline    string   `json:"deadline"`
	MatchScore  int      `json:"match_score"`
	Logo        string   `json:"logo"`
}

func (o Opportunity) GetID() int { return o.ID }

func (o Opportunity) WithID(id int) Opportunity {
	o.ID = id
	return o
}

// Input is what an admin submits to create or edit an opportunity.
type Input struct {
	Title       string   `json:"title" validate:"required,notblank"`
	Company     string   `json:"company" validate:"required,notblank"`
	Location    string   `json:"location" validate:"required,notblank"`
	Description string   `json:"description" validate:"required,notblank"`
	Type        string   `json:"type"`
	Salary      string   `json:"salary" validate:"required,notblank"`
	Skills      []string `json:"skills"`
	Deadline    string   `json:"deadline" validate:"required,date"`
	MatchScore  *int     `json:"match_score" validate:"omitempty,min=0,max=100"`
}

func (in Input) clean() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Company = strings.TrimSpace(in.Company)
	in.Location = strings.TrimSpace(in.Location)
	in.Description = strings.TrimSpace(in.Description)
	in.Type = strings.TrimSpace(in.Type)
	in.Salary = strings.TrimSpace(in.Salary)
	in.Deadline = strings.TrimSpace(in.Deadline)
	if in.Type == "" {
		in.Type = TypeFullTime
	}
	in.Skills = cleanSkills(in.Skills)
	return in
}

// cleanSkills trims skills and drops blanks and exact duplicates, keeping order.
func cleanSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if _, dup := seen[s]; s == "" || dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (in Input) apply(o Opportunity) Opportunity {
	o.Title = in.Title
	o.Company = in.Company
	o.Location = in.Location
	o.Description = in.Description
	o.Type = in.Type
	o.Salary = in.Salary
	o.Skills = in.Skills
	o.Deadline = in.Deadline
	if in.MatchScore != nil {
		o.MatchScore = *in.MatchScore
	} else if o.ID == 0 {
		o.MatchScore = defaultMatchScore
	}
	return o
}

var logoColors = []string{"0E7490", "10B981", "6366F1", "F59E0B", "EC4899", "8B5CF6"}

// LogoURL returns an avatar URL built from the initials of the first two
// words of company, colored from a fixed palette by a hash of the name.
func LogoURL(company string) string {
	initials := make([]string, 0, 2)
	for _, word := range strings.Fields(company) {
		initials = append(initials, strings.ToUpper(string([]rune(word)[0])))
		if len(initials) == 2 {
			break
		}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(company))))
	color := logoColors[h.Sum32()%uint32(len(logoColors))]

	return "https://ui-avatars.com/api/?name=" + strings.Join(initials, "+") + "&background=" + color + "&color=fff"
}
