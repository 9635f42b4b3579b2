package opportunity

import (
	"math"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// SkillMatchThreshold is the similarity ratio from which two skill names are
// considered the same skill.
const SkillMatchThreshold = 0.8

// SkillSimilarity returns the difflib ratio of a and b, ignoring case and
// surrounding whitespace.
func SkillSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// MatchScore returns the percentage, 0 to 100, of required skills the student has.
func MatchScore(required, have []string) int {
	if len(required) == 0 {
		return 0
	}
	var matched int
	for _, req := range required {
		for _, h := range have {
			if SkillSimilarity(req, h) >= SkillMatchThreshold {
				matched++
				break
			}
		}
	}
	return int(math.Round(100 * float64(matched) / float64(len(required))))
}

// MatchFor returns copies of items scored against the student's skills.
// Without skills the stored scores are kept.
func MatchFor(items []Opportunity, studentSkills []string) []Opportunity {
	out := make([]Opportunity, len(items))
	copy(out, items)
	if len(cleanSkills(studentSkills)) == 0 {
		return out
	}
	for i := range out {
		out[i].MatchScore = MatchScore(out[i].Skills, studentSkills)
	}
	return out
}
