package opportunity

import (
	"context"

	"github.com/trezcool/placement/core/store"
)

// Seed installs the demo listings unless opportunities were already stored.
func (svc *Service) Seed(ctx context.Context) (seeded bool, err error) {
	_, err = svc.items.Mutate(ctx, store.Global, func(items []Opportunity, alloc *store.Allocator) ([]Opportunity, error) {
		if exists, err := svc.items.Exists(ctx, store.Global); err != nil {
			return nil, err
		} else if exists {
			return nil, store.ErrNoChange
		}
		for _, opp := range DemoOpportunities() {
			items = append(items, opp.WithID(alloc.Next()))
		}
		seeded = true
		return items, nil
	})
	return seeded, err
}

// DemoOpportunities are the listings a fresh install starts with.
func DemoOpportunities() []Opportunity {
	return []Opportunity{
		{
			Title:       "Frontend Developer",
			Company:     "TechCorp Inc",
			Location:    "San Francisco, CA (Remote)",
			Description: "We are looking for a Frontend Developer with experience in React, TypeScript, and modern CSS frameworks.",
			Type:        TypeFullTime,
			Salary:      "$80,000 - $120,000",
			Skills:      []string{"React", "TypeScript", "Tailwind CSS", "RESTful APIs"},
			Deadline:    "2025-05-10",
			MatchScore:  92,
			Logo:        "https://ui-avatars.com/api/?name=T+C&background=0E7490&color=fff",
		},
		{
			Title:       "Backend Software Engineer",
			Company:     "Innovate Solutions",
			Location:    "New York, NY (On-site)",
			Description: "Backend engineer with strong knowledge of Node.js and database technologies to build scalable applications.",
			Type:        TypeFullTime,
			Salary:      "$90,000 - $130,000",
			Skills:      []string{"Node.js", "Express", "MongoDB", "GraphQL"},
			Deadline:    "2025-05-15",
			MatchScore:  78,
			Logo:        "https://ui-avatars.com/api/?name=I+S&background=10B981&color=fff",
		},
		{
			Title:       "Full Stack Developer",
			Company:     "WebWizards",
			Location:    "Seattle, WA (Hybrid)",
			Description: "Full stack role working with modern JavaScript frameworks to deliver engaging user experiences.",
			Type:        TypeContract,
			Salary:      "$70 - $90 per hour",
			Skills:      []string{"React", "Node.js", "PostgreSQL", "AWS"},
			Deadline:    "2025-05-20",
			MatchScore:  85,
			Logo:        "https://ui-avatars.com/api/?name=W+W&background=6366F1&color=fff",
		},
		{
			Title:       "DevOps Engineer",
			Company:     "Cloud Systems",
			Location:    "Austin, TX (Remote)",
			Description: "Experienced DevOps engineer to help us build and maintain our cloud infrastructure.",
			Type:        TypeFullTime,
			Salary:      "$95,000 - $140,000",
			Skills:      []string{"AWS", "Docker", "Kubernetes", "CI/CD", "Terraform"},
			Deadline:    "2025-05-25",
			MatchScore:  65,
			Logo:        "https://ui-avatars.com/api/?name=C+S&background=F59E0B&color=fff",
		},
		{
			Title:       "UI/UX Designer",
			Company:     "Creative Labs",
			Location:    "Los Angeles, CA (On-site)",
			Description: "Create beautiful and functional user interfaces for web and mobile applications.",
			Type:        TypePartTime,
			Salary:      "$50 - $75 per hour",
			Skills:      []string{"Figma", "Adobe XD", "UI Design", "User Research"},
			Deadline:    "2025-05-18",
			MatchScore:  72,
			Logo:        "https://ui-avatars.com/api/?name=C+L&background=EC4899&color=fff",
		},
	}
}
