package resume

type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
}

type Education struct {
	ID          int    `json:"id"`
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GPA         string `json:"gpa"`
}

type Experience struct {
	ID          int    `json:"id"`
	Company     string `json:"company"`
	Position    string `json:"position"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type Project struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

type Resume struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	Education    []Education  `json:"education"`
	Experience   []Experience `json:"experience"`
	Skills       []string     `json:"skills"`
	Projects     []Project    `json:"projects"`
}

// FileMeta describes an uploaded resume document.
type FileMeta struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	Type         string `json:"type"`
	LastModified int64  `json:"last_modified"`
}

// StoredFile is the uploaded document. DataURL is only kept for PDFs, which
// can be previewed.
type StoredFile struct {
	File    FileMeta `json:"file"`
	DataURL string   `json:"data_url,omitempty"`
}

// Template is the resume a student starts from.
func Template() Resume {
	return Resume{
		Education: []Education{
			{
				ID:          1,
				Institution: "University of Technology",
				Degree:      "Bachelor of Science in Computer Science",
				StartDate:   "2021-09",
				EndDate:     "2025-05",
				GPA:         "3.8/4.0",
			},
		},
		Experience: []Experience{
			{
				ID:          1,
				Company:     "Tech Internships Inc",
				Position:    "Software Engineering Intern",
				StartDate:   "2024-06",
				EndDate:     "2024-08",
				Description: "Developed and maintained web applications using React and Node.js. Collaborated with cross-functional teams to implement new features and fix bugs.",
			},
		},
		Skills: []string{
			"JavaScript", "TypeScript", "React", "Node.js", "HTML/CSS",
			"Git", "SQL", "MongoDB", "AWS", "Docker",
		},
		Projects: []Project{
			{
				ID:          1,
				Name:        "E-commerce Platform",
				Description: "Built a full-stack e-commerce platform with React, Node.js, and MongoDB. Implemented user authentication, product catalog, and checkout process.",
				Link:        "github.com/johnstudent/ecommerce",
			},
			{
				ID:          2,
				Name:        "Weather App",
				Description: "Developed a weather application using React that displays current weather and forecasts based on user location or search.",
				Link:        "github.com/johnstudent/weather-app",
			},
		},
	}
}
