// Package rules holds the keyword lists, technology dictionary and selector
// lists the extraction pipeline runs on. Values are plain data: callers get a
// fresh copy from Default() and may overlay it from YAML before handing it to
// constructors, which never mutate it.
package rules

// ExperienceBand maps a case-insensitive regular expression to a level label.
type ExperienceBand struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
}

type Vocabulary struct {
	// matched against the upper-cased card text
	CompanyMarkers []string `yaml:"company_markers"`
	RoleKeywords   []string `yaml:"role_keywords"`
	// exact (lower-cased) badge texts that are never a title
	JobTypeBadges []string `yaml:"job_type_badges"`
	LocationWords []string `yaml:"location_words"`

	CompanyRejectWords     []string `yaml:"company_reject_words"`
	LocationRejectWords    []string `yaml:"location_reject_words"`
	DescriptionRejectWords []string `yaml:"description_reject_words"`
	CompensationIndicators []string `yaml:"compensation_indicators"`

	ExperienceBands []ExperienceBand `yaml:"experience_bands"`

	SkillStopwords []string `yaml:"skill_stopwords"`
	Technologies   []string `yaml:"technologies"`
}

// DefaultVocabulary returns a new copy of the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		CompanyMarkers: []string{"COMPANY", "CORP", "INC", "LTD", "LLC", "TECH", "SOLUTIONS", "LABS", "TECHNOLOGIES"},
		RoleKeywords: []string{
			"engineer", "developer", "designer", "manager", "analyst", "specialist",
			"architect", "scientist", "intern", "consultant", "administrator", "lead",
		},
		JobTypeBadges: []string{
			"full time", "full-time", "part time", "part-time", "internship", "intern", "contract", "freelance",
		},
		LocationWords: []string{"remote", "onsite", "on-site", "hybrid", "work from home", "wfh"},

		CompanyRejectWords:     []string{"apply", "view", "details", "ago", "hours", "days", "full time", "part time"},
		LocationRejectWords:    []string{"year", "month", "experience", "apply", "view"},
		DescriptionRejectWords: []string{"apply now", "view details", "compensation"},
		CompensationIndicators: []string{"lpa", "ctc", "$", "₹", "€", "£", "salary", "k", "lakh", "lakhs", "per annum"},

		ExperienceBands: []ExperienceBand{
			{Pattern: `\b0\s*-\s*1\s*(years?|yrs?)\b`, Level: "Entry Level"},
			{Pattern: `\b1\s*-\s*3\s*(years?|yrs?)\b`, Level: "Junior"},
			{Pattern: `\b3\s*-\s*5\s*(years?|yrs?)\b`, Level: "Mid Level"},
			{Pattern: `\b5\s*\+\s*(years?|yrs?)\b`, Level: "Senior"},
			{Pattern: `(^|[^\d-])0\s*(years?|yrs?)\b`, Level: "Entry Level"},
			{Pattern: `\bentry[\s-]?level\b`, Level: "Entry Level"},
			{Pattern: `\bfreshers?\b`, Level: "Entry Level"},
			{Pattern: `\bjunior\b`, Level: "Junior"},
			{Pattern: `\bmid[\s-]?level\b`, Level: "Mid Level"},
			{Pattern: `\bsenior\b`, Level: "Senior"},
			{Pattern: `\blead\b`, Level: "Lead"},
			{Pattern: `\bprincipal\b`, Level: "Principal"},
			{Pattern: `\bexperienced\b`, Level: "Mid Level"},
		},

		SkillStopwords: []string{
			"year", "years", "yrs", "experience", "degree", "bachelor", "bachelors", "master", "masters",
			"location", "apply", "copyright", "©", "home", "about", "contact", "login", "signup", "sign in",
			"sign up", "privacy", "terms", "jobs", "view details", "salary", "lpa", "ctc", "full time",
			"part time", "required", "requirements", "responsibilities", "skills", "tech stack", "ago",
			"hours", "days", "compensation", "description",
		},
		Technologies: defaultTechnologies(),
	}
}

func defaultTechnologies() []string {
	return []string{
		// languages
		"Python", "JavaScript", "TypeScript", "Java", "Go", "Golang", "Rust", "C++", "C#", "Ruby", "PHP",
		"Kotlin", "Swift", "Scala", "Dart", "Elixir", "Solidity", "SQL", "HTML", "HTML5", "CSS", "CSS3", "Bash",
		// frameworks and libraries
		"React", "React Native", "Next.js", "Node.js", "Express", "Angular", "Vue.js", "Vue", "Svelte",
		"Django", "Flask", "FastAPI", "Spring Boot", "Spring", "Laravel", "Rails", "Flutter", ".NET",
		"Tailwind", "Redux", "GraphQL", "jQuery", "Bootstrap", "TensorFlow", "PyTorch", "Pandas", "NumPy",
		"LangChain", "Web3",
		// data stores
		"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Kafka", "RabbitMQ", "Firebase",
		"Supabase", "DynamoDB", "Cassandra", "SQLite",
		// cloud and tooling
		"AWS", "Azure", "GCP", "Google Cloud", "Docker", "Kubernetes", "Terraform", "Jenkins", "Git",
		"GitHub", "GitLab", "Linux", "Nginx", "CI/CD", "DevOps", "Figma", "Jira", "Postman", "REST", "REST API",
		"gRPC", "Microservices", "Blockchain",
		// data and AI
		"Machine Learning", "Deep Learning", "Data Science", "LLMs", "LLM", "NLP", "AI", "ML",
		"Computer Vision", "Generative AI", "Power BI", "Tableau", "Excel",
		// practices
		"Agile", "Scrum", "TDD", "UI/UX", "SEO",
	}
}
