package models

import (
	"strings"
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeContract   JobType = "CONTRACT"
	JobTypeInternship JobType = "INTERNSHIP"
)

var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship}

// ParseJobType accepts the enum value in any case. Unknown values return false.
func ParseJobType(s string) (JobType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, jt := range JobTypes {
		if string(jt) == s {
			return jt, true
		}
	}
	return "", false
}

const NotSpecified = "Not specified"

// JobPosting is one scraped listing. ExternalID is derived from company+title
// and is the upsert key.
type JobPosting struct {
	ID                 int64     `json:"id,omitempty"`
	ExternalID         string    `json:"external_id"`
	Title              string    `json:"title"`
	Company            string    `json:"company"`
	Location           string    `json:"location"`
	JobType            JobType   `json:"job_type"`
	ExperienceRequired string    `json:"experience_required"`
	CompensationText   string    `json:"compensation"`
	MinSalary          *float64  `json:"min_salary,omitempty"`
	MaxSalary          *float64  `json:"max_salary,omitempty"`
	SalaryCurrency     string    `json:"salary_currency"`
	ShortDescription   string    `json:"short_description"`
	FullDescription    string    `json:"full_description,omitempty"`
	Skills             []string  `json:"skills"`
	ApplyLink          string    `json:"apply_link,omitempty"`
	ViewDetailsLink    string    `json:"view_details_link,omitempty"`
	DetailsScraped     bool      `json:"details_scraped"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewJobPosting returns a posting with the listing defaults filled in.
func NewJobPosting(title, company string) JobPosting {
	return JobPosting{
		Title:              title,
		Company:            company,
		Location:           NotSpecified,
		JobType:            JobTypeFullTime,
		ExperienceRequired: NotSpecified,
		Skills:             []string{},
	}
}

// JobFilter narrows Count/List. Zero values mean "no constraint".
type JobFilter struct {
	JobTypes   []JobType
	Location   string
	Experience string
	Search     string
	Limit      int
	Offset     int
}

type Stats struct {
	Total          int             `json:"total"`
	ByJobType      map[JobType]int `json:"by_job_type"`
	DetailsScraped int             `json:"details_scraped"`
	LastUpdated    *time.Time      `json:"last_updated,omitempty"`
}
