package model

import (
	"fmt"
	"strings"
)

// RawProfile is the enrichment API's person payload. Every field is
// optional on the wire; DecodeProfile applies defaults before any
// business logic sees the record.
type RawProfile struct {
	FullName       string          `json:"full_name"`
	Headline       string          `json:"headline"`
	Occupation     string          `json:"occupation"`
	Summary        string          `json:"summary"`
	City           string          `json:"city"`
	Country        string          `json:"country"`
	Connections    int             `json:"connections"`
	FollowerCount  int             `json:"follower_count"`
	Experiences    []RawExperience `json:"experiences"`
	Skills         []RawNamed      `json:"skills"`
	Certifications []RawNamed      `json:"certifications"`
	Education      []RawEducation  `json:"education"`
}

// RawExperience is one position entry in the raw payload.
type RawExperience struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	CompanyURL  string   `json:"company_linkedin_profile_url"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	StartsAt    *RawDate `json:"starts_at"`
	EndsAt      *RawDate `json:"ends_at"`
}

// RawNamed is a payload item that may arrive as {"name": ...}.
type RawNamed struct {
	Name string `json:"name"`
}

// RawEducation is one education entry in the raw payload.
type RawEducation struct {
	School       string   `json:"school"`
	DegreeName   string   `json:"degree_name"`
	FieldOfStudy string   `json:"field_of_study"`
	StartsAt     *RawDate `json:"starts_at"`
	EndsAt       *RawDate `json:"ends_at"`
}

// RawDate carries only the year component the enrichment API reports.
type RawDate struct {
	Year int `json:"year"`
}

// RawOrganization is the enrichment API's company payload.
type RawOrganization struct {
	Name        string `json:"name"`
	CompanySize int    `json:"company_size"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// Profile is the fully-typed internal person record.
type Profile struct {
	Name           string       `json:"name"`
	Title          string       `json:"title"`
	Company        string       `json:"company"`
	Location       string       `json:"location"`
	Summary        string       `json:"summary"`
	Expertise      []string     `json:"expertise"`
	Certifications []string     `json:"certifications"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Connections    int          `json:"connections"`
	FollowerCount  int          `json:"follower_count"`
}

// Experience is one formatted position.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Education is one formatted education entry.
type Education struct {
	School   string `json:"school"`
	Degree   string `json:"degree"`
	Field    string `json:"field"`
	Duration string `json:"duration"`
}

// Organization is the fully-typed internal company record.
type Organization struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
}

// IntentSignals is the output of the signal heuristic engine for a title.
type IntentSignals struct {
	JobTitle    string   `json:"job_title"`
	Signals     int      `json:"signals"`
	PainPoints  []string `json:"pain_points"`
	Keywords    []string `json:"keywords"`
	Sentiment   string   `json:"sentiment"`
	Urgency     string   `json:"urgency"`
	BudgetCycle string   `json:"budget_cycle"`
}

const (
	maxExpertise      = 8
	maxCertifications = 6
	maxExperience     = 5
	maxEducation      = 3
)

// DecodeProfile converts a raw enrichment payload into a Profile,
// filling defaults for every absent field.
func DecodeProfile(raw *RawProfile) Profile {
	p := Profile{
		Name:          stringOr(raw.FullName, "Unknown"),
		Title:         stringOr(raw.Occupation, stringOr(raw.Headline, "Unknown Title")),
		Company:       "Unknown Company",
		Location:      formatLocation(raw.City, raw.Country),
		Summary:       raw.Summary,
		Connections:   raw.Connections,
		FollowerCount: raw.FollowerCount,
	}

	if len(raw.Experiences) > 0 && raw.Experiences[0].Company != "" {
		p.Company = raw.Experiences[0].Company
	}

	for _, s := range raw.Skills {
		if s.Name == "" {
			continue
		}
		p.Expertise = append(p.Expertise, s.Name)
		if len(p.Expertise) == maxExpertise {
			break
		}
	}
	for _, c := range raw.Certifications {
		if c.Name == "" {
			continue
		}
		p.Certifications = append(p.Certifications, c.Name)
		if len(p.Certifications) == maxCertifications {
			break
		}
	}

	for i, exp := range raw.Experiences {
		if i == maxExperience {
			break
		}
		title := stringOr(exp.Title, "Unknown Title")
		company := stringOr(exp.Company, "Unknown Company")
		desc := exp.Description
		if desc == "" {
			desc = fmt.Sprintf("%s at %s", title, company)
		}
		p.Experience = append(p.Experience, Experience{
			Title:       title,
			Company:     company,
			Duration:    formatDuration(exp.StartsAt, exp.EndsAt),
			Description: desc,
			Location:    exp.Location,
		})
	}

	for i, edu := range raw.Education {
		if i == maxEducation {
			break
		}
		p.Education = append(p.Education, Education{
			School:   stringOr(edu.School, "Unknown School"),
			Degree:   stringOr(edu.DegreeName, "Unknown Degree"),
			Field:    edu.FieldOfStudy,
			Duration: formatDuration(edu.StartsAt, edu.EndsAt),
		})
	}

	return p
}

// DecodeOrganization converts a raw company payload into an Organization.
func DecodeOrganization(raw *RawOrganization) Organization {
	return Organization{
		Name:        stringOr(raw.Name, "Unknown Company"),
		Size:        raw.CompanySize,
		Industry:    raw.Industry,
		Description: raw.Description,
	}
}

// PrimaryCompanyURL returns the company URL of the most recent position,
// or "" when none is present.
func (r *RawProfile) PrimaryCompanyURL() string {
	if len(r.Experiences) == 0 {
		return ""
	}
	return r.Experiences[0].CompanyURL
}

func stringOr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func formatLocation(city, country string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{city, country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Unknown Location"
	}
	return strings.Join(parts, ", ")
}

func formatDuration(start, end *RawDate) string {
	if start == nil || start.Year == 0 {
		return "Unknown Duration"
	}
	to := "Present"
	if end != nil && end.Year != 0 {
		to = fmt.Sprintf("%d", end.Year)
	}
	return fmt.Sprintf("%d - %s", start.Year, to)
}
