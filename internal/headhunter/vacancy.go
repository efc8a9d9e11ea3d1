package headhunter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spigell/hh-analyst/internal/postings"
)

const remoteScheduleID = "remote"

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Schedule struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"schedule,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Employment   struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employment,omitempty"`
	Description string `json:"description,omitempty"`
	KeySkills   []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Snipet struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	Specializations []struct {
		ProfareaName string `json:"profarea_name,omitempty"`
	} `json:"specializations,omitempty"`
	ProfessionalRoles []struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"professional_roles,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// ToPosting converts the vacancy. HTML is stripped from the description with the given policy.
func (va *Vacancy) ToPosting(policy *bluemonday.Policy) postings.Posting {
	return postings.Posting{
		ID:          va.ID,
		Site:        SourceName,
		JobURL:      va.AlternateURL,
		Title:       va.Name,
		Company:     va.Employer.Name,
		Location:    va.Area.Name,
		Industry:    va.industry(),
		JobType:     va.Employment.Name,
		Description: va.text(policy),
		DatePosted:  va.PublishedAt,
		IsRemote:    va.remote(),
	}
}

func (va *Vacancy) industry() string {
	if len(va.ProfessionalRoles) > 0 {
		return va.ProfessionalRoles[0].Name
	}
	if len(va.Specializations) > 0 {
		return va.Specializations[0].ProfareaName
	}
	return ""
}

// remote maps the schedule onto the "True"/"False" flag. An unknown schedule stays empty.
func (va *Vacancy) remote() string {
	switch va.Schedule.ID {
	case "":
		return ""
	case remoteScheduleID:
		return "True"
	default:
		return "False"
	}
}

func (va *Vacancy) text(policy *bluemonday.Policy) string {
	parts := []string{va.Description}
	if va.Description == "" {
		parts = []string{va.Snipet.Requirement, va.Snipet.Responsibility}
	}
	for _, s := range va.KeySkills {
		parts = append(parts, s.Name)
	}

	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if policy != nil {
			// Tags are replaced by a space so adjacent blocks do not glue together.
			p = html.UnescapeString(policy.Sanitize(strings.ReplaceAll(p, "<", " <")))
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(strings.Fields(p), " "))
	}
	return b.String()
}
