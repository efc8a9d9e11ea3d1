package headhunter

import (
	"testing"

	"github.com/microcosm-cc/bluemonday"
)

func TestVacancyToPosting(t *testing.T) {
	v := &Vacancy{
		ID:           "1",
		Name:         "Go Developer",
		AlternateURL: "https://hh.ru/vacancy/1",
		Description:  "<p>We use <strong>Go</strong> &amp; PostgreSQL.</p><ul><li>Kubernetes</li></ul>",
		PublishedAt:  "2023-05-06T10:00:00+0300",
	}
	v.Employer.Name = "Acme"
	v.Area.Name = "Moscow"
	v.Schedule.ID = "remote"
	v.Employment.Name = "Full time"
	v.ProfessionalRoles = append(v.ProfessionalRoles, struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	}{ID: "96", Name: "Programmer, developer"})

	p := v.ToPosting(bluemonday.StrictPolicy())

	if p.Title != "Go Developer" || p.Company != "Acme" || p.Location != "Moscow" {
		t.Fatalf("unexpected identity fields: %+v", p)
	}
	if p.Description != "We use Go & PostgreSQL. Kubernetes" {
		t.Fatalf("unexpected description: %q", p.Description)
	}
	if p.IsRemote != "True" {
		t.Fatalf("expected remote flag True, got %q", p.IsRemote)
	}
	if p.Industry != "Programmer, developer" {
		t.Fatalf("unexpected industry: %q", p.Industry)
	}
	if p.Site != SourceName || p.DatePosted != "2023-05-06T10:00:00+0300" {
		t.Fatalf("unexpected source fields: %+v", p)
	}
}

func TestVacancyRemoteFlag(t *testing.T) {
	tests := []struct {
		schedule string
		want     string
	}{
		{schedule: "remote", want: "True"},
		{schedule: "fullDay", want: "False"},
		{schedule: "", want: ""},
	}

	for _, tt := range tests {
		v := &Vacancy{}
		v.Schedule.ID = tt.schedule
		if got := v.remote(); got != tt.want {
			t.Fatalf("schedule %q: expected %q, got %q", tt.schedule, tt.want, got)
		}
	}
}

func TestVacancySnippetFallback(t *testing.T) {
	v := &Vacancy{}
	v.Snipet.Requirement = "Experience with <highlighttext>Python</highlighttext>"
	v.Snipet.Responsibility = "Build pipelines"
	v.Specializations = append(v.Specializations, struct {
		ProfareaName string `json:"profarea_name,omitempty"`
	}{ProfareaName: "IT"})

	p := v.ToPosting(bluemonday.StrictPolicy())
	if p.Description != "Experience with Python Build pipelines" {
		t.Fatalf("unexpected description: %q", p.Description)
	}
	if p.Industry != "IT" {
		t.Fatalf("unexpected industry: %q", p.Industry)
	}
}
