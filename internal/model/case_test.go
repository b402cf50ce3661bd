package model

import (
	"testing"
	"time"
)

func validCase() *Case {
	return &Case{
		Title:      "Property dispute",
		CaseNumber: "CASE-2026-001",
		ClientID:   "client-1",
		AdvocateID: "adv-1",
	}
}

func TestCaseValidateDefaults(t *testing.T) {
	c := validCase()
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Priority != CasePriorityMedium {
		t.Fatalf("priority default %s", c.Priority)
	}
	if c.Status != CaseStatusPending {
		t.Fatalf("status default %s", c.Status)
	}
	if c.Result != CaseResultPending {
		t.Fatalf("result default %s", c.Result)
	}
}

func TestCaseValidateRequiredFields(t *testing.T) {
	c := validCase()
	c.Title = ""
	if err := c.Validate(); err == nil {
		t.Fatal("missing title accepted")
	}

	c = validCase()
	c.CaseNumber = ""
	if err := c.Validate(); err == nil {
		t.Fatal("missing case_number accepted")
	}
}

func TestCaseValidateRejectsBadEnums(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Case)
	}{
		{"priority", func(c *Case) { c.Priority = "Urgent" }},
		{"status", func(c *Case) { c.Status = "Archived" }},
		{"result", func(c *Case) { c.Result = "Settled" }},
	} {
		c := validCase()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("bad %s accepted", tc.name)
		}
	}
}

func TestCaseValidateTeam(t *testing.T) {
	c := validCase()
	c.Team = []TeamMember{{UserID: "u1"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if c.Team[0].Role != TeamRoleJunior {
		t.Fatalf("role default %s", c.Team[0].Role)
	}

	c.Team = append(c.Team, TeamMember{UserID: "u2", Role: "Partner"})
	if err := c.Validate(); err == nil {
		t.Fatal("invalid team role accepted")
	}

	c.Team = []TeamMember{{Role: TeamRoleLead}}
	if err := c.Validate(); err == nil {
		t.Fatal("team member without user_id accepted")
	}
}

func TestBookingValidate(t *testing.T) {
	b := &Booking{
		ClientID:            "client-1",
		AdvocateID:          "adv-1",
		AppointmentDatetime: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if b.Status != BookingStatusPending {
		t.Fatalf("status default %s", b.Status)
	}

	b.Status = "Tentative"
	if err := b.Validate(); err == nil {
		t.Fatal("invalid status accepted")
	}

	for _, tc := range []struct {
		name   string
		mutate func(*Booking)
	}{
		{"client_id", func(b *Booking) { b.ClientID = "" }},
		{"advocate_id", func(b *Booking) { b.AdvocateID = "" }},
		{"appointment_datetime", func(b *Booking) { b.AppointmentDatetime = time.Time{} }},
	} {
		b := &Booking{
			ClientID:            "client-1",
			AdvocateID:          "adv-1",
			AppointmentDatetime: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		}
		tc.mutate(b)
		if err := b.Validate(); err == nil {
			t.Errorf("missing %s accepted", tc.name)
		}
	}
}
