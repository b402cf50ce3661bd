package model

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Case statuses
const (
	CaseStatusActive  = "Active"
	CaseStatusPending = "Pending"
	CaseStatusClosed  = "Closed"
)

// Case priorities
const (
	CasePriorityHigh   = "High"
	CasePriorityMedium = "Medium"
	CasePriorityLow    = "Low"
)

// Case results
const (
	CaseResultWon     = "Won"
	CaseResultLost    = "Lost"
	CaseResultPending = "Pending"
)

// Team member roles
const (
	TeamRoleLead     = "Lead"
	TeamRoleJunior   = "Junior"
	TeamRoleReviewer = "Reviewer"
)

// TeamMember is an advocate-side user assigned to a case. A user appears at
// most once per case, enforced by the repository's conditional update.
type TeamMember struct {
	UserID string `json:"user_id" bson:"user_id"`
	Role   string `json:"role" bson:"role"`
}

// Validate validates a team member entry.
func (t *TeamMember) Validate() error {
	if t.UserID == "" {
		return errors.New("user_id is required")
	}
	if t.Role == "" {
		t.Role = TeamRoleJunior
	}
	switch t.Role {
	case TeamRoleLead, TeamRoleJunior, TeamRoleReviewer:
	default:
		return fmt.Errorf("invalid role: %s", t.Role)
	}
	return nil
}

// Document is a file attached to a case.
type Document struct {
	ID                primitive.ObjectID `json:"id" bson:"id"`
	FileName          string             `json:"file_name" bson:"file_name"`
	VisibleToClient   bool               `json:"visible_to_client" bson:"visible_to_client"`
	VisibleToAdvocate bool               `json:"visible_to_advocate" bson:"visible_to_advocate"`
	UploadedAt        time.Time          `json:"uploaded_at" bson:"uploaded_at"`
}

// Note is a free-text annotation on a case.
type Note struct {
	ID          primitive.ObjectID `json:"id" bson:"id"`
	Note        string             `json:"note" bson:"note"`
	CreatedByID string             `json:"created_by_id,omitempty" bson:"created_by_id,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// Case is a legal case tracked on behalf of a client, worked by an advocate
// and their team. Team members, documents and notes are embedded: they are
// only ever read through their case.
type Case struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CaseNumber  string             `json:"case_number" bson:"case_number"`

	// References into the user service; opaque here.
	ClientID   string `json:"client_id,omitempty" bson:"client_id,omitempty"`
	AdvocateID string `json:"advocate_id,omitempty" bson:"advocate_id,omitempty"`

	Priority    string     `json:"priority" bson:"priority"`
	Status      string     `json:"status" bson:"status"`
	Result      string     `json:"result" bson:"result"`
	HearingDate *time.Time `json:"hearing_date,omitempty" bson:"hearing_date,omitempty"`

	Team      []TeamMember `json:"team,omitempty" bson:"team,omitempty"`
	Documents []Document   `json:"documents,omitempty" bson:"documents,omitempty"`
	Notes     []Note       `json:"notes,omitempty" bson:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate validates a case and fills workflow defaults.
func (c *Case) Validate() error {
	if c.Title == "" {
		return errors.New("title is required")
	}
	if c.CaseNumber == "" {
		return errors.New("case_number is required")
	}

	if c.Priority == "" {
		c.Priority = CasePriorityMedium
	}
	switch c.Priority {
	case CasePriorityHigh, CasePriorityMedium, CasePriorityLow:
	default:
		return fmt.Errorf("invalid priority: %s", c.Priority)
	}

	if c.Status == "" {
		c.Status = CaseStatusPending
	}
	switch c.Status {
	case CaseStatusActive, CaseStatusPending, CaseStatusClosed:
	default:
		return fmt.Errorf("invalid status: %s", c.Status)
	}

	if c.Result == "" {
		c.Result = CaseResultPending
	}
	switch c.Result {
	case CaseResultWon, CaseResultLost, CaseResultPending:
	default:
		return fmt.Errorf("invalid result: %s", c.Result)
	}

	for i := range c.Team {
		if err := c.Team[i].Validate(); err != nil {
			return fmt.Errorf("team member %d: %w", i, err)
		}
	}

	return nil
}

// CaseSummary is the list-view projection of a case.
type CaseSummary struct {
	ID          primitive.ObjectID `json:"id" bson:"_id"`
	Title       string             `json:"title" bson:"title"`
	CaseNumber  string             `json:"case_number" bson:"case_number"`
	Status      string             `json:"status" bson:"status"`
	Priority    string             `json:"priority" bson:"priority"`
	ClientID    string             `json:"client_id,omitempty" bson:"client_id,omitempty"`
	AdvocateID  string             `json:"advocate_id,omitempty" bson:"advocate_id,omitempty"`
	HearingDate *time.Time         `json:"hearing_date,omitempty" bson:"hearing_date,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
