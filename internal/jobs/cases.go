package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/model"
	"github.com/advolink/advolink/internal/task"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseJobs holds the handlers for case jobs.
type CaseJobs struct {
	cases *database.CaseRepository
}

// NewCaseJobs creates the case job handlers.
func NewCaseJobs(cases *database.CaseRepository) *CaseJobs {
	return &CaseJobs{cases: cases}
}

// Register binds all case job handlers.
func (j *CaseJobs) Register(reg *task.Registry) error {
	handlers := map[string]task.Handler{
		JobCaseGetDetail:          j.GetDetail,
		JobCaseGetForClient:       j.GetForClient,
		JobCaseGetForAdvocate:     j.GetForAdvocate,
		JobCaseNotifyClient:       j.NotifyClient,
		JobCaseNotifyAdvocateTeam: j.NotifyAdvocateTeam,
		JobCaseNotifyUpdate:       j.NotifyUpdate,
		JobCaseNotifyHearingDate:  j.NotifyHearingDate,
		JobCaseNotifyNewNote:      j.NotifyNewNote,
	}

	for name, handler := range handlers {
		if err := reg.Register(name, handler); err != nil {
			return err
		}
	}
	return nil
}

// CaseDetailArgs are the arguments for cases.get_detail.
type CaseDetailArgs struct {
	CaseID string `json:"case_id"`
}

// GetDetail returns the full case document. Reading twice returns the same
// document, so redelivery is harmless.
func (j *CaseJobs) GetDetail(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a CaseDetailArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	id, err := primitive.ObjectIDFromHex(a.CaseID)
	if err != nil {
		// A malformed ID cannot name any case.
		return nil, task.NotFound("case %s not found", a.CaseID)
	}

	c, err := j.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, task.NotFound("case %s not found", a.CaseID)
		}
		return nil, err
	}

	return c, nil
}

// CasesForClientArgs are the arguments for cases.get_for_client.
type CasesForClientArgs struct {
	ClientID string `json:"client_id"`
}

// GetForClient returns case summaries for a client.
func (j *CaseJobs) GetForClient(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a CasesForClientArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}
	if a.ClientID == "" {
		return nil, task.Invalid("client_id is required")
	}

	return j.cases.ListByClient(ctx, a.ClientID)
}

// CasesForAdvocateArgs are the arguments for cases.get_for_advocate.
type CasesForAdvocateArgs struct {
	AdvocateID string `json:"advocate_id"`
}

// GetForAdvocate returns case summaries for an advocate.
func (j *CaseJobs) GetForAdvocate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a CasesForAdvocateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}
	if a.AdvocateID == "" {
		return nil, task.Invalid("advocate_id is required")
	}

	return j.cases.ListByAdvocate(ctx, a.AdvocateID)
}

// CaseNotifyArgs name a case for the notification jobs.
type CaseNotifyArgs struct {
	CaseID  string `json:"case_id"`
	Message string `json:"message,omitempty"`
	NoteID  string `json:"note_id,omitempty"`
}

// NotifyClient records that the client should learn about their new case.
func (j *CaseJobs) NotifyClient(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, c, err := j.loadNotifyTarget(ctx, args)
	if err != nil {
		return nil, err
	}

	slog.Info("Notifying client of new case",
		"case_id", a.CaseID,
		"client_id", c.ClientID,
		"case_number", c.CaseNumber,
	)
	return nil, nil
}

// NotifyAdvocateTeam records a notice for every team member on the case.
func (j *CaseJobs) NotifyAdvocateTeam(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, c, err := j.loadNotifyTarget(ctx, args)
	if err != nil {
		return nil, err
	}

	for _, member := range c.Team {
		slog.Info("Notifying team member about case",
			"case_id", a.CaseID,
			"user_id", member.UserID,
			"role", member.Role,
		)
	}
	return nil, nil
}

// NotifyUpdate records a generic case change notice.
func (j *CaseJobs) NotifyUpdate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a CaseNotifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	slog.Info("Case updated", "case_id", a.CaseID, "message", a.Message)
	return nil, nil
}

// NotifyHearingDate records a hearing date notice.
func (j *CaseJobs) NotifyHearingDate(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a, c, err := j.loadNotifyTarget(ctx, args)
	if err != nil {
		return nil, err
	}

	slog.Info("Hearing date set on case",
		"case_id", a.CaseID,
		"client_id", c.ClientID,
		"advocate_id", c.AdvocateID,
		"hearing_date", c.HearingDate,
	)
	return nil, nil
}

// NotifyNewNote records a note notice for the client and advocate.
func (j *CaseJobs) NotifyNewNote(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a CaseNotifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, task.Invalid("invalid arguments: %v", err)
	}

	slog.Info("Note added to case", "case_id", a.CaseID, "note_id", a.NoteID)
	return nil, nil
}

func (j *CaseJobs) loadNotifyTarget(ctx context.Context, args json.RawMessage) (CaseNotifyArgs, *model.Case, error) {
	var a CaseNotifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return a, nil, task.Invalid("invalid arguments: %v", err)
	}

	id, err := primitive.ObjectIDFromHex(a.CaseID)
	if err != nil {
		return a, nil, task.NotFound("case %s not found", a.CaseID)
	}

	c, err := j.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return a, nil, task.NotFound("case %s not found", a.CaseID)
		}
		return a, nil, err
	}

	return a, c, nil
}
