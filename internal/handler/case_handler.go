package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/gateway"
	"github.com/advolink/advolink/internal/jobs"
	"github.com/advolink/advolink/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CaseHandler serves the case endpoints. Writes go straight to the repository
// and fan out fire-and-forget notifications; reads are dispatched over the
// task queue so any worker can answer them.
type CaseHandler struct {
	cases       *database.CaseRepository
	gw          *gateway.Gateway
	callTimeout time.Duration
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(cases *database.CaseRepository, gw *gateway.Gateway, callTimeout time.Duration) *CaseHandler {
	return &CaseHandler{
		cases:       cases,
		gw:          gw,
		callTimeout: callTimeout,
	}
}

// Create handles POST /api/v1/cases
func (h *CaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var c model.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.cases.Create(r.Context(), &c); err != nil {
		writeDomainError(w, err)
		return
	}

	h.gw.Notify(jobs.JobCaseNotifyClient, jobs.CaseNotifyArgs{CaseID: c.ID.Hex()})
	h.gw.Notify(jobs.JobCaseNotifyAdvocateTeam, jobs.CaseNotifyArgs{CaseID: c.ID.Hex()})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Case created",
		"data":    c,
	})
}

// List handles GET /api/v1/cases?client_id=|advocate_id=
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("client_id")
	advocateID := r.URL.Query().Get("advocate_id")

	var (
		name string
		args interface{}
	)
	switch {
	case clientID != "":
		name = jobs.JobCaseGetForClient
		args = jobs.CasesForClientArgs{ClientID: clientID}
	case advocateID != "":
		name = jobs.JobCaseGetForAdvocate
		args = jobs.CasesForAdvocateArgs{AdvocateID: advocateID}
	default:
		writeError(w, http.StatusBadRequest, "client_id or advocate_id required")
		return
	}

	payload, err := h.gw.Call(r.Context(), name, args, h.callTimeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeRaw(w, http.StatusOK, payload)
}

// Get handles GET /api/v1/cases/{id}
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request, caseID string) {
	payload, err := h.gw.Call(r.Context(), jobs.JobCaseGetDetail, jobs.CaseDetailArgs{CaseID: caseID}, h.callTimeout)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeRaw(w, http.StatusOK, payload)
}

// Update handles PATCH /api/v1/cases/{id}
func (h *CaseHandler) Update(w http.ResponseWriter, r *http.Request, caseID string) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	existing, err := h.cases.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Partial update: decode the patch over the stored document.
	if err := json.NewDecoder(r.Body).Decode(existing); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := existing.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.cases.Update(r.Context(), id, existing); err != nil {
		writeDomainError(w, err)
		return
	}

	h.gw.Notify(jobs.JobCaseNotifyUpdate, jobs.CaseNotifyArgs{
		CaseID:  caseID,
		Message: "case updated",
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Case updated",
		"data":    existing,
	})
}

// AddTeamMember handles POST /api/v1/cases/{id}/team
func (h *CaseHandler) AddTeamMember(w http.ResponseWriter, r *http.Request, caseID string) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	var member model.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := member.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.cases.AddTeamMember(r.Context(), id, member); err != nil {
		writeDomainError(w, err)
		return
	}

	h.gw.Notify(jobs.JobCaseNotifyAdvocateTeam, jobs.CaseNotifyArgs{CaseID: caseID})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Team member added",
		"data":    member,
	})
}

// SetHearingDate handles POST /api/v1/cases/{id}/hearing-date
func (h *CaseHandler) SetHearingDate(w http.ResponseWriter, r *http.Request, caseID string) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	var req struct {
		HearingDate *time.Time `json:"hearing_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HearingDate == nil {
		writeError(w, http.StatusBadRequest, "hearing_date required")
		return
	}

	if err := h.cases.SetHearingDate(r.Context(), id, *req.HearingDate); err != nil {
		writeDomainError(w, err)
		return
	}

	h.gw.Notify(jobs.JobCaseNotifyHearingDate, jobs.CaseNotifyArgs{CaseID: caseID})

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Hearing date added",
	})
}

// AddNote handles POST /api/v1/cases/{id}/notes
func (h *CaseHandler) AddNote(w http.ResponseWriter, r *http.Request, caseID string) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	var note model.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if note.Note == "" {
		writeError(w, http.StatusBadRequest, "note is required")
		return
	}

	if err := h.cases.AddNote(r.Context(), id, &note); err != nil {
		writeDomainError(w, err)
		return
	}

	h.gw.Notify(jobs.JobCaseNotifyNewNote, jobs.CaseNotifyArgs{
		CaseID: caseID,
		NoteID: note.ID.Hex(),
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Note added",
		"data":    note,
	})
}

// AddDocument handles POST /api/v1/cases/{id}/documents
func (h *CaseHandler) AddDocument(w http.ResponseWriter, r *http.Request, caseID string) {
	id, err := primitive.ObjectIDFromHex(caseID)
	if err != nil {
		writeError(w, http.StatusNotFound, "case not found")
		return
	}

	var doc model.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if doc.FileName == "" {
		writeError(w, http.StatusBadRequest, "file_name is required")
		return
	}

	if err := h.cases.AddDocument(r.Context(), id, &doc); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Document added",
		"data":    doc,
	})
}
