package handler

import (
	"net/http"
	"strconv"

	"github.com/advolink/advolink/internal/database"
	"github.com/advolink/advolink/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdvocateHandler serves advocate search and detail. Profiles live in the
// shared database, so these reads skip the queue entirely.
type AdvocateHandler struct {
	advocates *database.AdvocateRepository
}

// NewAdvocateHandler creates a new advocate handler
func NewAdvocateHandler(advocates *database.AdvocateRepository) *AdvocateHandler {
	return &AdvocateHandler{advocates: advocates}
}

// Search handles GET /api/v1/advocates
func (h *AdvocateHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := model.AdvocateSearchFilter{
		Query:          query.Get("q"),
		City:           query.Get("city"),
		Specialization: query.Get("specialization"),
		MinExperience:  parseQueryIntPtr(r, "min_exp"),
		MaxExperience:  parseQueryIntPtr(r, "max_exp"),
	}

	summaries, err := h.advocates.Search(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Get handles GET /api/v1/advocates/{id}
func (h *AdvocateHandler) Get(w http.ResponseWriter, r *http.Request, advocateID string) {
	id, err := primitive.ObjectIDFromHex(advocateID)
	if err != nil {
		writeError(w, http.StatusNotFound, "advocate not found")
		return
	}

	profile, err := h.advocates.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// parseQueryIntPtr parses an optional integer query parameter
func parseQueryIntPtr(r *http.Request, key string) *int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}

	return &intValue
}
