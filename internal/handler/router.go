package handler

import (
	"net/http"
	"strings"

	"github.com/advolink/advolink/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	caseHandler     *CaseHandler
	bookingHandler  *BookingHandler
	advocateHandler *AdvocateHandler
	healthHandler   *HealthHandler
	corsConfig      middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	caseHandler *CaseHandler,
	bookingHandler *BookingHandler,
	advocateHandler *AdvocateHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		caseHandler:     caseHandler,
		bookingHandler:  bookingHandler,
		advocateHandler: advocateHandler,
		healthHandler:   healthHandler,
		corsConfig:      corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/cases", rt.handleCases)
	mux.HandleFunc("/api/v1/cases/", rt.handleCasesWithID)
	mux.HandleFunc("/api/v1/bookings", rt.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", rt.handleBookingsWithID)
	mux.HandleFunc("/api/v1/advocates", rt.handleAdvocates)
	mux.HandleFunc("/api/v1/advocates/", rt.handleAdvocatesWithID)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleCases routes the case collection endpoints
func (rt *Router) handleCases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.caseHandler.List(w, r)
	case http.MethodPost:
		rt.caseHandler.Create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleCasesWithID routes individual case endpoints and their subresources
func (rt *Router) handleCasesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/cases/")
	caseID, sub := splitResource(path)
	if caseID == "" {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			rt.caseHandler.Get(w, r, caseID)
		case http.MethodPatch:
			rt.caseHandler.Update(w, r, caseID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	case "team":
		rt.postOnly(w, r, caseID, rt.caseHandler.AddTeamMember)
	case "hearing-date":
		rt.postOnly(w, r, caseID, rt.caseHandler.SetHearingDate)
	case "notes":
		rt.postOnly(w, r, caseID, rt.caseHandler.AddNote)
	case "documents":
		rt.postOnly(w, r, caseID, rt.caseHandler.AddDocument)
	default:
		writeError(w, http.StatusNotFound, "Endpoint not found")
	}
}

// handleBookings routes the booking collection endpoints
func (rt *Router) handleBookings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.bookingHandler.List(w, r)
	case http.MethodPost:
		rt.bookingHandler.Create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleBookingsWithID routes individual booking endpoints
func (rt *Router) handleBookingsWithID(w http.ResponseWriter, r *http.Request) {
	bookingID, sub := splitResource(strings.TrimPrefix(r.URL.Path, "/api/v1/bookings/"))
	if bookingID == "" || sub != "" {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rt.bookingHandler.Get(w, r, bookingID)
}

// handleAdvocates routes the advocate search endpoint
func (rt *Router) handleAdvocates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	rt.advocateHandler.Search(w, r)
}

// handleAdvocatesWithID routes individual advocate endpoints
func (rt *Router) handleAdvocatesWithID(w http.ResponseWriter, r *http.Request) {
	advocateID, sub := splitResource(strings.TrimPrefix(r.URL.Path, "/api/v1/advocates/"))
	if advocateID == "" || sub != "" {
		writeError(w, http.StatusNotFound, "Endpoint not found")
		return
	}

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rt.advocateHandler.Get(w, r, advocateID)
}

func (rt *Router) postOnly(w http.ResponseWriter, r *http.Request, id string, handle func(http.ResponseWriter, *http.Request, string)) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	handle(w, r, id)
}

// splitResource splits "id" or "id/subresource" into its parts.
func splitResource(path string) (id, sub string) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", ""
	}

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
