package handlers

import (
	"net/http"

	"github.com/clubarena/clubarena/middleware"
	"github.com/clubarena/clubarena/services"
)

type CalendarHandler struct {
	calendarService services.CalendarService
}

func NewCalendarHandler(calendarService services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService}
}

// CreateHandler handles POST /calendar-entries. The response carries the
// entry annotated with conflict_warning when a competitive fixture already
// occupies the date.
func (h *CalendarHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to create a calendar entry")
		return
	}

	var input services.CreateCalendarEntryInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.calendarService.CreateEntry(r.Context(), input, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"calendar_entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByClubHandler handles GET /clubs/{clubID}/calendar-entries.
func (h *CalendarHandler) ListByClubHandler(w http.ResponseWriter, r *http.Request) {
	clubID, err := getIDFromURL(r, "clubID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entries, err := h.calendarService.ListByClub(r.Context(), clubID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"calendar_entries": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
