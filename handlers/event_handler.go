package handlers

import (
	"errors"
	"net/http"

	"github.com/clubarena/clubarena/middleware"
	"github.com/clubarena/clubarena/models"
	"github.com/clubarena/clubarena/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(eventService services.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

// GetHandler handles GET /events/{eventID}.
func (h *EventHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	event, err := h.eventService.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatusHandler handles PUT /events/{eventID}/status.
func (h *EventHandler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to update event status")
		return
	}

	var input struct {
		Status models.EventStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Status == "" {
		badRequestResponse(w, r, errors.New("status is required"))
		return
	}

	event, err := h.eventService.AdvanceStatus(r.Context(), eventID, input.Status, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"event": event}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SaveReportHandler handles POST /events/{eventID}/report. The request is
// multipart: a summary field plus an optional attachment file.
func (h *EventHandler) SaveReportHandler(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	actorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to save an event report")
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB
		badRequestResponse(w, r, errors.New("invalid multipart form"))
		return
	}

	input := services.SaveReportInput{
		Summary: r.FormValue("summary"),
	}
	file, header, err := r.FormFile("attachment")
	if err == nil {
		defer file.Close()
		input.Attachment = file
		input.AttachmentName = header.Filename
		input.AttachmentContentType = header.Header.Get("Content-Type")
	} else if !errors.Is(err, http.ErrMissingFile) {
		badRequestResponse(w, r, errors.New("invalid attachment"))
		return
	}

	report, err := h.eventService.SaveReport(r.Context(), eventID, input, actorID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
