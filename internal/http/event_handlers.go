package http

import (
	"net/http"
	"time"

	"campusconnect/internal/model"
	"campusconnect/internal/repository"
	"campusconnect/internal/service"
)

type eventResponse struct {
	ID                   int64   `json:"id"`
	Title                string  `json:"title"`
	Description          string  `json:"description"`
	Category             string  `json:"category"`
	EventDate            string  `json:"eventDate"`
	StartTime            string  `json:"startTime"`
	EndTime              string  `json:"endTime"`
	Location             string  `json:"location"`
	MaxAttendees         int32   `json:"maxAttendees"`
	CurrentAttendees     int32   `json:"currentAttendees"`
	AvailableSpots       int32   `json:"availableSpots"`
	OrganizerID          int64   `json:"organizerId"`
	IsFeatured           bool    `json:"isFeatured"`
	RegistrationDeadline *string `json:"registrationDeadline,omitempty"`
	CreatedAt            string  `json:"createdAt"`
}

func mapEventResponse(event model.Event) eventResponse {
	resp := eventResponse{
		ID:               event.ID,
		Title:            event.Title,
		Description:      event.Description,
		Category:         event.Category,
		EventDate:        event.EventDate.UTC().Format("2006-01-02"),
		StartTime:        event.StartTime,
		EndTime:          event.EndTime,
		Location:         event.Location,
		MaxAttendees:     event.MaxAttendees,
		CurrentAttendees: event.CurrentAttendees,
		AvailableSpots:   event.AvailableSpots(),
		OrganizerID:      event.OrganizerID,
		IsFeatured:       event.IsFeatured,
		CreatedAt:        event.CreatedAt.UTC().Format(time.RFC3339),
	}
	if event.RegistrationDeadline != nil {
		deadline := event.RegistrationDeadline.UTC().Format(time.RFC3339)
		resp.RegistrationDeadline = &deadline
	}
	return resp
}

func mapEventResponses(events []model.Event) []eventResponse {
	resp := make([]eventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, mapEventResponse(event))
	}
	return resp
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repository.EventFilter{
		Category:     query.Get("category"),
		FeaturedOnly: query.Get("featured") == "true",
		UpcomingOnly: query.Get("upcoming") == "true",
		Search:       query.Get("search"),
	}
	limit, offset := pageParams(r)
	events, err := s.events.List(r.Context(), filter, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapEventResponses(events))
}

func (s *Server) handleEventCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.events.Categories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleMyRegistrations(w http.ResponseWriter, r *http.Request) {
	principal := principalFromContext(r.Context())
	limit, offset := pageParams(r)
	events, err := s.events.List(r.Context(), repository.EventFilter{RegisteredBy: principal.ID}, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapEventResponses(events))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	event, err := s.events.Get(r.Context(), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapEventResponse(event))
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var input service.CreateEventInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	event, err := s.events.Create(r.Context(), principalFromContext(r.Context()), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "events")
	writeJSON(w, http.StatusCreated, mapEventResponse(event))
}

type updateEventRequest struct {
	Title                *string    `json:"title"`
	Description          *string    `json:"description"`
	Category             *string    `json:"category"`
	EventDate            *time.Time `json:"eventDate"`
	StartTime            *string    `json:"startTime"`
	EndTime              *string    `json:"endTime"`
	Location             *string    `json:"location"`
	MaxAttendees         *int32     `json:"maxAttendees"`
	IsFeatured           *bool      `json:"isFeatured"`
	RegistrationDeadline *time.Time `json:"registrationDeadline"`
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	var req updateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	event, err := s.events.Update(r.Context(), principalFromContext(r.Context()), eventID, repository.EventUpdate{
		Title:                req.Title,
		Description:          req.Description,
		Category:             req.Category,
		EventDate:            req.EventDate,
		StartTime:            req.StartTime,
		EndTime:              req.EndTime,
		Location:             req.Location,
		MaxAttendees:         req.MaxAttendees,
		IsFeatured:           req.IsFeatured,
		RegistrationDeadline: req.RegistrationDeadline,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "events")
	writeJSON(w, http.StatusOK, mapEventResponse(event))
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	if err := s.events.Delete(r.Context(), principalFromContext(r.Context()), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "events")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleRegisterForEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	if err := s.events.Register(r.Context(), principalFromContext(r.Context()), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "events")
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (s *Server) handleUnregisterFromEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	if err := s.events.Unregister(r.Context(), principalFromContext(r.Context()), eventID); err != nil {
		writeServiceError(w, err)
		return
	}
	s.cache.Invalidate(r.Context(), "events")
	writeJSON(w, http.StatusOK, map[string]string{"status": "unregistered"})
}

func (s *Server) handleRegistrationStatus(w http.ResponseWriter, r *http.Request) {
	eventID, ok := idParam(r, "eventID")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_event_id")
		return
	}
	registered, err := s.events.IsRegistered(r.Context(), principalFromContext(r.Context()), eventID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"registered": registered})
}
