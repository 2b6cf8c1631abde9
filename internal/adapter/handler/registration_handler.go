package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clubcouncil/registration-engine/internal/core/domain"
	"github.com/clubcouncil/registration-engine/internal/core/services"
)

type RegistrationHandler struct {
	registrations *services.RegistrationService
	approvals     *services.ApprovalService
	attendance    *services.AttendanceService
	reports       *services.ReportService
}

func NewRegistrationHandler(
	registrations *services.RegistrationService,
	approvals *services.ApprovalService,
	attendance *services.AttendanceService,
	reports *services.ReportService,
) *RegistrationHandler {
	return &RegistrationHandler{
		registrations: registrations,
		approvals:     approvals,
		attendance:    attendance,
		reports:       reports,
	}
}

// Routes mounts the engine's HTTP surface. Identity arrives as a JWT;
// the services do their own ownership checks on top of the role gate.
func (h *RegistrationHandler) Routes(jwtSecret []byte) chi.Router {
	r := chi.NewRouter()
	r.Use(Auth(jwtSecret))

	r.Route("/registrations", func(r chi.Router) {
		r.With(RequireRole(RoleParticipant)).Post("/", h.Submit)
		r.With(RequireRole(RoleParticipant)).Post("/{id}/cancel", h.Cancel)
		r.With(RequireRole(RoleOrganizer)).Put("/approve", h.Approve)
		r.With(RequireRole(RoleOrganizer)).Put("/attendance", h.Attendance)
		r.With(RequireRole(RoleOrganizer)).Get("/pending", h.Pending)
	})

	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/availability", h.Availability)
		r.With(RequireRole(RoleOrganizer)).Get("/participants", h.Participants)
		r.With(RequireRole(RoleOrganizer)).Get("/participants/export", h.ExportParticipants)
	})

	return r
}

type submitRequest struct {
	EventID      uuid.UUID            `json:"event_id"`
	FormData     map[string]string    `json:"form_data,omitempty"`
	Items        []domain.ItemRequest `json:"purchased_items,omitempty"`
	TeamName     string               `json:"team_name,omitempty"`
	PaymentProof string               `json:"payment_proof,omitempty"`
}

type registrationResponse struct {
	ID          uuid.UUID                 `json:"id"`
	EventID     uuid.UUID                 `json:"event_id"`
	TicketID    string                    `json:"ticket_id"`
	Status      domain.RegistrationStatus `json:"status"`
	CheckInCode string                    `json:"check_in_code,omitempty"`
	TeamName    string                    `json:"team_name,omitempty"`
	Items       []domain.PurchasedItem    `json:"purchased_items,omitempty"`
	Attended    bool                      `json:"attended"`
	AttendedAt  *time.Time                `json:"attended_at,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	Message     string                    `json:"message,omitempty"`
}

func toResponse(reg *domain.Registration) registrationResponse {
	resp := registrationResponse{
		ID:          reg.ID,
		EventID:     reg.EventID,
		TicketID:    reg.TicketID,
		Status:      reg.Status,
		CheckInCode: reg.CheckInCode,
		TeamName:    reg.TeamName,
		Items:       reg.Items,
		Attended:    reg.Attended,
		AttendedAt:  reg.AttendedAt,
		CreatedAt:   reg.CreatedAt,
	}
	// Tell the caller whether resubmitting is safe.
	switch reg.Status {
	case domain.RegistrationPending:
		resp.Message = "Registration created and pending approval. Do not resubmit."
	case domain.RegistrationSuccessful:
		resp.Message = "Registered successfully!"
	}
	return resp
}

func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	claims := ClaimsFrom(r.Context())
	reg, err := h.registrations.Submit(r.Context(), services.SubmitRequest{
		EventID:       req.EventID,
		ParticipantID: claims.UserID,
		FormData:      req.FormData,
		Items:         req.Items,
		TeamName:      req.TeamName,
		PaymentProof:  req.PaymentProof,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(reg))
}

func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid registration id"})
		return
	}

	claims := ClaimsFrom(r.Context())
	reg, err := h.registrations.Cancel(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(reg))
}

type approveRequest struct {
	RegistrationID uuid.UUID `json:"registration_id"`
	Action         string    `json:"action"`
}

func (h *RegistrationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	var decision domain.ApprovalDecision
	switch req.Action {
	case string(domain.DecisionApprove):
		decision = domain.DecisionApprove
	case string(domain.DecisionReject):
		decision = domain.DecisionReject
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "action must be Approved or Rejected"})
		return
	}

	claims := ClaimsFrom(r.Context())
	reg, err := h.approvals.Resolve(r.Context(), req.RegistrationID, claims.UserID, decision)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(reg))
}

type attendanceRequest struct {
	TicketID string `json:"ticket_id"`
}

func (h *RegistrationHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json body"})
		return
	}

	claims := ClaimsFrom(r.Context())
	reg, err := h.attendance.CheckIn(r.Context(), req.TicketID, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(reg))
}

func (h *RegistrationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())
	regs, err := h.approvals.PendingApprovals(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]registrationResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, toResponse(&regs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *RegistrationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	availability, err := h.registrations.Availability(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availability)
}

func (h *RegistrationHandler) Participants(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	claims := ClaimsFrom(r.Context())
	report, err := h.reports.ParticipantReport(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (h *RegistrationHandler) ExportParticipants(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid event id"})
		return
	}

	claims := ClaimsFrom(r.Context())
	report, err := h.reports.ParticipantReport(r.Context(), id, claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", services.ExportFilename(report.EventName)))

	if err := h.reports.WriteCSV(w, report); err != nil {
		// Headers already went out; the truncated body is all the client sees.
		log.Printf("csv export for event %s aborted: %v", id, err)
	}
}
