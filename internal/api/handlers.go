package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"buddy-sessions-go/internal/models"
	"buddy-sessions-go/internal/schedule"
	"buddy-sessions-go/internal/store"

	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// statusFor maps store sentinel errors to HTTP status codes. Unknown errors
// fall through to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrAccountNotFound), errors.Is(err, store.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNicknameTaken),
		errors.Is(err, store.ErrSlotTaken),
		errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, store.ErrInsufficientCredit):
		return http.StatusPaymentRequired
	case errors.Is(err, store.ErrSlotUnavailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrUnauthorized), errors.Is(err, store.ErrWrongRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Nickname == "" {
		writeError(w, http.StatusBadRequest, "nickname is required")
		return
	}
	if _, err := models.ParseRole(req.Role); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.booking.CreateAccount(r.Context(), req.Nickname, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.booking.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateGridRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	accountId := chi.URLParam(r, "id")
	if err := s.booking.UpdateAvailability(r.Context(), accountId, req.Grid); err != nil {
		writeServiceError(w, err)
		return
	}

	account, err := s.booking.GetAccount(r.Context(), accountId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleGetCredits(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "id")
	balance, err := s.booking.CreditBalance(r.Context(), accountId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	history, err := s.booking.CreditHistory(r.Context(), accountId, 0, 0)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CreditsResponse{
		AccountId: accountId,
		Balance:   balance,
		History:   history,
	})
}

func (s *Server) handleListBuddies(w http.ResponseWriter, r *http.Request) {
	buddies, err := s.booking.ListBuddies(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if buddies == nil {
		buddies = []models.Account{}
	}
	writeJSON(w, http.StatusOK, buddies)
}

func (s *Server) handleListSlots(w http.ResponseWriter, r *http.Request) {
	buddyId := chi.URLParam(r, "id")
	slots, err := s.booking.ResolveSlots(r.Context(), buddyId)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	writeJSON(w, http.StatusOK, models.SlotsResponse{
		BuddyId:     buddyId,
		HorizonDays: s.booking.HorizonDays(),
		Slots:       slots,
	})
}

func (s *Server) handleRequestBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.LearnerId == "" || req.BuddyId == "" {
		writeError(w, http.StatusBadRequest, "learner_id and buddy_id are required")
		return
	}

	session, err := s.booking.RequestBooking(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	filter := store.SessionFilter{
		BuddyId:   r.URL.Query().Get("buddy_id"),
		LearnerId: r.URL.Query().Get("learner_id"),
		Status:    models.SessionStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	sessions, err := s.booking.ListSessions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.booking.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleTransitionSession(w http.ResponseWriter, r *http.Request) {
	var req models.TransitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ActorId == "" {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	session, err := s.booking.TransitionSession(r.Context(), chi.URLParam(r, "id"), req.ActorId, req.Target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
