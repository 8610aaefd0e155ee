// Package api exposes the booking core over HTTP. Handlers translate
// requests to booking service calls and map sentinel errors to status codes.
package api

import (
	"net/http"
	"time"

	"buddy-sessions-go/internal/booking"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Server struct {
	booking *booking.Service
}

// NewRouter builds the HTTP router over the booking service.
func NewRouter(svc *booking.Service) http.Handler {
	s := &Server{booking: svc}

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", s.handleCreateAccount)
			r.Get("/{id}", s.handleGetAccount)
			r.Put("/{id}/availability", s.handleUpdateAvailability)
			r.Get("/{id}/credits", s.handleGetCredits)
		})
		r.Route("/buddies", func(r chi.Router) {
			r.Get("/", s.handleListBuddies)
			r.Get("/{id}/slots", s.handleListSlots)
		})
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleRequestBooking)
			r.Get("/", s.handleListSessions)
			r.Get("/{id}", s.handleGetSession)
			r.Post("/{id}/transition", s.handleTransitionSession)
		})
	})

	return r
}

// requestLogger writes one structured access log line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
