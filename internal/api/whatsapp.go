package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/alfonsusrr/financial-mind-maze-sub000/internal/whatsapp"
)

// PairingService starts WhatsApp device pairing
type PairingService interface {
	GenerateQRCode(ctx context.Context, phoneNumber string) (whatsapp.PairingCode, error)
}

// DeviceSessions lists and removes paired device stores
type DeviceSessions interface {
	ListSessions() ([]whatsapp.SessionInfo, error)
	DeleteSession(phoneNumber, sessionID string) error
}

// DeviceClients disconnects live clients
type DeviceClients interface {
	Disconnect(phoneNumber string) error
}

// WhatsAppRoutes are the pairing endpoints of the WhatsApp transport
type WhatsAppRoutes struct {
	Pairing  PairingService
	Sessions DeviceSessions
	Clients  DeviceClients
}

func (wa *WhatsAppRoutes) mount(router chi.Router, logger *zap.Logger) {
	router.Route("/whatsapp", func(r chi.Router) {
		r.Post("/qr", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				PhoneNumber string `json:"phone_number"`
			}
			if !decodeBody(w, r, &req) {
				return
			}
			if req.PhoneNumber == "" {
				http.Error(w, "phone_number is required", http.StatusBadRequest)
				return
			}

			code, err := wa.Pairing.GenerateQRCode(r.Context(), req.PhoneNumber)
			if err != nil {
				logger.Error("Failed to generate QR code",
					zap.String("phone_number", req.PhoneNumber),
					zap.Error(err))
				http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, code)
		})

		r.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			sessions, err := wa.Sessions.ListSessions()
			if err != nil {
				logger.Error("Failed to list sessions", zap.Error(err))
				http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, sessions)
		})

		r.Delete("/sessions/{phone_number}/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			phoneNumber := chi.URLParam(r, "phone_number")
			sessionID := chi.URLParam(r, "session_id")

			if err := wa.Clients.Disconnect(phoneNumber); err != nil {
				logger.Debug("No live client to disconnect",
					zap.String("phone_number", phoneNumber),
					zap.Error(err))
			}

			if err := wa.Sessions.DeleteSession(phoneNumber, sessionID); err != nil {
				logger.Error("Failed to delete session",
					zap.String("phone_number", phoneNumber),
					zap.String("session_id", sessionID),
					zap.Error(err))
				http.Error(w, "Failed to delete session", http.StatusInternalServerError)
				return
			}

			w.WriteHeader(http.StatusOK)
		})
	})
}
