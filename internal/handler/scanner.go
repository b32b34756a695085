package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/quickmart/pos-server/internal/audit"
	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/httputil"
	"github.com/quickmart/pos-server/internal/middleware"
	"github.com/quickmart/pos-server/internal/service"
)

type ScannerHandler struct {
	scanner *service.ScannerService
}

func NewScannerHandler(scanner *service.ScannerService) *ScannerHandler {
	return &ScannerHandler{scanner: scanner}
}

func (h *ScannerHandler) Routes(rateLimit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// Desktop side
	r.Post("/activate", h.Activate)
	r.Post("/deactivate", h.Deactivate)
	r.Get("/status", h.Status)
	r.Get("/items", h.FetchItems)

	// Mobile side
	r.Post("/join", h.Join)
	r.With(rateLimit).Post("/scan", h.SubmitScan)

	return r
}

// writeScannerError renders expected, client-recoverable failures as
// {success:false, message, errorCode}; anything else is a generic 500.
func writeScannerError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		writeJSON(w, httputil.StatusFromCode(appErr.Code), map[string]any{
			"success":   false,
			"message":   appErr.Message,
			"errorCode": appErr.Code,
		})
		return
	}

	log.Error().Err(err).Msg("scanner operation failed")
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"success": false,
		"message": "Internal server error",
	})
}

// POST /v1/scanner/activate
func (h *ScannerHandler) Activate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	result, err := h.scanner.ActivateDesktop(r.Context(), identity.StaffID, identity.DisplayName, identity.ConnectionID)
	if err != nil {
		writeScannerError(w, err)
		return
	}

	audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
		Type:      audit.EventScannerActivate,
		StaffID:   identity.StaffID,
		SessionID: result.SessionID,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Scanner activated; pair a mobile to start scanning",
		"staffUsername": result.StaffUsername,
	})
}

// POST /v1/scanner/deactivate
func (h *ScannerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := h.scanner.DeactivateDesktop(r.Context(), identity.StaffID); err != nil {
		writeScannerError(w, err)
		return
	}

	audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
		Type:    audit.EventScannerDeactivate,
		StaffID: identity.StaffID,
	}))

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Scanner deactivated",
	})
}

// GET /v1/scanner/status
func (h *ScannerHandler) Status(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	status, err := h.scanner.CheckActivation(r.Context(), identity.StaffID)
	if err != nil {
		writeScannerError(w, err)
		return
	}

	message := "Scanner not active"
	if status.IsActive {
		message = "Scanner active"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"isActive":        status.IsActive,
		"status":          status.Status,
		"staffUsername":   status.StaffUsername,
		"mobileConnected": status.MobileConnected,
		"message":         message,
	})
}

// POST /v1/scanner/join
func (h *ScannerHandler) Join(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	result, err := h.scanner.JoinMobile(r.Context(), identity.StaffID, identity.ConnectionID)
	if err != nil {
		writeScannerError(w, err)
		return
	}

	if result.SessionActivated {
		audit.Log(r.Context(), audit.FromRequest(r, audit.Event{
			Type:    audit.EventScannerJoin,
			StaffID: identity.StaffID,
		}))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":          result.SessionActivated,
		"sessionActivated": result.SessionActivated,
		"staffUsername":    result.StaffUsername,
		"currentUser":      identity.Username,
		"message":          result.Message,
	})
}

type submitScanRequest struct {
	Identifier string `json:"identifier"`
	Quantity   int    `json:"quantity"`
}

// POST /v1/scanner/scan
func (h *ScannerHandler) SubmitScan(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req submitScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScannerError(w, apperrors.ValidationError("Invalid request body"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	result, err := h.scanner.SubmitScan(r.Context(), identity.StaffID, identity.ConnectionID, req.Identifier, req.Quantity)
	if err != nil {
		writeScannerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "Scan received",
		"productName": result.ProductName,
	})
}

// GET /v1/scanner/items
func (h *ScannerHandler) FetchItems(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	result, err := h.scanner.FetchUnprocessedItems(r.Context(), identity.StaffID)
	if err != nil {
		writeScannerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"items":   result.Items,
		"message": result.Message,
	})
}
