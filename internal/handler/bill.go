package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/httputil"
	"github.com/quickmart/pos-server/internal/middleware"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/service"
	"github.com/quickmart/pos-server/internal/util"
)

type BillHandler struct {
	bills *service.BillService
}

func NewBillHandler(bills *service.BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

func (h *BillHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Generate)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	return r
}

type generateBillRequest struct {
	Items []model.BillLine `json:"items"`
}

// POST /v1/bills
func (h *BillHandler) Generate(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req generateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	bill, err := h.bills.Generate(r.Context(), identity.StaffID, req.Items)
	if err != nil {
		if apperrors.IsAppError(err) {
			httputil.WriteError(w, err)
			return
		}
		log.Error().Err(err).Msg("generate bill failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusCreated, bill)
}

// GET /v1/bills/{id}
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		httputil.WriteError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	bill, err := h.bills.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("billId", id).Msg("get bill failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if bill == nil {
		httputil.WriteError(w, apperrors.NotFound("Bill"))
		return
	}

	writeJSON(w, http.StatusOK, bill)
}

// GET /v1/bills
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	p := ParsePagination(r)

	bills, total, err := h.bills.ListByStaff(r.Context(), identity.StaffID, p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("list bills failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if bills == nil {
		bills = []model.Bill{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"bills":  bills,
		"total":  total,
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}
