package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/httputil"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/service"
	"github.com/quickmart/pos-server/internal/util"
)

type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

type productRequest struct {
	Name              string  `json:"name"`
	Barcode           *string `json:"barcode"`
	PriceCents        int64   `json:"priceCents"`
	Stock             int     `json:"stock"`
	LowStockThreshold int     `json:"lowStockThreshold"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	p := ParsePagination(r)

	products, total, err := h.products.List(r.Context(), p.Limit, p.Offset)
	if err != nil {
		log.Error().Err(err).Msg("list products failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if products == nil {
		products = []model.Product{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
		"limit":    p.Limit,
		"offset":   p.Offset,
	})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		httputil.WriteError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("productId", id).Msg("get product failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if product == nil {
		httputil.WriteError(w, apperrors.ProductNotFound(id))
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	product, err := h.products.Create(r.Context(), model.CreateProductParams{
		Name:              req.Name,
		Barcode:           req.Barcode,
		PriceCents:        req.PriceCents,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			httputil.WriteError(w, err)
			return
		}
		log.Error().Err(err).Msg("create product failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		httputil.WriteError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid request body"))
		return
	}

	product, err := h.products.Update(r.Context(), id, model.UpdateProductParams{
		Name:              req.Name,
		Barcode:           req.Barcode,
		PriceCents:        req.PriceCents,
		Stock:             req.Stock,
		LowStockThreshold: req.LowStockThreshold,
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			httputil.WriteError(w, err)
			return
		}
		log.Error().Err(err).Str("productId", id).Msg("update product failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if product == nil {
		httputil.WriteError(w, apperrors.ProductNotFound(id))
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		httputil.WriteError(w, apperrors.InvalidInput("id", "must be a valid UUID"))
		return
	}

	deleted, err := h.products.Delete(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("productId", id).Msg("delete product failed")
		httputil.WriteError(w, apperrors.Database(err))
		return
	}
	if !deleted {
		httputil.WriteError(w, apperrors.ProductNotFound(id))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
