package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/24f2006233/vyappar-smart/internal/core/domain"
	"github.com/24f2006233/vyappar-smart/internal/core/service"
	"github.com/24f2006233/vyappar-smart/internal/port"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

type HTTPHandler struct {
	inventory *service.InventoryService
	invoices  *service.InvoiceService
	analytics *service.AnalyticsService
	store     port.KVStore
	log       *logger.Logger
}

type AddItemRequest struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type ReduceRequest struct {
	Amount int `json:"amount"`
}

type CreateInvoiceRequest struct {
	CustomerName string               `json:"customerName"`
	Items        []domain.LineRequest `json:"items"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// PartialInvoiceResponse reports an invoice that was recorded while its stock
// deduction failed. Clients must not retry the create.
type PartialInvoiceResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Invoice domain.Invoice `json:"invoice"`
}

func NewHTTPHandler(
	inventory *service.InventoryService,
	invoices *service.InvoiceService,
	analytics *service.AnalyticsService,
	store port.KVStore,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		inventory: inventory,
		invoices:  invoices,
		analytics: analytics,
		store:     store,
		log:       log,
	}
}

// Router wires up the HTTP API.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.AddItem)
			r.Patch("/{id}", h.UpdateItem)
			r.Delete("/{id}", h.DeleteItem)
			r.Post("/{id}/reduce", h.ReduceItem)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.ListInvoices)
			r.Post("/", h.CreateInvoice)
			r.Delete("/{id}", h.DeleteInvoice)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/summary", h.Summary)
			r.Get("/insights", h.Insights)
			r.Get("/low-stock", h.LowStock)
		})
	})

	return r
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	service.SortItemsNewestFirst(items)
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	item, err := h.inventory.Add(r.Context(), req.Name, req.Quantity, req.Price)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch domain.ItemPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	if err := h.inventory.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.inventory.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ReduceItem(w http.ResponseWriter, r *http.Request) {
	var req ReduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	if err := h.inventory.ReduceQuantity(r.Context(), chi.URLParam(r, "id"), req.Amount); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.invoices.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	service.SortInvoicesNewestFirst(invoices)
	writeJSON(w, http.StatusOK, invoices)
}

// CreateInvoice checks stock against a fresh inventory read before creating the invoice.
func (h *HTTPHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: "invalid request body"})
		return
	}

	ctx := r.Context()
	if err := domain.ValidateInvoiceRequest(req.CustomerName, req.Items); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.invoices.CheckStock(ctx, req.Items); err != nil {
		h.writeError(w, r, err)
		return
	}

	inv, err := h.invoices.Create(ctx, req.CustomerName, req.Items)
	if errors.Is(err, service.ErrStockNotDeducted) {
		h.log.WithContext(ctx).Errorw("invoice recorded without stock deduction", "invoice_id", inv.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, PartialInvoiceResponse{
			Message: "invoice recorded but stock not deducted",
			Invoice: inv,
		})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *HTTPHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	if err := h.invoices.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.analytics.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *HTTPHandler) Insights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.analytics.GenerateInsights(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"insights": insights})
}

func (h *HTTPHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.analytics.LowStockItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, service.ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, ErrorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrCorruptData):
		h.log.WithContext(r.Context()).Errorw("stored data is corrupt", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "stored data is corrupt"})
	case errors.Is(err, domain.ErrStorageUnavailable):
		h.log.WithContext(r.Context()).Errorw("storage unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Message: "storage unavailable"})
	default:
		h.log.WithContext(r.Context()).Errorw("request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Message: "internal error"})
	}
}

// requestLogger logs each request and makes the logger available to services through the context.
func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqLog := h.log.With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(ww, r.WithContext(logger.WithLogger(r.Context(), reqLog)))

		reqLog.WithContext(r.Context()).Infow("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
