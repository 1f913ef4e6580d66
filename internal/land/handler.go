package land

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ardhi-erp/ardhi/internal/platform/httpx"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req CreateBatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	batch, err := h.service.CreateBatch(r.Context(), req)
	if err != nil {
		h.logger.Error("create batch", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, batch)
}

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.service.ListBatches(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (h *Handler) ShowBatch(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid batch id")
		return
	}
	batch, err := h.service.GetBatch(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, batch)
}

func (h *Handler) CreatePiece(w http.ResponseWriter, r *http.Request) {
	var req CreatePieceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	piece, err := h.service.CreatePiece(r.Context(), req)
	if err != nil {
		h.logger.Error("create piece", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, piece)
}

func (h *Handler) ListPieces(w http.ResponseWriter, r *http.Request) {
	req := ListPiecesRequest{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("batch_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid batch_id")
			return
		}
		req.BatchID = &id
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := PieceStatus(v)
		req.Status = &status
	}
	req.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	req.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	pieces, page, err := h.service.ListPieces(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pieces": pieces, "pagination": page})
}

func (h *Handler) ShowPiece(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid piece id")
		return
	}
	piece, err := h.service.GetPiece(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, piece)
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid piece id")
		return
	}
	deposit, _ := strconv.ParseFloat(r.URL.Query().Get("deposit"), 64)
	quote, err := h.service.Quote(r.Context(), id, deposit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, quote)
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Reserve)
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Release)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid piece id")
		return
	}
	if err := fn(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	piece, err := h.service.GetPiece(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, piece)
}
