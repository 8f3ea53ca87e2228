package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/ingestion"
	"github.com/fleetdesk/fuelrecon/internal/ledger"
	"github.com/fleetdesk/fuelrecon/internal/logger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

const maxUploadBytes = 32 << 20

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	batchRepo *repository.BatchRepo
	txnRepo   *repository.TransactionRepo
	importSvc *ingestion.Service
	ledgerSvc *ledger.Service
	rates     *currency.Service
	log       zerolog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encode response")
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), h.log)
	log.Error().Err(err).Msg("request failed")
	h.writeError(w, http.StatusInternalServerError, "internal error")
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func parseBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

// --- Imports ---

func (h *Handlers) CreateImport(w http.ResponseWriter, r *http.Request) {
	companyID := chi.URLParam(r, "companyID")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	var provider domain.Provider
	if v := r.FormValue("provider"); v != "" {
		p, ok := domain.ParseProvider(v)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "unknown provider "+strconv.Quote(v))
			return
		}
		provider = p
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}

	result, err := h.importSvc.Import(r.Context(), ingestion.ImportRequest{
		CompanyID:  companyID,
		Provider:   provider,
		FileName:   header.Filename,
		Data:       data,
		ImportedBy: r.FormValue("imported_by"),
	})
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, result)
	case errors.Is(err, ingestion.ErrNothingNew):
		h.writeError(w, http.StatusConflict, "every transaction in this file was already imported")
	case ingestion.IsBadFormat(err):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handlers) ListImports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntDefault(q.Get("page"), 1)
	limit := parseIntDefault(q.Get("limit"), 50)

	batches, total, err := h.batchRepo.List(chi.URLParam(r, "companyID"), page, limit)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if batches == nil {
		batches = []domain.ImportBatch{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"imports": batches,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

func (h *Handlers) GetImport(w http.ResponseWriter, r *http.Request) {
	b, err := h.batchRepo.Get(chi.URLParam(r, "companyID"), chi.URLParam(r, "batchID"))
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "import not found")
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, b)
}

func (h *Handlers) DeleteImport(w http.ResponseWriter, r *http.Request) {
	err := h.batchRepo.Delete(chi.URLParam(r, "companyID"), chi.URLParam(r, "batchID"))
	if errors.Is(err, repository.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "import not found")
		return
	}
	if errors.Is(err, repository.ErrBatchHasExpenses) {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Transactions ---

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		CompanyID:   chi.URLParam(r, "companyID"),
		BatchID:     q.Get("batch_id"),
		Status:      q.Get("status"),
		VehicleID:   q.Get("vehicle_id"),
		NeedsReview: parseBool(q.Get("needs_review")),
		From:        parseTime(q.Get("from")),
		To:          parseTime(q.Get("to")),
		Page:        parseIntDefault(q.Get("page"), 1),
		Limit:       parseIntDefault(q.Get("limit"), 50),
	}

	txns, total, err := h.txnRepo.List(filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if txns == nil {
		txns = []domain.NormalizedTransaction{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

type bulkRequest struct {
	IDs       []string `json:"ids"`
	VehicleID string   `json:"vehicle_id,omitempty"`
}

func (h *Handlers) decodeBulk(w http.ResponseWriter, r *http.Request) (*bulkRequest, bool) {
	var req bulkRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if len(req.IDs) == 0 {
		h.writeError(w, http.StatusBadRequest, "ids must not be empty")
		return nil, false
	}
	return &req, true
}

func (h *Handlers) MatchTransactions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBulk(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(req.VehicleID) == "" {
		h.writeError(w, http.StatusBadRequest, "vehicle_id is required")
		return
	}
	sum, err := h.ledgerSvc.Match(r.Context(), chi.URLParam(r, "companyID"), req.IDs, req.VehicleID)
	if errors.Is(err, ledger.ErrUnknownVehicle) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

func (h *Handlers) IgnoreTransactions(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBulk(w, r)
	if !ok {
		return
	}
	sum, err := h.ledgerSvc.Ignore(r.Context(), chi.URLParam(r, "companyID"), req.IDs)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

func (h *Handlers) CreateExpenses(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBulk(w, r)
	if !ok {
		return
	}
	sum, err := h.ledgerSvc.CreateExpenses(r.Context(), chi.URLParam(r, "companyID"), req.IDs)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sum)
}

// --- Rates ---

func (h *Handlers) GetRate(w http.ResponseWriter, r *http.Request) {
	cur := strings.ToUpper(chi.URLParam(r, "currency"))
	var date time.Time
	if v := r.URL.Query().Get("date"); v != "" {
		d, err := time.Parse(time.DateOnly, v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	snap, err := h.rates.Rate(r.Context(), cur, date)
	if errors.Is(err, currency.ErrUnsupportedCurrency) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reporting_currency": h.rates.ReportingCurrency(),
		"rate":               snap,
	})
}
