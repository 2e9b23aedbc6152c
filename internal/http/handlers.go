package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"finsight/internal/assistant"
	"finsight/internal/core"
	"finsight/internal/forecast"
	"finsight/internal/ledger"
	"finsight/internal/log"
	"finsight/internal/services"
)

const (
	maxUploadBytes    = 10 << 20
	maxHistoryMonths  = 120
	readyCheckTimeout = 5 * time.Second
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "FinSight ML",
	})
}

// handleReady reports 503 until the classifier model is loaded and the
// ledger backend answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := make(map[string]string)

	if s.deps.Classifier != nil && s.deps.Classifier.Loaded() {
		checks["classifier"] = "ok"
	} else {
		checks["classifier"] = "not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	switch {
	case s.deps.Ledger == nil:
		checks["ledger"] = "not_configured"
	default:
		if err := s.deps.Ledger.Ready(ctx); err != nil {
			checks["ledger"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["ledger"] = "ok"
		}
	}

	writeJSON(w, r, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}

type classifyRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	desc := sanitizeInput(req.Description)
	if desc == "" {
		writeError(w, r, http.StatusBadRequest, "description is required")
		return
	}

	p, err := s.deps.Classifier.Classify(desc)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Classification failed",
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "classifier unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

type forecastRequest struct {
	History []core.MonthlyRecord `json:"history"`
	Periods *int                 `json:"periods"`
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req forecastRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	periods := s.defaultPeriods
	if req.Periods != nil {
		periods = *req.Periods
	}
	if err := s.checkPeriods(periods); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.deps.Forecaster.Forecast(r.Context(), req.History, periods)
	if err != nil {
		s.writeForecastError(w, r, err)
		return
	}
	s.logForecast(r, result, periods)
	writeJSON(w, r, http.StatusOK, result)
}

// checkPeriods enforces the configured horizon cap, if any. The forecaster
// itself rejects horizons running past the last representable month.
func (s *Server) checkPeriods(periods int) error {
	switch {
	case periods < 1:
		return errors.New("periods must be at least 1")
	case s.maxPeriods > 0 && periods > s.maxPeriods:
		return fmt.Errorf("periods must be between 1 and %d", s.maxPeriods)
	}
	return nil
}

func (s *Server) writeForecastError(w http.ResponseWriter, r *http.Request, err error) {
	if forecast.IsInvalidRequest(err) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	log.FromContext(r.Context()).ErrorContext(r.Context(), "Forecast failed", log.FieldError, err)
	writeError(w, r, http.StatusInternalServerError, "forecast failed")
}

func (s *Server) logForecast(r *http.Request, result core.ForecastResult, periods int) {
	fields := log.NewFields().WithForecast(string(result.Method), result.HistoryMonths, periods)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Forecast served", fields.ToSlice()...)
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "expected multipart form with a file under 10 MiB")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	if header.Size > maxUploadBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read file")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, r, http.StatusRequestEntityTooLarge, "file exceeds 10 MiB")
		return
	}

	result := s.deps.Receipts.Extract(r.Context(), data)
	if result.Description != nil && s.deps.Classifier != nil {
		if p, err := s.deps.Classifier.Classify(*result.Description); err == nil {
			result.DraftTransaction.Category = p.Category
		} else {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Receipt left uncategorized",
				log.FieldError, err)
		}
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req assistant.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.Message = sanitizeInput(req.Message)
	if req.Message == "" {
		writeError(w, r, http.StatusBadRequest, "message is required")
		return
	}
	writeJSON(w, r, http.StatusOK, s.deps.Assistant.Chat(r.Context(), req))
}

type transactionRequest struct {
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
}

// toTransaction converts the wire form. A missing date means today, UTC.
func (req transactionRequest) toTransaction(now time.Time) (core.Transaction, error) {
	date := core.Date{Time: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)}
	if strings.TrimSpace(req.Date) != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.Transaction{}, errors.New("date must be YYYY-MM-DD")
		}
		date = d
	}

	cents, err := core.ParseDecimalToCents(req.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	return core.Transaction{
		Date:        date,
		Type:        core.TransactionType(strings.ToLower(strings.TrimSpace(req.Type))),
		Amount:      core.Money{Cents: cents},
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
	}, nil
}

func (s *Server) handleRecordTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	tx, err := req.toTransaction(time.Now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.deps.Ledger.RecordTransaction(r.Context(), tx)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTransaction) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to record transaction",
			log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, "could not record transaction")
		return
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (s *Server) handleLedgerHistory(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	months, err := queryInt(r, "months", 12, 1, maxHistoryMonths)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.deps.Ledger.History(r.Context(), months)
	if err != nil {
		s.ledgerFailure(w, r, err)
		return
	}
	if history == nil {
		history = []core.MonthlyRecord{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleLedgerForecast(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	months, err := queryInt(r, "months", 12, 1, maxHistoryMonths)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	periods, err := queryInt(r, "periods", s.defaultPeriods, 1, math.MaxInt32)
	if err == nil {
		err = s.checkPeriods(periods)
	}
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.deps.Ledger.Forecast(r.Context(), months, periods)
	if err != nil {
		s.writeForecastError(w, r, err)
		return
	}
	s.logForecast(r, result, periods)
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleLedgerSummary(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	months, err := queryInt(r, "months", 3, 1, maxHistoryMonths)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	summary, history, err := s.deps.Ledger.Summary(r.Context(), months)
	if err != nil {
		s.ledgerFailure(w, r, err)
		return
	}
	if history == nil {
		history = []core.MonthlyRecord{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"summary": summary,
		"history": history,
	})
}

func (s *Server) handleLedgerTotals(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	from, to, err := queryDateRange(r, s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	totals, err := s.deps.Ledger.Totals(r.Context(), from, to)
	if err != nil {
		s.ledgerQueryFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, totals)
}

func (s *Server) handleLedgerBreakdown(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	from, to, err := queryDateRange(r, s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	typ := core.Expense
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		typ = core.TransactionType(strings.ToLower(raw))
	}

	items, err := s.deps.Ledger.CategoryBreakdown(r.Context(), from, to, typ)
	if err != nil {
		s.ledgerQueryFailure(w, r, err)
		return
	}
	if items == nil {
		items = []ledger.CategoryTotal{}
	}
	writeJSON(w, r, http.StatusOK, items)
}

func (s *Server) handleLedgerCashFlow(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	from, to, err := queryDateRange(r, s.now())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	g, err := ledger.ParseGranularity(strings.TrimSpace(r.URL.Query().Get("granularity")))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	points, err := s.deps.Ledger.CashFlow(r.Context(), from, to, g)
	if err != nil {
		s.ledgerQueryFailure(w, r, err)
		return
	}
	if points == nil {
		points = []ledger.CashFlowPoint{}
	}
	writeJSON(w, r, http.StatusOK, points)
}

func (s *Server) handleLedgerTax(w http.ResponseWriter, r *http.Request) {
	if !s.requireLedger(w, r) {
		return
	}
	year, err := queryInt(r, "year", s.now().UTC().Year(), 1, 9999)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	estimate, err := s.deps.Ledger.TaxEstimate(r.Context(), year)
	if err != nil {
		s.ledgerQueryFailure(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, estimate)
}

func (s *Server) ledgerQueryFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidQuery):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrRangeUnsupported):
		writeError(w, r, http.StatusNotImplemented, err.Error())
	default:
		s.ledgerFailure(w, r, err)
	}
}

func (s *Server) requireLedger(w http.ResponseWriter, r *http.Request) bool {
	if s.deps.Ledger == nil {
		writeError(w, r, http.StatusServiceUnavailable, "ledger not configured")
		return false
	}
	return true
}

func (s *Server) ledgerFailure(w http.ResponseWriter, r *http.Request, err error) {
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Ledger read failed", err, "ledger_read", nil)
	writeError(w, r, http.StatusInternalServerError, "ledger unavailable")
}
