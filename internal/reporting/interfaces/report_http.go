package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"energy-accounting/internal/audit"
	"energy-accounting/internal/auth"
	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
	"energy-accounting/internal/observability/metrics"
	reportapp "energy-accounting/internal/reporting/application"
	reporting "energy-accounting/internal/reporting/domain"
)

const (
	contentTypeJSON = "application/json"
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHandler handles report APIs under /api/v1/reports.
type ReportHandler struct {
	daily       *reportapp.DailyReportService
	losses      *reportapp.MonthlyLossesService
	period      *reportapp.PeriodService
	auditLogger audit.Logger
}

// NewReportHandler constructs a handler.
func NewReportHandler(daily *reportapp.DailyReportService, losses *reportapp.MonthlyLossesService, period *reportapp.PeriodService, auditLogger audit.Logger) (*ReportHandler, error) {
	if daily == nil {
		return nil, errors.New("report handler: nil daily report service")
	}
	if losses == nil {
		return nil, errors.New("report handler: nil monthly losses service")
	}
	if period == nil {
		return nil, errors.New("report handler: nil period service")
	}
	return &ReportHandler{daily: daily, losses: losses, period: period, auditLogger: auditLogger}, nil
}

// ServeHTTP routes report requests.
func (h *ReportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/reports/")
	if rest == r.URL.Path {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch {
	case rest == "daily/generate" && r.Method == http.MethodPost:
		h.handleGenerateDaily(w, r)
	case rest == "daily" && r.Method == http.MethodGet:
		h.handleGetDaily(w, r)
	case rest == "daily/export.xlsx" && r.Method == http.MethodGet:
		h.handleExportDaily(w, r)
	case rest == "monthly-losses/generate" && r.Method == http.MethodPost:
		h.handleGenerateLosses(w, r)
	case rest == "monthly-losses" && r.Method == http.MethodGet:
		h.handleGetLosses(w, r)
	case rest == "monthly-losses/export.pdf" && r.Method == http.MethodGet:
		h.handleExportLosses(w, r)
	case rest == "period" && r.Method == http.MethodGet:
		h.handlePeriod(w, r)
	case rest == "period/export.xlsx" && r.Method == http.MethodGet:
		h.handleExportPeriod(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type generateRequest struct {
	MainClientID string   `json:"main_client_id"`
	SubClientIDs []string `json:"sub_client_ids"`
	Month        string   `json:"month"`
	Force        bool     `json:"force"`
}

func decodeGenerate(r *http.Request) (generateRequest, metering.BillingPeriod, error) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, metering.BillingPeriod{}, fmt.Errorf("invalid json: %w", err)
	}
	period, err := metering.ParseBillingPeriod(req.Month)
	if err != nil {
		return req, metering.BillingPeriod{}, err
	}
	return req, period, nil
}

func (h *ReportHandler) handleGenerateDaily(w http.ResponseWriter, r *http.Request) {
	req, period, err := decodeGenerate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.daily.Generate(r.Context(), reportapp.DailyReportRequest{
		MainClientID: req.MainClientID,
		SubClientIDs: req.SubClientIDs,
		Period:       period,
		Force:        req.Force,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	doc := result.Document
	writeJSON(w, map[string]any{
		"report_id":                 doc.ID,
		"cache_hit":                 result.CacheHit,
		"clients_using_check_meter": doc.ClientsUsingCheckMeter,
		"clients_without_meters":    doc.ClientsWithoutMeters,
		"warnings":                  doc.Warnings,
	})
	h.logAudit(r, doc.MainClientID, doc.ID, period, "report.daily.generate", map[string]any{
		"force":     req.Force,
		"cache_hit": result.CacheHit,
		"subs":      doc.SubClientIDs,
	})
}

func (h *ReportHandler) handleGetDaily(w http.ResponseWriter, r *http.Request) {
	mainClientID, period, err := monthQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := h.daily.Get(r.Context(), mainClientID, period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (h *ReportHandler) handleExportDaily(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("xlsx", result, time.Since(start))
	}()

	mainClientID, period, err := monthQuery(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := h.daily.Get(r.Context(), mainClientID, period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildDailyReportXLSX(doc)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, contentTypeXLSX, fmt.Sprintf("daily-%s-%s.xlsx", doc.MainClientID, doc.Period), data)
	h.logAudit(r, doc.MainClientID, doc.ID, period, "report.daily.export", map[string]any{"format": "xlsx"})
}

func (h *ReportHandler) handleGenerateLosses(w http.ResponseWriter, r *http.Request) {
	req, period, err := decodeGenerate(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.losses.Generate(r.Context(), reportapp.MonthlyLossesRequest{
		MainClientID: req.MainClientID,
		SubClientIDs: req.SubClientIDs,
		Period:       period,
		Force:        req.Force,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	doc := result.Document
	writeJSON(w, map[string]any{
		"report_id":                 doc.ID,
		"cache_hit":                 result.CacheHit,
		"summary":                   doc.Summary,
		"clients_using_check_meter": doc.ClientsUsingCheckMeter,
		"clients_without_meters":    doc.ClientsWithoutMeters,
		"warnings":                  doc.Warnings,
	})
	h.logAudit(r, doc.MainClientID, doc.ID, period, "report.monthly_losses.generate", map[string]any{
		"force":     req.Force,
		"cache_hit": result.CacheHit,
		"subs":      doc.SubClientIDs,
	})
}

func (h *ReportHandler) handleGetLosses(w http.ResponseWriter, r *http.Request) {
	mainClientID, period, err := monthQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := h.losses.Get(r.Context(), mainClientID, period)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, doc)
}

func (h *ReportHandler) handleExportLosses(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("pdf", result, time.Since(start))
	}()

	mainClientID, period, err := monthQuery(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := h.losses.Get(r.Context(), mainClientID, period)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildMonthlyLossesPDF(doc)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export pdf error", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, contentTypePDF, fmt.Sprintf("monthly-losses-%s-%s.pdf", doc.MainClientID, doc.Period), data)
	h.logAudit(r, doc.MainClientID, doc.ID, period, "report.monthly_losses.export", map[string]any{"format": "pdf"})
}

func (h *ReportHandler) handlePeriod(w http.ResponseWriter, r *http.Request) {
	req, err := periodQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.period.Aggregate(r.Context(), req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, report)
}

func (h *ReportHandler) handleExportPeriod(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveReportExport("xlsx", result, time.Since(start))
	}()

	req, err := periodQuery(r)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.period.Aggregate(r.Context(), req)
	if err != nil {
		result = metrics.ResultError
		respondServiceError(w, err)
		return
	}
	data, err := BuildPeriodXLSX(report)
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export xlsx error", http.StatusInternalServerError)
		return
	}
	writeAttachment(w, contentTypeXLSX, fmt.Sprintf("period-%s-%s-%s.xlsx", req.MainClientID, req.From, req.To), data)
	h.logAudit(r, req.MainClientID, "", req.From, "report.period.export", map[string]any{
		"format": "xlsx",
		"to":     req.To.String(),
		"subs":   req.SubClientIDs,
	})
}

func monthQuery(r *http.Request) (string, metering.BillingPeriod, error) {
	q := r.URL.Query()
	mainClientID := strings.TrimSpace(q.Get("main_client_id"))
	if mainClientID == "" {
		return "", metering.BillingPeriod{}, reporting.ErrEmptyMainClientID
	}
	period, err := metering.ParseBillingPeriod(q.Get("month"))
	if err != nil {
		return "", metering.BillingPeriod{}, err
	}
	return mainClientID, period, nil
}

func periodQuery(r *http.Request) (reportapp.PeriodRequest, error) {
	q := r.URL.Query()
	req := reportapp.PeriodRequest{
		MainClientID: strings.TrimSpace(q.Get("main_client_id")),
		SubClientIDs: reportapp.SplitCSV(q.Get("sub_client_ids")),
	}
	var err error
	if req.From, err = metering.ParseBillingPeriod(q.Get("from")); err != nil {
		return req, fmt.Errorf("from: %w", err)
	}
	if req.To, err = metering.ParseBillingPeriod(q.Get("to")); err != nil {
		return req, fmt.Errorf("to: %w", err)
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ReportHandler) logAudit(r *http.Request, mainClientID, reportID string, period metering.BillingPeriod, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	entry := audit.FromRequest(r, audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       action,
		ResourceType: audit.ResourceReport,
		ResourceID:   reportID,
		MainClientID: mainClientID,
		Period:       period.String(),
	}).WithMetadata(meta)
	_ = h.auditLogger.Log(r.Context(), entry)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, auth.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, clients.ErrClientNotFound),
		errors.Is(err, metering.ErrNoMeterData),
		errors.Is(err, reporting.ErrReportNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "report generation timed out", http.StatusGatewayTimeout)
	case isValidationError(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

var validationErrors = []error{
	reporting.ErrEmptyMainClientID,
	reporting.ErrInvalidRange,
	reporting.ErrRangeTooLong,
	reporting.ErrTooManySubClients,
	metering.ErrInvalidPeriod,
	clients.ErrForeignSubClient,
	clients.ErrInvalidPolarity,
	clients.ErrInvalidMultiplyingFactor,
	clients.ErrEmptyID,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
