package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
)

// MeterRecordWriter stores normalized meter records.
type MeterRecordWriter interface {
	Save(ctx context.Context, record metering.MeterRecord) error
}

// LoggerReadingWriter stores logger readings.
type LoggerReadingWriter interface {
	Save(ctx context.Context, reading metering.LoggerReading) error
}

// IngestHandler accepts normalized meter data under /ingest.
type IngestHandler struct {
	records MeterRecordWriter
	loggers LoggerReadingWriter
	logger  *log.Logger
	now     func() time.Time
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(records MeterRecordWriter, loggers LoggerReadingWriter, logger *log.Logger) (*IngestHandler, error) {
	if records == nil {
		return nil, errors.New("meter ingest: nil meter record writer")
	}
	if loggers == nil {
		return nil, errors.New("meter ingest: nil logger reading writer")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{records: records, loggers: loggers, logger: logger, now: time.Now}, nil
}

// ServeHTTP routes ingest requests.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/ingest/meter-records":
		h.handleMeterRecord(w, r)
	case "/ingest/logger-readings":
		h.handleLoggerReading(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type meterRecordRequest struct {
	MeterNumber string                   `json:"meter_number"`
	MeterType   string                   `json:"meter_type"`
	OwnerID     string                   `json:"owner_id"`
	OwnerKind   string                   `json:"owner_kind"`
	Month       string                   `json:"month"`
	Entries     []metering.IntervalEntry `json:"entries"`
}

func (req meterRecordRequest) toRecord(now time.Time) (metering.MeterRecord, error) {
	period, err := metering.ParseBillingPeriod(req.Month)
	if err != nil {
		return metering.MeterRecord{}, err
	}
	meterType := metering.MeterType(strings.ToLower(strings.TrimSpace(req.MeterType)))
	switch meterType {
	case "":
		meterType = metering.MeterTypeMain
	case metering.MeterTypeMain, metering.MeterTypeCheck:
	default:
		return metering.MeterRecord{}, fmt.Errorf("unknown meter_type %q", req.MeterType)
	}
	ownerKind := clients.Kind(strings.ToLower(strings.TrimSpace(req.OwnerKind)))
	switch ownerKind {
	case "", clients.KindMain, clients.KindSub:
	default:
		return metering.MeterRecord{}, fmt.Errorf("meters belong to main or sub clients, got %q", req.OwnerKind)
	}
	if len(req.Entries) == 0 {
		return metering.MeterRecord{}, metering.ErrNoIntervalData
	}
	for i, entry := range req.Entries {
		if _, err := entry.CalendarDate(); err != nil {
			return metering.MeterRecord{}, fmt.Errorf("entry %d date %q: %w", i, entry.Date, err)
		}
	}
	record := metering.MeterRecord{
		MeterNumber: strings.TrimSpace(req.MeterNumber),
		MeterType:   meterType,
		OwnerID:     strings.TrimSpace(req.OwnerID),
		OwnerKind:   ownerKind,
		Period:      period,
		Entries:     req.Entries,
		IngestedAt:  now.UTC(),
	}
	return record, record.Validate()
}

func (h *IngestHandler) handleMeterRecord(w http.ResponseWriter, r *http.Request) {
	var req meterRecordRequest
	if !h.decode(w, r, &req) {
		return
	}
	record, err := req.toRecord(h.now())
	if err != nil {
		h.logger.Printf("meter ingest: invalid record: meter=%s err=%v", req.MeterNumber, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.records.Save(r.Context(), record); err != nil {
		h.logger.Printf("meter ingest: save record error: meter=%s err=%v", record.MeterNumber, err)
		http.Error(w, "save error", http.StatusInternalServerError)
		return
	}
	h.logger.Printf("meter ingest: record stored meter=%s type=%s period=%s entries=%d", record.MeterNumber, record.MeterType, record.Period, len(record.Entries))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"meter_number": record.MeterNumber,
		"period":       record.Period.String(),
		"entries":      len(record.Entries),
	})
}

type loggerReadingRequest struct {
	SubClientID string             `json:"sub_client_id"`
	Month       string             `json:"month"`
	Values      map[string]float64 `json:"values"`
}

func (h *IngestHandler) handleLoggerReading(w http.ResponseWriter, r *http.Request) {
	var req loggerReadingRequest
	if !h.decode(w, r, &req) {
		return
	}
	period, err := metering.ParseBillingPeriod(req.Month)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for date := range req.Values {
		if _, err := (metering.IntervalEntry{Date: date}).CalendarDate(); err != nil {
			http.Error(w, fmt.Sprintf("value date %q: %v", date, err), http.StatusBadRequest)
			return
		}
	}
	reading := metering.LoggerReading{
		SubClientID: strings.TrimSpace(req.SubClientID),
		Period:      period,
		Values:      req.Values,
		UpdatedAt:   h.now().UTC(),
	}
	if err := reading.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.loggers.Save(r.Context(), reading); err != nil {
		h.logger.Printf("meter ingest: save logger reading error: sub=%s err=%v", reading.SubClientID, err)
		http.Error(w, "save error", http.StatusInternalServerError)
		return
	}
	h.logger.Printf("meter ingest: logger reading stored sub=%s period=%s values=%d", reading.SubClientID, reading.Period, len(reading.Values))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"sub_client_id": reading.SubClientID,
		"period":        reading.Period.String(),
		"values":        len(reading.Values),
	})
}

func (h *IngestHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Printf("meter ingest: read body error: %v", err)
		http.Error(w, "read body error", http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := json.Unmarshal(body, dst); err != nil {
		h.logger.Printf("meter ingest: decode error: %v", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}
