package analytichttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zamzam-pos/zamzam-pos/internal/analytics"
	"github.com/zamzam-pos/zamzam-pos/internal/analytics/export"
	"github.com/zamzam-pos/zamzam-pos/internal/inventory"
	"github.com/zamzam-pos/zamzam-pos/internal/platform/httpx"
	"github.com/zamzam-pos/zamzam-pos/internal/shared"
)

// DegradedHeader marks a report answered with a zero payload after a read failure.
const DegradedHeader = "X-Report-Degraded"

const requestTimeout = 5 * time.Second

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportService defines the analytics contract used by the handler.
type ReportService interface {
	Sales(ctx context.Context, start, end time.Time) (analytics.SalesAnalytics, error)
	DailySales(ctx context.Context, day time.Time) (analytics.SalesAnalytics, analytics.Window, error)
	MonthlySales(ctx context.Context, year int, month time.Month) (analytics.SalesAnalytics, analytics.Window, error)
	ProfitLoss(ctx context.Context, period analytics.Period, ref time.Time) (analytics.ProfitLoss, error)
}

// InventoryService exposes the stock reads behind the inventory exports.
type InventoryService interface {
	Items(ctx context.Context) ([]inventory.Item, error)
	MovementReport(ctx context.Context, start, end time.Time) (inventory.MovementReport, error)
}

// DegradedRecorder counts reports served empty after a read failure.
type DegradedRecorder interface {
	ReportDegraded(report string)
}

// Handler coordinates HTTP requests for sales, profit/loss and exports.
type Handler struct {
	logger      *slog.Logger
	service     ReportService
	inventory   InventoryService
	loc         *time.Location
	currency    string
	exportLimit int
	recorder    DegradedRecorder
	csvPool     sync.Pool
	now         func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService, inv InventoryService, loc *time.Location, currency string) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if currency == "" {
		currency = shared.DefaultCurrency
	}
	h := &Handler{
		logger:      logger,
		service:     service,
		inventory:   inv,
		loc:         loc,
		currency:    currency,
		exportLimit: 10,
		now:         time.Now,
	}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithExportLimit sets the per-minute export budget per client.
func (h *Handler) WithExportLimit(n int) {
	if n > 0 {
		h.exportLimit = n
	}
}

// WithRecorder reports degraded responses to r.
func (h *Handler) WithRecorder(r DegradedRecorder) {
	h.recorder = r
}

type salesReport struct {
	analytics.Window
	analytics.SalesAnalytics
}

func (h *Handler) handleDailySales(w http.ResponseWriter, r *http.Request) {
	day, err := h.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sales, window, err := h.service.DailySales(ctx, day)
	if err != nil {
		window = analytics.ResolvePeriod(analytics.PeriodDaily, day, h.loc)
		h.degraded(w, "daily sales", err, salesReport{Window: window, SalesAnalytics: analytics.EmptySales()})
		return
	}
	httpx.JSON(w, http.StatusOK, salesReport{Window: window, SalesAnalytics: sales})
}

func (h *Handler) handleMonthlySales(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.parseMonth(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sales, window, err := h.service.MonthlySales(ctx, year, month)
	if err != nil {
		window = analytics.MonthWindow(year, month, h.loc)
		h.degraded(w, "monthly sales", err, salesReport{Window: window, SalesAnalytics: analytics.EmptySales()})
		return
	}
	httpx.JSON(w, http.StatusOK, salesReport{Window: window, SalesAnalytics: sales})
}

func (h *Handler) handleCustomSales(w http.ResponseWriter, r *http.Request) {
	start, end, err := httpx.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	window := analytics.Window{Period: analytics.PeriodCustom, Start: start, End: end}
	sales, err := h.service.Sales(ctx, start, end)
	if err != nil {
		h.degraded(w, "custom sales", err, salesReport{Window: window, SalesAnalytics: analytics.EmptySales()})
		return
	}
	httpx.JSON(w, http.StatusOK, salesReport{Window: window, SalesAnalytics: sales})
}

func (h *Handler) handleProfitLoss(w http.ResponseWriter, r *http.Request) {
	period, ref, err := h.parseProfitLoss(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.ProfitLoss(ctx, period, ref)
	if err != nil {
		empty := analytics.EmptyProfitLoss(analytics.ResolvePeriod(period, ref, h.loc), h.loc)
		h.degraded(w, "profit loss", err, empty)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) handleProfitLossCSV(w http.ResponseWriter, r *http.Request) {
	period, ref, err := h.parseProfitLoss(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.service.ProfitLoss(ctx, period, ref)
	if err != nil {
		h.handleServerError(w, "load profit loss", err)
		return
	}
	filename := fmt.Sprintf("profit-loss-%s-%s.csv", report.Period, shared.DayKey(report.Start, h.loc))
	h.streamCSV(w, filename, func(buf *bytes.Buffer) error {
		return export.WriteProfitLossCSV(buf, report)
	})
}

func (h *Handler) handleInventoryCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	items, err := h.inventory.Items(ctx)
	if err != nil {
		h.handleServerError(w, "load inventory", err)
		return
	}
	filename := fmt.Sprintf("inventory-%s.csv", shared.DayKey(h.now(), h.loc))
	h.streamCSV(w, filename, func(buf *bytes.Buffer) error {
		return export.WriteInventoryCSV(buf, items, h.currency)
	})
}

func (h *Handler) handleMovementsCSV(w http.ResponseWriter, r *http.Request) {
	start, end, err := httpx.ParseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"), h.loc)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadStock(ctx, start, end)
	if err != nil {
		h.handleServerError(w, "load movements", err)
		return
	}
	filename := fmt.Sprintf("inventory-movements-%s-to-%s.csv", shared.DayKey(start, h.loc), shared.DayKey(end, h.loc))
	h.streamCSV(w, filename, func(buf *bytes.Buffer) error {
		return export.WriteMovementsCSV(buf, data.report.Entries, export.ItemNames(data.items), h.loc)
	})
}

func (h *Handler) handleWorkbook(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.parseOptionalRange(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	data, err := h.loadStock(ctx, start, end)
	if err != nil {
		h.handleServerError(w, "load workbook", err)
		return
	}
	var buf bytes.Buffer
	err = export.WriteInventoryWorkbook(&buf, export.WorkbookInput{
		Items:     data.items,
		Movements: data.report.Entries,
		Currency:  h.currency,
		Location:  h.loc,
	})
	if err != nil {
		h.handleServerError(w, "write workbook", err)
		return
	}
	filename := fmt.Sprintf("inventory-%s.xlsx", shared.DayKey(h.now(), h.loc))
	if err := httpx.Attachment(w, contentTypeXLSX, filename, buf.Bytes()); err != nil {
		h.logError("stream xlsx", err)
	}
}

type stockData struct {
	items  []inventory.Item
	report inventory.MovementReport
}

func (h *Handler) loadStock(ctx context.Context, start, end time.Time) (stockData, error) {
	var data stockData
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := h.inventory.Items(ctx)
		data.items = items
		return err
	})
	g.Go(func() error {
		report, err := h.inventory.MovementReport(ctx, start, end)
		data.report = report
		return err
	})
	if err := g.Wait(); err != nil {
		return stockData{}, err
	}
	return data, nil
}

func (h *Handler) streamCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	if err := httpx.Attachment(w, contentTypeCSV, filename, buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.now(), nil
	}
	day, err := shared.ParseDay(raw, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return day, nil
}

func (h *Handler) parseMonth(r *http.Request) (int, time.Month, error) {
	now := h.now().In(h.loc)
	year, month := now.Year(), now.Month()
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2000 || v > 9999 {
			return 0, 0, fmt.Errorf("%w: year out of range", httpx.ErrValidation)
		}
		year = v
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			return 0, 0, fmt.Errorf("%w: month must be 1-12", httpx.ErrValidation)
		}
		month = time.Month(v)
	}
	return year, month, nil
}

func (h *Handler) parseProfitLoss(r *http.Request) (analytics.Period, time.Time, error) {
	period, err := analytics.ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return "", time.Time{}, err
	}
	ref, err := h.parseDay(r.URL.Query().Get("date"))
	if err != nil {
		return "", time.Time{}, err
	}
	return period, ref, nil
}

// parseOptionalRange defaults to the current month when no bounds are given.
func (h *Handler) parseOptionalRange(r *http.Request) (time.Time, time.Time, error) {
	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	if from == "" && to == "" {
		w := analytics.ResolvePeriod(analytics.PeriodMonthly, h.now(), h.loc)
		return w.Start, w.End, nil
	}
	return httpx.ParseRange(from, to, h.loc)
}

func (h *Handler) degraded(w http.ResponseWriter, op string, err error, payload any) {
	h.logger.Warn("report degraded", slog.String("op", op), slog.Any("error", err))
	if h.recorder != nil {
		h.recorder.ReportDegraded(op)
	}
	w.Header().Set(DegradedHeader, "1")
	httpx.JSON(w, http.StatusOK, payload)
}

func (h *Handler) logError(op string, err error) {
	if h.logger != nil {
		h.logger.Error("analytics handler error", slog.String("op", op), slog.Any("error", err))
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, op string, err error) {
	h.logError(op, err)
	httpx.RespondError(w, err)
}
