package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"NewsScreener/internal/domain/models"
	drepo "NewsScreener/internal/domain/repository"
	icache "NewsScreener/internal/service/cache"
	"NewsScreener/internal/service/metrics"
	"NewsScreener/internal/service/ratelimit"
	"NewsScreener/internal/usecase"
	xhttp "NewsScreener/pkg/http"
	applogger "NewsScreener/pkg/logger"
)

const analyzeCacheTTL = 30 * time.Second

// ScreenerHandler exposes the scan, analysis and settings endpoints.
type ScreenerHandler struct {
	orch  *usecase.ScanOrchestrator
	store drepo.ScanStore // optional; history returns 503 without it
	cache icache.BytesCache
	rl    *ratelimit.Limiter
	l     *applogger.Logger
}

func NewScreenerHandler(l *applogger.Logger, orch *usecase.ScanOrchestrator) *ScreenerHandler {
	metrics.Register()
	return &ScreenerHandler{orch: orch, rl: ratelimit.New(), l: l}
}

// SetStore injects the optional history store.
func (h *ScreenerHandler) SetStore(s drepo.ScanStore) { h.store = s }

// SetCache injects the optional response cache for analyze.
func (h *ScreenerHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *ScreenerHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/screener")
	g.POST("/scan", h.Scan)
	g.GET("/results", h.Results)
	g.GET("/status", h.Status)
	g.GET("/analyze/:symbol", h.Analyze)
	g.GET("/settings", h.GetSettings)
	g.POST("/settings", h.UpdateSettings)
	g.GET("/history", h.History)
}

// Scan triggers an asynchronous scan. 202 with the scan ID, 409 if one is
// already in flight.
func (h *ScreenerHandler) Scan(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.EndpointLatency.WithLabelValues("scan").Observe(time.Since(start).Seconds()) }()

	id, err := h.orch.TriggerScan(c.Request().Context())
	if errors.Is(err, models.ErrScanAlreadyRunning) {
		appErr := xhttp.NewAppError("ERR_SCAN_RUNNING", "", "a scan is already in progress", http.StatusConflict)
		return xhttp.AppErrorResponse(c, appErr)
	}
	if err != nil {
		metrics.EndpointErrors.WithLabelValues("scan").Inc()
		h.l.Error("scan trigger failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.DataResponse(c, http.StatusAccepted, map[string]string{"scan_id": id})
}

// Results returns the last completed scan with its ranked recommendations.
func (h *ScreenerHandler) Results(c echo.Context) error {
	res := h.orch.Results()
	if res == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no scan has completed yet"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"result": res,
		"ranked": res.Ranked(),
	})
}

// Status returns the orchestrator state.
func (h *ScreenerHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Status())
}

// Analyze screens one symbol on demand.
func (h *ScreenerHandler) Analyze(c echo.Context) error {
	start := time.Now()
	endpoint := "analyze"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP()+":analyze", 5, 2) {
		h.l.Warn("analyze rate_limited", applogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many analyze requests", http.StatusTooManyRequests))
	}

	cacheKey := "analyze:" + req.Symbol
	if h.cache != nil && !req.Force {
		if b, ok, err := h.cache.GetBytes(cacheKey); err == nil && ok {
			var rec models.Recommendation
			if err := json.Unmarshal(b, &rec); err == nil {
				return xhttp.SuccessResponse(c, &rec)
			}
		}
	}

	rec, err := h.orch.Analyze(c.Request().Context(), req.Symbol, req.Force)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		switch {
		case errors.Is(err, models.ErrUnknownSymbol):
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("symbol %s not in universe", req.Symbol))
		default:
			h.l.Error("analyze failed", applogger.String("symbol", req.Symbol), applogger.Error(err))
			return xhttp.AppErrorResponse(c,
				xhttp.NewAppError("ERR_UPSTREAM", "", err.Error(), http.StatusBadGateway).WithError(err))
		}
	}

	if h.cache != nil {
		if b, err := json.Marshal(rec); err == nil {
			if err := h.cache.SetBytes(cacheKey, b, analyzeCacheTTL); err != nil {
				h.l.Warn("analyze cache_set_error", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, rec)
}

// GetSettings returns the active screening thresholds.
func (h *ScreenerHandler) GetSettings(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.orch.Thresholds())
}

// UpdateSettings replaces the screening thresholds for subsequent scans.
func (h *ScreenerHandler) UpdateSettings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	th := models.Thresholds{
		VolumeSurgeThreshold: req.VolumeSurgeThreshold,
		PriceChangeMin:       req.PriceChangeMin,
		PriceChangeMax:       req.PriceChangeMax,
		MinPrice:             req.MinPrice,
		MaxPrice:             req.MaxPrice,
		MinHoldDays:          req.MinHoldDays,
		MaxHoldDays:          req.MaxHoldDays,
	}
	h.orch.UpdateThresholds(th)
	h.l.Info("screening thresholds updated",
		applogger.Any("thresholds", th),
	)
	return xhttp.SuccessResponse(c, th)
}

// History returns persisted signals for a symbol from the scan store.
func (h *ScreenerHandler) History(c echo.Context) error {
	start := time.Now()
	endpoint := "history"
	defer func() { metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.store == nil {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("ERR_HISTORY_DISABLED", "", "scan history storage is not enabled", http.StatusServiceUnavailable))
	}

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	now := time.Now().UTC()
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, 0, -30))
	rows, err := h.store.QuerySignals(c.Request().Context(), req.Symbol, from, to, req.Limit)
	if err != nil {
		metrics.EndpointErrors.WithLabelValues(endpoint).Inc()
		h.l.Error("history query failed", applogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
