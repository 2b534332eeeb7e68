package handlers

import (
	"fmt"
	"net/http"
	"time"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/config"
	"ercot-mcp/internal/forecast"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ForecastHandler serves net-load assembly, day-ahead forecasts, and
// cross-validation runs.
type ForecastHandler struct {
	client Fetcher
	cfg    config.ForecastConfig
}

func NewForecastHandler(client Fetcher, cfg config.ForecastConfig) *ForecastHandler {
	return &ForecastHandler{client: client, cfg: cfg}
}

// NetLoad handles POST /api/v1/forecast/netload.
func (h *ForecastHandler) NetLoad(c *gin.Context) {
	var req models.NetLoadForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	if _, err := time.ParseInLocation(dateLayout, req.DateFrom, time.UTC); err != nil {
		respondInvalidRequest(c, fmt.Errorf("invalid date_from %q: expected YYYY-MM-DD", req.DateFrom))
		return
	}

	dat, err := forecast.GetNetLoadForecast(c.Request.Context(), h.client, req.DateFrom, req.DateTo, req.Size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewFrameResponse(dat))
}

// DayAhead handles POST /api/v1/forecast/dayahead.
func (h *ForecastHandler) DayAhead(c *gin.Context) {
	var req models.DayAheadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	target, err := time.ParseInLocation(dateLayout, req.TargetDate, time.UTC)
	if err != nil {
		respondInvalidRequest(c, fmt.Errorf("invalid target_date %q: expected YYYY-MM-DD", req.TargetDate))
		return
	}

	params := forecast.DayAheadParams{
		TargetDate:       target,
		TrainingDays:     orDefault(req.TrainingDays, h.cfg.TrainingDays),
		PolynomialDegree: orDefault(req.PolynomialDegree, h.cfg.PolynomialDegree),
	}
	result, err := forecast.DayAheadForecast(c.Request.Context(), params, h.dataSource())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CrossValidate handles POST /api/v1/forecast/cv.
func (h *ForecastHandler) CrossValidate(c *gin.Context) {
	var req models.CVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	start, err := time.ParseInLocation(dateLayout, req.StartDate, time.UTC)
	if err != nil {
		respondInvalidRequest(c, fmt.Errorf("invalid start_date %q: expected YYYY-MM-DD", req.StartDate))
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.EndDate, time.UTC)
	if err != nil {
		respondInvalidRequest(c, fmt.Errorf("invalid end_date %q: expected YYYY-MM-DD", req.EndDate))
		return
	}

	params := forecast.CVParams{
		StartDate:           start,
		EndDate:             end,
		InitialTrainingDays: orDefault(req.InitialTrainingDays, h.cfg.TrainingDays),
		PolynomialDegree:    orDefault(req.PolynomialDegree, h.cfg.PolynomialDegree),
		ExpandingWindow:     !req.SlidingWindow,
	}
	result, err := forecast.RollingForecastCV(c.Request.Context(), params, h.dataSource())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ForecastHandler) dataSource() forecast.DataSource {
	return &forecast.MarketDataSource{Fetcher: h.client}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
