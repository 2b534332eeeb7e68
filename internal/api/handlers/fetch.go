package handlers

import (
	"context"
	"net/http"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/frame"

	"github.com/gin-gonic/gin"
)

// Fetcher is the client surface the data handlers depend on.
type Fetcher interface {
	FetchData(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error)
}

// DataHandler serves raw fetches and payload normalization.
type DataHandler struct {
	client Fetcher
}

func NewDataHandler(client Fetcher) *DataHandler {
	return &DataHandler{client: client}
}

// FetchData handles POST /api/v1/fetch.
func (h *DataHandler) FetchData(c *gin.Context) {
	var req models.FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	dat, err := h.client.FetchData(c.Request.Context(), req.Endpoint, ercot.FetchOptions{
		DateFrom:        req.DateFrom,
		DateTo:          req.DateTo,
		SettlementPoint: req.SettlementPoint,
		ResourceType:    req.ResourceType,
		Size:            req.Size,
		Extra:           req.Extra,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	if req.ResampleHourly {
		dat = frame.ResampleHourly(dat, "SettlementPoint")
	}
	c.JSON(http.StatusOK, models.NewFrameResponse(dat))
}

// Normalize handles POST /api/v1/normalize: canonicalize a payload the
// caller fetched out of band.
func (h *DataHandler) Normalize(c *gin.Context) {
	var req models.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}

	columns := make([]string, len(req.Fields))
	for i, f := range req.Fields {
		columns[i] = f.Name
	}
	rows := make([]frame.Row, 0, len(req.Data))
	for _, rec := range req.Data {
		r := make(frame.Row, len(columns))
		for i, col := range columns {
			if i < len(rec) {
				r[col] = rec[i]
			}
		}
		rows = append(rows, r)
	}

	dat, err := frame.Normalize(req.Endpoint, frame.New(columns, rows))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewFrameResponse(dat))
}
