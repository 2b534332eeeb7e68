package handlers

import (
	"net/http"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/ercot"

	"github.com/gin-gonic/gin"
)

// EndpointHandler serves the endpoint catalog.
type EndpointHandler struct{}

func NewEndpointHandler() *EndpointHandler {
	return &EndpointHandler{}
}

// ListEndpoints handles GET /api/v1/endpoints. An optional ?category=
// query restricts the listing.
func (h *EndpointHandler) ListEndpoints(c *gin.Context) {
	category := c.Query("category")
	endpoints := ercot.ListEndpoints(category)
	c.JSON(http.StatusOK, models.EndpointListResponse{
		Count:     len(endpoints),
		Category:  category,
		Endpoints: endpoints,
	})
}

// GetEndpoint handles GET /api/v1/endpoints/:name.
func (h *EndpointHandler) GetEndpoint(c *gin.Context) {
	name := c.Param("name")
	spec, ok := ercot.GetEndpoint(name)
	if !ok {
		respondError(c, &ercot.UnknownEndpointError{Name: name})
		return
	}
	c.JSON(http.StatusOK, spec)
}
