package handlers

import (
	"errors"
	"net/http"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/forecast"
	"ercot-mcp/internal/frame"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto the uniform error envelope with the
// right HTTP status and code.
func respondError(c *gin.Context, err error) {
	var (
		unknown      *ercot.UnknownEndpointError
		invalidParam *ercot.InvalidParameterError
		authErr      *ercot.AuthenticationError
		reqErr       *ercot.RequestError
		normErr      *frame.NormalizationError
		featErr      *forecast.FeatureMismatchError
		dataErr      *forecast.InsufficientDataError
	)

	switch {
	case errors.As(err, &unknown):
		c.JSON(http.StatusNotFound, errorBody("UNKNOWN_ENDPOINT", err, gin.H{
			"endpoint": unknown.Name,
		}))
	case errors.As(err, &invalidParam):
		c.JSON(http.StatusBadRequest, errorBody("INVALID_PARAMETER", err, gin.H{
			"endpoint":  invalidParam.Endpoint,
			"parameter": invalidParam.Parameter,
		}))
	case errors.As(err, &authErr):
		c.JSON(http.StatusUnauthorized, errorBody("AUTHENTICATION_ERROR", err, gin.H{
			"status_code": authErr.StatusCode,
		}))
	case errors.As(err, &reqErr):
		c.JSON(http.StatusBadGateway, errorBody("API_REQUEST_ERROR", err, gin.H{
			"endpoint":    reqErr.Endpoint,
			"status_code": reqErr.StatusCode,
		}))
	case errors.As(err, &normErr):
		c.JSON(http.StatusUnprocessableEntity, errorBody("NORMALIZATION_ERROR", err, gin.H{
			"endpoint": normErr.Endpoint,
		}))
	case errors.As(err, &featErr):
		c.JSON(http.StatusBadRequest, errorBody("FEATURE_MISMATCH", err, nil))
	case errors.As(err, &dataErr):
		c.JSON(http.StatusUnprocessableEntity, errorBody("INSUFFICIENT_DATA", err, nil))
	default:
		c.JSON(http.StatusInternalServerError, errorBody("INTERNAL_ERROR", err, nil))
	}
}

func respondInvalidRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody("INVALID_REQUEST", err, nil))
}

func errorBody(code string, err error, details map[string]any) models.ErrorResponse {
	return models.ErrorResponse{Error: models.ErrorDetail{
		Code:    code,
		Message: err.Error(),
		Details: details,
	}}
}
