package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ercot-mcp/internal/api/models"
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/frame"
)

type fetcherFunc func(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error)

func (f fetcherFunc) FetchData(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error) {
	return f(ctx, endpointName, opts)
}

func testRouter(fetch fetcherFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	endpointHandler := NewEndpointHandler()
	dataHandler := NewDataHandler(fetch)

	api := router.Group("/api/v1")
	api.GET("/endpoints", endpointHandler.ListEndpoints)
	api.GET("/endpoints/:name", endpointHandler.GetEndpoint)
	api.POST("/fetch", dataHandler.FetchData)
	api.POST("/normalize", dataHandler.Normalize)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestListEndpointsRoute(t *testing.T) {
	router := testRouter(nil)
	w := doJSON(t, router, http.MethodGet, "/api/v1/endpoints", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.EndpointListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.GreaterOrEqual(t, resp.Count, 23)

	w = doJSON(t, router, http.MethodGet, "/api/v1/endpoints?category=prices", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	for _, e := range resp.Endpoints {
		assert.Equal(t, "prices", e.Category)
	}
}

func TestGetEndpointRoute(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodGet, "/api/v1/endpoints/da_prices", "")
	require.Equal(t, http.StatusOK, w.Code)
	var spec ercot.EndpointSpec
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	assert.Equal(t, "da_prices", spec.Name)

	w = doJSON(t, router, http.MethodGet, "/api/v1/endpoints/bogus", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "UNKNOWN_ENDPOINT", errorCode(t, w))
}

func TestFetchRoute(t *testing.T) {
	ts := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	router := testRouter(func(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error) {
		assert.Equal(t, "da_prices", endpointName)
		assert.Equal(t, "2024-06-01", opts.DateFrom)
		return frame.New(
			[]string{frame.DatetimeColumn, "SettlementPointPrice"},
			[]frame.Row{{frame.DatetimeColumn: ts, "SettlementPointPrice": 25.5}},
		), nil
	})

	w := doJSON(t, router, http.MethodPost, "/api/v1/fetch",
		`{"endpoint":"da_prices","date_from":"2024-06-01"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.FrameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, [2]int{1, 2}, resp.Shape)
	assert.Contains(t, resp.Columns, frame.DatetimeColumn)
	require.Len(t, resp.Data, 1)
}

func TestFetchRouteValidation(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/fetch", `{"endpoint":"da_prices"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestFetchRouteDomainErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
		wantTag  string
	}{
		{"unknown endpoint", &ercot.UnknownEndpointError{Name: "x"}, http.StatusNotFound, "UNKNOWN_ENDPOINT"},
		{"invalid parameter", &ercot.InvalidParameterError{Endpoint: "da_prices", Parameter: "resourceType"}, http.StatusBadRequest, "INVALID_PARAMETER"},
		{"auth", &ercot.AuthenticationError{StatusCode: 401, Message: "bad creds"}, http.StatusUnauthorized, "AUTHENTICATION_ERROR"},
		{"upstream", &ercot.RequestError{Endpoint: "da_prices", StatusCode: 502, Message: "server error"}, http.StatusBadGateway, "API_REQUEST_ERROR"},
		{"normalization", &frame.NormalizationError{Endpoint: "da_prices", Reason: "no datetime"}, http.StatusUnprocessableEntity, "NORMALIZATION_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := testRouter(func(ctx context.Context, endpointName string, opts ercot.FetchOptions) (*frame.Frame, error) {
				return nil, tc.err
			})
			w := doJSON(t, router, http.MethodPost, "/api/v1/fetch",
				`{"endpoint":"da_prices","date_from":"2024-06-01"}`)
			assert.Equal(t, tc.wantCode, w.Code)
			assert.Equal(t, tc.wantTag, errorCode(t, w))
		})
	}
}

func TestNormalizeRoute(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/normalize", `{
		"endpoint": "da_prices",
		"fields": [{"name": "deliveryDate"}, {"name": "hourEnding"}, {"name": "settlementPointPrice"}],
		"data": [["2024-06-01", "02:00", 30.0], ["2024-06-01", "01:00", 20.0]]
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.FrameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Shape[0])
	assert.Contains(t, resp.Columns, frame.DatetimeColumn)
	assert.Contains(t, resp.Columns, "SettlementPointPrice")
}

func TestNormalizeRouteUnrecognizedShape(t *testing.T) {
	router := testRouter(nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/normalize", `{
		"endpoint": "mystery",
		"fields": [{"name": "foo"}],
		"data": [[1]]
	}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "NORMALIZATION_ERROR", errorCode(t, w))
}
