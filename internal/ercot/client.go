package ercot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"ercot-mcp/internal/frame"
	"ercot-mcp/internal/logger"
)

// apiPage is the wire shape of one ERCOT public-reports page:
// column metadata in "fields", row tuples in "data", paging info in "_meta".
type apiPage struct {
	Fields []apiField `json:"fields"`
	Data   [][]any    `json:"data"`
	Meta   apiMeta    `json:"_meta"`
}

type apiField struct {
	Name string `json:"name"`
}

type apiMeta struct {
	TotalRecords int `json:"totalRecords"`
	PageSize     int `json:"pageSize"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// FetchOptions are the caller-facing parameters of a fetch. DateFrom is
// required; DateTo defaults to DateFrom. Extra parameters are validated
// against the endpoint's accepted set before any request is issued.
type FetchOptions struct {
	DateFrom        string
	DateTo          string
	SettlementPoint string
	ResourceType    string
	Size            int
	Extra           map[string]string
}

// Client issues paginated, authenticated requests against named ERCOT
// endpoints and returns normalized canonical frames.
type Client struct {
	auth       *AuthManager
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logger.Entry

	maxAttempts int
	backoffMin  time.Duration
	backoffMax  time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the HTTP client (tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRateLimit caps outbound request rate.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(cl *Client) { cl.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRetry bounds the transient-failure retry budget and backoff window.
func WithRetry(maxAttempts int, min, max time.Duration) ClientOption {
	return func(cl *Client) {
		cl.maxAttempts = maxAttempts
		cl.backoffMin = min
		cl.backoffMax = max
	}
}

// NewClient builds a client around an AuthManager.
func NewClient(auth *AuthManager, opts ...ClientOption) *Client {
	c := &Client{
		auth:        auth,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(5), 2),
		log:         logger.WithComponent("client"),
		maxAttempts: 3,
		backoffMin:  500 * time.Millisecond,
		backoffMax:  8 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchData pulls every matching row (up to the size cap) for the named
// endpoint, concatenating pages, then normalizes the result. Endpoint and
// parameter validation happen before any network I/O.
func (c *Client) FetchData(ctx context.Context, endpointName string, opts FetchOptions) (*frame.Frame, error) {
	spec, ok := GetEndpoint(endpointName)
	if !ok {
		return nil, &UnknownEndpointError{Name: endpointName}
	}
	if opts.DateFrom == "" {
		return nil, &InvalidParameterError{Endpoint: endpointName, Parameter: "date_from (required)"}
	}

	params, err := buildQueryParams(spec, opts)
	if err != nil {
		return nil, err
	}

	total := opts.Size
	if total <= 0 {
		total = spec.DefaultSize
	}
	pageSize := min(total, spec.DefaultSize)

	var (
		columns []string
		rows    []frame.Row
	)
	for page := 1; ; page++ {
		params.Set("size", strconv.Itoa(pageSize))
		params.Set("page", strconv.Itoa(page))

		resp, err := c.doRequest(ctx, spec, params)
		if err != nil {
			return nil, err
		}
		if len(resp.Fields) == 0 && len(resp.Data) > 0 {
			return nil, &RequestError{Endpoint: endpointName, StatusCode: http.StatusOK, Message: "response missing fields metadata"}
		}
		if columns == nil {
			columns = make([]string, len(resp.Fields))
			for i, f := range resp.Fields {
				columns[i] = f.Name
			}
		}
		for _, tuple := range resp.Data {
			row := make(frame.Row, len(columns))
			for i, col := range columns {
				if i < len(tuple) {
					row[col] = tuple[i]
				}
			}
			rows = append(rows, row)
			if len(rows) >= total {
				break
			}
		}

		if len(rows) >= total {
			break
		}
		if resp.Meta.TotalPages == 0 || page >= resp.Meta.TotalPages {
			break
		}
	}

	c.log.WithFields(logger.Fields{
		"endpoint": endpointName,
		"rows":     len(rows),
	}).Debug("fetched data")

	return frame.Normalize(endpointName, frame.New(columns, rows))
}

// buildQueryParams binds the date filter to the endpoint's date key and
// validates everything else against the endpoint's accepted parameter set.
func buildQueryParams(spec EndpointSpec, opts FetchOptions) (url.Values, error) {
	params := url.Values{}

	dateTo := opts.DateTo
	if dateTo == "" {
		dateTo = opts.DateFrom
	}
	params.Set(spec.DateKey+"From", opts.DateFrom)
	params.Set(spec.DateKey+"To", dateTo)

	if opts.SettlementPoint != "" {
		if !spec.HasParameter("settlementPoint") {
			return nil, &InvalidParameterError{Endpoint: spec.Name, Parameter: "settlementPoint"}
		}
		params.Set("settlementPoint", opts.SettlementPoint)
	}
	if opts.ResourceType != "" {
		if !spec.HasParameter("resourceType") {
			return nil, &InvalidParameterError{Endpoint: spec.Name, Parameter: "resourceType"}
		}
		params.Set("resourceType", opts.ResourceType)
	}
	for key, value := range opts.Extra {
		if !spec.HasParameter(key) {
			return nil, &InvalidParameterError{Endpoint: spec.Name, Parameter: key}
		}
		params.Set(key, value)
	}
	return params, nil
}

// doRequest performs one page request with the retry policy: transient
// failures (5xx, transport errors) retry with bounded exponential backoff; a
// 401 triggers exactly one forced token refresh; any other 4xx is fatal.
func (c *Client) doRequest(ctx context.Context, spec EndpointSpec, params url.Values) (*apiPage, error) {
	requestURL := spec.URL + "?" + params.Encode()

	cache := getCache()
	key := cacheKey(requestURL)
	if cached, ok := cache.get(key); ok {
		return cached, nil
	}

	bo := &backoff.Backoff{
		Min:    c.backoffMin,
		Max:    c.backoffMax,
		Factor: 2,
		Jitter: true,
	}
	refreshed := false

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		token, err := c.auth.Token(ctx)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request for %s: %w", spec.Name, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Ocp-Apim-Subscription-Key", c.auth.creds.SubscriptionKey)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.WithError(err).WithFields(logger.Fields{
				"endpoint": spec.Name,
				"attempt":  attempt,
			}).Warn("request failed")
			if attempt < c.maxAttempts {
				if err := sleepCtx(ctx, bo.Duration()); err != nil {
					return nil, err
				}
			}
			continue
		}

		page, status, err := readPage(resp)
		c.log.WithFields(logger.Fields{
			"endpoint": spec.Name,
			"status":   status,
			"duration": time.Since(start).String(),
		}).Debug("response received")

		switch {
		case status == http.StatusOK:
			if err != nil {
				return nil, fmt.Errorf("decode %s response: %w", spec.Name, err)
			}
			cache.set(key, page)
			return page, nil

		case status == http.StatusUnauthorized:
			if refreshed {
				return nil, &RequestError{Endpoint: spec.Name, StatusCode: status, Message: "still unauthorized after token refresh"}
			}
			refreshed = true
			if _, err := c.auth.Refresh(ctx); err != nil {
				return nil, err
			}
			// The forced refresh does not consume a retry attempt.
			attempt--

		case status >= 500:
			lastErr = &RequestError{Endpoint: spec.Name, StatusCode: status, Message: "server error"}
			if attempt < c.maxAttempts {
				if err := sleepCtx(ctx, bo.Duration()); err != nil {
					return nil, err
				}
			}

		default:
			return nil, &RequestError{Endpoint: spec.Name, StatusCode: status, Message: "request rejected"}
		}
	}

	if re, ok := lastErr.(*RequestError); ok {
		re.Message = fmt.Sprintf("%s (after %d attempts)", re.Message, c.maxAttempts)
		return nil, re
	}
	return nil, &RequestError{
		Endpoint: spec.Name,
		Message:  fmt.Sprintf("transport failure after %d attempts: %v", c.maxAttempts, lastErr),
	}
}

func readPage(resp *http.Response) (*apiPage, int, error) {
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, nil
	}
	var page apiPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, resp.StatusCode, err
	}
	return &page, resp.StatusCode, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
