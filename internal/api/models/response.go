package models

import (
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/frame"
)

// maxResponseRows bounds how many rows a frame response embeds; larger
// results report their true shape but return a truncated sample.
const maxResponseRows = 1000

// FrameResponse is the JSON rendering of a canonical data frame.
type FrameResponse struct {
	Shape   [2]int           `json:"shape"`
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	Warning string           `json:"warning,omitempty"`
}

// NewFrameResponse converts a frame, truncating oversized row sets.
func NewFrameResponse(f *frame.Frame) FrameResponse {
	resp := FrameResponse{
		Shape:   [2]int{f.Len(), len(f.Columns)},
		Columns: append([]string(nil), f.Columns...),
		Data:    make([]map[string]any, 0, min(f.Len(), maxResponseRows)),
	}
	for i, r := range f.Rows {
		if i == maxResponseRows {
			resp.Warning = "row set truncated"
			break
		}
		resp.Data = append(resp.Data, map[string]any(r))
	}
	return resp
}

// EndpointListResponse lists catalog entries, optionally restricted to one
// category.
type EndpointListResponse struct {
	Count     int                  `json:"count"`
	Category  string               `json:"category,omitempty"`
	Endpoints []ercot.EndpointSpec `json:"endpoints"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code plus a human message.
type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
