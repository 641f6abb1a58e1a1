package api

import "github.com/noahsabaj/hearth-docs/pkg/history"

// HistoryResponse is the body of GET /api/v1/history/{section}.
// Record is null when the section is unknown.
type HistoryResponse struct {
	Section string          `json:"section"`
	Record  *history.Record `json:"record"`
}

// HistoryListResponse is the body of GET /api/v1/history
type HistoryListResponse struct {
	Sections []HistoryResponse `json:"sections"`
	Count    int               `json:"count"`
}
