package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	err := WriteJSON(rr, http.StatusAccepted, map[string]string{"section": "installation"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"section":"installation"}`, rr.Body.String())
}

func TestWriteErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(w http.ResponseWriter)
		status int
		msg    string
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "bad") }, http.StatusBadRequest, "bad"},
		{"not found", func(w http.ResponseWriter) { WriteNotFoundError(w, "nope") }, http.StatusNotFound, "nope"},
		{"method", func(w http.ResponseWriter) { WriteMethodNotAllowed(w, "GET only") }, http.StatusMethodNotAllowed, "GET only"},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, errors.New("boom")) }, http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			rr.Header().Set(RequestIDHeader, "req-1")
			tt.write(rr)

			assert.Equal(t, tt.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.msg, resp.Error)
			assert.Equal(t, "req-1", resp.RequestID)
		})
	}
}

func TestWriteJSONOrError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSONOrError(rr, http.StatusOK, []int{1, 2}, "encode failed")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[1,2]`, rr.Body.String())
}
