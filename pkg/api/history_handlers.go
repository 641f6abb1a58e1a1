package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/noahsabaj/hearth-docs/pkg/history"
	"github.com/noahsabaj/hearth-docs/pkg/httputil"
	"github.com/noahsabaj/hearth-docs/pkg/observability"
	"golang.org/x/sync/errgroup"
)

// listConcurrency bounds in-flight lookups for one list request
const listConcurrency = 8

// HistoryHandlers serves section history
type HistoryHandlers struct {
	table    *history.Table
	resolver *history.Resolver
}

// NewHistoryHandlers creates history handlers
func NewHistoryHandlers(table *history.Table, resolver *history.Resolver) *HistoryHandlers {
	return &HistoryHandlers{
		table:    table,
		resolver: resolver,
	}
}

// RegisterRoutes registers history routes
func (h *HistoryHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/history", h.listHistory).Methods(http.MethodGet)
	// {section:.*} so that an empty id reaches the handler and resolves to null
	router.HandleFunc("/api/v1/history/{section:.*}", h.getHistory).Methods(http.MethodGet)
}

// listHistory handles GET /api/v1/history.
// Sections resolve concurrently through the configured source, so the list
// agrees with the single-section endpoint.
func (h *HistoryHandlers) listHistory(w http.ResponseWriter, r *http.Request) {
	ids := httputil.ParseQueryList(r, "sections")
	if len(ids) == 0 {
		ids = h.table.Sections()
	}

	items := make([]HistoryResponse, len(ids))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(listConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			rec, err := h.resolver.Resolve(observability.WithSection(ctx, id), id)
			if err != nil {
				return err
			}
			items[i] = HistoryResponse{Section: id, Record: rec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		observability.FromContext(r.Context()).WithError(err).Debug("history list request cancelled")
		return
	}

	httputil.WriteJSONOrError(w, http.StatusOK, HistoryListResponse{
		Sections: items,
		Count:    len(items),
	}, "failed to encode history")
}

// getHistory handles GET /api/v1/history/{section}
func (h *HistoryHandlers) getHistory(w http.ResponseWriter, r *http.Request) {
	section := mux.Vars(r)["section"]
	ctx := observability.WithSection(r.Context(), section)

	rec, err := h.resolver.Resolve(ctx, section)
	if err != nil {
		// The client went away; nothing is delivered for an abandoned request
		observability.FromContext(ctx).WithError(err).Debug("history request cancelled")
		return
	}

	httputil.WriteJSONOrError(w, http.StatusOK, HistoryResponse{
		Section: section,
		Record:  rec,
	}, "failed to encode history")
}
