package httputil

import (
	"net/http"
	"strings"
)

// ParseQueryList splits a comma separated query parameter, dropping empty items.
// Repeated parameters are concatenated.
func ParseQueryList(r *http.Request, key string) []string {
	var out []string
	for _, raw := range r.URL.Query()[key] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
