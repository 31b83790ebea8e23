// Package request parses path and query parameters shared by the handlers.
package request

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PathID parses the named chi URL parameter as a positive int64
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// IDList parses a comma separated list of ids. A missing parameter yields
// nil; a present but empty parameter yields an empty, non-nil slice.
func IDList(r *http.Request, name string) ([]int64, error) {
	values, ok := r.URL.Query()[name]
	if !ok {
		return nil, nil
	}

	ids := []int64{}
	for _, raw := range splitList(values) {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", name, raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// StringList parses a comma separated list with the same nil semantics as IDList
func StringList(r *http.Request, name string) []string {
	values, ok := r.URL.Query()[name]
	if !ok {
		return nil
	}
	return splitList(values)
}

func splitList(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
