package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/qforge/internal/domain"
	"github.com/phrazzld/qforge/internal/service"
)

// getPathID extracts a positive integer ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "must be a positive integer", domain.ErrValidation)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. A missing parameter
// yields zero.
func queryInt(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.NewValidationError(name, fmt.Sprintf("must be an integer, got %q", v), domain.ErrValidation)
	}
	return n, nil
}

// queryPagination reads the page and size query parameters. Out of range
// values are normalized by the service.
func queryPagination(q url.Values) (service.Pagination, error) {
	page, err := queryInt(q, "page")
	if err != nil {
		return service.Pagination{}, err
	}
	size, err := queryInt(q, "size")
	if err != nil {
		return service.Pagination{}, err
	}
	return service.Pagination{Page: page, Size: size}, nil
}
