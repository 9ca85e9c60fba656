package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"airwaves/internal/catalog"
	"airwaves/internal/services"
)

// MinYear is the earliest year the playlist archive covers.
const MinYear = 2000

// ValidateYear accepts years from MinYear through the current year.
func ValidateYear(year int, now time.Time) error {
	current := now.Year()
	if year < MinYear || year > current {
		return services.Public(services.ErrValidation,
			fmt.Sprintf("year must be an integer between %d and %d", MinYear, current))
	}
	return nil
}

// ParsePagination reads page and limit query values. Empty values take the
// defaults; limit is capped at catalog.MaxLimit.
func ParsePagination(pageValue, limitValue string) (page, limit int, err error) {
	page, limit = 1, catalog.DefaultLimit
	if v := strings.TrimSpace(pageValue); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, services.Public(services.ErrValidation, "page must be a positive integer")
		}
	}
	if v := strings.TrimSpace(limitValue); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, services.Public(services.ErrValidation, "limit must be a positive integer")
		}
	}
	if limit > catalog.MaxLimit {
		limit = catalog.MaxLimit
	}
	return page, limit, nil
}
