package http

import (
	"net/http"
	"strconv"
	"time"

	"opatam/pkg/config"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/model"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = int64(v)
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// QueryDate parses a YYYY-MM-DD query parameter as midnight in loc. ok is false
// when the parameter is absent.
func QueryDate(r *http.Request, name string, loc *time.Location) (date time.Time, ok bool, err error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, false, nil
	}
	date, err = time.ParseInLocation(model.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidInput("invalid " + name + " parameter, expected YYYY-MM-DD: " + s)
	}
	return date, true, nil
}

func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return v, nil
}

// QueryTime parses an RFC 3339 query parameter. ok is false when the parameter
// is absent.
func QueryTime(r *http.Request, name string) (t time.Time, ok bool, err error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, apperrors.InvalidInput("invalid " + name + " parameter, must be RFC3339: " + s)
	}
	return t, true, nil
}
