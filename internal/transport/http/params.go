package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apierrors "investlens/internal/errors"
	"investlens/internal/middleware"
	"investlens/pkg/contracts/domain"
)

// Query parameter names of the dashboard selection
const (
	paramYear     = "year"
	paramAgeGroup = "age_group"
	paramLand     = "land"
)

var errUnknownAgeGroup = errors.New("not a known age group")

// queryList returns the non-blank values of key and whether key was sent at
// all. Repeated keys are concatenated; with splitCommas each value is also
// split on commas. Land type names may contain commas, so only age groups
// accept the comma form.
func queryList(q url.Values, key string, splitCommas bool) ([]string, bool) {
	raw, ok := q[key]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		parts := []string{v}
		if splitCommas {
			parts = strings.Split(v, ",")
		}
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out, true
}

// parseFilterParams reads the selection from the query string. A parameter
// that is absent takes its value from defaults; one that is present but
// empty selects nothing.
func parseFilterParams(r *http.Request, defaults domain.FilterParams, v *middleware.Validator) (domain.FilterParams, error) {
	q := r.URL.Query()
	params := domain.FilterParams{
		Year:      defaults.Year,
		AgeGroups: defaults.AgeGroups,
		LandTypes: defaults.LandTypes,
	}

	if raw := strings.TrimSpace(q.Get(paramYear)); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return params, apierrors.InvalidParameter(paramYear, raw, err)
		}
		params.Year = year
	}

	if labels, ok := queryList(q, paramAgeGroup, true); ok {
		params.AgeGroups = make([]domain.AgeGroup, 0, len(labels))
		seen := make(map[domain.AgeGroup]bool, len(labels))
		for _, label := range labels {
			g, ok := domain.ParseAgeGroup(label)
			if !ok {
				// an unencoded "70+" arrives as "70 "
				g, ok = domain.ParseAgeGroup(label + "+")
			}
			if !ok {
				return params, apierrors.InvalidParameter(paramAgeGroup, label, errUnknownAgeGroup)
			}
			if !seen[g] {
				seen[g] = true
				params.AgeGroups = append(params.AgeGroups, g)
			}
		}
	}

	if lands, ok := queryList(q, paramLand, false); ok {
		params.LandTypes = lands
	}

	if apiErr := v.Struct(params); apiErr != nil {
		return params, apiErr
	}
	return params, nil
}
