package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/precip-anomaly/internal/domain"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error     string `json:"error"`
	Parameter string `json:"parameter,omitempty"`
	Region    string `json:"region,omitempty"`
}

// seriesResponse is the chart-oriented shape returned when series=true.
type seriesResponse struct {
	Params       domain.Params         `json:"params"`
	Series       []domain.RegionSeries `json:"series"`
	Dropped      int                   `json:"dropped"`
	StatusCounts map[domain.Status]int `json:"status_counts"`
	ComputedAt   time.Time             `json:"computed_at"`
}

type regionsResponse struct {
	Regions        []domain.Region   `json:"regions"`
	DefaultRegions []string          `json:"default_regions"`
	AvailableYears *domain.YearRange `json:"available_years"`
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	params, asSeries, err := parseAnomalyQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.svc.Compute(r.Context(), params)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if asSeries {
		writeJSON(w, http.StatusOK, seriesResponse{
			Params:       result.Params,
			Series:       result.Series(),
			Dropped:      result.Dropped,
			StatusCounts: result.StatusCounts,
			ComputedAt:   result.ComputedAt,
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	resp := regionsResponse{
		Regions:        domain.Regions(),
		DefaultRegions: domain.DefaultRegions,
	}
	if span, ok := s.svc.AvailableYears(r.Context()); ok {
		resp.AvailableYears = &span
	}
	writeJSON(w, http.StatusOK, resp)
}

// parseAnomalyQuery reads request parameters, falling back to the defaults for
// any that are omitted.
func parseAnomalyQuery(q url.Values) (domain.Params, bool, error) {
	p := domain.DefaultParams()

	if v := strings.TrimSpace(q.Get("regions")); v != "" {
		p.Regions = strings.Split(v, ",")
	}
	if v := q.Get("years"); v != "" {
		years, err := domain.ParseYearRange(v)
		if err != nil {
			return domain.Params{}, false, &domain.InvalidParameterError{Param: "years", Reason: err.Error()}
		}
		p.Years = years
	}
	if v := q.Get("baseline"); v != "" {
		baseline, err := domain.ParseYearRange(v)
		if err != nil {
			return domain.Params{}, false, &domain.InvalidParameterError{Param: "baseline", Reason: err.Error()}
		}
		p.Baseline = baseline
	}
	if v := q.Get("window"); v != "" {
		window, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domain.Params{}, false, &domain.InvalidParameterError{Param: "window", Reason: "must be an integer number of days"}
		}
		p.Window = window
	}

	asSeries := false
	if v := q.Get("series"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return domain.Params{}, false, &domain.InvalidParameterError{Param: "series", Reason: "must be true or false"}
		}
		asSeries = b
	}
	return p, asSeries, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		perr *domain.InvalidParameterError
		derr *domain.DataUnavailableError
	)
	switch {
	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: perr.Error(), Parameter: perr.Param})
	case errors.As(err, &derr):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: derr.Error(), Region: derr.Region})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
