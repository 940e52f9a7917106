package http

import (
	"net/http"

	applog "fintrack/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	filter, errs := ParseFilters(r, true)
	if len(errs) > 0 {
		ValidationError(errs).Write(w)
		return
	}

	summary, err := s.store.Summary(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary aggregation failed", applog.FieldError, err)
		InternalServerError("Failed to fetch summary").Write(w)
		return
	}

	NewResponse().
		Message("Summary fetched successfully").
		Data(formatSummary(summary)).
		Filters(echoQuery(r, "type", "category", "startDate", "endDate")).
		Write(w)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	filter, errs := ParseFilters(r, false)
	if len(errs) > 0 {
		ValidationError(errs).Write(w)
		return
	}

	breakdown, err := s.store.Breakdown(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category breakdown failed", applog.FieldError, err)
		InternalServerError("Failed to fetch category breakdown").Write(w)
		return
	}

	NewResponse().
		Message("Category breakdown fetched successfully").
		Data(formatBreakdown(breakdown)).
		Filters(echoQuery(r, "type", "startDate", "endDate")).
		Write(w)
}
