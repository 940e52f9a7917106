package http

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, errs := ParseTransactionBody(r, s.maxAmountCents)
	if len(errs) > 0 {
		ValidationError(errs).Write(w)
		return
	}

	created, err := s.store.Insert(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Create transaction failed", applog.FieldError, err)
		InternalServerError("Failed to create transaction").Write(w)
		return
	}

	s.publishEvent(r.Context(), "created", created.ID)

	NewResponse().
		Status(http.StatusCreated).
		Message("Transaction created successfully").
		Data(formatTransaction(created)).
		Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	page, perrs := ParseListQuery(r)
	filter, ferrs := ParseFilters(r, true)
	if errs := append(perrs, ferrs...); len(errs) > 0 {
		ValidationError(errs).Write(w)
		return
	}

	var (
		transactions []core.Transaction
		total        int64
		summary      core.Summary
	)

	// The page, the matching count and the filtered summary are independent
	// reads over the same predicate, so fan them out.
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		transactions, err = s.store.List(ctx, filter, int(page.Page), int(page.Limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = s.store.Summary(ctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(r.Context(), "List transactions failed", applog.FieldError, err)
		InternalServerError("Failed to fetch transactions").Write(w)
		return
	}

	NewResponse().
		Message("Transactions fetched successfully").
		Data(map[string]any{
			"transactions": formatTransactions(transactions),
			"total":        total,
			"summary":      formatSummary(summary),
			"pagination": PaginationResponse{
				Current: page.Page,
				Pages:   totalPages(total, page.Limit),
				Limit:   page.Limit,
			},
		}).
		Filters(echoQuery(r, "type", "category", "startDate", "endDate")).
		Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !core.ValidID(id) {
		BadRequestError("Invalid transaction ID format").Write(w)
		return
	}

	tx, err := s.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Get transaction failed", "id", id, applog.FieldError, err)
		InternalServerError("Failed to fetch transaction").Write(w)
		return
	}

	NewResponse().
		Message("Transaction fetched successfully").
		Data(formatTransaction(tx)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !core.ValidID(id) {
		BadRequestError("Invalid transaction ID format").Write(w)
		return
	}

	tx, errs := ParseTransactionBody(r, s.maxAmountCents)
	if len(errs) > 0 {
		ValidationError(errs).Write(w)
		return
	}

	updated, err := s.store.Replace(r.Context(), id, tx)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Update transaction failed", "id", id, applog.FieldError, err)
		InternalServerError("Failed to update transaction").Write(w)
		return
	}

	s.publishEvent(r.Context(), "updated", id)

	NewResponse().
		Message("Transaction updated successfully").
		Data(formatTransaction(updated)).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !core.ValidID(id) {
		BadRequestError("Invalid transaction ID format").Write(w)
		return
	}

	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		NotFoundError("Transaction not found").Write(w)
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Delete transaction failed", "id", id, applog.FieldError, err)
		InternalServerError("Failed to delete transaction").Write(w)
		return
	}

	s.publishEvent(r.Context(), "deleted", id)

	NewResponse().
		Message("Transaction deleted successfully").
		Data(map[string]string{"id": id}).
		Write(w)
}
