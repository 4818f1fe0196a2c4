// Package portfolio exposes the user's estates, their transactions and
// financial charts. Every call goes through the session gate.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/sl"
	"estatemetrics/internal/lib/validate"
	"estatemetrics/internal/services/session"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

var ErrInvalidDateRange = errors.New("date_start is after date_end")

type API interface {
	Estates(ctx context.Context, token string, userID int64) ([]models.Estate, error)
	Estate(ctx context.Context, token string, userID, estateID int64) (models.Estate, error)
	CreateEstate(ctx context.Context, token string, userID int64, req models.EstateRequest) (models.Estate, error)
	DeleteEstate(ctx context.Context, token string, estateID int64) error
	UserTransactions(ctx context.Context, token string, userID int64) (models.CalendarTransactionPage, error)
	EstateTransactions(ctx context.Context, token string, userID int64, filter models.TransactionFilter) (models.TransactionPage, error)
	AddTransaction(ctx context.Context, token string, tx models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, token string, id int64) error
	EstateValues(ctx context.Context, token string, userID, estateID int64, filter models.ValuesFilter) (models.ChartData, error)
}

// Gate runs a call with a valid session.
type Gate interface {
	Call(ctx context.Context, fn func(ctx context.Context, s session.Snapshot) error) error
}

type Service struct {
	log  *slog.Logger
	api  API
	gate Gate
}

func New(log *slog.Logger, api API, gate Gate) *Service {
	return &Service{
		log:  log,
		api:  api,
		gate: gate,
	}
}

func (s *Service) Estates(ctx context.Context) ([]models.Estate, error) {
	const op = "portfolio.Estates"

	var estates []models.Estate
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		var err error
		estates, err = s.api.Estates(ctx, snap.AccessToken, snap.User.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return estates, nil
}

func (s *Service) Estate(ctx context.Context, id int64) (models.Estate, error) {
	const op = "portfolio.Estate"

	var estate models.Estate
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		var err error
		estate, err = s.api.Estate(ctx, snap.AccessToken, snap.User.ID, id)
		return err
	})
	if err != nil {
		return models.Estate{}, fmt.Errorf("%s: %w", op, err)
	}

	return estate, nil
}

func (s *Service) CreateEstate(ctx context.Context, req models.EstateRequest) (models.Estate, error) {
	const op = "portfolio.CreateEstate"

	log := s.log.With(
		slog.String("op", op),
		slog.String("name", req.Name),
	)

	if err := validate.Estate(req); err != nil {
		return models.Estate{}, fmt.Errorf("%s: %w", op, err)
	}

	var estate models.Estate
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		var err error
		estate, err = s.api.CreateEstate(ctx, snap.AccessToken, snap.User.ID, req)
		return err
	})
	if err != nil {
		log.Warn("failed to create estate", sl.Err(err))
		return models.Estate{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("estate created", slog.Int64("estate_id", estate.ID))

	return estate, nil
}

func (s *Service) DeleteEstate(ctx context.Context, id int64) error {
	const op = "portfolio.DeleteEstate"

	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		return s.api.DeleteEstate(ctx, snap.AccessToken, id)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.With(slog.String("op", op)).Info("estate deleted", slog.Int64("estate_id", id))

	return nil
}

// UserTransactions lists the dated payments of every estate the user owns.
func (s *Service) UserTransactions(ctx context.Context) ([]models.CalendarTransaction, error) {
	const op = "portfolio.UserTransactions"

	var page models.CalendarTransactionPage
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		var err error
		page, err = s.api.UserTransactions(ctx, snap.AccessToken, snap.User.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if page.Data == nil {
		return []models.CalendarTransaction{}, nil
	}

	return page.Data, nil
}

// EstateTransactions returns one page of an estate's transactions. Unset
// paging falls back to page 1 of 10.
func (s *Service) EstateTransactions(ctx context.Context, estateID int64, filter models.TransactionFilter) (models.TransactionPage, error) {
	const op = "portfolio.EstateTransactions"

	filter.EstateID = estateID
	if filter.Page <= 0 {
		filter.Page = DefaultPage
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultLimit
	}

	var page models.TransactionPage
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		if snap.User.ID == 0 {
			page = emptyPage(filter)
			return nil
		}

		var err error
		page, err = s.api.EstateTransactions(ctx, snap.AccessToken, snap.User.ID, filter)
		return err
	})
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	if page.Data == nil {
		page.Data = []models.Transaction{}
	}

	return page, nil
}

func emptyPage(filter models.TransactionFilter) models.TransactionPage {
	return models.TransactionPage{
		Data: []models.Transaction{},
		Pagination: models.Pagination{
			Page:     filter.Page,
			PageSize: filter.Limit,
		},
	}
}

// AddTransaction records tx and returns the estate's first page reloaded.
func (s *Service) AddTransaction(ctx context.Context, tx models.Transaction) (models.TransactionPage, error) {
	const op = "portfolio.AddTransaction"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("estate_id", tx.EstateID),
	)

	if err := validate.Transaction(tx); err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		_, err := s.api.AddTransaction(ctx, snap.AccessToken, tx)
		return err
	})
	if err != nil {
		log.Warn("failed to add transaction", sl.Err(err))
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("transaction added")

	page, err := s.EstateTransactions(ctx, tx.EstateID, models.TransactionFilter{})
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// DeleteTransaction removes a transaction and returns the estate's first page reloaded.
func (s *Service) DeleteTransaction(ctx context.Context, estateID, transactionID int64) (models.TransactionPage, error) {
	const op = "portfolio.DeleteTransaction"

	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		return s.api.DeleteTransaction(ctx, snap.AccessToken, transactionID)
	})
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.With(slog.String("op", op)).Info("transaction deleted", slog.Int64("transaction_id", transactionID))

	page, err := s.EstateTransactions(ctx, estateID, models.TransactionFilter{})
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// FinancialStats returns the monthly chart of an estate between two
// YYYY-MM-DD dates.
func (s *Service) FinancialStats(ctx context.Context, estateID int64, start, end string) (models.ChartData, error) {
	const op = "portfolio.FinancialStats"

	if start != "" && end != "" && start > end {
		return models.ChartData{}, fmt.Errorf("%s: %w", op, ErrInvalidDateRange)
	}

	var data models.ChartData
	err := s.gate.Call(ctx, func(ctx context.Context, snap session.Snapshot) error {
		var err error
		data, err = s.api.EstateValues(ctx, snap.AccessToken, snap.User.ID, estateID, models.ValuesFilter{
			DateStart: start,
			DateEnd:   end,
		})
		return err
	})
	if err != nil {
		return models.ChartData{}, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}
