// Package calendar merges dated payments from the remote API with meetings
// kept locally.
package calendar

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/lib/logger/sl"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle      = errors.New("meeting title is required")
	ErrEmptyDate       = errors.New("meeting date is required")
	ErrInvalidPriority = errors.New("priority must be low, medium or high")
)

const (
	ColorIncome  = "positive"
	ColorExpense = "negative"
	ColorMeeting = "primary"
)

type MeetingStore interface {
	SaveMeeting(ctx context.Context, m models.Meeting) error
	DeleteMeeting(ctx context.Context, id string) error
	Meetings(ctx context.Context, from, to time.Time) ([]models.Meeting, error)
}

// Transactions lists the user's dated payments.
type Transactions interface {
	UserTransactions(ctx context.Context) ([]models.CalendarTransaction, error)
}

type Service struct {
	log          *slog.Logger
	meetings     MeetingStore
	transactions Transactions
}

func New(log *slog.Logger, meetings MeetingStore, transactions Transactions) *Service {
	return &Service{
		log:          log,
		meetings:     meetings,
		transactions: transactions,
	}
}

func (s *Service) CreateMeeting(ctx context.Context, req models.CreateMeetingRequest) (models.Meeting, error) {
	const op = "calendar.CreateMeeting"

	log := s.log.With(slog.String("op", op))

	m := models.Meeting{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Date:        req.Date.UTC(),
		Description: req.Description,
		Priority:    cmp.Or(req.Priority, models.PriorityMedium),
		AllDay:      req.AllDay,
	}

	switch {
	case m.Title == "":
		return models.Meeting{}, fmt.Errorf("%s: %w", op, ErrEmptyTitle)
	case req.Date.IsZero():
		return models.Meeting{}, fmt.Errorf("%s: %w", op, ErrEmptyDate)
	case !validPriority(m.Priority):
		return models.Meeting{}, fmt.Errorf("%s: %w", op, ErrInvalidPriority)
	}

	if err := s.meetings.SaveMeeting(ctx, m); err != nil {
		log.Error("failed to save meeting", sl.Err(err))
		return models.Meeting{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("meeting created", slog.String("meeting_id", m.ID))

	return m, nil
}

func validPriority(p string) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func (s *Service) DeleteMeeting(ctx context.Context, id string) error {
	const op = "calendar.DeleteMeeting"

	if err := s.meetings.DeleteMeeting(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MeetingsByDate returns the meetings on the UTC calendar day of day.
func (s *Service) MeetingsByDate(ctx context.Context, day time.Time) ([]models.Meeting, error) {
	const op = "calendar.MeetingsByDate"

	day = day.UTC()
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	meetings, err := s.meetings.Meetings(ctx, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return meetings, nil
}

// Items returns transactions and meetings dated in [from, to), ordered by date.
func (s *Service) Items(ctx context.Context, from, to time.Time) ([]models.CalendarItem, error) {
	const op = "calendar.Items"

	log := s.log.With(slog.String("op", op))

	txs, err := s.transactions.UserTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	meetings, err := s.meetings.Meetings(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items := make([]models.CalendarItem, 0, len(txs)+len(meetings))
	for _, tx := range txs {
		item, err := transactionItem(tx)
		if err != nil {
			log.Warn("skipping transaction with bad date", slog.Int64("transaction_id", tx.ID), sl.Err(err))
			continue
		}
		if item.Date.Before(from) || !item.Date.Before(to) {
			continue
		}
		items = append(items, item)
	}
	for _, m := range meetings {
		items = append(items, meetingItem(m))
	}

	slices.SortStableFunc(items, func(a, b models.CalendarItem) int {
		return a.Date.Compare(b.Date)
	})

	return items, nil
}

func transactionItem(tx models.CalendarTransaction) (models.CalendarItem, error) {
	date, err := time.Parse(time.DateOnly, tx.Date)
	if err != nil {
		return models.CalendarItem{}, err
	}

	income := tx.Direction == models.DirectionIncome
	color := ColorExpense
	if income {
		color = ColorIncome
	}

	return models.CalendarItem{
		ID:          "tx-" + strconv.FormatInt(tx.ID, 10) + "-" + tx.Date,
		Title:       cmp.Or(tx.TransactionTypeName, tx.Description, tx.EstateName, "Transaction"),
		Date:        date,
		Type:        models.CalendarSourceTransaction,
		Amount:      tx.Amount,
		Income:      income,
		Description: tx.Description,
		EstateID:    tx.EstateID,
		Color:       color,
		Source:      models.CalendarSourceTransaction,
	}, nil
}

func meetingItem(m models.Meeting) models.CalendarItem {
	return models.CalendarItem{
		ID:          m.ID,
		Title:       m.Title,
		Date:        m.Date,
		Type:        models.CalendarSourceMeeting,
		Description: m.Description,
		Color:       ColorMeeting,
		Priority:    m.Priority,
		AllDay:      m.AllDay,
		Source:      models.CalendarSourceMeeting,
	}
}
