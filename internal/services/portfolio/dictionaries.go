package portfolio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/services/session"

	"golang.org/x/sync/errgroup"
)

type DictionaryAPI interface {
	EstateTypes(ctx context.Context, token string) ([]models.EstateType, error)
	TransactionTypes(ctx context.Context, token string) ([]models.TransactionType, error)
	TransactionFrequencies(ctx context.Context, token string) ([]models.Frequency, error)
	RepaymentPlans(ctx context.Context, token string) ([]models.Frequency, error)
}

// Authorizer hands out the current session, if there is one.
type Authorizer interface {
	Authorize(ctx context.Context) (session.Snapshot, error)
}

// Dictionaries caches the reference lists. They are public, so a missing
// session only means no bearer token is sent.
type Dictionaries struct {
	log      *slog.Logger
	api      DictionaryAPI
	sessions Authorizer

	mu                     sync.RWMutex
	loaded                 bool
	estateTypes            []models.EstateType
	transactionTypes       []models.TransactionType
	transactionFrequencies []models.Frequency
	repaymentPlans         []models.Frequency
}

func NewDictionaries(log *slog.Logger, api DictionaryAPI, sessions Authorizer) *Dictionaries {
	return &Dictionaries{
		log:      log,
		api:      api,
		sessions: sessions,
	}
}

// Init loads all four lists concurrently. Once it has succeeded further
// calls are no-ops; a failed load is retried by the next call.
func (d *Dictionaries) Init(ctx context.Context) error {
	const op = "portfolio.Dictionaries.Init"

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.loaded {
		return nil
	}

	token := ""
	if s, err := d.sessions.Authorize(ctx); err == nil {
		token = s.AccessToken
	}

	var (
		estateTypes      []models.EstateType
		transactionTypes []models.TransactionType
		frequencies      []models.Frequency
		repaymentPlans   []models.Frequency
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		estateTypes, err = d.api.EstateTypes(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		transactionTypes, err = d.api.TransactionTypes(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		frequencies, err = d.api.TransactionFrequencies(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		repaymentPlans, err = d.api.RepaymentPlans(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	d.estateTypes = estateTypes
	d.transactionTypes = transactionTypes
	d.transactionFrequencies = frequencies
	d.repaymentPlans = repaymentPlans
	d.loaded = true

	d.log.With(slog.String("op", op)).Debug("dictionaries loaded")

	return nil
}

func (d *Dictionaries) IsLoaded() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.loaded
}

func (d *Dictionaries) EstateTypes() []models.EstateType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.EstateType(nil), d.estateTypes...)
}

func (d *Dictionaries) TransactionTypes() []models.TransactionType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.TransactionType(nil), d.transactionTypes...)
}

// TransactionTypesFor narrows the transaction types to one direction and regularity.
func (d *Dictionaries) TransactionTypesFor(direction, regularity int) []models.TransactionType {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.TransactionType
	for _, t := range d.transactionTypes {
		if t.Direction == direction && t.Regularity == regularity {
			out = append(out, t)
		}
	}
	return out
}

func (d *Dictionaries) TransactionFrequencies() []models.Frequency {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.Frequency(nil), d.transactionFrequencies...)
}

func (d *Dictionaries) RepaymentPlans() []models.Frequency {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return append([]models.Frequency(nil), d.repaymentPlans...)
}

func (d *Dictionaries) EstateType(id int64) (models.EstateType, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, t := range d.estateTypes {
		if t.ID == id {
			return t, true
		}
	}
	return models.EstateType{}, false
}

func (d *Dictionaries) EstateTypeOptions() []models.EstateTypeOption {
	d.mu.RLock()
	defer d.mu.RUnlock()

	opts := make([]models.EstateTypeOption, 0, len(d.estateTypes))
	for _, t := range d.estateTypes {
		opts = append(opts, models.EstateTypeOption{Label: t.Name, Value: t.ID, Icon: t.Icon})
	}
	return opts
}
