package devapi

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"estatemetrics/internal/domain/models"
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrEstateNotFound     = errors.New("estate not found")
	ErrTransactionMissing = errors.New("transaction not found")
)

type Account struct {
	models.User
	PassHash []byte
}

type Session struct {
	AccountID    int64
	RefreshToken string
	ExpiresAt    time.Time
}

// Store keeps everything in memory.
type Store struct {
	mu sync.RWMutex

	nextID       int64
	accounts     map[int64]*Account
	sessions     map[string]Session
	estates      map[int64]*models.Estate
	transactions map[int64]*models.Transaction
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[int64]*Account),
		sessions:     make(map[string]Session),
		estates:      make(map[int64]*models.Estate),
		transactions: make(map[int64]*models.Transaction),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) SaveAccount(_ context.Context, email, name string, passHash []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.accounts {
		if a.Email == email {
			return 0, ErrAccountExists
		}
	}

	id := s.id()
	s.accounts[id] = &Account{
		User:     models.User{ID: id, Email: email, Name: name},
		PassHash: passHash,
	}

	return id, nil
}

func (s *Store) AccountByEmail(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range s.accounts {
		if a.Email == email {
			return *a, nil
		}
	}

	return Account{}, ErrAccountNotFound
}

func (s *Store) AccountByID(_ context.Context, id int64) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}

	return *a, nil
}

func (s *Store) Accounts(_ context.Context) []models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.User)
	}
	slices.SortFunc(users, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })

	return users
}

func (s *Store) UpdateProfile(_ context.Context, id int64, req models.UpdateProfileRequest) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return models.User{}, ErrAccountNotFound
	}
	a.User = a.User.Merge(req)

	return a.User, nil
}

func (s *Store) UpdatePassword(_ context.Context, id int64, passHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrAccountNotFound
	}
	a.PassHash = passHash

	return nil
}

func (s *Store) SaveSession(_ context.Context, accountID int64, refreshToken string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[refreshToken] = Session{AccountID: accountID, RefreshToken: refreshToken, ExpiresAt: expiresAt}

	return nil
}

// TakeSession removes and returns the session for refreshToken, so each
// refresh token can be exchanged once.
func (s *Store) TakeSession(_ context.Context, refreshToken string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[refreshToken]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	delete(s.sessions, refreshToken)

	return sess, nil
}

func (s *Store) RevokeSessions(_ context.Context, accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, sess := range s.sessions {
		if sess.AccountID == accountID {
			delete(s.sessions, token)
		}
	}
}

func (s *Store) SaveEstate(_ context.Context, e models.Estate) models.Estate {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.id()
	s.estates[e.ID] = &e

	return e
}

func (s *Store) Estate(_ context.Context, id int64) (models.Estate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.estates[id]
	if !ok {
		return models.Estate{}, ErrEstateNotFound
	}

	return *e, nil
}

func (s *Store) Estates(_ context.Context, userID int64) []models.Estate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	estates := []models.Estate{}
	for _, e := range s.estates {
		if e.UserID == userID {
			estates = append(estates, *e)
		}
	}
	slices.SortFunc(estates, func(a, b models.Estate) int { return cmp.Compare(a.ID, b.ID) })

	return estates
}

// DeleteEstate removes the estate and its transactions.
func (s *Store) DeleteEstate(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.estates[id]; !ok {
		return ErrEstateNotFound
	}
	delete(s.estates, id)

	for tid, tx := range s.transactions {
		if tx.EstateID == id {
			delete(s.transactions, tid)
		}
	}

	return nil
}

func (s *Store) SaveTransaction(_ context.Context, tx models.Transaction) models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = s.id()
	s.transactions[tx.ID] = &tx

	return tx
}

func (s *Store) Transaction(_ context.Context, id int64) (models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return models.Transaction{}, ErrTransactionMissing
	}

	return *tx, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return ErrTransactionMissing
	}
	delete(s.transactions, id)

	return nil
}

// Transactions returns the transactions of the given estates ordered by id.
func (s *Store) Transactions(_ context.Context, estateIDs ...int64) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Transaction
	for _, tx := range s.transactions {
		if slices.Contains(estateIDs, tx.EstateID) {
			out = append(out, *tx)
		}
	}
	slices.SortFunc(out, func(a, b models.Transaction) int { return cmp.Compare(a.ID, b.ID) })

	return out
}
