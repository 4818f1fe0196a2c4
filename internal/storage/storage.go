package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"estatemetrics/internal/domain/models"
)

var (
	ErrMeetingNotFound = errors.New("meeting not found")
	ErrSettingNotFound = errors.New("setting not found")
	ErrUnknownDriver   = errors.New("unknown credentials driver")
)

// Credential slots. Each one is stored and expires on its own.
const (
	SlotAccessToken  = "access-token"
	SlotRefreshToken = "refresh-token"
	SlotExpiresAt    = "expires-at"
	SlotUser         = "user"
)

// Credentials is the persisted mirror of a session. Any field may be absent
// because the slots have different lifetimes.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	User         *models.User
}

func (c Credentials) IsZero() bool {
	return c.AccessToken == "" && c.RefreshToken == "" && c.ExpiresAt == 0 && c.User == nil
}

// TTLs bounds how long each slot survives. The user slot never expires.
type TTLs struct {
	AccessToken  time.Duration
	RefreshToken time.Duration
	ExpiresAt    time.Duration
}

func DefaultTTLs() TTLs {
	return TTLs{
		AccessToken:  15 * time.Minute,
		RefreshToken: 7 * 24 * time.Hour,
		ExpiresAt:    7 * 24 * time.Hour,
	}
}

// Slot is one encoded credential field ready to be written.
type Slot struct {
	Name  string
	Value string
	TTL   time.Duration // zero means no expiry
}

// Slots encodes c into its slots. Empty fields come back with an empty
// Value so drivers can delete them.
func Slots(c Credentials, ttl TTLs) ([]Slot, error) {
	const op = "storage.Slots"

	user, err := EncodeUser(c.User)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	expiresAt := ""
	if c.ExpiresAt != 0 {
		expiresAt = strconv.FormatInt(c.ExpiresAt, 10)
	}

	return []Slot{
		{Name: SlotAccessToken, Value: c.AccessToken, TTL: ttl.AccessToken},
		{Name: SlotRefreshToken, Value: c.RefreshToken, TTL: ttl.RefreshToken},
		{Name: SlotExpiresAt, Value: expiresAt, TTL: ttl.ExpiresAt},
		{Name: SlotUser, Value: user},
	}, nil
}

// Decode builds Credentials from raw slot values; missing keys stay zero.
func Decode(values map[string]string) (Credentials, error) {
	const op = "storage.Decode"

	c := Credentials{
		AccessToken:  values[SlotAccessToken],
		RefreshToken: values[SlotRefreshToken],
	}

	if v := values[SlotExpiresAt]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("%s: expires-at: %w", op, err)
		}
		c.ExpiresAt = n
	}

	user, err := DecodeUser(values[SlotUser])
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}
	c.User = user

	return c, nil
}

func EncodeUser(u *models.User) (string, error) {
	if u == nil {
		return "", nil
	}

	b, err := json.Marshal(u)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

func DecodeUser(s string) (*models.User, error) {
	if s == "" {
		return nil, nil
	}

	var u models.User
	if err := json.Unmarshal([]byte(s), &u); err != nil {
		return nil, fmt.Errorf("user: %w", err)
	}

	return &u, nil
}
