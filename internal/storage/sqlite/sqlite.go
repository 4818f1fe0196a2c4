// Migrations are embedded and applied by Migrate; cmd/migrator applies them from disk:
// go run ./cmd/migrator --storage-path=./storage/estatemetrics.db --migrations-path=./migrations
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"estatemetrics/internal/domain/models"
	"estatemetrics/internal/storage"
	"estatemetrics/migrations"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

type Storage struct {
	db        *sql.DB
	ttl       storage.TTLs
	namespace string
	now       func() time.Time
}

func New(storagePath string, ttl storage.TTLs, namespace string) (*Storage, error) {
	const op = "storage.sqlite.New"

	db, err := sql.Open("sqlite3", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db, ttl: ttl, namespace: namespace, now: time.Now}, nil
}

// WithClock replaces the clock used for slot expiry.
func (s *Storage) WithClock(now func() time.Time) *Storage {
	s.now = now
	return s
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. It is safe to run on every start.
func (s *Storage) Migrate() error {
	const op = "storage.sqlite.Migrate"

	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer src.Close()

	drv, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// The database driver is not closed here: it would close s.db.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) key(slot string) string {
	if s.namespace == "" {
		return slot
	}
	return s.namespace + ":" + slot
}

func (s *Storage) Credentials(ctx context.Context) (storage.Credentials, error) {
	const op = "storage.sqlite.Credentials"

	now := s.now().UnixMilli()

	// Expired slots read as absent; purge them while we are here.
	if _, err := s.db.ExecContext(ctx, "DELETE FROM credentials WHERE expires_at IS NOT NULL AND expires_at <= ?", now); err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare("SELECT slot, value FROM credentials WHERE slot IN (?, ?, ?, ?)")
	if err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx,
		s.key(storage.SlotAccessToken),
		s.key(storage.SlotRefreshToken),
		s.key(storage.SlotExpiresAt),
		s.key(storage.SlotUser),
	)
	if err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	values := make(map[string]string, 4)
	for rows.Next() {
		var slot, value string
		if err := rows.Scan(&slot, &value); err != nil {
			return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
		}
		values[s.unkey(slot)] = value
	}
	if err := rows.Err(); err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	c, err := storage.Decode(values)
	if err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (s *Storage) unkey(slot string) string {
	if s.namespace == "" {
		return slot
	}
	return slot[len(s.namespace)+1:]
}

// Persist writes every slot of c in one transaction.
func (s *Storage) Persist(ctx context.Context, c storage.Credentials) error {
	const op = "storage.sqlite.Persist"

	slots, err := storage.Slots(c, s.ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := s.now()
	for _, slot := range slots {
		if slot.Value == "" {
			if _, err := tx.ExecContext(ctx, "DELETE FROM credentials WHERE slot = ?", s.key(slot.Name)); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			continue
		}

		var expiresAt sql.NullInt64
		if slot.TTL > 0 {
			expiresAt = sql.NullInt64{Int64: now.Add(slot.TTL).UnixMilli(), Valid: true}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (slot, value, expires_at)
			VALUES (?, ?, ?)
			ON CONFLICT(slot) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
		`, s.key(slot.Name), slot.Value, expiresAt)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	const op = "storage.sqlite.Clear"

	stmt, err := s.db.Prepare("DELETE FROM credentials WHERE slot IN (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		s.key(storage.SlotAccessToken),
		s.key(storage.SlotRefreshToken),
		s.key(storage.SlotExpiresAt),
		s.key(storage.SlotUser),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) SaveMeeting(ctx context.Context, m models.Meeting) error {
	const op = "storage.sqlite.SaveMeeting"

	stmt, err := s.db.Prepare(`
		INSERT INTO meetings (id, title, date, description, priority, all_day)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, m.ID, m.Title, m.Date.UTC().Unix(), m.Description, m.Priority, m.AllDay)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteMeeting(ctx context.Context, id string) error {
	const op = "storage.sqlite.DeleteMeeting"

	stmt, err := s.db.Prepare("DELETE FROM meetings WHERE id = ?")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	res, err := stmt.ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrMeetingNotFound)
	}

	return nil
}

// Meetings returns meetings with from <= date < to, ordered by date.
func (s *Storage) Meetings(ctx context.Context, from, to time.Time) ([]models.Meeting, error) {
	const op = "storage.sqlite.Meetings"

	stmt, err := s.db.Prepare(`
		SELECT id, title, date, description, priority, all_day
		FROM meetings WHERE date >= ? AND date < ? ORDER BY date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, from.UTC().Unix(), to.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var meetings []models.Meeting
	for rows.Next() {
		var (
			m    models.Meeting
			date int64
		)
		if err := rows.Scan(&m.ID, &m.Title, &date, &m.Description, &m.Priority, &m.AllDay); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.Date = time.Unix(date, 0).UTC()
		meetings = append(meetings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return meetings, nil
}

func (s *Storage) Setting(ctx context.Context, key string) (string, error) {
	const op = "storage.sqlite.Setting"

	stmt, err := s.db.Prepare("SELECT value FROM settings WHERE key = ?")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	var value string
	err = stmt.QueryRowContext(ctx, s.key(key)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrSettingNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value, nil
}

func (s *Storage) SaveSetting(ctx context.Context, key, value string) error {
	const op = "storage.sqlite.SaveSetting"

	stmt, err := s.db.Prepare(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, s.key(key), value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
