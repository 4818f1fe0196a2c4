package redis

import (
	"context"
	"errors"
	"fmt"

	"estatemetrics/internal/storage"

	"github.com/redis/go-redis/v9"
)

// Storage keeps each credential slot under its own key and lets redis
// expire them.
type Storage struct {
	rdb       redis.UniversalClient
	ttl       storage.TTLs
	namespace string
}

func New(rdb redis.UniversalClient, ttl storage.TTLs, namespace string) *Storage {
	if namespace == "" {
		namespace = "estatemetrics"
	}
	return &Storage{rdb: rdb, ttl: ttl, namespace: namespace}
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}

func (s *Storage) key(slot string) string {
	return s.namespace + ":credentials:" + slot
}

func (s *Storage) keys() []string {
	return []string{
		s.key(storage.SlotAccessToken),
		s.key(storage.SlotRefreshToken),
		s.key(storage.SlotExpiresAt),
		s.key(storage.SlotUser),
	}
}

func (s *Storage) Credentials(ctx context.Context) (storage.Credentials, error) {
	const op = "storage.redis.Credentials"

	names := []string{storage.SlotAccessToken, storage.SlotRefreshToken, storage.SlotExpiresAt, storage.SlotUser}

	vals, err := s.rdb.MGet(ctx, s.keys()...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	values := make(map[string]string, len(names))
	for i, v := range vals {
		if str, ok := v.(string); ok {
			values[names[i]] = str
		}
	}

	c, err := storage.Decode(values)
	if err != nil {
		return storage.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

// Persist writes every slot in one MULTI/EXEC.
func (s *Storage) Persist(ctx context.Context, c storage.Credentials) error {
	const op = "storage.redis.Persist"

	slots, err := storage.Slots(c, s.ttl)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, slot := range slots {
			if slot.Value == "" {
				pipe.Del(ctx, s.key(slot.Name))
				continue
			}
			pipe.Set(ctx, s.key(slot.Name), slot.Value, slot.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	const op = "storage.redis.Clear"

	if err := s.rdb.Del(ctx, s.keys()...).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
