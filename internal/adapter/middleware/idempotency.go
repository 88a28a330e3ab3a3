package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// KeyStore persists responses by idempotency key.
type KeyStore interface {
	Lookup(ctx context.Context, key string) (status int, body []byte, ok bool, err error)
	Save(ctx context.Context, key string, status int, body []byte) error
}

// PGKeyStore keeps idempotency keys in the idempotency_keys table.
type PGKeyStore struct {
	db *pgxpool.Pool
}

func NewPGKeyStore(db *pgxpool.Pool) *PGKeyStore {
	return &PGKeyStore{db: db}
}

func (s *PGKeyStore) Lookup(ctx context.Context, key string) (int, []byte, bool, error) {
	var status int
	var body []byte
	err := s.db.QueryRow(ctx,
		`SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1`,
		key).Scan(&status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, false, nil
	}
	if err != nil {
		return 0, nil, false, err
	}
	return status, body, true, nil
}

func (s *PGKeyStore) Save(ctx context.Context, key string, status int, body []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key_id, response_status, response_body)
		 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		key, status, body)
	return err
}

// Idempotency replays the cached response for a repeated Idempotency-Key, so
// a client retrying a transfer after a network failure cannot move money
// twice. Only success responses are cached: a contention conflict or a server
// error is transient, and a retry with the same key must re-execute the
// transfer. Requests without a key pass straight through.
func Idempotency(keys KeyStore, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("Idempotency-Key")
		if key == "" {
			return c.Next()
		}

		status, body, ok, err := keys.Lookup(c.Context(), key)
		if err != nil {
			// A broken key store must not block transfers; the request runs
			// without replay protection.
			log.Error("idempotency lookup failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			log.Info("idempotency hit, returning cached response", zap.String("key", key))
			c.Set("X-Idempotency-Hit", "true")
			c.Set("Content-Type", "application/json")
			return c.Status(status).Send(body)
		}

		if err := c.Next(); err != nil {
			return err
		}

		resStatus := c.Response().StatusCode()
		if resStatus < 200 || resStatus >= 300 {
			return nil
		}

		if err := keys.Save(c.Context(), key, resStatus, c.Response().Body()); err != nil {
			log.Error("failed to save idempotency key", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
}
