package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/internal/subscription"
)

const uniqueViolationCode = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS wallet_subscriptions (
	id               BIGSERIAL PRIMARY KEY,
	telegram_user_id BIGINT      NOT NULL,
	wallet_address   TEXT        NOT NULL,
	is_active        BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS wallet_subscriptions_active_uniq
	ON wallet_subscriptions (telegram_user_id, wallet_address)
	WHERE is_active;
`

// Postgres persists wallet subscriptions behind the subscription.Store
// interface. Uniqueness of active subscriptions is enforced at the storage
// level by a partial unique index, so concurrent adds of the same wallet
// cannot both succeed.
type Postgres struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// NewPostgres connects a pool and applies the schema.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*Postgres, error) {
	if log == nil {
		log = logger.Global()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	p := &Postgres{
		pool: pool,
		log:  log.With(logger.F("component", "store")),
	}

	if err := p.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return p, nil
}

// Migrate applies the subscription schema. Idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	p.log.Debug("schema applied")
	return nil
}

func (p *Postgres) HasActive(ctx context.Context, userID int64, wallet string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM wallet_subscriptions
			WHERE telegram_user_id = $1 AND wallet_address = $2 AND is_active
		)`, userID, wallet).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query subscription: %w", err)
	}
	return exists, nil
}

func (p *Postgres) Insert(ctx context.Context, userID int64, wallet string) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO wallet_subscriptions (telegram_user_id, wallet_address)
		 VALUES ($1, $2)`, userID, wallet)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return subscription.ErrDuplicate
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (p *Postgres) Deactivate(ctx context.Context, userID int64, wallet string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE wallet_subscriptions
		 SET is_active = FALSE
		 WHERE telegram_user_id = $1 AND wallet_address = $2 AND is_active`,
		userID, wallet)
	if err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}
	return nil
}

func (p *Postgres) ListByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT wallet_address FROM wallet_subscriptions
		 WHERE telegram_user_id = $1 AND is_active
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (p *Postgres) FindUsersByWallet(ctx context.Context, wallet string) ([]int64, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT telegram_user_id FROM wallet_subscriptions
		 WHERE wallet_address = $1 AND is_active`, wallet)
	if err != nil {
		return nil, fmt.Errorf("find subscribers: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (p *Postgres) DistinctActiveWallets(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT DISTINCT wallet_address FROM wallet_subscriptions WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("list active wallets: %w", err)
	}
	defer rows.Close()

	var wallets []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// Ping checks database connectivity, used by the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}
