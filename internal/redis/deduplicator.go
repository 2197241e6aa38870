package redis

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

const seenKeyPrefix = "swap:seen:"

// Deduplicator suppresses repeat deliveries of the same transaction. Webhook
// providers redeliver on timeouts, so a signature may arrive more than once.
// Dedup is best-effort: when Redis is unreachable the event is treated as
// unseen so a cache outage never drops notifications.
type Deduplicator struct {
	client     *Client
	instanceID string
	ttl        time.Duration
	log        logger.Logger
}

func NewDeduplicator(client *Client, ttl time.Duration, log logger.Logger) *Deduplicator {
	if log == nil {
		log = logger.Global()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Deduplicator{
		client:     client,
		instanceID: uuid.New().String(),
		ttl:        ttl,
		log:        log.With(logger.F("component", "deduplicator")),
	}
}

// Seen atomically marks a signature as processed and reports whether it had
// been processed before within the TTL window.
func (d *Deduplicator) Seen(ctx context.Context, signature string) (bool, error) {
	key := seenKeyPrefix + signature

	set, err := d.client.rdb.SetNX(ctx, key, d.instanceID, d.ttl).Result()
	if err != nil {
		d.log.Warn("dedup check failed, treating as unseen",
			logger.F("signature", signature),
			logger.F("error", err))
		return false, err
	}

	// SetNX succeeded means the key was new.
	return !set, nil
}
