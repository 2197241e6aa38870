package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

var (
	// ErrDuplicate is returned when a user already has an active subscription
	// for the wallet they are trying to add.
	ErrDuplicate = errors.New("wallet already subscribed")

	// ErrAllowlistSync is returned when the local mutation succeeded but
	// pushing the updated allowlist to the webhook provider failed. The
	// mutation is kept; callers should surface a warning, not roll back.
	ErrAllowlistSync = errors.New("allowlist sync failed")
)

// Store is the persistence layer for wallet subscriptions.
type Store interface {
	HasActive(ctx context.Context, userID int64, wallet string) (bool, error)
	Insert(ctx context.Context, userID int64, wallet string) error
	Deactivate(ctx context.Context, userID int64, wallet string) error
	ListByUser(ctx context.Context, userID int64) ([]string, error)
	FindUsersByWallet(ctx context.Context, wallet string) ([]int64, error)
	DistinctActiveWallets(ctx context.Context) ([]string, error)
}

// Syncer pushes the full set of tracked wallets to the webhook provider.
type Syncer interface {
	SyncAllowlist(ctx context.Context, wallets []string) error
}

// Service coordinates subscription mutations with allowlist synchronization.
// A nil Syncer disables provider updates entirely.
type Service struct {
	store  Store
	syncer Syncer
	log    logger.Logger
}

func NewService(store Store, syncer Syncer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Global()
	}
	return &Service{
		store:  store,
		syncer: syncer,
		log:    log.With(logger.F("component", "subscription")),
	}
}

// AddWallet subscribes a user to a wallet. Returns ErrDuplicate if the user
// already follows it. A failed allowlist push returns ErrAllowlistSync while
// leaving the subscription in place.
func (s *Service) AddWallet(ctx context.Context, userID int64, wallet string) error {
	active, err := s.store.HasActive(ctx, userID, wallet)
	if err != nil {
		return fmt.Errorf("check subscription: %w", err)
	}
	if active {
		return ErrDuplicate
	}

	if err := s.store.Insert(ctx, userID, wallet); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert subscription: %w", err)
	}

	s.log.Info("wallet subscribed",
		logger.F("user_id", userID),
		logger.F("wallet", wallet))

	return s.pushAllowlist(ctx)
}

// RemoveWallet unsubscribes a user from a wallet. Removing a wallet the user
// never followed is not an error.
func (s *Service) RemoveWallet(ctx context.Context, userID int64, wallet string) error {
	if err := s.store.Deactivate(ctx, userID, wallet); err != nil {
		return fmt.Errorf("deactivate subscription: %w", err)
	}

	s.log.Info("wallet unsubscribed",
		logger.F("user_id", userID),
		logger.F("wallet", wallet))

	return s.pushAllowlist(ctx)
}

// ListWallets returns the wallets a user currently follows.
func (s *Service) ListWallets(ctx context.Context, userID int64) ([]string, error) {
	return s.store.ListByUser(ctx, userID)
}

// FindUsersForWallet returns the chat IDs subscribed to a wallet address.
// Matching is exact; address casing matters on this chain.
func (s *Service) FindUsersForWallet(ctx context.Context, wallet string) ([]int64, error) {
	return s.store.FindUsersByWallet(ctx, wallet)
}

// AllActiveWallets returns every wallet any user follows, deduplicated.
func (s *Service) AllActiveWallets(ctx context.Context) ([]string, error) {
	return s.store.DistinctActiveWallets(ctx)
}

// Resync pushes the current allowlist to the provider. Used by the periodic
// reconciliation loop to repair earlier soft failures.
func (s *Service) Resync(ctx context.Context) error {
	return s.pushAllowlist(ctx)
}

func (s *Service) pushAllowlist(ctx context.Context) error {
	if s.syncer == nil {
		return nil
	}

	wallets, err := s.store.DistinctActiveWallets(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAllowlistSync, err)
	}

	if err := s.syncer.SyncAllowlist(ctx, wallets); err != nil {
		s.log.Warn("allowlist push failed",
			logger.F("wallets", len(wallets)),
			logger.F("error", err))
		return fmt.Errorf("%w: %v", ErrAllowlistSync, err)
	}

	s.log.Debug("allowlist pushed", logger.F("wallets", len(wallets)))
	return nil
}
