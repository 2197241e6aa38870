package bot

import (
	"sync"
	"time"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

// Step identifies what input the bot is waiting for from a chat.
type Step int

const (
	StepNone Step = iota
	StepAwaitWalletAdd
	StepAwaitWalletRemove
)

func (s Step) String() string {
	switch s {
	case StepAwaitWalletAdd:
		return "await_wallet_add"
	case StepAwaitWalletRemove:
		return "await_wallet_remove"
	default:
		return "none"
	}
}

// TimeoutNotifier is told when a pending conversation step expires so the
// chat can be informed.
type TimeoutNotifier func(chatID int64)

type stateEntry struct {
	step      Step
	version   uint64
	createdAt time.Time
	timer     *time.Timer
}

// StateStore tracks the pending conversation step per chat. Each entry
// carries a version so that an expiry timer from a superseded step can never
// clear a newer one: the timer captures the version it was armed for and the
// expiry handler compares it against the current entry under the lock.
type StateStore struct {
	mu        sync.Mutex
	entries   map[int64]*stateEntry
	version   uint64
	ttl       time.Duration
	onTimeout TimeoutNotifier
	log       logger.Logger
}

func NewStateStore(ttl time.Duration, onTimeout TimeoutNotifier, log logger.Logger) *StateStore {
	if log == nil {
		log = logger.Global()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StateStore{
		entries:   make(map[int64]*stateEntry),
		ttl:       ttl,
		onTimeout: onTimeout,
		log:       log.With(logger.F("component", "state")),
	}
}

// SetState replaces the chat's pending step and arms a fresh expiry timer.
// Any previously armed timer is stopped.
func (s *StateStore) SetState(chatID int64, step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.entries[chatID]; ok {
		prev.timer.Stop()
	}

	s.version++
	version := s.version

	entry := &stateEntry{
		step:      step,
		version:   version,
		createdAt: time.Now(),
	}
	entry.timer = time.AfterFunc(s.ttl, func() {
		s.expire(chatID, version)
	})
	s.entries[chatID] = entry

	s.log.Debug("state set",
		logger.F("chat_id", chatID),
		logger.F("step", step.String()))
}

// GetState returns the chat's pending step, or StepNone.
func (s *StateStore) GetState(chatID int64) Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[chatID]; ok {
		return entry.step
	}
	return StepNone
}

// ClearState removes the chat's pending step and disarms its timer.
func (s *StateStore) ClearState(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[chatID]; ok {
		entry.timer.Stop()
		delete(s.entries, chatID)
	}
}

// expire clears a state whose timer fired, but only if the version still
// matches. The notifier runs outside the lock.
func (s *StateStore) expire(chatID int64, version uint64) {
	s.mu.Lock()
	entry, ok := s.entries[chatID]
	if !ok || entry.version != version {
		s.mu.Unlock()
		return
	}
	delete(s.entries, chatID)
	notify := s.onTimeout
	s.mu.Unlock()

	s.log.Debug("state expired", logger.F("chat_id", chatID))

	if notify != nil {
		notify(chatID)
	}
}
