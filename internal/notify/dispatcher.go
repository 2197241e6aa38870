package notify

import (
	"context"
	"fmt"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
)

// Sender delivers a message to a Telegram chat.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// SubscriberIndex resolves which chats follow a wallet.
type SubscriberIndex interface {
	FindUsersForWallet(ctx context.Context, wallet string) ([]int64, error)
}

// DeliveryResult records one delivery attempt.
type DeliveryResult struct {
	ChatID int64
	Err    error
}

// Dispatcher fans a composed notification out to every subscriber of the
// traded wallet. A failed delivery to one chat never stops the rest; every
// subscriber gets exactly one attempt per swap.
type Dispatcher struct {
	sender Sender
	index  SubscriberIndex
	log    logger.Logger
}

func NewDispatcher(sender Sender, index SubscriberIndex, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Global()
	}
	return &Dispatcher{
		sender: sender,
		index:  index,
		log:    log.With(logger.F("component", "dispatcher")),
	}
}

// Dispatch sends text to every subscriber of wallet and reports per-chat
// results. The returned error covers only the subscriber lookup.
func (d *Dispatcher) Dispatch(ctx context.Context, wallet, text string) ([]DeliveryResult, error) {
	chatIDs, err := d.index.FindUsersForWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("resolve subscribers: %w", err)
	}
	if len(chatIDs) == 0 {
		return nil, nil
	}

	results := make([]DeliveryResult, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		err := d.sender.SendMessage(ctx, chatID, text)
		if err != nil {
			d.log.Error("notification delivery failed",
				logger.F("chat_id", chatID),
				logger.F("wallet", wallet),
				logger.F("error", err))
		}
		results = append(results, DeliveryResult{ChatID: chatID, Err: err})
	}

	return results, nil
}
