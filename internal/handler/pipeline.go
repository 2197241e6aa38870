package handler

import (
	"context"
	"errors"

	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/internal/market"
	"github.com/haoxiang14/solana-wallet-tracker/internal/notify"
	"github.com/haoxiang14/solana-wallet-tracker/internal/swap"
	"github.com/haoxiang14/solana-wallet-tracker/pkg/models"
)

// MarketData looks up token stats for notification enrichment.
type MarketData interface {
	TokenStats(ctx context.Context, mint string) (*market.TokenStats, error)
}

// Deduplicator suppresses redelivered transactions.
type Deduplicator interface {
	Seen(ctx context.Context, signature string) (bool, error)
}

// BatchSummary reports what happened to one webhook batch.
type BatchSummary struct {
	Received int `json:"received"`
	Skipped  int `json:"skipped"`
	Notified int `json:"notified"`
	Failed   int `json:"failed"`
}

// Pipeline turns a webhook batch into notifications: filter to swaps, drop
// redeliveries, parse, enrich with market data, compose, fan out. One bad
// event is skipped; it never aborts the batch. market and dedup are optional
// and may be nil.
type Pipeline struct {
	parser     *swap.Parser
	market     MarketData
	composer   *notify.Composer
	dispatcher *notify.Dispatcher
	dedup      Deduplicator
	log        logger.Logger
}

func NewPipeline(parser *swap.Parser, marketData MarketData, composer *notify.Composer, dispatcher *notify.Dispatcher, dedup Deduplicator, log logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Global()
	}
	return &Pipeline{
		parser:     parser,
		market:     marketData,
		composer:   composer,
		dispatcher: dispatcher,
		dedup:      dedup,
		log:        log.With(logger.F("component", "pipeline")),
	}
}

// ProcessBatch handles every event in a webhook delivery and reports counts.
func (p *Pipeline) ProcessBatch(ctx context.Context, events []models.TransactionEvent) BatchSummary {
	summary := BatchSummary{Received: len(events)}

	for i := range events {
		evt := &events[i]

		if !evt.IsSwap() {
			summary.Skipped++
			continue
		}

		if p.dedup != nil && evt.Signature != "" {
			// The signature is marked before parse and dispatch run, so a
			// redelivery after a mid-batch crash stays suppressed until the
			// TTL lapses. That window is the cost of never double-pinging
			// every subscriber on a routine redelivery.
			seen, err := p.dedup.Seen(ctx, evt.Signature)
			if err == nil && seen {
				p.log.Debug("duplicate delivery skipped",
					logger.F("signature", evt.Signature))
				summary.Skipped++
				continue
			}
			// Dedup errors fail open; the event proceeds.
		}

		parsed, err := p.parser.Parse(evt)
		if err != nil {
			if !errors.Is(err, swap.ErrUnparseableDescription) {
				p.log.Error("parse failed",
					logger.F("signature", evt.Signature),
					logger.F("error", err))
			}
			summary.Skipped++
			continue
		}

		stats := p.lookupStats(ctx, &parsed)
		text := p.composer.Compose(&parsed, stats)

		results, err := p.dispatcher.Dispatch(ctx, parsed.Trader, text)
		if err != nil {
			p.log.Error("dispatch failed",
				logger.F("wallet", parsed.Trader),
				logger.F("error", err))
			summary.Failed++
			continue
		}

		for _, r := range results {
			if r.Err != nil {
				summary.Failed++
			} else {
				summary.Notified++
			}
		}
	}

	p.log.Info("batch processed",
		logger.F("received", summary.Received),
		logger.F("skipped", summary.Skipped),
		logger.F("notified", summary.Notified),
		logger.F("failed", summary.Failed))

	return summary
}

// lookupStats fetches market data for the non-native side of the swap.
// Failures degrade to a nil result; the notification goes out without the
// market section.
func (p *Pipeline) lookupStats(ctx context.Context, s *models.Swap) *market.TokenStats {
	if p.market == nil {
		return nil
	}

	mint := s.ToToken
	if models.IsNativeToken(mint) {
		mint = s.FromToken
	}
	if models.IsNativeToken(mint) {
		return nil
	}

	stats, err := p.market.TokenStats(ctx, mint)
	if err != nil {
		p.log.Warn("market lookup failed",
			logger.F("mint", mint),
			logger.F("error", err))
		return nil
	}
	return stats
}
